// Package series holds the chart data containers: an identifier-keyed point
// collection with incrementally maintained extrema, and the Dataset union
// built on top of it.
package series

import (
	"fmt"
	"sort"
	"sync"

	"chartjobs/internal/exact"
	logx "chartjobs/pkg/logx"
)

// Bounds is the bounding box over every point ever added.
type Bounds struct {
	MinX, MaxX exact.Number
	MinY, MaxY exact.Number
}

func (b Bounds) Width() exact.Number  { return b.MaxX.Sub(b.MinX) }
func (b Bounds) Height() exact.Number { return b.MaxY.Sub(b.MinY) }

// Contains reports whether p lies inside b (edges included).
func (b Bounds) Contains(p exact.Point) bool {
	return b.MinX.Cmp(p.X) <= 0 && p.X.Cmp(b.MaxX) <= 0 &&
		b.MinY.Cmp(p.Y) <= 0 && p.Y.Cmp(b.MaxY) <= 0
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%s, %s]x[%s, %s]", b.MinX, b.MaxX, b.MinY, b.MaxY)
}

// Bounded maps identifiers to points and tracks the running extrema.
//
// The extrema are high-water marks: they are widened on every Add and never
// recomputed from the stored points, so overwriting an id with a point that
// would shrink the box leaves the box as it was.
//
// Bounded is safe for concurrent use.
type Bounded[K comparable] struct {
	name string
	log  logx.Logger

	mu     sync.RWMutex
	points map[K]exact.Point
	bounds Bounds
	seeded bool
}

func NewBounded[K comparable](name string, log logx.Logger) *Bounded[K] {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Bounded[K]{
		name:   name,
		log:    log,
		points: make(map[K]exact.Point),
	}
}

func (s *Bounded[K]) Name() string { return s.name }

// Add stores p under id and widens the extrema to cover it.
// Re-adding an existing id logs a warning and overwrites the stored point.
func (s *Bounded[K]) Add(id K, p exact.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.points[id]; ok {
		s.log.Warn("series id already present; overwriting",
			logx.String("series", s.name),
			logx.Any("id", id),
			logx.Stringer("old", prev),
			logx.Stringer("new", p),
		)
	}
	s.points[id] = p

	if !s.seeded {
		s.bounds = Bounds{MinX: p.X, MaxX: p.X, MinY: p.Y, MaxY: p.Y}
		s.seeded = true
	}
	s.bounds.MaxX = exact.Max(s.bounds.MaxX, p.X)
	s.bounds.MinX = exact.Min(s.bounds.MinX, p.X)
	s.bounds.MaxY = exact.Max(s.bounds.MaxY, p.Y)
	s.bounds.MinY = exact.Min(s.bounds.MinY, p.Y)
}

// Bounds returns the extrema; ok is false until the first Add.
func (s *Bounded[K]) Bounds() (b Bounds, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds, s.seeded
}

func (s *Bounded[K]) Get(id K) (exact.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.points[id]
	return p, ok
}

func (s *Bounded[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Entry is one stored (id, point) pair.
type Entry[K comparable] struct {
	ID    K
	Point exact.Point
}

// Points returns a copy of the stored entries in unspecified order.
func (s *Bounded[K]) Points() []Entry[K] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry[K], 0, len(s.points))
	for id, p := range s.points {
		out = append(out, Entry[K]{ID: id, Point: p})
	}
	return out
}

// Sorted returns the stored entries ordered by less.
func (s *Bounded[K]) Sorted(less func(a, b Entry[K]) bool) []Entry[K] {
	out := s.Points()
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// ByX orders entries by x, then y.
func ByX[K comparable](a, b Entry[K]) bool {
	if c := a.Point.X.Cmp(b.Point.X); c != 0 {
		return c < 0
	}
	return a.Point.Y.Less(b.Point.Y)
}
