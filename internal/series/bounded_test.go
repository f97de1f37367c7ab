package series

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"testing"

	"chartjobs/internal/exact"
	logx "chartjobs/pkg/logx"
)

func wantBounds(t *testing.T, s *Bounded[string], minX, maxX, minY, maxY int64) {
	t.Helper()
	b, ok := s.Bounds()
	if !ok {
		t.Fatalf("bounds not seeded")
	}
	want := Bounds{MinX: exact.Int(minX), MaxX: exact.Int(maxX), MinY: exact.Int(minY), MaxY: exact.Int(maxY)}
	if !b.MinX.Equal(want.MinX) || !b.MaxX.Equal(want.MaxX) || !b.MinY.Equal(want.MinY) || !b.MaxY.Equal(want.MaxY) {
		t.Fatalf("bounds = %s, want %s", b, want)
	}
}

func TestEmptySeriesHasNoBounds(t *testing.T) {
	s := NewBounded[string]("empty", logx.Nop())
	if _, ok := s.Bounds(); ok {
		t.Fatal("empty series should report no bounds")
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d", s.Len())
	}
}

func TestFirstAddSeedsBounds(t *testing.T) {
	s := NewBounded[string]("seed", logx.Nop())
	s.Add("a", exact.IntPt(-3, 7))
	wantBounds(t, s, -3, -3, 7, 7)
}

func TestOverwriteNeverShrinksBounds(t *testing.T) {
	var buf bytes.Buffer
	s := NewBounded[string]("regress", logx.NewJSON(&buf, "debug"))

	s.Add("id", exact.IntPt(0, 0))
	s.Add("id", exact.IntPt(5, 5))
	wantBounds(t, s, 0, 5, 0, 5)
	if p, _ := s.Get("id"); !p.Equal(exact.IntPt(5, 5)) {
		t.Fatalf("stored point = %s, want (5, 5)", p)
	}

	s.Add("id", exact.IntPt(1, 1))
	wantBounds(t, s, 0, 5, 0, 5)
	if p, _ := s.Get("id"); !p.Equal(exact.IntPt(1, 1)) {
		t.Fatalf("stored point = %s, want (1, 1)", p)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	// Two overwrites, two warnings.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode warning: %v", err)
	}
	if rec["level"] != "warn" || rec["series"] != "regress" || rec["id"] != "id" {
		t.Fatalf("unexpected warning record: %v", rec)
	}
}

func TestHighWaterMarkProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := NewBounded[string]("prop", logx.Nop())
	var seen []exact.Point

	for i := 0; i < 500; i++ {
		// Small id space forces frequent overwrites.
		id := strconv.Itoa(rng.Intn(20))
		p := exact.Pt(
			exact.MustFrac(rng.Int63n(2001)-1000, rng.Int63n(9)+1),
			exact.MustFrac(rng.Int63n(2001)-1000, rng.Int63n(9)+1),
		)
		s.Add(id, p)
		seen = append(seen, p)

		b, ok := s.Bounds()
		if !ok {
			t.Fatal("bounds missing after Add")
		}
		if b.MinX.Cmp(b.MaxX) > 0 || b.MinY.Cmp(b.MaxY) > 0 {
			t.Fatalf("inverted bounds %s", b)
		}
		for _, q := range seen {
			if !b.Contains(q) {
				t.Fatalf("step %d: bounds %s do not cover %s", i, b, q)
			}
		}
		for _, e := range s.Points() {
			if !b.Contains(e.Point) {
				t.Fatalf("stored point %s outside %s", e.Point, b)
			}
		}
	}
}

func TestConcurrentAdd(t *testing.T) {
	s := NewBounded[int]("conc", logx.Nop())
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Add(w*100+i, exact.IntPt(int64(w), int64(i)))
			}
		}(w)
	}
	wg.Wait()
	if s.Len() != 800 {
		t.Fatalf("Len = %d, want 800", s.Len())
	}
	b, _ := s.Bounds()
	if !b.MinX.Equal(exact.Int(0)) || !b.MaxX.Equal(exact.Int(7)) || !b.MaxY.Equal(exact.Int(99)) {
		t.Fatalf("bounds = %s", b)
	}
}

func TestSortedByX(t *testing.T) {
	s := NewBounded[string]("sorted", logx.Nop())
	s.Add("c", exact.IntPt(3, 0))
	s.Add("a", exact.IntPt(1, 0))
	s.Add("b", exact.Pt(exact.MustFrac(3, 2), exact.Int(0)))
	got := s.Sorted(ByX[string])
	ids := make([]string, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	if strings.Join(ids, "") != "abc" {
		t.Fatalf("order = %v", ids)
	}
}
