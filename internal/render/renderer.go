// Package render turns a series.Dataset into an artifact. Output formats are
// not stable; callers should treat Artifact.Data as opaque.
package render

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"chartjobs/internal/exact"
	"chartjobs/internal/series"
)

var ErrEmpty = errors.New("dataset has no points")

// Artifact is the result of one render.
type Artifact struct {
	Format string // "png" or "text"
	Data   []byte
	Points int
	Path   string // set when the artifact was also written to disk
}

type Renderer interface {
	Render(ctx context.Context, ds *series.Dataset) (Artifact, error)
}

// Func adapts a plain function to Renderer.
type Func func(ctx context.Context, ds *series.Dataset) (Artifact, error)

func (f Func) Render(ctx context.Context, ds *series.Dataset) (Artifact, error) { return f(ctx, ds) }

// viewport returns the dataset bounds widened by one unit on any axis with
// zero extent, so every viewport has a non-zero area.
func viewport(ds *series.Dataset) (series.Bounds, error) {
	if ds == nil || ds.Series == nil {
		return series.Bounds{}, ErrEmpty
	}
	b, ok := ds.Series.Bounds()
	if !ok {
		return series.Bounds{}, ErrEmpty
	}
	one := exact.Int(1)
	if b.Width().IsZero() {
		b.MinX, b.MaxX = b.MinX.Sub(one), b.MaxX.Add(one)
	}
	if b.Height().IsZero() {
		b.MinY, b.MaxY = b.MinY.Sub(one), b.MaxY.Add(one)
	}
	return b, nil
}

// scale maps v from [lo, lo+span] onto the integer grid [0, steps].
// span must be non-zero.
func scale(v, lo, span exact.Number, steps int) int {
	q, err := v.Sub(lo).Mul(exact.Int(int64(steps))).Quo(span)
	if err != nil {
		return 0
	}
	n := int(q.Floor())
	if n < 0 {
		return 0
	}
	if n > steps {
		return steps
	}
	return n
}

func clamp(v, lo, hi exact.Number) exact.Number {
	return exact.Min(exact.Max(v, lo), hi)
}

// slug makes a dataset name safe for use as a file name.
func slug(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		default:
			return '-'
		}
	}, strings.TrimSpace(name))
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if s == "" {
		return "chart"
	}
	return s
}
