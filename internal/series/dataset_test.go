package series

import (
	"errors"
	"testing"

	"chartjobs/internal/exact"
	logx "chartjobs/pkg/logx"
)

func TestParseKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want Kind
	}{
		{"", KindScatter},
		{"Bar", KindBar},
		{"line", KindLine},
		{"pyramid", KindAgeGender},
		{"box_plot", KindBoxPlot},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.raw)
		if err != nil {
			t.Fatalf("ParseKind(%q) error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseKind(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
	if _, err := ParseKind("pie"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestBarKeepsCategorySlots(t *testing.T) {
	d := NewBar("sales", logx.Nop())
	for _, c := range []struct {
		label string
		v     int64
	}{{"jan", 3}, {"feb", 9}, {"jan", 4}} {
		if err := d.AddBar(c.label, exact.Int(c.v)); err != nil {
			t.Fatalf("AddBar: %v", err)
		}
	}
	bar := d.Payload.(*Bar)
	if len(bar.Categories) != 2 || bar.Categories[0] != "jan" || bar.Categories[1] != "feb" {
		t.Fatalf("categories = %v", bar.Categories)
	}
	p, _ := d.Series.Get("jan")
	if !p.Equal(exact.IntPt(0, 4)) {
		t.Fatalf("jan = %s, want (0, 4)", p)
	}
	b, _ := d.Series.Bounds()
	if !b.MaxY.Equal(exact.Int(9)) || !b.MinY.Equal(exact.Int(3)) {
		t.Fatalf("bounds = %s", b)
	}
}

func TestAgeGenderPyramidBounds(t *testing.T) {
	d := NewAgeGender("population", logx.Nop())
	_ = d.AddBand("0-14", exact.Int(120), exact.Int(110))
	_ = d.AddBand("15-64", exact.Int(300), exact.Int(320))
	b, _ := d.Series.Bounds()
	if !b.MinX.Equal(exact.Int(-300)) || !b.MaxX.Equal(exact.Int(320)) {
		t.Fatalf("x bounds = %s", b)
	}
	if !b.MinY.Equal(exact.Int(0)) || !b.MaxY.Equal(exact.Int(1)) {
		t.Fatalf("y bounds = %s", b)
	}
}

func TestBoxPlotStoresWhiskers(t *testing.T) {
	d := NewBoxPlot("latency", logx.Nop())
	st := BoxStats{Min: exact.Int(1), Q1: exact.Int(2), Median: exact.Int(3), Q3: exact.Int(4), Max: exact.Int(10)}
	if err := d.AddBox("api", st); err != nil {
		t.Fatalf("AddBox: %v", err)
	}
	if d.Series.Len() != 2 {
		t.Fatalf("Len = %d, want 2", d.Series.Len())
	}
	if got := d.Payload.(*BoxPlot).Stats["api"]; !got.Median.Equal(exact.Int(3)) {
		t.Fatalf("median = %s", got.Median)
	}
}

func TestKindMismatch(t *testing.T) {
	d := NewScatter("pts", logx.Nop())
	if err := d.AddBar("x", exact.Int(1)); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
	bar := NewBar("bars", logx.Nop())
	if err := bar.Add("x", exact.IntPt(1, 1)); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
	if err := d.Add("x", exact.IntPt(1, 1)); err != nil {
		t.Fatalf("scatter Add: %v", err)
	}
}

func TestNewByKind(t *testing.T) {
	for _, k := range []Kind{KindScatter, KindBar, KindLine, KindAgeGender, KindBoxPlot} {
		d, err := New(k, "x", logx.Nop())
		if err != nil {
			t.Fatalf("New(%v): %v", k, err)
		}
		if d.Kind() != k {
			t.Fatalf("Kind = %v, want %v", d.Kind(), k)
		}
	}
}
