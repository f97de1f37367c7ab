package exact

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "7", want: "7"},
		{raw: "3/4", want: "3/4"},
		{raw: "6/8", want: "3/4"},
		{raw: "-1.25", want: "-5/4"},
		{raw: "0.1", want: "1/10"},
		{raw: "1e-3", want: "1/1000"},
		{raw: " -2/4 ", want: "-1/2"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.raw, err)
			}
			if got.String() != tt.want {
				t.Fatalf("Parse(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()
	if _, err := Parse("abc"); !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
	if _, err := Parse(""); !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax for empty input, got %v", err)
	}
	if _, err := Parse("1/0"); !errors.Is(err, ErrZeroDenominator) {
		t.Fatalf("expected ErrZeroDenominator, got %v", err)
	}
	if _, err := Frac(1, 0); !errors.Is(err, ErrZeroDenominator) {
		t.Fatalf("expected ErrZeroDenominator from Frac, got %v", err)
	}
}

func TestNoFloatDrift(t *testing.T) {
	t.Parallel()
	sum := MustParse("0.1").Add(MustParse("0.2"))
	if !sum.Equal(MustParse("0.3")) {
		t.Fatalf("0.1 + 0.2 = %s, want 3/10", sum)
	}

	// Accumulate 1/3 three times: exactly 1.
	acc := Number{}
	third := MustFrac(1, 3)
	for i := 0; i < 3; i++ {
		acc = acc.Add(third)
	}
	if !acc.Equal(Int(1)) {
		t.Fatalf("1/3*3 = %s, want 1", acc)
	}
}

func TestCompareIsValueBased(t *testing.T) {
	t.Parallel()
	a := MustFrac(2, 4)
	b := MustFrac(1, 2)
	if !a.Equal(b) || a.Cmp(b) != 0 {
		t.Fatalf("2/4 should equal 1/2")
	}
	// Values differing far below float64 precision still order correctly.
	x := MustParse("1/10000000000000000000001")
	y := MustParse("1/10000000000000000000000")
	if x.Cmp(y) >= 0 || y.Cmp(x) <= 0 {
		t.Fatalf("expected %s < %s", x, y)
	}
}

func TestZeroValue(t *testing.T) {
	t.Parallel()
	var z Number
	if !z.IsZero() || z.String() != "0" {
		t.Fatalf("zero value = %s", z)
	}
	if !z.Add(Int(2)).Equal(Int(2)) {
		t.Fatal("zero value should act as additive identity")
	}
	if z.Sub(Int(1)).Sign() != -1 {
		t.Fatal("0-1 should be negative")
	}
}

func TestImmutability(t *testing.T) {
	t.Parallel()
	a := Int(5)
	_ = a.Add(Int(1))
	_ = a.Neg()
	if !a.Equal(Int(5)) {
		t.Fatalf("receiver mutated: %s", a)
	}
}

func TestMinMaxFloorQuo(t *testing.T) {
	t.Parallel()
	a, b := MustFrac(-7, 2), Int(3)
	if !Min(a, b).Equal(a) || !Max(a, b).Equal(b) {
		t.Fatal("Min/Max mismatch")
	}
	if got := a.Floor(); got != -4 {
		t.Fatalf("floor(-7/2) = %d, want -4", got)
	}
	if got := MustFrac(7, 2).Floor(); got != 3 {
		t.Fatalf("floor(7/2) = %d, want 3", got)
	}
	q, err := Int(1).Quo(Int(3))
	if err != nil || !q.Equal(MustFrac(1, 3)) {
		t.Fatalf("1/3 = %s (%v)", q, err)
	}
	if _, err := Int(1).Quo(Number{}); !errors.Is(err, ErrZeroDenominator) {
		t.Fatalf("expected ErrZeroDenominator, got %v", err)
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()
	var p Point
	if err := json.Unmarshal([]byte(`{"x": 0.1, "y": "-2/6"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !p.Equal(Pt(MustFrac(1, 10), MustFrac(-1, 3))) {
		t.Fatalf("decoded %s", p)
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"x":"1/10","y":"-1/3"}` {
		t.Fatalf("marshal = %s", b)
	}
}

func TestPointKey(t *testing.T) {
	t.Parallel()
	a := Pt(MustFrac(2, 4), Int(1))
	b := Pt(MustFrac(1, 2), MustFrac(3, 3))
	if a.Key() != b.Key() || !a.Equal(b) {
		t.Fatalf("value-equal points differ: %s vs %s", a.Key(), b.Key())
	}
}
