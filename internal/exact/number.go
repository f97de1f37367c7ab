// Package exact provides the rational values used for every coordinate and
// bound, so repeated comparisons and accumulations never drift.
package exact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrZeroDenominator = errors.New("exact: zero denominator")
	ErrSyntax          = errors.New("exact: invalid number")
)

// Number is an immutable arbitrary-precision rational, always held in lowest
// terms. The zero value is 0.
//
// Operations never mutate the receiver; they return fresh values, so a Number
// can be shared freely between goroutines.
type Number struct {
	r *big.Rat
}

var zeroRat = new(big.Rat)

// Int returns n/1.
func Int(n int64) Number {
	return Number{r: new(big.Rat).SetInt64(n)}
}

// Frac returns num/den reduced to lowest terms.
func Frac(num, den int64) (Number, error) {
	if den == 0 {
		return Number{}, ErrZeroDenominator
	}
	return Number{r: big.NewRat(num, den)}, nil
}

// MustFrac is Frac for constants known to be valid.
func MustFrac(num, den int64) Number {
	n, err := Frac(num, den)
	if err != nil {
		panic(err)
	}
	return n
}

// Parse accepts integers ("7"), fractions ("3/4") and decimals ("-1.25", "1e-3").
// Decimals are converted exactly, never through a float.
func Parse(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}, fmt.Errorf("%w: empty", ErrSyntax)
	}
	if i := strings.IndexByte(s, '/'); i >= 0 && strings.TrimSpace(s[i+1:]) != "" {
		den, ok := new(big.Int).SetString(strings.TrimSpace(s[i+1:]), 10)
		if ok && den.Sign() == 0 {
			return Number{}, ErrZeroDenominator
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Number{}, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	return Number{r: r}, nil
}

// MustParse is Parse for constants known to be valid.
func MustParse(s string) Number {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Number) rat() *big.Rat {
	if n.r == nil {
		return zeroRat
	}
	return n.r
}

// Cmp returns -1, 0 or +1. big.Rat compares by cross-multiplying
// numerators and denominators, so no float conversion is involved.
func (n Number) Cmp(o Number) int { return n.rat().Cmp(o.rat()) }

func (n Number) Equal(o Number) bool { return n.Cmp(o) == 0 }
func (n Number) Less(o Number) bool  { return n.Cmp(o) < 0 }
func (n Number) Sign() int           { return n.rat().Sign() }
func (n Number) IsZero() bool        { return n.Sign() == 0 }

func (n Number) Add(o Number) Number { return Number{r: new(big.Rat).Add(n.rat(), o.rat())} }
func (n Number) Sub(o Number) Number { return Number{r: new(big.Rat).Sub(n.rat(), o.rat())} }
func (n Number) Mul(o Number) Number { return Number{r: new(big.Rat).Mul(n.rat(), o.rat())} }
func (n Number) Neg() Number         { return Number{r: new(big.Rat).Neg(n.rat())} }
func (n Number) Abs() Number         { return Number{r: new(big.Rat).Abs(n.rat())} }

// Quo returns n/o.
func (n Number) Quo(o Number) (Number, error) {
	if o.IsZero() {
		return Number{}, ErrZeroDenominator
	}
	return Number{r: new(big.Rat).Quo(n.rat(), o.rat())}, nil
}

// Floor returns the largest integer <= n.
func (n Number) Floor() int64 {
	r := n.rat()
	// Euclidean division with a positive denominator floors.
	return new(big.Int).Div(r.Num(), r.Denom()).Int64()
}

// Num and Denom return copies of the reduced numerator and denominator.
func (n Number) Num() *big.Int   { return new(big.Int).Set(n.rat().Num()) }
func (n Number) Denom() *big.Int { return new(big.Int).Set(n.rat().Denom()) }

// Float64 is for display and drawing only; ordering never goes through it.
func (n Number) Float64() float64 {
	f, _ := n.rat().Float64()
	return f
}

// String renders "n" for integers and "n/d" otherwise.
func (n Number) String() string { return n.rat().RatString() }

// Decimal renders n with prec digits after the point (rounded half away from zero).
func (n Number) Decimal(prec int) string { return n.rat().FloatString(prec) }

func Min(a, b Number) Number {
	if b.Cmp(a) < 0 {
		return b
	}
	return a
}

func Max(a, b Number) Number {
	if b.Cmp(a) > 0 {
		return b
	}
	return a
}

func (n Number) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *Number) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// MarshalJSON emits a string so values survive JSON round trips exactly.
func (n Number) MarshalJSON() ([]byte, error) { return json.Marshal(n.String()) }

// UnmarshalJSON accepts both "3/4" strings and bare numeric literals; the
// literal's text is parsed directly, so 0.1 stays exactly 1/10.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return n.UnmarshalText([]byte(s))
	}
	return n.UnmarshalText(b)
}
