package solver

import (
	"fmt"
	"math"
	"strconv"
)

// Precision is the number of decimal places in the canonical form of a
// float result. Every float the evaluator returns is rounded to this
// precision before it is compared or rendered.
const Precision = 3

// Kind discriminates the value variants the evaluator works with.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindFraction
	KindString
	KindBool
	KindPair
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindFraction:
		return "fraction"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindPair:
		return "pair"
	default:
		return "unknown"
	}
}

// Value is the tagged union flowing through sampling, evaluation and
// rendering. Fractions keep exact p/q form so they render as "p/q"
// instead of a rounded decimal. Pair holds a composite result such as
// the two roots of a quadratic.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Num   int64 // fraction numerator
	Den   int64 // fraction denominator, always > 0
	Str   string
	Bool  bool
	A, B  *Value // pair elements
}

// Int64 constructs an integer value.
func Int64(n int64) Value { return Value{Kind: KindInt, Int: n} }

// Float64 constructs a float value rounded to the canonical precision.
func Float64(f float64) Value { return Value{Kind: KindFloat, Float: Round(f)} }

// Fraction constructs a reduced fraction with a positive denominator.
// A denominator of 1 collapses to an integer.
func Fraction(num, den int64) (Value, error) {
	if den == 0 {
		return Value{}, fmt.Errorf("fraction with zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := GCD(abs(num), den)
	num, den = num/g, den/g
	if den == 1 {
		return Int64(num), nil
	}
	return Value{Kind: KindFraction, Num: num, Den: den}, nil
}

// Str constructs a string label value.
func Str(s string) Value { return Value{Kind: KindString, Str: s} }

// Boolean constructs a bool value.
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Pair constructs a composite two-element value.
func Pair(a, b Value) Value { return Value{Kind: KindPair, A: &a, B: &b} }

// AsFloat reports the numeric content of the value. The second return
// is false for strings, bools and pairs.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	case KindFraction:
		return float64(v.Num) / float64(v.Den), true
	default:
		return 0, false
	}
}

// String renders the canonical text form used in templates and
// fingerprints: integers unformatted, floats at fixed precision with
// trailing zeros trimmed, fractions as "p/q", pairs as "a, b".
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return formatFloat(v.Float)
	case KindFraction:
		return fmt.Sprintf("%d/%d", v.Num, v.Den)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindPair:
		return v.A.String() + ", " + v.B.String()
	default:
		return ""
	}
}

// Equal compares two values: exact for ints, strings and bools, within
// 10^-Precision for anything numeric, element-wise for pairs.
func (v Value) Equal(o Value) bool {
	if v.Kind == KindPair || o.Kind == KindPair {
		if v.Kind != KindPair || o.Kind != KindPair {
			return false
		}
		return v.A.Equal(*o.A) && v.B.Equal(*o.B)
	}
	if vf, ok := v.AsFloat(); ok {
		if of, ok := o.AsFloat(); ok {
			return math.Abs(vf-of) < tolerance
		}
		return false
	}
	return v.Kind == o.Kind && v.Str == o.Str && v.Bool == o.Bool
}

const tolerance = 1e-3

// Round rounds f to the canonical precision.
func Round(f float64) float64 {
	shift := math.Pow(10, Precision)
	return math.Round(f*shift) / shift
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(Round(f), 'f', Precision, 64)
	// Trim trailing zeros, then a bare trailing point.
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

// GCD returns the greatest common divisor of two non-negative integers.
func GCD(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// LCM returns the least common multiple of two non-negative integers.
func LCM(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a / GCD(a, b) * b
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
