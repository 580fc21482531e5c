package solver

import "testing"

func TestValueString(t *testing.T) {
	half, _ := Fraction(1, 2)

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"int", Int64(42), "42"},
		{"negative int", Int64(-7), "-7"},
		{"whole float", Float64(5.0), "5"},
		{"float trimmed", Float64(1.50), "1.5"},
		{"float rounded", Float64(0.33333), "0.333"},
		{"fraction", half, "1/2"},
		{"string", Str("Terminating"), "Terminating"},
		{"bool", Boolean(true), "true"},
		{"pair", Pair(Int64(12), Int64(2)), "12, 2"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%s: String() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFraction_Canonical(t *testing.T) {
	v, err := Fraction(4, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Num != 1 || v.Den != 2 {
		t.Errorf("4/8 reduced to %d/%d, want 1/2", v.Num, v.Den)
	}

	v, err = Fraction(3, -6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Num != -1 || v.Den != 2 {
		t.Errorf("3/-6 normalized to %d/%d, want -1/2", v.Num, v.Den)
	}

	v, err = Fraction(6, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindInt || v.Int != 2 {
		t.Errorf("6/3 = %v, want int 2", v)
	}

	if _, err := Fraction(1, 0); err == nil {
		t.Error("zero denominator accepted")
	}
}

func TestValueEqual(t *testing.T) {
	half, _ := Fraction(1, 2)

	if !Int64(2).Equal(Float64(2.0004)) {
		t.Error("2 should equal 2.0004 within tolerance")
	}
	if Int64(2).Equal(Float64(2.01)) {
		t.Error("2 should not equal 2.01")
	}
	if !half.Equal(Float64(0.5)) {
		t.Error("1/2 should equal 0.5")
	}
	if !Str("x").Equal(Str("x")) || Str("x").Equal(Str("y")) {
		t.Error("string equality broken")
	}
	if !Pair(Int64(1), Int64(2)).Equal(Pair(Int64(1), Int64(2))) {
		t.Error("equal pairs not equal")
	}
	if Pair(Int64(1), Int64(2)).Equal(Int64(1)) {
		t.Error("pair should not equal scalar")
	}
}

func TestGCDLCM(t *testing.T) {
	tests := []struct {
		a, b, gcd, lcm int64
	}{
		{12, 18, 6, 36},
		{7, 13, 1, 91},
		{5, 5, 5, 5},
		{0, 9, 9, 0},
	}
	for _, tt := range tests {
		if got := GCD(tt.a, tt.b); got != tt.gcd {
			t.Errorf("GCD(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.gcd)
		}
		if got := LCM(tt.a, tt.b); got != tt.lcm {
			t.Errorf("LCM(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.lcm)
		}
	}
}
