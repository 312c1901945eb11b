package vm

import (
	"math"
	"testing"
)

func TestToBooleanPrimitives(t *testing.T) {
	i := NewInterpreter()
	tests := []struct {
		v    Value
		want bool
	}{
		{Undefined, false},
		{Null, false},
		{True, true},
		{False, false},
		{NumberValue(0), false},
		{NumberValue(math.Copysign(0, -1)), false},
		{NumberValue(math.NaN()), false},
		{NumberValue(1), true},
		{NumberValue(math.Inf(-1)), true},
		{StringValue(StaticString("")), false},
		{StringValue(StaticString("x")), true},
	}
	for _, tt := range tests {
		if got := i.ToBoolean(tt.v); got != tt.want {
			t.Errorf("ToBoolean(%v %v) = %v, want %v", tt.v.Type, tt.v, got, tt.want)
		}
	}
}

func TestToNumberStrings(t *testing.T) {
	i := NewInterpreter()
	tests := []struct {
		s    string
		want float64
	}{
		{"", 0},
		{"  \t ", 0},
		{"42", 42},
		{" 42 ", 42},
		{"-1.5", -1.5},
		{"+3", 3},
		{"1e2", 100},
		{".5", 0.5},
		{"0x10", 16},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
	}
	for _, tt := range tests {
		got := i.ToNumber(StringValue(NewStringFromGo(i, tt.s)))
		if got != tt.want {
			t.Errorf("ToNumber(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
	for _, bad := range []string{"12x", "1.2.3", "0x", "--1", "1e"} {
		got := i.ToNumber(StringValue(NewStringFromGo(i, bad)))
		if !math.IsNaN(got) {
			t.Errorf("ToNumber(%q) = %v, want NaN", bad, got)
		}
	}
}

func TestToInt32Uint32Agree(t *testing.T) {
	// For every finite n, ToInt32(n) equals ToInt32(ToUint32(n)) as
	// 32-bit two's complement.
	i := NewInterpreter()
	for _, n := range []float64{0, 1, -1, 2147483647, 2147483648, -2147483648,
		4294967295, 4294967296, 1e10, -1e10, 3.7, -3.7} {
		a := i.ToInt32(NumberValue(n))
		b := i.ToInt32(NumberValue(float64(i.ToUint32(NumberValue(n)))))
		if a != b {
			t.Errorf("n=%v: ToInt32=%d, ToInt32(ToUint32)=%d", n, a, b)
		}
	}
}

func TestToUint16(t *testing.T) {
	i := NewInterpreter()
	if got := i.ToUint16(NumberValue(65536 + 5)); got != 5 {
		t.Errorf("ToUint16(65541) = %d, want 5", got)
	}
	if got := i.ToUint16(NumberValue(-1)); got != 65535 {
		t.Errorf("ToUint16(-1) = %d, want 65535", got)
	}
}

func TestNumberToString(t *testing.T) {
	i := NewInterpreter()
	tests := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-1, "-1"},
		{3.5, "3.5"},
		{100, "100"},
		{0.1, "0.1"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{123456789, "123456789"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{0.000001, "0.000001"},
		{1.5e22, "1.5e+22"},
	}
	for _, tt := range tests {
		if got := NumberToString(i, tt.n).String(); got != tt.want {
			t.Errorf("NumberToString(%v) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestToStringToNumberRoundTrip(t *testing.T) {
	// ToString(ToNumber(s)) == s for canonical numeric forms.
	i := NewInterpreter()
	for _, s := range []string{"0", "1", "-1", "3.5", "0.1", "100", "1e+21", "NaN", "Infinity"} {
		n := i.ToNumber(StringValue(NewStringFromGo(i, s)))
		if got := NumberToString(i, n).String(); got != s {
			t.Errorf("round trip %q -> %v -> %q", s, n, got)
		}
	}
}

func TestStrictEq(t *testing.T) {
	i := NewInterpreter()
	_ = i
	nan := NumberValue(math.NaN())
	if StrictEq(nan, nan) {
		t.Error("NaN === NaN must be false")
	}
	if !StrictEq(NumberValue(0), NumberValue(math.Copysign(0, -1))) {
		t.Error("+0 === -0 must be true")
	}
	if !StrictEq(Undefined, Undefined) || !StrictEq(Null, Null) {
		t.Error("undefined/null strict equality broken")
	}
	if StrictEq(Null, Undefined) {
		t.Error("null === undefined must be false")
	}
	a := StringValue(StaticString("ab"))
	b := StringValue(StaticString("ab"))
	if !StrictEq(a, b) {
		t.Error("equal strings must be strictly equal")
	}
}

func TestAbstractEq(t *testing.T) {
	i := NewInterpreter()
	if !Eq(i, Null, Undefined) {
		t.Error("null == undefined must be true")
	}
	if !Eq(i, NumberValue(1), StringValue(StaticString("1"))) {
		t.Error("1 == '1' must be true")
	}
	if !Eq(i, True, NumberValue(1)) {
		t.Error("true == 1 must be true")
	}
	if Eq(i, NumberValue(math.NaN()), NumberValue(math.NaN())) {
		t.Error("NaN == NaN must be false")
	}
}

func TestCompare(t *testing.T) {
	i := NewInterpreter()
	if v := Compare(i, NumberValue(1), NumberValue(2)); !v.Bool() {
		t.Error("1 < 2")
	}
	if v := Compare(i, NumberValue(math.NaN()), NumberValue(1)); v.Type != TypeUndefined {
		t.Error("NaN comparison must be undefined")
	}
	// String comparison is lexicographic on code units.
	lt := Compare(i, StringValue(StaticString("abc")), StringValue(StaticString("abd")))
	if !lt.Bool() {
		t.Error("'abc' < 'abd'")
	}
	pre := Compare(i, StringValue(StaticString("ab")), StringValue(StaticString("abc")))
	if !pre.Bool() {
		t.Error("'ab' < 'abc'")
	}
}

func TestParseNumericStringHexSign(t *testing.T) {
	s := StaticString("-0x10")
	if _, ok := ParseNumericString(s, false); ok {
		t.Error("signed hex must fail without ext1")
	}
	if n, ok := ParseNumericString(s, true); !ok || n != -16 {
		t.Errorf("signed hex under ext1 = %v %v, want -16", n, ok)
	}
}
