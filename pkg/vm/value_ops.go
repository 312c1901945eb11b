package vm

import "math"

// Operator semantics shared by the tree walker and the bytecode machine.

// numberMod is the 11.5.3 remainder: C-style fmod, not Go's integer %.
func numberMod(x, y float64) float64 {
	return math.Mod(x, y)
}

// NumberMod is numberMod for use by other packages.
func NumberMod(x, y float64) float64 { return numberMod(x, y) }

// Eq implements the abstract equality of 11.9.3.
func Eq(i *Interpreter, x, y Value) bool {
	if x.Type == y.Type {
		switch x.Type {
		case TypeUndefined, TypeNull:
			return true
		case TypeNumber:
			if math.IsNaN(x.num) || math.IsNaN(y.num) {
				return false
			}
			return x.num == y.num
		case TypeString:
			return x.str.Equals(y.str)
		case TypeBoolean:
			return x.b == y.b
		case TypeObject:
			return Joined(x.obj, y.obj)
		}
		i.ThrowError("bad value type in equality")
	}
	switch {
	case x.Type == TypeNull && y.Type == TypeUndefined:
		return true
	case x.Type == TypeUndefined && y.Type == TypeNull:
		return true
	case x.Type == TypeNumber && y.Type == TypeString:
		return Eq(i, x, NumberValue(i.ToNumber(y)))
	case x.Type == TypeString && y.Type == TypeNumber:
		return Eq(i, NumberValue(i.ToNumber(x)), y)
	case x.Type == TypeBoolean:
		return Eq(i, NumberValue(i.ToNumber(x)), y)
	case y.Type == TypeBoolean:
		return Eq(i, x, NumberValue(i.ToNumber(y)))
	case (x.Type == TypeString || x.Type == TypeNumber) && y.Type == TypeObject:
		return Eq(i, x, i.ToPrimitive(y, HintNone))
	case (y.Type == TypeString || y.Type == TypeNumber) && x.Type == TypeObject:
		return Eq(i, i.ToPrimitive(x, HintNone), y)
	}
	return false
}

// StrictEq implements the strict equality of 11.9.6.
func StrictEq(x, y Value) bool {
	if x.Type != y.Type {
		return false
	}
	switch x.Type {
	case TypeUndefined, TypeNull:
		return true
	case TypeNumber:
		if math.IsNaN(x.num) || math.IsNaN(y.num) {
			return false
		}
		return x.num == y.num
	case TypeString:
		return x.str.Equals(y.str)
	case TypeBoolean:
		return x.b == y.b
	case TypeObject:
		return Joined(x.obj, y.obj)
	}
	return false
}

// Compare implements the abstract relational comparison x < y of 11.8.5.
// The result is undefined (NaN involved), true or false.
func Compare(i *Interpreter, x, y Value) Value {
	px := i.ToPrimitive(x, HintNumber)
	py := i.ToPrimitive(y, HintNumber)
	if px.Type == TypeString && py.Type == TypeString {
		a, b := px.str, py.str
		k := 0
		for k < a.Length() && k < b.Length() && a.At(k) == b.At(k) {
			k++
		}
		switch {
		case k == b.Length():
			return False
		case k == a.Length():
			return True
		}
		return BooleanValue(a.At(k) < b.At(k))
	}
	nx := i.ToNumber(px)
	ny := i.ToNumber(py)
	switch {
	case math.IsNaN(nx) || math.IsNaN(ny):
		return Undefined
	case nx == ny:
		return False
	case math.IsInf(nx, 1):
		return False
	case math.IsInf(ny, 1):
		return True
	case math.IsInf(ny, -1):
		return False
	case math.IsInf(nx, -1):
		return True
	}
	return BooleanValue(nx < ny)
}

// Add implements the 11.6.1 addition: string concatenation when either
// operand is a string after ToPrimitive, numeric otherwise.
func Add(i *Interpreter, x, y Value) Value {
	px := i.ToPrimitive(x, HintNone)
	py := i.ToPrimitive(y, HintNone)
	if px.Type == TypeString || py.Type == TypeString {
		return StringValue(ConcatStrings(i, i.ToString(px), i.ToString(py)))
	}
	return NumberValue(i.ToNumber(px) + i.ToNumber(py))
}

// TypeofValue returns the typeof string for a non-reference value.
func TypeofValue(v Value) *String {
	switch v.Type {
	case TypeUndefined:
		return strUndefined
	case TypeNull:
		return strObject
	case TypeBoolean:
		return strBoolean
	case TypeNumber:
		return strNumber
	case TypeString:
		return strStringTy
	case TypeObject:
		if HasCall(v.obj) {
			return strFunction
		}
		return strObject
	}
	return InternGlobal("unknown")
}

// Instanceof implements 11.8.6: delegation to the right operand's
// HasInstance.
func Instanceof(i *Interpreter, x, y Value) bool {
	if y.Type != TypeObject {
		i.ThrowTypeError("instanceof: right-hand side is not an object")
	}
	hi, ok := y.obj.(HasInstancer)
	if !ok {
		i.ThrowTypeError("instanceof: object has no [[HasInstance]]")
	}
	return hi.HasInstance(i, x)
}

// In implements 11.8.7: name presence on the right operand.
func In(i *Interpreter, x, y Value) bool {
	if y.Type != TypeObject {
		i.ThrowTypeError("in: right-hand side is not an object")
	}
	return y.obj.HasProperty(i, i.ToString(x))
}
