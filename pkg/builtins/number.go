package builtins

import (
	"math"
	"strconv"
	"strings"

	"corvid/pkg/vm"
)

// The Number constructor and prototype (15.7).

// NumberObject wraps a number primitive.
type NumberObject struct {
	vm.NativeObject
	value float64
}

// Value returns the wrapped primitive.
func (n *NumberObject) Value() float64 { return n.value }

func (n *NumberObject) DefaultValue(i *vm.Interpreter, hint vm.Hint) vm.Value {
	return vm.DefaultValueOf(i, n, hint)
}

func allocNumber(i *vm.Interpreter) {
	i.NumberPrototype = &NumberObject{
		NativeObject: *vm.NewNative("Number", nil),
	}
}

func numberConstruct(i *vm.Interpreter, args []vm.Value) vm.Object {
	v := 0.0
	if len(args) > 0 {
		v = i.ToNumber(args[0])
	}
	return &NumberObject{
		NativeObject: *vm.NewNative("Number", i.NumberPrototype),
		value:        v,
	}
}

func thisNumber(i *vm.Interpreter, this vm.Object, method string) float64 {
	no, ok := this.(*NumberObject)
	if !ok {
		i.ThrowTypeError("Number.prototype." + method + " called on non-number")
	}
	return no.value
}

func initNumber(i *vm.Interpreter) {
	ctor := newCtor(i, "Number", 1,
		func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
			if len(args) == 0 {
				return vm.NumberValue(0)
			}
			return vm.NumberValue(i.ToNumber(args[0]))
		},
		numberConstruct)
	i.Number = ctor
	proto := i.NumberPrototype

	if np, ok := proto.(*NumberObject); ok {
		np.NativeObject.SetProto(i.ObjectPrototype)
	}

	attrs := vm.AttrReadOnly | vm.AttrDontEnum | vm.AttrDontDelete
	ctor.Put(i, i.InternGo("MAX_VALUE"), vm.NumberValue(math.MaxFloat64), attrs)
	ctor.Put(i, i.InternGo("MIN_VALUE"), vm.NumberValue(5e-324), attrs)
	ctor.Put(i, i.InternGo("NaN"), vm.NumberValue(math.NaN()), attrs)
	ctor.Put(i, i.InternGo("POSITIVE_INFINITY"), vm.NumberValue(math.Inf(1)), attrs)
	ctor.Put(i, i.InternGo("NEGATIVE_INFINITY"), vm.NumberValue(math.Inf(-1)), attrs)

	method(i, proto, "toString", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		v := thisNumber(i, this, "toString")
		radix := 10
		if len(args) > 0 && args[0].Type != vm.TypeUndefined {
			radix = int(i.ToInteger(args[0]))
		}
		if radix == 10 {
			return vm.StringValue(vm.NumberToString(i, v))
		}
		if radix < 2 || radix > 36 {
			i.ThrowRangeError("toString radix must be between 2 and 36")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return vm.StringValue(vm.NumberToString(i, v))
		}
		neg := v < 0
		if neg {
			v = -v
		}
		s := strconv.FormatInt(int64(v), radix)
		if frac := v - math.Trunc(v); frac != 0 {
			// A short fractional expansion suffices for display.
			digits := "0123456789abcdefghijklmnopqrstuvwxyz"
			var b strings.Builder
			b.WriteString(".")
			for k := 0; k < 20 && frac != 0; k++ {
				frac *= float64(radix)
				d := int(frac)
				b.WriteByte(digits[d])
				frac -= float64(d)
			}
			s += b.String()
		}
		if neg {
			s = "-" + s
		}
		return vm.StringValue(vm.NewStringFromGo(i, s))
	})
	method(i, proto, "toLocaleString", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		return vm.StringValue(vm.NumberToString(i, thisNumber(i, this, "toLocaleString")))
	})
	method(i, proto, "valueOf", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		return vm.NumberValue(thisNumber(i, this, "valueOf"))
	})

	linkCtor(i, "Number", ctor, proto)
}
