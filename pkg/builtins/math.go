package builtins

import (
	"math"
	"math/rand"

	"corvid/pkg/vm"
)

// The Math object (15.8).

func allocMath(i *vm.Interpreter) {
	i.Math = vm.NewNative("Math", nil)
}

func initMath(i *vm.Interpreter) {
	m := i.Math
	if mo, ok := m.(*vm.NativeObject); ok {
		mo.SetProto(i.ObjectPrototype)
	}

	attrs := vm.AttrReadOnly | vm.AttrDontEnum | vm.AttrDontDelete
	m.Put(i, i.InternGo("E"), vm.NumberValue(math.E), attrs)
	m.Put(i, i.InternGo("LN10"), vm.NumberValue(math.Ln10), attrs)
	m.Put(i, i.InternGo("LN2"), vm.NumberValue(math.Ln2), attrs)
	m.Put(i, i.InternGo("LOG2E"), vm.NumberValue(math.Log2E), attrs)
	m.Put(i, i.InternGo("LOG10E"), vm.NumberValue(math.Log10E), attrs)
	m.Put(i, i.InternGo("PI"), vm.NumberValue(math.Pi), attrs)
	m.Put(i, i.InternGo("SQRT1_2"), vm.NumberValue(math.Sqrt(0.5)), attrs)
	m.Put(i, i.InternGo("SQRT2"), vm.NumberValue(math.Sqrt2), attrs)

	unary := func(name string, fn func(float64) float64) {
		method(i, m, name, 1, func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
			return vm.NumberValue(fn(i.ToNumber(arg(args, 0))))
		})
	}
	unary("abs", math.Abs)
	unary("acos", math.Acos)
	unary("asin", math.Asin)
	unary("atan", math.Atan)
	unary("ceil", math.Ceil)
	unary("cos", math.Cos)
	unary("exp", math.Exp)
	unary("floor", math.Floor)
	unary("log", math.Log)
	unary("sin", math.Sin)
	unary("sqrt", math.Sqrt)
	unary("tan", math.Tan)

	method(i, m, "atan2", 2, func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
		return vm.NumberValue(math.Atan2(i.ToNumber(arg(args, 0)), i.ToNumber(arg(args, 1))))
	})
	method(i, m, "pow", 2, func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
		return vm.NumberValue(math.Pow(i.ToNumber(arg(args, 0)), i.ToNumber(arg(args, 1))))
	})
	method(i, m, "round", 1, func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
		// 15.8.2.15 rounds halves toward +Infinity.
		return vm.NumberValue(math.Floor(i.ToNumber(arg(args, 0)) + 0.5))
	})
	method(i, m, "max", 2, func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
		best := math.Inf(-1)
		for _, a := range args {
			n := i.ToNumber(a)
			if math.IsNaN(n) {
				return vm.NumberValue(math.NaN())
			}
			if n > best {
				best = n
			}
		}
		return vm.NumberValue(best)
	})
	method(i, m, "min", 2, func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
		best := math.Inf(1)
		for _, a := range args {
			n := i.ToNumber(a)
			if math.IsNaN(n) {
				return vm.NumberValue(math.NaN())
			}
			if n < best {
				best = n
			}
		}
		return vm.NumberValue(best)
	})
	method(i, m, "random", 0, func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
		return vm.NumberValue(rand.Float64())
	})

	putDontEnum(i, i.Global, i.InternGo("Math"), vm.ObjectValue(m))
}
