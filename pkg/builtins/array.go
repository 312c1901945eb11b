package builtins

import (
	"math"

	"corvid/pkg/vm"
)

// The Array constructor and prototype (15.4). Array instances carry the
// length invariant: writing an index at or beyond length extends it, and
// shrinking length discards the indices beyond it.

// ArrayObject is an array instance.
type ArrayObject struct {
	vm.NativeObject
	length uint32
}

// NewArray returns an empty array instance.
func NewArray(i *vm.Interpreter) *ArrayObject {
	return &ArrayObject{
		NativeObject: *vm.NewNative("Array", i.ArrayPrototype),
	}
}

// arrayIndex reports whether name is a canonical array index below
// 2^32-1.
func arrayIndex(name *vm.String) (uint32, bool) {
	if name.Length() == 0 || name.Length() > 10 {
		return 0, false
	}
	if name.Length() > 1 && name.At(0) == '0' {
		return 0, false
	}
	var n uint64
	for idx := 0; idx < name.Length(); idx++ {
		c := name.At(idx)
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	if n >= 0xFFFFFFFF {
		return 0, false
	}
	return uint32(n), true
}

// Length returns the array length.
func (a *ArrayObject) Length() uint32 { return a.length }

func (a *ArrayObject) Get(i *vm.Interpreter, name *vm.String) vm.Value {
	if i.Intern(name) == vm.StrLength {
		return vm.NumberValue(float64(a.length))
	}
	return a.NativeObject.Get(i, name)
}

func (a *ArrayObject) Put(i *vm.Interpreter, name *vm.String, v vm.Value, attr vm.Attr) {
	name = i.Intern(name)
	if name == vm.StrLength {
		n := i.ToUint32(v)
		if float64(n) != i.ToNumber(v) {
			i.ThrowRangeError("invalid array length")
		}
		if n < a.length {
			for _, k := range a.NativeObject.OwnKeys() {
				if idx, ok := arrayIndex(k.Name); ok && idx >= n {
					a.NativeObject.Delete(i, k.Name)
				}
			}
		}
		a.length = n
		return
	}
	a.NativeObject.Put(i, name, v, attr)
	if idx, ok := arrayIndex(name); ok && idx >= a.length {
		a.length = idx + 1
	}
}

func (a *ArrayObject) CanPut(i *vm.Interpreter, name *vm.String) bool {
	if i.Intern(name) == vm.StrLength {
		return true
	}
	return a.NativeObject.CanPut(i, name)
}

func (a *ArrayObject) HasProperty(i *vm.Interpreter, name *vm.String) bool {
	if i.Intern(name) == vm.StrLength {
		return true
	}
	return a.NativeObject.HasProperty(i, name)
}

func (a *ArrayObject) Delete(i *vm.Interpreter, name *vm.String) bool {
	if i.Intern(name) == vm.StrLength {
		return false
	}
	return a.NativeObject.Delete(i, name)
}

func (a *ArrayObject) DefaultValue(i *vm.Interpreter, hint vm.Hint) vm.Value {
	return vm.DefaultValueOf(i, a, hint)
}

func (a *ArrayObject) at(i *vm.Interpreter, idx uint32) vm.Value {
	return a.Get(i, i.Intern(vm.NumberToString(i, float64(idx))))
}

func (a *ArrayObject) setAt(i *vm.Interpreter, idx uint32, v vm.Value) {
	a.Put(i, i.Intern(vm.NumberToString(i, float64(idx))), v, 0)
}

func allocArray(i *vm.Interpreter) {
	i.ArrayPrototype = &ArrayObject{
		NativeObject: *vm.NewNative("Array", nil),
	}
}

func arrayConstruct(i *vm.Interpreter, args []vm.Value) vm.Object {
	a := NewArray(i)
	if len(args) == 1 && args[0].Type == vm.TypeNumber {
		n := i.ToUint32(args[0])
		if float64(n) != args[0].Number() {
			i.ThrowRangeError("invalid array length")
		}
		a.length = n
		return a
	}
	for idx, v := range args {
		a.setAt(i, uint32(idx), v)
	}
	return a
}

// toIndexName converts an element index to its interned property name.
func toIndexName(i *vm.Interpreter, idx uint32) *vm.String {
	return i.Intern(vm.NumberToString(i, float64(idx)))
}

func initArray(i *vm.Interpreter) {
	ctor := newCtor(i, "Array", 1, nil, arrayConstruct)
	i.Array = ctor
	proto := i.ArrayPrototype

	if ap, ok := proto.(*ArrayObject); ok {
		ap.NativeObject.SetProto(i.ObjectPrototype)
	}

	join := func(i *vm.Interpreter, this vm.Object, sep string) vm.Value {
		out := vm.NewString(i)
		n := i.ToUint32(this.Get(i, vm.StrLength))
		for idx := uint32(0); idx < n; idx++ {
			if idx > 0 {
				out.Append(vm.NewStringFromGo(i, sep))
			}
			v := this.Get(i, toIndexName(i, idx))
			if v.Type != vm.TypeUndefined && v.Type != vm.TypeNull {
				out.Append(i.ToString(v))
			}
		}
		return vm.StringValue(out)
	}

	method(i, proto, "toString", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		if this == nil || this.Class() != "Array" {
			i.ThrowTypeError("Array.prototype.toString called on non-array")
		}
		return join(i, this, ",")
	})
	method(i, proto, "join", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		sep := ","
		if len(args) > 0 && args[0].Type != vm.TypeUndefined {
			sep = i.ToString(args[0]).String()
		}
		return join(i, this, sep)
	})
	method(i, proto, "push", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		n := i.ToUint32(this.Get(i, vm.StrLength))
		for _, v := range args {
			this.Put(i, toIndexName(i, n), v, 0)
			n++
		}
		nv := vm.NumberValue(float64(n))
		this.Put(i, vm.StrLength, nv, 0)
		return nv
	})
	method(i, proto, "pop", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		n := i.ToUint32(this.Get(i, vm.StrLength))
		if n == 0 {
			this.Put(i, vm.StrLength, vm.NumberValue(0), 0)
			return vm.Undefined
		}
		name := toIndexName(i, n-1)
		v := this.Get(i, name)
		this.Delete(i, name)
		this.Put(i, vm.StrLength, vm.NumberValue(float64(n-1)), 0)
		return v
	})
	method(i, proto, "shift", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		n := i.ToUint32(this.Get(i, vm.StrLength))
		if n == 0 {
			this.Put(i, vm.StrLength, vm.NumberValue(0), 0)
			return vm.Undefined
		}
		first := this.Get(i, toIndexName(i, 0))
		for idx := uint32(1); idx < n; idx++ {
			from := toIndexName(i, idx)
			to := toIndexName(i, idx-1)
			if this.HasProperty(i, from) {
				this.Put(i, to, this.Get(i, from), 0)
			} else {
				this.Delete(i, to)
			}
		}
		this.Delete(i, toIndexName(i, n-1))
		this.Put(i, vm.StrLength, vm.NumberValue(float64(n-1)), 0)
		return first
	})
	method(i, proto, "concat", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		out := NewArray(i)
		n := uint32(0)
		appendOne := func(v vm.Value) {
			if v.Type == vm.TypeObject && v.Object().Class() == "Array" {
				src := v.Object()
				srcLen := i.ToUint32(src.Get(i, vm.StrLength))
				for idx := uint32(0); idx < srcLen; idx++ {
					name := toIndexName(i, idx)
					if src.HasProperty(i, name) {
						out.setAt(i, n, src.Get(i, name))
					}
					n++
				}
				return
			}
			out.setAt(i, n, v)
			n++
		}
		appendOne(vm.ObjectValue(this))
		for _, v := range args {
			appendOne(v)
		}
		out.Put(i, vm.StrLength, vm.NumberValue(float64(n)), 0)
		return vm.ObjectValue(out)
	})
	method(i, proto, "slice", 2, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		n := float64(i.ToUint32(this.Get(i, vm.StrLength)))
		start := i.ToInteger(arg(args, 0))
		if start < 0 {
			start = math.Max(n+start, 0)
		} else {
			start = math.Min(start, n)
		}
		end := n
		if len(args) > 1 && args[1].Type != vm.TypeUndefined {
			end = i.ToInteger(args[1])
			if end < 0 {
				end = math.Max(n+end, 0)
			} else {
				end = math.Min(end, n)
			}
		}
		out := NewArray(i)
		outIdx := uint32(0)
		for idx := start; idx < end; idx++ {
			name := toIndexName(i, uint32(idx))
			if this.HasProperty(i, name) {
				out.setAt(i, outIdx, this.Get(i, name))
			}
			outIdx++
		}
		out.Put(i, vm.StrLength, vm.NumberValue(float64(outIdx)), 0)
		return vm.ObjectValue(out)
	})
	method(i, proto, "reverse", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		n := i.ToUint32(this.Get(i, vm.StrLength))
		for idx := uint32(0); idx < n/2; idx++ {
			lo := toIndexName(i, idx)
			hi := toIndexName(i, n-1-idx)
			loHas, hiHas := this.HasProperty(i, lo), this.HasProperty(i, hi)
			loV, hiV := this.Get(i, lo), this.Get(i, hi)
			if hiHas {
				this.Put(i, lo, hiV, 0)
			} else {
				this.Delete(i, lo)
			}
			if loHas {
				this.Put(i, hi, loV, 0)
			} else {
				this.Delete(i, hi)
			}
		}
		return vm.ObjectValue(this)
	})
	method(i, proto, "sort", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		n := i.ToUint32(this.Get(i, vm.StrLength))
		var cmpFn vm.Callable
		if len(args) > 0 && args[0].Type == vm.TypeObject {
			cmpFn, _ = args[0].Object().(vm.Callable)
		}
		less := func(x, y vm.Value) bool {
			if x.Type == vm.TypeUndefined {
				return false
			}
			if y.Type == vm.TypeUndefined {
				return true
			}
			if cmpFn != nil {
				return i.ToNumber(cmpFn.Call(i, nil, []vm.Value{x, y})) < 0
			}
			return i.ToString(x).Cmp(i.ToString(y)) < 0
		}
		// Insertion sort keeps the comparison count predictable for the
		// small arrays scripts usually sort.
		vals := make([]vm.Value, n)
		for idx := uint32(0); idx < n; idx++ {
			vals[idx] = this.Get(i, toIndexName(i, idx))
		}
		for a := 1; a < len(vals); a++ {
			v := vals[a]
			b := a - 1
			for b >= 0 && less(v, vals[b]) {
				vals[b+1] = vals[b]
				b--
			}
			vals[b+1] = v
		}
		for idx := uint32(0); idx < n; idx++ {
			this.Put(i, toIndexName(i, idx), vals[idx], 0)
		}
		return vm.ObjectValue(this)
	})

	linkCtor(i, "Array", ctor, proto)
}
