package builtins

import (
	"math"

	"corvid/pkg/vm"
)

// The String constructor and prototype (15.5).

// StringObject wraps a string primitive.
type StringObject struct {
	vm.NativeObject
	value *vm.String
}

// Value returns the wrapped primitive.
func (s *StringObject) Value() *vm.String { return s.value }

func (s *StringObject) Get(i *vm.Interpreter, name *vm.String) vm.Value {
	if i.Intern(name) == vm.StrLength {
		return vm.NumberValue(float64(s.value.Length()))
	}
	return s.NativeObject.Get(i, name)
}

func (s *StringObject) CanPut(i *vm.Interpreter, name *vm.String) bool {
	if i.Intern(name) == vm.StrLength {
		return false
	}
	return s.NativeObject.CanPut(i, name)
}

func (s *StringObject) HasProperty(i *vm.Interpreter, name *vm.String) bool {
	if i.Intern(name) == vm.StrLength {
		return true
	}
	return s.NativeObject.HasProperty(i, name)
}

func (s *StringObject) Delete(i *vm.Interpreter, name *vm.String) bool {
	if i.Intern(name) == vm.StrLength {
		return false
	}
	return s.NativeObject.Delete(i, name)
}

func (s *StringObject) DefaultValue(i *vm.Interpreter, hint vm.Hint) vm.Value {
	return vm.DefaultValueOf(i, s, hint)
}

func allocString(i *vm.Interpreter) {
	i.StringPrototype = &StringObject{
		NativeObject: *vm.NewNative("String", nil),
		value:        vm.StaticString(""),
	}
}

func stringConstruct(i *vm.Interpreter, args []vm.Value) vm.Object {
	v := vm.StaticString("")
	if len(args) > 0 {
		v = i.ToString(args[0])
	}
	return &StringObject{
		NativeObject: *vm.NewNative("String", i.StringPrototype),
		value:        v,
	}
}

// thisString extracts the string primitive a prototype method operates
// on.
func thisString(i *vm.Interpreter, this vm.Object) *vm.String {
	if so, ok := this.(*StringObject); ok {
		return so.value
	}
	if this == nil {
		i.ThrowTypeError("String.prototype method called on null or undefined")
	}
	return i.ToString(vm.ObjectValue(this))
}

func initString(i *vm.Interpreter) {
	ctor := newCtor(i, "String", 1,
		func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
			if len(args) == 0 {
				return vm.StringValue(vm.StaticString(""))
			}
			return vm.StringValue(i.ToString(args[0]))
		},
		stringConstruct)
	i.String = ctor
	proto := i.StringPrototype

	if sp, ok := proto.(*StringObject); ok {
		sp.NativeObject.SetProto(i.ObjectPrototype)
	}

	method(i, ctor, "fromCharCode", 1, func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
		s := vm.NewString(i)
		for _, a := range args {
			s.AddCh(i.ToUint16(a))
		}
		return vm.StringValue(s)
	})

	method(i, proto, "toString", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		so, ok := this.(*StringObject)
		if !ok {
			i.ThrowTypeError("String.prototype.toString called on non-string")
		}
		return vm.StringValue(so.value)
	})
	method(i, proto, "valueOf", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		so, ok := this.(*StringObject)
		if !ok {
			i.ThrowTypeError("String.prototype.valueOf called on non-string")
		}
		return vm.StringValue(so.value)
	})
	method(i, proto, "charAt", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		s := thisString(i, this)
		pos := int(i.ToInteger(arg(args, 0)))
		if pos < 0 || pos >= s.Length() {
			return vm.StringValue(vm.StaticString(""))
		}
		return vm.StringValue(s.Substr(i, pos, 1))
	})
	method(i, proto, "charCodeAt", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		s := thisString(i, this)
		pos := int(i.ToInteger(arg(args, 0)))
		if pos < 0 || pos >= s.Length() {
			return vm.NumberValue(math.NaN())
		}
		return vm.NumberValue(float64(s.At(pos)))
	})
	method(i, proto, "indexOf", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		s := thisString(i, this)
		search := i.ToString(arg(args, 0))
		start := int(i.ToInteger(arg(args, 1)))
		if start < 0 {
			start = 0
		}
		if start > s.Length() {
			start = s.Length()
		}
		return vm.NumberValue(float64(stringIndexOf(s, search, start)))
	})
	method(i, proto, "lastIndexOf", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		s := thisString(i, this)
		search := i.ToString(arg(args, 0))
		limit := s.Length()
		if len(args) > 1 && args[1].Type != vm.TypeUndefined {
			n := i.ToNumber(args[1])
			if !math.IsNaN(n) {
				limit = int(i.ToInteger(args[1]))
			}
		}
		best := -1
		for at := 0; at+search.Length() <= s.Length(); at++ {
			if at > limit {
				break
			}
			if stringMatchAt(s, search, at) {
				best = at
			}
		}
		return vm.NumberValue(float64(best))
	})
	method(i, proto, "substring", 2, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		s := thisString(i, this)
		n := float64(s.Length())
		start := math.Min(math.Max(i.ToInteger(arg(args, 0)), 0), n)
		end := n
		if len(args) > 1 && args[1].Type != vm.TypeUndefined {
			end = math.Min(math.Max(i.ToInteger(args[1]), 0), n)
		}
		if start > end {
			start, end = end, start
		}
		return vm.StringValue(s.Substr(i, int(start), int(end-start)))
	})
	method(i, proto, "toLowerCase", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		s := thisString(i, this)
		out := vm.NewString(i)
		for idx := 0; idx < s.Length(); idx++ {
			c := s.At(idx)
			if c >= 'A' && c <= 'Z' {
				c += 'a' - 'A'
			}
			out.AddCh(c)
		}
		return vm.StringValue(out)
	})
	method(i, proto, "toUpperCase", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		s := thisString(i, this)
		out := vm.NewString(i)
		for idx := 0; idx < s.Length(); idx++ {
			c := s.At(idx)
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			out.AddCh(c)
		}
		return vm.StringValue(out)
	})
	method(i, proto, "concat", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		out := thisString(i, this).Dup(i)
		for _, a := range args {
			out.Append(i.ToString(a))
		}
		return vm.StringValue(out)
	})
	method(i, proto, "split", 2, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		s := thisString(i, this)
		out := NewArray(i)
		sep := arg(args, 0)
		if sep.Type == vm.TypeUndefined {
			out.Put(i, toIndexName(i, 0), vm.StringValue(s), 0)
			return vm.ObjectValue(out)
		}
		sepStr := i.ToString(sep)
		n := uint32(0)
		if sepStr.Length() == 0 {
			for idx := 0; idx < s.Length(); idx++ {
				out.Put(i, toIndexName(i, n), vm.StringValue(s.Substr(i, idx, 1)), 0)
				n++
			}
			return vm.ObjectValue(out)
		}
		start := 0
		for at := 0; at+sepStr.Length() <= s.Length(); {
			if stringMatchAt(s, sepStr, at) {
				out.Put(i, toIndexName(i, n), vm.StringValue(s.Substr(i, start, at-start)), 0)
				n++
				at += sepStr.Length()
				start = at
			} else {
				at++
			}
		}
		out.Put(i, toIndexName(i, n), vm.StringValue(s.Substr(i, start, s.Length()-start)), 0)
		return vm.ObjectValue(out)
	})

	linkCtor(i, "String", ctor, proto)
}

func stringMatchAt(s, search *vm.String, at int) bool {
	if at+search.Length() > s.Length() {
		return false
	}
	for k := 0; k < search.Length(); k++ {
		if s.At(at+k) != search.At(k) {
			return false
		}
	}
	return true
}

func stringIndexOf(s, search *vm.String, start int) int {
	for at := start; at+search.Length() <= s.Length(); at++ {
		if stringMatchAt(s, search, at) {
			return at
		}
	}
	return -1
}
