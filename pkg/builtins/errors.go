package builtins

import (
	"corvid/pkg/vm"
)

// The Error constructor and its variants (15.11). Each variant carries
// its own prototype chaining to Error.prototype.

// ErrorObject is an error instance.
type ErrorObject struct {
	vm.NativeObject
}

func (e *ErrorObject) DefaultValue(i *vm.Interpreter, hint vm.Hint) vm.Value {
	return vm.DefaultValueOf(i, e, hint)
}

func allocErrors(i *vm.Interpreter) {
	i.ErrorPrototype = &ErrorObject{
		NativeObject: *vm.NewNative("Error", nil),
	}
}

func newErrorCtor(i *vm.Interpreter, name string, proto vm.Object) *nativeCtor {
	construct := func(i *vm.Interpreter, args []vm.Value) vm.Object {
		e := &ErrorObject{
			NativeObject: *vm.NewNative("Error", proto),
		}
		if len(args) > 0 && args[0].Type != vm.TypeUndefined {
			e.Put(i, vm.StrMessage, vm.StringValue(i.ToString(args[0])), vm.AttrDontEnum)
		}
		return e
	}
	ctor := newCtor(i, name, 1, nil, construct)
	putDontEnum(i, proto, vm.StrName, vm.StringValue(i.InternGo(name)))
	linkCtor(i, name, ctor, proto)
	return ctor
}

func initErrors(i *vm.Interpreter) {
	proto := i.ErrorPrototype
	if ep, ok := proto.(*ErrorObject); ok {
		ep.NativeObject.SetProto(i.ObjectPrototype)
	}

	putDontEnum(i, proto, vm.StrMessage, vm.StringValue(vm.StaticString("")))
	method(i, proto, "toString", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		if this == nil {
			i.ThrowTypeError("Error.prototype.toString called on null")
		}
		name := i.ToString(this.Get(i, vm.StrName))
		msg := this.Get(i, vm.StrMessage)
		out := name.Dup(i)
		if msg.Type != vm.TypeUndefined {
			msgStr := i.ToString(msg)
			if msgStr.Length() > 0 {
				out.Append(vm.StaticString(": "))
				out.Append(msgStr)
			}
		}
		return vm.StringValue(out)
	})

	i.Error = newErrorCtor(i, "Error", proto)

	variant := func(name string) vm.Object {
		vproto := &ErrorObject{
			NativeObject: *vm.NewNative("Error", proto),
		}
		return newErrorCtor(i, name, vproto)
	}
	i.EvalError = variant("EvalError")
	i.RangeError = variant("RangeError")
	i.ReferenceError = variant("ReferenceError")
	i.SyntaxError = variant("SyntaxError")
	i.TypeError = variant("TypeError")
	i.URIError = variant("URIError")
}
