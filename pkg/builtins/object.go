package builtins

import (
	"corvid/pkg/vm"
)

// The Object constructor and prototype (15.2).

func allocObject(i *vm.Interpreter) {
	i.ObjectPrototype = vm.NewNative("Object", nil)
}

func objectConstruct(i *vm.Interpreter, args []vm.Value) vm.Object {
	v := arg(args, 0)
	switch v.Type {
	case vm.TypeUndefined, vm.TypeNull:
		return vm.NewObject(i)
	case vm.TypeObject:
		return v.Object()
	}
	return i.ToObject(v)
}

func objectCall(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
	return vm.ObjectValue(objectConstruct(i, args))
}

func initObject(i *vm.Interpreter) {
	ctor := newCtor(i, "Object", 1, objectCall, objectConstruct)
	i.ObjectCtor = ctor
	proto := i.ObjectPrototype

	method(i, proto, "toString", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		if this == nil {
			this = i.Global
		}
		s := vm.NewString(i)
		s.Append(vm.NewStringFromGo(i, "[object "+this.Class()+"]"))
		return vm.StringValue(s)
	})
	method(i, proto, "toLocaleString", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		if this == nil {
			this = i.Global
		}
		fn := this.Get(i, vm.StrToString)
		callee, ok := fn.Object().(vm.Callable)
		if fn.Type != vm.TypeObject || !ok {
			i.ThrowTypeError("toString is not callable")
		}
		return callee.Call(i, this, nil)
	})
	method(i, proto, "valueOf", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		if this == nil {
			this = i.Global
		}
		return vm.ObjectValue(this)
	})
	method(i, proto, "hasOwnProperty", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		if this == nil {
			return vm.False
		}
		name := i.Intern(i.ToString(arg(args, 0)))
		for _, k := range this.OwnKeys() {
			if i.Intern(k.Name) == name {
				return vm.True
			}
		}
		return vm.False
	})
	method(i, proto, "isPrototypeOf", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		v := arg(args, 0)
		if this == nil || v.Type != vm.TypeObject {
			return vm.False
		}
		for o := v.Object().Proto(); o != nil; o = o.Proto() {
			if o == this {
				return vm.True
			}
		}
		return vm.False
	})
	method(i, proto, "propertyIsEnumerable", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		if this == nil {
			return vm.False
		}
		name := i.Intern(i.ToString(arg(args, 0)))
		for _, k := range this.OwnKeys() {
			if i.Intern(k.Name) == name {
				return vm.BooleanValue(!k.DontEnum)
			}
		}
		return vm.False
	})

	linkCtor(i, "Object", ctor, proto)
}
