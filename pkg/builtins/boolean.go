package builtins

import (
	"corvid/pkg/vm"
)

// The Boolean constructor and prototype (15.6).

// BooleanObject wraps a boolean primitive.
type BooleanObject struct {
	vm.NativeObject
	value bool
}

// Value returns the wrapped primitive.
func (b *BooleanObject) Value() bool { return b.value }

func (b *BooleanObject) DefaultValue(i *vm.Interpreter, hint vm.Hint) vm.Value {
	return vm.DefaultValueOf(i, b, hint)
}

func allocBoolean(i *vm.Interpreter) {
	i.BooleanPrototype = &BooleanObject{
		NativeObject: *vm.NewNative("Boolean", nil),
	}
}

func booleanConstruct(i *vm.Interpreter, args []vm.Value) vm.Object {
	v := false
	if len(args) > 0 {
		v = i.ToBoolean(args[0])
	}
	return &BooleanObject{
		NativeObject: *vm.NewNative("Boolean", i.BooleanPrototype),
		value:        v,
	}
}

func initBoolean(i *vm.Interpreter) {
	ctor := newCtor(i, "Boolean", 1,
		func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
			return vm.BooleanValue(len(args) > 0 && i.ToBoolean(args[0]))
		},
		booleanConstruct)
	i.Boolean = ctor
	proto := i.BooleanPrototype

	if bp, ok := proto.(*BooleanObject); ok {
		bp.NativeObject.SetProto(i.ObjectPrototype)
	}

	method(i, proto, "toString", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		bo, ok := this.(*BooleanObject)
		if !ok {
			i.ThrowTypeError("Boolean.prototype.toString called on non-boolean")
		}
		return vm.StringValue(i.ToString(vm.BooleanValue(bo.value)))
	})
	method(i, proto, "valueOf", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		bo, ok := this.(*BooleanObject)
		if !ok {
			i.ThrowTypeError("Boolean.prototype.valueOf called on non-boolean")
		}
		return vm.BooleanValue(bo.value)
	})

	linkCtor(i, "Boolean", ctor, proto)
}
