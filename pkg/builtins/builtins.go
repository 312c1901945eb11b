package builtins

import (
	"corvid/pkg/interp"
	"corvid/pkg/vm"
)

// Population of the built-in library objects. The core only requires the
// object protocol from these; everything here is implemented against it.
// Initialization allocates every object first (the dependency graph is
// cyclic), then fills in properties.

// Init builds all built-in objects on a bare interpreter and installs the
// evaluator hooks.
func Init(i *vm.Interpreter) {
	interp.Install(i)

	allocGlobal(i)
	allocObject(i)
	allocFunction(i)
	allocArray(i)
	allocString(i)
	allocNumber(i)
	allocBoolean(i)
	allocMath(i)
	allocRegExp(i)
	allocErrors(i)

	initObject(i)
	initFunction(i)
	initArray(i)
	initString(i)
	initNumber(i)
	initBoolean(i)
	initMath(i)
	initRegExp(i)
	initErrors(i)
	initGlobal(i)
}

// nativeCtor is a built-in constructor: callable, constructible, and a
// valid instanceof right-hand side.
type nativeCtor struct {
	vm.NativeObject
	name      string
	length    int
	call      func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value
	construct func(i *vm.Interpreter, args []vm.Value) vm.Object
}

func newCtor(i *vm.Interpreter, name string, length int,
	call func(*vm.Interpreter, vm.Object, []vm.Value) vm.Value,
	construct func(*vm.Interpreter, []vm.Value) vm.Object) *nativeCtor {
	c := &nativeCtor{
		NativeObject: *vm.NewNative("Function", i.FunctionPrototype),
		name:         name,
		length:       length,
		call:         call,
		construct:    construct,
	}
	c.NativeObject.Put(i, vm.StrLength, vm.NumberValue(float64(length)),
		vm.AttrReadOnly|vm.AttrDontDelete|vm.AttrDontEnum)
	return c
}

func (c *nativeCtor) Call(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
	if c.call == nil {
		// Absent a distinct [[Call]] behavior, calling works like new.
		return vm.ObjectValue(c.construct(i, args))
	}
	return c.call(i, this, args)
}

func (c *nativeCtor) Construct(i *vm.Interpreter, args []vm.Value) vm.Object {
	return c.construct(i, args)
}

func (c *nativeCtor) HasInstance(i *vm.Interpreter, v vm.Value) bool {
	if v.Type != vm.TypeObject {
		return false
	}
	protoVal := c.Get(i, vm.StrPrototype)
	if protoVal.Type != vm.TypeObject {
		i.ThrowTypeError("constructor has non-object prototype")
	}
	for o := v.Object().Proto(); o != nil; o = o.Proto() {
		if vm.Joined(o, protoVal.Object()) {
			return true
		}
	}
	return false
}

func (c *nativeCtor) DefaultValue(i *vm.Interpreter, hint vm.Hint) vm.Value {
	return vm.DefaultValueOf(i, c, hint)
}

// linkCtor wires the constructor <-> prototype pair and publishes the
// constructor on the global object.
func linkCtor(i *vm.Interpreter, name string, ctor vm.Object, proto vm.Object) {
	n := i.InternGo(name)
	if no, ok := ctor.(*nativeCtor); ok {
		// prototype is never replaceable on built-in constructors.
		no.NativeObject.DefineOwn(i, vm.StrPrototype, vm.ObjectValue(proto),
			vm.AttrReadOnly|vm.AttrDontDelete|vm.AttrDontEnum)
	} else {
		putDontEnum(i, ctor, vm.StrPrototype, vm.ObjectValue(proto))
	}
	proto.Put(i, vm.StrConstructor, vm.ObjectValue(ctor), vm.AttrDontEnum)
	i.Global.Put(i, n, vm.ObjectValue(ctor), vm.AttrDontEnum)
}

func putDontEnum(i *vm.Interpreter, o vm.Object, name *vm.String, v vm.Value) {
	o.Put(i, name, v, vm.AttrDontEnum)
}

// method registers a host function as a DontEnum method.
func method(i *vm.Interpreter, o vm.Object, name string, length int, fn vm.GoFunc) {
	f := vm.NewCFunction(i, fn, name, length)
	o.Put(i, i.InternGo(name), vm.ObjectValue(f), vm.AttrDontEnum)
}

// arg fetches args[idx] or undefined.
func arg(args []vm.Value, idx int) vm.Value {
	if idx < len(args) {
		return args[idx]
	}
	return vm.Undefined
}
