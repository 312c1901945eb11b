package interp

import (
	"corvid/pkg/parser"
	"corvid/pkg/vm"
)

// Function instances (13.2). All instances of one function record share a
// common property store, so they appear "joined": strict and abstract
// equality treat them as the same object, and a prototype assigned
// through one instance is visible through the others. The first instance
// is cached on the record and reused when the creation scope is
// observationally equal.

func init() {
	vm.JoinedHook = func(a, b vm.Object) bool {
		fa, ok := a.(*FuncInstance)
		if !ok {
			return false
		}
		fb, ok := b.(*FuncInstance)
		if !ok {
			return false
		}
		return fa.fn == fb.fn
	}
}

// FuncInstance is a script function object bound to its creation scope.
type FuncInstance struct {
	fn    *parser.Function
	scope *vm.Scope
	proto vm.Object
}

func common(i *vm.Interpreter, fn *parser.Function) *vm.NativeObject {
	if fn.Common == nil {
		fn.Common = vm.NewNative("Function", i.FunctionPrototype)
	}
	return fn.Common.(*vm.NativeObject)
}

// Instantiate creates (or pulls from cache) an instance of fn closed over
// scope.
func Instantiate(i *vm.Interpreter, fn *parser.Function, scope *vm.Scope) *FuncInstance {
	if fn.Cache != nil {
		fi := fn.Cache.(*FuncInstance)
		if vm.ScopeEq(fi.scope, scope) {
			return fi
		}
	}

	fi := &FuncInstance{fn: fn, scope: scope, proto: i.FunctionPrototype}

	// 13.2: allocate the prototype object, once per joined record.
	c := common(i, fn)
	if _, ok := c.GetOwn(i, vm.StrPrototype); !ok {
		protoObj := vm.NewObject(i)
		protoObj.Put(i, vm.StrConstructor, vm.ObjectValue(fi), vm.AttrDontEnum)
		c.Put(i, vm.StrPrototype, vm.ObjectValue(protoObj), vm.AttrDontDelete)
	}

	if fn.Cache == nil {
		fn.Cache = fi
	}
	return fi
}

// Record exposes the underlying function record.
func (f *FuncInstance) Record() *parser.Function { return f.fn }

func (f *FuncInstance) Class() string    { return "Function" }
func (f *FuncInstance) Proto() vm.Object { return f.proto }

func (f *FuncInstance) Get(i *vm.Interpreter, name *vm.String) vm.Value {
	if i.Intern(name) == vm.StrLength {
		return vm.NumberValue(float64(len(f.fn.Params)))
	}
	return common(i, f.fn).Get(i, name)
}

func (f *FuncInstance) Put(i *vm.Interpreter, name *vm.String, v vm.Value, attr vm.Attr) {
	common(i, f.fn).Put(i, name, v, attr)
}

func (f *FuncInstance) CanPut(i *vm.Interpreter, name *vm.String) bool {
	if i.Intern(name) == vm.StrLength {
		return false
	}
	return common(i, f.fn).CanPut(i, name)
}

func (f *FuncInstance) HasProperty(i *vm.Interpreter, name *vm.String) bool {
	if i.Intern(name) == vm.StrLength {
		return true
	}
	return common(i, f.fn).HasProperty(i, name)
}

func (f *FuncInstance) Delete(i *vm.Interpreter, name *vm.String) bool {
	if i.Intern(name) == vm.StrLength {
		return false
	}
	return common(i, f.fn).Delete(i, name)
}

func (f *FuncInstance) DefaultValue(i *vm.Interpreter, hint vm.Hint) vm.Value {
	return vm.DefaultValueOf(i, f, hint)
}

func (f *FuncInstance) OwnKeys() []vm.OwnKey {
	if f.fn.Common == nil {
		return nil
	}
	return f.fn.Common.OwnKeys()
}

// Call implements 13.2.1: build the activation object and arguments,
// bind the formals, instantiate declarations and run the body.
func (f *FuncInstance) Call(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
	// Calling an empty function short-circuits; under ext1 the observable
	// f.arguments property forces the full path.
	if i.Compat&vm.CompatExt1 == 0 && f.fn.IsEmpty {
		return vm.Undefined
	}

	activation := vm.NewActivation(i)

	arguments := newArguments(i, f, activation, args)
	activation.Put(i, vm.StrArguments, vm.ObjectValue(arguments), vm.AttrDontDelete)

	if this == nil {
		this = i.Global
	}
	ctxt := &vm.Context{
		Interp:     i,
		Scope:      &vm.Scope{Obj: activation, Next: f.scope},
		Variable:   activation,
		This:       this,
		VarAttr:    vm.AttrDontDelete,
		Activation: activation,
	}

	putArgs(ctxt, f.fn, args)

	// ext1: expose the arguments object as f.arguments for the duration
	// of the call, restoring whatever was there before.
	var savedArguments vm.Value
	var savedAttr vm.Attr
	savedPresent := false
	if i.Compat&vm.CompatExt1 != 0 {
		c := common(i, f.fn)
		if v, ok := c.GetOwn(i, vm.StrArguments); ok {
			savedArguments = v
			savedAttr, _ = c.OwnAttr(i, vm.StrArguments)
			savedPresent = true
		}
		c.DefineOwn(i, vm.StrArguments, vm.ObjectValue(arguments),
			vm.AttrDontDelete|vm.AttrReadOnly|vm.AttrDontEnum)
	}

	var cmpl vm.Completion
	caught := i.Try(func() {
		cmpl = evalBody(f.fn, ctxt)
	})

	if i.Compat&vm.CompatExt1 != 0 {
		c := common(i, f.fn)
		forceDelete(i, c, vm.StrArguments)
		if savedPresent {
			c.DefineOwn(i, vm.StrArguments, savedArguments, savedAttr)
		}
	}

	if caught != nil {
		i.Rethrow(caught)
	}

	switch cmpl.Type {
	case vm.CmplNormal:
		return vm.Undefined
	case vm.CmplReturn:
		if cmpl.Value == nil {
			return vm.Undefined
		}
		return *cmpl.Value
	}
	i.ThrowError("function body completed abnormally")
	return vm.Undefined
}

// forceDelete removes a property even when marked undeletable.
func forceDelete(i *vm.Interpreter, o *vm.NativeObject, name *vm.String) {
	o.DefineOwn(i, name, vm.Undefined, 0)
	o.Delete(i, name)
}

// Construct implements 13.2.2.
func (f *FuncInstance) Construct(i *vm.Interpreter, args []vm.Value) vm.Object {
	obj := vm.NewObject(i)
	protoVal := f.Get(i, vm.StrPrototype)
	if protoVal.Type == vm.TypeObject {
		obj.SetProto(protoVal.Object())
	} else {
		obj.SetProto(i.ObjectPrototype)
	}
	res := f.Call(i, obj, args)
	if res.Type == vm.TypeObject {
		return res.Object()
	}
	return obj
}

// HasInstance implements 15.3.5.3.
func (f *FuncInstance) HasInstance(i *vm.Interpreter, v vm.Value) bool {
	if v.Type != vm.TypeObject {
		return false
	}
	protoVal := f.Get(i, vm.StrPrototype)
	if protoVal.Type != vm.TypeObject {
		i.ThrowTypeError("function has non-object prototype in instanceof check")
	}
	proto := protoVal.Object()
	for o := v.Object().Proto(); o != nil; o = o.Proto() {
		if vm.Joined(o, proto) {
			return true
		}
	}
	return false
}

// putArgs binds the formal parameters to the actuals, missing ones to
// undefined (10.1.3).
func putArgs(ctxt *vm.Context, fn *parser.Function, args []vm.Value) {
	for idx, name := range fn.Params {
		v := vm.Undefined
		if idx < len(args) {
			v = args[idx]
		}
		ctxt.Variable.Put(ctxt.Interp, name, v, ctxt.VarAttr)
	}
}

// PutArgs is putArgs for the driver's EvalFunctionBody entry point.
func PutArgs(ctxt *vm.Context, fn *parser.Function, args []vm.Value) {
	putArgs(ctxt, fn, args)
}

// --- arguments object (10.1.8) ---

// argumentsObject is array-like over the actual argument list. Index
// properties for declared formals alias the activation binding, so
// assignments flow both ways; surplus arguments live as plain own
// properties.
type argumentsObject struct {
	vm.NativeObject
	activation vm.Object
	aliases    map[*vm.String]*vm.String // "0", "1", ... -> formal name
}

func newArguments(i *vm.Interpreter, f *FuncInstance, activation vm.Object, args []vm.Value) *argumentsObject {
	a := &argumentsObject{
		NativeObject: *vm.NewNative("Object", i.ObjectPrototype),
		activation:   activation,
		aliases:      map[*vm.String]*vm.String{},
	}
	a.NativeObject.Put(i, vm.StrCallee, vm.ObjectValue(f), vm.AttrDontEnum)
	a.NativeObject.Put(i, vm.StrLength, vm.NumberValue(float64(len(args))), vm.AttrDontEnum)
	for idx := range args {
		name := i.Intern(vm.NumberToString(i, float64(idx)))
		if idx < len(f.fn.Params) {
			a.aliases[name] = f.fn.Params[idx]
		} else {
			a.NativeObject.Put(i, name, args[idx], vm.AttrDontEnum)
		}
	}
	return a
}

func (a *argumentsObject) Get(i *vm.Interpreter, name *vm.String) vm.Value {
	if formal, ok := a.aliases[i.Intern(name)]; ok {
		return a.activation.Get(i, formal)
	}
	return a.NativeObject.Get(i, name)
}

func (a *argumentsObject) Put(i *vm.Interpreter, name *vm.String, v vm.Value, attr vm.Attr) {
	if formal, ok := a.aliases[i.Intern(name)]; ok {
		a.activation.Put(i, formal, v, attr)
		return
	}
	a.NativeObject.Put(i, name, v, attr)
}

func (a *argumentsObject) HasProperty(i *vm.Interpreter, name *vm.String) bool {
	if _, ok := a.aliases[i.Intern(name)]; ok {
		return true
	}
	return a.NativeObject.HasProperty(i, name)
}

func (a *argumentsObject) Delete(i *vm.Interpreter, name *vm.String) bool {
	name = i.Intern(name)
	if _, ok := a.aliases[name]; ok {
		delete(a.aliases, name)
		return true
	}
	return a.NativeObject.Delete(i, name)
}

func (a *argumentsObject) DefaultValue(i *vm.Interpreter, hint vm.Hint) vm.Value {
	return vm.DefaultValueOf(i, a, hint)
}
