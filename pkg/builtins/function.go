package builtins

import (
	"corvid/pkg/interp"
	"corvid/pkg/lexer"
	"corvid/pkg/parser"
	"corvid/pkg/vm"
)

// The Function constructor and prototype (15.3). new Function(p1..pn,
// body) joins the parameter arguments with commas and runs them through
// the two-part function parser.

// emptyFunction is Function.prototype itself: a callable object of class
// Function that accepts any arguments and returns undefined.
type emptyFunction struct {
	vm.NativeObject
}

func (f *emptyFunction) Call(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
	return vm.Undefined
}

func (f *emptyFunction) DefaultValue(i *vm.Interpreter, hint vm.Hint) vm.Value {
	return vm.DefaultValueOf(i, f, hint)
}

func allocFunction(i *vm.Interpreter) {
	i.FunctionPrototype = &emptyFunction{
		NativeObject: *vm.NewNative("Function", i.ObjectPrototype),
	}
}

func functionConstruct(i *vm.Interpreter, args []vm.Value) vm.Object {
	var params, body string
	for idx := 0; idx < len(args)-1; idx++ {
		if idx > 0 {
			params += ","
		}
		params += i.ToString(args[idx]).String()
	}
	if len(args) > 0 {
		body = i.ToString(args[len(args)-1]).String()
	}

	paramInput := lexer.FromRunes([]rune(params), "<function>")
	bodyInput := lexer.FromRunes([]rune(body), "<function>")
	fn, err := parser.ParseFunction(i, nil, paramInput, bodyInput)
	if err != nil {
		i.ThrowSyntaxError(err.Error())
	}
	return interp.Instantiate(i, fn, i.GlobalScope)
}

func initFunction(i *vm.Interpreter) {
	ctor := newCtor(i, "Function", 1, nil, functionConstruct)
	i.Function = ctor
	proto := i.FunctionPrototype

	method(i, proto, "toString", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		switch fn := this.(type) {
		case *interp.FuncInstance:
			return vm.StringValue(vm.NewStringFromGo(i, parser.FunctionString(fn.Record())))
		case *vm.CFunction:
			return vm.StringValue(vm.NewStringFromGo(i,
				"function "+fn.Name().String()+"() { /* native code */ }"))
		case *nativeCtor:
			return vm.StringValue(vm.NewStringFromGo(i,
				"function "+fn.name+"() { /* native constructor */ }"))
		case *emptyFunction:
			return vm.StringValue(vm.NewStringFromGo(i, "function () { }"))
		}
		i.ThrowTypeError("Function.prototype.toString called on non-function")
		return vm.Undefined
	})

	method(i, proto, "call", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		fn, ok := this.(vm.Callable)
		if !ok {
			i.ThrowTypeError("Function.prototype.call receiver is not callable")
		}
		var recv vm.Object
		t := arg(args, 0)
		if t.Type != vm.TypeUndefined && t.Type != vm.TypeNull {
			recv = i.ToObject(t)
		}
		var rest []vm.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return fn.Call(i, recv, rest)
	})

	method(i, proto, "apply", 2, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		fn, ok := this.(vm.Callable)
		if !ok {
			i.ThrowTypeError("Function.prototype.apply receiver is not callable")
		}
		var recv vm.Object
		t := arg(args, 0)
		if t.Type != vm.TypeUndefined && t.Type != vm.TypeNull {
			recv = i.ToObject(t)
		}
		var list []vm.Value
		a := arg(args, 1)
		switch a.Type {
		case vm.TypeUndefined, vm.TypeNull:
		case vm.TypeObject:
			obj := a.Object()
			n := i.ToUint32(obj.Get(i, vm.StrLength))
			list = make([]vm.Value, n)
			for idx := uint32(0); idx < n; idx++ {
				name := i.Intern(vm.NumberToString(i, float64(idx)))
				list[idx] = obj.Get(i, name)
			}
		default:
			i.ThrowTypeError("second argument to apply must be an array")
		}
		return fn.Call(i, recv, list)
	})

	linkCtor(i, "Function", ctor, proto)
}
