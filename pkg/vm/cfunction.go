package vm

// GoFunc is the signature of a host function exposed to scripts.
type GoFunc func(i *Interpreter, this Object, args []Value) Value

// CFunction wraps a Go function as a callable object (the host side of
// the object protocol). It carries the standard length property and a
// name used by Function.prototype.toString and tracebacks.
type CFunction struct {
	NativeObject
	fn     GoFunc
	name   *String
	length int
}

// NewCFunction wraps fn as a callable object with the given name and
// declared parameter count.
func NewCFunction(i *Interpreter, fn GoFunc, name string, length int) *CFunction {
	cf := &CFunction{
		NativeObject: *NewNative("Function", i.FunctionPrototype),
		fn:           fn,
		name:         i.InternGo(name),
		length:       length,
	}
	cf.NativeObject.Put(i, strLength, NumberValue(float64(length)),
		AttrReadOnly|AttrDontDelete|AttrDontEnum)
	return cf
}

// Name returns the function's declared name.
func (cf *CFunction) Name() *String { return cf.name }

func (cf *CFunction) Call(i *Interpreter, this Object, args []Value) Value {
	return cf.fn(i, this, args)
}

func (cf *CFunction) DefaultValue(i *Interpreter, hint Hint) Value {
	return DefaultValueOf(i, cf, hint)
}
