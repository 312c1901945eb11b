package vm

// Exceptions unwind the Go stack through panic/recover, the moral
// equivalent of the reference's setjmp/longjmp. Only *Thrown panics are
// interpreted; anything else is an internal fault and propagates to the
// abort path.

// Thrown carries a script exception: the thrown value, the location of
// the throw and the traceback at that moment.
type Thrown struct {
	Value     Value
	Location  *Location
	Traceback *Traceback
}

func (t *Thrown) Error() string {
	return t.Location.Prefix() + "uncaught exception"
}

// Throw raises v non-locally.
func (i *Interpreter) Throw(v Value) {
	panic(&Thrown{Value: v, Location: i.TryLocation, Traceback: i.TracebackTop})
}

// Try runs f, catching any script throw and returning it; Go-level panics
// pass through.
func (i *Interpreter) Try(f func()) (caught *Thrown) {
	defer func() {
		if r := recover(); r != nil {
			if t, ok := r.(*Thrown); ok {
				caught = t
				return
			}
			panic(r)
		}
	}()
	f()
	return nil
}

// Rethrow re-raises a previously caught throw, preserving its context.
func (i *Interpreter) Rethrow(t *Thrown) {
	panic(t)
}

// ThrowCtor constructs an error object from one of the error constructors
// and throws it. Falls back to throwing the bare message string when the
// constructor is not yet wired (early boot).
func (i *Interpreter) ThrowCtor(ctor Object, msg string) {
	text := NewStringFromGo(i, msg)
	if ctor != nil {
		if c, ok := ctor.(Constructor); ok {
			obj := c.Construct(i, []Value{StringValue(text)})
			i.Throw(ObjectValue(obj))
		}
	}
	i.Throw(StringValue(text))
}

func (i *Interpreter) ThrowTypeError(msg string) {
	i.ThrowCtor(i.TypeError, msg)
}

func (i *Interpreter) ThrowRangeError(msg string) {
	i.ThrowCtor(i.RangeError, msg)
}

func (i *Interpreter) ThrowReferenceError(msg string) {
	i.ThrowCtor(i.ReferenceError, msg)
}

func (i *Interpreter) ThrowSyntaxError(msg string) {
	i.ThrowCtor(i.SyntaxError, msg)
}

func (i *Interpreter) ThrowError(msg string) {
	i.ThrowCtor(i.Error, msg)
}
