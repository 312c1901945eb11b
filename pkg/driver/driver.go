package driver

import (
	"fmt"
	"os"

	"corvid/pkg/builtins"
	"corvid/pkg/errors"
	"corvid/pkg/interp"
	"corvid/pkg/lexer"
	"corvid/pkg/parser"
	"corvid/pkg/source"
	"corvid/pkg/vm"
)

// Corvid is a persistent interpreter session: state established by one
// evaluation (globals, functions) is visible to the next.
type Corvid struct {
	interp *vm.Interpreter
}

// New creates a session with all built-ins populated.
func New() *Corvid {
	i := vm.NewInterpreter()
	builtins.Init(i)
	return &Corvid{interp: i}
}

// Interp exposes the underlying interpreter for embedders that need the
// raw object protocol.
func (c *Corvid) Interp() *vm.Interpreter { return c.interp }

// SetCompat applies a §6.2 compatibility string ("ext1 no_sgml_comments",
// "=262_3b", ...).
func (c *Corvid) SetCompat(spec string) error {
	compat, err := vm.ParseCompat(c.interp.Compat, spec)
	if err != nil {
		return err
	}
	c.interp.Compat = compat
	return nil
}

// SetBytecode selects the bytecode back-end for subsequent evaluations.
func (c *Corvid) SetBytecode(on bool) { c.interp.UseBytecode = on }

// SetMaxRecurse bounds parser and evaluator recursion depth.
func (c *Corvid) SetMaxRecurse(n int) { c.interp.MaxRecurse = n }

// globalContext builds the program-level execution context (10.2.1).
func (c *Corvid) globalContext() *vm.Context {
	i := c.interp
	return &vm.Context{
		Interp:   i,
		Scope:    i.GlobalScope,
		Variable: i.Global,
		This:     i.Global,
		VarAttr:  vm.AttrDontDelete,
	}
}

// runtimeError converts an escaped script exception into a host error,
// rendering the thrown value and the captured traceback.
func (c *Corvid) runtimeError(t *vm.Thrown) *errors.RuntimeError {
	i := c.interp

	msg := "uncaught exception"
	caught := i.Try(func() {
		msg = i.ToString(t.Value).String()
	})
	if caught != nil {
		msg = "uncaught exception (unprintable value)"
	}

	var frames []string
	for tb := t.Traceback; tb != nil; tb = tb.Prev {
		kind := "call"
		if tb.CallType == vm.CallTypeConstruct {
			kind = "new"
		}
		frames = append(frames, fmt.Sprintf("%s%s from here", tb.CallLocation.Prefix(), kind))
	}

	pos := errors.Position{}
	if t.Location != nil {
		pos = errors.Position{File: t.Location.Filename, Line: t.Location.Lineno}
	}
	return &errors.RuntimeError{
		Position:  pos,
		Msg:       msg,
		Traceback: frames,
	}
}

// GlobalEval parses input as a Program and executes it in the global
// context, returning the completion value.
func (c *Corvid) GlobalEval(input *lexer.Input) (vm.Value, errors.CorvidError) {
	var fn *parser.Function
	var err error
	caught := c.interp.Try(func() {
		fn, err = parser.ParseProgram(c.interp, input)
	})
	if caught != nil {
		// The parser's recursion budget raises RangeError.
		return vm.Undefined, c.runtimeError(caught)
	}
	if err != nil {
		return vm.Undefined, err.(*errors.SyntaxError)
	}
	return c.evalProgram(fn)
}

func (c *Corvid) evalProgram(fn *parser.Function) (res vm.Value, cerr errors.CorvidError) {
	caught := c.interp.Try(func() {
		res = interp.EvalProgramBody(fn, c.globalContext())
	})
	if caught != nil {
		return vm.Undefined, c.runtimeError(caught)
	}
	return res, nil
}

// RunSource evaluates a source record in the session.
func (c *Corvid) RunSource(sf *source.SourceFile) (vm.Value, errors.CorvidError) {
	return c.GlobalEval(lexer.FromRunes([]rune(sf.Content), sf.DisplayPath()))
}

// RunString evaluates source text in the session.
func (c *Corvid) RunString(src string) (vm.Value, errors.CorvidError) {
	return c.RunSource(source.Eval(src))
}

// RunUTF8 evaluates UTF-8 encoded source bytes in the session.
func (c *Corvid) RunUTF8(b []byte, name string) (vm.Value, errors.CorvidError) {
	return c.GlobalEval(lexer.FromUTF8(b, name))
}

// RunFile evaluates a script file in the session, returning the source
// record alongside the result so errors can be displayed with excerpts.
func (c *Corvid) RunFile(path string) (vm.Value, *source.SourceFile, errors.CorvidError) {
	b, err := os.ReadFile(path)
	if err != nil {
		return vm.Undefined, nil, &errors.SyntaxError{
			Position: errors.Position{File: path},
			Msg:      "cannot read file: " + err.Error(),
		}
	}
	// The byte-level reader handles byte-order marks and malformed input.
	sf := source.File(path, string(b))
	v, cerr := c.GlobalEval(lexer.FromUTF8(b, path))
	return v, sf, cerr
}

// ParseProgram parses without executing.
func (c *Corvid) ParseProgram(input *lexer.Input) (*parser.Function, error) {
	return parser.ParseProgram(c.interp, input)
}

// ParseFunction parses a function from separate parameter and body
// sources, as the Function constructor does.
func (c *Corvid) ParseFunction(name string, params, body string) (*parser.Function, error) {
	var n *vm.String
	if name != "" {
		n = c.interp.InternGo(name)
	}
	return parser.ParseFunction(c.interp, n,
		lexer.FromRunes([]rune(params), "<function>"),
		lexer.FromRunes([]rune(body), "<function>"))
}

// EvalFunctionBody evaluates a parsed function's body in an explicit
// context, returning the value of its return statement (undefined when
// the body finishes without one).
func (c *Corvid) EvalFunctionBody(fn *parser.Function, ctxt *vm.Context, args []vm.Value) (res vm.Value, cerr errors.CorvidError) {
	caught := c.interp.Try(func() {
		interp.PutArgs(ctxt, fn, args)
		cmpl := interp.EvalBody(fn, ctxt)
		if cmpl.Type == vm.CmplReturn && cmpl.Value != nil {
			res = *cmpl.Value
		}
	})
	if caught != nil {
		return vm.Undefined, c.runtimeError(caught)
	}
	return res, nil
}

// DefineGlobal publishes a host value on the global object.
func (c *Corvid) DefineGlobal(name string, v vm.Value) {
	c.interp.Global.Put(c.interp, c.interp.InternGo(name), v, vm.AttrDontEnum)
}

// DefineFunc publishes a host function on the global object.
func (c *Corvid) DefineFunc(name string, length int, fn vm.GoFunc) {
	f := vm.NewCFunction(c.interp, fn, name, length)
	c.DefineGlobal(name, vm.ObjectValue(f))
}

// Inspect renders a value for REPL display without risking a script
// throw.
func (c *Corvid) Inspect(v vm.Value) string {
	i := c.interp
	out := ""
	caught := i.Try(func() {
		switch v.Type {
		case vm.TypeString:
			out = "\"" + v.Str().String() + "\""
		case vm.TypeObject:
			if vm.HasCall(v.Object()) {
				out = "[function]"
				return
			}
			out = i.ToString(v).String()
		default:
			out = i.ToString(v).String()
		}
	})
	if caught != nil {
		return "[object " + v.Object().Class() + "]"
	}
	return out
}

// DisplayResult prints a value or error list the way the shell does,
// returning false when errors were present. sf may be nil when no source
// record is at hand.
func (c *Corvid) DisplayResult(sf *source.SourceFile, v vm.Value, err errors.CorvidError) bool {
	if err != nil {
		errors.DisplayErrors(os.Stderr, sf, []errors.CorvidError{err})
		return false
	}
	if v.Type != vm.TypeUndefined {
		fmt.Println(c.Inspect(v))
	}
	return true
}
