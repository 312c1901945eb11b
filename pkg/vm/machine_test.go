package vm

import (
	"strings"
	"testing"
)

// Direct machine tests: hand-assembled code streams exercising the
// instruction set and the block protocol without the code generator.

func newMachineCtxt() (*Interpreter, *Context) {
	i := NewInterpreter()
	global := NewNative("Global", nil)
	i.Global = global
	i.GlobalScope = &Scope{Obj: global}
	ctxt := &Context{
		Interp:   i,
		Scope:    i.GlobalScope,
		Variable: global,
		This:     global,
	}
	return i, ctxt
}

func TestMachineArithmetic(t *testing.T) {
	i, ctxt := newMachineCtxt()
	c := NewCode(i)
	c.EmitArg(OpLiteral, c.AddLiteral(NumberValue(2)))
	c.EmitArg(OpLiteral, c.AddLiteral(NumberValue(3)))
	c.Emit(OpAdd)
	c.Emit(OpSetC)
	c.EmitArg(OpEnd, 0)

	var res Value
	c.Exec(ctxt, &res)
	if res.Type != TypeNumber || res.Number() != 5 {
		t.Errorf("2+3 = %v", res)
	}
}

func TestMachineStackOps(t *testing.T) {
	i, ctxt := newMachineCtxt()
	c := NewCode(i)
	// 1 2 3 ROLL3 -> 3 1 2 ; POP POP -> 3
	c.EmitArg(OpLiteral, c.AddLiteral(NumberValue(1)))
	c.EmitArg(OpLiteral, c.AddLiteral(NumberValue(2)))
	c.EmitArg(OpLiteral, c.AddLiteral(NumberValue(3)))
	c.Emit(OpRoll3)
	c.Emit(OpPop)
	c.Emit(OpPop)
	c.Emit(OpSetC)
	c.EmitArg(OpEnd, 0)

	var res Value
	c.Exec(ctxt, &res)
	if res.Number() != 3 {
		t.Errorf("ROLL3 moved %v to the bottom, want 3", res.Number())
	}
}

func TestMachineBranch(t *testing.T) {
	i, ctxt := newMachineCtxt()
	c := NewCode(i)
	c.EmitArg(OpLiteral, c.AddLiteral(True))
	br := c.EmitBranch(OpBTrue)
	c.EmitArg(OpLiteral, c.AddLiteral(NumberValue(0)))
	c.Emit(OpSetC)
	c.EmitArg(OpEnd, 0)
	c.Patch(br)
	c.EmitArg(OpLiteral, c.AddLiteral(NumberValue(1)))
	c.Emit(OpSetC)
	c.EmitArg(OpEnd, 0)

	var res Value
	c.Exec(ctxt, &res)
	if res.Number() != 1 {
		t.Errorf("branch not taken, C=%v", res.Number())
	}
}

func TestMachineVarRef(t *testing.T) {
	i, ctxt := newMachineCtxt()
	c := NewCode(i)
	name := i.InternGo("v")
	// PUTVAR then VAR/GETVALUE reads it back.
	c.EmitArg(OpLiteral, c.AddLiteral(NumberValue(42)))
	c.EmitArg(OpPutVar, c.AddVar(name))
	c.EmitArg(OpVar, c.AddVar(name))
	c.Emit(OpGetValue)
	c.Emit(OpSetC)
	c.EmitArg(OpEnd, 0)

	var res Value
	c.Exec(ctxt, &res)
	if res.Number() != 42 {
		t.Errorf("variable round trip = %v", res.Number())
	}
	if v := ctxt.Variable.Get(i, name); v.Number() != 42 {
		t.Error("PUTVAR must store on the variable object")
	}
}

func TestMachineTryCatch(t *testing.T) {
	i, ctxt := newMachineCtxt()
	c := NewCode(i)
	ident := i.InternGo("caught")

	c.EmitArg(OpLiteral, c.AddLiteral(StringValue(ident)))
	start := c.EmitBranch(OpSTryC)
	c.EmitArg(OpLiteral, c.AddLiteral(StringValue(InternGlobal("boom"))))
	c.Emit(OpThrow)
	// Handler: look the bound exception up through the catch scope.
	c.Patch(start)
	c.EmitArg(OpLiteral, c.AddLiteral(StringValue(ident)))
	c.Emit(OpLookup)
	c.Emit(OpGetValue)
	c.Emit(OpSetC)
	c.EmitArg(OpEnd, 0)

	var res Value
	c.Exec(ctxt, &res)
	if res.Type != TypeString || res.Str().String() != "boom" {
		t.Errorf("caught = %v", res)
	}
}

func TestMachineUncaughtPropagates(t *testing.T) {
	i, ctxt := newMachineCtxt()
	c := NewCode(i)
	c.EmitArg(OpLiteral, c.AddLiteral(NumberValue(7)))
	c.Emit(OpThrow)

	var res Value
	caught := i.Try(func() {
		c.Exec(ctxt, &res)
	})
	if caught == nil || caught.Value.Number() != 7 {
		t.Errorf("throw must unwind out of Exec: %v", caught)
	}
}

func TestMachineEnumBlock(t *testing.T) {
	i, ctxt := newMachineCtxt()
	obj := NewNative("Object", nil)
	obj.Put(i, i.InternGo("a"), NumberValue(1), 0)
	obj.Put(i, i.InternGo("b"), NumberValue(2), 0)

	c := NewCode(i)
	// total = ''; for (k in obj) total += k  -- via the C register.
	c.EmitArg(OpLiteral, c.AddLiteral(StringValue(InternGlobal(""))))
	c.Emit(OpSetC)
	c.EmitArg(OpLiteral, c.AddLiteral(ObjectValue(obj)))
	c.Emit(OpSEnum)
	next := c.Here()
	body := c.EmitBranch(OpBEnum)
	done := c.EmitBranch(OpBAlways)
	c.Patch(body)
	c.Emit(OpGetC)
	c.Emit(OpExch)
	c.Emit(OpAdd) // C + name
	c.Emit(OpSetC)
	back := c.EmitBranch(OpBAlways)
	c.PatchTo(back, next)
	c.Patch(done)
	c.EmitArg(OpEnd, 0)

	var res Value
	c.Exec(ctxt, &res)
	if res.Str().String() != "ab" {
		t.Errorf("enumerated %q, want \"ab\"", res.Str().String())
	}
}

func TestLiteralDedup(t *testing.T) {
	i, _ := newMachineCtxt()
	c := NewCode(i)
	a := c.AddLiteral(NumberValue(1))
	b := c.AddLiteral(NumberValue(1))
	if a != b {
		t.Error("equal literals must share a slot")
	}
	// +0 and -0 stay distinct.
	z := c.AddLiteral(NumberValue(0))
	nz := c.AddLiteral(NumberValue(negZero()))
	if z == nz {
		t.Error("-0 must not alias +0 in the literal table")
	}
	s1 := c.AddLiteral(StringValue(NewStringFromGo(i, "dup")))
	s2 := c.AddLiteral(StringValue(NewStringFromGo(i, "dup")))
	if s1 != s2 {
		t.Error("string literals dedup by interned identity")
	}
}

func negZero() float64 {
	z := 0.0
	return -z
}

func TestDisasm(t *testing.T) {
	i, _ := newMachineCtxt()
	c := NewCode(i)
	c.EmitArg(OpLiteral, c.AddLiteral(NumberValue(1)))
	c.Emit(OpSetC)
	c.EmitArg(OpEnd, 0)
	out := c.Disasm()
	for _, want := range []string{"LITERAL", "SETC", "END"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly lacks %s:\n%s", want, out)
		}
	}
}
