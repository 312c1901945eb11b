package interp_test

import (
	"testing"

	"corvid/pkg/driver"
	"corvid/pkg/interp"
	"corvid/pkg/lexer"
	"corvid/pkg/parser"
	"corvid/pkg/vm"
)

func parseIn(t *testing.T, c *driver.Corvid, src string) *parser.Function {
	t.Helper()
	fn, err := parser.ParseProgram(c.Interp(), lexer.FromRunes([]rune(src), "test.js"))
	if err != nil {
		t.Fatal(err)
	}
	return fn
}

func globalCtxt(c *driver.Corvid) *vm.Context {
	i := c.Interp()
	return &vm.Context{
		Interp:   i,
		Scope:    i.GlobalScope,
		Variable: i.Global,
		This:     i.Global,
		VarAttr:  vm.AttrDontDelete,
	}
}

func TestConstantFolding(t *testing.T) {
	c := driver.New()
	fn := parseIn(t, c, "x = 1 + 2 * 3;")
	rhs := fn.Body.SE.Stmts[0].(*parser.ExprStmt).X.(*parser.AssignExpr).RHS

	if rhs.Base().Folded != nil {
		t.Fatal("nothing folded before first evaluation")
	}
	interp.EvalProgramBody(fn, globalCtxt(c))
	folded := rhs.Base().Folded
	if folded == nil {
		t.Fatal("a pure constant subtree caches its value at first use")
	}
	if folded.Number() != 7 {
		t.Errorf("folded value = %v, want 7", folded.Number())
	}

	// Identifiers never fold.
	fn2 := parseIn(t, c, "y = x + 1;")
	rhs2 := fn2.Body.SE.Stmts[0].(*parser.ExprStmt).X.(*parser.AssignExpr).RHS
	c.Interp().Global.Put(c.Interp(), c.Interp().InternGo("x"), vm.NumberValue(1), 0)
	interp.EvalProgramBody(fn2, globalCtxt(c))
	if rhs2.Base().Folded != nil {
		t.Error("an expression over an identifier must not fold")
	}
}

func TestInstanceCache(t *testing.T) {
	c := driver.New()
	i := c.Interp()
	fn, err := parser.ParseFunction(i, i.InternGo("f"),
		nil, lexer.FromRunes([]rune("return 1;"), "<body>"))
	if err != nil {
		t.Fatal(err)
	}
	a := interp.Instantiate(i, fn, i.GlobalScope)
	b := interp.Instantiate(i, fn, i.GlobalScope)
	if a != b {
		t.Error("equal creation scopes must reuse the cached instance")
	}
}

func TestJoinedInstances(t *testing.T) {
	c := driver.New()
	// Two instances of one function record over different scopes are
	// joined: equality treats them as the same object, yet each keeps
	// its own closure state (13.1.2).
	v, err := c.RunString(`
		function mk(n) { return function () { return n } }
		var a = mk(1), b = mk(2);
		(a == b) + ':' + (a === b) + ':' + a() + b()`)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.Str().String(); got != "true:true:12" {
		t.Errorf("joined semantics = %q", got)
	}
}

func TestEvalBodyReturn(t *testing.T) {
	c := driver.New()
	i := c.Interp()
	fn, err := parser.ParseFunction(i, nil,
		lexer.FromRunes([]rune("a, b"), "<params>"),
		lexer.FromRunes([]rune("return a * b;"), "<body>"))
	if err != nil {
		t.Fatal(err)
	}
	ctxt := globalCtxt(c)
	v, cerr := c.EvalFunctionBody(fn, ctxt, []vm.Value{vm.NumberValue(6), vm.NumberValue(7)})
	if cerr != nil {
		t.Fatal(cerr)
	}
	if v.Number() != 42 {
		t.Errorf("body result = %v", v.Number())
	}
}

func TestActivationHidesThis(t *testing.T) {
	c := driver.New()
	// An identifier call resolving through the activation must not make
	// the activation the receiver.
	v, err := c.RunString(`
		var probe = this;
		function which() { return this === probe }
		function outer() { return which() }
		outer()`)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Bool() {
		t.Error("calls through the scope chain take the global this")
	}
}
