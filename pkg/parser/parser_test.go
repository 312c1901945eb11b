package parser

import (
	"strings"
	"testing"

	"corvid/pkg/errors"
	"corvid/pkg/lexer"
	"corvid/pkg/vm"
)

func parseSrc(t *testing.T, src string) (*Function, error) {
	t.Helper()
	i := vm.NewInterpreter()
	return ParseProgram(i, lexer.FromRunes([]rune(src), "test.js"))
}

func mustParse(t *testing.T, src string) *Function {
	t.Helper()
	fn, err := parseSrc(t, src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return fn
}

func mustFail(t *testing.T, src, fragment string) {
	t.Helper()
	_, err := parseSrc(t, src)
	if err == nil {
		t.Fatalf("parse %q: expected a syntax error", src)
	}
	se, ok := err.(*errors.SyntaxError)
	if !ok {
		t.Fatalf("parse %q: error is %T, want *SyntaxError", src, err)
	}
	if fragment != "" && !strings.Contains(se.Error(), fragment) {
		t.Errorf("parse %q: error %q does not mention %q", src, se.Error(), fragment)
	}
}

func TestParseBasics(t *testing.T) {
	for _, src := range []string{
		"",
		";",
		"var a, b = 2, c;",
		"x = 1 + 2 * 3;",
		"a.b.c[d](1, 2)(3);",
		"if (a) b(); else c();",
		"while (x) x--;",
		"do x++; while (x < 10);",
		"for (var i = 0; i < 10; i++) f(i);",
		"for (;;) break;",
		"for (k in o) f(k);",
		"for (var k in o) f(k);",
		"with (o) x = 1;",
		"switch (x) { case 1: a(); break; default: b(); }",
		"try { f(); } catch (e) { g(e); }",
		"try { f(); } finally { g(); }",
		"try { f(); } catch (e) { g(e); } finally { h(); }",
		"function f(a, b) { return a + b; }",
		"var f = function (x) { return x; };",
		"var g = function named(x) { return named(x - 1); };",
		"throw new Error('x');",
		"a = b ? c : d;",
		"a = {x: 1, 'y': 2, 3: 4};",
		"a = [1, , 3];",
		"a = typeof b;",
		"delete a.b;",
		"void 0;",
		"new Date;",
		"new Foo(1, 2).bar;",
		"lbl: while (x) { break lbl; }",
		"a = /re+gex/gi.source;",
	} {
		mustParse(t, src)
	}
}

func TestParseErrors(t *testing.T) {
	mustFail(t, "var 1 = 2;", "")
	mustFail(t, "if (a {}", "")
	mustFail(t, "for (a b) {}", "")
	mustFail(t, "return 1;", "function")
	mustFail(t, "break;", "break")
	mustFail(t, "continue;", "continue")
	mustFail(t, "while (1) { break nosuch; }", "")
	mustFail(t, "lbl: lbl: x;", "duplicate label")
	mustFail(t, "try { f(); }", "")
	mustFail(t, "switch (x) { default: a(); default: b(); }", "default")
	mustFail(t, "function () {}", "")
	mustFail(t, "a = }", "")
	mustFail(t, "x = {", "")
}

func TestErrorPositionPrefix(t *testing.T) {
	_, err := parseSrc(t, "a;\nb;\nvar 1;")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "test.js:3: ") {
		t.Errorf("error %q should carry the file:line prefix", err.Error())
	}
}

func TestAutomaticSemicolonInsertion(t *testing.T) {
	// Terminators satisfied by newline, '}' and end of input.
	for _, src := range []string{
		"a = 1\nb = 2",
		"a = 1",
		"if (x) { a = 1 }",
		"function f() { return\n1; }",
	} {
		mustParse(t, src)
	}
	// But not inside a for header.
	mustFail(t, "for (a = 1\na < 4; a++) {}", "")

	// return followed by a newline returns undefined.
	fn := mustParse(t, "function f() { return\n1; }")
	inner := fn.Body.SE.Funcs[0].Fn
	ret, ok := inner.Body.SE.Stmts[0].(*ReturnStmt)
	if !ok || ret.X != nil {
		t.Error("a line terminator after return must end the statement")
	}
}

func TestPostfixNoNewline(t *testing.T) {
	// A line terminator before ++ binds it to the next statement, so
	// "a\n++b" parses as "a; ++b".
	fn := mustParse(t, "a\n++b")
	if len(fn.Body.SE.Stmts) != 2 {
		t.Errorf("got %d statements, want 2", len(fn.Body.SE.Stmts))
	}
}

func TestNoInSuppression(t *testing.T) {
	// 'in' is an operator in expressions,
	fn := mustParse(t, "x = a in b;")
	st := fn.Body.SE.Stmts[0].(*ExprStmt)
	if _, ok := st.X.(*AssignExpr); !ok {
		t.Fatal("expected assignment")
	}
	// but suppressed inside a for header: the initializer stops before
	// 'in', which then introduces the enumeration.
	fn = mustParse(t, "for (var k = a in b) {}")
	fin, ok := fn.Body.SE.Stmts[0].(*ForInStmt)
	if !ok {
		t.Fatal("expected a for-in statement")
	}
	if _, ok := fin.Var.Init.(*IdentExpr); !ok {
		t.Error("the initializer must not consume the 'in' operator")
	}
}

func TestVariableListCollection(t *testing.T) {
	fn := mustParse(t, "var a; function g() { var b, c; } var d;")
	got := map[string]bool{}
	for _, v := range fn.Body.SE.Vars {
		got[v.String()] = true
	}
	if !got["a"] || !got["d"] || got["b"] {
		t.Errorf("program vars = %v", got)
	}
	inner := fn.Body.SE.Funcs[0].Fn
	if len(inner.Body.SE.Vars) != 2 {
		t.Errorf("inner vars = %d, want 2", len(inner.Body.SE.Vars))
	}
}

func TestLabelTargets(t *testing.T) {
	fn := mustParse(t, "outer: for (;;) { for (;;) { continue outer; } }")
	forStmt := fn.Body.SE.Stmts[0].(*ForStmt)
	if !forStmt.IsTarget {
		t.Error("the labelled loop must be marked as a target")
	}
	innerFor := forStmt.Body.(*StatementList).Stmts[0].(*ForStmt)
	cont := innerFor.Body.(*StatementList).Stmts[0].(*ContinueStmt)
	if cont.Target != Node(forStmt) {
		t.Error("continue must resolve to the outer loop")
	}
}

func TestBreakTargetsSwitch(t *testing.T) {
	fn := mustParse(t, "switch (x) { case 1: break; }")
	sw := fn.Body.SE.Stmts[0].(*SwitchStmt)
	br := sw.Cases[0].Body.Stmts[0].(*BreakStmt)
	if br.Target != Node(sw) {
		t.Error("unlabelled break in a switch must target the switch")
	}
}

func TestContinueInvalidOnSwitch(t *testing.T) {
	mustFail(t, "lbl: switch (x) { case 1: continue lbl; }", "")
}

func TestLabelsDoNotCrossFunctions(t *testing.T) {
	mustFail(t, "lbl: while (1) { var f = function () { break lbl; }; }", "")
}

func TestFunctionRecord(t *testing.T) {
	fn := mustParse(t, "function add(a, b) { return a + b; }")
	rec := fn.Body.SE.Funcs[0].Fn
	if rec.Name.String() != "add" {
		t.Errorf("name = %v", rec.Name)
	}
	if len(rec.Params) != 2 {
		t.Errorf("params = %d", len(rec.Params))
	}
	if rec.IsEmpty {
		t.Error("body is not empty")
	}
	empty := mustParse(t, "function nop() {}").Body.SE.Funcs[0].Fn
	if !empty.IsEmpty {
		t.Error("empty body must be flagged")
	}
}

func TestArrayLiteralHoles(t *testing.T) {
	fn := mustParse(t, "a = [1, , 3];")
	lit := fn.Body.SE.Stmts[0].(*ExprStmt).X.(*AssignExpr).RHS.(*ArrayLit)
	if lit.Length != 3 || len(lit.Items) != 2 {
		t.Errorf("length=%d items=%d", lit.Length, len(lit.Items))
	}
	if lit.Items[1].Index != 2 {
		t.Errorf("second item index = %d, want 2", lit.Items[1].Index)
	}

	fn = mustParse(t, "a = [1, 2, ];")
	lit = fn.Body.SE.Stmts[0].(*ExprStmt).X.(*AssignExpr).RHS.(*ArrayLit)
	if lit.Length != 2 {
		t.Errorf("trailing comma: length = %d, want 2", lit.Length)
	}
}

func TestParseFunctionEntryPoint(t *testing.T) {
	i := vm.NewInterpreter()
	fn, err := ParseFunction(i, i.InternGo("f"),
		lexer.FromRunes([]rune("a, b"), "<params>"),
		lexer.FromRunes([]rune("return a * b;"), "<body>"))
	if err != nil {
		t.Fatal(err)
	}
	if len(fn.Params) != 2 || fn.Name.String() != "f" {
		t.Errorf("params=%d name=%v", len(fn.Params), fn.Name)
	}

	if _, err := ParseFunction(i, nil,
		lexer.FromRunes([]rune("a b"), "<params>"), nil); err == nil {
		t.Error("malformed parameter list must fail")
	}
}
