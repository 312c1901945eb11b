package parser

import (
	"strings"
	"testing"

	"corvid/pkg/lexer"
	"corvid/pkg/vm"
)

// The printer's contract is that its output reparses cleanly to an
// equivalent tree; behavioral equivalence is exercised by the driver
// tests, structural stability here.

func reparse(t *testing.T, src string) string {
	t.Helper()
	i := vm.NewInterpreter()
	fn, err := ParseProgram(i, lexer.FromRunes([]rune(src), "test.js"))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	printed := FunctionBodyString(fn)
	fn2, err := ParseProgram(i, lexer.FromRunes([]rune(printed), "printed.js"))
	if err != nil {
		t.Fatalf("reparse of %q failed: %v\nprinted:\n%s", src, err, printed)
	}
	return FunctionBodyString(fn2)
}

func TestPrintReparse(t *testing.T) {
	for _, src := range []string{
		"x = 1 + 2 * 3;",
		"var a = [1, , 3], b = {p: 1, q: 'two'};",
		"if (a < b) { f(); } else { g(); }",
		"outer: for (var i = 0; i < 3; i++) { if (i) continue outer; break; }",
		"do { x--; } while (x);",
		"for (var k in o) s += k;",
		"with (o) { y = x; }",
		"switch (x) { case 1: a(); default: b(); }",
		"try { f(); } catch (e) { g(e); } finally { h(); }",
		"function f(a, b) { return a + b ? -1 : void 0; }",
		"var g = function rec(n) { return n ? rec(n - 1) : 0; };",
		"throw typeof x == 'undefined' ? 1 : 2;",
		"a = b, c = d;",
		"x = 'quote\\'s and \\\\slashes\\n';",
	} {
		once := reparse(t, src)
		// Printing is a fixed point after one round.
		twice := reparse(t, once)
		if once != twice {
			t.Errorf("print not stable for %q:\n--- first\n%s\n--- second\n%s", src, once, twice)
		}
	}
}

func TestPrintFunction(t *testing.T) {
	i := vm.NewInterpreter()
	fn, err := ParseProgram(i, lexer.FromRunes([]rune("function add(a, b) { return a + b; }"), "t.js"))
	if err != nil {
		t.Fatal(err)
	}
	out := FunctionString(fn.Body.SE.Funcs[0].Fn)
	for _, want := range []string{"function add", "(a, b)", "return"} {
		if !strings.Contains(out, want) {
			t.Errorf("printed function %q lacks %q", out, want)
		}
	}
}
