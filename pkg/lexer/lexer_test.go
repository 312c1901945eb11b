package lexer

import (
	"testing"

	"corvid/pkg/errors"
	"corvid/pkg/vm"
)

func newTestLexer(t *testing.T, src string) *Lexer {
	t.Helper()
	return New(vm.NewInterpreter(), FromRunes([]rune(src), "test.js"))
}

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	l := newTestLexer(t, src)
	var toks []Token
	for l.Next != TEnd {
		toks = append(toks, l.Next)
		l.Advance()
	}
	return toks
}

func TestTokenSequence(t *testing.T) {
	tests := []struct {
		src  string
		want []Token
	}{
		{"var x = 1;", []Token{TVar, TIdent, TAssign, TNumber, TSemicolon}},
		{"a.b(c)", []Token{TIdent, TDot, TIdent, TLParen, TIdent, TRParen}},
		{"x >>>= y", []Token{TIdent, TURShiftAssign, TIdent}},
		{"a === b !== c", []Token{TIdent, TSEq, TIdent, TSNE, TIdent}},
		{"for (k in o) {}", []Token{TFor, TLParen, TIdent, TIn, TIdent, TRParen, TLBrace, TRBrace}},
		{"a /= b / c", []Token{TIdent, TDivAssign, TIdent, TDiv, TIdent}},
		{"x instanceof Y", []Token{TIdent, TInstanceof, TIdent}},
	}
	for _, tt := range tests {
		got := scanAll(t, tt.src)
		if len(got) != len(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.src, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q: token %d = %v, want %v", tt.src, i, got[i], tt.want[i])
			}
		}
	}
}

func TestNumericLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"0", 0},
		{"123", 123},
		{"3.25", 3.25},
		{".5", 0.5},
		{"1e3", 1000},
		{"1E-2", 0.01},
		{"2.5e+2", 250},
		{"0xff", 255},
		{"0X10", 16},
		{"017", 15}, // ext1 octal is on by default
	}
	for _, tt := range tests {
		l := newTestLexer(t, tt.src)
		if l.Next != TNumber {
			t.Errorf("%q: got token %v, want number", tt.src, l.Next)
			continue
		}
		if got := l.Value.Number(); got != tt.want {
			t.Errorf("%q: got %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestOctalLiteralOffWithoutExt1(t *testing.T) {
	i := vm.NewInterpreter()
	i.Compat &^= vm.CompatExt1
	l := New(i, FromRunes([]rune("017"), "test.js"))
	if l.Next != TNumber || l.Value.Number() != 17 {
		t.Errorf("without ext1, 017 should scan as decimal 17, got %v", l.Value.Number())
	}
}

func TestNumberFollowedByIdentifier(t *testing.T) {
	for _, src := range []string{"3abc", "0x1z", "1e2x"} {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if _, ok := r.(*errors.SyntaxError); !ok {
						t.Errorf("%q: paniced with %v, want SyntaxError", src, r)
					}
				} else {
					t.Errorf("%q: expected a syntax error", src)
				}
			}()
			scanAll(t, src)
		}()
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`'hi'`, "hi"},
		{`"a\tb"`, "a\tb"},
		{`"\b\t\n\v\f\r"`, "\b\t\n\v\f\r"},
		{`'\x41'`, "A"},
		{`'A'`, "A"},
		{`'\101'`, "A"},   // octal \101
		{`'\53'`, "+"},    // short octal
		{`'\z'`, "z"},     // any other char stands for itself
		{`"it\'s"`, "it's"},
	}
	for _, tt := range tests {
		l := newTestLexer(t, tt.src)
		if l.Next != TString {
			t.Fatalf("%q: got token %v, want string", tt.src, l.Next)
		}
		if got := l.Value.Str().String(); got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	for _, src := range []string{"'abc", "\"a\nb\""} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%q: expected a syntax error", src)
				}
			}()
			scanAll(t, src)
		}()
	}
}

func TestLineTerminatorTracking(t *testing.T) {
	l := newTestLexer(t, "a\nb /* multi\nline */ c d")
	if l.Next != TIdent || l.NextFollowsNL {
		t.Fatalf("first token: %v followsNL=%v", l.Next, l.NextFollowsNL)
	}
	l.Advance()
	if !l.NextFollowsNL {
		t.Errorf("b should follow a newline")
	}
	l.Advance()
	if !l.NextFollowsNL {
		t.Errorf("a block comment containing a newline counts as a line terminator")
	}
	l.Advance()
	if l.NextFollowsNL {
		t.Errorf("d does not follow a newline")
	}
}

func TestLineNumbers(t *testing.T) {
	l := newTestLexer(t, "a\n\nb")
	if l.NextLineno != 1 {
		t.Errorf("a on line %d, want 1", l.NextLineno)
	}
	l.Advance()
	if l.NextLineno != 3 {
		t.Errorf("b on line %d, want 3", l.NextLineno)
	}
}

func TestIdentifierEscapes(t *testing.T) {
	l := newTestLexer(t, `\u0061bc`)
	if l.Next != TIdent || l.Value.Str().String() != "abc" {
		t.Fatalf("got %v %q", l.Next, l.Value.Str())
	}

	// An escaped keyword is never matched as a keyword.
	l = newTestLexer(t, `v\u0061r`)
	if l.Next != TIdent || l.Value.Str().String() != "var" {
		t.Errorf("escaped 'var' should be an identifier, got %v", l.Next)
	}
}

func TestRegexRescan(t *testing.T) {
	l := newTestLexer(t, "/ab+c/gi x")
	if l.Next != TDiv {
		t.Fatalf("got %v, want '/'", l.Next)
	}
	l.RescanRegex()
	if l.Next != TRegex {
		t.Fatalf("rescan gave %v, want regex", l.Next)
	}
	if got := l.Value.Str().String(); got != "/ab+c/gi" {
		t.Errorf("regex literal = %q", got)
	}
	l.Advance()
	if l.Next != TIdent {
		t.Errorf("after regex: %v, want identifier", l.Next)
	}
}

func TestSGMLComment(t *testing.T) {
	i := vm.NewInterpreter()
	i.Compat |= vm.CompatSGMLCom
	l := New(i, FromRunes([]rune("a <!-- hidden\nb"), "test.js"))
	if l.Next != TIdent {
		t.Fatal("expected identifier")
	}
	l.Advance()
	if l.Next != TIdent || l.Value.Str().String() != "b" {
		t.Errorf("SGML comment should hide the rest of the line; got %v", l.Next)
	}

	// Without the flag, '<!' scans as '<' then '!'.
	l2 := newTestLexer(t, "a <!-- b")
	l2.Advance()
	if l2.Next != TLT {
		t.Errorf("without sgml_comments, got %v, want '<'", l2.Next)
	}
}

func TestFutureReservedWords(t *testing.T) {
	i := vm.NewInterpreter()
	i.Compat &^= vm.CompatExt1
	l := New(i, FromRunes([]rune("class"), "test.js"))
	if l.Next != TReserved {
		t.Errorf("'class' should be reserved without ext1, got %v", l.Next)
	}

	// ext1 degrades reserved words to identifiers.
	l = newTestLexer(t, "class")
	if l.Next != TIdent {
		t.Errorf("'class' should be an identifier under ext1, got %v", l.Next)
	}
}
