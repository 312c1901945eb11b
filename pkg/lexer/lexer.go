package lexer

import (
	"fmt"
	"strconv"

	"corvid/pkg/errors"
	"corvid/pkg/vm"
)

// Lexical analyser for the ECMA-262 grammar. It scans over a 6-code-point
// lookahead Input and keeps a one-token lookahead of its own: Advance
// scans the following token into Next and returns the previous one, so
// callers normally consult Next. NextFollowsNL is set when a line
// terminator appeared immediately before Next, which the parser uses for
// automatic semicolon insertion.
//
// The scanner never decides on its own whether '/' starts a regular
// expression; when the parser wants one it calls RescanRegex immediately
// after seeing TDiv or TDivAssign.
//
// Identifier classification is ASCII (A-Z, a-z, '$', '_', digits), as in
// the reference; \uHHHH escapes still admit arbitrary code points.

type Lexer struct {
	interp *vm.Interpreter
	input  *Input

	Value         vm.Value // value of Next for number/string/ident/regex tokens
	Next          Token
	NextLineno    int
	NextFollowsNL bool

	lineno int
}

// New primes a lexer over the given input.
func New(interp *vm.Interpreter, input *Input) *Lexer {
	l := &Lexer{
		interp: interp,
		input:  input,
		lineno: input.FirstLineno,
	}
	l.Advance()
	return l
}

// Advance scans the next token into l.Next and returns the previously
// current one. Line terminators and comments are consumed here; as a
// special case end-of-input always reports a preceding line terminator.
func (l *Lexer) Advance() Token {
	prev := l.Next
	l.NextFollowsNL = false
	for {
		tok := l.lex0()
		if tok == TLineTerminator {
			l.NextFollowsNL = true
			continue
		}
		if tok == TEnd {
			l.NextFollowsNL = true
		}
		l.Next = tok
		l.NextLineno = l.lineno
		return prev
	}
}

// Filename reports the input's display name.
func (l *Lexer) Filename() string { return l.input.Filename }

// RescanRegex re-lexes from the previous slash as a regular expression
// literal. Only meaningful when Next is TDiv or TDivAssign.
func (l *Lexer) RescanRegex() {
	if l.Next == TDiv || l.Next == TDivAssign {
		l.Next = l.regularExpressionLiteral(l.Next)
	}
}

func (l *Lexer) syntaxError(msg string) {
	panic(&errors.SyntaxError{
		Position: errors.Position{File: l.input.Filename, Line: l.lineno},
		Msg:      msg,
	})
}

func (l *Lexer) atEOF() bool  { return l.input.EOF() }
func (l *Lexer) peek() rune   { return l.input.Peek() }
func (l *Lexer) skip()        { l.input.Skip() }
func (l *Lexer) consume(c rune) {
	if l.atEOF() {
		l.syntaxError("unexpected end of input")
	}
	if l.peek() != c {
		l.syntaxError(fmt.Sprintf("expected '%c'", c))
	}
	l.skip()
}

// --- Character classes (7.x) ---

func isWhiteSpace(c rune) bool {
	return c == 0x0009 || c == 0x000B || c == 0x000C || c == 0x0020 || c == 0x00A0
}

func isLineTerminator(c rune) bool {
	return c == 0x000A || c == 0x000D || c == 0x2028 || c == 0x2029
}

func isLetter(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func hexValue(c rune) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}

func (l *Lexer) isHexEscape() bool {
	var la [4]rune
	n := l.input.Lookahead(la[:])
	return n >= 4 && la[0] == '\\' && la[1] == 'x' &&
		isHexDigit(la[2]) && isHexDigit(la[3])
}

func (l *Lexer) isUnicodeEscape() bool {
	var la [6]rune
	n := l.input.Lookahead(la[:])
	return n >= 6 && la[0] == '\\' && la[1] == 'u' &&
		isHexDigit(la[2]) && isHexDigit(la[3]) && isHexDigit(la[4]) && isHexDigit(la[5])
}

func (l *Lexer) isIdentifierStart() bool {
	if l.atEOF() {
		return false
	}
	c := l.peek()
	return c == '$' || c == '_' || isLetter(c) || l.isUnicodeEscape()
}

func (l *Lexer) isIdentifierPart() bool {
	if l.atEOF() {
		return false
	}
	if l.isIdentifierStart() {
		return true
	}
	return isDigit(l.peek())
}

func (l *Lexer) hexEscape() rune {
	l.consume('\\')
	l.consume('x')
	var r rune
	for range 2 {
		if l.atEOF() {
			l.syntaxError("unexpected end of input")
		}
		r = r<<4 | rune(hexValue(l.peek()))
		l.skip()
	}
	return r
}

func (l *Lexer) unicodeEscape() rune {
	l.consume('\\')
	l.consume('u')
	var r rune
	for range 4 {
		if l.atEOF() {
			l.syntaxError("unexpected end of input")
		}
		r = r<<4 | rune(hexValue(l.peek()))
		l.skip()
	}
	return r
}

// --- Literals ---

// stringLiteral scans a '"' or '\'' delimited literal (7.8.4).
func (l *Lexer) stringLiteral() Token {
	s := vm.NewString(l.interp)
	quote := l.peek()
	l.skip()
	for !l.atEOF() && l.peek() != quote {
		var c rune
		switch {
		case isLineTerminator(l.peek()):
			l.syntaxError("unterminated string literal")
		case l.isUnicodeEscape():
			c = l.unicodeEscape()
		case l.isHexEscape():
			c = l.hexEscape()
		case l.peek() == '\\':
			l.skip()
			if l.atEOF() || isLineTerminator(l.peek()) {
				l.syntaxError("escape sequence broken by line terminator")
			}
			switch l.peek() {
			case 'b':
				c = 0x0008
				l.skip()
			case 't':
				c = 0x0009
				l.skip()
			case 'n':
				c = 0x000a
				l.skip()
			case 'v':
				c = 0x000b
				l.skip()
			case 'f':
				c = 0x000c
				l.skip()
			case 'r':
				c = 0x000d
				l.skip()
			case '0', '1', '2', '3':
				c = l.peek() - '0'
				l.skip()
				for range 2 {
					if !l.atEOF() && l.peek() >= '0' && l.peek() <= '7' {
						c = c<<3 | (l.peek() - '0')
						l.skip()
					}
				}
			case '4', '5', '6', '7':
				c = l.peek() - '0'
				l.skip()
				if !l.atEOF() && l.peek() >= '0' && l.peek() <= '7' {
					c = c<<3 | (l.peek() - '0')
					l.skip()
				}
			case 'x', 'u':
				// A bare \x or \u (one not followed by its full hex
				// complement) is only legal under ext1.
				if l.interp.Compat&vm.CompatExt1 == 0 {
					if l.peek() == 'x' {
						l.syntaxError("invalid \\x escape")
					}
					l.syntaxError("invalid \\u escape")
				}
				fallthrough
			default:
				c = l.peek()
				l.skip()
			}
		case l.peek() == BadChar:
			if l.interp.Compat&vm.CompatUTFUnsafe == 0 {
				l.syntaxError("malformed input")
			}
			c = 0xFFFD
			l.skip()
		default:
			c = l.peek()
			l.skip()
		}
		s.AddUCS4(c)
	}
	l.consume(quote)
	l.Value = vm.StringValue(s)
	return TString
}

// regularExpressionLiteral scans the remainder of a regex whose leading
// '/' or '/=' was already consumed as prev (7.8.5). The resulting string
// has the form "/pattern/flags".
func (l *Lexer) regularExpressionLiteral(prev Token) Token {
	s := vm.NewString(l.interp)
	s.AddCh('/')
	if prev == TDivAssign {
		s.AddCh('=')
	}
	for !l.atEOF() && l.peek() != '/' {
		if l.peek() == '\\' {
			s.AddCh('\\')
			l.skip()
			if l.atEOF() {
				break
			}
		}
		if isLineTerminator(l.peek()) {
			l.syntaxError("unterminated regular expression")
		}
		s.AddUCS4(l.peek())
		l.skip()
	}
	if l.atEOF() {
		l.syntaxError("end of input in regular expression")
	}
	l.consume('/')
	s.AddCh('/')
	for l.isIdentifierPart() {
		s.AddUCS4(l.peek())
		l.skip()
	}
	l.Value = vm.StringValue(s)
	return TRegex
}

// numericLiteral scans a decimal, hex or (under ext1) octal literal
// (7.8.3). Called with a digit or a '.' followed by a digit.
func (l *Lexer) numericLiteral() Token {
	var digits []byte
	seenDigit := false

	checkTrailer := func() {
		if !l.atEOF() && l.isIdentifierStart() {
			l.syntaxError("identifier immediately follows numeric literal")
		}
	}

	if !l.atEOF() && l.peek() == '0' {
		l.skip()
		if !l.atEOF() && (l.peek() == 'x' || l.peek() == 'X') {
			l.skip()
			if l.atEOF() || !isHexDigit(l.peek()) {
				l.syntaxError("malformed hexadecimal literal")
			}
			n := 0.0
			for !l.atEOF() && isHexDigit(l.peek()) {
				n = n*16 + float64(hexValue(l.peek()))
				l.skip()
			}
			checkTrailer()
			l.Value = vm.NumberValue(n)
			return TNumber
		}
		digits = append(digits, '0')
		seenDigit = true
	}

	for !l.atEOF() && isDigit(l.peek()) {
		digits = append(digits, byte(l.peek()))
		seenDigit = true
		l.skip()
	}

	// Leading-zero octal integers, an ext1 extension: not followed by
	// '.', 'e' or an identifier start, and all digits octal.
	if l.interp.Compat&vm.CompatExt1 != 0 && seenDigit && len(digits) > 1 &&
		digits[0] == '0' &&
		(l.atEOF() || (l.peek() != '.' && l.peek() != 'e' && l.peek() != 'E')) {
		octal := true
		n := 0.0
		for _, d := range digits[1:] {
			if d > '7' {
				octal = false
				break
			}
			n = n*8 + float64(d-'0')
		}
		if octal && (l.atEOF() || !l.isIdentifierStart()) {
			l.Value = vm.NumberValue(n)
			return TNumber
		}
	}

	if !l.atEOF() && l.peek() == '.' {
		digits = append(digits, '.')
		l.skip()
		for !l.atEOF() && isDigit(l.peek()) {
			digits = append(digits, byte(l.peek()))
			seenDigit = true
			l.skip()
		}
	}
	if !seenDigit {
		// A lone '.' is actually the punctuator.
		return TDot
	}

	if !l.atEOF() && (l.peek() == 'e' || l.peek() == 'E') {
		digits = append(digits, byte(l.peek()))
		l.skip()
		if !l.atEOF() && (l.peek() == '-' || l.peek() == '+') {
			digits = append(digits, byte(l.peek()))
			l.skip()
		}
		seenDigit = false
		for !l.atEOF() && isDigit(l.peek()) {
			digits = append(digits, byte(l.peek()))
			seenDigit = true
			l.skip()
		}
		if !seenDigit {
			l.syntaxError("malformed exponent in numeric literal")
		}
	}
	checkTrailer()

	n, err := strconv.ParseFloat(string(digits), 64)
	if err != nil {
		l.syntaxError("malformed numeric literal")
	}
	l.Value = vm.NumberValue(n)
	return TNumber
}

// --- Comments, punctuators ---

// sgmlComment treats '<!--' like '//': everything up to the line end is
// ignored. The closing '-->' is assumed to sit behind a real '//'.
func (l *Lexer) sgmlComment() Token {
	for !l.atEOF() && !isLineTerminator(l.peek()) {
		l.skip()
	}
	if l.atEOF() {
		return TEnd
	}
	l.lineno++
	l.skip()
	return TLineTerminator
}

// commentDiv decides between comments and division at a '/' (7.4).
func (l *Lexer) commentDiv() Token {
	var la [2]rune
	n := l.input.Lookahead(la[:])

	if n >= 2 && la[0] == '/' && la[1] == '*' {
		starPrev := false
		containsNewline := false
		l.skip()
		l.skip()
		for !l.atEOF() {
			if starPrev && l.peek() == '/' {
				l.consume('/')
				if containsNewline {
					return TLineTerminator
				}
				return TComment
			}
			if isLineTerminator(l.peek()) {
				l.lineno++
				containsNewline = true
			}
			starPrev = l.peek() == '*'
			l.skip()
		}
		l.syntaxError("end of input in block comment")
	}
	if n >= 2 && la[0] == '/' && la[1] == '/' {
		for !l.atEOF() && !isLineTerminator(l.peek()) {
			l.skip()
		}
		if l.atEOF() {
			return TEnd
		}
		l.lineno++
		l.skip()
		return TLineTerminator
	}

	// Division; if the parser wanted a regex it rescans.
	l.skip()
	if !l.atEOF() && l.peek() == '=' {
		l.skip()
		return TDivAssign
	}
	return TDiv
}

// Punctuators, longest match first (7.7). ">>>=" is the longest.
var punctuators = []struct {
	text string
	tok  Token
}{
	{">>>=", TURShiftAssign},
	{"<!--", TComment}, // SGML comment opener; gated on the compat flag
	{"===", TSEq}, {"!==", TSNE}, {">>>", TURShift},
	{"<<=", TLShiftAssign}, {">>=", TRShiftAssign},
	{"<=", TLE}, {">=", TGE}, {"==", TEq}, {"!=", TNE},
	{"++", TPlusPlus}, {"--", TMinusMinus}, {"<<", TLShift}, {">>", TRShift},
	{"&&", TAndAnd}, {"||", TOrOr},
	{"+=", TPlusAssign}, {"-=", TMinusAssign}, {"*=", TStarAssign},
	{"%=", TModAssign}, {"&=", TAndAssign}, {"|=", TOrAssign}, {"^=", TXorAssign},
	{"{", TLBrace}, {"}", TRBrace}, {"(", TLParen}, {")", TRParen},
	{"[", TLBracket}, {"]", TRBracket}, {";", TSemicolon}, {",", TComma},
	{"<", TLT}, {">", TGT}, {"+", TPlus}, {"-", TMinus}, {"*", TStar},
	{"%", TMod}, {"&", TAnd}, {"|", TOr}, {"^", TXor}, {"!", TBang},
	{"~", TTilde}, {"?", TQuestion}, {":", TColon}, {"=", TAssign},
	{".", TDot},
}

func (l *Lexer) punctuator() Token {
	if l.atEOF() {
		return TEnd
	}
	var la [4]rune
	n := l.input.Lookahead(la[:])

	for _, p := range punctuators {
		if len(p.text) > n {
			continue
		}
		match := true
		for j, c := range p.text {
			if la[j] != c {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if p.text == "<!--" {
			if l.interp.Compat&vm.CompatSGMLCom != 0 {
				return l.sgmlComment()
			}
			continue // fall through to '<'
		}
		for range p.text {
			l.skip()
		}
		return p.tok
	}

	c := la[0]
	if c == BadChar {
		l.syntaxError("malformed input")
	}
	if c >= ' ' && c <= '~' {
		l.syntaxError(fmt.Sprintf("unexpected character '%c'", c))
	}
	l.syntaxError(fmt.Sprintf("unexpected character '\\u%04x'", c))
	return TEnd
}

// token scans one InputElementDiv token (7.5).
func (l *Lexer) token() Token {
	if l.atEOF() {
		return TEnd
	}

	if l.isIdentifierStart() {
		hasEscape := false
		s := vm.NewString(l.interp)
		for {
			if l.isUnicodeEscape() {
				s.AddUCS4(l.unicodeEscape())
				hasEscape = true
			} else {
				s.AddUCS4(l.peek())
				l.skip()
			}
			if !l.isIdentifierPart() {
				break
			}
		}

		// An identifier built with escapes never matches a keyword.
		if !hasEscape {
			name := s.String()
			if tok, ok := keywords[name]; ok {
				return tok
			}
			if futureReserved[name] {
				if l.interp.Compat&vm.CompatExt1 == 0 {
					return TReserved
				}
				// ext1: reserved words degrade to identifiers.
			}
		}

		l.Value = vm.StringValue(l.interp.Intern(s))
		return TIdent
	}

	return l.punctuator()
}

// lex0 is the scanner goal: skips whitespace, counts lines and dispatches
// (7.4, 7.8). May return TLineTerminator; never returns TComment.
func (l *Lexer) lex0() Token {
	for {
		for !l.atEOF() && isWhiteSpace(l.peek()) {
			l.skip()
		}
		if l.atEOF() {
			return TEnd
		}
		if isLineTerminator(l.peek()) {
			l.lineno++
			l.skip()
			return TLineTerminator
		}

		switch c := l.peek(); {
		case c == '/':
			tok := l.commentDiv()
			if tok == TComment {
				continue
			}
			return tok
		case c == '"' || c == '\'':
			return l.stringLiteral()
		case isDigit(c):
			return l.numericLiteral()
		case c == '.':
			var la [2]rune
			if n := l.input.Lookahead(la[:]); n >= 2 && isDigit(la[1]) {
				return l.numericLiteral()
			}
			l.skip()
			return TDot
		default:
			return l.token()
		}
	}
}
