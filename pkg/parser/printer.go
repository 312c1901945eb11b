package parser

import (
	"fmt"
	"strings"

	"corvid/pkg/vm"
)

// AST pretty-printer. The output is source text that reparses to a
// semantically equivalent tree; it is used by Function.prototype.toString
// and the reconstruction tests. Branch targets print as synthetic labels
// ("L0:", "L1:", ...) so break/continue statements can reference them.

type printer struct {
	b      strings.Builder
	indent int
	bol    bool
	labels map[Node]int
}

// PrintNode renders any node to source text.
func PrintNode(n Node) string {
	p := &printer{labels: map[Node]int{}}
	p.print(n)
	return p.b.String()
}

// FunctionBodyString renders a function's body.
func FunctionBodyString(f *Function) string {
	return PrintNode(f.Body)
}

// FunctionString renders a whole function in declaration form.
func FunctionString(f *Function) string {
	p := &printer{labels: map[Node]int{}}
	p.printFunction(f)
	return p.b.String()
}

func (p *printer) atbol() {
	p.bol = false
	p.b.WriteByte('\n')
	for range p.indent {
		p.b.WriteString("  ")
	}
}

func (p *printer) str(s string) {
	if p.bol {
		p.atbol()
	}
	p.b.WriteString(s)
}

func (p *printer) vstr(s *vm.String) {
	p.str(s.String())
}

func (p *printer) newline(d int) {
	p.bol = true
	p.indent += d
}

func (p *printer) labelOf(n Node) string {
	id, ok := p.labels[n]
	if !ok {
		id = len(p.labels)
		p.labels[n] = id
	}
	return fmt.Sprintf("L%d", id)
}

func (p *printer) printLabel(n Node) {
	if n.Base().IsTarget {
		p.str(p.labelOf(n) + ": ")
	}
}

func (p *printer) printFunction(f *Function) {
	p.str("function ")
	if f.Name != nil {
		p.vstr(f.Name)
		p.str(" ")
	}
	p.str("(")
	for i, param := range f.Params {
		if i > 0 {
			p.str(", ")
		}
		p.vstr(param)
	}
	p.str(") {")
	p.newline(+1)
	p.print(f.Body)
	p.newline(-1)
	p.str("}")
	p.newline(0)
}

func quoteString(s *vm.String) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < s.Length(); i++ {
		c := s.At(i)
		switch c {
		case '"':
			b.WriteString("\\\"")
		case '\\':
			b.WriteString("\\\\")
		case 0x0008:
			b.WriteString("\\b")
		case 0x0009:
			b.WriteString("\\t")
		case 0x000a:
			b.WriteString("\\n")
		case 0x000b:
			b.WriteString("\\v")
		case 0x000c:
			b.WriteString("\\f")
		case 0x000d:
			b.WriteString("\\r")
		default:
			if c < 0x20 || c > 0x7e {
				fmt.Fprintf(&b, "\\u%04x", c)
			} else {
				b.WriteByte(byte(c))
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (p *printer) printValue(v vm.Value) {
	switch v.Type {
	case vm.TypeUndefined:
		// No undefined literal exists; void 0 reparses to the value.
		p.str("(void 0)")
	case vm.TypeNull:
		p.str("null")
	case vm.TypeBoolean:
		if v.Bool() {
			p.str("true")
		} else {
			p.str("false")
		}
	case vm.TypeNumber:
		n := v.Number()
		if n != n {
			p.str("(0/0)")
		} else if n < 0 || (n == 0 && 1/n < 0) {
			// Negative numbers and -0 are not literals; parenthesize the
			// negation so the result stays a PrimaryExpression.
			p.str("(-")
			p.str(vm.NumberToString(nil, -n).String())
			p.str(")")
		} else {
			p.str(vm.NumberToString(nil, n).String())
		}
	case vm.TypeString:
		p.str(quoteString(v.Str()))
	}
}

func (p *printer) print(n Node) {
	switch n := n.(type) {
	// --- Expressions ---
	case *Literal:
		p.printValue(n.Value)
	case *RegexLiteral:
		p.vstr(n.Source)
	case *ThisExpr:
		p.str("this")
	case *IdentExpr:
		p.vstr(n.Name)
	case *ArrayLit:
		slots := make([]Expr, n.Length)
		for _, item := range n.Items {
			if item.Index < n.Length {
				slots[item.Index] = item.Value
			}
		}
		p.str("[")
		for i, s := range slots {
			if i > 0 {
				p.str(", ")
			}
			if s != nil {
				p.print(s)
			}
		}
		// A final hole needs its own trailing comma to survive reparsing.
		if n.Length > 0 && slots[n.Length-1] == nil {
			p.str(",")
		}
		p.str("]")
	case *ObjectLit:
		p.str("{")
		for i, prop := range n.Props {
			if i > 0 {
				p.str(", ")
			}
			p.str(quoteString(prop.Name))
			p.str(": ")
			p.print(prop.Value)
		}
		p.str("}")
	case *NewExpr:
		p.str("new ")
		p.print(n.Fn)
		if n.Args != nil {
			p.printArgs(n.Args)
		} else {
			p.str("()")
		}
	case *DotExpr:
		p.print(n.X)
		p.str(".")
		p.vstr(n.Name)
	case *IndexExpr:
		p.print(n.X)
		p.str("[")
		p.print(n.Index)
		p.str("]")
	case *CallExpr:
		p.print(n.Fn)
		p.printArgs(n.Args)
	case *PostfixExpr:
		p.str("(")
		p.print(n.X)
		p.str(n.Op)
		p.str(")")
	case *UnaryExpr:
		p.str("(")
		p.str(n.Op)
		if len(n.Op) > 2 {
			p.str(" ")
		}
		p.print(n.X)
		p.str(")")
	case *BinaryExpr:
		p.str("(")
		p.print(n.L)
		p.str(" " + n.Op + " ")
		p.print(n.R)
		p.str(")")
	case *CondExpr:
		p.str("(")
		p.print(n.Cond)
		p.str(" ? ")
		p.print(n.Then)
		p.str(" : ")
		p.print(n.Else)
		p.str(")")
	case *AssignExpr:
		p.str("(")
		p.print(n.LHS)
		p.str(" " + n.Op + " ")
		p.print(n.RHS)
		p.str(")")
	case *CommaExpr:
		p.str("(")
		p.print(n.L)
		p.str(", ")
		p.print(n.R)
		p.str(")")
	case *FuncExpr:
		p.str("(")
		p.printFunction(n.Fn)
		p.str(")")

	// --- Statements ---
	case *EmptyStmt:
		p.str(";")
		p.newline(0)
	case *StatementList:
		for _, s := range n.Stmts {
			p.print(s)
		}
	case *VarStmt:
		p.str("var ")
		for i, d := range n.Decls {
			if i > 0 {
				p.str(", ")
			}
			p.print(d)
		}
		p.str(";")
		p.newline(0)
	case *VarDecl:
		p.vstr(n.Name)
		if n.Init != nil {
			p.str(" = ")
			p.print(n.Init)
		}
	case *ExprStmt:
		// Guard expression statements so object literals and commas
		// reparse as expressions.
		p.str("(")
		p.print(n.X)
		p.str(");")
		p.newline(0)
	case *IfStmt:
		p.str("if (")
		p.print(n.Cond)
		p.str(") {")
		p.newline(+1)
		p.print(n.Then)
		p.str("}")
		p.newline(-1)
		if n.Else != nil {
			p.str("else {")
			p.newline(+1)
			p.print(n.Else)
			p.str("}")
			p.newline(-1)
		}
	case *DoWhileStmt:
		p.printLabel(n)
		p.str("do {")
		p.newline(+1)
		p.print(n.Body)
		p.str("}")
		p.newline(-1)
		p.str("while (")
		p.print(n.Cond)
		p.str(");")
		p.newline(0)
	case *WhileStmt:
		p.printLabel(n)
		p.str("while (")
		p.print(n.Cond)
		p.str(") {")
		p.newline(+1)
		p.print(n.Body)
		p.str("}")
		p.newline(-1)
	case *ForStmt:
		p.printLabel(n)
		p.str("for (")
		switch init := n.Init.(type) {
		case *VarStmt:
			p.str("var ")
			for i, d := range init.Decls {
				if i > 0 {
					p.str(", ")
				}
				p.print(d)
			}
		case Expr:
			p.print(init)
		}
		p.str("; ")
		if n.Cond != nil {
			p.print(n.Cond)
		}
		p.str("; ")
		if n.Incr != nil {
			p.print(n.Incr)
		}
		p.str(") {")
		p.newline(+1)
		p.print(n.Body)
		p.str("}")
		p.newline(-1)
	case *ForInStmt:
		p.printLabel(n)
		p.str("for (")
		if n.Var != nil {
			p.str("var ")
			p.vstr(n.Var.Name)
		} else {
			p.print(n.LHS)
		}
		p.str(" in ")
		p.print(n.List)
		p.str(") {")
		p.newline(+1)
		p.print(n.Body)
		p.str("}")
		p.newline(-1)
	case *ContinueStmt:
		p.str("continue " + p.labelOf(n.Target) + ";")
		p.newline(0)
	case *BreakStmt:
		p.str("break " + p.labelOf(n.Target) + ";")
		p.newline(0)
	case *ReturnStmt:
		if n.X != nil {
			p.str("return (")
			p.print(n.X)
			p.str(");")
		} else {
			p.str("return;")
		}
		p.newline(0)
	case *WithStmt:
		p.str("with (")
		p.print(n.X)
		p.str(") {")
		p.newline(+1)
		p.print(n.Body)
		p.str("}")
		p.newline(-1)
	case *SwitchStmt:
		p.printLabel(n)
		p.str("switch (")
		p.print(n.Cond)
		p.str(") {")
		p.newline(+1)
		for i, c := range n.Cases {
			if i == n.Default {
				p.str("default:")
				p.newline(0)
			}
			if c.Expr != nil {
				p.str("case ")
				p.print(c.Expr)
				p.str(":")
				p.newline(0)
			}
			if c.Body != nil {
				p.newline(+1)
				p.print(c.Body)
				p.newline(-1)
			}
		}
		p.str("}")
		p.newline(-1)
	case *ThrowStmt:
		p.str("throw (")
		p.print(n.X)
		p.str(");")
		p.newline(0)
	case *TryStmt:
		p.str("try {")
		p.newline(+1)
		p.print(n.Block)
		p.str("}")
		p.newline(-1)
		if n.Catch != nil {
			p.str("catch (")
			p.vstr(n.CatchIdent)
			p.str(") {")
			p.newline(+1)
			p.print(n.Catch)
			p.str("}")
			p.newline(-1)
		}
		if n.Finally != nil {
			p.str("finally {")
			p.newline(+1)
			p.print(n.Finally)
			p.str("}")
			p.newline(-1)
		}
	case *FuncDecl:
		p.printFunction(n.Fn)
	case *SourceElements:
		if len(n.Vars) > 0 {
			p.str("/* var")
			sep := " "
			for _, v := range n.Vars {
				p.str(sep)
				p.vstr(v)
				sep = ", "
			}
			p.str("; */")
			p.newline(0)
		}
		for _, f := range n.Funcs {
			p.print(f)
		}
		p.newline(0)
		for _, s := range n.Stmts {
			p.print(s)
		}
	case *FunctionBody:
		p.print(n.SE)
	}
}

func (p *printer) printArgs(args []Expr) {
	p.str("(")
	for i, a := range args {
		if i > 0 {
			p.str(", ")
		}
		p.print(a)
	}
	p.str(")")
}
