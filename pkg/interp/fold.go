package interp

import (
	"corvid/pkg/parser"
	"corvid/pkg/vm"
)

// Constant subexpression detection. A subtree is constant iff it has no
// side effects and yields the same result in any context; such a node is
// evaluated once at first use and its value cached on the node (see
// evalExpr). Identifiers are never constant (they are references), nor
// are array, object, regex and function literals (each evaluation
// allocates).

func isConst(i *vm.Interpreter, n parser.Expr) bool {
	b := n.Base()
	if b.ConstKnown {
		return b.ConstFlag
	}
	b.ConstKnown = true
	b.ConstFlag = computeConst(i, n)
	return b.ConstFlag
}

func computeConst(i *vm.Interpreter, n parser.Expr) bool {
	switch n := n.(type) {
	case *parser.Literal:
		return true
	case *parser.UnaryExpr:
		switch n.Op {
		case "void", "+", "-", "~", "!":
			return isConst(i, n.X)
		}
		return false
	case *parser.BinaryExpr:
		switch n.Op {
		case "&&", "||":
			// Constant when the left side is constant and either decides
			// the result or the right side is constant too.
			if !isConst(i, n.L) {
				return false
			}
			decided := i.ToBoolean(constValue(i, n.L)) == (n.Op == "||")
			return decided || isConst(i, n.R)
		case "instanceof", "in":
			return false
		}
		return isConst(i, n.L) && isConst(i, n.R)
	case *parser.CondExpr:
		if !isConst(i, n.Cond) {
			return false
		}
		// The chosen branch must be constant; the other is dead.
		if i.ToBoolean(constValue(i, n.Cond)) {
			return isConst(i, n.Then)
		}
		return isConst(i, n.Else)
	}
	return false
}

// constValue evaluates an already-known-constant subtree. Constant nodes
// never consult the scope chain, so a bare context suffices.
func constValue(i *vm.Interpreter, n parser.Expr) vm.Value {
	return evalExprValue(n, &vm.Context{Interp: i})
}
