package interp

import (
	"corvid/pkg/parser"
	"corvid/pkg/vm"
)

// One-pass code generator lowering the AST to the stack bytecode executed
// by the vm machine. Observable behavior is identical to the tree walker;
// declaration instantiation stays in evalBody, so generated code covers
// statements and expressions only.
//
// Block-level bookkeeping: every with, catch scope, enumeration and try
// installs one block; break/continue compile to END (ending every block
// opened above the target statement, firing side effects) followed by a
// branch to the patched destination.

// funcMaker adapts a function record to the machine's FuncMaker, carrying
// the named-function-expression shield scope semantics.
type funcMaker struct {
	fn *parser.Function
}

func (m funcMaker) Instantiate(i *vm.Interpreter, scope *vm.Scope) vm.Object {
	if m.fn.Name == nil {
		return Instantiate(i, m.fn, scope)
	}
	shield := vm.NewObject(i)
	inner := &vm.Scope{Obj: shield, Next: scope}
	inst := Instantiate(i, m.fn, inner)
	shield.Put(i, m.fn.Name, vm.ObjectValue(inst),
		vm.AttrDontDelete|vm.AttrReadOnly)
	return inst
}

type loopInfo struct {
	node            parser.Node
	blockLevel      int // level to unwind to for break
	contBlockLevel  int // level to unwind to for continue
	breakPatches    []int
	continuePatches []int
}

type codegen struct {
	interp    *vm.Interpreter
	code      *vm.Code
	asProgram bool

	blockLevel  int
	scopeCovers int // lexically enclosing with/catch scopes
	loops       []*loopInfo
}

// codeFor compiles (and caches) the body of fn. asProgram selects program
// semantics: expression statements feed the completion register.
func codeFor(i *vm.Interpreter, fn *parser.Function, asProgram bool) *vm.Code {
	if fn.Code != nil {
		return fn.Code
	}
	cg := &codegen{
		interp:    i,
		code:      vm.NewCode(i),
		asProgram: asProgram,
	}
	cg.stmt(fn.Body.SE)
	cg.code.EmitArg(vm.OpEnd, 0)
	fn.Code = cg.code
	return fn.Code
}

func (cg *codegen) emit(op vm.Op)           { cg.code.Emit(op) }
func (cg *codegen) emitArg(op vm.Op, a int) { cg.code.EmitArg(op, a) }

func (cg *codegen) literal(v vm.Value) {
	cg.emitArg(vm.OpLiteral, cg.code.AddLiteral(v))
}

func (cg *codegen) loc(n parser.Node) {
	cg.emitArg(vm.OpLoc, cg.code.AddLocation(parser.Location(n)))
}

func (cg *codegen) findLoop(target any) *loopInfo {
	for idx := len(cg.loops) - 1; idx >= 0; idx-- {
		if cg.loops[idx].node == target {
			return cg.loops[idx]
		}
	}
	return nil
}

func (cg *codegen) pushLoop(n parser.Node, contLevel int) *loopInfo {
	info := &loopInfo{
		node:           n,
		blockLevel:     cg.blockLevel,
		contBlockLevel: contLevel,
	}
	cg.loops = append(cg.loops, info)
	return info
}

func (cg *codegen) popLoop(info *loopInfo, breakAddr, contAddr int) {
	for _, at := range info.breakPatches {
		cg.code.PatchTo(at, breakAddr)
	}
	for _, at := range info.continuePatches {
		cg.code.PatchTo(at, contAddr)
	}
	cg.loops = cg.loops[:len(cg.loops)-1]
}

// --- Statements ---

func (cg *codegen) stmts(list []parser.Stmt) {
	for _, s := range list {
		cg.stmt(s)
	}
}

func (cg *codegen) stmt(n parser.Stmt) {
	switch n := n.(type) {
	case *parser.SourceElements:
		cg.stmts(n.Stmts)

	case *parser.FunctionBody:
		cg.stmt(n.SE)

	case *parser.StatementList:
		cg.stmts(n.Stmts)

	case *parser.EmptyStmt, *parser.FuncDecl:

	case *parser.VarStmt:
		for _, d := range n.Decls {
			cg.varDecl(d)
		}

	case *parser.ExprStmt:
		cg.loc(n)
		cg.expr(n.X, false)
		if cg.asProgram {
			cg.emit(vm.OpSetC)
		} else {
			cg.emit(vm.OpPop)
		}

	case *parser.IfStmt:
		cg.loc(n)
		cg.expr(n.Cond, false)
		cg.emit(vm.OpToBoolean)
		toThen := cg.code.EmitBranch(vm.OpBTrue)
		if n.Else != nil {
			cg.stmt(n.Else)
		}
		toEnd := cg.code.EmitBranch(vm.OpBAlways)
		cg.code.Patch(toThen)
		cg.stmt(n.Then)
		cg.code.Patch(toEnd)

	case *parser.DoWhileStmt:
		info := cg.pushLoop(n, cg.blockLevel)
		body := cg.code.Here()
		cg.stmt(n.Body)
		cond := cg.code.Here()
		cg.loc(n)
		cg.expr(n.Cond, false)
		cg.emit(vm.OpToBoolean)
		toBody := cg.code.EmitBranch(vm.OpBTrue)
		cg.code.PatchTo(toBody, body)
		cg.popLoop(info, cg.code.Here(), cond)

	case *parser.WhileStmt:
		info := cg.pushLoop(n, cg.blockLevel)
		cond := cg.code.Here()
		cg.loc(n)
		cg.expr(n.Cond, false)
		cg.emit(vm.OpToBoolean)
		toBody := cg.code.EmitBranch(vm.OpBTrue)
		toExit := cg.code.EmitBranch(vm.OpBAlways)
		cg.code.Patch(toBody)
		cg.stmt(n.Body)
		back := cg.code.EmitBranch(vm.OpBAlways)
		cg.code.PatchTo(back, cond)
		cg.code.Patch(toExit)
		cg.popLoop(info, cg.code.Here(), cond)

	case *parser.ForStmt:
		cg.loc(n)
		switch init := n.Init.(type) {
		case *parser.VarStmt:
			cg.stmt(init)
		case parser.Expr:
			cg.expr(init, false)
			cg.emit(vm.OpPop)
		}
		info := cg.pushLoop(n, cg.blockLevel)
		cond := cg.code.Here()
		var toExit int
		hasExit := false
		if n.Cond != nil {
			cg.expr(n.Cond, false)
			cg.emit(vm.OpToBoolean)
			toBody := cg.code.EmitBranch(vm.OpBTrue)
			toExit = cg.code.EmitBranch(vm.OpBAlways)
			hasExit = true
			cg.code.Patch(toBody)
		}
		cg.stmt(n.Body)
		incr := cg.code.Here()
		if n.Incr != nil {
			cg.expr(n.Incr, false)
			cg.emit(vm.OpPop)
		}
		back := cg.code.EmitBranch(vm.OpBAlways)
		cg.code.PatchTo(back, cond)
		if hasExit {
			cg.code.Patch(toExit)
		}
		cg.popLoop(info, cg.code.Here(), incr)

	case *parser.ForInStmt:
		cg.loc(n)
		if n.Var != nil {
			cg.varDecl(n.Var)
		}
		cg.expr(n.List, false)
		cg.emit(vm.OpToObject)
		cg.emit(vm.OpSEnum)
		cg.blockLevel++
		info := cg.pushLoop(n, cg.blockLevel)
		info.blockLevel = cg.blockLevel - 1 // break discards the enumeration
		next := cg.code.Here()
		toBody := cg.code.EmitBranch(vm.OpBEnum)
		toDone := cg.code.EmitBranch(vm.OpBAlways)
		cg.code.Patch(toBody)
		// B_ENUM pushed the property name; store through the target
		// reference.
		if n.Var != nil {
			cg.identRef(n.Var.Name)
		} else {
			cg.expr(n.LHS, true)
		}
		cg.emit(vm.OpExch)
		cg.emit(vm.OpPutValue)
		cg.stmt(n.Body)
		back := cg.code.EmitBranch(vm.OpBAlways)
		cg.code.PatchTo(back, next)
		cg.code.Patch(toDone)
		cg.blockLevel--
		cg.emitArg(vm.OpEnd, cg.blockLevel+1)
		cg.popLoop(info, cg.code.Here(), next)

	case *parser.ContinueStmt:
		info := cg.findLoop(n.Target)
		cg.emitArg(vm.OpEnd, info.contBlockLevel+1)
		info.continuePatches = append(info.continuePatches,
			cg.code.EmitBranch(vm.OpBAlways))

	case *parser.BreakStmt:
		info := cg.findLoop(n.Target)
		cg.emitArg(vm.OpEnd, info.blockLevel+1)
		info.breakPatches = append(info.breakPatches,
			cg.code.EmitBranch(vm.OpBAlways))

	case *parser.ReturnStmt:
		cg.loc(n)
		if n.X != nil {
			cg.expr(n.X, false)
		} else {
			cg.literal(vm.Undefined)
		}
		cg.emit(vm.OpSetC)
		cg.emitArg(vm.OpEnd, 0)

	case *parser.WithStmt:
		cg.loc(n)
		cg.expr(n.X, false)
		cg.emit(vm.OpToObject)
		cg.emit(vm.OpSWith)
		cg.blockLevel++
		cg.scopeCovers++
		cg.stmt(n.Body)
		cg.scopeCovers--
		cg.blockLevel--
		cg.emitArg(vm.OpEnd, cg.blockLevel+1)

	case *parser.SwitchStmt:
		cg.loc(n)
		info := cg.pushLoop(n, -1)
		cg.expr(n.Cond, false)
		// Dispatch: compare each case expression by strict equality. The
		// matching path pops the input in a trampoline, then jumps into
		// the contiguous body region so fall-through works.
		tests := make([]int, len(n.Cases))
		for idx, c := range n.Cases {
			if c.Expr == nil {
				continue
			}
			cg.emit(vm.OpDup)
			cg.expr(c.Expr, false)
			cg.emit(vm.OpSeq)
			tests[idx] = cg.code.EmitBranch(vm.OpBTrue)
		}
		cg.emit(vm.OpPop)
		noMatch := cg.code.EmitBranch(vm.OpBAlways)
		entries := make([]int, len(n.Cases))
		for idx, c := range n.Cases {
			if c.Expr == nil {
				continue
			}
			cg.code.Patch(tests[idx])
			cg.emit(vm.OpPop)
			entries[idx] = cg.code.EmitBranch(vm.OpBAlways)
		}
		bodyStarts := make([]int, len(n.Cases))
		for idx, c := range n.Cases {
			bodyStarts[idx] = cg.code.Here()
			if c.Body != nil {
				cg.stmt(c.Body)
			}
		}
		for idx, c := range n.Cases {
			if c.Expr != nil {
				cg.code.PatchTo(entries[idx], bodyStarts[idx])
			}
		}
		if n.Default >= 0 {
			cg.code.PatchTo(noMatch, bodyStarts[n.Default])
		} else {
			cg.code.Patch(noMatch)
		}
		cg.popLoop(info, cg.code.Here(), -1)

	case *parser.ThrowStmt:
		cg.loc(n)
		cg.expr(n.X, false)
		cg.emit(vm.OpThrow)

	case *parser.TryStmt:
		cg.tryStmt(n)

	default:
		panic("corvid: unknown statement in code generation")
	}
}

func (cg *codegen) varDecl(d *parser.VarDecl) {
	if d.Init == nil {
		return
	}
	cg.loc(d)
	if cg.scopeCovers == 0 {
		// No with/catch can shadow the name here; store directly on the
		// variable object.
		cg.expr(d.Init, false)
		cg.emitArg(vm.OpPutVar, cg.code.AddVar(d.Name))
		return
	}
	cg.identRef(d.Name)
	cg.expr(d.Init, false)
	cg.emit(vm.OpPutValue)
}

func (cg *codegen) tryStmt(n *parser.TryStmt) {
	cg.loc(n)
	switch {
	case n.Catch != nil && n.Finally != nil:
		// try/catch/finally: an outer finally block wraps the catch form.
		startF := cg.code.EmitBranch(vm.OpSTryF)
		cg.blockLevel++
		fNum := cg.blockLevel
		cg.tryCatch(n)
		cg.blockLevel--
		cg.emitArg(vm.OpEnd, fNum)
		after := cg.code.EmitBranch(vm.OpBAlways)
		cg.code.Patch(startF)
		cg.stmt(n.Finally)
		cg.emitArg(vm.OpEnd, fNum)
		cg.code.Patch(after)

	case n.Catch != nil:
		cg.tryCatch(n)

	default:
		startF := cg.code.EmitBranch(vm.OpSTryF)
		cg.blockLevel++
		fNum := cg.blockLevel
		cg.stmt(n.Block)
		cg.blockLevel--
		cg.emitArg(vm.OpEnd, fNum)
		after := cg.code.EmitBranch(vm.OpBAlways)
		cg.code.Patch(startF)
		cg.stmt(n.Finally)
		cg.emitArg(vm.OpEnd, fNum)
		cg.code.Patch(after)
	}
}

// tryCatch emits the try/catch kernel: on throw the machine truncates the
// stack, binds the exception in a one-property scope and resumes at the
// handler; the handler's END pops the catch scope.
func (cg *codegen) tryCatch(n *parser.TryStmt) {
	cg.literal(vm.StringValue(cg.interp.Intern(n.CatchIdent)))
	startC := cg.code.EmitBranch(vm.OpSTryC)
	cg.blockLevel++
	cNum := cg.blockLevel
	cg.stmt(n.Block)
	cg.blockLevel--
	cg.emitArg(vm.OpEnd, cNum)
	after := cg.code.EmitBranch(vm.OpBAlways)
	cg.code.Patch(startC)
	// Arrived via throw: the try block was converted into a catch scope.
	cg.blockLevel++
	cg.scopeCovers++
	cg.stmt(n.Catch)
	cg.scopeCovers--
	cg.blockLevel--
	cg.emitArg(vm.OpEnd, cNum)
	cg.code.Patch(after)
}

// --- Expressions ---

// identRef pushes a scope-chain reference for name.
func (cg *codegen) identRef(name *vm.String) {
	cg.literal(vm.StringValue(cg.interp.Intern(name)))
	cg.emit(vm.OpLookup)
}

// expr compiles e. With wantRef the result may be left as a reference;
// otherwise it is dereferenced to a value.
func (cg *codegen) expr(e parser.Expr, wantRef bool) {
	cg.exprRaw(e)
	if !wantRef {
		cg.emit(vm.OpGetValue)
	}
}

func (cg *codegen) exprRaw(e parser.Expr) {
	i := cg.interp

	switch e := e.(type) {
	case *parser.Literal:
		cg.literal(e.Value)

	case *parser.RegexLiteral:
		src := e.Source
		end := src.Length() - 1
		for end > 0 && src.At(end) != '/' {
			end--
		}
		pattern := src.Substr(i, 1, end-1)
		flags := src.Substr(i, end+1, src.Length()-end-1)
		cg.emit(vm.OpRegexp)
		cg.literal(vm.StringValue(pattern))
		cg.literal(vm.StringValue(flags))
		cg.emitArg(vm.OpNew, 2)

	case *parser.ThisExpr:
		cg.emit(vm.OpThis)

	case *parser.IdentExpr:
		cg.identRef(e.Name)

	case *parser.ArrayLit:
		cg.emit(vm.OpArray)
		cg.emitArg(vm.OpNew, 0)
		for _, item := range e.Items {
			cg.emit(vm.OpDup)
			cg.literal(vm.StringValue(vm.NumberToString(i, float64(item.Index))))
			cg.emit(vm.OpRef)
			cg.expr(item.Value, false)
			cg.emit(vm.OpPutValue)
		}
		cg.emit(vm.OpDup)
		cg.literal(vm.StringValue(vm.StrLength))
		cg.emit(vm.OpRef)
		cg.literal(vm.NumberValue(float64(e.Length)))
		cg.emit(vm.OpPutValue)

	case *parser.ObjectLit:
		cg.emit(vm.OpObject)
		cg.emitArg(vm.OpNew, 0)
		for _, prop := range e.Props {
			cg.emit(vm.OpDup)
			cg.literal(vm.StringValue(prop.Name))
			cg.emit(vm.OpRef)
			cg.expr(prop.Value, false)
			cg.emit(vm.OpPutValue)
		}

	case *parser.NewExpr:
		cg.expr(e.Fn, false)
		for _, a := range e.Args {
			cg.expr(a, false)
		}
		if len(e.Args) > cg.code.MaxArgc {
			cg.code.MaxArgc = len(e.Args)
		}
		cg.emitArg(vm.OpNew, len(e.Args))

	case *parser.DotExpr:
		cg.expr(e.X, false)
		cg.emit(vm.OpToObject)
		cg.literal(vm.StringValue(i.Intern(e.Name)))
		cg.emit(vm.OpRef)

	case *parser.IndexExpr:
		cg.expr(e.X, false)
		cg.emit(vm.OpToObject)
		cg.expr(e.Index, false)
		cg.emit(vm.OpToString)
		cg.emit(vm.OpRef)

	case *parser.CallExpr:
		cg.loc(e)
		cg.exprRaw(e.Fn) // keep the reference: it supplies this
		for _, a := range e.Args {
			cg.expr(a, false)
		}
		if len(e.Args) > cg.code.MaxArgc {
			cg.code.MaxArgc = len(e.Args)
		}
		cg.emitArg(vm.OpCall, len(e.Args))

	case *parser.PostfixExpr:
		cg.exprRaw(e.X)
		cg.emit(vm.OpDup)
		cg.emit(vm.OpGetValue)
		cg.emit(vm.OpToNumber)
		cg.emit(vm.OpDup)
		cg.emit(vm.OpRoll3) // ref old old -> old ref old
		cg.literal(vm.NumberValue(1))
		if e.Op == "++" {
			cg.emit(vm.OpAdd)
		} else {
			cg.emit(vm.OpSub)
		}
		cg.emit(vm.OpPutValue)

	case *parser.UnaryExpr:
		cg.unary(e)

	case *parser.BinaryExpr:
		cg.binary(e)

	case *parser.CondExpr:
		cg.expr(e.Cond, false)
		cg.emit(vm.OpToBoolean)
		toThen := cg.code.EmitBranch(vm.OpBTrue)
		cg.expr(e.Else, false)
		toEnd := cg.code.EmitBranch(vm.OpBAlways)
		cg.code.Patch(toThen)
		cg.expr(e.Then, false)
		cg.code.Patch(toEnd)

	case *parser.AssignExpr:
		cg.assign(e)

	case *parser.CommaExpr:
		cg.expr(e.L, false)
		cg.emit(vm.OpPop)
		cg.expr(e.R, false)

	case *parser.FuncExpr:
		cg.emitArg(vm.OpFunc, cg.code.AddFunc(funcMaker{fn: e.Fn}))

	default:
		panic("corvid: unknown expression in code generation")
	}
}

func (cg *codegen) unary(e *parser.UnaryExpr) {
	switch e.Op {
	case "delete":
		cg.exprRaw(e.X)
		cg.emit(vm.OpDelete)
	case "void":
		cg.expr(e.X, false)
		cg.emit(vm.OpPop)
		cg.literal(vm.Undefined)
	case "typeof":
		cg.exprRaw(e.X)
		cg.emit(vm.OpTypeof)
	case "++", "--":
		cg.exprRaw(e.X)
		cg.emit(vm.OpDup)
		cg.emit(vm.OpGetValue)
		cg.emit(vm.OpToNumber)
		cg.literal(vm.NumberValue(1))
		if e.Op == "++" {
			cg.emit(vm.OpAdd)
		} else {
			cg.emit(vm.OpSub)
		}
		cg.emit(vm.OpDup)
		cg.emit(vm.OpRoll3) // ref new new -> new ref new
		cg.emit(vm.OpPutValue)
	case "+":
		cg.expr(e.X, false)
		cg.emit(vm.OpToNumber)
	case "-":
		cg.expr(e.X, false)
		cg.emit(vm.OpToNumber)
		cg.emit(vm.OpNeg)
	case "~":
		cg.expr(e.X, false)
		cg.emit(vm.OpInv)
	case "!":
		cg.expr(e.X, false)
		cg.emit(vm.OpToBoolean)
		cg.emit(vm.OpNot)
	default:
		panic("corvid: unknown unary operator in code generation")
	}
}

// binaryOp emits the operator kernel for already-pushed operand values.
func (cg *codegen) binaryOp(op string) {
	switch op {
	case "*":
		cg.emit(vm.OpMul)
	case "/":
		cg.emit(vm.OpDiv)
	case "%":
		cg.emit(vm.OpMod)
	case "+":
		cg.emit(vm.OpAdd)
	case "-":
		cg.emit(vm.OpSub)
	case "<<":
		cg.emit(vm.OpLshift)
	case ">>":
		cg.emit(vm.OpRshift)
	case ">>>":
		cg.emit(vm.OpUrshift)
	case "<":
		cg.emit(vm.OpLT)
	case ">":
		cg.emit(vm.OpGT)
	case "<=":
		cg.emit(vm.OpLE)
	case ">=":
		cg.emit(vm.OpGE)
	case "instanceof":
		cg.emit(vm.OpInstanceof)
	case "in":
		cg.emit(vm.OpIn)
	case "==":
		cg.emit(vm.OpEq)
	case "!=":
		cg.emit(vm.OpEq)
		cg.emit(vm.OpNot)
	case "===":
		cg.emit(vm.OpSeq)
	case "!==":
		cg.emit(vm.OpSeq)
		cg.emit(vm.OpNot)
	case "&":
		cg.emit(vm.OpBand)
	case "^":
		cg.emit(vm.OpBxor)
	case "|":
		cg.emit(vm.OpBor)
	default:
		panic("corvid: unknown binary operator in code generation")
	}
}

// coerceOperand emits the per-operand conversion some kernels expect.
func (cg *codegen) coerceOperand(op string) {
	switch op {
	case "*", "/", "%", "-":
		cg.emit(vm.OpToNumber)
	}
}

func (cg *codegen) binary(e *parser.BinaryExpr) {
	switch e.Op {
	case "&&":
		cg.expr(e.L, false)
		cg.emit(vm.OpDup)
		cg.emit(vm.OpToBoolean)
		toRight := cg.code.EmitBranch(vm.OpBTrue)
		toEnd := cg.code.EmitBranch(vm.OpBAlways)
		cg.code.Patch(toRight)
		cg.emit(vm.OpPop)
		cg.expr(e.R, false)
		cg.code.Patch(toEnd)
		return
	case "||":
		cg.expr(e.L, false)
		cg.emit(vm.OpDup)
		cg.emit(vm.OpToBoolean)
		cg.emit(vm.OpNot)
		toRight := cg.code.EmitBranch(vm.OpBTrue)
		toEnd := cg.code.EmitBranch(vm.OpBAlways)
		cg.code.Patch(toRight)
		cg.emit(vm.OpPop)
		cg.expr(e.R, false)
		cg.code.Patch(toEnd)
		return
	case "in":
		// The kernel wants [str obj] on the stack.
		cg.expr(e.L, false)
		cg.emit(vm.OpToString)
		cg.expr(e.R, false)
		cg.emit(vm.OpIn)
		return
	}

	cg.expr(e.L, false)
	cg.coerceOperand(e.Op)
	cg.expr(e.R, false)
	cg.coerceOperand(e.Op)
	cg.binaryOp(e.Op)
}

func (cg *codegen) assign(e *parser.AssignExpr) {
	cg.exprRaw(e.LHS)
	if e.Op == "=" {
		cg.expr(e.RHS, false)
	} else {
		op := e.Op[:len(e.Op)-1]
		cg.emit(vm.OpDup)
		cg.emit(vm.OpGetValue)
		cg.coerceOperand(op)
		cg.expr(e.RHS, false)
		cg.coerceOperand(op)
		cg.binaryOp(op)
	}
	// [ref val] -> leave val, store through ref.
	cg.emit(vm.OpDup)
	cg.emit(vm.OpRoll3)
	cg.emit(vm.OpPutValue)
}
