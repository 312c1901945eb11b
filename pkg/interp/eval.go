package interp

import (
	"corvid/pkg/lexer"
	"corvid/pkg/parser"
	"corvid/pkg/vm"
)

// The tree-walking evaluator: statements produce completions, expressions
// produce values (possibly references). Exceptions unwind through the
// interpreter's throw primitive; the only local recovery sites are the
// try statement forms.

// EvalBody evaluates a function body (or program body) in ctxt and
// returns its completion: declaration instantiation first, then the
// statements.
func EvalBody(fn *parser.Function, ctxt *vm.Context) vm.Completion {
	return evalBody(fn, ctxt)
}

func evalBody(fn *parser.Function, ctxt *vm.Context) vm.Completion {
	fproc(fn.Body.SE, ctxt)
	if ctxt.Interp.UseBytecode {
		ctxt.Interp.EnterRecursion()
		defer ctxt.Interp.LeaveRecursion()
		code := codeFor(ctxt.Interp, fn, false)
		var res vm.Value
		code.Exec(ctxt, &res)
		return vm.Completion{Type: vm.CmplReturn, Value: &res}
	}
	return evalStmt(fn.Body.SE, ctxt)
}

// EvalProgramBody evaluates a parsed Program, returning the value of its
// last value-producing statement.
func EvalProgramBody(fn *parser.Function, ctxt *vm.Context) vm.Value {
	fproc(fn.Body.SE, ctxt)
	if ctxt.Interp.UseBytecode {
		code := codeFor(ctxt.Interp, fn, true)
		var res vm.Value
		code.Exec(ctxt, &res)
		return res
	}
	cmpl := evalStmt(fn.Body.SE, ctxt)
	if cmpl.Type != vm.CmplNormal {
		ctxt.Interp.ThrowError("program completed abnormally")
	}
	if cmpl.Value == nil {
		return vm.Undefined
	}
	return *cmpl.Value
}

// fproc is declaration instantiation (10.1.3): function declarations
// first, then every declared variable not already bound, as undefined.
func fproc(se *parser.SourceElements, ctxt *vm.Context) {
	i := ctxt.Interp
	for _, fd := range se.Funcs {
		inst := Instantiate(i, fd.Fn, ctxt.Scope)
		ctxt.Variable.Put(i, fd.Fn.Name, vm.ObjectValue(inst), ctxt.VarAttr)
	}
	for _, name := range se.Vars {
		if !ctxt.Variable.HasProperty(i, name) {
			ctxt.Variable.Put(i, name, vm.Undefined, ctxt.VarAttr)
		}
	}
}

// Install wires the evaluator-level hooks into an interpreter. The
// direct-eval hook parses the source as a Program and runs it in the
// borrowed context (10.2.2); under ext1 a receiver other than the global
// object supplies this, the variable object and a scope extension.
func Install(i *vm.Interpreter) {
	i.DirectEval = directEval
}

func setLoc(ctxt *vm.Context, n parser.Node) *vm.Location {
	loc := parser.Location(n)
	return ctxt.Interp.SetLocation(&loc)
}

// --- Statements ---

func evalStmt(n parser.Node, ctxt *vm.Context) vm.Completion {
	i := ctxt.Interp
	i.EnterRecursion()
	defer i.LeaveRecursion()
	old := setLoc(ctxt, n)
	defer i.SetLocation(old)

	switch n := n.(type) {
	case *parser.SourceElements:
		return evalStatements(n.Stmts, ctxt)

	case *parser.FunctionBody:
		// Used directly only by eval bodies; callers normally run fproc
		// through evalBody.
		return evalStmt(n.SE, ctxt)

	case *parser.StatementList:
		return evalStatements(n.Stmts, ctxt)

	case *parser.EmptyStmt:
		return vm.NormalCompletion(nil)

	case *parser.VarStmt:
		for _, d := range n.Decls {
			evalVarDecl(d, ctxt)
		}
		return vm.NormalCompletion(nil)

	case *parser.ExprStmt:
		v := evalExprValue(n.X, ctxt)
		return vm.NormalCompletion(&v)

	case *parser.IfStmt:
		if i.ToBoolean(evalExprValue(n.Cond, ctxt)) {
			return evalStmt(n.Then, ctxt)
		}
		if n.Else != nil {
			return evalStmt(n.Else, ctxt)
		}
		return vm.NormalCompletion(nil)

	case *parser.DoWhileStmt:
		var v *vm.Value
		for {
			res := evalStmt(n.Body, ctxt)
			if res.Value != nil {
				v = res.Value
			}
			if res.Type == vm.CmplBreak && res.Target == parser.Node(n) {
				break
			}
			if res.Type != vm.CmplNormal &&
				!(res.Type == vm.CmplContinue && res.Target == parser.Node(n)) {
				return res
			}
			if !i.ToBoolean(evalExprValue(n.Cond, ctxt)) {
				break
			}
		}
		return vm.NormalCompletion(v)

	case *parser.WhileStmt:
		var v *vm.Value
		for i.ToBoolean(evalExprValue(n.Cond, ctxt)) {
			res := evalStmt(n.Body, ctxt)
			if res.Value != nil {
				v = res.Value
			}
			if res.Type == vm.CmplBreak && res.Target == parser.Node(n) {
				break
			}
			if res.Type == vm.CmplContinue && res.Target == parser.Node(n) {
				continue
			}
			if res.Type != vm.CmplNormal {
				return res
			}
		}
		return vm.NormalCompletion(v)

	case *parser.ForStmt:
		switch init := n.Init.(type) {
		case *parser.VarStmt:
			evalStmt(init, ctxt)
		case parser.Expr:
			evalExprValue(init, ctxt)
		}
		var v *vm.Value
		for {
			if n.Cond != nil && !i.ToBoolean(evalExprValue(n.Cond, ctxt)) {
				break
			}
			res := evalStmt(n.Body, ctxt)
			if res.Value != nil {
				v = res.Value
			}
			if res.Type == vm.CmplBreak && res.Target == parser.Node(n) {
				break
			}
			if res.Type != vm.CmplNormal &&
				!(res.Type == vm.CmplContinue && res.Target == parser.Node(n)) {
				return res
			}
			if n.Incr != nil {
				evalExprValue(n.Incr, ctxt)
			}
		}
		return vm.NormalCompletion(v)

	case *parser.ForInStmt:
		if n.Var != nil {
			evalVarDecl(n.Var, ctxt)
		}
		obj := i.ToObject(evalExprValue(n.List, ctxt))
		var v *vm.Value
		for _, name := range vm.Enumerate(i, obj) {
			// Recheck per step: properties deleted mid-iteration are
			// skipped.
			if !obj.HasProperty(i, name) {
				continue
			}
			var lhs vm.Value
			if n.Var != nil {
				lhs = ctxt.Lookup(n.Var.Name)
			} else {
				lhs = evalExpr(n.LHS, ctxt)
			}
			ctxt.PutValue(lhs, vm.StringValue(name))
			res := evalStmt(n.Body, ctxt)
			if res.Value != nil {
				v = res.Value
			}
			if res.Type == vm.CmplBreak && res.Target == parser.Node(n) {
				break
			}
			if res.Type == vm.CmplContinue && res.Target == parser.Node(n) {
				continue
			}
			if res.Type != vm.CmplNormal {
				return res
			}
		}
		return vm.NormalCompletion(v)

	case *parser.ContinueStmt:
		return vm.Completion{Type: vm.CmplContinue, Target: n.Target}

	case *parser.BreakStmt:
		return vm.Completion{Type: vm.CmplBreak, Target: n.Target}

	case *parser.ReturnStmt:
		v := vm.Undefined
		if n.X != nil {
			v = evalExprValue(n.X, ctxt)
		}
		return vm.Completion{Type: vm.CmplReturn, Value: &v}

	case *parser.WithStmt:
		obj := i.ToObject(evalExprValue(n.X, ctxt))
		saved := ctxt.Scope
		ctxt.Scope = &vm.Scope{Obj: obj, Next: saved}
		var res vm.Completion
		caught := i.Try(func() {
			res = evalStmt(n.Body, ctxt)
		})
		ctxt.Scope = saved
		if caught != nil {
			i.Rethrow(caught)
		}
		return res

	case *parser.SwitchStmt:
		input := evalExprValue(n.Cond, ctxt)
		res := evalCaseBlock(n, ctxt, input)
		if res.Type == vm.CmplBreak && res.Target == parser.Node(n) {
			return vm.NormalCompletion(res.Value)
		}
		return res

	case *parser.ThrowStmt:
		v := evalExprValue(n.X, ctxt)
		i.Throw(v)
		return vm.Completion{}

	case *parser.TryStmt:
		switch {
		case n.Catch != nil && n.Finally != nil:
			return evalTryCatchFinally(n, ctxt)
		case n.Catch != nil:
			return evalTryCatch(n, ctxt)
		default:
			return evalTryFinally(n, ctxt)
		}

	case *parser.FuncDecl:
		// Bound during declaration instantiation; yields nothing here.
		return vm.NormalCompletion(nil)
	}

	i.ThrowError("unknown statement node")
	return vm.Completion{}
}

func evalStatements(stmts []parser.Stmt, ctxt *vm.Context) vm.Completion {
	var v *vm.Value
	for _, s := range stmts {
		res := evalStmt(s, ctxt)
		if res.Value != nil {
			v = res.Value
		}
		if res.Type != vm.CmplNormal {
			if res.Value == nil {
				res.Value = v
			}
			return res
		}
	}
	return vm.NormalCompletion(v)
}

func evalVarDecl(d *parser.VarDecl, ctxt *vm.Context) {
	if d.Init == nil {
		return
	}
	v := evalExprValue(d.Init, ctxt)
	// 12.2: the name resolves through the scope chain, so a with object
	// can capture the assignment.
	ref := ctxt.Lookup(d.Name)
	ctxt.PutValue(ref, v)
}

// evalCaseBlock searches the case clauses in order for a strictly equal
// match, then runs statements from there until an abrupt completion or
// the end; with no match the default clause starts instead (12.11).
func evalCaseBlock(n *parser.SwitchStmt, ctxt *vm.Context, input vm.Value) vm.Completion {
	start := -1
	for idx, c := range n.Cases {
		if c.Expr == nil {
			continue
		}
		cv := evalExprValue(c.Expr, ctxt)
		if vm.StrictEq(input, cv) {
			start = idx
			break
		}
	}
	if start < 0 {
		start = n.Default
	}
	res := vm.NormalCompletion(nil)
	if start < 0 {
		return res
	}
	var v *vm.Value
	for _, c := range n.Cases[start:] {
		if c.Body == nil {
			continue
		}
		res = evalStmt(c.Body, ctxt)
		if res.Value != nil {
			v = res.Value
		}
		if res.Type != vm.CmplNormal {
			if res.Value == nil {
				res.Value = v
			}
			return res
		}
	}
	return vm.NormalCompletion(v)
}

// evalCatch runs the catch block with the thrown value bound in a fresh
// one-property scope. A throw from the catch block itself comes back as a
// throw completion rather than unwinding.
func evalCatch(n *parser.TryStmt, ctxt *vm.Context, thrown vm.Value) vm.Completion {
	i := ctxt.Interp
	shield := vm.NewObject(i)
	shield.Put(i, n.CatchIdent, thrown, vm.AttrDontDelete)
	saved := ctxt.Scope
	ctxt.Scope = &vm.Scope{Obj: shield, Next: saved}
	var res vm.Completion
	caught := i.Try(func() {
		res = evalStmt(n.Catch, ctxt)
	})
	ctxt.Scope = saved
	if caught != nil {
		v := caught.Value
		res = vm.Completion{Type: vm.CmplThrow, Value: &v}
	}
	return res
}

func evalTryCatch(n *parser.TryStmt, ctxt *vm.Context) vm.Completion {
	i := ctxt.Interp
	var res vm.Completion
	caught := i.Try(func() {
		res = evalStmt(n.Block, ctxt)
	})
	if caught != nil {
		res = evalCatch(n, ctxt, caught.Value)
	}
	if res.Type == vm.CmplThrow {
		i.Throw(*res.Value)
	}
	return res
}

func evalTryFinally(n *parser.TryStmt, ctxt *vm.Context) vm.Completion {
	i := ctxt.Interp
	var res vm.Completion
	caught := i.Try(func() {
		res = evalStmt(n.Block, ctxt)
	})
	if caught != nil {
		v := caught.Value
		res = vm.Completion{Type: vm.CmplThrow, Value: &v}
	}
	fin := evalStmt(n.Finally, ctxt)
	if fin.Type != vm.CmplNormal {
		res = fin
	}
	if res.Type == vm.CmplThrow {
		i.Throw(*res.Value)
	}
	return res
}

func evalTryCatchFinally(n *parser.TryStmt, ctxt *vm.Context) vm.Completion {
	i := ctxt.Interp
	var res vm.Completion
	caught := i.Try(func() {
		res = evalStmt(n.Block, ctxt)
	})
	if caught != nil {
		v := caught.Value
		res = vm.Completion{Type: vm.CmplThrow, Value: &v}
	}

	if res.Type == vm.CmplThrow {
		c := evalCatch(n, ctxt, *res.Value)
		if c.Type != vm.CmplNormal {
			res = c
		}
	}

	var fin vm.Completion
	caught2 := i.Try(func() {
		fin = evalStmt(n.Finally, ctxt)
	})
	if caught2 != nil {
		v := caught2.Value
		fin = vm.Completion{Type: vm.CmplThrow, Value: &v}
	}
	if fin.Type != vm.CmplNormal {
		res = fin
	}
	if res.Type == vm.CmplThrow {
		i.Throw(*res.Value)
	}
	return res
}

// --- Expressions ---

// evalExprValue evaluates and dereferences.
func evalExprValue(n parser.Expr, ctxt *vm.Context) vm.Value {
	return ctxt.GetValue(evalExpr(n, ctxt))
}

// evalExpr evaluates an expression; the result may be a reference.
func evalExpr(n parser.Expr, ctxt *vm.Context) vm.Value {
	b := n.Base()
	if b.Folded != nil {
		return *b.Folded
	}
	if isConst(ctxt.Interp, n) {
		v := evalExprRaw(n, ctxt)
		b.Folded = &v
		return v
	}
	return evalExprRaw(n, ctxt)
}

func evalExprRaw(n parser.Expr, ctxt *vm.Context) vm.Value {
	i := ctxt.Interp

	switch n := n.(type) {
	case *parser.Literal:
		return n.Value

	case *parser.RegexLiteral:
		// The scanner delivers "/pattern/flags"; split and hand both to
		// the RegExp constructor.
		src := n.Source
		end := src.Length() - 1
		for end > 0 && src.At(end) != '/' {
			end--
		}
		pattern := src.Substr(i, 1, end-1)
		flags := src.Substr(i, end+1, src.Length()-end-1)
		ctor, ok := i.RegExp.(vm.Constructor)
		if !ok {
			i.ThrowTypeError("RegExp constructor unavailable")
		}
		obj := ctor.Construct(i, []vm.Value{
			vm.StringValue(pattern), vm.StringValue(flags),
		})
		return vm.ObjectValue(obj)

	case *parser.ThisExpr:
		return vm.ObjectValue(ctxt.This)

	case *parser.IdentExpr:
		return ctxt.Lookup(n.Name)

	case *parser.ArrayLit:
		ctor, ok := i.Array.(vm.Constructor)
		if !ok {
			i.ThrowTypeError("Array constructor unavailable")
		}
		arr := ctor.Construct(i, nil)
		for _, item := range n.Items {
			name := i.Intern(vm.NumberToString(i, float64(item.Index)))
			arr.Put(i, name, evalExprValue(item.Value, ctxt), 0)
		}
		arr.Put(i, vm.StrLength, vm.NumberValue(float64(n.Length)), 0)
		return vm.ObjectValue(arr)

	case *parser.ObjectLit:
		obj := vm.NewObject(i)
		for _, prop := range n.Props {
			obj.Put(i, prop.Name, evalExprValue(prop.Value, ctxt), 0)
		}
		return vm.ObjectValue(obj)

	case *parser.NewExpr:
		fn := evalExprValue(n.Fn, ctxt)
		args := make([]vm.Value, len(n.Args))
		for idx, a := range n.Args {
			args[idx] = evalExprValue(a, ctxt)
		}
		if fn.Type == vm.TypeUndefined {
			i.ThrowTypeError("undefined is not a constructor")
		}
		if fn.Type != vm.TypeObject {
			i.ThrowTypeError("value is not an object")
		}
		ctor, ok := fn.Object().(vm.Constructor)
		if !ok {
			i.ThrowTypeError("object is not a constructor")
		}
		loc := parser.Location(n)
		old := i.TracebackEnter(fn.Object(), &loc, vm.CallTypeConstruct)
		obj := ctor.Construct(i, args)
		i.TracebackLeave(old)
		return vm.ObjectValue(obj)

	case *parser.DotExpr:
		x := evalExprValue(n.X, ctxt)
		obj := i.ToObject(x)
		return vm.ReferenceValue(obj, i.Intern(n.Name))

	case *parser.IndexExpr:
		x := evalExprValue(n.X, ctxt)
		idx := evalExprValue(n.Index, ctxt)
		obj := i.ToObject(x)
		name := i.Intern(i.ToString(idx))
		return vm.ReferenceValue(obj, name)

	case *parser.CallExpr:
		ref := evalExpr(n.Fn, ctxt)
		args := make([]vm.Value, len(n.Args))
		for idx, a := range n.Args {
			args[idx] = evalExprValue(a, ctxt)
		}

		var baseObj vm.Object
		fn := ref
		if ref.Type == vm.TypeReference {
			baseObj = ref.Ref().Base
			if baseObj != nil && baseObj.Class() == vm.ClassActivation {
				baseObj = nil
			}
			fn = ctxt.GetValue(ref)
		}
		if fn.Type == vm.TypeUndefined {
			i.ThrowTypeError("undefined is not a function")
		}
		if fn.Type != vm.TypeObject {
			i.ThrowTypeError("value is not a function")
		}
		callee, ok := fn.Object().(vm.Callable)
		if !ok {
			i.ThrowTypeError("object is not callable")
		}

		loc := parser.Location(n)
		old := i.TracebackEnter(fn.Object(), &loc, vm.CallTypeCall)
		var res vm.Value
		if i.GlobalEval != nil && fn.Object() == i.GlobalEval {
			switch {
			case len(args) == 0:
				res = vm.Undefined
			case args[0].Type != vm.TypeString:
				res = args[0]
			default:
				res = directEval(ctxt, baseObj, args[0].Str())
			}
		} else {
			res = callee.Call(i, baseObj, args)
		}
		i.TracebackLeave(old)
		return res

	case *parser.PostfixExpr:
		ref := evalExpr(n.X, ctxt)
		oldv := i.ToNumber(ctxt.GetValue(ref))
		delta := 1.0
		if n.Op == "--" {
			delta = -1
		}
		ctxt.PutValue(ref, vm.NumberValue(oldv+delta))
		return vm.NumberValue(oldv)

	case *parser.UnaryExpr:
		return evalUnary(n, ctxt)

	case *parser.BinaryExpr:
		return evalBinary(n, ctxt)

	case *parser.CondExpr:
		if i.ToBoolean(evalExprValue(n.Cond, ctxt)) {
			return evalExprValue(n.Then, ctxt)
		}
		return evalExprValue(n.Else, ctxt)

	case *parser.AssignExpr:
		return evalAssign(n, ctxt)

	case *parser.CommaExpr:
		evalExprValue(n.L, ctxt)
		return evalExprValue(n.R, ctxt)

	case *parser.FuncExpr:
		if n.Fn.Name == nil {
			return vm.ObjectValue(Instantiate(i, n.Fn, ctxt.Scope))
		}
		// A named function expression can call itself: wrap the creation
		// scope in a single step binding the name (13).
		shield := vm.NewObject(i)
		scope := &vm.Scope{Obj: shield, Next: ctxt.Scope}
		inst := Instantiate(i, n.Fn, scope)
		shield.Put(i, n.Fn.Name, vm.ObjectValue(inst),
			vm.AttrDontDelete|vm.AttrReadOnly)
		return vm.ObjectValue(inst)
	}

	i.ThrowError("unknown expression node")
	return vm.Undefined
}

func evalUnary(n *parser.UnaryExpr, ctxt *vm.Context) vm.Value {
	i := ctxt.Interp
	switch n.Op {
	case "delete":
		v := evalExpr(n.X, ctxt)
		if v.Type != vm.TypeReference {
			return vm.True
		}
		ref := v.Ref()
		if ref.Base == nil {
			return vm.True
		}
		return vm.BooleanValue(ref.Base.Delete(i, ref.Prop))
	case "void":
		evalExprValue(n.X, ctxt)
		return vm.Undefined
	case "typeof":
		v := evalExpr(n.X, ctxt)
		if v.Type == vm.TypeReference && v.Ref().Base == nil {
			return vm.StringValue(vm.TypeofValue(vm.Undefined))
		}
		return vm.StringValue(vm.TypeofValue(ctxt.GetValue(v)))
	case "++", "--":
		ref := evalExpr(n.X, ctxt)
		oldv := i.ToNumber(ctxt.GetValue(ref))
		delta := 1.0
		if n.Op == "--" {
			delta = -1
		}
		nv := vm.NumberValue(oldv + delta)
		ctxt.PutValue(ref, nv)
		return nv
	case "+":
		return vm.NumberValue(i.ToNumber(evalExprValue(n.X, ctxt)))
	case "-":
		return vm.NumberValue(-i.ToNumber(evalExprValue(n.X, ctxt)))
	case "~":
		return vm.NumberValue(float64(^i.ToInt32(evalExprValue(n.X, ctxt))))
	case "!":
		return vm.BooleanValue(!i.ToBoolean(evalExprValue(n.X, ctxt)))
	}
	i.ThrowError("unknown unary operator")
	return vm.Undefined
}

func evalBinary(n *parser.BinaryExpr, ctxt *vm.Context) vm.Value {
	i := ctxt.Interp

	// The logical forms short-circuit; everything else evaluates both
	// operands left to right.
	switch n.Op {
	case "&&":
		l := evalExprValue(n.L, ctxt)
		if !i.ToBoolean(l) {
			return l
		}
		return evalExprValue(n.R, ctxt)
	case "||":
		l := evalExprValue(n.L, ctxt)
		if i.ToBoolean(l) {
			return l
		}
		return evalExprValue(n.R, ctxt)
	}

	l := evalExprValue(n.L, ctxt)
	r := evalExprValue(n.R, ctxt)
	return applyBinary(i, n.Op, l, r)
}

// applyBinary applies a non-short-circuit binary operator to evaluated
// operands; shared with compound assignment.
func applyBinary(i *vm.Interpreter, op string, l, r vm.Value) vm.Value {
	switch op {
	case "*":
		return vm.NumberValue(i.ToNumber(l) * i.ToNumber(r))
	case "/":
		return vm.NumberValue(i.ToNumber(l) / i.ToNumber(r))
	case "%":
		return vm.NumberValue(vm.NumberMod(i.ToNumber(l), i.ToNumber(r)))
	case "+":
		return vm.Add(i, l, r)
	case "-":
		return vm.NumberValue(i.ToNumber(l) - i.ToNumber(r))
	case "<<":
		return vm.NumberValue(float64(i.ToInt32(l) << (i.ToUint32(r) & 0x1f)))
	case ">>":
		return vm.NumberValue(float64(i.ToInt32(l) >> (i.ToUint32(r) & 0x1f)))
	case ">>>":
		return vm.NumberValue(float64(i.ToUint32(l) >> (i.ToUint32(r) & 0x1f)))
	case "<":
		res := vm.Compare(i, l, r)
		if res.Type == vm.TypeUndefined {
			return vm.False
		}
		return res
	case ">":
		res := vm.Compare(i, r, l)
		if res.Type == vm.TypeUndefined {
			return vm.False
		}
		return res
	case "<=":
		res := vm.Compare(i, r, l)
		if res.Type == vm.TypeUndefined {
			return vm.False
		}
		return vm.BooleanValue(!res.Bool())
	case ">=":
		res := vm.Compare(i, l, r)
		if res.Type == vm.TypeUndefined {
			return vm.False
		}
		return vm.BooleanValue(!res.Bool())
	case "instanceof":
		return vm.BooleanValue(vm.Instanceof(i, l, r))
	case "in":
		return vm.BooleanValue(vm.In(i, l, r))
	case "==":
		return vm.BooleanValue(vm.Eq(i, l, r))
	case "!=":
		return vm.BooleanValue(!vm.Eq(i, l, r))
	case "===":
		return vm.BooleanValue(vm.StrictEq(l, r))
	case "!==":
		return vm.BooleanValue(!vm.StrictEq(l, r))
	case "&":
		return vm.NumberValue(float64(i.ToInt32(l) & i.ToInt32(r)))
	case "^":
		return vm.NumberValue(float64(i.ToInt32(l) ^ i.ToInt32(r)))
	case "|":
		return vm.NumberValue(float64(i.ToInt32(l) | i.ToInt32(r)))
	}
	i.ThrowError("unknown binary operator")
	return vm.Undefined
}

func evalAssign(n *parser.AssignExpr, ctxt *vm.Context) vm.Value {
	ref := evalExpr(n.LHS, ctxt)
	var v vm.Value
	if n.Op == "=" {
		v = evalExprValue(n.RHS, ctxt)
	} else {
		l := ctxt.GetValue(ref)
		r := evalExprValue(n.RHS, ctxt)
		v = applyBinary(ctxt.Interp, n.Op[:len(n.Op)-1], l, r)
	}
	ctxt.PutValue(ref, v)
	return v
}

// --- Direct eval (15.1.2.1 / 10.2.2) ---

func directEval(ctxt *vm.Context, thisobj vm.Object, src *vm.String) vm.Value {
	i := ctxt.Interp

	input := lexer.FromRunes([]rune(src.String()), "<eval>")
	fn, err := parser.ParseProgram(i, input)
	if err != nil {
		i.ThrowSyntaxError(err.Error())
	}

	evalCtxt := &vm.Context{
		Interp:     i,
		Scope:      ctxt.Scope,
		Variable:   ctxt.Variable,
		This:       ctxt.This,
		VarAttr:    0,
		Activation: ctxt.Activation,
	}

	if i.Compat&vm.CompatExt1 != 0 && thisobj != nil && thisobj != i.Global {
		// eval called through a receiver: it supplies this, the variable
		// object and a scope extension.
		evalCtxt.This = thisobj
		evalCtxt.Variable = thisobj
		evalCtxt.Scope = &vm.Scope{Obj: thisobj, Next: ctxt.Scope}
	}

	return EvalProgramBody(fn, evalCtxt)
}
