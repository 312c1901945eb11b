package vm

import "fmt"

// The stack machine executing a Code stream. Semantics match the tree
// walker instruction for instruction; see bytecode.go for the per-opcode
// stack effects.

type blockType uint8

const (
	blockEnum blockType = iota
	blockWith
	blockTryC
	blockTryF
	blockFinally
)

// enumCtx is the E register: a snapshot of enumerable names plus the
// object they came from, linked to the saved outer enumeration.
type enumCtx struct {
	props []*String
	idx   int
	obj   Object
	prev  *enumCtx
}

type mblock struct {
	typ     blockType
	enum    *enumCtx // blockEnum: the enumeration it owns
	saved   *Scope   // blockWith: scope to restore
	handler int      // blockTryC/blockTryF: handler address
	stack   int      // blockTryC/blockTryF: value-stack depth to restore
	ident   *String  // blockTryC: catch identifier
	pending *Thrown  // blockFinally: exception to re-raise
	target  int      // blockFinally: block level to keep unwinding to
	resume  int      // blockFinally: saved PC to continue at
}

type machine struct {
	code   *Code
	ctxt   *Context
	interp *Interpreter

	stack  []Value
	blocks []mblock
	scope  *Scope
	enum   *enumCtx

	c      Value // completion register
	loc    *Location
	pc     int
	resume int // pc to continue at once unwinding completes

	done bool
}

// Exec runs the code stream in the given context, leaving the final
// completion value in res. Script throws with no handler in this frame
// propagate to the caller.
func (c *Code) Exec(ctxt *Context, res *Value) {
	m := &machine{
		code:   c,
		ctxt:   ctxt,
		interp: ctxt.Interp,
		scope:  ctxt.Scope,
		c:      Undefined,
	}
	if c.MaxStack > 0 {
		m.stack = make([]Value, 0, c.MaxStack)
	}
	for !m.done {
		m.runProtected()
	}
	*res = m.c
}

func (m *machine) push(v Value) { m.stack = append(m.stack, v) }

func (m *machine) pop() Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *machine) top() *Value { return &m.stack[len(m.stack)-1] }

// runProtected executes instructions until the function completes or a
// throw unwinds to a handler installed by this frame.
func (m *machine) runProtected() {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		t, ok := r.(*Thrown)
		if !ok {
			panic(r)
		}
		if !m.dispatchThrow(t) {
			panic(t)
		}
	}()
	m.run()
}

// dispatchThrow finds the innermost try block, cleans up the blocks above
// it and redirects control. Returns false when this frame has no handler.
func (m *machine) dispatchThrow(t *Thrown) bool {
	bi := -1
	for idx := len(m.blocks) - 1; idx >= 0; idx-- {
		typ := m.blocks[idx].typ
		if typ == blockTryC || typ == blockTryF {
			bi = idx
			break
		}
	}
	if bi < 0 {
		return false
	}

	// Unwind the enum/with/finally blocks sitting above the handler.
	for len(m.blocks) > bi+1 {
		blk := &m.blocks[len(m.blocks)-1]
		switch blk.typ {
		case blockEnum:
			m.enum = blk.enum.prev
		case blockWith:
			m.scope = blk.saved
		case blockFinally:
			// A throw during a finally body discards its pending
			// completion; the new exception wins.
		}
		m.blocks = m.blocks[:len(m.blocks)-1]
	}

	blk := m.blocks[bi]
	m.stack = m.stack[:blk.stack]
	switch blk.typ {
	case blockTryC:
		shield := NewObject(m.interp)
		shield.Put(m.interp, blk.ident, t.Value, AttrDontDelete)
		m.scope = &Scope{Obj: shield, Next: m.scope}
		m.blocks[bi] = mblock{typ: blockWith, saved: m.scope.Next}
		m.pc = blk.handler
	case blockTryF:
		m.blocks[bi] = mblock{
			typ:     blockFinally,
			pending: t,
			target:  bi + 1,
			resume:  m.pc,
		}
		m.pc = blk.handler
	}
	return true
}

// unwind ends blocks number target..count (1-based), firing each ended
// block's side effect; target 0 additionally ends the frame once the
// stack is empty. It returns true when control was redirected (a finally
// handler or a block conversion set a new pc) and false when unwinding
// ran to completion, in which case the machine continues at m.resume.
func (m *machine) unwind(target int) (redirected bool) {
	for target <= len(m.blocks) {
		if len(m.blocks) == 0 {
			m.done = true
			return false
		}
		blk := m.blocks[len(m.blocks)-1]
		m.blocks = m.blocks[:len(m.blocks)-1]
		switch blk.typ {
		case blockEnum:
			m.enum = blk.enum.prev
		case blockWith:
			m.scope = blk.saved
		case blockTryC:
			// No exception reached the handler; just uninstall.
		case blockTryF:
			// Run the finally handler, then resume unwinding toward
			// the original target.
			m.blocks = append(m.blocks, mblock{
				typ:    blockFinally,
				target: target,
				resume: m.resume,
			})
			m.stack = m.stack[:blk.stack]
			m.pc = blk.handler
			return true
		case blockFinally:
			if blk.pending != nil {
				m.interp.Rethrow(blk.pending)
			}
			target = blk.target
			m.resume = blk.resume
		}
	}
	m.pc = m.resume
	return false
}

func (m *machine) run() {
	i := m.interp
	code := m.code
	for {
		in := code.Instrs[m.pc]
		m.pc++

		switch in.Op {
		case OpNop:

		case OpDup:
			m.push(*m.top())

		case OpPop:
			m.pop()

		case OpExch:
			s := m.stack
			n := len(s)
			s[n-1], s[n-2] = s[n-2], s[n-1]

		case OpRoll3:
			s := m.stack
			n := len(s)
			s[n-1], s[n-2], s[n-3] = s[n-2], s[n-3], s[n-1]

		case OpThrow:
			v := m.pop()
			i.Throw(v)

		case OpSetC:
			m.c = m.pop()

		case OpGetC:
			m.push(m.c)

		case OpThis:
			m.push(ObjectValue(m.ctxt.This))

		case OpObject:
			m.push(ObjectValue(i.ObjectCtor))

		case OpArray:
			m.push(ObjectValue(i.Array))

		case OpRegexp:
			m.push(ObjectValue(i.RegExp))

		case OpRef:
			name := m.pop()
			base := m.top()
			*base = ReferenceValue(base.Object(), i.Intern(name.Str()))

		case OpGetValue:
			top := m.top()
			*top = m.lookupContext().GetValue(*top)

		case OpLookup:
			top := m.top()
			*top = m.lookupContext().Lookup(top.Str())

		case OpPutValue:
			v := m.pop()
			ref := m.pop()
			m.lookupContext().PutValue(ref, v)

		case OpVar:
			m.push(ReferenceValue(m.ctxt.Variable, code.VarNames[in.Arg]))

		case OpPutVar:
			v := m.pop()
			m.ctxt.Variable.Put(i, code.VarNames[in.Arg], v, 0)

		case OpDelete:
			top := m.top()
			if top.Type == TypeReference {
				ref := top.Ref()
				*top = BooleanValue(ref.Base == nil || ref.Base.Delete(i, ref.Prop))
			} else {
				*top = True
			}

		case OpTypeof:
			top := m.top()
			if top.Type == TypeReference && top.Ref().Base == nil {
				*top = StringValue(strUndefined)
			} else {
				*top = StringValue(TypeofValue(m.lookupContext().GetValue(*top)))
			}

		case OpToObject:
			top := m.top()
			if top.Type != TypeObject {
				*top = ObjectValue(i.ToObject(*top))
			}

		case OpToNumber:
			top := m.top()
			if top.Type != TypeNumber {
				*top = NumberValue(i.ToNumber(*top))
			}

		case OpToBoolean:
			top := m.top()
			if top.Type != TypeBoolean {
				*top = BooleanValue(i.ToBoolean(*top))
			}

		case OpToString:
			top := m.top()
			if top.Type != TypeString {
				*top = StringValue(i.ToString(*top))
			}

		case OpToPrimitive:
			top := m.top()
			if top.Type == TypeObject {
				*top = i.ToPrimitive(*top, HintNone)
			}

		case OpNeg:
			top := m.top()
			*top = NumberValue(-top.Number())

		case OpInv:
			top := m.top()
			*top = NumberValue(float64(^i.ToInt32(*top)))

		case OpNot:
			top := m.top()
			*top = BooleanValue(!top.Bool())

		case OpMul:
			y := m.pop()
			top := m.top()
			*top = NumberValue(top.Number() * y.Number())

		case OpDiv:
			y := m.pop()
			top := m.top()
			*top = NumberValue(top.Number() / y.Number())

		case OpMod:
			y := m.pop()
			top := m.top()
			*top = NumberValue(numberMod(top.Number(), y.Number()))

		case OpAdd:
			y := m.pop()
			top := m.top()
			*top = Add(i, *top, y)

		case OpSub:
			y := m.pop()
			top := m.top()
			*top = NumberValue(top.Number() - y.Number())

		case OpLshift:
			y := m.pop()
			top := m.top()
			*top = NumberValue(float64(i.ToInt32(*top) << (i.ToUint32(y) & 0x1f)))

		case OpRshift:
			y := m.pop()
			top := m.top()
			*top = NumberValue(float64(i.ToInt32(*top) >> (i.ToUint32(y) & 0x1f)))

		case OpUrshift:
			y := m.pop()
			top := m.top()
			*top = NumberValue(float64(i.ToUint32(*top) >> (i.ToUint32(y) & 0x1f)))

		case OpLT:
			y := m.pop()
			top := m.top()
			r := Compare(i, *top, y)
			if r.Type == TypeUndefined {
				r = False
			}
			*top = r

		case OpGT:
			y := m.pop()
			top := m.top()
			r := Compare(i, y, *top)
			if r.Type == TypeUndefined {
				r = False
			}
			*top = r

		case OpLE:
			y := m.pop()
			top := m.top()
			r := Compare(i, y, *top)
			if r.Type == TypeUndefined {
				r = False
			} else {
				r = BooleanValue(!r.Bool())
			}
			*top = r

		case OpGE:
			y := m.pop()
			top := m.top()
			r := Compare(i, *top, y)
			if r.Type == TypeUndefined {
				r = False
			} else {
				r = BooleanValue(!r.Bool())
			}
			*top = r

		case OpInstanceof:
			y := m.pop()
			top := m.top()
			*top = BooleanValue(Instanceof(i, *top, y))

		case OpIn:
			y := m.pop()
			top := m.top()
			*top = BooleanValue(In(i, *top, y))

		case OpEq:
			y := m.pop()
			top := m.top()
			*top = BooleanValue(Eq(i, *top, y))

		case OpSeq:
			y := m.pop()
			top := m.top()
			*top = BooleanValue(StrictEq(*top, y))

		case OpBand:
			y := m.pop()
			top := m.top()
			*top = NumberValue(float64(i.ToInt32(*top) & i.ToInt32(y)))

		case OpBxor:
			y := m.pop()
			top := m.top()
			*top = NumberValue(float64(i.ToInt32(*top) ^ i.ToInt32(y)))

		case OpBor:
			y := m.pop()
			top := m.top()
			*top = NumberValue(float64(i.ToInt32(*top) | i.ToInt32(y)))

		case OpSEnum:
			obj := m.pop().Object()
			m.enum = &enumCtx{props: Enumerate(i, obj), obj: obj, prev: m.enum}
			m.blocks = append(m.blocks, mblock{typ: blockEnum, enum: m.enum})

		case OpSWith:
			obj := m.pop().Object()
			m.blocks = append(m.blocks, mblock{typ: blockWith, saved: m.scope})
			m.scope = &Scope{Obj: obj, Next: m.scope}

		case OpNew:
			argc := int(in.Arg)
			args := m.takeArgs(argc)
			fn := m.pop()
			if fn.Type == TypeUndefined {
				i.ThrowTypeError("undefined is not a constructor")
			}
			if fn.Type != TypeObject {
				i.ThrowTypeError("value is not an object")
			}
			ctor, ok := fn.Object().(Constructor)
			if !ok {
				i.ThrowTypeError("object is not a constructor")
			}
			old := i.TracebackEnter(fn.Object(), m.loc, CallTypeConstruct)
			obj := ctor.Construct(i, args)
			i.TracebackLeave(old)
			m.push(ObjectValue(obj))

		case OpCall:
			argc := int(in.Arg)
			args := m.takeArgs(argc)
			callee := m.top()

			var baseObj Object
			if callee.Type == TypeReference {
				baseObj = callee.Ref().Base
				if baseObj != nil && baseObj.Class() == ClassActivation {
					baseObj = nil
				}
				*callee = m.lookupContext().GetValue(*callee)
			}
			if callee.Type == TypeUndefined {
				i.ThrowTypeError("undefined is not a function")
			}
			if callee.Type != TypeObject {
				i.ThrowTypeError("value is not a function")
			}
			fn, ok := callee.Object().(Callable)
			if !ok {
				i.ThrowTypeError("object is not callable")
			}
			old := i.TracebackEnter(callee.Object(), m.loc, CallTypeCall)
			var r Value
			if i.GlobalEval != nil && callee.Object() == i.GlobalEval && i.DirectEval != nil {
				// A direct call to eval borrows this context, with the
				// machine's current scope chain.
				ctxt2 := *m.ctxt
				ctxt2.Scope = m.scope
				switch {
				case argc == 0:
					r = Undefined
				case args[0].Type != TypeString:
					r = args[0]
				default:
					r = i.DirectEval(&ctxt2, baseObj, args[0].Str())
				}
			} else {
				r = fn.Call(i, baseObj, args)
			}
			i.TracebackLeave(old)
			*callee = r

		case OpEnd:
			m.resume = m.pc
			m.unwind(int(in.Arg))
			if m.done {
				return
			}

		case OpBAlways:
			m.pc = int(in.Arg)

		case OpBTrue:
			if m.pop().Bool() {
				m.pc = int(in.Arg)
			}

		case OpBEnum:
			e := m.enum
			for e.idx < len(e.props) && !e.obj.HasProperty(i, e.props[e.idx]) {
				e.idx++
			}
			if e.idx < len(e.props) {
				m.push(StringValue(e.props[e.idx]))
				e.idx++
				m.pc = int(in.Arg)
			}

		case OpSTryC:
			ident := m.pop().Str()
			m.blocks = append(m.blocks, mblock{
				typ:     blockTryC,
				handler: int(in.Arg),
				stack:   len(m.stack),
				ident:   i.Intern(ident),
			})

		case OpSTryF:
			m.blocks = append(m.blocks, mblock{
				typ:     blockTryF,
				handler: int(in.Arg),
				stack:   len(m.stack),
			})

		case OpFunc:
			m.push(ObjectValue(code.Funcs[in.Arg].Instantiate(i, m.scope)))

		case OpLiteral:
			m.push(code.Literals[in.Arg])

		case OpLoc:
			loc := &code.Locations[in.Arg]
			m.loc = loc
			i.SetLocation(loc)

		default:
			panic(fmt.Sprintf("corvid: bad instruction %s at %d", in.Op, m.pc-1))
		}
	}
}

// takeArgs pops argc arguments preserving their push order.
func (m *machine) takeArgs(argc int) []Value {
	if argc == 0 {
		return nil
	}
	base := len(m.stack) - argc
	args := make([]Value, argc)
	copy(args, m.stack[base:])
	m.stack = m.stack[:base]
	return args
}

// lookupContext is the machine's context with its live scope chain (the
// with and catch blocks mutate the machine's copy, not the caller's).
func (m *machine) lookupContext() *Context {
	ctxt := *m.ctxt
	ctxt.Scope = m.scope
	return &ctxt
}
