package vm

import (
	"fmt"
	"math"
	"strings"
)

// The bytecode back-end. A Code object is a linear instruction stream
// plus its literal, function, variable-name and location tables. The
// machine (machine.go) executes it with a bounded value stack, a bounded
// block stack, the completion register C, the location register L and the
// enumeration register E.
//
// Stack effects are noted as "pops | pushes" next to each opcode.

// Op is a bytecode operation.
type Op uint8

const (
	// Operand-less group.
	OpNop         Op = iota // - | -
	OpDup                   // val | val val
	OpPop                   // val | -
	OpExch                  // a b | b a
	OpRoll3                 // a b c | c a b
	OpThrow                 // val | - ; raises
	OpSetC                  // val | - ; C = val
	OpGetC                  // - | val ; pushes C
	OpThis                  // - | obj
	OpObject                // - | obj ; pushes the Object constructor
	OpArray                 // - | obj ; pushes the Array constructor
	OpRegexp                // - | obj ; pushes the RegExp constructor
	OpRef                   // obj str | ref
	OpGetValue              // ref | val ; may raise ReferenceError
	OpLookup                // str | ref ; scope-chain lookup
	OpPutValue              // ref val | - ; may raise ReferenceError
	OpDelete                // any | bool
	OpTypeof                // any | str
	OpToObject              // val | obj ; may raise TypeError
	OpToNumber              // val | num
	OpToBoolean             // val | bool
	OpToString              // val | str
	OpToPrimitive           // val | prim
	OpNeg                   // num | num
	OpInv                   // val | num ; ~ToInt32
	OpNot                   // bool | bool
	OpMul                   // num num | num
	OpDiv                   // num num | num
	OpMod                   // num num | num
	OpAdd                   // prim prim | num-or-str
	OpSub                   // num num | num
	OpLshift                // val val | num
	OpRshift                // val val | num
	OpUrshift               // val val | num
	OpLT                    // x y | bool
	OpGT                    // x y | bool
	OpLE                    // x y | bool
	OpGE                    // x y | bool
	OpInstanceof            // val val | bool ; may raise TypeError
	OpIn                    // str val | bool ; may raise TypeError
	OpEq                    // val val | bool
	OpSeq                   // val val | bool
	OpBand                  // val val | num
	OpBxor                  // val val | num
	OpBor                   // val val | num

	// Block starters.
	OpSEnum // obj | - ; saves E, starts enumeration block
	OpSWith // obj | - ; prepends scope, starts with block

	// One integer operand.
	OpNew  // obj arg0..argn-1 | obj
	OpCall // ref arg0..argn-1 | val
	OpEnd  // - | - ; ends blocks arg..count with side effects; arg 0 ends the frame

	// One address operand.
	OpBAlways // - | -
	OpBTrue   // bool | -
	OpBEnum   // - | str? ; pushes next name and branches while E has more
	OpSTryC   // str | - ; installs a try/catch block with handler arg
	OpSTryF   // - | - ; installs a try/finally block with handler arg

	// One table-index operand.
	OpFunc    // - | obj ; instantiates function table entry in current scope
	OpLiteral // - | val
	OpLoc     // - | - ; L = location table entry
	OpVar     // - | ref ; reference to the variable object under var name
	OpPutVar  // val | - ; store to the variable object under var name
)

var opNames = [...]string{
	OpNop: "NOP", OpDup: "DUP", OpPop: "POP", OpExch: "EXCH", OpRoll3: "ROLL3",
	OpThrow: "THROW", OpSetC: "SETC", OpGetC: "GETC", OpThis: "THIS",
	OpObject: "OBJECT", OpArray: "ARRAY", OpRegexp: "REGEXP", OpRef: "REF",
	OpGetValue: "GETVALUE", OpLookup: "LOOKUP", OpPutValue: "PUTVALUE",
	OpDelete: "DELETE", OpTypeof: "TYPEOF", OpToObject: "TOOBJECT",
	OpToNumber: "TONUMBER", OpToBoolean: "TOBOOLEAN", OpToString: "TOSTRING",
	OpToPrimitive: "TOPRIMITIVE", OpNeg: "NEG", OpInv: "INV", OpNot: "NOT",
	OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD", OpAdd: "ADD", OpSub: "SUB",
	OpLshift: "LSHIFT", OpRshift: "RSHIFT", OpUrshift: "URSHIFT",
	OpLT: "LT", OpGT: "GT", OpLE: "LE", OpGE: "GE",
	OpInstanceof: "INSTANCEOF", OpIn: "IN", OpEq: "EQ", OpSeq: "SEQ",
	OpBand: "BAND", OpBxor: "BXOR", OpBor: "BOR",
	OpSEnum: "S_ENUM", OpSWith: "S_WITH",
	OpNew: "NEW", OpCall: "CALL", OpEnd: "END",
	OpBAlways: "B_ALWAYS", OpBTrue: "B_TRUE", OpBEnum: "B_ENUM",
	OpSTryC: "S_TRYC", OpSTryF: "S_TRYF",
	OpFunc: "FUNC", OpLiteral: "LITERAL", OpLoc: "LOC",
	OpVar: "VAR", OpPutVar: "PUTVAR",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("OP(%d)", int(op))
}

// HasArg reports whether the operation carries an operand.
func (op Op) HasArg() bool { return op >= OpNew }

// Instr is one decoded instruction.
type Instr struct {
	Op  Op
	Arg int32
}

// FuncMaker instantiates a compiled function in a scope; implemented by
// the evaluator's function records so the machine stays parser-free.
type FuncMaker interface {
	Instantiate(i *Interpreter, scope *Scope) Object
}

// Code is a closed instruction stream ready for execution.
type Code struct {
	Interp    *Interpreter
	Instrs    []Instr
	Literals  []Value
	Funcs     []FuncMaker
	Locations []Location
	VarNames  []*String

	MaxStack int
	MaxBlock int
	MaxArgc  int
}

// NewCode returns an empty code stream for generation.
func NewCode(i *Interpreter) *Code {
	return &Code{Interp: i}
}

// Emit appends an operand-less instruction.
func (c *Code) Emit(op Op) {
	c.Instrs = append(c.Instrs, Instr{Op: op})
}

// EmitArg appends an instruction with an operand.
func (c *Code) EmitArg(op Op, arg int) {
	c.Instrs = append(c.Instrs, Instr{Op: op, Arg: int32(arg)})
}

// EmitBranch appends a branch with an unresolved address, returning the
// instruction index for Patch.
func (c *Code) EmitBranch(op Op) int {
	c.Instrs = append(c.Instrs, Instr{Op: op, Arg: -1})
	return len(c.Instrs) - 1
}

// Here returns the current generation address.
func (c *Code) Here() int { return len(c.Instrs) }

// Patch resolves a branch emitted by EmitBranch to the current address.
func (c *Code) Patch(at int) {
	c.Instrs[at].Arg = int32(len(c.Instrs))
}

// PatchTo resolves a branch to an explicit address.
func (c *Code) PatchTo(at, addr int) {
	c.Instrs[at].Arg = int32(addr)
}

// AddLiteral adds a deduplicated literal, returning its table index.
// Zeroes of different sign stay distinct.
func (c *Code) AddLiteral(v Value) int {
	if v.Type == TypeString {
		v = StringValue(c.Interp.Intern(v.Str()))
	}
	for idx, li := range c.Literals {
		if li.Type != v.Type {
			continue
		}
		match := false
		switch v.Type {
		case TypeUndefined, TypeNull:
			match = true
		case TypeBoolean:
			match = li.Bool() == v.Bool()
		case TypeNumber:
			match = math.Float64bits(li.Number()) == math.Float64bits(v.Number())
		case TypeString:
			match = li.Str() == v.Str()
		case TypeObject:
			match = li.Object() == v.Object()
		}
		if match {
			return idx
		}
	}
	c.Literals = append(c.Literals, v)
	return len(c.Literals) - 1
}

// AddFunc adds a deduplicated function record.
func (c *Code) AddFunc(f FuncMaker) int {
	for idx, have := range c.Funcs {
		if have == f {
			return idx
		}
	}
	c.Funcs = append(c.Funcs, f)
	return len(c.Funcs) - 1
}

// AddLocation adds a deduplicated location, searching backward since
// repeats cluster.
func (c *Code) AddLocation(loc Location) int {
	for idx := len(c.Locations) - 1; idx >= 0; idx-- {
		if c.Locations[idx] == loc {
			return idx
		}
	}
	c.Locations = append(c.Locations, loc)
	return len(c.Locations) - 1
}

// AddVar adds a deduplicated variable name.
func (c *Code) AddVar(name *String) int {
	name = c.Interp.Intern(name)
	for idx, have := range c.VarNames {
		if have == name {
			return idx
		}
	}
	c.VarNames = append(c.VarNames, name)
	return len(c.VarNames) - 1
}

// Disasm renders the instruction stream for debugging.
func (c *Code) Disasm() string {
	var b strings.Builder
	for pc, in := range c.Instrs {
		fmt.Fprintf(&b, "%4d: %s", pc, in.Op)
		if in.Op.HasArg() {
			fmt.Fprintf(&b, " %d", in.Arg)
			switch in.Op {
			case OpLiteral:
				if int(in.Arg) < len(c.Literals) {
					fmt.Fprintf(&b, "\t; %s", inspectValue(c.Literals[in.Arg]))
				}
			case OpVar, OpPutVar:
				if int(in.Arg) < len(c.VarNames) {
					fmt.Fprintf(&b, "\t; %s", c.VarNames[in.Arg])
				}
			case OpLoc:
				if int(in.Arg) < len(c.Locations) {
					loc := c.Locations[in.Arg]
					fmt.Fprintf(&b, "\t; %s:%d", loc.Filename, loc.Lineno)
				}
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func inspectValue(v Value) string {
	switch v.Type {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.Bool() {
			return "true"
		}
		return "false"
	case TypeNumber:
		return fmt.Sprintf("%g", v.Number())
	case TypeString:
		return fmt.Sprintf("%q", v.Str().String())
	case TypeObject:
		return "[object " + v.Object().Class() + "]"
	}
	return v.Type.String()
}
