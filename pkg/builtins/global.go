package builtins

import (
	"math"
	"strings"

	"corvid/pkg/vm"
)

// The global object (15.1): value properties, the eval stub and the
// top-level conversion and URI-escape functions.

func allocGlobal(i *vm.Interpreter) {
	g := vm.NewNative("Global", nil)
	i.Global = g
	i.GlobalScope = &vm.Scope{Obj: g}
}

func initGlobal(i *vm.Interpreter) {
	g := i.Global
	if n, ok := g.(*vm.NativeObject); ok {
		n.SetProto(i.ObjectPrototype)
	}

	attrs := vm.AttrDontEnum | vm.AttrDontDelete
	g.Put(i, i.InternGo("NaN"), vm.NumberValue(math.NaN()), attrs)
	g.Put(i, i.InternGo("Infinity"), vm.NumberValue(math.Inf(1)), attrs)
	g.Put(i, i.InternGo("undefined"), vm.Undefined, attrs)

	// The eval stub covers indirect calls, which this implementation pins
	// to "executes in the global context"; a direct call is recognized by
	// the evaluator and borrows the caller's context instead. Under ext1
	// a receiver supplies this, the variable object and a scope step.
	evalFn := vm.NewCFunction(i, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		v := arg(args, 0)
		if v.Type != vm.TypeString {
			return v
		}
		ctxt := &vm.Context{
			Interp:   i,
			Scope:    i.GlobalScope,
			Variable: i.Global,
			This:     i.Global,
		}
		return i.DirectEval(ctxt, this, v.Str())
	}, "eval", 1)
	i.GlobalEval = evalFn
	putDontEnum(i, g, i.InternGo("eval"), vm.ObjectValue(evalFn))

	method(i, g, "parseInt", 2, globalParseInt)
	method(i, g, "parseFloat", 1, globalParseFloat)
	method(i, g, "isNaN", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		return vm.BooleanValue(math.IsNaN(i.ToNumber(arg(args, 0))))
	})
	method(i, g, "isFinite", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		n := i.ToNumber(arg(args, 0))
		return vm.BooleanValue(!math.IsNaN(n) && !math.IsInf(n, 0))
	})

	if i.Compat&vm.Compat262_3B != 0 {
		method(i, g, "escape", 1, globalEscape)
		method(i, g, "unescape", 1, globalUnescape)
	}
}

func isStrSpace(c uint16) bool {
	switch c {
	case 0x0009, 0x000A, 0x000B, 0x000C, 0x000D, 0x0020, 0x00A0, 0x2028, 0x2029:
		return true
	}
	return false
}

// globalParseInt implements 15.1.2.2.
func globalParseInt(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
	s := i.ToString(arg(args, 0))
	pos := 0
	for pos < s.Length() && isStrSpace(s.At(pos)) {
		pos++
	}
	sign := 1.0
	if pos < s.Length() && (s.At(pos) == '+' || s.At(pos) == '-') {
		if s.At(pos) == '-' {
			sign = -1
		}
		pos++
	}

	radix := int(i.ToInt32(arg(args, 1)))
	stripPrefix := true
	switch {
	case radix == 0:
		radix = 10
	case radix < 2 || radix > 36:
		return vm.NumberValue(math.NaN())
	case radix != 16:
		stripPrefix = false
	}
	if stripPrefix && pos+1 < s.Length() && s.At(pos) == '0' &&
		(s.At(pos+1) == 'x' || s.At(pos+1) == 'X') {
		pos += 2
		radix = 16
	}

	digitVal := func(c uint16) int {
		switch {
		case c >= '0' && c <= '9':
			return int(c - '0')
		case c >= 'a' && c <= 'z':
			return int(c-'a') + 10
		case c >= 'A' && c <= 'Z':
			return int(c-'A') + 10
		}
		return -1
	}

	n := 0.0
	seen := false
	for pos < s.Length() {
		d := digitVal(s.At(pos))
		if d < 0 || d >= radix {
			break
		}
		n = n*float64(radix) + float64(d)
		seen = true
		pos++
	}
	if !seen {
		return vm.NumberValue(math.NaN())
	}
	return vm.NumberValue(sign * n)
}

// globalParseFloat implements 15.1.2.3.
func globalParseFloat(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
	s := i.ToString(arg(args, 0))
	// Longest prefix forming a StrDecimalLiteral.
	str := s.String()
	str = strings.TrimLeftFunc(str, func(r rune) bool {
		return isStrSpace(uint16(r))
	})
	end := 0
	seenDigit := false
	if end < len(str) && (str[end] == '+' || str[end] == '-') {
		end++
	}
	if strings.HasPrefix(str[end:], "Infinity") {
		end += len("Infinity")
	} else {
		for end < len(str) && str[end] >= '0' && str[end] <= '9' {
			end++
			seenDigit = true
		}
		if end < len(str) && str[end] == '.' {
			end++
			for end < len(str) && str[end] >= '0' && str[end] <= '9' {
				end++
				seenDigit = true
			}
		}
		if !seenDigit {
			return vm.NumberValue(math.NaN())
		}
		if end < len(str) && (str[end] == 'e' || str[end] == 'E') {
			mark := end
			end++
			if end < len(str) && (str[end] == '+' || str[end] == '-') {
				end++
			}
			expDigits := false
			for end < len(str) && str[end] >= '0' && str[end] <= '9' {
				end++
				expDigits = true
			}
			if !expDigits {
				end = mark
			}
		}
	}
	n, ok := vm.ParseNumericString(vm.NewStringFromGo(i, str[:end]), false)
	if !ok {
		return vm.NumberValue(math.NaN())
	}
	return vm.NumberValue(n)
}

const hexUpper = "0123456789ABCDEF"

// globalEscape implements B.2.1.
func globalEscape(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
	s := i.ToString(arg(args, 0))
	r := vm.NewString(i)
	for idx := 0; idx < s.Length(); idx++ {
		c := s.At(idx)
		switch {
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '@' || c == '*' || c == '_' || c == '+' ||
			c == '-' || c == '.' || c == '/':
			r.AddCh(c)
		case c < 256:
			r.AddCh('%')
			r.AddCh(uint16(hexUpper[c>>4]))
			r.AddCh(uint16(hexUpper[c&0xf]))
		default:
			r.AddCh('%')
			r.AddCh('u')
			r.AddCh(uint16(hexUpper[c>>12]))
			r.AddCh(uint16(hexUpper[c>>8&0xf]))
			r.AddCh(uint16(hexUpper[c>>4&0xf]))
			r.AddCh(uint16(hexUpper[c&0xf]))
		}
	}
	return vm.StringValue(r)
}

func hexDigit(c uint16) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// globalUnescape implements B.2.2.
func globalUnescape(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
	s := i.ToString(arg(args, 0))
	r := vm.NewString(i)
	for idx := 0; idx < s.Length(); idx++ {
		c := s.At(idx)
		if c == '%' && idx+5 < s.Length() && s.At(idx+1) == 'u' {
			d1, ok1 := hexDigit(s.At(idx + 2))
			d2, ok2 := hexDigit(s.At(idx + 3))
			d3, ok3 := hexDigit(s.At(idx + 4))
			d4, ok4 := hexDigit(s.At(idx + 5))
			if ok1 && ok2 && ok3 && ok4 {
				r.AddCh(uint16(d1<<12 | d2<<8 | d3<<4 | d4))
				idx += 5
				continue
			}
		}
		if c == '%' && idx+2 < s.Length() {
			d1, ok1 := hexDigit(s.At(idx + 1))
			d2, ok2 := hexDigit(s.At(idx + 2))
			if ok1 && ok2 {
				r.AddCh(uint16(d1<<4 | d2))
				idx += 2
				continue
			}
		}
		r.AddCh(c)
	}
	return vm.StringValue(r)
}
