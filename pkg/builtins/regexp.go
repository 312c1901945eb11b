package builtins

import (
	"github.com/dlclark/regexp2"

	"corvid/pkg/vm"
)

// The RegExp constructor and prototype (15.10). Pattern compilation and
// matching use regexp2 in ECMAScript mode, which carries the backreference
// and assertion semantics the standard asks for.

// RegExpObject is a regular expression instance.
type RegExpObject struct {
	vm.NativeObject
	source     *vm.String
	re         *regexp2.Regexp
	global     bool
	ignoreCase bool
	multiline  bool
}

// Source returns the pattern text.
func (r *RegExpObject) Source() *vm.String { return r.source }

func (r *RegExpObject) DefaultValue(i *vm.Interpreter, hint vm.Hint) vm.Value {
	return vm.DefaultValueOf(i, r, hint)
}

func allocRegExp(i *vm.Interpreter) {
	i.RegExpPrototype = vm.NewNative("Object", nil)
}

func regexpConstruct(i *vm.Interpreter, args []vm.Value) vm.Object {
	pattern := vm.StaticString("")
	if v := arg(args, 0); v.Type != vm.TypeUndefined {
		if v.Type == vm.TypeObject {
			if prior, ok := v.Object().(*RegExpObject); ok {
				if len(args) > 1 && args[1].Type != vm.TypeUndefined {
					i.ThrowTypeError("cannot supply flags when cloning a RegExp")
				}
				return prior
			}
		}
		pattern = i.ToString(v)
	}

	r := &RegExpObject{
		NativeObject: *vm.NewNative("RegExp", i.RegExpPrototype),
		source:       pattern,
	}
	if v := arg(args, 1); v.Type != vm.TypeUndefined {
		flags := i.ToString(v)
		for idx := 0; idx < flags.Length(); idx++ {
			switch flags.At(idx) {
			case 'g':
				r.global = true
			case 'i':
				r.ignoreCase = true
			case 'm':
				r.multiline = true
			default:
				i.ThrowSyntaxError("invalid regular expression flag")
			}
		}
	}

	var opts regexp2.RegexOptions = regexp2.ECMAScript
	if r.ignoreCase {
		opts |= regexp2.IgnoreCase
	}
	if r.multiline {
		opts |= regexp2.Multiline
	}
	re, err := regexp2.Compile(pattern.String(), opts)
	if err != nil {
		i.ThrowSyntaxError("invalid regular expression: " + err.Error())
	}
	r.re = re

	attrs := vm.AttrReadOnly | vm.AttrDontEnum | vm.AttrDontDelete
	r.NativeObject.Put(i, i.InternGo("source"), vm.StringValue(pattern), attrs)
	r.NativeObject.Put(i, i.InternGo("global"), vm.BooleanValue(r.global), attrs)
	r.NativeObject.Put(i, i.InternGo("ignoreCase"), vm.BooleanValue(r.ignoreCase), attrs)
	r.NativeObject.Put(i, i.InternGo("multiline"), vm.BooleanValue(r.multiline), attrs)
	r.NativeObject.Put(i, i.InternGo("lastIndex"), vm.NumberValue(0), vm.AttrDontEnum|vm.AttrDontDelete)
	return r
}

func thisRegExp(i *vm.Interpreter, this vm.Object, method string) *RegExpObject {
	r, ok := this.(*RegExpObject)
	if !ok {
		i.ThrowTypeError("RegExp.prototype." + method + " called on non-RegExp")
	}
	return r
}

// regexpExec runs the match protocol shared by exec and test (15.10.6.2).
func regexpExec(i *vm.Interpreter, r *RegExpObject, input *vm.String) vm.Value {
	lastIndex := 0
	if r.global {
		lastIndex = int(i.ToInteger(r.Get(i, i.InternGo("lastIndex"))))
	}
	text := input.String()
	if lastIndex < 0 || lastIndex > len(text) {
		r.NativeObject.Put(i, i.InternGo("lastIndex"), vm.NumberValue(0), 0)
		return vm.Null
	}

	m, err := r.re.FindStringMatchStartingAt(text, lastIndex)
	if err != nil || m == nil {
		if r.global {
			r.NativeObject.Put(i, i.InternGo("lastIndex"), vm.NumberValue(0), 0)
		}
		return vm.Null
	}

	if r.global {
		r.NativeObject.Put(i, i.InternGo("lastIndex"),
			vm.NumberValue(float64(m.Index+m.Length)), 0)
	}

	out := NewArray(i)
	for gi, g := range m.Groups() {
		if len(g.Captures) == 0 {
			out.setAt(i, uint32(gi), vm.Undefined)
			continue
		}
		out.setAt(i, uint32(gi), vm.StringValue(vm.NewStringFromGo(i, g.String())))
	}
	out.Put(i, i.InternGo("index"), vm.NumberValue(float64(m.Index)), 0)
	out.Put(i, i.InternGo("input"), vm.StringValue(input), 0)
	return vm.ObjectValue(out)
}

func initRegExp(i *vm.Interpreter) {
	ctor := newCtor(i, "RegExp", 2, nil, regexpConstruct)
	i.RegExp = ctor
	proto := i.RegExpPrototype

	if rp, ok := proto.(*vm.NativeObject); ok {
		rp.SetProto(i.ObjectPrototype)
	}

	method(i, proto, "exec", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		r := thisRegExp(i, this, "exec")
		return regexpExec(i, r, i.ToString(arg(args, 0)))
	})
	method(i, proto, "test", 1, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		r := thisRegExp(i, this, "test")
		return vm.BooleanValue(regexpExec(i, r, i.ToString(arg(args, 0))).Type != vm.TypeNull)
	})
	method(i, proto, "toString", 0, func(i *vm.Interpreter, this vm.Object, args []vm.Value) vm.Value {
		r := thisRegExp(i, this, "toString")
		out := vm.NewString(i)
		out.AddCh('/')
		out.Append(r.source)
		out.AddCh('/')
		if r.global {
			out.AddCh('g')
		}
		if r.ignoreCase {
			out.AddCh('i')
		}
		if r.multiline {
			out.AddCh('m')
		}
		return vm.StringValue(out)
	})

	linkCtor(i, "RegExp", ctor, proto)
}
