package builtins

import (
	"testing"

	"corvid/pkg/vm"
)

func newInterp() *vm.Interpreter {
	i := vm.NewInterpreter()
	Init(i)
	return i
}

func TestArrayIndexParsing(t *testing.T) {
	valid := map[string]uint32{"0": 0, "1": 1, "42": 42, "4294967294": 4294967294}
	for s, want := range valid {
		got, ok := arrayIndex(vm.StaticString(s))
		if !ok || got != want {
			t.Errorf("arrayIndex(%q) = %v %v, want %v", s, got, ok, want)
		}
	}
	for _, s := range []string{"", "01", "-1", "1.5", "4294967295", "x", "99999999999"} {
		if _, ok := arrayIndex(vm.StaticString(s)); ok {
			t.Errorf("arrayIndex(%q) should not parse", s)
		}
	}
}

func TestArrayLengthMagic(t *testing.T) {
	i := newInterp()
	a := NewArray(i)

	a.Put(i, i.InternGo("5"), vm.NumberValue(1), 0)
	if a.Length() != 6 {
		t.Errorf("writing index 5 must extend length to 6, got %d", a.Length())
	}

	// Shrinking the length discards indices beyond it.
	a.Put(i, vm.StrLength, vm.NumberValue(2), 0)
	if a.Length() != 2 {
		t.Errorf("length = %d, want 2", a.Length())
	}
	if a.HasProperty(i, i.InternGo("5")) {
		t.Error("index 5 must be gone after shrinking")
	}

	// Non-index names do not affect length.
	a.Put(i, i.InternGo("name"), vm.True, 0)
	if a.Length() != 2 {
		t.Error("non-index property changed the length")
	}
}

func TestArrayConstruct(t *testing.T) {
	i := newInterp()
	ctor := i.Array.(vm.Constructor)

	a := ctor.Construct(i, []vm.Value{vm.NumberValue(7)})
	if n := i.ToUint32(a.Get(i, vm.StrLength)); n != 7 {
		t.Errorf("new Array(7).length = %d", n)
	}

	b := ctor.Construct(i, []vm.Value{vm.NumberValue(1), vm.NumberValue(2)})
	if n := i.ToUint32(b.Get(i, vm.StrLength)); n != 2 {
		t.Errorf("new Array(1,2).length = %d", n)
	}

	caught := i.Try(func() {
		ctor.Construct(i, []vm.Value{vm.NumberValue(1.5)})
	})
	if caught == nil {
		t.Error("a fractional length must raise RangeError")
	}
}

func TestErrorHierarchy(t *testing.T) {
	i := newInterp()
	te := i.TypeError.(vm.Constructor).Construct(i, []vm.Value{
		vm.StringValue(vm.StaticString("bad"))})

	if s := i.ToString(vm.ObjectValue(te)).String(); s != "TypeError: bad" {
		t.Errorf("rendered error = %q", s)
	}
	// A TypeError is an Error too.
	if !i.Error.(vm.HasInstancer).HasInstance(i, vm.ObjectValue(te)) {
		t.Error("TypeError instances satisfy instanceof Error")
	}
	if !i.TypeError.(vm.HasInstancer).HasInstance(i, vm.ObjectValue(te)) {
		t.Error("TypeError instances satisfy instanceof TypeError")
	}
	if i.RangeError.(vm.HasInstancer).HasInstance(i, vm.ObjectValue(te)) {
		t.Error("a TypeError is not a RangeError")
	}
}

func TestToObjectWrapping(t *testing.T) {
	i := newInterp()

	so := i.ToObject(vm.StringValue(vm.StaticString("abc")))
	if so.Class() != "String" {
		t.Errorf("string wraps as %q", so.Class())
	}
	if n := so.Get(i, vm.StrLength); n.Number() != 3 {
		t.Errorf("wrapped length = %v", n.Number())
	}

	no := i.ToObject(vm.NumberValue(5))
	if no.Class() != "Number" {
		t.Errorf("number wraps as %q", no.Class())
	}

	caught := i.Try(func() {
		i.ToObject(vm.Null)
	})
	if caught == nil {
		t.Error("ToObject(null) must raise TypeError")
	}
}

func TestDefaultValueOnWrappers(t *testing.T) {
	i := newInterp()
	no := i.ToObject(vm.NumberValue(5))
	prim := i.ToPrimitive(vm.ObjectValue(no), vm.HintNumber)
	if prim.Type != vm.TypeNumber || prim.Number() != 5 {
		t.Errorf("ToPrimitive(Number(5)) = %v", prim)
	}

	so := i.ToObject(vm.StringValue(vm.StaticString("s")))
	prim = i.ToPrimitive(vm.ObjectValue(so), vm.HintString)
	if prim.Type != vm.TypeString || prim.Str().String() != "s" {
		t.Errorf("ToPrimitive(String('s')) = %v", prim)
	}
}

func TestRegExpMatching(t *testing.T) {
	i := newInterp()
	ctor := i.RegExp.(vm.Constructor)
	re := ctor.Construct(i, []vm.Value{
		vm.StringValue(vm.StaticString("a(b+)c")),
		vm.StringValue(vm.StaticString("g")),
	})
	r := re.(*RegExpObject)

	m := regexpExec(i, r, vm.NewStringFromGo(i, "xxabbbc yz abc"))
	if m.Type != vm.TypeObject {
		t.Fatal("expected a match")
	}
	if got := i.ToString(m.Object().Get(i, i.InternGo("1"))).String(); got != "bbb" {
		t.Errorf("capture = %q", got)
	}
	// The global flag advances lastIndex for the next exec.
	m2 := regexpExec(i, r, vm.NewStringFromGo(i, "xxabbbc yz abc"))
	if m2.Type != vm.TypeObject {
		t.Fatal("expected the second match")
	}
	if got := i.ToString(m2.Object().Get(i, i.InternGo("1"))).String(); got != "b" {
		t.Errorf("second capture = %q", got)
	}

	caught := i.Try(func() {
		ctor.Construct(i, []vm.Value{
			vm.StringValue(vm.StaticString("(unclosed")),
		})
	})
	if caught == nil {
		t.Error("an invalid pattern must raise SyntaxError")
	}
}

func TestGlobalValueProperties(t *testing.T) {
	i := newInterp()
	if v := i.Global.Get(i, i.InternGo("undefined")); v.Type != vm.TypeUndefined {
		t.Error("global undefined")
	}
	if v := i.Global.Get(i, i.InternGo("NaN")); !v.IsNaN() {
		t.Error("global NaN")
	}
	if i.Global.Delete(i, i.InternGo("NaN")) {
		t.Error("global NaN is DontDelete")
	}
}
