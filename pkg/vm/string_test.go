package vm

import "testing"

func TestStringGrowable(t *testing.T) {
	i := NewInterpreter()
	s := NewString(i)
	for c := 0; c < 300; c++ {
		s.AddCh(uint16('a' + c%26))
	}
	if s.Length() != 300 {
		t.Fatalf("length = %d, want 300", s.Length())
	}
	if s.At(0) != 'a' || s.At(299) != uint16('a'+299%26) {
		t.Error("content mismatch after growth")
	}
}

func TestStaticStringCannotGrow(t *testing.T) {
	s := StaticString("fixed")
	defer func() {
		if recover() == nil {
			t.Error("appending to a static string must panic")
		}
	}()
	s.AddCh('x')
}

func TestSurrogatePairs(t *testing.T) {
	i := NewInterpreter()
	s := NewString(i)
	s.AddUCS4(0x1F600) // non-BMP code point becomes a surrogate pair
	if s.Length() != 2 {
		t.Fatalf("length = %d, want 2 code units", s.Length())
	}
	if s.At(0) != 0xD83D || s.At(1) != 0xDE00 {
		t.Errorf("surrogates = %04x %04x", s.At(0), s.At(1))
	}
	if _, err := s.UTF8(); err != nil {
		t.Errorf("valid pair should encode: %v", err)
	}
}

func TestLoneSurrogateUTF8(t *testing.T) {
	i := NewInterpreter()
	s := NewString(i)
	s.AddCh(0xD800)
	if _, err := s.UTF8(); err == nil {
		t.Error("lone surrogate must fail strict UTF-8 output")
	}
}

func TestStringCmp(t *testing.T) {
	a := StaticString("abc")
	b := StaticString("abd")
	c := StaticString("ab")
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Error("basic comparison broken")
	}
	if c.Cmp(a) != -1 || a.Cmp(c) != 1 {
		t.Error("prefix ordering broken")
	}
}

func TestInternLaws(t *testing.T) {
	i := NewInterpreter()
	s1 := NewStringFromGo(i, "hello")
	s2 := NewStringFromGo(i, "hello")
	if s1 == s2 {
		t.Fatal("distinct instances expected before interning")
	}

	i1 := i.Intern(s1)
	i2 := i.Intern(s2)
	if i1 != i2 {
		t.Error("interning equal strings must give the same pointer")
	}
	// Idempotence: interning an interned string is identity.
	if i.Intern(i1) != i1 {
		t.Error("intern(intern(s)) != intern(s)")
	}
	if !i1.Interned() {
		t.Error("result must carry the interned flag")
	}

	i3 := i.Intern(NewStringFromGo(i, "other"))
	if i3 == i1 {
		t.Error("different contents must intern differently")
	}
}

func TestInternGlobalShared(t *testing.T) {
	g := InternGlobal("sharedname")
	i1 := NewInterpreter()
	i2 := NewInterpreter()
	if i1.Intern(NewStringFromGo(i1, "sharedname")) != g {
		t.Error("per-interpreter interning must find process-wide strings")
	}
	if i2.Intern(NewStringFromGo(i2, "sharedname")) != g {
		t.Error("the process-wide instance is shared across interpreters")
	}
}

func TestConcatAndSubstr(t *testing.T) {
	i := NewInterpreter()
	ab := ConcatStrings(i, StaticString("foo"), StaticString("bar"))
	if ab.String() != "foobar" {
		t.Errorf("concat = %q", ab.String())
	}
	mid := ab.Substr(i, 2, 3)
	if mid.String() != "oba" {
		t.Errorf("substr = %q", mid.String())
	}
}
