package vm

// Scope is one link of the scope chain. Lookup walks from head to tail;
// the tail is the global object.
type Scope struct {
	Obj  Object
	Next *Scope
}

// ScopeEq reports whether two scope chains are observationally equal,
// comparing links with joined-object identity (used by the function
// instance cache).
func ScopeEq(a, b *Scope) bool {
	for a != nil && b != nil {
		if a == b {
			return true
		}
		if !Joined(a.Obj, b.Obj) {
			return false
		}
		o := a.Obj
		for a != nil && Joined(a.Obj, o) {
			a = a.Next
		}
		o = b.Obj
		for b != nil && Joined(b.Obj, o) {
			b = b.Next
		}
	}
	return a == b
}

// Context is an execution context (10.2): the scope chain, the variable
// object receiving declarations, this, and the attributes declarations
// get.
type Context struct {
	Interp     *Interpreter
	Scope      *Scope
	Variable   Object
	This       Object
	VarAttr    Attr
	Activation Object
}

// Lookup resolves an identifier in the scope chain (10.1.4), returning a
// Reference value. The base is nil when the name is unbound.
func (c *Context) Lookup(name *String) Value {
	name = c.Interp.Intern(name)
	for s := c.Scope; s != nil; s = s.Next {
		if s.Obj.HasProperty(c.Interp, name) {
			return ReferenceValue(s.Obj, name)
		}
	}
	return ReferenceValue(nil, name)
}

// GetValue implements 8.7.1. Under undefdef compat an unresolved
// reference reads as undefined instead of raising ReferenceError.
func (c *Context) GetValue(v Value) Value {
	if v.Type != TypeReference {
		return v
	}
	ref := v.Ref()
	if ref.Base == nil {
		if c.Interp.Compat&CompatUndefDef != 0 {
			return Undefined
		}
		c.Interp.ThrowReferenceError(ref.Prop.String() + " is not defined")
	}
	return ref.Base.Get(c.Interp, ref.Prop)
}

// PutValue implements 8.7.2. An unresolved reference stores onto the
// global object; a non-reference is a ReferenceError.
func (c *Context) PutValue(v Value, w Value) {
	if v.Type != TypeReference {
		c.Interp.ThrowReferenceError("invalid assignment left-hand side")
	}
	ref := v.Ref()
	target := ref.Base
	if target == nil {
		target = c.Interp.Global
	}
	target.Put(c.Interp, ref.Prop, w, 0)
}
