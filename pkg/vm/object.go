package vm

// Attr is the property attribute set.
type Attr uint8

const (
	AttrReadOnly Attr = 1 << iota
	AttrDontEnum
	AttrDontDelete
	AttrInternal
)

// Object is the uniform protocol every script-visible object implements.
// Call, Construct and HasInstance capability is advertised by additionally
// implementing Callable, Constructor or HasInstancer.
type Object interface {
	// Class returns the [[Class]] token.
	Class() string
	// Proto returns the [[Prototype]], or nil.
	Proto() Object
	// Get looks name up on the object and its prototype chain.
	Get(i *Interpreter, name *String) Value
	// Put creates or updates an own property; silent no-op when CanPut
	// is false.
	Put(i *Interpreter, name *String, v Value, attr Attr)
	// CanPut reports whether Put would store the value.
	CanPut(i *Interpreter, name *String) bool
	// HasProperty checks the object and its prototype chain.
	HasProperty(i *Interpreter, name *String) bool
	// Delete removes an own property; false when it is DontDelete.
	Delete(i *Interpreter, name *String) bool
	// DefaultValue returns a primitive per 8.6.2.6, trying toString and
	// valueOf in hint order; raises TypeError when neither yields a
	// primitive.
	DefaultValue(i *Interpreter, hint Hint) Value
	// OwnKeys lists the object's own property names in insertion order,
	// with their enumerability.
	OwnKeys() []OwnKey
}

// OwnKey is one entry of an object's own property listing.
type OwnKey struct {
	Name     *String
	DontEnum bool
}

// Callable is implemented by objects with [[Call]].
type Callable interface {
	Object
	Call(i *Interpreter, this Object, args []Value) Value
}

// Constructor is implemented by objects with [[Construct]].
type Constructor interface {
	Object
	Construct(i *Interpreter, args []Value) Object
}

// HasInstancer is implemented by objects with [[HasInstance]].
type HasInstancer interface {
	Object
	HasInstance(i *Interpreter, v Value) bool
}

// HasCall reports the [[Call]] capability.
func HasCall(o Object) bool {
	_, ok := o.(Callable)
	return ok
}

// HasConstruct reports the [[Construct]] capability.
func HasConstruct(o Object) bool {
	_, ok := o.(Constructor)
	return ok
}

// Joined reports whether two objects are the same object, or joined
// function instances sharing one function record (13.1.2). The hook is
// installed by the function machinery.
func Joined(a, b Object) bool {
	if a == b {
		return true
	}
	if JoinedHook != nil {
		return JoinedHook(a, b)
	}
	return false
}

// JoinedHook tests joined function objects; set by the evaluator package.
var JoinedHook func(a, b Object) bool

// property is one own property slot.
type property struct {
	value Value
	attr  Attr
}

// NativeObject is the standard property-map object implementation. Most
// object kinds embed it and override protocol methods as needed.
type NativeObject struct {
	class string
	proto Object
	props map[*String]*property
	order []*String // insertion order, for enumeration
}

// NewNative returns an empty native object with the given class and
// prototype.
func NewNative(class string, proto Object) *NativeObject {
	return &NativeObject{class: class, proto: proto}
}

// NewObject returns a fresh native object of class "Object" whose
// prototype is the interpreter's Object.prototype.
func NewObject(i *Interpreter) *NativeObject {
	return NewNative("Object", i.ObjectPrototype)
}

// NewActivation returns the per-call variable object. Activation objects
// never leak to scripts and are skipped when computing a call's this.
func NewActivation(i *Interpreter) *NativeObject {
	return NewNative(ClassActivation, nil)
}

// ClassActivation tags activation objects.
const ClassActivation = "Activation"

func (o *NativeObject) Class() string { return o.class }
func (o *NativeObject) Proto() Object { return o.proto }

// SetProto replaces the prototype; used only while wiring built-ins.
func (o *NativeObject) SetProto(p Object) { o.proto = p }

func (o *NativeObject) own(name *String) *property {
	if o.props == nil {
		return nil
	}
	return o.props[name]
}

// GetOwn fetches an own property without consulting the prototype chain.
func (o *NativeObject) GetOwn(i *Interpreter, name *String) (Value, bool) {
	if p := o.own(i.Intern(name)); p != nil {
		return p.value, true
	}
	return Undefined, false
}

func (o *NativeObject) Get(i *Interpreter, name *String) Value {
	name = i.Intern(name)
	if p := o.own(name); p != nil {
		return p.value
	}
	if o.proto != nil {
		return o.proto.Get(i, name)
	}
	return Undefined
}

func (o *NativeObject) Put(i *Interpreter, name *String, v Value, attr Attr) {
	name = i.Intern(name)
	if p := o.own(name); p != nil {
		if p.attr&AttrReadOnly != 0 {
			return
		}
		p.value = v
		p.attr |= attr
		return
	}
	if o.proto != nil && !o.proto.CanPut(i, name) {
		return
	}
	if o.props == nil {
		o.props = map[*String]*property{}
	}
	o.props[name] = &property{value: v, attr: attr}
	o.order = append(o.order, name)
}

// DefineOwn forces an own property's value and attributes, bypassing
// ReadOnly and the prototype CanPut check. Internal wiring only; script
// stores go through Put.
func (o *NativeObject) DefineOwn(i *Interpreter, name *String, v Value, attr Attr) {
	name = i.Intern(name)
	if p := o.own(name); p != nil {
		p.value = v
		p.attr = attr
		return
	}
	if o.props == nil {
		o.props = map[*String]*property{}
	}
	o.props[name] = &property{value: v, attr: attr}
	o.order = append(o.order, name)
}

func (o *NativeObject) CanPut(i *Interpreter, name *String) bool {
	name = i.Intern(name)
	if p := o.own(name); p != nil {
		return p.attr&AttrReadOnly == 0
	}
	if o.proto != nil {
		return o.proto.CanPut(i, name)
	}
	return true
}

func (o *NativeObject) HasProperty(i *Interpreter, name *String) bool {
	name = i.Intern(name)
	if o.own(name) != nil {
		return true
	}
	return o.proto != nil && o.proto.HasProperty(i, name)
}

func (o *NativeObject) Delete(i *Interpreter, name *String) bool {
	name = i.Intern(name)
	p := o.own(name)
	if p == nil {
		return true
	}
	if p.attr&AttrDontDelete != 0 {
		return false
	}
	delete(o.props, name)
	for idx, n := range o.order {
		if n == name {
			o.order = append(o.order[:idx], o.order[idx+1:]...)
			break
		}
	}
	return true
}

// DefaultValue implements 8.6.2.6 against the object passed as self so
// that embedding kinds inherit correct method lookup.
func (o *NativeObject) DefaultValue(i *Interpreter, hint Hint) Value {
	return DefaultValueOf(i, o, hint)
}

// DefaultValueOf runs the 8.6.2.6 algorithm for any object.
func DefaultValueOf(i *Interpreter, o Object, hint Hint) Value {
	first, second := strValueOf, strToString
	if hint == HintString {
		first, second = strToString, strValueOf
	}
	for _, name := range []*String{first, second} {
		m := o.Get(i, name)
		if m.Type != TypeObject {
			continue
		}
		fn, ok := m.Object().(Callable)
		if !ok {
			continue
		}
		r := fn.Call(i, o, nil)
		if r.Type != TypeObject {
			return r
		}
	}
	i.ThrowTypeError("cannot convert object to primitive value")
	return Undefined
}

func (o *NativeObject) OwnKeys() []OwnKey {
	keys := make([]OwnKey, 0, len(o.order))
	for _, name := range o.order {
		p := o.props[name]
		keys = append(keys, OwnKey{Name: name, DontEnum: p.attr&AttrDontEnum != 0})
	}
	return keys
}

// OwnAttr returns the attribute bits of an own property.
func (o *NativeObject) OwnAttr(i *Interpreter, name *String) (Attr, bool) {
	if p := o.own(i.Intern(name)); p != nil {
		return p.attr, true
	}
	return 0, false
}
