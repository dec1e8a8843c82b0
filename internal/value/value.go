// Package value implements the tagged union of the nine scripting types
// Asteria's runtime operates on: null, boolean, integer, real, string,
// opaque, function, array, and object.
//
// Value is a plain struct rather than an interface{} sum type on purpose:
// the zero Value must be a valid null (§3), and a zero-initialized struct
// gives us that for free without a sentinel check anywhere else in the
// codebase.
package value

import "github.com/google/uuid"

// Kind discriminates the active member of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindReal
	KindString
	KindOpaque
	KindFunction
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindOpaque:
		return "opaque"
	case KindFunction:
		return "function"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Handle is an opaque reference to something a Value's deep variable
// enumeration wants to hand back to its caller — in practice always a
// *variable.Variable, but this package cannot name that type without
// creating an import cycle (variable.Variable embeds a Value). Callers in
// the variable/reference/collector packages assert it back to their
// concrete type.
type Handle = any

// VariableVisitor is invoked once per reachable Handle during a deep
// enumerate-variables pass. Implementations (the generational collector,
// mainly) must tolerate being invoked more than once for the same Handle
// across different Values that happen to share a captured variable.
type VariableVisitor func(Handle)

// Function is the interface every callable Value implements, whether a
// native binding or a script closure. It intentionally exposes no Call
// method: invocation is orchestrated by the engine package, which knows
// how to run an AVMC queue or invoke a native binding and resolve a
// returned tail call. Keeping Call out of this interface is what lets the
// value package stay free of the avmc/reference/collector packages that
// invocation actually needs.
type Function interface {
	Name() string
	Arity() int
	IsVariadic() bool
	Describe() string
	EnumerateVariables(visit VariableVisitor)
}

// Opaque is the contract a user-defined opaque payload must satisfy:
// describe for diagnostics, clone (deep clones duplicate owned state;
// shallow clones may share it), and deep variable enumeration for the
// collector.
type Opaque interface {
	TypeName() string
	Describe() string
	Clone(deep bool) Opaque
	EnumerateVariables(visit VariableVisitor)
}

// Value is the tagged union. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	r    float64
	s    string
	o    Opaque
	oid  uuid.UUID
	fn   Function
	arr  *Array
	obj  *Object
}

// Array is an ordered sequence of Values.
type Array struct {
	Elements []Value
}

// Object is a mapping from string to Value. Iteration order matches
// insertion order (§3): the order has no semantic weight but must be
// stable, so Object threads a slice of keys alongside the lookup map
// rather than relying on Go's randomized map iteration.
type Object struct {
	keys   []string
	index  map[string]int
	values []Value
}

func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

func (o *Object) Len() int { return len(o.keys) }

func (o *Object) Get(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	return o.values[i], true
}

func (o *Object) Set(key string, v Value) {
	if i, ok := o.index[key]; ok {
		o.values[i] = v
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.values = append(o.values, v)
}

// Delete removes key, reporting the value it held, if any. Deletion
// tombstone-frees the key/value slices the same way the executive
// context's hash table relocates on delete (§4.5): the last entry is
// moved into the hole so iteration order of the surviving keys is
// preserved save for the one that moved to fill the gap.
func (o *Object) Delete(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	old := o.values[i]
	last := len(o.keys) - 1
	if i != last {
		o.keys[i] = o.keys[last]
		o.values[i] = o.values[last]
		o.index[o.keys[i]] = i
	}
	o.keys = o.keys[:last]
	o.values = o.values[:last]
	delete(o.index, key)
	return old, true
}

func (o *Object) Keys() []string { return o.keys }

func (o *Object) Clone() *Object {
	c := &Object{
		keys:   append([]string(nil), o.keys...),
		values: append([]Value(nil), o.values...),
		index:  make(map[string]int, len(o.index)),
	}
	for k, i := range o.index {
		c.index[k] = i
	}
	return c
}

// Constructors.

func Null() Value                 { return Value{} }
func Bool(b bool) Value            { return Value{kind: KindBoolean, b: b} }
func Int(i int64) Value            { return Value{kind: KindInteger, i: i} }
func Real(r float64) Value         { return Value{kind: KindReal, r: r} }
func Str(s string) Value           { return Value{kind: KindString, s: s} }
// Opq wraps a user-defined Opaque payload, stamping it with a fresh uuid
// identity that outlives any particular Go pointer the payload happens to
// hold — describe() uses it to render a stable diagnostic handle instead
// of leaking a Go pointer address into user-visible output.
func Opq(o Opaque) Value { return Value{kind: KindOpaque, o: o, oid: uuid.New()} }
func Fn(fn Function) Value         { return Value{kind: KindFunction, fn: fn} }
func Arr(a *Array) Value           { return Value{kind: KindArray, arr: a} }
func Obj(o *Object) Value          { return Value{kind: KindObject, obj: o} }

func NewArray(elems ...Value) Value { return Arr(&Array{Elements: elems}) }
func NewObjectValue() Value         { return Obj(NewObject()) }

// Accessors. None of them checks the Kind: on a mismatch each returns
// whatever its field holds, normally the zero value. Callers are expected
// to check Kind() first (the reference/engine packages always do before
// calling these, matching the "trust internal invariants" style the
// runtime's read/write paths rely on throughout).

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) Bool() bool       { return v.b }
func (v Value) Int() int64       { return v.i }
func (v Value) Real() float64    { return v.r }
func (v Value) Str() string      { return v.s }
func (v Value) Opaque() Opaque   { return v.o }
func (v Value) OpaqueID() uuid.UUID { return v.oid }
func (v Value) Function() Function { return v.fn }
func (v Value) Array() *Array    { return v.arr }
func (v Value) Object() *Object  { return v.obj }

// IsTruthy implements the language's boolean coercion: null and the
// "empty" representatives of each primitive type are false.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBoolean:
		return v.b
	case KindInteger:
		return v.i != 0
	case KindReal:
		return v.r != 0
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr.Elements) != 0
	case KindObject:
		return v.obj.Len() != 0
	default:
		return true
	}
}

// EnumerateVariables visits every Handle reachable from v: recursively
// through array elements and object values, and delegated to the
// Function/Opaque contracts for closures and user payloads. It is safe to
// call re-entrantly (§4.1) — callers (the collector) are responsible for
// short-circuiting on an already-marked Handle, not this function.
func (v Value) EnumerateVariables(visit VariableVisitor) {
	switch v.kind {
	case KindArray:
		for _, e := range v.arr.Elements {
			e.EnumerateVariables(visit)
		}
	case KindObject:
		for _, e := range v.obj.values {
			e.EnumerateVariables(visit)
		}
	case KindFunction:
		if v.fn != nil {
			v.fn.EnumerateVariables(visit)
		}
	case KindOpaque:
		if v.o != nil {
			v.o.EnumerateVariables(visit)
		}
	}
}

// Describe renders a diagnostic, and for null/boolean/integer/real/string
// reparseable, representation of v (§8: describe-then-reparse round trip).
func (v Value) Describe() string {
	return describe(v)
}
