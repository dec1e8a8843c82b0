// Package reference implements the access-path model of §3.3/§4.3: a root
// location (null, constant, temporary, variable, or a pending tail call)
// plus an ordered sequence of modifiers that locate a sub-value.
package reference

import (
	"asteria/internal/langerr"
	"asteria/internal/value"
	"asteria/internal/variable"
)

// RootKind discriminates the five root variants. TailCall is not in the
// original four listed in §3's prose because it only ever appears as the
// transient result of a call at a tail position (§4.7); it must be
// resolved by the trampoline before any read or write is attempted.
type RootKind uint8

const (
	RootNull RootKind = iota
	RootConstant
	RootTemporary
	RootVariable
	RootTailCall
)

// TailCall is stored as `any` rather than a concrete type to avoid an
// import cycle: the concrete payload (ptc.Arguments) needs to hold
// References as its packed argument list, so the ptc package must import
// this one, not the other way around.
type Reference struct {
	kind RootKind

	constant  value.Value
	temporary value.Value
	variable  *variable.Variable
	tailCall  any

	modifiers []Modifier
}

// ModKind discriminates the four modifier shapes of §3.3.
type ModKind uint8

const (
	ModIndex ModKind = iota // array index, signed, negative indexes from the tail
	ModKey                  // object key
	ModHead                 // array head marker (peek/overwrite-front)
	ModTail                 // array tail marker (push/peek-back)
)

type Modifier struct {
	Kind  ModKind
	Index int64
	Key   string
}

func Null() Reference                        { return Reference{kind: RootNull} }
func Constant(v value.Value) Reference       { return Reference{kind: RootConstant, constant: v} }
func Temporary(v value.Value) Reference      { return Reference{kind: RootTemporary, temporary: v} }
func Variable(v *variable.Variable) Reference { return Reference{kind: RootVariable, variable: v} }
func TailCall(args any) Reference            { return Reference{kind: RootTailCall, tailCall: args} }

func (r Reference) Kind() RootKind  { return r.kind }
func (r Reference) TailCallArgs() any { return r.tailCall }
func (r Reference) Variable() *variable.Variable { return r.variable }

// ZoomIn pushes a modifier, returning the extended Reference (Reference is
// a value type, so this never mutates the caller's copy — "zoom in/out" in
// the glossary is purely a matter of which Reference value you're holding).
func (r Reference) ZoomIn(m Modifier) Reference {
	r.modifiers = append(append([]Modifier(nil), r.modifiers...), m)
	return r
}

// ZoomOut pops the last modifier. Zooming out of a root-only Reference is
// a no-op, matching how the original Asteria runtime's reference stack
// behaves when a statement's modifier chain underflows: it's a compiler
// bug, not a runtime condition worth trapping.
func (r Reference) ZoomOut() Reference {
	if len(r.modifiers) == 0 {
		return r
	}
	r.modifiers = r.modifiers[:len(r.modifiers)-1]
	return r
}

func (r Reference) Modifiers() []Modifier { return r.modifiers }

var errUnresolvedTailCall = langerr.New(langerr.Type, "reference is an unresolved tail call")

// rootValue returns the unmodified root Value, or an error when the root
// cannot be read.
func (r Reference) rootValue() (value.Value, error) {
	switch r.kind {
	case RootNull:
		return value.Null(), nil
	case RootConstant:
		return r.constant, nil
	case RootTemporary:
		return r.temporary, nil
	case RootVariable:
		if r.variable == nil {
			return value.Null(), nil
		}
		return r.variable.Get(), nil
	default:
		return value.Value{}, errUnresolvedTailCall
	}
}
