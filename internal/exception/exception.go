// Package exception implements the Traceable Exception of §4.8: a thrown
// Value, the throw's source location, and an append-only backtrace of
// frames. It is modeled on
// original_source/asteria/src/runtime/traceable_exception.hpp.
package exception

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"asteria/internal/langerr"
	"asteria/internal/srcloc"
	"asteria/internal/value"
)

// FrameKind tags what kind of boundary a backtrace frame records (§4.8).
type FrameKind string

const (
	FrameNative   FrameKind = "native"
	FrameThrow    FrameKind = "throw"
	FrameCatch    FrameKind = "catch"
	FramePlain    FrameKind = "plain"
	FrameFunction FrameKind = "function"
	FrameDefer    FrameKind = "defer"
	FrameAssert   FrameKind = "assert"
)

type Frame struct {
	Kind FrameKind
	Loc  srcloc.Location
}

// Traceable carries the thrown Value, its origin, and the frames appended
// as the exception propagates past each context boundary.
type Traceable struct {
	loc       srcloc.Location
	val       value.Value
	backtrace []Frame

	// kind is set only when this Traceable was synthesized from a
	// *langerr.Error (native code); a script-level `throw` of an
	// arbitrary Value leaves it at the zero value, which IsResource
	// always treats as catchable.
	kind langerr.Kind

	// notes holds any errors raised by a deferred expression or
	// destructor while this exception was already in flight (§4.5, §7:
	// "Destructors and deferred expressions never re-raise; any error
	// they encounter is attached as a nested note on the in-flight
	// exception").
	notes []error
}

func New(loc srcloc.Location, val value.Value) *Traceable {
	return &Traceable{loc: loc, val: val}
}

// FromGoError wraps a foreign Go error (typically a *langerr.Error) as a
// Traceable whose thrown Value is the error's message as a string. Native
// bindings raise errors this way without constructing a Value by hand.
func FromGoError(loc srcloc.Location, err error) *Traceable {
	if t, ok := err.(*Traceable); ok {
		return t
	}
	kind := langerr.Runtime
	if le, ok := pkgerrors.Cause(err).(*langerr.Error); ok {
		kind = le.Kind
	}
	wrapped := pkgerrors.WithStack(err)
	return &Traceable{loc: loc, val: value.Str(wrapped.Error()), kind: kind}
}

func (t *Traceable) Error() string {
	return fmt.Sprintf("unhandled exception: %s (at %s)", t.val.Describe(), t.loc)
}

func (t *Traceable) Location() srcloc.Location   { return t.loc }
func (t *Traceable) Value() value.Value          { return t.val }
func (t *Traceable) Backtrace() []Frame          { return append([]Frame(nil), t.backtrace...) }

// AppendFrame records exactly one frame before the exception continues
// unwinding past a context boundary (§4.8, §7: "Every frame boundary
// appends exactly one frame before re-throw").
func (t *Traceable) AppendFrame(kind FrameKind, loc srcloc.Location) {
	t.backtrace = append(t.backtrace, Frame{Kind: kind, Loc: loc})
}

// AddNote attaches a secondary failure encountered while this exception
// was already unwinding, without replacing or re-raising it.
func (t *Traceable) AddNote(err error) {
	if err == nil {
		return
	}
	t.notes = append(t.notes, err)
}

func (t *Traceable) Notes() []error { return append([]error(nil), t.notes...) }

// IsResource reports whether the underlying cause is a Resource error,
// which §7 says must bubble straight to the embedder and can never be
// caught by a script-level catch clause.
func (t *Traceable) IsResource() bool {
	return t.kind == langerr.Resource
}
