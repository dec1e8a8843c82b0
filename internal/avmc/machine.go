package avmc

import (
	"asteria/internal/executive"
	"asteria/internal/reference"
	"asteria/internal/srcloc"
	"asteria/internal/value"
)

// Machine is the per-call evaluation state an Executor runs against: the
// operand stack used to assemble sub-expressions, the active Executive
// Context, the Variable allocator (backed by the collector's pool), and
// the slot a statement leaves its result or tail-call pack in for the
// caller.
type Machine struct {
	Ctx   *executive.Context
	Alloc reference.Allocator

	// Invoke fully resolves a non-tail call: pushes a fresh frame, runs
	// the callee's body (trampolining through any tail calls the callee
	// itself makes), drains deferred expressions, and returns the
	// settled result Reference. Supplied by the engine, which is the
	// only layer that knows how to dispatch both Closures and native
	// stdfn bindings.
	Invoke func(loc srcloc.Location, target value.Function, argsSelf []reference.Reference) (reference.Reference, error)

	stack []reference.Reference

	// Return carries the value a `return` statement is escaping with, or
	// a RootTailCall Reference awaiting resolution by the caller's
	// ptc.Resolve loop (§4.7).
	Return reference.Reference
}

func NewMachine(ctx *executive.Context, alloc reference.Allocator, invoke func(loc srcloc.Location, target value.Function, argsSelf []reference.Reference) (reference.Reference, error)) *Machine {
	return &Machine{Ctx: ctx, Alloc: alloc, Invoke: invoke}
}

func (m *Machine) Push(r reference.Reference) { m.stack = append(m.stack, r) }

func (m *Machine) Pop() reference.Reference {
	n := len(m.stack)
	r := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return r
}

func (m *Machine) Peek() reference.Reference { return m.stack[len(m.stack)-1] }

func (m *Machine) PopN(n int) []reference.Reference {
	out := make([]reference.Reference, n)
	copy(out, m.stack[len(m.stack)-n:])
	m.stack = m.stack[:len(m.stack)-n]
	return out
}

func (m *Machine) StackLen() int { return len(m.stack) }

// PushValue is a convenience for nodes that only ever produce an inline
// result (most expression nodes): it wraps v as a Temporary Reference.
func (m *Machine) PushValue(v value.Value) { m.Push(reference.Temporary(v)) }
