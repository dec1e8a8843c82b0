// Package ptc implements the proper-tail-call Arguments pack and the
// trampoline loop of §4.7, modeled on
// original_source/asteria/src/runtime/ptc_arguments.hpp. It is deliberately
// ignorant of avmc and executive: the deferred stack's Queue slot and the
// invoke/runDefer callbacks are typed as plain functions supplied by the
// engine, so this package never imports either and the dependency only
// runs one way.
package ptc

import (
	"asteria/internal/exception"
	"asteria/internal/langerr"
	"asteria/internal/reference"
	"asteria/internal/srcloc"
	"asteria/internal/value"
)

// Awareness records what the caller of a tail-call pack expects back:
// nothing (AwareVoid) or the callee's value (AwareValue). Both values
// denote a call in tail position.
type Awareness uint8

const (
	AwareVoid  Awareness = iota // tail position, caller discards the value
	AwareValue                  // tail position, caller wants the value
)

// DeferredFrame pairs a defer statement's source location with its body,
// stored as an opaque Handle (a *avmc.Queue in practice) so this package
// never needs to import avmc.
type DeferredFrame struct {
	Loc   srcloc.Location
	Queue any
}

// Arguments is the packed payload of a RootTailCall Reference: the callee,
// its argument-plus-self vector, and the stack of deferred expressions
// that accumulated in the caller's context between entry and the tail
// return and must run (in reverse push order) before the callee is
// actually entered.
type Arguments struct {
	Loc      srcloc.Location
	Target   value.Function
	ArgsSelf []reference.Reference
	Defer    []DeferredFrame
	Aware    Awareness
}

// Invoker enters a callee's executor with the packed argument vector and
// produces the Reference the call evaluates to — which may itself be
// another RootTailCall Reference, continuing the trampoline.
type Invoker func(target value.Function, argsSelf []reference.Reference) (reference.Reference, error)

// DeferRunner executes one deferred expression's queue, returning whatever
// error that one expression raised. The frame that pushed the entry has
// already exited, so the runner picks the scope it runs in (the engine's
// runner uses a fresh child of the global scope). Resolve is responsible for draining every entry regardless of
// earlier failures and folding them into a single note chain (§4.5, §7).
type DeferRunner func(loc srcloc.Location, queue any) error

// Resolve drives the trampoline of §4.7: while the current Reference is a
// tail call, drain its deferred stack LIFO, then re-enter the target with
// the packed arguments, replacing the current Reference with the result.
// The loop is flat, not recursive, so an arbitrarily long chain of tail
// calls costs O(1) native stack regardless of depth.
func Resolve(initial reference.Reference, runDefer DeferRunner, invoke Invoker) (reference.Reference, error) {
	current := initial
	for current.Kind() == reference.RootTailCall {
		args, ok := current.TailCallArgs().(*Arguments)
		if !ok {
			return reference.Reference{}, langerr.New(langerr.Type, "malformed tail call reference")
		}
		var firstDeferErr *exception.Traceable
		for i := len(args.Defer) - 1; i >= 0; i-- {
			d := args.Defer[i]
			if err := runDefer(d.Loc, d.Queue); err != nil {
				t := exception.FromGoError(d.Loc, err)
				if firstDeferErr == nil {
					firstDeferErr = t
				} else {
					firstDeferErr.AddNote(t)
				}
			}
		}
		if firstDeferErr != nil {
			return reference.Reference{}, firstDeferErr
		}
		next, err := invoke(args.Target, args.ArgsSelf)
		if err != nil {
			return reference.Reference{}, err
		}
		current = next
	}
	return current, nil
}

// EnumerateVariables reaches every Variable captured in the packed
// argument References. The engine's root scan does not call it, so the
// arguments of a pack waiting in Resolve are not marked as GC roots.
func (a *Arguments) EnumerateVariables(visit value.VariableVisitor) {
	for _, r := range a.ArgsSelf {
		r.EnumerateVariables(visit)
	}
}
