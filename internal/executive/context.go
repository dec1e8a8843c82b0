// Package executive implements the lexical frame References are resolved
// against (§3 Executive Context, §4.5). A Context is a name-to-Reference
// hash table chained to a parent, plus the per-frame deferred-expression
// stack and flags that classify what kind of block the frame represents.
//
// The deferred queue field is stored as `any` rather than a concrete
// *avmc.Queue: the avmc package needs to hold *executive.Context (to run a
// queue against a frame), so this package cannot import avmc back without
// a cycle. The engine package, which imports both, does the type
// assertion when it drains the stack.
package executive

import "asteria/internal/reference"
import "asteria/internal/srcloc"

// Flags classifies what a Context's block represents, per §3.
type Flags uint8

const (
	FlagFunctionBody Flags = 1 << iota
	FlagPlainBlock
	FlagCatchClause
	FlagDeferBody
)

// DeferredEntry pairs a source location with the opaque AVMC queue the
// engine will run for it on scope exit.
type DeferredEntry struct {
	Loc   srcloc.Location
	Queue any
}

// Context is one lexical frame.
type Context struct {
	table  hashTable
	parent *Context
	flags  Flags

	deferred []DeferredEntry
}

// New creates a root-less Context (a function body's top frame, or the
// Global Context's root scope).
func New(flags Flags) *Context {
	return &Context{flags: flags, table: newHashTable()}
}

// Child creates a nested Context whose name lookups fall back to c.
func (c *Context) Child(flags Flags) *Context {
	return &Context{flags: flags, parent: c, table: newHashTable()}
}

func (c *Context) Parent() *Context { return c.parent }
func (c *Context) Flags() Flags     { return c.flags }
func (c *Context) Has(f Flags) bool { return c.flags&f != 0 }

// Declare inserts a new name binding owned by this Context, shadowing any
// binding of the same name in an enclosing Context. Redeclaring a name
// already bound in *this* Context overwrites the binding, matching how a
// script re-running the same `var` statement in a loop body should behave.
func (c *Context) Declare(name string, ref reference.Reference) {
	c.table.set(name, ref)
}

// Lookup walks the chain from innermost outward, returning the first hit
// (§4.5). The bool result is false on "unbound name".
func (c *Context) Lookup(name string) (reference.Reference, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if ref, ok := ctx.table.get(name); ok {
			return ref, true
		}
	}
	return reference.Reference{}, false
}

// LookupLocal looks up name only in this Context, not its ancestors.
func (c *Context) LookupLocal(name string) (reference.Reference, bool) {
	return c.table.get(name)
}

// PushDeferred records an expression to run when this Context's scope
// exits, in LIFO order relative to other deferred entries in the same
// Context (§4.5, §8 scenario 6).
func (c *Context) PushDeferred(loc srcloc.Location, queue any) {
	c.deferred = append(c.deferred, DeferredEntry{Loc: loc, Queue: queue})
}

// DeferredStack returns the entries in push order; the caller (the
// engine's scope-exit logic) is responsible for draining it LIFO.
func (c *Context) DeferredStack() []DeferredEntry {
	return c.deferred
}

// EnumerateNames visits every name bound directly in this Context, in
// insertion order, for the collector's root scan and for diagnostics.
func (c *Context) EnumerateNames(visit func(name string, ref reference.Reference)) {
	c.table.forEach(visit)
}
