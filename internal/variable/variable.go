// Package variable implements the heap cell References ultimately read and
// write through (§3). A Variable is owned by the collector's pool;
// References only ever hold non-owning handles to one.
package variable

import "asteria/internal/value"

// Color is the collector's per-sweep mark state. It resets to White at the
// start of each sweep of the Variable's generation; Gray/Black are not
// needed by a stop-the-world mark-sweep pass, so Color only distinguishes
// "not yet proven reachable this sweep" from "proven reachable this sweep".
type Color uint8

const (
	White Color = iota
	Marked
)

// Generation identifies which of the collector's three generational
// buckets currently owns a Variable.
type Generation uint8

const (
	Newest Generation = iota
	Middle
	Oldest
)

func (g Generation) String() string {
	switch g {
	case Newest:
		return "newest"
	case Middle:
		return "middle"
	case Oldest:
		return "oldest"
	default:
		return "unknown"
	}
}

// Variable is the heap cell: current Value, const/init flags, and the GC
// bookkeeping the collector needs to thread it into a generation's
// doubly-linked bucket list without a separate side table.
type Variable struct {
	val         value.Value
	constant    bool
	initialized bool

	color Color
	gen   Generation

	// prev/next thread this Variable into its owning generation's
	// traversal order, mirroring the doubly-linked list the
	// executive context's hash table uses for its own bucket order
	// (§4.5) — the same trick applied to generation membership instead
	// of name lookup, so a sweep can walk a generation in O(n) without
	// a separate slice copy.
	prev, next *Variable
}

// New creates a Variable initialized to null, uninitialized, and mutable.
// The collector is the only caller that should construct one (§4.2); it
// registers the result into the pool before taking the return value.
func New() *Variable {
	return &Variable{}
}

func (v *Variable) Get() value.Value { return v.val }

// Set overwrites the value and marks the cell initialized. It does not
// check the constant flag — that check belongs to the reference package's
// write path (§4.3), which knows whether it's writing through a fresh
// declaration or a later mutation.
func (v *Variable) Set(val value.Value) { v.val = val; v.initialized = true }

func (v *Variable) IsConstant() bool   { return v.constant }
func (v *Variable) SetConstant(c bool) { v.constant = c }

func (v *Variable) IsInitialized() bool { return v.initialized }

func (v *Variable) Color() Color      { return v.color }
func (v *Variable) SetColor(c Color)  { v.color = c }

func (v *Variable) Generation() Generation     { return v.gen }
func (v *Variable) SetGeneration(g Generation) { v.gen = g }

func (v *Variable) Prev() *Variable     { return v.prev }
func (v *Variable) Next() *Variable     { return v.next }
func (v *Variable) SetPrev(p *Variable) { v.prev = p }
func (v *Variable) SetNext(n *Variable) { v.next = n }

// EnumerateVariables visits every Handle the Variable's current Value
// reaches, but not the Variable itself — the caller already holds it and
// is responsible for marking it.
func (v *Variable) EnumerateVariables(visit value.VariableVisitor) {
	v.val.EnumerateVariables(visit)
}
