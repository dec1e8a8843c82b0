// Package avmc implements the AVMC Queue of §4.4: a sequential program of
// executor calls, each carrying its own payload, destructor, and variable
// enumerator, that a lowering pass (here, the minimal compiler in
// internal/compiler) solidifies a syntax tree into.
//
// Nodes are a slice of structs rather than a packed byte buffer — §9
// explicitly allows replacing the 48-bit-immediate-plus-trailing-payload
// density optimization with "a fixed-size opcode + external payload pool
// provided iteration remains O(1) per node and enumeration still reaches
// every embedded Variable," which is exactly what this does.
package avmc

import (
	"asteria/internal/srcloc"
	"asteria/internal/value"
)

// Status is the AIR_Status of §4.4/glossary: the discriminated result of
// one executor step controlling local control flow.
type Status uint8

const (
	StatusNext Status = iota
	StatusReturn
	StatusBreakSwitch
	StatusBreakWhile
	StatusBreakFor
	StatusContinueWhile
	StatusContinueFor
)

// Executor runs one node against the Machine, returning the status that
// propagates to the enclosing construct.
type Executor func(m *Machine, n *Node) (Status, error)

// Enumerator visits every Handle (typically a captured *variable.Variable)
// embedded in a node's payload — closure captures and heap-valued literal
// constants, mainly (§4.4).
type Enumerator func(n *Node, visit value.VariableVisitor)

// Destructor releases any non-trivial resources a node's payload owns.
// Most nodes are trivial (nil destructor) and are skipped during queue
// destruction.
type Destructor func(n *Node)

// Node is one element of a Queue. ParamU is the 48-bit-style inline
// immediate of §4.4, here simply a uint64 — Go gives us no reason to
// fight for the last 16 bits once the struct has a pointer-sized Payload
// slot anyway.
type Node struct {
	ParamU  uint64
	Symbols string
	Loc     srcloc.Location
	Payload any

	exec     Executor
	enum     Enumerator
	destruct Destructor
}

// Queue is the append-only program. Request/Append form the two-phase
// append protocol of §4.4: Request grows a reservation counter so a
// mid-construction allocation failure can't leave the queue half-built;
// Append performs the actual insert, which Go's append() already does
// without risking corruption, but the two-phase shape is kept to mirror
// how the AVMC queue's own two-pass builder works in the original runtime.
// Request is optional: the compiler emits nodes with Append alone.
type Queue struct {
	nodes     []Node
	requested int
}

func NewQueue() *Queue { return &Queue{} }

// Request reserves room for n additional nodes.
func (q *Queue) Request(n int) {
	q.requested += n
	if cap(q.nodes)-len(q.nodes) < q.requested {
		grown := make([]Node, len(q.nodes), len(q.nodes)+q.requested)
		copy(grown, q.nodes)
		q.nodes = grown
	}
}

// Append installs one node built from the given Executor/Enumerator/
// Destructor triple. For trivial payloads (no destructor), callers simply
// pass a nil Destructor and nothing is recorded for queue teardown.
func (q *Queue) Append(loc srcloc.Location, paramu uint64, symbols string, payload any, exec Executor, enum Enumerator, destruct Destructor) {
	q.nodes = append(q.nodes, Node{
		ParamU: paramu, Symbols: symbols, Loc: loc, Payload: payload,
		exec: exec, enum: enum, destruct: destruct,
	})
	if q.requested > 0 {
		q.requested--
	}
}

func (q *Queue) Len() int { return len(q.nodes) }

// Execute walks nodes in strict sequence (§5: "executor calls are
// strictly sequential and side-effects are visible to later nodes"). A
// non-next Status returned by a node stops the walk and propagates
// upward; the caller (a loop's body queue, a switch's case queue, the
// function-body queue) decides whether to absorb it.
func (q *Queue) Execute(m *Machine) (Status, error) {
	for i := range q.nodes {
		n := &q.nodes[i]
		st, err := n.exec(m, n)
		if err != nil {
			return StatusNext, err
		}
		if st != StatusNext {
			return st, nil
		}
	}
	return StatusNext, nil
}

// EnumerateVariables walks every node and invokes its recorded enumerator,
// reaching every Variable embedded in any node's payload (§4.4).
func (q *Queue) EnumerateVariables(visit value.VariableVisitor) {
	for i := range q.nodes {
		n := &q.nodes[i]
		if n.enum != nil {
			n.enum(n, visit)
		}
	}
}

// Destroy invokes each non-trivial node's destructor exactly once, in
// reverse append order, then discards the buffer (§4.4, §8's testable
// property on destructor ordering).
func (q *Queue) Destroy() {
	for i := len(q.nodes) - 1; i >= 0; i-- {
		n := &q.nodes[i]
		if n.destruct != nil {
			n.destruct(n)
		}
	}
	q.nodes = nil
}
