package avmc

import (
	"testing"

	"asteria/internal/executive"
	"asteria/internal/reference"
	"asteria/internal/srcloc"
	"asteria/internal/value"
	"asteria/internal/variable"
)

// TestClosureEnumerateVariablesWalksEnclosingChain guards the bug fixed
// in DESIGN.md: a closure's upvalues live in the Context chain it closed
// over, not just in its own body Queue, and the collector must see all of
// it or a sweep between the closure's creation and its next invocation
// collects a variable it still needs.
func TestClosureEnumerateVariablesWalksEnclosingChain(t *testing.T) {
	outer := executive.New(executive.FlagPlainBlock)
	outerVar := variable.New()
	outerVar.Set(value.Int(1))
	outer.Declare("n", reference.Variable(outerVar))

	inner := outer.Child(executive.FlagFunctionBody)
	innerVar := variable.New()
	innerVar.Set(value.Int(2))
	inner.Declare("m", reference.Variable(innerVar))

	c := NewClosure("adder", []string{"x"}, false, NewQueue(), inner)

	seen := map[*variable.Variable]bool{}
	c.EnumerateVariables(func(h value.Handle) {
		if v, ok := h.(*variable.Variable); ok {
			seen[v] = true
		}
	})

	if !seen[outerVar] {
		t.Fatal("EnumerateVariables did not reach the outer enclosing Context's variable")
	}
	if !seen[innerVar] {
		t.Fatal("EnumerateVariables did not reach the immediate enclosing Context's variable")
	}
}

// TestClosureEnumerateVariablesReachesBodyLiterals confirms the other half
// of EnumerateVariables: a Variable captured directly by a node in the
// body Queue (not via the enclosing chain) is still visited.
func TestClosureEnumerateVariablesReachesBodyLiterals(t *testing.T) {
	body := NewQueue()
	cell := variable.New()
	cell.Set(value.Str("captured"))
	body.Request(1)
	body.Append(srcloc.Location{}, 0, "", nil,
		func(m *Machine, n *Node) (Status, error) { return StatusNext, nil },
		func(n *Node, visit value.VariableVisitor) { visit(cell) },
		nil)

	c := NewClosure("f", nil, false, body, executive.New(executive.FlagPlainBlock))

	var found bool
	c.EnumerateVariables(func(h value.Handle) {
		if v, ok := h.(*variable.Variable); ok && v == cell {
			found = true
		}
	})
	if !found {
		t.Fatal("EnumerateVariables did not reach a Variable captured directly in the body Queue")
	}
}
