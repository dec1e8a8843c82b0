package ptc

import (
	"testing"

	"asteria/internal/reference"
	"asteria/internal/srcloc"
	"asteria/internal/value"
)

// countdown is a fake script closure: calling it once returns a tail call
// to itself with n-1, until n reaches 0, when it settles on a plain value.
type countdown struct{ n int }

func (c *countdown) Name() string                             { return "countdown" }
func (c *countdown) Arity() int                                { return 1 }
func (c *countdown) IsVariadic() bool                          { return false }
func (c *countdown) Describe() string                          { return "<native countdown>" }
func (c *countdown) EnumerateVariables(visit value.VariableVisitor) {}

func TestResolveFlattensDeepTailCallChain(t *testing.T) {
	const depth = 100000

	var deferRuns int
	runDefer := func(_ srcloc.Location, q any) error { deferRuns++; return nil }

	invoke := func(target value.Function, argsSelf []reference.Reference) (reference.Reference, error) {
		n := argsSelf[0]
		v, err := n.Read()
		if err != nil {
			return reference.Reference{}, err
		}
		remaining := v.Int()
		if remaining == 0 {
			return reference.Temporary(value.Str("done")), nil
		}
		next := &Arguments{
			Target:   target,
			ArgsSelf: []reference.Reference{reference.Temporary(value.Int(remaining - 1))},
		}
		return reference.TailCall(next), nil
	}

	initial := reference.TailCall(&Arguments{
		Target:   &countdown{},
		ArgsSelf: []reference.Reference{reference.Temporary(value.Int(depth))},
	})

	result, err := Resolve(initial, runDefer, invoke)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	v, err := result.Read()
	if err != nil {
		t.Fatal(err)
	}
	if v.Str() != "done" {
		t.Fatalf("got %q, want %q", v.Str(), "done")
	}
}

func TestResolveRunsDeferredFramesLIFO(t *testing.T) {
	var order []int
	runDefer := func(_ srcloc.Location, q any) error {
		order = append(order, q.(int))
		return nil
	}
	invoke := func(target value.Function, argsSelf []reference.Reference) (reference.Reference, error) {
		return reference.Temporary(value.Null()), nil
	}

	initial := reference.TailCall(&Arguments{
		Target: &countdown{},
		Defer: []DeferredFrame{
			{Queue: 1},
			{Queue: 2},
			{Queue: 3},
		},
	})

	if _, err := Resolve(initial, runDefer, invoke); err != nil {
		t.Fatal(err)
	}
	want := []int{3, 2, 1}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("defer order = %v, want %v", order, want)
		}
	}
}

func TestResolvePassesThroughNonTailCallReference(t *testing.T) {
	plain := reference.Temporary(value.Int(7))
	result, err := Resolve(plain, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	v, _ := result.Read()
	if v.Int() != 7 {
		t.Fatalf("got %d, want 7", v.Int())
	}
}
