package reference

import (
	"testing"

	"asteria/internal/value"
	"asteria/internal/variable"
)

func newCell(v value.Value) *variable.Variable {
	c := variable.New()
	c.Set(v)
	return c
}

func TestReadIndexNegativeWrapsFromTail(t *testing.T) {
	arr := value.NewArray()
	arr.Array().Elements = []value.Value{value.Int(1), value.Int(2), value.Int(3)}
	r := Variable(newCell(arr)).ZoomIn(Modifier{Kind: ModIndex, Index: -1})
	got, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}
	if got.Describe() != "3" {
		t.Fatalf("got %s, want 3", got.Describe())
	}
}

func TestReadOutOfRangeIndexYieldsNull(t *testing.T) {
	arr := value.NewArray()
	arr.Array().Elements = []value.Value{value.Int(1)}
	r := Variable(newCell(arr)).ZoomIn(Modifier{Kind: ModIndex, Index: 5})
	got, err := r.Read()
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsNull() {
		t.Fatalf("got %s, want null", got.Describe())
	}
}

func TestReadKeyThroughNonObjectIsTypeError(t *testing.T) {
	r := Variable(newCell(value.Int(5))).ZoomIn(Modifier{Kind: ModKey, Key: "x"})
	if _, err := r.Read(); err == nil {
		t.Fatal("expected a type error")
	}
}

func TestWriteThroughKeyMaterializesObject(t *testing.T) {
	cell := newCell(value.Null())
	r := Variable(cell).ZoomIn(Modifier{Kind: ModKey, Key: "a"})
	if err := r.Write(value.Int(7)); err != nil {
		t.Fatal(err)
	}
	got := cell.Get()
	if got.Kind() != value.KindObject {
		t.Fatalf("root did not materialize into an object: %v", got.Kind())
	}
	v, ok := got.Object().Get("a")
	if !ok || v.Describe() != "7" {
		t.Fatalf("got %v, %v", v, ok)
	}
}

func TestWriteNegativeIndexPastHeadExtendsWithNulls(t *testing.T) {
	cell := newCell(value.NewArray())
	cell.Get().Array().Elements = []value.Value{value.Int(1)}
	r := Variable(cell).ZoomIn(Modifier{Kind: ModIndex, Index: -3})
	if err := r.Write(value.Int(9)); err != nil {
		t.Fatal(err)
	}
	elems := cell.Get().Array().Elements
	if len(elems) != 3 {
		t.Fatalf("got len %d, want 3", len(elems))
	}
	if elems[0].Describe() != "9" {
		t.Fatalf("got head %s, want 9", elems[0].Describe())
	}
	if !elems[1].IsNull() {
		t.Fatalf("expected a null gap, got %s", elems[1].Describe())
	}
}

func TestWriteThroughConstantIsRejected(t *testing.T) {
	cell := newCell(value.Int(1))
	cell.SetConstant(true)
	r := Variable(cell)
	if err := r.Write(value.Int(2)); err == nil {
		t.Fatal("expected write through a constant to fail")
	}
}

func TestWriteThroughTemporaryRequiresMaterializeFirst(t *testing.T) {
	r := Temporary(value.Int(1))
	if err := r.Write(value.Int(2)); err == nil {
		t.Fatal("expected write through an unmaterialized temporary to fail")
	}
}

func TestMaterializePromotesTemporaryToVariable(t *testing.T) {
	r := Temporary(value.Int(41))
	var got *variable.Variable
	alloc := func(v value.Value) *variable.Variable {
		got = variable.New()
		got.Set(v)
		return got
	}
	m := r.Materialize(alloc)
	if m.Kind() != RootVariable {
		t.Fatalf("got kind %v, want RootVariable", m.Kind())
	}
	if got.Get().Describe() != "41" {
		t.Fatalf("allocated cell holds %s, want 41", got.Get().Describe())
	}
}

func TestUnsetObjectKeyReturnsOldValue(t *testing.T) {
	obj := value.NewObjectValue()
	obj.Object().Set("k", value.Int(3))
	cell := newCell(obj)
	r := Variable(cell).ZoomIn(Modifier{Kind: ModKey, Key: "k"})
	old, err := r.Unset()
	if err != nil {
		t.Fatal(err)
	}
	if old.Describe() != "3" {
		t.Fatalf("got old %s, want 3", old.Describe())
	}
	if _, ok := cell.Get().Object().Get("k"); ok {
		t.Fatal("key still present after unset")
	}
}

func TestEnumerateVariablesOnVariableRootVisitsExactlyItself(t *testing.T) {
	cell := newCell(value.Int(1))
	r := Variable(cell)
	var seen []*variable.Variable
	r.EnumerateVariables(func(h value.Handle) {
		if v, ok := h.(*variable.Variable); ok {
			seen = append(seen, v)
		}
	})
	if len(seen) != 1 || seen[0] != cell {
		t.Fatalf("got %v, want exactly [cell]", seen)
	}
}

func TestReadUnresolvedTailCallErrors(t *testing.T) {
	r := TailCall(struct{}{})
	if _, err := r.Read(); err == nil {
		t.Fatal("expected reading a tail-call reference to fail")
	}
}
