package executive

import (
	"fmt"
	"testing"

	"asteria/internal/reference"
	"asteria/internal/srcloc"
	"asteria/internal/value"
)

func TestDeclareAndLookupRoundTrip(t *testing.T) {
	ctx := New(FlagPlainBlock)
	ctx.Declare("x", reference.Temporary(value.Int(1)))
	ref, ok := ctx.Lookup("x")
	if !ok {
		t.Fatal("expected x to be found")
	}
	v, err := ref.Read()
	if err != nil {
		t.Fatal(err)
	}
	if v.Describe() != "1" {
		t.Fatalf("got %s, want 1", v.Describe())
	}
}

func TestLookupWalksParentChain(t *testing.T) {
	parent := New(FlagPlainBlock)
	parent.Declare("outer", reference.Temporary(value.Int(7)))
	child := parent.Child(FlagPlainBlock)
	ref, ok := child.Lookup("outer")
	if !ok {
		t.Fatal("expected child to see a parent binding")
	}
	v, _ := ref.Read()
	if v.Describe() != "7" {
		t.Fatalf("got %s, want 7", v.Describe())
	}
}

func TestLookupLocalDoesNotSeeParentBinding(t *testing.T) {
	parent := New(FlagPlainBlock)
	parent.Declare("outer", reference.Temporary(value.Int(7)))
	child := parent.Child(FlagPlainBlock)
	if _, ok := child.LookupLocal("outer"); ok {
		t.Fatal("LookupLocal must not walk past this Context")
	}
}

func TestRedeclareInSameContextOverwrites(t *testing.T) {
	ctx := New(FlagPlainBlock)
	ctx.Declare("x", reference.Temporary(value.Int(1)))
	ctx.Declare("x", reference.Temporary(value.Int(2)))
	ref, _ := ctx.Lookup("x")
	v, _ := ref.Read()
	if v.Describe() != "2" {
		t.Fatalf("got %s, want 2 (redeclare should overwrite, not shadow itself)", v.Describe())
	}
}

func TestShadowingDoesNotMutateParentBinding(t *testing.T) {
	parent := New(FlagPlainBlock)
	parent.Declare("x", reference.Temporary(value.Int(1)))
	child := parent.Child(FlagPlainBlock)
	child.Declare("x", reference.Temporary(value.Int(99)))

	parentRef, _ := parent.Lookup("x")
	pv, _ := parentRef.Read()
	if pv.Describe() != "1" {
		t.Fatalf("parent binding mutated by child shadow: got %s", pv.Describe())
	}
}

func TestEnumerateNamesVisitsInInsertionOrder(t *testing.T) {
	ctx := New(FlagPlainBlock)
	ctx.Declare("a", reference.Temporary(value.Int(1)))
	ctx.Declare("b", reference.Temporary(value.Int(2)))
	ctx.Declare("c", reference.Temporary(value.Int(3)))

	var names []string
	ctx.EnumerateNames(func(name string, _ reference.Reference) {
		names = append(names, name)
	})
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestEnumerateNamesSurvivesGrowth(t *testing.T) {
	ctx := New(FlagPlainBlock)
	for i := 0; i < 64; i++ {
		ctx.Declare(fmt.Sprintf("n%d", i), reference.Temporary(value.Int(int64(i))))
	}
	count := 0
	ctx.EnumerateNames(func(string, reference.Reference) { count++ })
	if count != 64 {
		t.Fatalf("got %d names, want 64 after growth", count)
	}
}

func TestPushDeferredPreservesPushOrder(t *testing.T) {
	ctx := New(FlagFunctionBody)
	ctx.PushDeferred(srcloc.Location{Line: 1}, "first")
	ctx.PushDeferred(srcloc.Location{Line: 2}, "second")
	entries := ctx.DeferredStack()
	if len(entries) != 2 || entries[0].Queue != "first" || entries[1].Queue != "second" {
		t.Fatalf("got %+v", entries)
	}
}

func TestHasReportsExactFlagMembership(t *testing.T) {
	ctx := New(FlagFunctionBody | FlagCatchClause)
	if !ctx.Has(FlagFunctionBody) || !ctx.Has(FlagCatchClause) {
		t.Fatal("expected both flags set")
	}
	if ctx.Has(FlagDeferBody) {
		t.Fatal("did not expect FlagDeferBody to be set")
	}
}
