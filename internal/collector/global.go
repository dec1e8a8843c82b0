package collector

import (
	"context"

	"golang.org/x/sync/semaphore"

	"asteria/internal/executive"
	"asteria/internal/langerr"
	"asteria/internal/value"
	"asteria/internal/variable"
)

// Global is the Genius_Collector-equivalent root heap: the Variable pool,
// three named generations at fixed promotion thresholds, and the mounted
// global Executive Context standard functions and script globals bind
// into. Construction order matches
// original_source/asteria/src/runtime/genius_collector.hpp: oldest,
// then middle, then newest, so that a teardown in reverse
// field-declaration order releases newest (the generation with the most
// short-lived garbage) first.
type Global struct {
	oldest *generation
	middle *generation
	newest *generation
	size   int

	names *executive.Context

	// guard serializes embedder access per §5 ("Multiple concurrent
	// mutators on one Global Context are undefined; embedders must
	// serialize."). A single-weighted semaphore gives callers a
	// TryAcquire-checked violation instead of silent corruption.
	guard *semaphore.Weighted
}

func NewGlobal() *Global {
	g := &Global{
		oldest: newGeneration(variable.Oldest, 10),
		middle: newGeneration(variable.Middle, 60),
		newest: newGeneration(variable.Newest, 800),
		names:  executive.New(0),
		guard:  semaphore.NewWeighted(1),
	}
	return g
}

// Names returns the global scope's Executive Context — the root of every
// context chain, and the frame standard-library bindings mount into.
func (g *Global) Names() *executive.Context { return g.names }

// PoolSize reports the number of live Variables across all generations
// (§4.2's get_pool_size).
func (g *Global) PoolSize() int { return g.size }

// Acquire/Release implement the §5 serialization guard. Acquire returns an
// error rather than blocking: a blocked embedder thread is a worse failure
// mode than a loud "you violated the single-mutator contract" error.
func (g *Global) Acquire() error {
	if !g.guard.TryAcquire(1) {
		return langerr.New(langerr.Runtime, "Global Context is already in use by another mutator")
	}
	return nil
}

func (g *Global) Release() { g.guard.Release(1) }

// CreateVariable allocates a fresh, null, mutable, uninitialized Variable
// into the newest generation and registers it in the pool (§4.2).
func (g *Global) CreateVariable() *variable.Variable {
	v := variable.New()
	g.newest.link(v)
	g.size++
	g.newest.allocated++
	return v
}

// ClearPool destroys every Variable unconditionally — the shutdown
// escape hatch named in §4.2 and §6.
func (g *Global) ClearPool() {
	g.oldest = newGeneration(variable.Oldest, g.oldest.threshold)
	g.middle = newGeneration(variable.Middle, g.middle.threshold)
	g.newest = newGeneration(variable.Newest, g.newest.threshold)
	g.size = 0
}

// MaybeAutoCollect triggers a sweep of the newest generation if its
// allocation counter has crossed threshold, per §4.6. markRoots is
// supplied by the engine. The engine's callback marks the global scope,
// every active frame's Context chain and the deferred queues pushed into
// those Contexts; it does not mark the arguments of a pending tail-call
// pack or the value of an exception that is propagating.
func (g *Global) MaybeAutoCollect(markRoots func(mark value.VariableVisitor)) int {
	if g.newest.allocated < g.newest.threshold {
		return 0
	}
	return g.Collect(variable.Newest, markRoots)
}

// Collect runs a sweep of limit and, per §4.6 point 3, implicitly
// pre-sweeps every younger generation first so that no older generation
// ever ends up holding a reference to a younger Variable that survived
// but wasn't itself promoted into the set being swept.
func (g *Global) Collect(limit variable.Generation, markRoots func(mark value.VariableVisitor)) int {
	var order []*generation
	switch limit {
	case variable.Newest:
		order = []*generation{g.newest}
	case variable.Middle:
		order = []*generation{g.newest, g.middle}
	default:
		order = []*generation{g.newest, g.middle, g.oldest}
	}

	total := 0
	for _, gen := range order {
		total += g.sweepOne(gen, markRoots)
	}
	return total
}

func (g *Global) sweepOne(gen *generation, markRoots func(mark value.VariableVisitor)) int {
	g.resetColors()
	markRoots(g.mark)

	var promote *generation
	switch gen.name {
	case variable.Newest:
		promote = g.middle
	case variable.Middle:
		promote = g.oldest
	default:
		promote = nil // the oldest generation has nowhere further to promote to
	}

	collected := 0
	gen.forEach(func(v *variable.Variable) {
		if v.Color() == variable.Marked {
			v.SetColor(variable.White)
			if promote != nil {
				gen.moveTo(v, promote)
			}
			return
		}
		gen.unlink(v)
		g.size--
		collected++
	})
	gen.allocated = 0
	return collected
}

// mark implements the re-entrant-safe reachability visitor of §4.6: a
// Variable that is already marked in this pass short-circuits, which is
// what makes marking cyclic graphs terminate.
func (g *Global) mark(h value.Handle) {
	v, ok := h.(*variable.Variable)
	if !ok || v == nil || v.Color() == variable.Marked {
		return
	}
	v.SetColor(variable.Marked)
	v.EnumerateVariables(g.mark)
}

func (g *Global) resetColors() {
	reset := func(v *variable.Variable) { v.SetColor(variable.White) }
	g.newest.forEach(reset)
	g.middle.forEach(reset)
	g.oldest.forEach(reset)
}

// AcquireBlocking waits for the mutator guard instead of failing fast,
// for embedders that would rather block than retry on contention.
func (g *Global) AcquireBlocking(ctx context.Context) error {
	return g.guard.Acquire(ctx, 1)
}
