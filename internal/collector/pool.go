// Package collector implements the Global Context of §4.2/§4.6: the
// Variable pool and the three-generation mark-sweep cycle collector that
// owns it. It is modeled directly on
// original_source/asteria/src/runtime/genius_collector.hpp — the same
// generation names (newest/middle/oldest), the same construction order
// (oldest, then middle, then newest, so destruction tears down newest
// first), and the same fixed promotion thresholds (800/60/10).
package collector

import (
	"asteria/internal/variable"
)

// generation is one of the collector's three age-partitioned buckets. It
// owns the doubly-linked list of Variables currently assigned to it and
// counts allocations since its last sweep against threshold.
type generation struct {
	name      variable.Generation
	threshold int
	allocated int
	head      *variable.Variable
	tail      *variable.Variable
	size      int
}

func newGeneration(name variable.Generation, threshold int) *generation {
	return &generation{name: name, threshold: threshold}
}

func (g *generation) link(v *variable.Variable) {
	v.SetGeneration(g.name)
	v.SetPrev(g.tail)
	v.SetNext(nil)
	if g.tail != nil {
		g.tail.SetNext(v)
	} else {
		g.head = v
	}
	g.tail = v
	g.size++
}

func (g *generation) unlink(v *variable.Variable) {
	if p := v.Prev(); p != nil {
		p.SetNext(v.Next())
	} else {
		g.head = v.Next()
	}
	if n := v.Next(); n != nil {
		n.SetPrev(v.Prev())
	} else {
		g.tail = v.Prev()
	}
	v.SetPrev(nil)
	v.SetNext(nil)
	g.size--
}

// moveTo relocates v from g into dst, preserving it (used for promotion);
// dst.head/tail get updated the same way link would.
func (g *generation) moveTo(v *variable.Variable, dst *generation) {
	g.unlink(v)
	dst.link(v)
}

// forEach walks the generation's list front to back. Sweep relies on this
// being safe to call while mutating the list via a saved "next" pointer.
func (g *generation) forEach(visit func(*variable.Variable)) {
	for v := g.head; v != nil; {
		next := v.Next()
		visit(v)
		v = next
	}
}
