package reference

import (
	"asteria/internal/langerr"
	"asteria/internal/value"
	"asteria/internal/variable"
)

// Allocator is supplied by the engine (backed by the collector's pool) so
// that Materialize can promote a temporary's inline value into a freshly
// allocated Variable without this package depending on the collector.
type Allocator func(value.Value) *variable.Variable

// Read applies the modifier chain for a load. Missing keys or out-of-range
// indices yield null; indexing through a non-container yields a type error
// (§4.3).
func (r Reference) Read() (value.Value, error) {
	v, err := r.rootValue()
	if err != nil {
		return value.Value{}, err
	}
	for _, m := range r.modifiers {
		v, err = readModifier(v, m)
		if err != nil {
			return value.Value{}, err
		}
	}
	return v, nil
}

func readModifier(v value.Value, m Modifier) (value.Value, error) {
	if v.IsNull() {
		return value.Null(), nil
	}
	switch m.Kind {
	case ModIndex, ModHead, ModTail:
		if v.Kind() != value.KindArray {
			return value.Value{}, langerr.New(langerr.Type, "index applied to non-array value: %s", v.Kind())
		}
		idx, ok := resolveIndex(m, len(v.Array().Elements))
		if !ok {
			return value.Null(), nil
		}
		return v.Array().Elements[idx], nil
	case ModKey:
		if v.Kind() != value.KindObject {
			return value.Value{}, langerr.New(langerr.Type, "key applied to non-object value: %s", v.Kind())
		}
		ev, ok := v.Object().Get(m.Key)
		if !ok {
			return value.Null(), nil
		}
		return ev, nil
	default:
		return value.Value{}, langerr.New(langerr.Type, "unknown modifier")
	}
}

// resolveIndex turns a signed, possibly negative, possibly head/tail
// modifier into a concrete slice index. ok is false when the index is out
// of the *materialized* bounds on read (which yields null, per §4.3), or
// when write-time extension hasn't happened yet.
func resolveIndex(m Modifier, length int) (int, bool) {
	switch m.Kind {
	case ModHead:
		if length == 0 {
			return 0, false
		}
		return 0, true
	case ModTail:
		if length == 0 {
			return 0, false
		}
		return length - 1, true
	default:
		idx := m.Index
		if idx < 0 {
			idx += int64(length)
		}
		if idx < 0 || idx >= int64(length) {
			return 0, false
		}
		return int(idx), true
	}
}

// Materialize promotes a temporary-rooted Reference's inline Value into a
// freshly allocated Variable so subsequent writes persist (§4.3, §8). It
// is a no-op — returning r unchanged — for every other root kind.
func (r Reference) Materialize(alloc Allocator) Reference {
	if r.kind != RootTemporary {
		return r
	}
	cell := alloc(r.temporary)
	return Reference{kind: RootVariable, variable: cell, modifiers: r.modifiers}
}

// Write applies the modifier chain for a store, materializing any missing
// intermediate container along the way: object keys materialize empty
// objects, array indices materialize arrays, and a negative index that
// reaches past the head extends the array with leading nulls (§4.3).
//
// Writing through a constant root is a type error. Writing through a bare
// temporary (never materialized) is also a type error — Materialize must
// be called first.
func (r Reference) Write(v value.Value) error {
	switch r.kind {
	case RootNull:
		return langerr.New(langerr.Type, "cannot write through a null reference")
	case RootConstant:
		return langerr.New(langerr.Type, "cannot write through a constant reference")
	case RootTemporary:
		return langerr.New(langerr.Type, "cannot write through a temporary reference; materialize it first")
	case RootTailCall:
		return errUnresolvedTailCall
	}
	if r.variable == nil {
		return langerr.New(langerr.Type, "cannot write through a null variable handle")
	}
	if len(r.modifiers) == 0 {
		if r.variable.IsConstant() {
			return langerr.New(langerr.Type, "cannot write through a constant reference")
		}
		r.variable.Set(v)
		return nil
	}
	if r.variable.IsConstant() {
		return langerr.New(langerr.Type, "cannot write through a constant reference")
	}
	root := r.variable.Get()
	newRoot, err := writeThrough(root, r.modifiers, v)
	if err != nil {
		return err
	}
	r.variable.Set(newRoot)
	return nil
}

func writeThrough(container value.Value, mods []Modifier, v value.Value) (value.Value, error) {
	m := mods[0]
	rest := mods[1:]

	switch m.Kind {
	case ModKey:
		if container.IsNull() {
			container = value.NewObjectValue()
		}
		if container.Kind() != value.KindObject {
			return value.Value{}, langerr.New(langerr.Type, "key applied to non-object value: %s", container.Kind())
		}
		obj := container.Object()
		if len(rest) == 0 {
			obj.Set(m.Key, v)
			return container, nil
		}
		child, _ := obj.Get(m.Key)
		newChild, err := writeThrough(child, rest, v)
		if err != nil {
			return value.Value{}, err
		}
		obj.Set(m.Key, newChild)
		return container, nil

	case ModIndex, ModHead, ModTail:
		if container.IsNull() {
			container = value.NewArray()
		}
		if container.Kind() != value.KindArray {
			return value.Value{}, langerr.New(langerr.Type, "index applied to non-array value: %s", container.Kind())
		}
		arr := container.Array()
		idx, err := materializeIndex(arr, m)
		if err != nil {
			return value.Value{}, err
		}
		if len(rest) == 0 {
			arr.Elements[idx] = v
			return container, nil
		}
		newChild, err := writeThrough(arr.Elements[idx], rest, v)
		if err != nil {
			return value.Value{}, err
		}
		arr.Elements[idx] = newChild
		return container, nil

	default:
		return value.Value{}, langerr.New(langerr.Type, "unknown modifier")
	}
}

// materializeIndex grows arr as needed so the modifier's index names a
// valid slot, extending with leading/trailing nulls as §4.3 describes.
func materializeIndex(arr *value.Array, m Modifier) (int, error) {
	switch m.Kind {
	case ModHead:
		if len(arr.Elements) == 0 {
			arr.Elements = append(arr.Elements, value.Null())
		}
		return 0, nil
	case ModTail:
		arr.Elements = append(arr.Elements, value.Null())
		return len(arr.Elements) - 1, nil
	default:
		idx := m.Index
		if idx >= 0 {
			for int64(len(arr.Elements)) <= idx {
				arr.Elements = append(arr.Elements, value.Null())
			}
			return int(idx), nil
		}
		// Negative index: if it reaches past the current head, extend
		// the array at the front with nulls so index -1 is always the
		// last element (§4.3's "negative indices that precede head
		// extend the array with nulls").
		need := -idx - int64(len(arr.Elements))
		if need > 0 {
			prefix := make([]value.Value, need)
			arr.Elements = append(prefix, arr.Elements...)
			return 0, nil
		}
		return len(arr.Elements) + int(idx), nil
	}
}

// Unset removes an object key or gaps an array slot (replacing it with
// null, since the language has no sparse-array representation below the
// Go slice backing it), returning the previously stored Value (§4.3).
func (r Reference) Unset() (value.Value, error) {
	if r.kind != RootVariable || r.variable == nil {
		return value.Value{}, langerr.New(langerr.Type, "cannot unset through a non-variable reference")
	}
	if len(r.modifiers) == 0 {
		old := r.variable.Get()
		r.variable.Set(value.Null())
		return old, nil
	}
	root := r.variable.Get()
	old, newRoot, err := unsetThrough(root, r.modifiers)
	if err != nil {
		return value.Value{}, err
	}
	r.variable.Set(newRoot)
	return old, nil
}

func unsetThrough(container value.Value, mods []Modifier) (value.Value, value.Value, error) {
	m := mods[0]
	rest := mods[1:]
	if container.IsNull() {
		return value.Null(), container, nil
	}
	switch m.Kind {
	case ModKey:
		if container.Kind() != value.KindObject {
			return value.Value{}, value.Value{}, langerr.New(langerr.Type, "key applied to non-object value: %s", container.Kind())
		}
		obj := container.Object()
		if len(rest) == 0 {
			old, _ := obj.Delete(m.Key)
			return old, container, nil
		}
		child, ok := obj.Get(m.Key)
		if !ok {
			return value.Null(), container, nil
		}
		old, newChild, err := unsetThrough(child, rest)
		if err != nil {
			return value.Value{}, value.Value{}, err
		}
		obj.Set(m.Key, newChild)
		return old, container, nil

	case ModIndex, ModHead, ModTail:
		if container.Kind() != value.KindArray {
			return value.Value{}, value.Value{}, langerr.New(langerr.Type, "index applied to non-array value: %s", container.Kind())
		}
		arr := container.Array()
		idx, ok := resolveIndex(m, len(arr.Elements))
		if !ok {
			return value.Null(), container, nil
		}
		if len(rest) == 0 {
			old := arr.Elements[idx]
			arr.Elements[idx] = value.Null()
			return old, container, nil
		}
		old, newChild, err := unsetThrough(arr.Elements[idx], rest)
		if err != nil {
			return value.Value{}, value.Value{}, err
		}
		arr.Elements[idx] = newChild
		return old, container, nil

	default:
		return value.Value{}, value.Value{}, langerr.New(langerr.Type, "unknown modifier")
	}
}

// EnumerateVariables visits the root's Variable handle (if any), or
// recurses into an unmaterialized temporary's or constant's inline Value
// directly (§4.3). It does not recurse into the Variable's own stored
// value itself — the visitor (the collector's mark function) does that
// once it has decided the Variable wasn't already marked, so a shared
// Variable reachable from two References is only walked once per sweep.
func (r Reference) EnumerateVariables(visit value.VariableVisitor) {
	switch r.kind {
	case RootVariable:
		if r.variable != nil {
			visit(r.variable)
		}
	case RootTemporary:
		r.temporary.EnumerateVariables(visit)
	case RootConstant:
		r.constant.EnumerateVariables(visit)
	}
}
