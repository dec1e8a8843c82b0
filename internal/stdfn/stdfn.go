// Package stdfn implements the standard-function binding shape of §4.1's
// Function value kind for native Go code: a self Reference, an argument
// vector, and a Global Context parameter. Self travels separately
// (Args.Self) and is not appended to the argument vector. The shape mirrors how the teacher's internal/stdlib package
// registers variadic Go closures under a script-visible name — adapted
// here to read typed Values out of Reference slots instead of
// interface{} and a Global Context handle instead of a bare *vm.VM.
package stdfn

import (
	"asteria/internal/collector"
	"asteria/internal/langerr"
	"asteria/internal/reference"
	"asteria/internal/value"
)

// Args is the packed call frame a Body sees: the reads of every argument
// Reference plus self, in push order, and the Global Context the call is
// running against (so a native binding can allocate Variables, trigger a
// collection, or look up a global).
type Args struct {
	Values []value.Value
	Self   value.Value
	Global *collector.Global
}

func (a *Args) Len() int { return len(a.Values) }

// At returns the i'th argument, or null if the call was made with fewer
// arguments than the binding's Arity — the teacher's stdlib functions
// reject this with an explicit arity check instead; §4.1 leaves the
// exact policy to the binding, so At's null-padding is the permissive
// default and individual bindings (checksum, in particular) still check
// Kind() themselves and raise a TypeError on mismatch.
func (a *Args) At(i int) value.Value {
	if i < 0 || i >= len(a.Values) {
		return value.Null()
	}
	return a.Values[i]
}

// Body is the Go function a Native binding actually runs.
type Body func(args *Args) (value.Value, error)

// Native implements value.Function for a standard-library binding. It
// carries no executor/destructor/enumerator — native functions own no
// AVMC queue and capture no Variables of their own, so EnumerateVariables
// is a no-op (§4.1: "native bindings are leaves of the GC graph").
type Native struct {
	name     string
	arity    int
	variadic bool
	body     Body
}

func New(name string, arity int, variadic bool, body Body) *Native {
	return &Native{name: name, arity: arity, variadic: variadic, body: body}
}

func (n *Native) Name() string     { return n.name }
func (n *Native) Arity() int       { return n.arity }
func (n *Native) IsVariadic() bool { return n.variadic }
func (n *Native) Describe() string { return "<native function " + n.name + ">" }

func (n *Native) EnumerateVariables(value.VariableVisitor) {}

// Call resolves argRefs (and self) into an Args frame and runs the
// binding. The engine calls this directly for a Native target instead of
// pushing an AVMC frame, since there is no Queue to execute (§4.1).
func (n *Native) Call(global *collector.Global, selfRef reference.Reference, argRefs []reference.Reference) (value.Value, error) {
	if !n.variadic && len(argRefs) != n.arity {
		return value.Value{}, langerr.New(langerr.Runtime, "no matching function call for %s: expected %d argument(s), got %d", n.name, n.arity, len(argRefs))
	}
	if n.variadic && len(argRefs) < n.arity {
		return value.Value{}, langerr.New(langerr.Runtime, "no matching function call for %s: expected at least %d argument(s), got %d", n.name, n.arity, len(argRefs))
	}
	vals := make([]value.Value, len(argRefs))
	for i, r := range argRefs {
		v, err := r.Read()
		if err != nil {
			return value.Value{}, err
		}
		vals[i] = v
	}
	self := value.Null()
	if selfRef.Kind() != reference.RootNull {
		sv, err := selfRef.Read()
		if err != nil {
			return value.Value{}, err
		}
		self = sv
	}
	return n.body(&Args{Values: vals, Self: self, Global: global})
}

var _ value.Function = (*Native)(nil)
