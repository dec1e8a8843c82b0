// Package engine orchestrates every lower package into a runnable
// mutator: it is the only layer that imports avmc, ptc, exception,
// stdfn, and collector all at once, and so is where the function-entry
// wrapper, the tail-call resolve loop, and the GC trigger hooks actually
// live (§4.6, §4.7). Grounded in how the teacher's internal/vm package
// drives its own bytecode loop and registers builtins against a single
// shared VM handle.
package engine

import (
	"asteria/internal/avmc"
	"asteria/internal/collector"
	"asteria/internal/exception"
	"asteria/internal/executive"
	"asteria/internal/introspect"
	"asteria/internal/langerr"
	"asteria/internal/ptc"
	"asteria/internal/reference"
	"asteria/internal/srcloc"
	"asteria/internal/stdfn"
	"asteria/internal/value"
	"asteria/internal/variable"
)

// Engine is the embeddable interpreter core: one Global Context plus the
// call-frame stack needed to enumerate GC roots mid-collection (§5: the
// embedder owns exactly one Global Context and serializes access to it).
type Engine struct {
	Global *collector.Global

	// frames is the currently active chain of Executive Contexts, pushed
	// on function entry and popped on exit, so a collection triggered at
	// an allocation boundary mid-call can still see every local variable
	// reachable from the interrupted call stack (§4.6's root set).
	frames []*executive.Context

	// Observer, if set, receives an event for every automatic collector
	// sweep triggered from alloc and for every exception that unwinds out
	// of a script function call — the feed an attached debug client reads.
	Observer *introspect.Server
}

// Attach wires a debug server to this Engine's lifecycle events.
func (e *Engine) Attach(s *introspect.Server) { e.Observer = s }

func (e *Engine) publish(kind string, data any) {
	if e.Observer == nil {
		return
	}
	e.Observer.Publish(introspect.Event{Kind: kind, Data: data})
}

func New() *Engine {
	e := &Engine{Global: collector.NewGlobal()}
	return e
}

// Mount binds a native function into the Global Context's top scope
// under name.
func (e *Engine) Mount(name string, fn *stdfn.Native) {
	e.Global.Names().Declare(name, reference.Constant(value.Fn(fn)))
}

// alloc is the reference.Allocator every Machine in this Engine shares:
// it mints a Variable from the pool and triggers an auto-collection check
// immediately afterward, satisfying §5's "collection may be triggered
// only at allocation boundaries".
func (e *Engine) alloc(v value.Value) *variable.Variable {
	cell := e.Global.CreateVariable()
	cell.Set(v)
	if collected := e.Global.MaybeAutoCollect(e.markRoots); collected > 0 {
		e.publish("gc_sweep", map[string]int{
			"collected": collected,
			"pool_size": e.Global.PoolSize(),
		})
	}
	return cell
}

// markRoots is handed to collector.Global.Collect/MaybeAutoCollect: it
// walks the global scope and every Context currently on the active call
// stack.
func (e *Engine) markRoots(mark value.VariableVisitor) {
	e.Global.Names().EnumerateNames(func(_ string, ref reference.Reference) {
		ref.EnumerateVariables(mark)
	})
	for _, ctx := range e.frames {
		for c := ctx; c != nil; c = c.Parent() {
			c.EnumerateNames(func(_ string, ref reference.Reference) {
				ref.EnumerateVariables(mark)
			})
			for _, d := range c.DeferredStack() {
				if q, ok := d.Queue.(*avmc.Queue); ok {
					q.EnumerateVariables(mark)
				}
			}
		}
	}
}

// ExecuteTop runs body in a fresh child of the Global Context's scope —
// the entry point for a compiled script's top level or a REPL line.
func (e *Engine) ExecuteTop(body *avmc.Queue) (value.Value, error) {
	ctx := e.Global.Names().Child(executive.FlagPlainBlock)
	e.frames = append(e.frames, ctx)
	defer func() { e.frames = e.frames[:len(e.frames)-1] }()

	m := avmc.NewMachine(ctx, e.allocatorFunc(), e.invoke)
	_, err := body.Execute(m)
	if err != nil {
		return value.Value{}, err
	}
	result, err := ptc.Resolve(m.Return, e.runDeferred, func(t value.Function, a []reference.Reference) (reference.Reference, error) {
		return e.enter(srcloc.Native, t, a)
	})
	if err != nil {
		return value.Value{}, err
	}
	v, rerr := result.Read()
	if rerr != nil {
		return value.Value{}, rerr
	}
	return v, nil
}

// invoke is the Machine.Invoke callback: it dispatches a call that is not
// in tail position (EmitCall), fully resolving any chain of tail calls
// the callee itself enters into before returning a settled Reference.
func (e *Engine) invoke(loc srcloc.Location, target value.Function, argsSelf []reference.Reference) (reference.Reference, error) {
	result, err := e.enter(loc, target, argsSelf)
	if err != nil {
		return reference.Reference{}, err
	}
	return ptc.Resolve(result, e.runDeferred, func(t value.Function, a []reference.Reference) (reference.Reference, error) {
		return e.enter(loc, t, a)
	})
}

// enter runs target exactly once against argsSelf, without trampolining
// a RootTailCall result — that is ptc.Resolve's job, one level up.
func (e *Engine) enter(loc srcloc.Location, target value.Function, argsSelf []reference.Reference) (reference.Reference, error) {
	switch fn := target.(type) {
	case *stdfn.Native:
		// This compiler's call grammar has no method/this syntax, so
		// self is always absent; fn.Call treats a zero Reference's
		// RootNull kind as "no self" (§4.1).
		v, err := fn.Call(e.Global, reference.Reference{}, argsSelf)
		if err != nil {
			return reference.Reference{}, err
		}
		return reference.Temporary(v), nil

	case *avmc.Closure:
		ctx := fn.Enclosing().Child(executive.FlagFunctionBody)
		params := fn.Params()
		fixed := params
		if fn.IsVariadic() {
			// The last parameter name is the rest binding (§4.4's
			// variadic functions), not a positional slot of its own.
			fixed = params[:len(params)-1]
		}
		for i, name := range fixed {
			var v value.Value
			if i < len(argsSelf) {
				rv, err := argsSelf[i].Read()
				if err != nil {
					return reference.Reference{}, err
				}
				v = rv
			}
			cell := e.alloc(v)
			ctx.Declare(name, reference.Variable(cell))
		}
		if fn.IsVariadic() {
			restName := params[len(params)-1]
			rest := value.NewArray()
			if len(argsSelf) > len(fixed) {
				elems := make([]value.Value, 0, len(argsSelf)-len(fixed))
				for _, a := range argsSelf[len(fixed):] {
					rv, err := a.Read()
					if err != nil {
						return reference.Reference{}, err
					}
					elems = append(elems, rv)
				}
				rest.Array().Elements = elems
			}
			cell := e.alloc(rest)
			ctx.Declare(restName, reference.Variable(cell))
		}
		e.frames = append(e.frames, ctx)
		defer func() { e.frames = e.frames[:len(e.frames)-1] }()

		m := avmc.NewMachine(ctx, e.allocatorFunc(), e.invoke)
		_, err := fn.Body().Execute(m)
		if err != nil {
			// An exception is already in flight: per §7, a deferred
			// expression's own failure while unwinding never replaces
			// it — it attaches as a note instead.
			t := exception.FromGoError(loc, err)
			if derr := e.drainDeferred(ctx); derr != nil {
				t.AddNote(derr)
			}
			t.AppendFrame(exception.FrameFunction, loc)
			e.publish("exception", t.Error())
			return reference.Reference{}, t
		}
		if derr := e.drainDeferred(ctx); derr != nil {
			return reference.Reference{}, propagateCall(derr, loc)
		}
		return m.Return, nil

	default:
		return reference.Reference{}, langerr.New(langerr.Type, "value is not callable")
	}
}

func propagateCall(err error, loc srcloc.Location) error {
	t := exception.FromGoError(loc, err)
	t.AppendFrame(exception.FrameFunction, loc)
	return t
}

// runDeferred runs one deferred queue captured by a tail-call pack,
// against a scopeless Machine rooted at the Global Context — by the time
// the trampoline drains it, the frame that pushed it has already exited
// (§4.7).
func (e *Engine) runDeferred(loc srcloc.Location, queueHandle any) error {
	q, ok := queueHandle.(*avmc.Queue)
	if !ok || q == nil {
		return nil
	}
	m := avmc.NewMachine(e.Global.Names().Child(executive.FlagDeferBody), e.allocatorFunc(), e.invoke)
	_, err := q.Execute(m)
	return err
}

// drainDeferred runs every deferred entry pushed directly into ctx, in
// LIFO order, unconditionally — a failing entry never skips the entries
// pushed before it (§4.5). Unlike runDeferred (used by the tail-call
// trampoline, where the pushing frame is already gone), ctx is still
// live here, so each deferred body runs against a child of the actual
// frame that pushed it and can see that frame's locals — see DESIGN.md
// for why the two paths differ. Every failure is collected as a note on
// the first one (§7: deferred failures never re-raise on their own).
func (e *Engine) drainDeferred(ctx *executive.Context) error {
	entries := ctx.DeferredStack()
	var first *exception.Traceable
	for i := len(entries) - 1; i >= 0; i-- {
		q, ok := entries[i].Queue.(*avmc.Queue)
		if !ok || q == nil {
			continue
		}
		m := avmc.NewMachine(ctx.Child(executive.FlagDeferBody), e.allocatorFunc(), e.invoke)
		if _, err := q.Execute(m); err != nil {
			t := exception.FromGoError(entries[i].Loc, err)
			if first == nil {
				first = t
			} else {
				first.AddNote(t)
			}
		}
	}
	if first == nil {
		return nil
	}
	return first
}

// allocatorFunc exposes Engine.alloc as a reference.Allocator.
func (e *Engine) allocatorFunc() reference.Allocator {
	return e.alloc
}
