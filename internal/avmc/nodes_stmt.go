package avmc

import (
	"asteria/internal/exception"
	"asteria/internal/executive"
	"asteria/internal/langerr"
	"asteria/internal/ptc"
	"asteria/internal/reference"
	"asteria/internal/srcloc"
	"asteria/internal/value"
)

// propagate normalizes any error into a *exception.Traceable and appends
// one backtrace frame for the boundary it is escaping through (§4.8).
func propagate(err error, kind exception.FrameKind, loc srcloc.Location) error {
	if err == nil {
		return nil
	}
	t := exception.FromGoError(loc, err)
	t.AppendFrame(kind, loc)
	return t
}

// EmitBlock runs a nested Queue in a child Context, so declarations made
// inside it don't leak to the enclosing scope (§4.1's lexical scoping).
func EmitBlock(q *Queue, loc srcloc.Location, flags executive.Flags, body *Queue) {
	q.Append(loc, 0, "", body, func(m *Machine, n *Node) (Status, error) {
		child := NewMachine(m.Ctx.Child(flags), m.Alloc, m.Invoke)
		st, err := n.Payload.(*Queue).Execute(child)
		if err != nil {
			return StatusNext, propagate(err, exception.FramePlain, loc)
		}
		m.Return = child.Return
		return st, nil
	}, func(n *Node, visit value.VariableVisitor) {
		n.Payload.(*Queue).EnumerateVariables(visit)
	}, func(n *Node) {
		n.Payload.(*Queue).Destroy()
	})
}

// EmitIf pops the condition Reference and runs thenQ or elseQ (elseQ may
// be nil) in a child Context.
func EmitIf(q *Queue, loc srcloc.Location, thenQ, elseQ *Queue) {
	type payload struct{ then, els *Queue }
	p := payload{thenQ, elseQ}
	q.Append(loc, 0, "", p, func(m *Machine, n *Node) (Status, error) {
		pl := n.Payload.(payload)
		cond, err := m.Pop().Read()
		if err != nil {
			return StatusNext, err
		}
		branch := pl.els
		if cond.IsTruthy() {
			branch = pl.then
		}
		if branch == nil {
			return StatusNext, nil
		}
		child := NewMachine(m.Ctx.Child(executive.FlagPlainBlock), m.Alloc, m.Invoke)
		st, err := branch.Execute(child)
		if err != nil {
			return StatusNext, propagate(err, exception.FramePlain, loc)
		}
		m.Return = child.Return
		return st, nil
	}, func(n *Node, visit value.VariableVisitor) {
		pl := n.Payload.(payload)
		pl.then.EnumerateVariables(visit)
		if pl.els != nil {
			pl.els.EnumerateVariables(visit)
		}
	}, func(n *Node) {
		pl := n.Payload.(payload)
		pl.then.Destroy()
		if pl.els != nil {
			pl.els.Destroy()
		}
	})
}

// EmitWhile evaluates condQ before every iteration and absorbs
// continue_while/break_while into loop control, propagating everything
// else (§4.4).
func EmitWhile(q *Queue, loc srcloc.Location, condQ, bodyQ *Queue) {
	type payload struct{ cond, body *Queue }
	p := payload{condQ, bodyQ}
	q.Append(loc, 0, "", p, func(m *Machine, n *Node) (Status, error) {
		pl := n.Payload.(payload)
		for {
			condM := NewMachine(m.Ctx, m.Alloc, m.Invoke)
			if _, err := pl.cond.Execute(condM); err != nil {
				return StatusNext, err
			}
			cond, err := condM.Pop().Read()
			if err != nil {
				return StatusNext, err
			}
			if !cond.IsTruthy() {
				return StatusNext, nil
			}
			child := NewMachine(m.Ctx.Child(executive.FlagPlainBlock), m.Alloc, m.Invoke)
			st, err := pl.body.Execute(child)
			if err != nil {
				return StatusNext, propagate(err, exception.FramePlain, loc)
			}
			switch st {
			case StatusBreakWhile:
				return StatusNext, nil
			case StatusContinueWhile:
				continue
			case StatusReturn:
				m.Return = child.Return
				return StatusReturn, nil
			case StatusBreakSwitch, StatusBreakFor, StatusContinueFor:
				return st, nil
			}
		}
	}, func(n *Node, visit value.VariableVisitor) {
		pl := n.Payload.(payload)
		pl.cond.EnumerateVariables(visit)
		pl.body.EnumerateVariables(visit)
	}, func(n *Node) {
		pl := n.Payload.(payload)
		pl.cond.Destroy()
		pl.body.Destroy()
	})
}

// LoopKind distinguishes which of break/continue's matching targets a
// BreakNode/ContinueNode means (§4.4's break_while vs break_for, etc.);
// this demo compiler only ever emits the While variants since `for` is
// out of the supported grammar subset, but both are modeled for parity
// with the full AIR_Status set.
type LoopKind uint8

const (
	LoopWhile LoopKind = iota
	LoopFor
)

func EmitBreak(q *Queue, loc srcloc.Location, kind LoopKind) {
	q.Append(loc, 0, "", kind, func(m *Machine, n *Node) (Status, error) {
		if n.Payload.(LoopKind) == LoopFor {
			return StatusBreakFor, nil
		}
		return StatusBreakWhile, nil
	}, nil, nil)
}

func EmitContinue(q *Queue, loc srcloc.Location, kind LoopKind) {
	q.Append(loc, 0, "", kind, func(m *Machine, n *Node) (Status, error) {
		if n.Payload.(LoopKind) == LoopFor {
			return StatusContinueFor, nil
		}
		return StatusContinueWhile, nil
	}, nil, nil)
}

// EmitReturn pops a value (if hasExpr) and escapes the enclosing function
// body with it.
func EmitReturn(q *Queue, loc srcloc.Location, hasExpr bool) {
	q.Append(loc, 0, "", hasExpr, func(m *Machine, n *Node) (Status, error) {
		v := value.Null()
		if n.Payload.(bool) {
			rv, err := m.Pop().Read()
			if err != nil {
				return StatusNext, err
			}
			v = rv
		}
		m.Return = reference.Temporary(v)
		return StatusReturn, nil
	}, nil, nil)
}

// EmitCall pops argc argument References plus a callee Reference (in that
// push order: callee first, then each argument), resolves the callee
// through m.Invoke, and pushes the fully-settled result. Used for calls
// that are not in tail position.
func EmitCall(q *Queue, loc srcloc.Location, argc int) {
	q.Append(loc, 0, "", argc, func(m *Machine, n *Node) (Status, error) {
		argc := n.Payload.(int)
		args := m.PopN(argc)
		calleeRef := m.Pop()
		callee, err := calleeRef.Read()
		if err != nil {
			return StatusNext, err
		}
		if callee.Kind() != value.KindFunction {
			return StatusNext, langerr.New(langerr.Type, "value is not callable: %s", callee.Kind())
		}
		result, err := m.Invoke(loc, callee.Function(), args)
		if err != nil {
			return StatusNext, propagate(err, exception.FrameFunction, loc)
		}
		m.Push(result)
		return StatusNext, nil
	}, nil, nil)
}

// EmitReturnCall packages a tail-position call (`return f(x);`) as a
// RootTailCall Reference instead of invoking immediately, carrying the
// pending deferred expressions of the Context it executes in so the
// eventual trampoline in the engine's invoke boundary can run them before
// jumping (§4.7). A function-body Context's own deferred stack is not
// copied: the engine drains that one itself when the body returns.
func EmitReturnCall(q *Queue, loc srcloc.Location, argc int) {
	q.Append(loc, 0, "", argc, func(m *Machine, n *Node) (Status, error) {
		argc := n.Payload.(int)
		args := m.PopN(argc)
		calleeRef := m.Pop()
		callee, err := calleeRef.Read()
		if err != nil {
			return StatusNext, err
		}
		if callee.Kind() != value.KindFunction {
			return StatusNext, langerr.New(langerr.Type, "value is not callable: %s", callee.Kind())
		}
		var frames []ptc.DeferredFrame
		if !m.Ctx.Has(executive.FlagFunctionBody) {
			deferred := m.Ctx.DeferredStack()
			frames = make([]ptc.DeferredFrame, len(deferred))
			for i, d := range deferred {
				frames[i] = ptc.DeferredFrame{Loc: d.Loc, Queue: d.Queue}
			}
		}
		pack := &ptc.Arguments{
			Loc: loc, Target: callee.Function(), ArgsSelf: args,
			Defer: frames, Aware: ptc.AwareValue,
		}
		m.Return = reference.TailCall(pack)
		return StatusReturn, nil
	}, nil, nil)
}

// EmitThrow pops a value Reference and raises it as a fresh Traceable
// exception rooted at loc (§4.8).
func EmitThrow(q *Queue, loc srcloc.Location) {
	q.Append(loc, 0, "", nil, func(m *Machine, n *Node) (Status, error) {
		v, err := m.Pop().Read()
		if err != nil {
			return StatusNext, err
		}
		return StatusNext, exception.New(loc, v)
	}, nil, nil)
}

// EmitTry runs tryQ; if it raises, the thrown Value is bound to
// catchName in a fresh Context and catchQ runs in its place. Per §7,
// a Resource-kind error always bubbles straight past catch (IsResource).
func EmitTry(q *Queue, loc srcloc.Location, tryQ *Queue, catchName string, catchQ *Queue) {
	type payload struct {
		try, catch *Queue
		name       string
	}
	p := payload{tryQ, catchQ, catchName}
	q.Append(loc, 0, catchName, p, func(m *Machine, n *Node) (Status, error) {
		pl := n.Payload.(payload)
		tryM := NewMachine(m.Ctx.Child(executive.FlagPlainBlock), m.Alloc, m.Invoke)
		st, err := pl.try.Execute(tryM)
		if err == nil {
			m.Return = tryM.Return
			return st, nil
		}
		t := exception.FromGoError(loc, err)
		if t.IsResource() {
			return StatusNext, t
		}
		catchCtx := m.Ctx.Child(executive.FlagCatchClause)
		cell := m.Alloc(t.Value())
		catchCtx.Declare(pl.name, reference.Variable(cell))
		catchM := NewMachine(catchCtx, m.Alloc, m.Invoke)
		cst, cerr := pl.catch.Execute(catchM)
		if cerr != nil {
			return StatusNext, propagate(cerr, exception.FrameCatch, loc)
		}
		m.Return = catchM.Return
		return cst, nil
	}, func(n *Node, visit value.VariableVisitor) {
		pl := n.Payload.(payload)
		pl.try.EnumerateVariables(visit)
		pl.catch.EnumerateVariables(visit)
	}, func(n *Node) {
		pl := n.Payload.(payload)
		pl.try.Destroy()
		pl.catch.Destroy()
	})
}

// EmitAssert pops the asserted condition's Reference and, if false,
// raises a fresh exception carrying message (§4.8's assert statement).
func EmitAssert(q *Queue, loc srcloc.Location, message string) {
	q.Append(loc, 0, message, message, func(m *Machine, n *Node) (Status, error) {
		v, err := m.Pop().Read()
		if err != nil {
			return StatusNext, err
		}
		if v.IsTruthy() {
			return StatusNext, nil
		}
		t := exception.New(loc, value.Str(n.Payload.(string)))
		t.AppendFrame(exception.FrameAssert, loc)
		return StatusNext, t
	}, nil, nil)
}

// EmitDefer registers body to run (LIFO, relative to other defers in the
// same Context) when the enclosing function returns, normally or via
// tail call (§4.4, §7).
func EmitDefer(q *Queue, loc srcloc.Location, body *Queue) {
	q.Append(loc, 0, "", body, func(m *Machine, n *Node) (Status, error) {
		m.Ctx.PushDeferred(loc, n.Payload.(*Queue))
		return StatusNext, nil
	}, func(n *Node, visit value.VariableVisitor) {
		n.Payload.(*Queue).EnumerateVariables(visit)
	}, func(n *Node) {
		n.Payload.(*Queue).Destroy()
	})
}

// EmitFuncLiteral pushes a Closure Value capturing the current Context.
func EmitFuncLiteral(q *Queue, loc srcloc.Location, name string, params []string, variadic bool, body *Queue) {
	type payload struct {
		name     string
		params   []string
		variadic bool
		body     *Queue
	}
	p := payload{name, params, variadic, body}
	q.Append(loc, 0, name, p, func(m *Machine, n *Node) (Status, error) {
		pl := n.Payload.(payload)
		cl := NewClosure(pl.name, pl.params, pl.variadic, pl.body, m.Ctx)
		m.Push(reference.Temporary(value.Fn(cl)))
		return StatusNext, nil
	}, func(n *Node, visit value.VariableVisitor) {
		n.Payload.(payload).body.EnumerateVariables(visit)
	}, func(n *Node) {
		n.Payload.(payload).body.Destroy()
	})
}
