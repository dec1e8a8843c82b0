package avmc

import (
	"asteria/internal/langerr"
	"asteria/internal/reference"
	"asteria/internal/srcloc"
	"asteria/internal/value"
)

// EmitConstant pushes a literal Value as a Constant-rooted Reference.
func EmitConstant(q *Queue, loc srcloc.Location, v value.Value) {
	q.Append(loc, 0, "", v, func(m *Machine, n *Node) (Status, error) {
		m.Push(reference.Constant(n.Payload.(value.Value)))
		return StatusNext, nil
	}, func(n *Node, visit value.VariableVisitor) {
		n.Payload.(value.Value).EnumerateVariables(visit)
	}, nil)
}

// EmitGetName pushes the bound Reference for an identifier, or raises an
// unbound-name error (§4.3: reading a Reference of unbound root kind is a
// type error at the point something tries to use it; we raise eagerly
// here since the language has no "maybe unbound" reference kind).
func EmitGetName(q *Queue, loc srcloc.Location, name string) {
	q.Append(loc, 0, name, nil, func(m *Machine, n *Node) (Status, error) {
		ref, ok := m.Ctx.Lookup(n.Symbols)
		if !ok {
			return StatusNext, langerr.New(langerr.Type, "unbound name: %s", n.Symbols)
		}
		m.Push(ref)
		return StatusNext, nil
	}, nil, nil)
}

// EmitDeclare pops the initializer Reference (pushed by a preceding
// subexpression, or absent — in which case the caller passes hasInit
// false and a null is used) and binds name in the current Context to a
// freshly allocated Variable (§4.2, §4.3).
func EmitDeclare(q *Queue, loc srcloc.Location, name string, constant, hasInit bool) {
	type payload struct {
		name             string
		constant, hasInit bool
	}
	q.Append(loc, 0, name, payload{name, constant, hasInit}, func(m *Machine, n *Node) (Status, error) {
		p := n.Payload.(payload)
		init := value.Null()
		if p.hasInit {
			v, err := m.Pop().Read()
			if err != nil {
				return StatusNext, err
			}
			init = v
		}
		cell := m.Alloc(init)
		cell.SetConstant(p.constant)
		ref := reference.Variable(cell)
		m.Ctx.Declare(p.name, ref)
		m.Push(ref)
		return StatusNext, nil
	}, nil, nil)
}

// EmitAssign pops the rhs value Reference then the lhs Reference, writes
// through the lhs, and pushes the assigned value as the expression's own
// result (assignment is an expression, per the C-family grammar §6
// implies).
func EmitAssign(q *Queue, loc srcloc.Location) {
	q.Append(loc, 0, "", nil, func(m *Machine, n *Node) (Status, error) {
		rhsRef := m.Pop()
		lhsRef := m.Pop()
		v, err := rhsRef.Read()
		if err != nil {
			return StatusNext, err
		}
		lhsRef = lhsRef.Materialize(m.Alloc)
		if err := lhsRef.Write(v); err != nil {
			return StatusNext, err
		}
		m.Push(reference.Temporary(v))
		return StatusNext, nil
	}, nil, nil)
}

// EmitPop discards the top of stack, for expression-statements whose
// value is unused.
func EmitPop(q *Queue, loc srcloc.Location) {
	q.Append(loc, 0, "", nil, func(m *Machine, n *Node) (Status, error) {
		m.Pop()
		return StatusNext, nil
	}, nil, nil)
}

// EmitZoom appends an index/key/head/tail modifier to the Reference on
// top of the stack (§4.3).
func EmitZoom(q *Queue, loc srcloc.Location, mod reference.Modifier) {
	q.Append(loc, 0, "", mod, func(m *Machine, n *Node) (Status, error) {
		top := m.Pop()
		m.Push(top.ZoomIn(n.Payload.(reference.Modifier)))
		return StatusNext, nil
	}, nil, nil)
}

// EmitZoomIndexExpr is EmitZoom's variant where the index itself is a
// computed subexpression already sitting on the stack (`a[i]`, as opposed
// to a literal `.0`).
func EmitZoomIndexExpr(q *Queue, loc srcloc.Location) {
	q.Append(loc, 0, "", nil, func(m *Machine, n *Node) (Status, error) {
		idxRef := m.Pop()
		base := m.Pop()
		idxVal, err := idxRef.Read()
		if err != nil {
			return StatusNext, err
		}
		if idxVal.Kind() == value.KindString {
			m.Push(base.ZoomIn(reference.Modifier{Kind: reference.ModKey, Key: idxVal.Str()}))
		} else {
			m.Push(base.ZoomIn(reference.Modifier{Kind: reference.ModIndex, Index: idxVal.Int()}))
		}
		return StatusNext, nil
	}, nil, nil)
}

// EmitUnset pops a Reference and removes the value it names, pushing the
// value that had been stored there (§4.3's unset expression).
func EmitUnset(q *Queue, loc srcloc.Location) {
	q.Append(loc, 0, "", nil, func(m *Machine, n *Node) (Status, error) {
		old, err := m.Pop().Unset()
		if err != nil {
			return StatusNext, err
		}
		m.Push(reference.Temporary(old))
		return StatusNext, nil
	}, nil, nil)
}

// EmitArrayLiteral pops n References (in push order) and pushes an Array
// Value built from their read results.
func EmitArrayLiteral(q *Queue, loc srcloc.Location, n int) {
	q.Append(loc, 0, "", n, func(m *Machine, node *Node) (Status, error) {
		count := node.Payload.(int)
		refs := m.PopN(count)
		elems := make([]value.Value, count)
		for i, r := range refs {
			v, err := r.Read()
			if err != nil {
				return StatusNext, err
			}
			elems[i] = v
		}
		m.Push(reference.Temporary(value.NewArray(elems...)))
		return StatusNext, nil
	}, nil, nil)
}

// EmitObjectLiteral pops len(keys) References (in push order matching
// keys) and pushes an Object Value.
func EmitObjectLiteral(q *Queue, loc srcloc.Location, keys []string) {
	q.Append(loc, 0, "", keys, func(m *Machine, n *Node) (Status, error) {
		ks := n.Payload.([]string)
		refs := m.PopN(len(ks))
		obj := value.NewObjectValue()
		for i, r := range refs {
			v, err := r.Read()
			if err != nil {
				return StatusNext, err
			}
			obj.Object().Set(ks[i], v)
		}
		m.Push(reference.Temporary(obj))
		return StatusNext, nil
	}, nil, nil)
}

// BinaryOp names every infix operator the arithmetic/comparison layer
// knows how to evaluate.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpMod BinaryOp = "%"

	OpAnd BinaryOp = "&"
	OpOr  BinaryOp = "|"
	OpXor BinaryOp = "^"
	OpShl BinaryOp = "<<"
	OpShr BinaryOp = ">>"
	OpRol BinaryOp = "<<<"
	OpRor BinaryOp = ">>>"

	OpEq  BinaryOp = "=="
	OpNe  BinaryOp = "!="
	OpLt  BinaryOp = "<"
	OpLe  BinaryOp = "<="
	OpGt  BinaryOp = ">"
	OpGe  BinaryOp = ">="
	OpCmp BinaryOp = "<=>"
)

// EmitBinary pops rhs then lhs, reads both, evaluates op, and pushes the
// Temporary result.
func EmitBinary(q *Queue, loc srcloc.Location, op BinaryOp) {
	q.Append(loc, 0, string(op), op, func(m *Machine, n *Node) (Status, error) {
		rhsRef := m.Pop()
		lhsRef := m.Pop()
		lhs, err := lhsRef.Read()
		if err != nil {
			return StatusNext, err
		}
		rhs, err := rhsRef.Read()
		if err != nil {
			return StatusNext, err
		}
		result, err := evalBinary(n.Payload.(BinaryOp), lhs, rhs)
		if err != nil {
			return StatusNext, err
		}
		m.Push(reference.Temporary(result))
		return StatusNext, nil
	}, nil, nil)
}

func evalBinary(op BinaryOp, lhs, rhs value.Value) (value.Value, error) {
	switch op {
	case OpAdd:
		return value.Add(lhs, rhs)
	case OpSub:
		return value.Sub(lhs, rhs)
	case OpMul:
		return value.Mul(lhs, rhs)
	case OpDiv:
		return value.Div(lhs, rhs)
	case OpMod:
		return value.Mod(lhs, rhs)
	case OpAnd:
		return value.BitAnd(lhs, rhs)
	case OpOr:
		return value.BitOr(lhs, rhs)
	case OpXor:
		return value.BitXor(lhs, rhs)
	case OpShl:
		return value.ShiftLeft(lhs, rhs)
	case OpShr:
		return value.ShiftRight(lhs, rhs)
	case OpRol:
		return value.RotateLeft(lhs, rhs)
	case OpRor:
		return value.RotateRight(lhs, rhs)
	case OpEq:
		return value.Bool(value.EqualValues(lhs, rhs)), nil
	case OpNe:
		return value.Bool(!value.EqualValues(lhs, rhs)), nil
	case OpLt, OpLe, OpGt, OpGe:
		ord := value.Compare(lhs, rhs)
		if ord == value.Unordered {
			return value.Value{}, langerr.New(langerr.Type, "operands are unordered")
		}
		switch op {
		case OpLt:
			return value.Bool(ord == value.Less), nil
		case OpLe:
			return value.Bool(ord != value.Greater), nil
		case OpGt:
			return value.Bool(ord == value.Greater), nil
		default:
			return value.Bool(ord != value.Less), nil
		}
	case OpCmp:
		ord := value.Compare(lhs, rhs)
		if ord == value.Unordered {
			return value.Str(ord.String()), nil
		}
		return value.Int(int64(ord)), nil
	default:
		return value.Value{}, langerr.New(langerr.Type, "unknown binary operator: %s", op)
	}
}

// UnaryOp names every prefix operator the evaluator knows.
type UnaryOp string

const (
	OpNeg    UnaryOp = "-"
	OpPos    UnaryOp = "+"
	OpNot    UnaryOp = "!"
	OpBitNot UnaryOp = "~"
)

func EmitUnary(q *Queue, loc srcloc.Location, op UnaryOp) {
	q.Append(loc, 0, string(op), op, func(m *Machine, n *Node) (Status, error) {
		ref := m.Pop()
		v, err := ref.Read()
		if err != nil {
			return StatusNext, err
		}
		var result value.Value
		switch n.Payload.(UnaryOp) {
		case OpNeg:
			result, err = value.Negate(v)
		case OpPos:
			result = v
		case OpNot:
			result, err = value.Not(v)
		case OpBitNot:
			result, err = value.BitNot(v)
		}
		if err != nil {
			return StatusNext, err
		}
		m.Push(reference.Temporary(result))
		return StatusNext, nil
	}, nil, nil)
}

// EmitIncDec pops an lvalue Reference, reads it, applies +1/-1, writes it
// back, and pushes either the old value (postfix) or the new value
// (prefix) as a Temporary.
func EmitIncDec(q *Queue, loc srcloc.Location, delta int64, postfix bool) {
	type payload struct {
		delta   int64
		postfix bool
	}
	q.Append(loc, 0, "", payload{delta, postfix}, func(m *Machine, n *Node) (Status, error) {
		p := n.Payload.(payload)
		ref := m.Pop()
		old, err := ref.Read()
		if err != nil {
			return StatusNext, err
		}
		next, err := value.Add(old, value.Int(p.delta))
		if err != nil {
			return StatusNext, err
		}
		if err := ref.Write(next); err != nil {
			return StatusNext, err
		}
		if p.postfix {
			m.Push(reference.Temporary(old))
		} else {
			m.Push(reference.Temporary(next))
		}
		return StatusNext, nil
	}, nil, nil)
}

// EmitShortCircuit evaluates the already-pushed lhs, and only runs rhs
// (a nested Queue) if the short-circuit predicate demands it — covering
// &&, ||, and ?? (§6).
func EmitShortCircuit(q *Queue, loc srcloc.Location, runRHSIfTruthy bool, nullCoalesce bool, rhs *Queue) {
	q.Append(loc, 0, "", rhs, func(m *Machine, n *Node) (Status, error) {
		lhsRef := m.Pop()
		lhs, err := lhsRef.Read()
		if err != nil {
			return StatusNext, err
		}
		take := false
		if nullCoalesce {
			take = lhs.IsNull()
		} else if runRHSIfTruthy {
			take = lhs.IsTruthy()
		} else {
			take = !lhs.IsTruthy()
		}
		if !take {
			m.Push(reference.Temporary(lhs))
			return StatusNext, nil
		}
		sub := NewMachine(m.Ctx, m.Alloc, m.Invoke)
		if _, err := n.Payload.(*Queue).Execute(sub); err != nil {
			return StatusNext, err
		}
		m.Push(sub.Pop())
		return StatusNext, nil
	}, func(n *Node, visit value.VariableVisitor) {
		n.Payload.(*Queue).EnumerateVariables(visit)
	}, func(n *Node) {
		n.Payload.(*Queue).Destroy()
	})
}
