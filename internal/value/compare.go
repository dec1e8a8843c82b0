package value

// Ordering is the result of a three-way comparison. It mirrors the
// language's `<=>` operator (§6), which surfaces Unordered as the string
// literal "<unordered>" rather than trapping — comparing mismatched kinds,
// or any comparison involving NaN, is a legal (if useless) operation.
type Ordering int8

const (
	Less      Ordering = -1
	Equal     Ordering = 0
	Greater   Ordering = 1
	Unordered Ordering = 2
)

// EqualValues implements by-value equality. NaN is never equal to anything,
// including itself (§4.1).
func EqualValues(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBoolean:
		return a.b == b.b
	case KindInteger:
		return a.i == b.i
	case KindReal:
		return a.r == b.r // false for NaN on either side, by IEEE-754
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr.Elements) != len(b.arr.Elements) {
			return false
		}
		for i := range a.arr.Elements {
			if !EqualValues(a.arr.Elements[i], b.arr.Elements[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for _, k := range a.obj.keys {
			bv, ok := b.Object().Get(k)
			if !ok {
				return false
			}
			av, _ := a.obj.Get(k)
			if !EqualValues(av, bv) {
				return false
			}
		}
		return true
	default:
		// opaque/function compare by identity only.
		return sameIdentity(a, b)
	}
}

func sameIdentity(a, b Value) bool {
	switch a.kind {
	case KindOpaque:
		return a.o == b.o
	case KindFunction:
		return a.fn == b.fn
	default:
		return false
	}
}

// Compare implements the three-way comparison. It is total over primitives
// of like kind, and Unordered across kinds, with NaN, or for
// array/object/opaque/function operands (§4.1).
func Compare(a, b Value) Ordering {
	if a.kind != b.kind {
		return Unordered
	}
	switch a.kind {
	case KindNull:
		return Equal
	case KindBoolean:
		return compareBool(a.b, b.b)
	case KindInteger:
		return compareInt(a.i, b.i)
	case KindReal:
		return compareReal(a.r, b.r)
	case KindString:
		return compareString(a.s, b.s)
	default:
		return Unordered
	}
}

func compareBool(a, b bool) Ordering {
	switch {
	case a == b:
		return Equal
	case !a && b:
		return Less
	default:
		return Greater
	}
}

func compareInt(a, b int64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func compareReal(a, b float64) Ordering {
	if a != a || b != b { // either is NaN
		return Unordered
	}
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func compareString(a, b string) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

// String renders the comparison the way the `<=>` operator's result
// prints: -1, 0, 1, or the literal "<unordered>".
func (o Ordering) String() string {
	switch o {
	case Less:
		return "-1"
	case Equal:
		return "0"
	case Greater:
		return "1"
	default:
		return "<unordered>"
	}
}
