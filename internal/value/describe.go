package value

import (
	"strconv"
	"strings"
)

// describe renders v for diagnostics. For null, boolean, integer, real,
// and string it produces output that re-lexes back to an equal Value
// (§8's describe/re-parse round-trip property), with two exceptions: NaN
// and the infinities render as NaN, +Inf and -Inf, which have no literal
// form, and a string's non-printable characters other than newline, tab
// and carriage return render as Go escapes (\a, \x.., \u....) that the
// lexer does not decode. Containers and function/opaque values render a best-effort structural summary instead,
// since a closure or opaque payload has no literal syntax to round-trip
// through.
func describe(v Value) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		s := strconv.FormatFloat(v.r, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			// An integral real keeps a ".0" so it re-lexes as a real.
			s += ".0"
		}
		return s
	case KindString:
		return strconv.Quote(v.s)
	case KindArray:
		parts := make([]string, len(v.arr.Elements))
		for i, e := range v.arr.Elements {
			parts[i] = describe(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindObject:
		parts := make([]string, 0, v.obj.Len())
		for _, k := range v.obj.keys {
			ev, _ := v.obj.Get(k)
			parts = append(parts, strconv.Quote(k)+":"+describe(ev))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case KindFunction:
		if v.fn == nil {
			return "<function>"
		}
		return "<function " + v.fn.Name() + ">"
	case KindOpaque:
		if v.o == nil {
			return "<opaque>"
		}
		return "<opaque #" + v.oid.String()[:8] + " " + v.o.TypeName() + " " + v.o.Describe() + ">"
	default:
		return "<unknown>"
	}
}
