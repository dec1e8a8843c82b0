// Package langerr defines the error-kind taxonomy from §7 of the spec:
// Type, Range, Runtime, and Resource errors. It is deliberately tiny and
// leaf-level so that value, reference, avmc, and the engine can all raise
// these errors without creating import cycles with the exception package,
// which is what turns a *langerr.Error into a full traceable backtrace by
// attaching a source location and appending frames as it unwinds.
package langerr

import "fmt"

type Kind string

const (
	Type     Kind = "TypeError"
	Range    Kind = "RangeError"
	Runtime  Kind = "RuntimeError"
	Resource Kind = "ResourceError"
)

// Error is a plain Go error carrying one of the four kinds above. Resource
// errors are special: §7 says they "cannot be caught by script-level catch
// and terminate the current execute call" — the engine checks Kind ==
// Resource before letting a script catch clause see the error at all.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func IsResource(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == Resource
}
