// Package srcloc carries source positions across every other package that
// needs to attribute a diagnostic to a line of script source: the AVMC
// queue's debug table, the executive context's deferred-expression stack,
// the tail-call trampoline, and the backtrace frames a traceable exception
// accumulates while unwinding.
package srcloc

import "fmt"

// Location is a single point in a source file, or "<native code>" for
// frames that originate in a standard function binding rather than a
// compiled AVMC node.
type Location struct {
	File   string
	Line   int
	Column int
}

// Native is the canonical location attached to frames raised by native
// function bindings rather than compiled script code.
var Native = Location{File: "<native code>"}

func (l Location) IsNative() bool {
	return l.File == Native.File && l.Line == 0 && l.Column == 0
}

func (l Location) String() string {
	if l.IsNative() {
		return "<native code>"
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}
