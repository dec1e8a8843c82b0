package avmc

import (
	"fmt"

	"asteria/internal/executive"
	"asteria/internal/reference"
	"asteria/internal/value"
)

// Closure is a script-defined function: a name (possibly anonymous), its
// formal parameter names, its body Queue, and the Executive Context it
// closed over at the point of the function-literal expression (§4.4,
// §4.1's Function value kind).
type Closure struct {
	name      string
	params    []string
	variadic  bool
	body      *Queue
	enclosing *executive.Context
}

func NewClosure(name string, params []string, variadic bool, body *Queue, enclosing *executive.Context) *Closure {
	return &Closure{name: name, params: params, variadic: variadic, body: body, enclosing: enclosing}
}

func (c *Closure) Name() string     { return c.name }
func (c *Closure) Arity() int       { return len(c.params) }
func (c *Closure) IsVariadic() bool { return c.variadic }

func (c *Closure) Describe() string {
	if c.name == "" {
		return fmt.Sprintf("<anonymous function, %d arg(s)>", len(c.params))
	}
	return fmt.Sprintf("<function %s, %d arg(s)>", c.name, len(c.params))
}

// EnumerateVariables reaches both the Queue's own literal-held Variables
// and every Variable captured by the enclosing Context chain at the point
// this Closure was created — without this, the moment a closure outlives
// the call that declared it, a sweep between its creation and its next
// invocation would collect the upvalues it still needs (§4.2, §4.6).
func (c *Closure) EnumerateVariables(visit value.VariableVisitor) {
	c.body.EnumerateVariables(visit)
	for ctx := c.enclosing; ctx != nil; ctx = ctx.Parent() {
		ctx.EnumerateNames(func(_ string, ref reference.Reference) {
			ref.EnumerateVariables(visit)
		})
	}
}

func (c *Closure) Params() []string              { return c.params }
func (c *Closure) Body() *Queue                   { return c.body }
func (c *Closure) Enclosing() *executive.Context { return c.enclosing }

var _ value.Function = (*Closure)(nil)
