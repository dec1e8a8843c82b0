package avmc

import (
	"asteria/internal/srcloc"
	"asteria/internal/value"
)

// EmitSubQueue splices a standalone Queue (typically a condition
// expression parsed into its own Queue before the construct that
// consumes it is known) into dst, running its nodes directly against
// whatever Machine dst itself runs against — so values it pushes land on
// the caller's own operand stack rather than a disconnected one.
func EmitSubQueue(dst *Queue, sub *Queue) {
	dst.Append(srcloc.Location{}, 0, "", sub, func(m *Machine, n *Node) (Status, error) {
		return n.Payload.(*Queue).Execute(m)
	}, func(n *Node, visit value.VariableVisitor) {
		n.Payload.(*Queue).EnumerateVariables(visit)
	}, func(n *Node) {
		n.Payload.(*Queue).Destroy()
	})
}
