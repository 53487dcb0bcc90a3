// Package checker answers whether two block connections may link, and
// resolves the explicit types a generic check can take, against a registered
// type hierarchy.
package checker

import "fmt"

// Kind of a connection on a block.
type Kind int

const (
	KindOutput Kind = iota
	KindPrevious
	KindInput
	KindNext
)

func (k Kind) String() string {
	switch k {
	case KindOutput:
		return "output"
	case KindPrevious:
		return "previous"
	case KindInput:
		return "input"
	default:
		return "next"
	}
}

// Block is one block in a workspace. The checker keys external bindings on
// Block identity, so implementations must be comparable. Connections returns
// the block's connections in a stable order.
type Block interface {
	Connections() []Connection
	BumpNeighbours()
}

// Connection is one typed attachment point on a block. Inputs and next
// connections are the superior side of a link; outputs and previous
// connections are the inferior side.
type Connection interface {
	SourceBlock() Block
	Peer() Connection
	Check() string
	Superior() bool
	Kind() Kind
	InputName() string
	Connect(Connection)
	Disconnect()
}

// DescribeConnection renders a connection's identity for error messages.
func DescribeConnection(conn Connection) string {
	if conn.Kind() == KindInput {
		return fmt.Sprintf("input %q of %v", conn.InputName(), conn.SourceBlock())
	}

	return fmt.Sprintf("%s of %v", conn.Kind(), conn.SourceBlock())
}
