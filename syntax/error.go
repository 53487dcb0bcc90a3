package syntax

import "fmt"

// Error is a failure to read a type expression. Offset is the byte position
// of the offending token within Source.
type Error struct {
	Message string
	Source  string
	Offset  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s in %q at offset %d", e.Message, e.Source, e.Offset)
}
