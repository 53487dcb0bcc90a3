package hierarchy

import "errors"

// Error kinds, matched with errors.Is. Everything that reads a type
// expression reports ErrBadType; structural problems with the definitions
// themselves report ErrHierarchy.
var (
	ErrBadType   = errors.New("bad type")
	ErrHierarchy = errors.New("invalid hierarchy")
)
