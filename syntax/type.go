package syntax

import (
	"strings"

	"golang.org/x/text/cases"
)

// Unbound is the reserved name for an unbound generic. It is compatible with
// every type and cannot be declared in a hierarchy or bound on a block.
const Unbound = "*"

// FoldIdent canonicalizes an identifier for case-insensitive comparison.
func FoldIdent(ident string) string {
	return cases.Fold().String(ident)
}

// Type is a type expression: a name applied to zero or more parameters.
// Names are stored folded, so two types are equal iff they render equal.
type Type struct {
	Name   string
	Params []*Type
}

func NewType(name string, params ...*Type) *Type {
	return &Type{Name: FoldIdent(name), Params: params}
}

// UnboundType returns a fresh bare `*`.
func UnboundType() *Type {
	return &Type{Name: Unbound}
}

func (ty *Type) String() string {
	if len(ty.Params) == 0 {
		return ty.Name
	}

	var s strings.Builder
	s.WriteString(ty.Name)
	s.WriteByte('[')
	for i, param := range ty.Params {
		if i > 0 {
			s.WriteString(", ")
		}

		s.WriteString(param.String())
	}
	s.WriteByte(']')

	return s.String()
}

func (ty *Type) Equal(other *Type) bool {
	if ty.Name != other.Name || len(ty.Params) != len(other.Params) {
		return false
	}

	for i, param := range ty.Params {
		if !param.Equal(other.Params[i]) {
			return false
		}
	}

	return true
}

func (ty *Type) Clone() *Type {
	clone := &Type{Name: ty.Name}
	if len(ty.Params) > 0 {
		clone.Params = make([]*Type, len(ty.Params))
		for i, param := range ty.Params {
			clone.Params[i] = param.Clone()
		}
	}

	return clone
}

// IsUnbound reports whether ty is a bare `*`.
func (ty *Type) IsUnbound() bool {
	return ty.Name == Unbound && len(ty.Params) == 0
}
