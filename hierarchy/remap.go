package hierarchy

import (
	"fmt"

	"dovetail/syntax"
)

// term is a fulfills argument with the subtype's formal parameters resolved
// to indices. param >= 0 references that formal parameter; otherwise the
// term is an explicit type name applied to args.
type term struct {
	param int
	name  string
	args  []*term
}

// mapping expresses an ancestor's parameter slots in a descendant's
// parameter space, one term per ancestor slot. Fulfills edges may permute,
// drop, duplicate, pin, or nest parameters, and composing mappings along a
// fulfills path preserves all of that.
type mapping []*term

func identityMapping(arity int) mapping {
	m := make(mapping, arity)
	for i := range m {
		m[i] = &term{param: i}
	}

	return m
}

func (def *Definition) resolveTerm(arg *syntax.Type) *term {
	if i, ok := def.paramIndex[arg.Name]; ok {
		return &term{param: i}
	}

	t := &term{param: -1, name: arg.Name}
	for _, nested := range arg.Params {
		t.args = append(t.args, def.resolveTerm(nested))
	}

	return t
}

func (t *term) equal(other *term) bool {
	if t.param != other.param || t.name != other.name || len(t.args) != len(other.args) {
		return false
	}

	for i, arg := range t.args {
		if !arg.equal(other.args[i]) {
			return false
		}
	}

	return true
}

func (m mapping) equal(other mapping) bool {
	if len(m) != len(other) {
		return false
	}

	for i, t := range m {
		if !t.equal(other[i]) {
			return false
		}
	}

	return true
}

// substitute rewrites m, which references the parameters of some type, to
// reference the parameters of that type's subtype. args gives the type's
// parameters as terms over the subtype's parameters.
func (m mapping) substitute(args []*term) mapping {
	out := make(mapping, len(m))
	for i, t := range m {
		out[i] = t.substitute(args)
	}

	return out
}

func (t *term) substitute(args []*term) *term {
	if t.param >= 0 {
		return args[t.param]
	}

	sub := &term{param: -1, name: t.name}
	for _, arg := range t.args {
		sub.args = append(sub.args, arg.substitute(args))
	}

	return sub
}

// instantiate fills m's terms with actual parameter values, producing the
// ancestor's parameters for a concrete subtype instance.
func (m mapping) instantiate(actual []*syntax.Type) []*syntax.Type {
	out := make([]*syntax.Type, len(m))
	for i, t := range m {
		out[i] = t.instantiate(actual)
	}

	return out
}

func (t *term) instantiate(actual []*syntax.Type) *syntax.Type {
	if t.param >= 0 {
		return actual[t.param].Clone()
	}

	ty := &syntax.Type{Name: t.name}
	for _, arg := range t.args {
		ty.Params = append(ty.Params, arg.instantiate(actual))
	}

	return ty
}

// match grounds a descendant's parameters (out) against an ancestor
// instance's parameters. Slots the ancestor does not constrain stay nil,
// and a bare `*` on the ancestor side constrains nothing. A slot grounded
// twice must reconcile structurally.
func (m mapping) match(params []*syntax.Type, out []*syntax.Type) bool {
	for i, t := range m {
		if !t.match(params[i], out) {
			return false
		}
	}

	return true
}

func (t *term) match(ty *syntax.Type, out []*syntax.Type) bool {
	if ty.IsUnbound() {
		return true
	}

	if t.param >= 0 {
		if existing := out[t.param]; existing != nil {
			merged, ok := mergeTypes(existing, ty)
			if !ok {
				return false
			}

			out[t.param] = merged

			return true
		}

		out[t.param] = ty.Clone()

		return true
	}

	if t.name != ty.Name || len(t.args) != len(ty.Params) {
		return false
	}

	for i, arg := range t.args {
		if !arg.match(ty.Params[i], out) {
			return false
		}
	}

	return true
}

// ParamsForAncestor rewrites sub's parameters into ancestor's parameter
// space, following the declared fulfills mappings. ok is false when sub
// does not reach ancestor. When several fulfills paths reach the same
// ancestor, the first declared mapping wins.
func (h *Hierarchy) ParamsForAncestor(sub *syntax.Type, ancestor string) ([]*syntax.Type, bool, error) {
	if err := h.ValidateType(sub); err != nil {
		return nil, false, err
	}

	decl, ok := h.defs[syntax.FoldIdent(ancestor)]
	if !ok {
		return nil, false, fmt.Errorf("%w: %q is not declared", ErrBadType, ancestor)
	}

	if sub.IsUnbound() {
		params := make([]*syntax.Type, decl.Arity())
		for i := range params {
			params[i] = syntax.UnboundType()
		}

		return params, true, nil
	}

	ms := h.defs[sub.Name].ancestors[decl.Name]
	if len(ms) == 0 {
		return nil, false, nil
	}

	return ms[0].instantiate(sub.Params), true, nil
}

// ParamsForDescendant grounds descendant's parameters against an ancestor
// instance, inverting the declared mappings. Slots the ancestor does not
// constrain are nil. ok is false when descendant does not reach anc's type
// or the parameters conflict.
func (h *Hierarchy) ParamsForDescendant(anc *syntax.Type, descendant string) ([]*syntax.Type, bool, error) {
	if err := h.ValidateType(anc); err != nil {
		return nil, false, err
	}

	desc, ok := h.defs[syntax.FoldIdent(descendant)]
	if !ok {
		return nil, false, fmt.Errorf("%w: %q is not declared", ErrBadType, descendant)
	}

	if anc.IsUnbound() {
		return make([]*syntax.Type, desc.Arity()), true, nil
	}

	for _, m := range desc.ancestors[anc.Name] {
		out := make([]*syntax.Type, desc.Arity())
		if m.match(anc.Params, out) {
			return out, true, nil
		}
	}

	return nil, false, nil
}
