package checker

import (
	"fmt"

	"dovetail/hierarchy"
	"dovetail/syntax"
)

// flowState guards one resolution pass. Workspaces are trees, so a generic
// should never be revisited while it is already being resolved; when a
// malformed workspace links blocks into a loop, the revisit resolves to `*`
// instead of recursing forever.
type flowState struct {
	active map[flowKey]struct{}
}

type flowKey struct {
	block   Block
	generic string
}

func newFlowState() *flowState {
	return &flowState{active: make(map[flowKey]struct{})}
}

// resolveTypes expands conn's check into explicit types. Each generic in
// the check resolves through boundTypes; skip is carried down so a peer's
// resolution does not read back through the link that asked.
func (c *Checker) resolveTypes(conn Connection, skip Connection, st *flowState) ([]*syntax.Type, error) {
	check, err := c.parseCheck(conn)
	if err != nil {
		return nil, err
	}

	generics, err := c.collectGenerics(check)
	if err != nil {
		return nil, err
	}

	if len(generics) == 0 {
		return []*syntax.Type{check}, nil
	}

	values := make(map[string][]*syntax.Type, len(generics))
	for _, generic := range generics {
		bound, err := c.boundTypes(conn.SourceBlock(), generic, skip, st)
		if err != nil {
			return nil, err
		}

		values[generic] = bound
	}

	var resolved []*syntax.Type
	seen := make(map[string]struct{})
	for _, ty := range substituteGenerics(check, generics, values) {
		key := ty.String()
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			resolved = append(resolved, ty)
		}
	}

	return resolved, nil
}

// boundTypes resolves the explicit types a generic can take on a block: the
// external binding if one exists, otherwise the nearest common ancestors of
// everything the block's connections flow into the generic. With nothing to
// constrain it the generic resolves to `*` alone.
func (c *Checker) boundTypes(block Block, generic string, skip Connection, st *flowState) ([]*syntax.Type, error) {
	if bound, ok := c.bindings[block][generic]; ok {
		return []*syntax.Type{bound.Clone()}, nil
	}

	key := flowKey{block: block, generic: generic}
	if _, ok := st.active[key]; ok {
		return []*syntax.Type{syntax.UnboundType()}, nil
	}

	st.active[key] = struct{}{}
	defer delete(st.active, key)

	var candidates []*syntax.Type
	for _, conn := range block.Connections() {
		if conn == skip {
			continue
		}

		flowed, err := c.flowedTypes(conn, generic, st)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, flowed...)
	}

	concrete := make([]*syntax.Type, 0, len(candidates))
	for _, candidate := range candidates {
		if !candidate.IsUnbound() {
			concrete = append(concrete, candidate)
		}
	}

	if len(concrete) == 0 {
		return []*syntax.Type{syntax.UnboundType()}, nil
	}

	return c.hierarchy.NearestCommonAncestors(concrete...)
}

// flowedTypes extracts what conn's peer contributes to generic through
// conn's check expression. An unlinked connection, or one whose check never
// mentions the generic, contributes nothing.
func (c *Checker) flowedTypes(conn Connection, generic string, st *flowState) ([]*syntax.Type, error) {
	peer := conn.Peer()
	if peer == nil {
		return nil, nil
	}

	check, err := c.parseCheck(conn)
	if err != nil {
		return nil, err
	}

	if !mentions(check, generic) {
		return nil, nil
	}

	peerTypes, err := c.resolveTypes(peer, peer, st)
	if err != nil {
		return nil, err
	}

	var flowed []*syntax.Type
	for _, peerType := range peerTypes {
		values, err := c.extract(check, peerType, generic, conn.Superior())
		if err != nil {
			return nil, err
		}

		flowed = append(flowed, values...)
	}

	return flowed, nil
}

// extract grounds generic by walking pattern against a type the peer can
// take. At explicit heads the peer's type is remapped into the pattern's
// head first: upward when the type comes from a child (the superior side
// asked), downward when it comes from a parent.
func (c *Checker) extract(pattern, value *syntax.Type, generic string, superior bool) ([]*syntax.Type, error) {
	if value.IsUnbound() {
		return nil, nil
	}

	if len(pattern.Params) == 0 {
		if pattern.Name == generic {
			return []*syntax.Type{value.Clone()}, nil
		}

		return nil, nil
	}

	var params []*syntax.Type
	var ok bool
	var err error
	if superior {
		params, ok, err = c.hierarchy.ParamsForAncestor(value, pattern.Name)
	} else {
		params, ok, err = c.hierarchy.ParamsForDescendant(value, pattern.Name)
	}
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, nil
	}

	var values []*syntax.Type
	for i, param := range pattern.Params {
		if params[i] == nil {
			continue
		}

		nested, err := c.extract(param, params[i], generic, superior)
		if err != nil {
			return nil, err
		}

		values = append(values, nested...)
	}

	return values, nil
}

func (c *Checker) parseCheck(conn Connection) (*syntax.Type, error) {
	check, perr := syntax.ParseType(conn.Check())
	if perr != nil {
		return nil, fmt.Errorf("%w: %w", hierarchy.ErrBadType, perr)
	}

	return check, nil
}

// collectGenerics validates a check expression and gathers its generic
// names in order of first appearance. Generics are leaves: a parameterized
// undeclared name is an error, as is `*` with parameters or a declared head
// applied to the wrong number of parameters.
func (c *Checker) collectGenerics(check *syntax.Type) ([]string, error) {
	var generics []string
	seen := make(map[string]struct{})

	var walk func(ty *syntax.Type) error
	walk = func(ty *syntax.Type) error {
		if ty.Name == syntax.Unbound {
			if len(ty.Params) > 0 {
				return fmt.Errorf("%w: %q takes no parameters", hierarchy.ErrBadType, syntax.Unbound)
			}

			return nil
		}

		if c.hierarchy.IsGeneric(ty.Name) {
			if len(ty.Params) > 0 {
				return fmt.Errorf("%w: generic %q takes no parameters", hierarchy.ErrBadType, ty.Name)
			}

			if _, ok := seen[ty.Name]; !ok {
				seen[ty.Name] = struct{}{}
				generics = append(generics, ty.Name)
			}

			return nil
		}

		def, err := c.hierarchy.Definition(ty.Name)
		if err != nil {
			return err
		}

		if len(ty.Params) != def.Arity() {
			return fmt.Errorf("%w: %q takes %d parameters, but %d were given", hierarchy.ErrBadType, ty.Name, def.Arity(), len(ty.Params))
		}

		for _, param := range ty.Params {
			if err := walk(param); err != nil {
				return err
			}
		}

		return nil
	}

	if err := walk(check); err != nil {
		return nil, err
	}

	return generics, nil
}

func mentions(ty *syntax.Type, generic string) bool {
	if ty.Name == generic && len(ty.Params) == 0 {
		return true
	}

	for _, param := range ty.Params {
		if mentions(param, generic) {
			return true
		}
	}

	return false
}

// substituteGenerics expands check into every combination of its generics'
// resolved values. A generic with no values produces no expansions at all.
func substituteGenerics(check *syntax.Type, generics []string, values map[string][]*syntax.Type) []*syntax.Type {
	assignment := make(map[string]*syntax.Type, len(generics))

	var out []*syntax.Type
	var expand func(i int)
	expand = func(i int) {
		if i == len(generics) {
			out = append(out, substitute(check, assignment))
			return
		}

		for _, value := range values[generics[i]] {
			assignment[generics[i]] = value
			expand(i + 1)
		}
	}
	expand(0)

	return out
}

func substitute(ty *syntax.Type, assignment map[string]*syntax.Type) *syntax.Type {
	if value, ok := assignment[ty.Name]; ok && len(ty.Params) == 0 {
		return value.Clone()
	}

	out := &syntax.Type{Name: ty.Name}
	for _, param := range ty.Params {
		out.Params = append(out.Params, substitute(param, assignment))
	}

	return out
}
