package checker

import (
	"fmt"

	"dovetail/hierarchy"
	"dovetail/syntax"
)

// Checker holds the registered hierarchy and the external generic bindings,
// keyed by block.
type Checker struct {
	hierarchy *hierarchy.Hierarchy
	bindings  map[Block]map[string]*syntax.Type
}

func New() *Checker {
	return &Checker{bindings: make(map[Block]map[string]*syntax.Type)}
}

// Init builds and installs the hierarchy. On error the previous hierarchy
// stays in place.
func (c *Checker) Init(defs map[string]hierarchy.Def) error {
	h, err := hierarchy.New(defs)
	if err != nil {
		return err
	}

	c.hierarchy = h

	return nil
}

// Hierarchy exposes the installed hierarchy, or nil before Init.
func (c *Checker) Hierarchy() *hierarchy.Hierarchy {
	return c.hierarchy
}

// DoTypeChecks reports whether the two sides of a prospective link are
// compatible. Either argument may be the superior side; two connections of
// the same polarity never link. The peers' current links feed the
// resolution, so the answer can change as the workspace around the pair
// changes.
func (c *Checker) DoTypeChecks(a, b Connection) (bool, error) {
	if c.hierarchy == nil {
		return false, c.connErr(a, b, ErrNotInitialized)
	}

	parent, child := a, b
	if !parent.Superior() {
		parent, child = child, parent
	}

	if !parent.Superior() || child.Superior() {
		return false, nil
	}

	st := newFlowState()

	parentTypes, err := c.resolveTypes(parent, nil, st)
	if err != nil {
		return false, c.connErr(parent, child, err)
	}

	childTypes, err := c.resolveTypes(child, nil, st)
	if err != nil {
		return false, c.connErr(parent, child, err)
	}

	if anyUnbound(parentTypes) || anyUnbound(childTypes) {
		return true, nil
	}

	// a parent whose check is a bare generic constrained only by its own
	// inputs accepts any child that unifies with those inputs
	if generic, ok := c.bareGeneric(parent); ok {
		inputsOnly, err := c.onlyInputBound(parent, generic, st)
		if err != nil {
			return false, c.connErr(parent, child, err)
		}

		if inputsOnly {
			for _, childType := range childTypes {
				for _, parentType := range parentTypes {
					common, err := c.hierarchy.NearestCommonAncestors(childType, parentType)
					if err != nil {
						return false, c.connErr(parent, child, err)
					}

					if len(common) > 0 {
						return true, nil
					}
				}
			}

			return false, nil
		}
	}

	for _, childType := range childTypes {
		for _, parentType := range parentTypes {
			ok, err := c.hierarchy.TypeFulfillsType(childType, parentType)
			if err != nil {
				return false, c.connErr(parent, child, err)
			}

			if ok {
				return true, nil
			}
		}
	}

	return false, nil
}

// ExplicitTypes resolves the explicit types generic can take on block. An
// unbound generic yields no types.
func (c *Checker) ExplicitTypes(block Block, generic string) ([]string, error) {
	if c.hierarchy == nil {
		return nil, ErrNotInitialized
	}

	folded := syntax.FoldIdent(generic)
	if !c.hierarchy.IsGeneric(folded) {
		return nil, fmt.Errorf("%w: %q is not a generic", hierarchy.ErrBadType, generic)
	}

	bound, err := c.boundTypes(block, folded, nil, newFlowState())
	if err != nil {
		return nil, err
	}

	var types []string
	for _, ty := range bound {
		if !ty.IsUnbound() {
			types = append(types, ty.String())
		}
	}

	return types, nil
}

// ExplicitTypesOfConnection resolves conn's check into explicit types,
// substituting every combination of its generics' resolved types. Generics
// that stay unbound render as `*`.
func (c *Checker) ExplicitTypesOfConnection(conn Connection) ([]string, error) {
	if c.hierarchy == nil {
		return nil, c.connErr(conn, nil, ErrNotInitialized)
	}

	resolved, err := c.resolveTypes(conn, nil, newFlowState())
	if err != nil {
		return nil, c.connErr(conn, nil, err)
	}

	types := make([]string, 0, len(resolved))
	for _, ty := range resolved {
		types = append(types, ty.String())
	}

	return types, nil
}

// Generics lists the generic names appearing in block's checks, in
// connection order.
func (c *Checker) Generics(block Block) ([]string, error) {
	if c.hierarchy == nil {
		return nil, ErrNotInitialized
	}

	var generics []string
	seen := make(map[string]struct{})
	for _, conn := range block.Connections() {
		check, err := c.parseCheck(conn)
		if err != nil {
			return nil, c.connErr(conn, nil, err)
		}

		names, err := c.collectGenerics(check)
		if err != nil {
			return nil, c.connErr(conn, nil, err)
		}

		for _, name := range names {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				generics = append(generics, name)
			}
		}
	}

	return generics, nil
}

// BindType pins generic to an explicit type on block, then revalidates the
// block's links: every link is disconnected, rechecked under the new
// binding, and reconnected only if still compatible. Finally the block's
// neighbours are bumped so the visual layer re-renders.
func (c *Checker) BindType(block Block, generic string, explicit string) error {
	if c.hierarchy == nil {
		return ErrNotInitialized
	}

	folded := syntax.FoldIdent(generic)
	if !c.hierarchy.IsGeneric(folded) {
		return fmt.Errorf("%w: %q is not a generic", ErrInvalidBinding, generic)
	}

	ty, perr := syntax.ParseType(explicit)
	if perr != nil {
		return fmt.Errorf("%w: %w", hierarchy.ErrBadType, perr)
	}

	if err := c.validateExplicit(ty); err != nil {
		return err
	}

	if c.bindings[block] == nil {
		c.bindings[block] = make(map[string]*syntax.Type)
	}
	c.bindings[block][folded] = ty

	if err := c.revalidate(block); err != nil {
		return err
	}

	block.BumpNeighbours()

	return nil
}

// UnbindType removes the binding for generic on block, reporting whether
// one existed. Existing links stay untouched; the caller decides whether a
// recheck is warranted.
func (c *Checker) UnbindType(block Block, generic string) (bool, error) {
	if c.hierarchy == nil {
		return false, ErrNotInitialized
	}

	folded := syntax.FoldIdent(generic)
	if _, ok := c.bindings[block][folded]; !ok {
		return false, nil
	}

	delete(c.bindings[block], folded)
	if len(c.bindings[block]) == 0 {
		delete(c.bindings, block)
	}

	return true, nil
}

// BoundType reports the explicit type bound to generic on block.
func (c *Checker) BoundType(block Block, generic string) (string, bool) {
	ty, ok := c.bindings[block][syntax.FoldIdent(generic)]
	if !ok {
		return "", false
	}

	return ty.String(), true
}

// validateExplicit rejects types that are not fully explicit: `*`, generic
// names, and arity mismatches anywhere in the tree.
func (c *Checker) validateExplicit(ty *syntax.Type) error {
	if ty.Name == syntax.Unbound {
		return fmt.Errorf("%w: %q is not explicit", ErrInvalidBinding, syntax.Unbound)
	}

	if c.hierarchy.IsGeneric(ty.Name) {
		return fmt.Errorf("%w: %q is a generic", ErrInvalidBinding, ty.Name)
	}

	def, err := c.hierarchy.Definition(ty.Name)
	if err != nil {
		return err
	}

	if len(ty.Params) != def.Arity() {
		return fmt.Errorf("%w: %q takes %d parameters, but %d were given", hierarchy.ErrBadType, ty.Name, def.Arity(), len(ty.Params))
	}

	for _, param := range ty.Params {
		if err := c.validateExplicit(param); err != nil {
			return err
		}
	}

	return nil
}

func (c *Checker) revalidate(block Block) error {
	type link struct {
		conn, peer Connection
	}

	var links []link
	for _, conn := range block.Connections() {
		if peer := conn.Peer(); peer != nil {
			links = append(links, link{conn, peer})
		}
	}

	// disconnect everything first so no link's resolution sees another
	// stale one
	for _, l := range links {
		l.conn.Disconnect()
	}

	for i, l := range links {
		ok, err := c.DoTypeChecks(l.conn, l.peer)
		if err != nil {
			// put the unchecked links back before surfacing the error
			for _, rest := range links[i:] {
				rest.conn.Connect(rest.peer)
			}

			return err
		}

		if ok {
			l.conn.Connect(l.peer)
		}
	}

	return nil
}

// bareGeneric reports the generic name when conn's check is nothing but a
// generic identifier.
func (c *Checker) bareGeneric(conn Connection) (string, bool) {
	check, err := c.parseCheck(conn)
	if err != nil || len(check.Params) > 0 {
		return "", false
	}

	if !c.hierarchy.IsGeneric(check.Name) {
		return "", false
	}

	return check.Name, true
}

// onlyInputBound reports whether generic on conn's block is constrained by
// nothing beyond the block's superior-side connections: no external
// binding, and no linked output or previous connection flowing a concrete
// type into it.
func (c *Checker) onlyInputBound(conn Connection, generic string, st *flowState) (bool, error) {
	block := conn.SourceBlock()
	if _, ok := c.bindings[block][generic]; ok {
		return false, nil
	}

	for _, other := range block.Connections() {
		if other.Superior() {
			continue
		}

		flowed, err := c.flowedTypes(other, generic, st)
		if err != nil {
			return false, err
		}

		for _, ty := range flowed {
			if !ty.IsUnbound() {
				return false, nil
			}
		}
	}

	return true, nil
}

func (c *Checker) connErr(conn, other Connection, err error) error {
	e := &ConnectionCheckError{Err: err}
	if conn != nil {
		e.Conn = DescribeConnection(conn)
	}
	if other != nil {
		e.Other = DescribeConnection(other)
	}

	return e
}

func anyUnbound(types []*syntax.Type) bool {
	for _, ty := range types {
		if ty.IsUnbound() {
			return true
		}
	}

	return false
}
