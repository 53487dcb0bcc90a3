// Package hierarchy implements a registry of parameterized nominal types
// related by declared fulfills edges, and the subtype and unification
// queries the connection checker asks of it.
package hierarchy

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	set "github.com/hashicorp/go-set/v3"

	"dovetail/syntax"
)

// Variance of a formal type parameter.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "co"
	case Contravariant:
		return "contra"
	default:
		return "inv"
	}
}

// ParseVariance reads a variance keyword. The empty string means invariant.
func ParseVariance(s string) (Variance, error) {
	switch syntax.FoldIdent(s) {
	case "co":
		return Covariant, nil
	case "contra":
		return Contravariant, nil
	case "inv", "":
		return Invariant, nil
	default:
		return Invariant, fmt.Errorf("%w: unknown variance %q", ErrHierarchy, s)
	}
}

func (v Variance) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Variance) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseVariance(s)
	if err != nil {
		return err
	}

	*v = parsed

	return nil
}

// ParamDef is one formal parameter of a declared type.
type ParamDef struct {
	Name     string   `json:"name"`
	Variance Variance `json:"variance"`
}

// Def is the wire form of one declared type.
type Def struct {
	Params   []ParamDef `json:"params,omitempty"`
	Fulfills []string   `json:"fulfills,omitempty"`
}

// Definition is a declared type after validation: its formal parameters,
// its parsed fulfills expressions, and the precomputed parameter mappings
// onto every ancestor.
type Definition struct {
	Name     string
	Params   []ParamDef
	Fulfills []*syntax.Type

	paramIndex    map[string]int
	ancestors     map[string][]mapping
	ancestorOrder []string
	ancestorNames *set.Set[string]
}

// Arity is the number of formal parameters.
func (def *Definition) Arity() int {
	return len(def.Params)
}

// ParamIndex resolves a formal parameter name to its position.
func (def *Definition) ParamIndex(name string) (int, bool) {
	i, ok := def.paramIndex[syntax.FoldIdent(name)]
	return i, ok
}

// Hierarchy is a validated set of type definitions. It is immutable once
// built and safe for concurrent reads.
type Hierarchy struct {
	defs        map[string]*Definition
	names       []string
	descendants map[string]*set.Set[string]
}

// New validates defs and builds the hierarchy. Names fold before any
// comparison, so declarations and references are case-insensitive.
func New(defs map[string]Def) (*Hierarchy, error) {
	h := &Hierarchy{
		defs:        make(map[string]*Definition, len(defs)),
		descendants: make(map[string]*set.Set[string], len(defs)),
	}

	keys := make([]string, 0, len(defs))
	for name := range defs {
		keys = append(keys, name)
	}
	slices.Sort(keys)

	for _, name := range keys {
		folded := syntax.FoldIdent(name)
		if folded == syntax.Unbound {
			return nil, fmt.Errorf("%w: %q is reserved and cannot be declared", ErrBadType, syntax.Unbound)
		}

		if _, ok := h.defs[folded]; ok {
			return nil, fmt.Errorf("%w: %q is declared twice", ErrHierarchy, folded)
		}

		def := &Definition{
			Name:       folded,
			paramIndex: make(map[string]int, len(defs[name].Params)),
		}

		for _, param := range defs[name].Params {
			pname := syntax.FoldIdent(param.Name)
			if pname == "" || pname == syntax.Unbound {
				return nil, fmt.Errorf("%w: type %q has an invalid parameter name %q", ErrHierarchy, folded, param.Name)
			}

			if _, ok := def.paramIndex[pname]; ok {
				return nil, fmt.Errorf("%w: type %q declares parameter %q twice", ErrHierarchy, folded, pname)
			}

			def.paramIndex[pname] = len(def.Params)
			def.Params = append(def.Params, ParamDef{Name: pname, Variance: param.Variance})
		}

		h.defs[folded] = def
		h.names = append(h.names, folded)
	}

	slices.Sort(h.names)

	// parse fulfills second so forward references resolve
	for _, name := range keys {
		def := h.defs[syntax.FoldIdent(name)]
		for _, source := range defs[name].Fulfills {
			ty, perr := syntax.ParseType(source)
			if perr != nil {
				return nil, fmt.Errorf("%w: type %q fulfills %q: %w", ErrBadType, def.Name, source, perr)
			}

			def.Fulfills = append(def.Fulfills, ty)
		}
	}

	for _, name := range h.names {
		def := h.defs[name]
		for _, parent := range def.Fulfills {
			if err := h.validateFulfills(def, parent); err != nil {
				return nil, err
			}
		}
	}

	if cycle := h.fulfillsCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: fulfills cycle: %s", ErrHierarchy, strings.Join(cycle, " -> "))
	}

	h.buildAncestors()

	return h, nil
}

func (h *Hierarchy) validateFulfills(def *Definition, parent *syntax.Type) error {
	decl, ok := h.defs[parent.Name]
	if !ok {
		return fmt.Errorf("%w: type %q fulfills undefined type %q", ErrHierarchy, def.Name, parent.Name)
	}

	if len(parent.Params) != decl.Arity() {
		return fmt.Errorf("%w: type %q fulfills %q, but %q takes %d parameters", ErrHierarchy, def.Name, parent.String(), decl.Name, decl.Arity())
	}

	for _, arg := range parent.Params {
		if err := h.validateFulfillsArg(def, arg); err != nil {
			return err
		}
	}

	return nil
}

// validateFulfillsArg checks one argument position of a fulfills
// expression: either a formal parameter of def, or a fully explicit type.
func (h *Hierarchy) validateFulfillsArg(def *Definition, arg *syntax.Type) error {
	if arg.Name == syntax.Unbound {
		return fmt.Errorf("%w: type %q uses %q in a fulfills expression", ErrBadType, def.Name, syntax.Unbound)
	}

	if _, ok := def.paramIndex[arg.Name]; ok {
		if len(arg.Params) > 0 {
			return fmt.Errorf("%w: parameter %q of type %q takes no parameters", ErrBadType, arg.Name, def.Name)
		}

		return nil
	}

	decl, ok := h.defs[arg.Name]
	if !ok {
		return fmt.Errorf("%w: type %q references undeclared type %q in a fulfills expression", ErrBadType, def.Name, arg.Name)
	}

	if len(arg.Params) != decl.Arity() {
		return fmt.Errorf("%w: %q takes %d parameters, but %d were given", ErrBadType, arg.Name, decl.Arity(), len(arg.Params))
	}

	for _, nested := range arg.Params {
		if err := h.validateFulfillsArg(def, nested); err != nil {
			return err
		}
	}

	return nil
}

// fulfillsCycle finds a cycle in the fulfills graph, if any.
func (h *Hierarchy) fulfillsCycle() []string {
	visited := make(map[string]bool, len(h.defs))
	inStack := make(map[string]bool, len(h.defs))

	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		visited[name] = true
		inStack[name] = true
		stack = append(stack, name)

		for _, parent := range h.defs[name].Fulfills {
			if inStack[parent.Name] {
				start := slices.Index(stack, parent.Name)
				return append(slices.Clone(stack[start:]), parent.Name)
			}

			if !visited[parent.Name] {
				if cycle := visit(parent.Name); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		inStack[name] = false

		return nil
	}

	for _, name := range h.names {
		if !visited[name] {
			if cycle := visit(name); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}

// buildAncestors computes, for every definition, the parameter mappings
// onto each of its ancestors (itself included), then inverts them into the
// descendants index. Mapping order follows declaration order, so the first
// mapping for an ancestor is the primary one.
func (h *Hierarchy) buildAncestors() {
	built := make(map[string]bool, len(h.defs))

	var build func(name string)
	build = func(name string) {
		if built[name] {
			return
		}
		built[name] = true

		def := h.defs[name]
		def.ancestors = make(map[string][]mapping)
		def.ancestorNames = set.New[string](len(def.Fulfills) + 1)
		def.addAncestor(name, identityMapping(def.Arity()))

		for _, parent := range def.Fulfills {
			args := make([]*term, len(parent.Params))
			for i, arg := range parent.Params {
				args[i] = def.resolveTerm(arg)
			}

			build(parent.Name)

			parentDef := h.defs[parent.Name]
			for _, ancestor := range parentDef.ancestorOrder {
				for _, m := range parentDef.ancestors[ancestor] {
					def.addAncestor(ancestor, m.substitute(args))
				}
			}
		}
	}

	for _, name := range h.names {
		build(name)
	}

	for _, name := range h.names {
		for _, ancestor := range h.defs[name].ancestorOrder {
			ds, ok := h.descendants[ancestor]
			if !ok {
				ds = set.New[string](1)
				h.descendants[ancestor] = ds
			}

			ds.Insert(name)
		}
	}
}

func (def *Definition) addAncestor(name string, m mapping) {
	for _, existing := range def.ancestors[name] {
		if existing.equal(m) {
			return
		}
	}

	if _, ok := def.ancestors[name]; !ok {
		def.ancestorOrder = append(def.ancestorOrder, name)
		def.ancestorNames.Insert(name)
	}

	def.ancestors[name] = append(def.ancestors[name], m)
}

// ValidateType checks that every name in ty is declared with the right
// arity. `*` is allowed at any position but takes no parameters.
func (h *Hierarchy) ValidateType(ty *syntax.Type) error {
	if ty == nil {
		return fmt.Errorf("%w: missing type", ErrBadType)
	}

	if ty.Name == syntax.Unbound {
		if len(ty.Params) > 0 {
			return fmt.Errorf("%w: %q takes no parameters", ErrBadType, syntax.Unbound)
		}

		return nil
	}

	def, ok := h.defs[ty.Name]
	if !ok {
		return fmt.Errorf("%w: %q is not declared", ErrBadType, ty.Name)
	}

	if len(ty.Params) != def.Arity() {
		return fmt.Errorf("%w: %q takes %d parameters, but %d were given", ErrBadType, ty.Name, def.Arity(), len(ty.Params))
	}

	for _, param := range ty.Params {
		if err := h.ValidateType(param); err != nil {
			return err
		}
	}

	return nil
}

// TypeExists reports whether name is declared. Matching folds case.
func (h *Hierarchy) TypeExists(name string) bool {
	_, ok := h.defs[syntax.FoldIdent(name)]
	return ok
}

// IsGeneric reports whether name acts as a generic: neither declared nor
// the reserved `*`.
func (h *Hierarchy) IsGeneric(name string) bool {
	name = syntax.FoldIdent(name)
	if name == syntax.Unbound {
		return false
	}

	_, ok := h.defs[name]

	return !ok
}

// Definition looks up a declared type.
func (h *Hierarchy) Definition(name string) (*Definition, error) {
	def, ok := h.defs[syntax.FoldIdent(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not declared", ErrBadType, name)
	}

	return def, nil
}

// Names lists every declared type in sorted order.
func (h *Hierarchy) Names() []string {
	return slices.Clone(h.names)
}

// AncestorNames lists every type name reaches through fulfills, itself
// included, in sorted order.
func (h *Hierarchy) AncestorNames(name string) ([]string, error) {
	def, err := h.Definition(name)
	if err != nil {
		return nil, err
	}

	names := def.ancestorNames.Slice()
	slices.Sort(names)

	return names, nil
}

// DescendantNames lists every type that reaches name through fulfills,
// itself included, in sorted order.
func (h *Hierarchy) DescendantNames(name string) ([]string, error) {
	def, err := h.Definition(name)
	if err != nil {
		return nil, err
	}

	names := h.descendants[def.Name].Slice()
	slices.Sort(names)

	return names, nil
}
