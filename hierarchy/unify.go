package hierarchy

import (
	"slices"

	set "github.com/hashicorp/go-set/v3"

	"dovetail/syntax"
)

type direction int

const (
	toAncestors direction = iota
	toDescendants
)

func (d direction) flip() direction {
	if d == toAncestors {
		return toDescendants
	}

	return toAncestors
}

// NearestCommonAncestors returns the minimal set of types every input
// fulfills. Bare `*` inputs constrain nothing: with no concrete input the
// result is `*` alone, and conflicting inputs produce an empty result.
func (h *Hierarchy) NearestCommonAncestors(types ...*syntax.Type) ([]*syntax.Type, error) {
	return h.unifyTypes(toAncestors, types)
}

// NearestCommonDescendants returns the maximal set of types that fulfill
// every input, under the same `*` rules as NearestCommonAncestors.
func (h *Hierarchy) NearestCommonDescendants(types ...*syntax.Type) ([]*syntax.Type, error) {
	return h.unifyTypes(toDescendants, types)
}

func (h *Hierarchy) unifyTypes(dir direction, types []*syntax.Type) ([]*syntax.Type, error) {
	for _, ty := range types {
		if err := h.ValidateType(ty); err != nil {
			return nil, err
		}
	}

	return h.unify(dir, types), nil
}

func (h *Hierarchy) unify(dir direction, types []*syntax.Type) []*syntax.Type {
	concrete := make([]*syntax.Type, 0, len(types))
	for _, ty := range types {
		if !ty.IsUnbound() {
			concrete = append(concrete, ty)
		}
	}

	if len(concrete) == 0 {
		if len(types) == 0 {
			return nil
		}

		return []*syntax.Type{syntax.UnboundType()}
	}

	if len(concrete) == 1 {
		return []*syntax.Type{concrete[0].Clone()}
	}

	candidates := make(map[string]*syntax.Type)
	for _, head := range h.commonHeads(dir, concrete) {
		for _, candidate := range h.expandHead(dir, head, concrete) {
			if h.admits(dir, candidate, concrete) {
				candidates[candidate.String()] = candidate
			}
		}
	}

	return h.filterNearest(dir, candidates)
}

// commonHeads intersects the reachable type names of every input (ancestors
// for unification upward, descendants downward) and keeps only the names
// nearest the inputs. Parameter expansion never falls through to a wider
// head: if the nearest head has no admissible instantiation, unification at
// that head fails outright.
func (h *Hierarchy) commonHeads(dir direction, types []*syntax.Type) []string {
	var common *set.Set[string]
	for _, ty := range types {
		reach := h.defs[ty.Name].ancestorNames
		if dir == toDescendants {
			reach = h.descendants[ty.Name]
		}

		if common == nil {
			common = reach.Copy()
		} else {
			common = set.From(common.Intersect(reach).Slice())
		}
	}

	if common == nil {
		return nil
	}

	heads := common.Slice()
	slices.Sort(heads)

	nearest := make([]string, 0, len(heads))
	for _, head := range heads {
		covered := false
		for _, other := range heads {
			if other == head {
				continue
			}

			below := h.defs[other].ancestorNames.Contains(head)
			above := h.defs[head].ancestorNames.Contains(other)
			if dir == toAncestors && below && !above {
				covered = true
				break
			}
			if dir == toDescendants && above && !below {
				covered = true
				break
			}
		}

		if !covered {
			nearest = append(nearest, head)
		}
	}

	return nearest
}

// expandHead builds every candidate instantiation of head from the inputs'
// parameter projections onto it. A hierarchy that reaches head along
// several fulfills paths contributes one projection per path.
func (h *Hierarchy) expandHead(dir direction, head string, types []*syntax.Type) []*syntax.Type {
	def := h.defs[head]

	projections := make([][][]*syntax.Type, len(types))
	for j, ty := range types {
		var choices [][]*syntax.Type
		if dir == toAncestors {
			for _, m := range h.defs[ty.Name].ancestors[head] {
				choices = append(choices, m.instantiate(ty.Params))
			}
		} else {
			for _, m := range def.ancestors[ty.Name] {
				out := make([]*syntax.Type, def.Arity())
				if m.match(ty.Params, out) {
					choices = append(choices, out)
				}
			}
		}

		if len(choices) == 0 {
			return nil
		}

		projections[j] = choices
	}

	var candidates []*syntax.Type
	for _, combo := range cartesian(projections) {
		candidates = append(candidates, h.combine(dir, def, combo)...)
	}

	return candidates
}

// combine merges one projection per input into instantiations of def,
// honoring each parameter's declared variance: covariant positions unify in
// the same direction, contravariant positions in the opposite one, and
// invariant positions must reconcile structurally. Unconstrained positions
// become `*`.
func (h *Hierarchy) combine(dir direction, def *Definition, combo [][]*syntax.Type) []*syntax.Type {
	if def.Arity() == 0 {
		return []*syntax.Type{{Name: def.Name}}
	}

	positions := make([][]*syntax.Type, def.Arity())
	for i, param := range def.Params {
		values := make([]*syntax.Type, 0, len(combo))
		for _, projection := range combo {
			if projection[i] != nil {
				values = append(values, projection[i])
			}
		}

		if len(values) == 0 {
			positions[i] = []*syntax.Type{syntax.UnboundType()}
			continue
		}

		switch param.Variance {
		case Covariant:
			positions[i] = h.unify(dir, values)
		case Contravariant:
			positions[i] = h.unify(dir.flip(), values)
		default:
			merged, ok := values[0], true
			for _, value := range values[1:] {
				if merged, ok = mergeTypes(merged, value); !ok {
					break
				}
			}

			if !ok {
				return nil
			}

			positions[i] = []*syntax.Type{merged}
		}

		if len(positions[i]) == 0 {
			return nil
		}
	}

	var out []*syntax.Type
	for _, params := range cartesian(positions) {
		out = append(out, &syntax.Type{Name: def.Name, Params: params})
	}

	return out
}

// admits verifies a candidate against every input through the subtype
// relation, discarding anything the variance rules let slip through.
func (h *Hierarchy) admits(dir direction, candidate *syntax.Type, types []*syntax.Type) bool {
	for _, ty := range types {
		if dir == toAncestors {
			if !h.fulfills(ty, candidate) {
				return false
			}
		} else if !h.fulfills(candidate, ty) {
			return false
		}
	}

	return true
}

// filterNearest keeps the candidates nearest the inputs: minimal for
// ancestors, maximal for descendants. Mutually related candidates collapse
// to the most concrete one.
func (h *Hierarchy) filterNearest(dir direction, candidates map[string]*syntax.Type) []*syntax.Type {
	keys := make([]string, 0, len(candidates))
	for key := range candidates {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var out []*syntax.Type
	for _, key := range keys {
		dominated := false
		for _, other := range keys {
			if other != key && h.dominates(dir, candidates[other], other, candidates[key], key) {
				dominated = true
				break
			}
		}

		if !dominated {
			out = append(out, candidates[key])
		}
	}

	return out
}

// dominates reports whether a makes b redundant: a is strictly nearer the
// inputs, or the two are equivalent and a is preferred for having fewer `*`
// or the smaller rendering.
func (h *Hierarchy) dominates(dir direction, a *syntax.Type, aKey string, b *syntax.Type, bKey string) bool {
	nearer, farther := h.fulfills(a, b), h.fulfills(b, a)
	if dir == toDescendants {
		nearer, farther = farther, nearer
	}

	if nearer && !farther {
		return true
	}

	if nearer && farther {
		na, nb := countUnbound(a), countUnbound(b)
		if na != nb {
			return na < nb
		}

		return aKey < bKey
	}

	return false
}

func countUnbound(ty *syntax.Type) int {
	count := 0
	if ty.Name == syntax.Unbound {
		count = 1
	}

	for _, param := range ty.Params {
		count += countUnbound(param)
	}

	return count
}

// mergeTypes structurally reconciles two type expressions, treating bare
// `*` as a wildcard that defers to the other side.
func mergeTypes(a, b *syntax.Type) (*syntax.Type, bool) {
	if a.IsUnbound() {
		return b.Clone(), true
	}

	if b.IsUnbound() {
		return a.Clone(), true
	}

	if a.Name != b.Name || len(a.Params) != len(b.Params) {
		return nil, false
	}

	merged := &syntax.Type{Name: a.Name}
	for i, param := range a.Params {
		p, ok := mergeTypes(param, b.Params[i])
		if !ok {
			return nil, false
		}

		merged.Params = append(merged.Params, p)
	}

	return merged, true
}

// cartesian expands choice lists into every combination, one element per
// list.
func cartesian[T any](choices [][]T) [][]T {
	combos := [][]T{nil}
	for _, options := range choices {
		next := make([][]T, 0, len(combos)*len(options))
		for _, combo := range combos {
			for _, option := range options {
				extended := make([]T, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, option))
			}
		}

		combos = next
	}

	return combos
}
