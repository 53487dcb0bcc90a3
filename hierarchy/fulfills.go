package hierarchy

import "dovetail/syntax"

// TypeFulfillsType reports whether sub can be used where sup is expected:
// sub is sup, or declares a fulfills path to it, with parameters compatible
// under sup's declared variance. `*` at any position is compatible with
// everything.
func (h *Hierarchy) TypeFulfillsType(sub, sup *syntax.Type) (bool, error) {
	if err := h.ValidateType(sub); err != nil {
		return false, err
	}

	if err := h.ValidateType(sup); err != nil {
		return false, err
	}

	return h.fulfills(sub, sup), nil
}

func (h *Hierarchy) fulfills(sub, sup *syntax.Type) bool {
	if sub.IsUnbound() || sup.IsUnbound() {
		return true
	}

	if sub.Name == sup.Name {
		return h.paramsFulfill(h.defs[sup.Name], sub.Params, sup.Params)
	}

	for _, m := range h.defs[sub.Name].ancestors[sup.Name] {
		if h.paramsFulfill(h.defs[sup.Name], m.instantiate(sub.Params), sup.Params) {
			return true
		}
	}

	return false
}

// paramsFulfill compares parameter lists position by position under the
// declared variance of each of sup's parameters. Invariant positions demand
// structural equality all the way down, regardless of nested variance.
func (h *Hierarchy) paramsFulfill(sup *Definition, subParams, supParams []*syntax.Type) bool {
	for i, param := range sup.Params {
		switch param.Variance {
		case Covariant:
			if !h.fulfills(subParams[i], supParams[i]) {
				return false
			}
		case Contravariant:
			if !h.fulfills(supParams[i], subParams[i]) {
				return false
			}
		default:
			if !typesMatch(subParams[i], supParams[i]) {
				return false
			}
		}
	}

	return true
}

// typesMatch is structural equality with `*` equal to everything.
func typesMatch(a, b *syntax.Type) bool {
	if a.IsUnbound() || b.IsUnbound() {
		return true
	}

	if a.Name != b.Name || len(a.Params) != len(b.Params) {
		return false
	}

	for i, param := range a.Params {
		if !typesMatch(param, b.Params[i]) {
			return false
		}
	}

	return true
}
