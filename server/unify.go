package server

import (
	"fmt"

	"dovetail/hierarchy"
	"dovetail/syntax"
)

type UnifyRequest struct {
	Hierarchy map[string]hierarchy.Def `json:"hierarchy"`
	Types     []string                 `json:"types"`

	// Descendants selects nearest common descendants instead of ancestors.
	Descendants bool `json:"descendants,omitempty"`
}

type UnifyResponse struct {
	Types []string `json:"types"`
}

func (request *UnifyRequest) handle() (UnifyResponse, error) {
	if request.Hierarchy == nil {
		return UnifyResponse{}, fmt.Errorf("unify request has no hierarchy")
	}

	h, err := hierarchy.New(request.Hierarchy)
	if err != nil {
		return UnifyResponse{}, err
	}

	types := make([]*syntax.Type, 0, len(request.Types))
	for _, source := range request.Types {
		ty, perr := syntax.ParseType(source)
		if perr != nil {
			return UnifyResponse{}, perr
		}

		types = append(types, ty)
	}

	var unified []*syntax.Type
	if request.Descendants {
		unified, err = h.NearestCommonDescendants(types...)
	} else {
		unified, err = h.NearestCommonAncestors(types...)
	}
	if err != nil {
		return UnifyResponse{}, err
	}

	response := UnifyResponse{Types: make([]string, 0, len(unified))}
	for _, ty := range unified {
		response.Types = append(response.Types, ty.String())
	}

	return response, nil
}
