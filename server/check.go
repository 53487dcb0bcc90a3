package server

import (
	"fmt"

	"dovetail/driver"
	"dovetail/hierarchy"
	"dovetail/workspace"
)

type CheckRequest struct {
	Hierarchy map[string]hierarchy.Def `json:"hierarchy"`
	Workspace *workspace.Document      `json:"workspace,omitempty"`

	// Pairs are prospective links to check without connecting them.
	Pairs []CheckPair `json:"pairs,omitempty"`
}

type CheckPair struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

type CheckResponse struct {
	*driver.Report
	Pairs []PairResult `json:"pairs,omitempty"`
}

type PairResult struct {
	Parent     string `json:"parent"`
	Child      string `json:"child"`
	Compatible bool   `json:"compatible"`
}

func (request *CheckRequest) handle() (*CheckResponse, error) {
	if request.Hierarchy == nil {
		return nil, fmt.Errorf("check request has no hierarchy")
	}

	project := driver.Project{
		Hierarchy: request.Hierarchy,
		Workspace: request.Workspace,
	}

	session, err := project.Load()
	if err != nil {
		return nil, err
	}

	report, err := session.Check()
	if err != nil {
		return nil, err
	}

	response := &CheckResponse{Report: report}

	for _, pair := range request.Pairs {
		parent, err := session.Workspace.Connection(pair.Parent, true)
		if err != nil {
			return nil, err
		}

		child, err := session.Workspace.Connection(pair.Child, false)
		if err != nil {
			return nil, err
		}

		compatible, err := session.Checker.DoTypeChecks(parent, child)
		if err != nil {
			return nil, err
		}

		response.Pairs = append(response.Pairs, PairResult{
			Parent:     pair.Parent,
			Child:      pair.Child,
			Compatible: compatible,
		})
	}

	return response, nil
}
