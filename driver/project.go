package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dovetail/hierarchy"
	"dovetail/workspace"
)

// Project is the on-disk form of a check run: the hierarchy to install and
// an optional workspace to load against it.
type Project struct {
	Hierarchy map[string]hierarchy.Def `json:"hierarchy"`
	Workspace *workspace.Document      `json:"workspace,omitempty"`
}

func ReadProject(path string) (*Project, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var project Project
	if err := json.Unmarshal(source, &project); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if project.Hierarchy == nil {
		return nil, fmt.Errorf("%s: project has no hierarchy", path)
	}

	return &project, nil
}

// ReadProjects reads every .json project under a directory, in name order.
func ReadProjects(path string) ([]NamedProject, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	projects := make([]NamedProject, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		project, err := ReadProject(filepath.Join(path, entry.Name()))
		if err != nil {
			return nil, err
		}

		projects = append(projects, NamedProject{Name: entry.Name(), Project: project})
	}

	return projects, nil
}

type NamedProject struct {
	Name    string
	Project *Project
}

// Load installs the hierarchy, builds the workspace, and applies any
// bindings the document carries. Bindings run through BindType, so links
// that a binding invalidates come up disconnected.
func (project *Project) Load() (*Session, error) {
	session, err := NewSession(project.Hierarchy)
	if err != nil {
		return nil, err
	}

	if project.Workspace == nil {
		return session, nil
	}

	w, err := project.Workspace.Build()
	if err != nil {
		return nil, err
	}

	session.Workspace = w

	for _, binding := range project.Workspace.Bindings {
		block, ok := w.Block(binding.Block)
		if !ok {
			return nil, fmt.Errorf("binding references unknown block %q", binding.Block)
		}

		if err := session.Checker.BindType(block, binding.Generic, binding.Type); err != nil {
			return nil, err
		}
	}

	return session, nil
}
