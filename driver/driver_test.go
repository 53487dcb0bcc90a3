package driver_test

import (
	"os"
	"path/filepath"
	"testing"

	"dovetail/driver"
)

func writeProject(t *testing.T, name, source string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	return path
}

func TestLoadAndCheck(t *testing.T) {
	path := writeProject(t, "zoo.json", `{
		"hierarchy": {
			"animal": {},
			"mammal": {"fulfills": ["animal"]},
			"dog": {"fulfills": ["mammal"]},
			"reptile": {"fulfills": ["animal"]}
		},
		"workspace": {
			"blocks": [
				{"id": "kennel", "inputs": [{"name": "occupant", "check": "mammal"}]},
				{"id": "tank", "inputs": [{"name": "occupant", "check": "reptile"}]},
				{"id": "rex", "output": "dog"},
				{"id": "fido", "output": "dog"}
			],
			"links": [
				{"parent": "kennel.occupant", "child": "rex"},
				{"parent": "tank.occupant", "child": "fido"}
			]
		}
	}`)

	project, err := driver.ReadProject(path)
	if err != nil {
		t.Fatalf("ReadProject error: %v", err)
	}

	session, err := project.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	report, err := session.Check()
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}

	if len(report.Links) != 2 {
		t.Fatalf("got %d links, want 2", len(report.Links))
	}

	if !report.Links[0].Compatible {
		t.Errorf("kennel.occupant / rex reported incompatible")
	}

	if report.Links[1].Compatible {
		t.Errorf("tank.occupant / fido reported compatible")
	}

	if got := report.Incompatible(); got != 1 {
		t.Errorf("Incompatible() = %d, want 1", got)
	}
}

func TestLoadAppliesBindings(t *testing.T) {
	path := writeProject(t, "bound.json", `{
		"hierarchy": {
			"animal": {},
			"mammal": {"fulfills": ["animal"]},
			"dog": {"fulfills": ["mammal"]},
			"reptile": {"fulfills": ["animal"]}
		},
		"workspace": {
			"blocks": [
				{"id": "box", "inputs": [{"name": "item", "check": "t"}]},
				{"id": "rex", "output": "dog"}
			],
			"links": [{"parent": "box.item", "child": "rex"}],
			"bindings": [{"block": "box", "generic": "t", "type": "reptile"}]
		}
	}`)

	project, err := driver.ReadProject(path)
	if err != nil {
		t.Fatalf("ReadProject error: %v", err)
	}

	session, err := project.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	// the binding makes the existing link incompatible, so loading drops it
	report, err := session.Check()
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}

	if len(report.Links) != 0 {
		t.Fatalf("got %d links, want 0", len(report.Links))
	}

	box, ok := session.Workspace.Block("box")
	if !ok {
		t.Fatal("box missing from workspace")
	}

	types, err := session.Checker.ExplicitTypes(box, "t")
	if err != nil {
		t.Fatalf("ExplicitTypes error: %v", err)
	}

	if len(types) != 1 || types[0] != "reptile" {
		t.Errorf("ExplicitTypes = %v, want [reptile]", types)
	}
}

func TestReadProjectErrors(t *testing.T) {
	if _, err := driver.ReadProject(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadProject on a missing file succeeded")
	}

	path := writeProject(t, "empty.json", `{}`)
	if _, err := driver.ReadProject(path); err == nil {
		t.Error("ReadProject accepted a project without a hierarchy")
	}
}

func TestReadProjects(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"b.json", "a.json"} {
		source := `{"hierarchy": {"animal": {}}}`
		if err := os.WriteFile(filepath.Join(dir, name), []byte(source), 0644); err != nil {
			t.Fatalf("WriteFile error: %v", err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	projects, err := driver.ReadProjects(dir)
	if err != nil {
		t.Fatalf("ReadProjects error: %v", err)
	}

	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}

	if projects[0].Name != "a.json" || projects[1].Name != "b.json" {
		t.Errorf("projects out of order: %s, %s", projects[0].Name, projects[1].Name)
	}
}
