package server

import (
	"strings"
	"testing"

	"dovetail/hierarchy"
	"dovetail/workspace"
)

func zooDefs() map[string]hierarchy.Def {
	return map[string]hierarchy.Def{
		"animal":  {},
		"mammal":  {Fulfills: []string{"animal"}},
		"dog":     {Fulfills: []string{"mammal"}},
		"cat":     {Fulfills: []string{"mammal"}},
		"reptile": {Fulfills: []string{"animal"}},
	}
}

func TestHandleCheck(t *testing.T) {
	kennel := "mammal"
	rex := "dog"
	sid := "reptile"

	response, status, err := handle(Request{Check: &CheckRequest{
		Hierarchy: zooDefs(),
		Workspace: &workspace.Document{
			Blocks: []workspace.BlockDoc{
				{ID: "kennel", Inputs: []workspace.InputDoc{{Name: "occupant", Check: kennel}}},
				{ID: "rex", Output: &rex},
				{ID: "sid", Output: &sid},
			},
			Links: []workspace.LinkDoc{{Parent: "kennel.occupant", Child: "rex"}},
		},
		Pairs: []CheckPair{{Parent: "kennel.occupant", Child: "sid"}},
	}})
	if err != nil {
		t.Fatalf("handle error: %v", err)
	}

	if status != 200 {
		t.Fatalf("status = %d, want 200", status)
	}

	check := response.(*CheckResponse)
	if len(check.Links) != 1 || !check.Links[0].Compatible {
		t.Errorf("links = %+v, want one compatible link", check.Links)
	}

	if len(check.Pairs) != 1 || check.Pairs[0].Compatible {
		t.Errorf("pairs = %+v, want one incompatible pair", check.Pairs)
	}
}

func TestHandleCheckBadHierarchy(t *testing.T) {
	_, status, err := handle(Request{Check: &CheckRequest{
		Hierarchy: map[string]hierarchy.Def{
			"dog": {Fulfills: []string{"mammal"}},
		},
	}})
	if err == nil {
		t.Fatal("handle accepted an undefined parent")
	}

	if status != 500 {
		t.Errorf("status = %d, want 500", status)
	}
}

func TestHandleUnify(t *testing.T) {
	response, _, err := handle(Request{Unify: &UnifyRequest{
		Hierarchy: zooDefs(),
		Types:     []string{"dog", "cat"},
	}})
	if err != nil {
		t.Fatalf("handle error: %v", err)
	}

	unify := response.(UnifyResponse)
	if len(unify.Types) != 1 || unify.Types[0] != "mammal" {
		t.Errorf("types = %v, want [mammal]", unify.Types)
	}
}

func TestHandleUnifyDescendants(t *testing.T) {
	response, _, err := handle(Request{Unify: &UnifyRequest{
		Hierarchy:   zooDefs(),
		Types:       []string{"dog", "reptile"},
		Descendants: true,
	}})
	if err != nil {
		t.Fatalf("handle error: %v", err)
	}

	unify := response.(UnifyResponse)
	if len(unify.Types) != 0 {
		t.Errorf("types = %v, want none", unify.Types)
	}
}

func TestHandleShareDisabled(t *testing.T) {
	_, _, err := handle(Request{Share: &ShareRequest{Project: "{}"}})
	if err == nil || !strings.Contains(err.Error(), "sharing not enabled") {
		t.Errorf("err = %v, want sharing not enabled", err)
	}

	_, _, err = handle(Request{GetShared: &GetSharedRequest{Id: "missing"}})
	if err == nil || !strings.Contains(err.Error(), "sharing not enabled") {
		t.Errorf("err = %v, want sharing not enabled", err)
	}
}

func TestHandleInvalidRequest(t *testing.T) {
	_, status, err := handle(Request{})
	if err == nil {
		t.Fatal("handle accepted an empty request")
	}

	if status != 400 {
		t.Errorf("status = %d, want 400", status)
	}
}
