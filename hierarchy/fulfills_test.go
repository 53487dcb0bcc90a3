package hierarchy

import (
	"errors"
	"testing"
)

func TestTypeFulfillsType(t *testing.T) {
	h := zoo(t)

	cases := []struct {
		sub, sup string
		want     bool
	}{
		{"dog", "dog", true},
		{"dog", "mammal", true},
		{"dog", "animal", true},
		{"dog", "cat", false},
		{"mammal", "dog", false},
		{"bat", "flyinganimal", true},
		{"bat", "mammal", true},
		{"reptile", "mammal", false},
		{"animal", "animal", true},

		{"getterlist[dog]", "getterlist[mammal]", true},
		{"getterlist[mammal]", "getterlist[dog]", false},
		{"adderlist[mammal]", "adderlist[dog]", true},
		{"adderlist[dog]", "adderlist[mammal]", false},
		{"list[dog]", "list[dog]", true},
		{"list[dog]", "list[mammal]", false},
		{"list[mammal]", "list[dog]", false},

		{"list[dog]", "getterlist[dog]", true},
		{"list[dog]", "getterlist[mammal]", true},
		{"list[mammal]", "adderlist[dog]", true},
		{"list[dog]", "adderlist[mammal]", false},
		{"getterlist[dog]", "list[dog]", false},

		{"dict[dog,cat]", "dict[dog,cat]", true},
		{"dict[dog,cat]", "dict[dog,dog]", false},
		{"dict[dog,cat]", "dict[mammal,cat]", false},

		{"*", "dog", true},
		{"dog", "*", true},
		{"*", "*", true},
		{"list[*]", "list[dog]", true},
		{"list[dog]", "list[*]", true},
		{"getterlist[*]", "getterlist[dog]", true},
		{"list[*]", "getterlist[dog]", true},
	}

	for _, c := range cases {
		got, err := h.TypeFulfillsType(ty(t, c.sub), ty(t, c.sup))
		if err != nil {
			t.Fatalf("TypeFulfillsType(%s, %s): %v", c.sub, c.sup, err)
		}

		if got != c.want {
			t.Fatalf("TypeFulfillsType(%s, %s) = %v, want %v", c.sub, c.sup, got, c.want)
		}
	}
}

func TestTypeFulfillsTypeReflexive(t *testing.T) {
	h := zoo(t)

	for _, source := range []string{"animal", "mammal", "dog", "bat", "list[dog]", "dict[dog,cat]", "getterlist[mammal]"} {
		ok, err := h.TypeFulfillsType(ty(t, source), ty(t, source))
		if err != nil {
			t.Fatalf("TypeFulfillsType(%s, %s): %v", source, source, err)
		}

		if !ok {
			t.Fatalf("%s should fulfill itself", source)
		}
	}
}

func TestTypeFulfillsTypeErrors(t *testing.T) {
	h := zoo(t)

	if _, err := h.TypeFulfillsType(ty(t, "unicorn"), ty(t, "dog")); !errors.Is(err, ErrBadType) {
		t.Fatalf("undeclared sub: got %v, want ErrBadType", err)
	}

	if _, err := h.TypeFulfillsType(ty(t, "dog"), ty(t, "list[dog,cat]")); !errors.Is(err, ErrBadType) {
		t.Fatalf("arity mismatch: got %v, want ErrBadType", err)
	}
}

func TestTypeFulfillsTypeMultiplePaths(t *testing.T) {
	h, err := New(map[string]Def{
		"animal":    {},
		"dog":       {Fulfills: []string{"animal"}},
		"cat":       {Fulfills: []string{"animal"}},
		"container": {Params: []ParamDef{{Name: "T", Variance: Covariant}}},
		"both":      {Params: []ParamDef{{Name: "A"}, {Name: "B"}}, Fulfills: []string{"container[A]", "container[B]"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := []struct {
		sub, sup string
		want     bool
	}{
		{"both[dog,cat]", "container[dog]", true},
		{"both[dog,cat]", "container[cat]", true},
		{"both[dog,cat]", "container[animal]", true},
		{"both[dog,dog]", "container[cat]", false},
	}

	for _, c := range cases {
		got, err := h.TypeFulfillsType(ty(t, c.sub), ty(t, c.sup))
		if err != nil {
			t.Fatalf("TypeFulfillsType(%s, %s): %v", c.sub, c.sup, err)
		}

		if got != c.want {
			t.Fatalf("TypeFulfillsType(%s, %s) = %v, want %v", c.sub, c.sup, got, c.want)
		}
	}
}
