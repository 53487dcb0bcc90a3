package hierarchy

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"dovetail/syntax"
)

func ty(t *testing.T, source string) *syntax.Type {
	t.Helper()

	parsed, err := syntax.ParseType(source)
	if err != nil {
		t.Fatalf("ParseType(%q): %v", source, err)
	}

	return parsed
}

func zoo(t *testing.T) *Hierarchy {
	t.Helper()

	h, err := New(map[string]Def{
		"animal":       {},
		"mammal":       {Fulfills: []string{"animal"}},
		"reptile":      {Fulfills: []string{"animal"}},
		"flyinganimal": {Fulfills: []string{"animal"}},
		"dog":          {Fulfills: []string{"mammal"}},
		"cat":          {Fulfills: []string{"mammal"}},
		"bat":          {Fulfills: []string{"mammal", "flyinganimal"}},
		"getterlist":   {Params: []ParamDef{{Name: "A", Variance: Covariant}}},
		"adderlist":    {Params: []ParamDef{{Name: "A", Variance: Contravariant}}},
		"list":         {Params: []ParamDef{{Name: "A", Variance: Invariant}}, Fulfills: []string{"getterlist[A]", "adderlist[A]"}},
		"dict":         {Params: []ParamDef{{Name: "K"}, {Name: "V"}}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return h
}

func TestNewErrors(t *testing.T) {
	cases := []struct {
		name string
		defs map[string]Def
		kind error
	}{
		{
			"undefined parent",
			map[string]Def{"a": {Fulfills: []string{"b"}}},
			ErrHierarchy,
		},
		{
			"parent arity mismatch",
			map[string]Def{
				"a": {Fulfills: []string{"b[a]"}},
				"b": {Params: []ParamDef{{Name: "X"}, {Name: "Y"}}},
			},
			ErrHierarchy,
		},
		{
			"cycle",
			map[string]Def{
				"a": {Fulfills: []string{"b"}},
				"b": {Fulfills: []string{"c"}},
				"c": {Fulfills: []string{"a"}},
			},
			ErrHierarchy,
		},
		{
			"self cycle",
			map[string]Def{"a": {Fulfills: []string{"a"}}},
			ErrHierarchy,
		},
		{
			"reserved declaration",
			map[string]Def{"*": {}},
			ErrBadType,
		},
		{
			"reserved in fulfills",
			map[string]Def{
				"a": {Params: []ParamDef{{Name: "X"}}, Fulfills: []string{"b[*]"}},
				"b": {Params: []ParamDef{{Name: "X"}}},
			},
			ErrBadType,
		},
		{
			"undeclared argument",
			map[string]Def{
				"a": {Fulfills: []string{"b[c]"}},
				"b": {Params: []ParamDef{{Name: "X"}}},
			},
			ErrBadType,
		},
		{
			"duplicate parameter",
			map[string]Def{"a": {Params: []ParamDef{{Name: "X"}, {Name: "x"}}}},
			ErrHierarchy,
		},
		{
			"duplicate declaration after folding",
			map[string]Def{"Animal": {}, "ANIMAL": {}},
			ErrHierarchy,
		},
		{
			"parameterized formal parameter",
			map[string]Def{
				"dog": {},
				"a":   {Params: []ParamDef{{Name: "X"}}, Fulfills: []string{"b[X[dog]]"}},
				"b":   {Params: []ParamDef{{Name: "X"}}},
			},
			ErrBadType,
		},
		{
			"malformed fulfills",
			map[string]Def{
				"a": {Fulfills: []string{"b["}},
				"b": {Params: []ParamDef{{Name: "X"}}},
			},
			ErrBadType,
		},
	}

	for _, c := range cases {
		if _, err := New(c.defs); !errors.Is(err, c.kind) {
			t.Fatalf("%s: got %v, want %v", c.name, err, c.kind)
		}
	}
}

func TestCaseInsensitiveNames(t *testing.T) {
	h, err := New(map[string]Def{
		"Animal": {},
		"Dog":    {Fulfills: []string{"ANIMAL"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ok, err := h.TypeFulfillsType(ty(t, "DOG"), ty(t, "animal"))
	if err != nil {
		t.Fatalf("TypeFulfillsType: %v", err)
	}

	if !ok {
		t.Fatal("DOG should fulfill animal")
	}

	if !h.TypeExists("dOg") {
		t.Fatal("dOg should exist")
	}
}

func TestLookups(t *testing.T) {
	h := zoo(t)

	if h.IsGeneric("dog") {
		t.Fatal("dog is declared, not generic")
	}

	if !h.IsGeneric("t") {
		t.Fatal("t is undeclared, so it is generic")
	}

	if h.IsGeneric("*") {
		t.Fatal("* is reserved, not generic")
	}

	if _, err := h.Definition("nothere"); !errors.Is(err, ErrBadType) {
		t.Fatalf("Definition(nothere): got %v, want ErrBadType", err)
	}

	def, err := h.Definition("dict")
	if err != nil {
		t.Fatalf("Definition(dict): %v", err)
	}

	if def.Arity() != 2 {
		t.Fatalf("dict arity = %d, want 2", def.Arity())
	}

	if i, ok := def.ParamIndex("V"); !ok || i != 1 {
		t.Fatalf("ParamIndex(V) = %d, %v", i, ok)
	}

	ancestors, err := h.AncestorNames("bat")
	if err != nil {
		t.Fatalf("AncestorNames: %v", err)
	}

	if want := []string{"animal", "bat", "flyinganimal", "mammal"}; !slices.Equal(ancestors, want) {
		t.Fatalf("AncestorNames(bat) = %v, want %v", ancestors, want)
	}

	descendants, err := h.DescendantNames("mammal")
	if err != nil {
		t.Fatalf("DescendantNames: %v", err)
	}

	if want := []string{"bat", "cat", "dog", "mammal"}; !slices.Equal(descendants, want) {
		t.Fatalf("DescendantNames(mammal) = %v, want %v", descendants, want)
	}
}

func TestValidateType(t *testing.T) {
	h := zoo(t)

	valid := []string{"dog", "list[dog]", "dict[dog,list[cat]]", "*", "list[*]"}
	for _, source := range valid {
		if err := h.ValidateType(ty(t, source)); err != nil {
			t.Fatalf("ValidateType(%s): %v", source, err)
		}
	}

	invalid := []string{"unicorn", "list[unicorn]", "list", "list[dog,cat]", "dog[cat]", "dict[dog]"}
	for _, source := range invalid {
		if err := h.ValidateType(ty(t, source)); !errors.Is(err, ErrBadType) {
			t.Fatalf("ValidateType(%s): got %v, want ErrBadType", source, err)
		}
	}
}

func TestVarianceJSON(t *testing.T) {
	var def Def
	data := `{"params":[{"name":"A","variance":"co"},{"name":"B","variance":"contra"},{"name":"C","variance":"inv"},{"name":"D"}]}`
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []Variance{Covariant, Contravariant, Invariant, Invariant}
	for i, param := range def.Params {
		if param.Variance != want[i] {
			t.Fatalf("param %d: variance %v, want %v", i, param.Variance, want[i])
		}
	}

	out, err := json.Marshal(Contravariant)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(out) != `"contra"` {
		t.Fatalf("marshal = %s, want %q", out, "contra")
	}

	var v Variance
	if err := json.Unmarshal([]byte(`"sideways"`), &v); !errors.Is(err, ErrHierarchy) {
		t.Fatalf("unknown variance: got %v, want ErrHierarchy", err)
	}
}
