package schema

import "testing"

func namedItems(keys ...string) []Item {
	items := make([]Item, len(keys))
	for i, k := range keys {
		items[i] = Item{ID: "id_" + k, Type: FieldText, Key: k}
	}
	return items
}

func keysOf(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Key
	}
	return out
}

func TestMoveItem(t *testing.T) {
	items := namedItems("a", "b", "c")
	out := MoveItem(items, 0, 2)
	want := []string{"b", "c", "a"}
	for i, k := range keysOf(out) {
		if k != want[i] {
			t.Fatalf("expected %v, got %v", want, keysOf(out))
		}
	}
	// input untouched
	if items[0].Key != "a" {
		t.Error("MoveItem mutated its input")
	}
}

func TestMoveItem_OutOfRange(t *testing.T) {
	items := namedItems("a", "b", "c")
	for _, c := range [][2]int{{-1, 0}, {0, 3}, {3, 0}, {0, -1}} {
		out := MoveItem(items, c[0], c[1])
		if &out[0] != &items[0] {
			t.Errorf("move(%d,%d) should return the input slice", c[0], c[1])
		}
	}
}

func TestMoveItem_SameIndexIsNoop(t *testing.T) {
	items := namedItems("a", "b")
	out := MoveItem(items, 1, 1)
	if &out[0] != &items[0] {
		t.Error("same-index move should return the input slice")
	}
}

func TestAppendFieldsToSection(t *testing.T) {
	s := EnsureEditorIDs(testSchema())
	secID := s.Sections[0].ID
	before := len(s.Sections[0].Items)

	out := AppendFieldsToSection(s, secID, namedItems("extra"))
	if got := len(out.Sections[0].Items); got != before+1 {
		t.Fatalf("expected %d items, got %d", before+1, got)
	}
	if out.Sections[0].Items[before].Key != "extra" {
		t.Error("appended field should be last")
	}
	// original untouched
	if len(s.Sections[0].Items) != before {
		t.Error("AppendFieldsToSection mutated its input")
	}
}

func TestAppendFieldsToSection_UnknownSection(t *testing.T) {
	s := EnsureEditorIDs(testSchema())
	out := AppendFieldsToSection(s, "nope", namedItems("x"))
	if len(out.Sections[0].Items) != len(s.Sections[0].Items) {
		t.Error("unknown section id should be a no-op")
	}
}

func TestRemoveItemAndDescendants_Group(t *testing.T) {
	items := []Item{
		{ID: "g1", Type: FieldGroup, Key: "wound"},
		{ID: "c1", Type: FieldText, Key: "site", ParentKey: "wound"},
		{ID: "c2", Type: FieldText, Key: "depth", ParentKey: "wound"},
		{ID: "f1", Type: FieldText, Key: "notes"},
	}
	out := RemoveItemAndDescendants(items, "g1")
	if len(out) != 1 || out[0].Key != "notes" {
		t.Fatalf("expected only notes to survive, got %v", keysOf(out))
	}
}

func TestRemoveItemAndDescendants_PlainField(t *testing.T) {
	items := namedItems("a", "b", "c")
	out := RemoveItemAndDescendants(items, "id_b")
	if len(out) != 2 || out[0].Key != "a" || out[1].Key != "c" {
		t.Fatalf("expected [a c], got %v", keysOf(out))
	}
}

func TestRemoveItemAndDescendants_UnknownID(t *testing.T) {
	items := namedItems("a", "b")
	out := RemoveItemAndDescendants(items, "missing")
	if &out[0] != &items[0] {
		t.Error("unknown item id should return the input slice")
	}
}

func TestRemoveSection(t *testing.T) {
	s := EnsureEditorIDs(testSchema())
	out := RemoveSection(s, s.Sections[0].ID)
	if len(out.Sections) != 0 {
		t.Errorf("expected 0 sections, got %d", len(out.Sections))
	}
	out = RemoveSection(s, "missing")
	if len(out.Sections) != 1 {
		t.Error("unknown section id should be a no-op")
	}
}

func TestSectionCodes(t *testing.T) {
	s := Schema{Sections: []Section{
		{Code: "VITALS"}, {Code: "IMPLANT_DETAILS"}, {Code: "VITALS"}, {Code: ""},
	}}
	codes := SectionCodes(s)
	if len(codes) != 2 || codes[0] != "VITALS" || codes[1] != "IMPLANT_DETAILS" {
		t.Errorf("expected deduped ordered codes, got %v", codes)
	}
}

func TestTakenKeys(t *testing.T) {
	s := testSchema()
	taken := s.Sections[0].TakenKeys()
	for _, k := range []string{"pulse", "bp", "systolic", "diastolic", "meds", "drug", "dose"} {
		if !taken[k] {
			t.Errorf("expected %s to be taken", k)
		}
	}
}

func TestDefaultField(t *testing.T) {
	sel := DefaultField(FieldSelect)
	if len(sel.Options) != 2 {
		t.Errorf("choice default should seed 2 options, got %d", len(sel.Options))
	}
	tbl := DefaultField(FieldTable)
	if tbl.Table == nil || len(tbl.Table.Columns) != 2 {
		t.Error("table default should seed 2 columns")
	}
	grp := DefaultField(FieldGroup)
	if grp.Group == nil || len(grp.Group.Items) != 1 {
		t.Error("group default should seed 1 child field")
	}
	calc := DefaultField(FieldCalculation)
	if !calc.ReadOnly {
		t.Error("calculation default should be read-only")
	}
}

func TestDefaultSection(t *testing.T) {
	sec := DefaultSection("implant details")
	if sec.Code != "IMPLANT_DETAILS" {
		t.Errorf("expected IMPLANT_DETAILS, got %s", sec.Code)
	}
	if sec.ID == "" || sec.Items == nil {
		t.Error("default section should carry an editor id and empty items")
	}
}
