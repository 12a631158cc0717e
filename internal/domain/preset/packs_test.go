package preset

import (
	"testing"

	"github.com/emrforms/emrforms/internal/domain/schema"
)

func TestImplantDetailsEndToEnd(t *testing.T) {
	pack := ImplantDetails()
	s, focus := pack.Apply(schema.Schema{})

	if focus != "IMPLANT_DETAILS" {
		t.Fatalf("unexpected focus: %q", focus)
	}
	idx := s.FindSectionByCode("IMPLANT_DETAILS")
	if idx < 0 {
		t.Fatal("section not created")
	}
	sec := s.Sections[idx]
	if len(sec.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(sec.Items))
	}

	table := sec.Items[0]
	if table.Type != schema.FieldTable || table.Table == nil {
		t.Fatal("first item should be the implant table")
	}
	if len(table.Table.Columns) != 6 {
		t.Fatalf("expected 6 table columns, got %d", len(table.Table.Columns))
	}

	group := sec.Items[2]
	if group.Type != schema.FieldGroup || group.Rules == nil || group.Rules.VisibleWhen == nil {
		t.Fatal("cementation group must be visibility-gated")
	}
	if group.Rules.VisibleWhen.FieldKey != "cement_used" {
		t.Fatalf("group gated on %q", group.Rules.VisibleWhen.FieldKey)
	}

	// Visibility flips with the controlling value.
	if schema.IsVisible(group, map[string]any{}) {
		t.Fatal("group visible before cement_used is set")
	}
	if schema.IsVisible(group, map[string]any{"cement_used": false}) {
		t.Fatal("group visible with cement_used false")
	}
	if !schema.IsVisible(group, map[string]any{"cement_used": true}) {
		t.Fatal("group hidden with cement_used true")
	}
}

func TestPackReapplyDuplicatesWithoutClobbering(t *testing.T) {
	pack := ImplantDetails()
	s, _ := pack.Apply(schema.Schema{})
	s, _ = pack.Apply(s)

	if len(s.Sections) != 1 {
		t.Fatalf("reapply must reuse the section, got %d sections", len(s.Sections))
	}
	if got := len(s.Sections[0].Items); got != 6 {
		t.Fatalf("expected duplicated fields (6 items), got %d", got)
	}
}

func TestPacksDoNotTouchOtherSections(t *testing.T) {
	s, _ := VitalSigns().Apply(schema.Schema{})
	before := len(s.Sections[0].Items)

	s, _ = ImplantDetails().Apply(s)
	if len(s.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(s.Sections))
	}
	if len(s.Sections[0].Items) != before {
		t.Fatal("applying one pack modified another pack's section")
	}
}

func TestAnesthesiaAirwayGatedOnType(t *testing.T) {
	s, focus := AnesthesiaRecord().Apply(schema.Schema{})
	if focus != "ANESTHESIA" {
		t.Fatalf("unexpected focus: %q", focus)
	}
	sec := s.Sections[s.FindSectionByCode("ANESTHESIA")]

	var airway *schema.Item
	for i := range sec.Items {
		if sec.Items[i].Key == "airway_details" {
			airway = &sec.Items[i]
		}
	}
	if airway == nil {
		t.Fatal("airway_details group missing")
	}
	if schema.IsVisible(*airway, map[string]any{"anesthesia_type": "spinal"}) {
		t.Fatal("airway group visible for spinal anesthesia")
	}
	if !schema.IsVisible(*airway, map[string]any{"anesthesia_type": "general"}) {
		t.Fatal("airway group hidden for general anesthesia")
	}
}

func TestRegistryOrderAndReplace(t *testing.T) {
	r := BuiltinRegistry()
	packs := r.List()
	if len(packs) != 3 {
		t.Fatalf("expected 3 builtin packs, got %d", len(packs))
	}
	if packs[0].ID != "implant_details" {
		t.Fatalf("registration order not preserved: %s", packs[0].ID)
	}

	if _, ok := r.Find("vital_signs"); !ok {
		t.Fatal("vital_signs not found")
	}
	if _, ok := r.Find("nope"); ok {
		t.Fatal("unknown pack found")
	}

	// Re-registering keeps position, swaps content.
	r.Register(Pack{ID: "implant_details", Label: "Implants v2"})
	packs = r.List()
	if len(packs) != 3 || packs[0].Label != "Implants v2" {
		t.Fatalf("replace changed ordering or was ignored: %+v", packs[0])
	}
}
