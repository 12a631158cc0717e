// Package preset ships the built-in clinical field packs. A pack is a pure
// transform over a schema: it finds or creates its target section and
// appends a fixed set of fields to it. Reapplying a pack duplicates its
// fields under the same section; it never touches other sections.
package preset

import (
	"sort"
	"sync"

	"github.com/emrforms/emrforms/internal/domain/schema"
)

// Pack is a named schema transform. Apply returns the new schema and the
// code of the section the editor should focus.
type Pack struct {
	ID    string
	Label string
	Apply func(schema.Schema) (schema.Schema, string)
}

// Registry holds packs keyed by ID, listed in registration order.
type Registry struct {
	mu    sync.RWMutex
	packs map[string]Pack
	order []string
}

func NewRegistry() *Registry {
	return &Registry{packs: make(map[string]Pack)}
}

// Register adds a pack, replacing any earlier pack with the same ID.
func (r *Registry) Register(p Pack) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.packs[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.packs[p.ID] = p
}

func (r *Registry) Find(id string) (Pack, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.packs[id]
	return p, ok
}

func (r *Registry) List() []Pack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Pack, 0, len(r.packs))
	for _, id := range r.order {
		out = append(out, r.packs[id])
	}
	return out
}

// IDs returns the registered pack ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]string(nil), r.order...)
	sort.Strings(out)
	return out
}

// BuiltinRegistry returns a registry preloaded with the stock packs.
func BuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register(ImplantDetails())
	r.Register(VitalSigns())
	r.Register(AnesthesiaRecord())
	return r
}

// ensureSection locates a section by normalized code or appends a new one.
// The returned schema shares unchanged sections with the input.
func ensureSection(s schema.Schema, code, label string) (schema.Schema, int) {
	s = schema.EnsureShape(s)
	normalized := schema.NormalizeCode(code)
	if idx := s.FindSectionByCode(normalized); idx >= 0 {
		return s, idx
	}
	sections := make([]schema.Section, 0, len(s.Sections)+1)
	sections = append(sections, s.Sections...)
	sections = append(sections, schema.Section{
		Code:   normalized,
		Label:  label,
		Layout: schema.LayoutStack,
		Items:  []schema.Item{},
	})
	s.Sections = sections
	return s, len(sections) - 1
}

// appendFields adds items to the section at idx without mutating the input
// section's slice.
func appendFields(s schema.Schema, idx int, fields []schema.Item) schema.Schema {
	sections := make([]schema.Section, len(s.Sections))
	copy(sections, s.Sections)
	items := make([]schema.Item, 0, len(sections[idx].Items)+len(fields))
	items = append(items, sections[idx].Items...)
	items = append(items, fields...)
	sections[idx].Items = items
	s.Sections = sections
	return s
}

// ImplantDetails documents prosthesis usage: an implant table plus a
// cementation group that only shows when cement was used.
func ImplantDetails() Pack {
	return Pack{
		ID:    "implant_details",
		Label: "Implant Details",
		Apply: func(s schema.Schema) (schema.Schema, string) {
			s, idx := ensureSection(s, "IMPLANT_DETAILS", "Implant Details")
			fields := []schema.Item{
				{
					Type:  schema.FieldTable,
					Key:   "implants",
					Label: "Implants Used",
					Table: &schema.TableConfig{
						Columns: []schema.TableColumn{
							{Key: "component", Label: "Component", Type: schema.FieldText, Required: true},
							{Key: "manufacturer", Label: "Manufacturer", Type: schema.FieldText},
							{Key: "catalog_no", Label: "Catalog No.", Type: schema.FieldText},
							{Key: "lot_no", Label: "Lot No.", Type: schema.FieldText},
							{Key: "size", Label: "Size", Type: schema.FieldText},
							{Key: "expiry_date", Label: "Expiry Date", Type: schema.FieldDate},
						},
						MinRows:     1,
						AllowAdd:    true,
						AllowRemove: true,
					},
				},
				{
					Type:  schema.FieldBoolean,
					Key:   "cement_used",
					Label: "Bone Cement Used",
				},
				{
					Type:  schema.FieldGroup,
					Key:   "cement_details",
					Label: "Cementation Details",
					Rules: &schema.Rules{
						VisibleWhen: &schema.VisibilityRule{
							FieldKey: "cement_used",
							Op:       schema.OpEq,
							Value:    true,
						},
					},
					Group: &schema.GroupConfig{
						Layout: schema.LayoutGrid2,
						Items: []schema.Item{
							{Type: schema.FieldText, Key: "cement_brand", Label: "Cement Brand"},
							{Type: schema.FieldText, Key: "cement_batch", Label: "Batch No."},
							{Type: schema.FieldBoolean, Key: "antibiotic_loaded", Label: "Antibiotic Loaded"},
						},
					},
				},
			}
			return appendFields(s, idx, fields), "IMPLANT_DETAILS"
		},
	}
}

// VitalSigns is the standard observation block.
func VitalSigns() Pack {
	return Pack{
		ID:    "vital_signs",
		Label: "Vital Signs",
		Apply: func(s schema.Schema) (schema.Schema, string) {
			s, idx := ensureSection(s, "VITAL_SIGNS", "Vital Signs")
			fields := []schema.Item{
				{Type: schema.FieldNumber, Key: "pulse", Label: "Pulse (bpm)", Required: true},
				{Type: schema.FieldText, Key: "bp", Label: "Blood Pressure (mmHg)", Required: true},
				{Type: schema.FieldNumber, Key: "temperature", Label: "Temperature (°C)"},
				{Type: schema.FieldNumber, Key: "resp_rate", Label: "Respiratory Rate (/min)"},
				{Type: schema.FieldNumber, Key: "spo2", Label: "SpO2 (%)"},
				{Type: schema.FieldNumber, Key: "pain_score", Label: "Pain Score (0-10)"},
			}
			return appendFields(s, idx, fields), "VITAL_SIGNS"
		},
	}
}

// AnesthesiaRecord covers the intra-operative anesthesia worksheet.
func AnesthesiaRecord() Pack {
	return Pack{
		ID:    "anesthesia_record",
		Label: "Anesthesia Record",
		Apply: func(s schema.Schema) (schema.Schema, string) {
			s, idx := ensureSection(s, "ANESTHESIA", "Anesthesia Record")
			fields := []schema.Item{
				{
					Type:  schema.FieldSelect,
					Key:   "anesthesia_type",
					Label: "Type of Anesthesia",
					Options: []schema.Option{
						{Value: "general", Label: "General"},
						{Value: "spinal", Label: "Spinal"},
						{Value: "epidural", Label: "Epidural"},
						{Value: "regional_block", Label: "Regional Block"},
						{Value: "local", Label: "Local"},
					},
					Choice:   &schema.ChoiceConfig{Display: "dropdown"},
					Required: true,
				},
				{
					Type:  schema.FieldGroup,
					Key:   "airway_details",
					Label: "Airway Details",
					Rules: &schema.Rules{
						VisibleWhen: &schema.VisibilityRule{
							FieldKey: "anesthesia_type",
							Op:       schema.OpEq,
							Value:    "general",
						},
					},
					Group: &schema.GroupConfig{
						Layout: schema.LayoutGrid2,
						Items: []schema.Item{
							{Type: schema.FieldText, Key: "tube_size", Label: "ET Tube Size"},
							{Type: schema.FieldNumber, Key: "mallampati_grade", Label: "Mallampati Grade"},
						},
					},
				},
				{
					Type:  schema.FieldTable,
					Key:   "agents",
					Label: "Agents Administered",
					Table: &schema.TableConfig{
						Columns: []schema.TableColumn{
							{Key: "agent", Label: "Agent", Type: schema.FieldText, Required: true},
							{Key: "dose", Label: "Dose", Type: schema.FieldText},
							{Key: "route", Label: "Route", Type: schema.FieldText},
							{Key: "time", Label: "Time", Type: schema.FieldTime},
						},
						AllowAdd:    true,
						AllowRemove: true,
					},
				},
				{Type: schema.FieldTextarea, Key: "anesthesia_notes", Label: "Notes"},
			}
			return appendFields(s, idx, fields), "ANESTHESIA"
		},
	}
}
