// Package schema defines the document structure of a clinical template:
// a tree of sections containing typed items (fields, groups, tables), plus
// the normalization and visibility machinery that operates on it.
package schema

// CurrentSchemaVersion is written into every schema this builder produces.
const CurrentSchemaVersion = 1

// FieldType discriminates the Item variants.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldNumber      FieldType = "number"
	FieldDate        FieldType = "date"
	FieldTime        FieldType = "time"
	FieldDateTime    FieldType = "datetime"
	FieldBoolean     FieldType = "boolean"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldRadio       FieldType = "radio"
	FieldChips       FieldType = "chips"
	FieldTable       FieldType = "table"
	FieldGroup       FieldType = "group"
	FieldSignature   FieldType = "signature"
	FieldFile        FieldType = "file"
	FieldImage       FieldType = "image"
	FieldCalculation FieldType = "calculation"
	FieldChart       FieldType = "chart"
	FieldGraph       FieldType = "graph"
)

// SectionLayout controls how a section arranges its items.
type SectionLayout string

const (
	LayoutStack SectionLayout = "stack"
	LayoutGrid2 SectionLayout = "grid_2"
	LayoutGrid3 SectionLayout = "grid_3"
)

// IsChoice reports whether the type carries an options list.
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldSelect, FieldMultiselect, FieldRadio, FieldChips:
		return true
	}
	return false
}

// IsDerived reports whether the type is read-only computed output.
func (t FieldType) IsDerived() bool {
	switch t {
	case FieldCalculation, FieldChart, FieldGraph:
		return true
	}
	return false
}

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldNumber, FieldDate, FieldTime,
		FieldDateTime, FieldBoolean, FieldSelect, FieldMultiselect,
		FieldRadio, FieldChips, FieldTable, FieldGroup, FieldSignature,
		FieldFile, FieldImage, FieldCalculation, FieldChart, FieldGraph:
		return true
	}
	return false
}

// TableColumnTypes is the restricted subset of field types allowed in table
// columns.
var TableColumnTypes = map[FieldType]bool{
	FieldText:     true,
	FieldNumber:   true,
	FieldDate:     true,
	FieldTime:     true,
	FieldBoolean:  true,
	FieldSelect:   true,
	FieldTextarea: true,
}

// Schema is the root of a template version's document structure.
type Schema struct {
	SchemaVersion int       `json:"schema_version"`
	Sections      []Section `json:"sections"`
}

// Section is a named, addressable group of items. Code is stable and
// machine-safe; ID is editor-only and never persisted.
type Section struct {
	ID         string        `json:"__id,omitempty"`
	Code       string        `json:"code"`
	Label      string        `json:"label"`
	Layout     SectionLayout `json:"layout,omitempty"`
	Repeatable bool          `json:"repeatable,omitempty"`
	Items      []Item        `json:"items"`
}

// Item is the polymorphic field/group/table unit, tagged by Type. The
// payload pointers are variant-specific: exactly the one matching Type is
// populated on well-formed input.
type Item struct {
	ID           string    `json:"__id,omitempty"`
	Type         FieldType `json:"type"`
	Key          string    `json:"key"`
	Label        string    `json:"label"`
	Required     bool      `json:"required,omitempty"`
	ReadOnly     bool      `json:"readonly,omitempty"`
	HelpText     string    `json:"help_text,omitempty"`
	DefaultValue any       `json:"default_value,omitempty"`
	// ParentKey is the legacy flat-model back-reference to a containing
	// group. NormalizeGroups lifts such items into the group's children.
	ParentKey string `json:"parent_key,omitempty"`

	UI      *UIHints      `json:"ui,omitempty"`
	Rules   *Rules        `json:"rules,omitempty"`
	Choice  *ChoiceConfig `json:"choice,omitempty"`
	Options []Option      `json:"options,omitempty"`
	Table   *TableConfig  `json:"table,omitempty"`
	Group   *GroupConfig  `json:"group,omitempty"`
	Calc    *CalcConfig   `json:"calculation,omitempty"`
}

// UIHints are presentation hints the renderer may honor.
type UIHints struct {
	Width          string `json:"width,omitempty"`
	LabelPlacement string `json:"label_placement,omitempty"`
}

// Rules carries the item's conditional behavior. Scope is deliberately a
// single condition; boolean composition is not supported.
type Rules struct {
	VisibleWhen *VisibilityRule `json:"visible_when,omitempty"`
}

// VisibilityRule gates an item on the value of a sibling field.
type VisibilityRule struct {
	FieldKey string `json:"field_key"`
	Op       RuleOp `json:"op"`
	Value    any    `json:"value"`
}

// RuleOp is the comparison operator of a visibility rule.
type RuleOp string

const (
	OpEq  RuleOp = "eq"
	OpNeq RuleOp = "neq"
)

// Option is a single choice entry.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ChoiceConfig is display configuration for choice fields.
type ChoiceConfig struct {
	Display     string `json:"display,omitempty"` // dropdown, buttons, ...
	AllowOther  bool   `json:"allow_other,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// TableConfig is the payload of a table item.
type TableConfig struct {
	Columns     []TableColumn `json:"columns"`
	MinRows     int           `json:"min_rows,omitempty"`
	MaxRows     int           `json:"max_rows,omitempty"`
	AllowAdd    bool          `json:"allow_add,omitempty"`
	AllowRemove bool          `json:"allow_remove,omitempty"`
}

// TableColumn is a column definition; Type is restricted to
// TableColumnTypes.
type TableColumn struct {
	ID       string    `json:"__id,omitempty"`
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	Options  []Option  `json:"options,omitempty"`
}

// GroupConfig is the payload of a group item: nested children plus layout.
type GroupConfig struct {
	Items  []Item        `json:"items"`
	Layout SectionLayout `json:"layout,omitempty"`
}

// CalcConfig is the payload of a calculation item.
type CalcConfig struct {
	Expression string   `json:"expression,omitempty"`
	SourceKeys []string `json:"source_keys,omitempty"`
	Unit       string   `json:"unit,omitempty"`
}

// FindSection returns the index of the section with the given editor ID,
// or -1.
func (s Schema) FindSection(sectionID string) int {
	for i := range s.Sections {
		if s.Sections[i].ID == sectionID {
			return i
		}
	}
	return -1
}

// FindSectionByCode returns the index of the section with the given
// normalized code, or -1.
func (s Schema) FindSectionByCode(code string) int {
	for i := range s.Sections {
		if s.Sections[i].Code == code {
			return i
		}
	}
	return -1
}

// TakenKeys collects every field key in the section scope, including group
// descendants and table columns.
func (sec Section) TakenKeys() map[string]bool {
	taken := make(map[string]bool)
	var walk func(items []Item)
	walk = func(items []Item) {
		for i := range items {
			it := &items[i]
			if it.Key != "" {
				taken[it.Key] = true
			}
			if it.Group != nil {
				walk(it.Group.Items)
			}
			if it.Table != nil {
				for _, col := range it.Table.Columns {
					if col.Key != "" {
						taken[col.Key] = true
					}
				}
			}
		}
	}
	walk(sec.Items)
	return taken
}
