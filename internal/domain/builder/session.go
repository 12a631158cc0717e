package builder

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emrforms/emrforms/internal/domain/schema"
)

// EditorState is the complete state of one builder session: the
// schema-in-progress, the current selection, and the preview value map.
// States are immutable: every accepted mutation produces a new *EditorState
// sharing all untouched subtrees with its predecessor.
type EditorState struct {
	Schema            schema.Schema  `json:"schema"`
	SelectedSectionID string         `json:"selected_section_id,omitempty"`
	SelectedItemID    string         `json:"selected_item_id,omitempty"`
	Values            map[string]any `json:"values,omitempty"`
}

// Session owns the editing state of a single template draft. Exactly one
// owner mutates; observers read through the store's subscription and
// selectors.
type Session struct {
	ID         uuid.UUID
	TemplateID *uuid.UUID
	CreatedAt  time.Time
	store      *Store[*EditorState]
}

// NewSession starts a session over the given schema, which is shaped,
// group-normalized, and assigned editor IDs up front so every later
// operation can address nodes.
func NewSession(s schema.Schema) *Session {
	s = schema.EnsureEditorIDs(schema.NormalizeGroups(schema.EnsureShape(s)))
	return &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		store: NewStore(&EditorState{
			Schema: s,
			Values: map[string]any{},
		}),
	}
}

// Store exposes the underlying store for subscription and selectors.
func (sess *Session) Store() *Store[*EditorState] { return sess.store }

// State returns the current editor state.
func (sess *Session) State() *EditorState { return sess.store.State() }

// Schema returns the current schema-in-progress.
func (sess *Session) Schema() schema.Schema { return sess.store.State().Schema }

func (sess *Session) updateSchema(fn func(schema.Schema) schema.Schema) bool {
	changed, _ := sess.store.Update(func(prev *EditorState) (*EditorState, error) {
		nextSchema := fn(prev.Schema)
		if sameSections(prev.Schema, nextSchema) {
			return prev, nil
		}
		next := *prev
		next.Schema = nextSchema
		return &next, nil
	})
	return changed
}

// sameSections detects structural no-ops via slice identity: the ops in
// the schema package return the input sections untouched when nothing
// happened.
func sameSections(a, b schema.Schema) bool {
	if len(a.Sections) != len(b.Sections) {
		return false
	}
	if len(a.Sections) == 0 {
		return true
	}
	return &a.Sections[0] == &b.Sections[0]
}

// AddSection appends a default section for the given code and selects it.
// Returns the new section's editor ID.
func (sess *Session) AddSection(code string) string {
	sec := schema.DefaultSection(code)
	sess.store.Update(func(prev *EditorState) (*EditorState, error) {
		next := *prev
		sections := make([]schema.Section, 0, len(prev.Schema.Sections)+1)
		sections = append(sections, prev.Schema.Sections...)
		sections = append(sections, sec)
		next.Schema.Sections = sections
		next.SelectedSectionID = sec.ID
		next.SelectedItemID = ""
		return &next, nil
	})
	return sec.ID
}

// RemoveSection deletes the section; a no-op when the ID is unknown.
func (sess *Session) RemoveSection(sectionID string) bool {
	return sess.updateSchema(func(s schema.Schema) schema.Schema {
		return schema.RemoveSection(s, sectionID)
	})
}

// AddField appends a default field of the given type to the section,
// assigning a key that is unique within the section scope. Returns the new
// item's editor ID, or "" if the section does not exist.
func (sess *Session) AddField(sectionID string, t schema.FieldType, label string) string {
	if !t.Valid() {
		return ""
	}
	field := schema.DefaultField(t)
	if label != "" {
		field.Label = label
	}
	var added string
	sess.store.Update(func(prev *EditorState) (*EditorState, error) {
		idx := prev.Schema.FindSection(sectionID)
		if idx < 0 {
			return prev, nil
		}
		f := field
		f.Key = schema.UniqueKey(f.Label, prev.Schema.Sections[idx].TakenKeys())
		nextSchema := schema.AppendFieldsToSection(prev.Schema, sectionID, []schema.Item{f})
		next := *prev
		next.Schema = nextSchema
		next.SelectedSectionID = sectionID
		next.SelectedItemID = f.ID
		added = f.ID
		return &next, nil
	})
	return added
}

// MoveField relocates an item inside a section. Out-of-range indices and
// unknown sections are structural no-ops.
func (sess *Session) MoveField(sectionID string, fromIndex, toIndex int) bool {
	changed, _ := sess.store.Update(func(prev *EditorState) (*EditorState, error) {
		idx := prev.Schema.FindSection(sectionID)
		if idx < 0 {
			return prev, nil
		}
		moved := schema.MoveItem(prev.Schema.Sections[idx].Items, fromIndex, toIndex)
		if len(moved) > 0 && len(prev.Schema.Sections[idx].Items) > 0 &&
			&moved[0] == &prev.Schema.Sections[idx].Items[0] {
			return prev, nil
		}
		next := *prev
		sections := make([]schema.Section, len(prev.Schema.Sections))
		copy(sections, prev.Schema.Sections)
		sections[idx].Items = moved
		next.Schema.Sections = sections
		return &next, nil
	})
	return changed
}

// RemoveField deletes an item (and, for groups, its flat-model
// descendants) from a section.
func (sess *Session) RemoveField(sectionID, itemID string) bool {
	changed, _ := sess.store.Update(func(prev *EditorState) (*EditorState, error) {
		idx := prev.Schema.FindSection(sectionID)
		if idx < 0 {
			return prev, nil
		}
		pruned := schema.RemoveItemAndDescendants(prev.Schema.Sections[idx].Items, itemID)
		if len(pruned) == len(prev.Schema.Sections[idx].Items) {
			return prev, nil
		}
		next := *prev
		sections := make([]schema.Section, len(prev.Schema.Sections))
		copy(sections, prev.Schema.Sections)
		sections[idx].Items = pruned
		next.Schema.Sections = sections
		if next.SelectedItemID == itemID {
			next.SelectedItemID = ""
		}
		return &next, nil
	})
	return changed
}

// Select records the current selection without touching the schema.
func (sess *Session) Select(sectionID, itemID string) {
	sess.store.Update(func(prev *EditorState) (*EditorState, error) {
		if prev.SelectedSectionID == sectionID && prev.SelectedItemID == itemID {
			return prev, nil
		}
		next := *prev
		next.SelectedSectionID = sectionID
		next.SelectedItemID = itemID
		return &next, nil
	})
}

// SetValue records a preview value for a field key. The value map is
// copied, never mutated in place.
func (sess *Session) SetValue(key string, value any) {
	if key == "" {
		return
	}
	sess.store.Update(func(prev *EditorState) (*EditorState, error) {
		if existing, ok := prev.Values[key]; ok && scalarEqual(existing, value) {
			return prev, nil
		}
		next := *prev
		values := make(map[string]any, len(prev.Values)+1)
		for k, v := range prev.Values {
			values[k] = v
		}
		values[key] = value
		next.Values = values
		return &next, nil
	})
}

// scalarEqual short-circuits value writes only for scalar types; anything
// else (slices from multiselects, maps) always counts as a change, since
// comparing those interfaces directly would panic.
func scalarEqual(a, b any) bool {
	switch a.(type) {
	case nil, bool, string, float64, float32, int, int64:
		return a == b
	default:
		return false
	}
}

// ApplySchema replaces the whole schema-in-progress, for example after a
// client-side bulk edit. The replacement is shaped and normalized.
func (sess *Session) ApplySchema(s schema.Schema) {
	s = schema.EnsureEditorIDs(schema.NormalizeGroups(schema.EnsureShape(s)))
	sess.store.Update(func(prev *EditorState) (*EditorState, error) {
		next := *prev
		next.Schema = s
		return &next, nil
	})
}

// ApplyTransform runs an arbitrary pure schema transformation (preset
// packs plug in here) and optionally focuses a section. The transform
// names the focused section by code; the returned focus is that section's
// editor ID.
func (sess *Session) ApplyTransform(fn func(schema.Schema) (schema.Schema, string)) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("nil transform")
	}
	var focus string
	_, err := sess.store.Update(func(prev *EditorState) (*EditorState, error) {
		nextSchema, focusCode := fn(prev.Schema)
		nextSchema = schema.EnsureEditorIDs(nextSchema)
		next := *prev
		next.Schema = nextSchema
		// Transforms address the focused section by code; selection and the
		// session operations work on editor IDs, so resolve before storing.
		if focusCode != "" {
			if idx := nextSchema.FindSectionByCode(schema.NormalizeCode(focusCode)); idx >= 0 {
				focus = nextSchema.Sections[idx].ID
			}
			if focus != "" {
				next.SelectedSectionID = focus
				next.SelectedItemID = ""
			}
		}
		return &next, nil
	})
	return focus, err
}

// ItemVisibility is one row of a preview: whether an item is currently
// visible under the session's value map.
type ItemVisibility struct {
	SectionCode string `json:"section_code"`
	Key         string `json:"key"`
	Visible     bool   `json:"visible"`
}

// Preview evaluates every item's visibility rule against the session's
// current values.
func (sess *Session) Preview() []ItemVisibility {
	state := sess.store.State()
	var out []ItemVisibility
	for _, sec := range state.Schema.Sections {
		var walk func(items []schema.Item)
		walk = func(items []schema.Item) {
			for _, it := range items {
				visible := schema.IsVisible(it, state.Values)
				if it.Key != "" {
					out = append(out, ItemVisibility{SectionCode: sec.Code, Key: it.Key, Visible: visible})
				}
				if it.Group != nil && visible {
					walk(it.Group.Items)
				}
			}
		}
		walk(sec.Items)
	}
	return out
}
