package schema

import "strings"

// EnsureShape coerces malformed input to a renderable schema: a usable
// schema version and non-nil section and item lists. Editor state must
// never become unrenderable, so this repairs rather than rejects.
func EnsureShape(s Schema) Schema {
	if s.SchemaVersion <= 0 {
		s.SchemaVersion = CurrentSchemaVersion
	}
	if s.Sections == nil {
		s.Sections = []Section{}
	}
	for i := range s.Sections {
		if s.Sections[i].Items == nil {
			s.Sections[i].Items = []Item{}
		}
		if s.Sections[i].Layout == "" {
			s.Sections[i].Layout = LayoutStack
		}
	}
	return s
}

// EnsureEditorIDs returns a copy of the schema in which every section,
// item, group child, and table column carries an editor ID. Nodes that
// already have one keep it, so repeated calls are no-ops on assigned nodes.
// The input is never mutated.
func EnsureEditorIDs(s Schema) Schema {
	out := s
	out.Sections = make([]Section, len(s.Sections))
	for i, sec := range s.Sections {
		if sec.ID == "" {
			sec.ID = NewEditorID()
		}
		sec.Items = ensureItemIDs(sec.Items)
		out.Sections[i] = sec
	}
	return out
}

func ensureItemIDs(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		if it.ID == "" {
			it.ID = NewEditorID()
		}
		if it.Group != nil {
			g := *it.Group
			g.Items = ensureItemIDs(g.Items)
			it.Group = &g
		}
		if it.Table != nil {
			t := *it.Table
			t.Columns = make([]TableColumn, len(it.Table.Columns))
			for j, col := range it.Table.Columns {
				if col.ID == "" {
					col.ID = NewEditorID()
				}
				t.Columns[j] = col
			}
			it.Table = &t
		}
		out[i] = it
	}
	return out
}

// StripEditorFields deep-walks a JSON-like value (maps, slices, scalars)
// and removes the editor ID key and any key with the editor-private
// double-underscore prefix. All other data passes through untouched.
func StripEditorFields(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if k == EditorIDField || strings.HasPrefix(k, EditorPrefix) {
				continue
			}
			out[k] = StripEditorFields(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = StripEditorFields(child)
		}
		return out
	default:
		return v
	}
}

// NormalizeGroups converts the legacy flat group representation (children
// stored as siblings with a parent_key back-reference) into the canonical
// nested form. Nested children are authoritative: a flat item is lifted
// only into a group whose key matches its parent_key within the same
// section; unmatched parent_key values are left in place as legacy input.
func NormalizeGroups(s Schema) Schema {
	changed := false
	sections := make([]Section, len(s.Sections))
	for i, sec := range s.Sections {
		sections[i] = sec
		if !hasFlatChildren(sec.Items) {
			continue
		}
		sections[i].Items = liftFlatChildren(sec.Items)
		changed = true
	}
	if !changed {
		return s
	}
	s.Sections = sections
	return s
}

func hasFlatChildren(items []Item) bool {
	groups := make(map[string]bool)
	for i := range items {
		if items[i].Type == FieldGroup && items[i].Key != "" {
			groups[items[i].Key] = true
		}
	}
	for i := range items {
		if items[i].ParentKey != "" && groups[items[i].ParentKey] {
			return true
		}
	}
	return false
}

func liftFlatChildren(items []Item) []Item {
	groupIdx := make(map[string]int)
	for i := range items {
		if items[i].Type == FieldGroup && items[i].Key != "" {
			groupIdx[items[i].Key] = i
		}
	}

	adopted := make(map[string][]Item)
	var out []Item
	for _, it := range items {
		if it.ParentKey != "" {
			if gi, ok := groupIdx[it.ParentKey]; ok && items[gi].Key != it.Key {
				child := it
				child.ParentKey = ""
				adopted[it.ParentKey] = append(adopted[it.ParentKey], child)
				continue
			}
		}
		out = append(out, it)
	}

	for i := range out {
		if out[i].Type != FieldGroup {
			continue
		}
		extra := adopted[out[i].Key]
		if len(extra) == 0 {
			continue
		}
		g := GroupConfig{}
		if out[i].Group != nil {
			g = *out[i].Group
		}
		nested := make([]Item, 0, len(g.Items)+len(extra))
		nested = append(nested, g.Items...)
		seen := make(map[string]bool, len(nested))
		for _, c := range nested {
			seen[c.Key] = true
		}
		for _, c := range extra {
			// never clobber an existing nested child with a flat fragment
			if c.Key != "" && seen[c.Key] {
				continue
			}
			nested = append(nested, c)
		}
		g.Items = nested
		out[i].Group = &g
	}
	return out
}
