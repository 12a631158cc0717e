package schema

// Structural mutations are pure: they return a new value when content
// changes and the identical input when it does not. The builder store's
// change detection relies on that, so none of these may mutate their
// arguments.

// MoveItem relocates the element at fromIndex to toIndex, preserving the
// relative order of everything else. Out-of-range indices return the input
// slice unchanged.
func MoveItem(items []Item, fromIndex, toIndex int) []Item {
	if fromIndex < 0 || fromIndex >= len(items) || toIndex < 0 || toIndex >= len(items) {
		return items
	}
	if fromIndex == toIndex {
		return items
	}
	out := make([]Item, 0, len(items))
	out = append(out, items[:fromIndex]...)
	out = append(out, items[fromIndex+1:]...)
	moved := items[fromIndex]
	out = append(out[:toIndex], append([]Item{moved}, out[toIndex:]...)...)
	return out
}

// AppendFieldsToSection appends fields to the end of the identified
// section's items. Unknown section IDs are a structural no-op: the input
// schema is returned unchanged.
func AppendFieldsToSection(s Schema, sectionID string, fields []Item) Schema {
	if len(fields) == 0 {
		return s
	}
	idx := s.FindSection(sectionID)
	if idx < 0 {
		return s
	}
	sections := make([]Section, len(s.Sections))
	copy(sections, s.Sections)
	sec := sections[idx]
	items := make([]Item, 0, len(sec.Items)+len(fields))
	items = append(items, sec.Items...)
	items = append(items, fields...)
	sec.Items = items
	sections[idx] = sec
	s.Sections = sections
	return s
}

// RemoveItemAndDescendants removes the item with the given editor ID. When
// the target is a group, flat-model siblings whose parent_key equals the
// group's key are removed with it. Unknown IDs return the input unchanged.
func RemoveItemAndDescendants(items []Item, itemID string) []Item {
	target := -1
	for i := range items {
		if items[i].ID == itemID {
			target = i
			break
		}
	}
	if target < 0 {
		return items
	}
	removed := items[target]
	out := make([]Item, 0, len(items)-1)
	for i, it := range items {
		if i == target {
			continue
		}
		if removed.Type == FieldGroup && removed.Key != "" && it.ParentKey == removed.Key {
			continue
		}
		out = append(out, it)
	}
	return out
}

// RemoveSection removes the section with the given editor ID. Unknown IDs
// return the input unchanged.
func RemoveSection(s Schema, sectionID string) Schema {
	idx := s.FindSection(sectionID)
	if idx < 0 {
		return s
	}
	sections := make([]Section, 0, len(s.Sections)-1)
	sections = append(sections, s.Sections[:idx]...)
	sections = append(sections, s.Sections[idx+1:]...)
	s.Sections = sections
	return s
}

// SectionCodes derives the deduplicated, order-preserving list of section
// codes, used as a lightweight index by the persistence collaborator.
func SectionCodes(s Schema) []string {
	seen := make(map[string]bool, len(s.Sections))
	codes := make([]string, 0, len(s.Sections))
	for _, sec := range s.Sections {
		if sec.Code == "" || seen[sec.Code] {
			continue
		}
		seen[sec.Code] = true
		codes = append(codes, sec.Code)
	}
	return codes
}
