package schema

// DefaultSection seeds a new empty section. The code is normalized and the
// label mirrors the raw input.
func DefaultSection(code string) Section {
	normalized := NormalizeCode(code)
	label := code
	if label == "" {
		label = "New Section"
		normalized = "NEW_SECTION"
	}
	return Section{
		ID:     NewEditorID(),
		Code:   normalized,
		Label:  label,
		Layout: LayoutStack,
		Items:  []Item{},
	}
}

// DefaultField seeds a type-appropriate item: choice types get two starter
// options, tables two columns, groups one child field. This is an editor
// convenience, not a structural invariant.
func DefaultField(t FieldType) Item {
	it := Item{
		ID:    NewEditorID(),
		Type:  t,
		Key:   "",
		Label: "New Field",
	}
	switch {
	case t.IsChoice():
		it.Options = []Option{
			{Value: "option_1", Label: "Option 1"},
			{Value: "option_2", Label: "Option 2"},
		}
		it.Choice = &ChoiceConfig{Display: "dropdown"}
	case t == FieldTable:
		it.Table = &TableConfig{
			Columns: []TableColumn{
				{ID: NewEditorID(), Key: "column_1", Label: "Column 1", Type: FieldText},
				{ID: NewEditorID(), Key: "column_2", Label: "Column 2", Type: FieldText},
			},
			AllowAdd:    true,
			AllowRemove: true,
		}
	case t == FieldGroup:
		it.Group = &GroupConfig{
			Layout: LayoutStack,
			Items: []Item{
				{ID: NewEditorID(), Type: FieldText, Key: "field_1", Label: "Field 1"},
			},
		}
	case t.IsDerived():
		it.ReadOnly = true
		if t == FieldCalculation {
			it.Calc = &CalcConfig{}
		}
	}
	return it
}
