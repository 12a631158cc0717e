package schema

import "testing"

func ruled(fieldKey string, op RuleOp, value any) Item {
	return Item{
		Type:  FieldGroup,
		Key:   "gated",
		Rules: &Rules{VisibleWhen: &VisibilityRule{FieldKey: fieldKey, Op: op, Value: value}},
	}
}

func TestIsVisible_NoRule(t *testing.T) {
	if !IsVisible(Item{Type: FieldText, Key: "plain"}, nil) {
		t.Error("items without a rule are always visible")
	}
	if !IsVisible(Item{Type: FieldText, Rules: &Rules{}}, nil) {
		t.Error("empty rules block means visible")
	}
}

func TestIsVisible_MissingFieldKey(t *testing.T) {
	if !IsVisible(ruled("", OpEq, true), map[string]any{}) {
		t.Error("rule without a field key means always visible")
	}
}

func TestIsVisible_BooleanTruthTable(t *testing.T) {
	values := map[string]any{"done": true}
	if !IsVisible(ruled("done", OpEq, true), values) {
		t.Error("eq true with actual true should be visible")
	}
	if IsVisible(ruled("done", OpNeq, true), values) {
		t.Error("neq true with actual true should be hidden")
	}
	// missing key coerces to false
	if IsVisible(ruled("done", OpEq, true), map[string]any{}) {
		t.Error("missing actual should coerce to false and hide")
	}
	if !IsVisible(ruled("done", OpNeq, true), map[string]any{}) {
		t.Error("missing actual with neq true should be visible")
	}
	// non-boolean truthy values are not boolean true
	if IsVisible(ruled("done", OpEq, true), map[string]any{"done": "yes"}) {
		t.Error("string actual must not coerce to boolean true")
	}
	if IsVisible(ruled("done", OpEq, true), map[string]any{"done": 1}) {
		t.Error("numeric actual must not coerce to boolean true")
	}
}

func TestIsVisible_Numeric(t *testing.T) {
	if !IsVisible(ruled("count", OpEq, float64(3)), map[string]any{"count": float64(3)}) {
		t.Error("numeric eq should match")
	}
	if !IsVisible(ruled("count", OpEq, float64(3)), map[string]any{"count": "3"}) {
		t.Error("numeric string actual should coerce")
	}
	// empty actual is indeterminate: eq false, neq true
	if IsVisible(ruled("count", OpEq, float64(3)), map[string]any{"count": ""}) {
		t.Error("empty actual should fail numeric eq")
	}
	if !IsVisible(ruled("count", OpNeq, float64(3)), map[string]any{}) {
		t.Error("missing actual should pass numeric neq")
	}
	if IsVisible(ruled("count", OpEq, float64(3)), map[string]any{"count": "abc"}) {
		t.Error("non-numeric actual should fail numeric eq")
	}
}

func TestIsVisible_String(t *testing.T) {
	if !IsVisible(ruled("kind", OpEq, "hip"), map[string]any{"kind": "hip"}) {
		t.Error("string eq should match")
	}
	if IsVisible(ruled("kind", OpEq, "hip"), map[string]any{"kind": "knee"}) {
		t.Error("string mismatch should hide")
	}
	if !IsVisible(ruled("kind", OpNeq, "hip"), map[string]any{"kind": "knee"}) {
		t.Error("string neq mismatch should be visible")
	}
	// missing coerces to empty string
	if IsVisible(ruled("kind", OpEq, "hip"), map[string]any{}) {
		t.Error("missing actual coerces to empty string")
	}
	if !IsVisible(ruled("kind", OpEq, ""), map[string]any{}) {
		t.Error("expected empty-string rule to match missing actual")
	}
}

func TestIsVisible_NeverPanics(t *testing.T) {
	weird := []any{nil, []any{1, 2}, map[string]any{"x": 1}, struct{}{}}
	for _, v := range weird {
		item := ruled("k", OpEq, v)
		_ = IsVisible(item, map[string]any{"k": v})
		_ = IsVisible(item, nil)
	}
}

func TestVisibleKeys(t *testing.T) {
	sec := Section{
		Code: "OP",
		Items: []Item{
			{Type: FieldBoolean, Key: "cement_used"},
			{Type: FieldGroup, Key: "cement", Rules: &Rules{VisibleWhen: &VisibilityRule{
				FieldKey: "cement_used", Op: OpEq, Value: true,
			}}, Group: &GroupConfig{Items: []Item{
				{Type: FieldText, Key: "cement_type"},
			}}},
		},
	}

	keys := VisibleKeys(sec, map[string]any{})
	if len(keys) != 1 || keys[0] != "cement_used" {
		t.Fatalf("expected only cement_used visible, got %v", keys)
	}

	keys = VisibleKeys(sec, map[string]any{"cement_used": true})
	if len(keys) != 3 {
		t.Fatalf("expected group and child visible, got %v", keys)
	}
}
