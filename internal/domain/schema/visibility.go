package schema

import (
	"encoding/json"
	"strconv"
)

// IsVisible evaluates an item's visible_when rule against a value map.
// Items without a rule, or with a rule missing its field key, are always
// visible. The function is pure and total: unknown or missing values
// coerce to designed defaults rather than erroring, because it runs on
// every keystroke across a rendered form.
func IsVisible(item Item, values map[string]any) bool {
	if item.Rules == nil || item.Rules.VisibleWhen == nil {
		return true
	}
	rule := item.Rules.VisibleWhen
	if rule.FieldKey == "" {
		return true
	}
	actual := values[rule.FieldKey]

	var match bool
	switch expected := rule.Value.(type) {
	case bool:
		match = coerceBool(actual) == expected
	case float64:
		n, ok := coerceNumber(actual)
		match = ok && n == expected
	case int:
		n, ok := coerceNumber(actual)
		match = ok && n == float64(expected)
	case json.Number:
		en, err := expected.Float64()
		n, ok := coerceNumber(actual)
		match = err == nil && ok && n == en
	default:
		match = coerceString(actual) == coerceString(rule.Value)
	}

	if rule.Op == OpNeq {
		return !match
	}
	return match
}

// coerceBool treats only a true boolean as true; anything else, including
// missing values, is false.
func coerceBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// coerceNumber returns the numeric interpretation of v, or ok=false when v
// is missing or empty (the indeterminate case: eq fails, neq holds).
func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		if n == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// coerceString renders v as a comparison string; missing values become "".
func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case json.Number:
		return s.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// VisibleKeys returns the keys of the section's items that are visible
// under the given value map, descending into visible groups.
func VisibleKeys(sec Section, values map[string]any) []string {
	var keys []string
	var walk func(items []Item)
	walk = func(items []Item) {
		for _, it := range items {
			if !IsVisible(it, values) {
				continue
			}
			if it.Key != "" {
				keys = append(keys, it.Key)
			}
			if it.Group != nil {
				walk(it.Group.Items)
			}
		}
	}
	walk(sec.Items)
	return keys
}
