package trigger

import "fmt"

// Condition maps decoded from YAML carry ints, floats, strings, and
// []any; these helpers coerce them with explicit errors so a malformed
// catalog fails closed instead of silently matching.

func condInt(conditions map[string]any, key string) (int, bool, error) {
	raw, ok := conditions[key]
	if !ok {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		return int(v), true, nil
	default:
		return 0, false, fmt.Errorf("condition %q: expected number, got %T", key, raw)
	}
}

func condFloat(conditions map[string]any, key string) (float64, bool, error) {
	raw, ok := conditions[key]
	if !ok {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case float64:
		return v, true, nil
	default:
		return 0, false, fmt.Errorf("condition %q: expected number, got %T", key, raw)
	}
}

func condBool(conditions map[string]any, key string) (bool, bool, error) {
	raw, ok := conditions[key]
	if !ok {
		return false, false, nil
	}
	v, ok := raw.(bool)
	if !ok {
		return false, false, fmt.Errorf("condition %q: expected bool, got %T", key, raw)
	}
	return v, true, nil
}

func condString(conditions map[string]any, key string) (string, bool, error) {
	raw, ok := conditions[key]
	if !ok {
		return "", false, nil
	}
	v, ok := raw.(string)
	if !ok {
		return "", false, fmt.Errorf("condition %q: expected string, got %T", key, raw)
	}
	return v, true, nil
}

func condStrings(conditions map[string]any, key string) ([]string, bool, error) {
	raw, ok := conditions[key]
	if !ok {
		return nil, false, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false, fmt.Errorf("condition %q: expected list, got %T", key, raw)
	}
	values := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, false, fmt.Errorf("condition %q: expected string item, got %T", key, item)
		}
		values = append(values, s)
	}
	return values, true, nil
}

func condInts(conditions map[string]any, key string) ([]int, bool, error) {
	raw, ok := conditions[key]
	if !ok {
		return nil, false, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false, fmt.Errorf("condition %q: expected list, got %T", key, raw)
	}
	values := make([]int, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case int:
			values = append(values, v)
		case int64:
			values = append(values, int(v))
		case float64:
			values = append(values, int(v))
		default:
			return nil, false, fmt.Errorf("condition %q: expected number item, got %T", key, item)
		}
	}
	return values, true, nil
}
