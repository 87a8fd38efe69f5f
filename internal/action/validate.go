package action

import (
	"encoding/json"
	"fmt"
)

// Validate checks params against a's declared schema. Parameters are checked
// in declaration order and the first failure wins. The returned message is
// empty on success and user-presentable on failure. Pure function, no side
// effects.
func Validate(a Action, params map[string]any) (bool, string) {
	for _, p := range a.Parameters() {
		value, present := params[p.Name]
		if !present {
			if p.Required {
				return false, fmt.Sprintf("Required parameter '%s' is missing", p.Name)
			}
			continue
		}

		switch p.Type {
		case TypeNumber:
			n, ok := numberValue(value)
			if !ok {
				return false, fmt.Sprintf("Parameter '%s' must be a number", p.Name)
			}
			if p.Min != nil && n < *p.Min {
				return false, fmt.Sprintf("Parameter '%s' must be >= %v", p.Name, *p.Min)
			}
			if p.Max != nil && n > *p.Max {
				return false, fmt.Sprintf("Parameter '%s' must be <= %v", p.Name, *p.Max)
			}
		case TypeBoolean:
			if _, ok := value.(bool); !ok {
				return false, fmt.Sprintf("Parameter '%s' must be a boolean", p.Name)
			}
		case TypeString:
			if _, ok := value.(string); !ok {
				return false, fmt.Sprintf("Parameter '%s' must be a string", p.Name)
			}
		case TypeChoice:
			s, ok := value.(string)
			if !ok || !containsChoice(p.Choices, s) {
				return false, fmt.Sprintf("Parameter '%s' must be one of: %v", p.Name, p.Choices)
			}
		}
	}
	return true, ""
}

// numberValue normalizes the numeric encodings that reach the validator:
// native Go numbers from code, float64 from encoding/json, and json.Number
// when a decoder is configured with UseNumber.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func containsChoice(choices []string, value string) bool {
	for _, c := range choices {
		if c == value {
			return true
		}
	}
	return false
}
