// Package action defines the action capability interface, the typed
// parameter schema actions declare, and the registry that owns every
// executable action in the process.
package action

// ParamType enumerates the supported parameter value types.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeChoice  ParamType = "choice"
)

// Parameter is one entry of an action's declared schema. Instances are
// immutable; actions return fresh slices from Parameters.
type Parameter struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
	Default     any       `json:"default_value,omitempty"`
	Choices     []string  `json:"choices,omitempty"`
	Min         *float64  `json:"min_value,omitempty"`
	Max         *float64  `json:"max_value,omitempty"`
}

// Action is the capability every executable action implements. Execute
// reports success as a bare boolean; failures are logged by the
// implementation, never raised across this boundary. Implementations are
// stateless between invocations and acquire any OS handles they need within
// a single Execute call.
type Action interface {
	Name() string
	Description() string
	Parameters() []Parameter
	Execute(params map[string]any) bool
}

// Info is the wire-facing description of one registered action, consumed by
// the settings UI to build its action picker.
type Info struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

// StringParam reads a string parameter, falling back to def when the key is
// absent or holds a non-string value.
func StringParam(params map[string]any, name, def string) string {
	if v, ok := params[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// NumberParam reads a numeric parameter, accepting any numeric encoding a
// JSON or UI layer may deliver, falling back to def otherwise.
func NumberParam(params map[string]any, name string, def float64) float64 {
	if v, ok := params[name]; ok {
		if f, ok := numberValue(v); ok {
			return f
		}
	}
	return def
}

// BoolParam reads a boolean parameter, falling back to def when absent or
// mistyped.
func BoolParam(params map[string]any, name string, def bool) bool {
	if v, ok := params[name]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}
