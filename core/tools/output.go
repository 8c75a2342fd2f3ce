// Package tools defines the result contract shared by the deterministic
// tools the planner can call.
package tools

const (
	CheckEligibility = "check_eligibility"
	SearchSchemes    = "search_schemes"
)

// Status values carried in Output.Data["status"].
const (
	StatusMissingInfo = "MISSING_INFO"
	StatusEligible    = "ELIGIBLE"
	StatusIneligible  = "INELIGIBLE"
)

// Keys used inside Output.Data.
const (
	KeyStatus        = "status"
	KeyMissingFields = "missing_fields"
	KeyReasons       = "reasons"
	KeyMessage       = "message"
	KeyMatches       = "matches"
)

// Output is the normalised result of a tool call.
type Output struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
}

func Succeeded(data map[string]any) Output {
	return Output{Success: true, Data: data}
}

func Failed(err string) Output {
	return Output{Success: false, Error: err}
}

// Status returns the status discriminator of the result data, if any.
func (o Output) Status() string {
	if o.Data == nil {
		return ""
	}
	status, _ := o.Data[KeyStatus].(string)
	return status
}

// MissingFields returns the missing field names of a MISSING_INFO result.
func (o Output) MissingFields() []string {
	if o.Data == nil {
		return nil
	}
	return Strings(o.Data[KeyMissingFields])
}

// Strings converts a []string or a decoded JSON list into a []string,
// skipping anything that is not a string.
func Strings(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}
