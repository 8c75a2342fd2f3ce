// Package eligibility decides whether a user qualifies for a welfare scheme.
//
// Every scheme has a Rule. A rule first reports the facts it still needs and
// only when nothing is missing does it look for disqualifying conditions, so
// a caller always learns about missing information before a rejection.
package eligibility

import (
	"errors"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-welfare/core/tools"
)

var (
	ErrMissingSchemeID = errors.New("scheme id is required")
	ErrUnknownScheme   = errors.New("no eligibility rule for scheme")
)

const msgMissingSchemeID = "అర్హతను చెక్ చేయడానికి ముందుగా ఏ పథకం కోసం చూడాలి అనేది (స్కీమ్ ఐడీ) చెప్పాలి."

func unknownSchemeMessage(id string) string {
	return fmt.Sprintf("ఈ పథకం (%s) కోసం స్పష్టమైన అర్హత నిబంధనలు ఇంకా నిర్వచించలేదు.", id)
}

// Input holds the user facts a rule can look at. Nil means the fact is
// unknown.
type Input struct {
	Age        *int     `mapstructure:"age"        json:"age,omitempty"`
	Income     *int     `mapstructure:"income"     json:"income,omitempty"`
	Occupation *string  `mapstructure:"occupation" json:"occupation,omitempty"`
	LandAcres  *float64 `mapstructure:"land_acres" json:"land_acres,omitempty"`
	Caste      *string  `mapstructure:"caste"      json:"caste,omitempty"`
}

// Verdict is what a rule concludes about an Input.
type Verdict struct {
	Missing []string
	Reasons []string
	Message string
}

// Rule evaluates a single scheme. It must fill Missing before it considers
// Reasons.
type Rule func(Input) Verdict

// SchemeSet reports which scheme ids exist.
type SchemeSet interface {
	Has(id string) bool
}

type Engine struct {
	rules map[string]Rule
}

// NewEngine validates rules against schemes. A rule for a scheme the
// catalog does not know is an error.
func NewEngine(schemes SchemeSet, rules map[string]Rule) (*Engine, error) {
	e := &Engine{rules: make(map[string]Rule, len(rules))}
	for id, rule := range rules {
		key := strings.ToLower(strings.TrimSpace(id))
		if schemes != nil && !schemes.Has(key) {
			return nil, fmt.Errorf("%w: %s is not in the catalog", ErrUnknownScheme, id)
		}
		if rule == nil {
			return nil, fmt.Errorf("rule for %s is nil", id)
		}
		e.rules[key] = rule
	}
	return e, nil
}

// Rule returns the rule registered for the scheme.
func (e *Engine) Rule(schemeID string) (Rule, error) {
	id := strings.ToLower(strings.TrimSpace(schemeID))
	if id == "" {
		return nil, ErrMissingSchemeID
	}
	rule, ok := e.rules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, schemeID)
	}
	return rule, nil
}

// Check is the check_eligibility tool.
func (e *Engine) Check(input Input, schemeID string) tools.Output {
	rule, err := e.Rule(schemeID)
	switch {
	case errors.Is(err, ErrMissingSchemeID):
		return tools.Failed(msgMissingSchemeID)
	case errors.Is(err, ErrUnknownScheme):
		logger.Debug("no eligibility rule", "scheme_id", schemeID)
		return tools.Failed(unknownSchemeMessage(schemeID))
	case err != nil:
		return tools.Failed(err.Error())
	}

	verdict := rule(input)
	switch {
	case len(verdict.Missing) > 0:
		return tools.Succeeded(map[string]any{
			tools.KeyStatus:        tools.StatusMissingInfo,
			tools.KeyMissingFields: verdict.Missing,
		})
	case len(verdict.Reasons) > 0:
		return tools.Succeeded(map[string]any{
			tools.KeyStatus:  tools.StatusIneligible,
			tools.KeyReasons: verdict.Reasons,
		})
	default:
		return tools.Succeeded(map[string]any{
			tools.KeyStatus:  tools.StatusEligible,
			tools.KeyMessage: verdict.Message,
		})
	}
}
