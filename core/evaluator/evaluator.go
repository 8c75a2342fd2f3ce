// Package evaluator judges a batch of tool results and decides how the turn
// continues.
package evaluator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-welfare/core/planner"
	"github.com/koscakluka/ema-welfare/core/tools"
)

type Action string

const (
	ActionRetryOrFail Action = "RETRY_OR_FAIL"
	ActionAskUser     Action = "ASK_USER"
	ActionSynthesize  Action = "SYNTHESIZE"
)

const (
	reasonToolFailed  = "టూల్ నడిపే సమయంలో లోపం వచ్చింది: [%s]"
	reasonMissingInfo = "అవసరమైన వివరాలు పూర్తి లేవు"
	reasonSucceeded   = "టూల్ అమలు విజయవంతంగా పూర్తైంది"

	askForFields = "మీరు ఏ పథకానికి అర్హులా అనేది ఖచ్చితంగా చెప్పాలంటే మరిన్ని వివరాలు కావాలి. దయచేసి ఇవి చెప్పండి: %s."
)

type Output struct {
	Action        Action `json:"action"`
	Reason        string `json:"reason"`
	CleanResponse string `json:"clean_response"`
}

type Evaluator struct{}

func New() *Evaluator {
	return &Evaluator{}
}

// Evaluate applies, in order: any failed result fails the batch, any
// MISSING_INFO result asks the user for every missing field, otherwise the
// data payloads are handed over for synthesis.
func (e *Evaluator) Evaluate(plan planner.Output, results []tools.Output, context string) Output {
	var failures []string
	for _, result := range results {
		if !result.Success {
			failures = append(failures, result.Error)
		}
	}
	if len(failures) > 0 {
		return Output{
			Action: ActionRetryOrFail,
			Reason: fmt.Sprintf(reasonToolFailed, strings.Join(failures, ", ")),
		}
	}

	if fields, ok := missingFields(results); ok {
		return Output{
			Action:        ActionAskUser,
			Reason:        reasonMissingInfo,
			CleanResponse: fmt.Sprintf(askForFields, strings.Join(fields, ", ")),
		}
	}

	summary, err := summarize(results)
	if err != nil {
		logger.Error("failed to summarise tool results", "error", err, "intent", plan.Intent)
		return Output{
			Action: ActionRetryOrFail,
			Reason: fmt.Sprintf(reasonToolFailed, err.Error()),
		}
	}
	return Output{
		Action:        ActionSynthesize,
		Reason:        reasonSucceeded,
		CleanResponse: summary,
	}
}

// missingFields collects the fields of every MISSING_INFO result, keeping
// the first occurrence of each.
func missingFields(results []tools.Output) ([]string, bool) {
	var (
		fields []string
		seen   = map[string]bool{}
		found  bool
	)
	for _, result := range results {
		if result.Status() != tools.StatusMissingInfo {
			continue
		}
		found = true
		for _, field := range result.MissingFields() {
			if !seen[field] {
				seen[field] = true
				fields = append(fields, field)
			}
		}
	}
	return fields, found
}

func summarize(results []tools.Output) (string, error) {
	payloads := make([]map[string]any, 0, len(results))
	for _, result := range results {
		payloads = append(payloads, result.Data)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payloads); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
