package evaluator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/koscakluka/ema-welfare/core/planner"
	"github.com/koscakluka/ema-welfare/core/tools"
)

func missingInfo(fields ...string) tools.Output {
	return tools.Succeeded(map[string]any{
		tools.KeyStatus:        tools.StatusMissingInfo,
		tools.KeyMissingFields: fields,
	})
}

func TestEvaluateFailuresWin(t *testing.T) {
	out := New().Evaluate(planner.Output{}, []tools.Output{
		missingInfo("వయస్సు"),
		tools.Failed("unknown tool: apply"),
		tools.Succeeded(map[string]any{tools.KeyStatus: tools.StatusEligible}),
		tools.Failed("boom"),
	}, "")

	if out.Action != ActionRetryOrFail {
		t.Fatalf("expected RETRY_OR_FAIL, got %s", out.Action)
	}
	if out.Reason != "టూల్ నడిపే సమయంలో లోపం వచ్చింది: [unknown tool: apply, boom]" {
		t.Fatalf("expected both errors in reason, got %q", out.Reason)
	}
	if out.CleanResponse != "" {
		t.Fatalf("expected no clean response, got %q", out.CleanResponse)
	}
}

func TestEvaluateAsksForEveryMissingField(t *testing.T) {
	out := New().Evaluate(planner.Output{}, []tools.Output{
		missingInfo("వయస్సు", "కుటుంబ వార్షిక ఆదాయం"),
		tools.Succeeded(map[string]any{tools.KeyStatus: tools.StatusIneligible}),
		missingInfo("వ్యవసాయ భూమి ఎకరాలు", "వయస్సు"),
	}, "")

	if out.Action != ActionAskUser {
		t.Fatalf("expected ASK_USER, got %s", out.Action)
	}
	if out.Reason != reasonMissingInfo {
		t.Fatalf("expected missing info reason, got %q", out.Reason)
	}
	expected := "మీరు ఏ పథకానికి అర్హులా అనేది ఖచ్చితంగా చెప్పాలంటే మరిన్ని వివరాలు కావాలి. దయచేసి ఇవి చెప్పండి: వయస్సు, కుటుంబ వార్షిక ఆదాయం, వ్యవసాయ భూమి ఎకరాలు."
	if out.CleanResponse != expected {
		t.Fatalf("expected %q, got %q", expected, out.CleanResponse)
	}
}

func TestEvaluateReadsDecodedMissingFields(t *testing.T) {
	result := tools.Succeeded(map[string]any{
		tools.KeyStatus:        tools.StatusMissingInfo,
		tools.KeyMissingFields: []any{"వయస్సు"},
	})

	out := New().Evaluate(planner.Output{}, []tools.Output{result}, "")
	if out.Action != ActionAskUser || !strings.HasSuffix(out.CleanResponse, ": వయస్సు.") {
		t.Fatalf("expected ASK_USER for age, got %+v", out)
	}
}

func TestEvaluateSynthesizesDataPayloads(t *testing.T) {
	out := New().Evaluate(planner.Output{}, []tools.Output{
		tools.Succeeded(map[string]any{
			tools.KeyStatus:  tools.StatusIneligible,
			tools.KeyReasons: []string{"మీ వయస్సు 45 సంవత్సరాలు మాత్రమే, అవసరమైన కనిష్ట వయస్సు 57 సంవత్సరాలు."},
		}),
		tools.Succeeded(map[string]any{tools.KeyMatches: []any{}}),
	}, "")

	if out.Action != ActionSynthesize || out.Reason != reasonSucceeded {
		t.Fatalf("expected SYNTHESIZE, got %+v", out)
	}
	if !strings.Contains(out.CleanResponse, "మీ వయస్సు 45") {
		t.Fatalf("expected readable Telugu in summary, got %s", out.CleanResponse)
	}

	var payloads []map[string]any
	if err := json.Unmarshal([]byte(out.CleanResponse), &payloads); err != nil {
		t.Fatalf("expected JSON array, got %v", err)
	}
	if len(payloads) != 2 || payloads[0][tools.KeyStatus] != tools.StatusIneligible {
		t.Fatalf("expected payloads in result order, got %v", payloads)
	}
}

func TestEvaluateEmptyBatchSynthesizes(t *testing.T) {
	out := New().Evaluate(planner.Output{}, nil, "")
	if out.Action != ActionSynthesize || out.CleanResponse != "[]" {
		t.Fatalf("expected SYNTHESIZE with empty list, got %+v", out)
	}
}
