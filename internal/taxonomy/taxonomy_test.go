package taxonomy

import (
	"testing"

	"github.com/boshu2/lyra/internal/types"
)

func TestRequiredParameter_KnownIntentReturnsItsParameter(t *testing.T) {
	param, prompt, ok := RequiredParameter("delete_file")
	if !ok {
		t.Fatal("expected delete_file to be in the taxonomy")
	}
	if param != "filename" {
		t.Errorf("param = %q, want %q", param, "filename")
	}
	if prompt != "Which file would you like me to delete?" {
		t.Errorf("prompt = %q, want the spec's worked-example prompt", prompt)
	}
}

func TestRequiredParameter_UnknownIntentReturnsNotOK(t *testing.T) {
	if _, _, ok := RequiredParameter("launch_rocket"); ok {
		t.Error("expected unknown intent to return ok=false")
	}
}

func TestRiskFor_ReflectsDeclaredRiskLevel(t *testing.T) {
	if got := RiskFor("delete_file"); got != types.RiskHigh {
		t.Errorf("RiskFor(delete_file) = %v, want %v", got, types.RiskHigh)
	}
	if got := RiskFor("create_file"); got != types.RiskLow {
		t.Errorf("RiskFor(create_file) = %v, want %v", got, types.RiskLow)
	}
}

func TestRiskFor_UnknownIntentDefaultsLow(t *testing.T) {
	if got := RiskFor("launch_rocket"); got != types.RiskLow {
		t.Errorf("RiskFor(unknown) = %v, want %v", got, types.RiskLow)
	}
}

func TestIsKnownApp(t *testing.T) {
	if !IsKnownApp("chrome") {
		t.Error("expected chrome to be a known app")
	}
	if IsKnownApp("some-unheard-of-app") {
		t.Error("expected unrecognized app name to be rejected")
	}
}

func TestKnownIntents_IncludesEveryTaxonomyEntry(t *testing.T) {
	names := KnownIntents()
	if len(names) != len(Intents) {
		t.Fatalf("KnownIntents() returned %d names, want %d", len(names), len(Intents))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for intent := range Intents {
		if !seen[intent] {
			t.Errorf("KnownIntents() missing %q", intent)
		}
	}
}
