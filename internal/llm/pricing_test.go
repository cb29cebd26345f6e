package llm

import (
	"math"
	"testing"
)

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model string
		want  *ModelCost
	}{
		{"gemini-2.5-flash", &ModelCost{0.3, 2.5}},
		{"google/gemini-2.5-flash", &ModelCost{0.3, 2.5}},
		{"google/gemini-2.0-flash-exp:free", &ModelCost{0.1, 0.4}},
		{"meta-llama/llama-3.3-70b-instruct", &ModelCost{0.13, 0.39}},
		{"mock", nil},
		{"acme/unknown-model", nil},
	}
	for _, tt := range tests {
		got := LookupCost(tt.model)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("LookupCost(%q) = %+v, want nil", tt.model, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("LookupCost(%q) = %v, want %+v", tt.model, got, *tt.want)
		}
	}
}

func TestModelCost_Cost(t *testing.T) {
	c := ModelCost{InputPerMTok: 0.3, OutputPerMTok: 2.5}
	got := c.Cost(2_000, 1_000)
	if want := 0.0006 + 0.0025; math.Abs(got-want) > 1e-12 {
		t.Errorf("Cost = %v, want %v", got, want)
	}
}
