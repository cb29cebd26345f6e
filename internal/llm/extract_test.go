package llm

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain object", `{"quiz":[]}`, `{"quiz":[]}`},
		{"json fence", "```json\n{\"quiz\":[{\"question\":\"q\"}]}\n```", `{"quiz":[{"question":"q"}]}`},
		{"bare fence", "```\n[\"hint one\",\"hint two\"]\n```", `["hint one","hint two"]`},
		{"prose around object", "Sure! Here is the outline:\n{\"modules\":[]}\nGood luck.", `{"modules":[]}`},
		{"prose around array", `Hints: ["a","b"] done`, `["a","b"]`},
		{"braces inside strings", `note {"answer":"use } and ] carefully"} end`, `{"answer":"use } and ] carefully"}`},
		{"skips unbalanced prefix", `{ broken [ {"ok":true}`, `{"ok":true}`},
		{"surrounding whitespace", "\n\n  {\"a\":1}  \n", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("ExtractJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractJSON_Failure(t *testing.T) {
	for _, raw := range []string{"", "I cannot help with that.", "{not json}", "```json\n```"} {
		_, err := ExtractJSON(raw)
		var inv *ErrInvalidResponse
		if !errors.As(err, &inv) {
			t.Fatalf("ExtractJSON(%q): expected ErrInvalidResponse, got %v", raw, err)
		}
	}
}

func TestDecodeJSON_FencedAndPlainAgree(t *testing.T) {
	type quiz struct {
		Quiz []struct {
			Question string   `json:"question"`
			Options  []string `json:"options"`
			Answer   string   `json:"answer"`
		} `json:"quiz"`
	}
	body := `{"quiz":[{"question":"What is inertia?","options":["A. x","B. y","C. z"],"answer":"B. y"}]}`

	var plain, fenced quiz
	if err := DecodeJSON(body, &plain); err != nil {
		t.Fatalf("plain: %v", err)
	}
	if err := DecodeJSON("```json\n"+body+"\n```", &fenced); err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if len(fenced.Quiz) != 1 || fenced.Quiz[0].Answer != plain.Quiz[0].Answer {
		t.Fatalf("fenced result %+v differs from plain %+v", fenced, plain)
	}
}
