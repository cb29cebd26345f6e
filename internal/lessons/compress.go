package lessons

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/studywise/internal/llm"
)

// Compressor condenses study history into shorter context.
type Compressor struct {
	provider llm.Provider
	cfg      CompressorConfig
	now      func() time.Time
}

// NewCompressor creates a context compressor.
func NewCompressor(provider llm.Provider, cfg CompressorConfig) *Compressor {
	return &Compressor{provider: provider, cfg: cfg, now: time.Now}
}

type compressionOutput struct {
	Summary string `json:"summary"`
}

// CondenseLesson summarizes a long lesson so it fits alongside a question.
func (c *Compressor) CondenseLesson(ctx context.Context, lesson string) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeCondense)

	req := llm.Request{
		System: condenseSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildCondenseUserMessage(lesson)},
		},
		Schema:      LessonSummarySchema,
		MaxTokens:   c.cfg.LessonMaxTokens,
		Temperature: c.cfg.Temperature,
	}

	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("lesson compression: %w", err)
	}

	var out compressionOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse compression response: %w", err)
	}
	return out.Summary, nil
}

type insightsOutput struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Patterns   []string `json:"patterns"`
}

// Insights creates a learner profile from the student's stats and recent
// attempts.
func (c *Compressor) Insights(ctx context.Context, input InsightsInput) (*Insights, error) {
	if input.Stats == nil && len(input.Recent) == 0 {
		return nil, fmt.Errorf("no quiz history to draw insights from")
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeInsights)

	req := llm.Request{
		System: insightsSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildInsightsUserMessage(input)},
		},
		Schema:      InsightsSchema,
		MaxTokens:   c.cfg.InsightsMaxTokens,
		Temperature: c.cfg.Temperature,
	}

	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("insights generation: %w", err)
	}

	var out insightsOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse insights response: %w", err)
	}

	return &Insights{
		Summary:     out.Summary,
		Strengths:   out.Strengths,
		Weaknesses:  out.Weaknesses,
		Patterns:    out.Patterns,
		GeneratedAt: c.now(),
	}, nil
}
