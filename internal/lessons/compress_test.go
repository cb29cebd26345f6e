package lessons

import (
	"strings"
	"testing"
	"time"

	"github.com/abhisek/studywise/internal/llm"
	"github.com/abhisek/studywise/internal/student"
)

func TestCompressor_CondenseLesson(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(`{"summary": "Work is force times displacement."}`))
	comp := NewCompressor(mock, DefaultCompressorConfig())

	summary, err := comp.CondenseLesson(t.Context(), "A very long lesson about work and energy...")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "Work is force times displacement." {
		t.Errorf("unexpected summary: %q", summary)
	}

	req := mock.Calls[0]
	if req.Schema == nil || req.Schema.Name != "lesson-summary" {
		t.Error("expected schema name 'lesson-summary'")
	}
	if req.MaxTokens != 512 {
		t.Errorf("expected max tokens 512, got %d", req.MaxTokens)
	}
}

func TestCompressor_Insights(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(`{
		"summary": "Strong in kinematics, still building intuition for optics.",
		"strengths": ["solid grasp of equations of motion"],
		"weaknesses": ["sign conventions for mirrors"],
		"patterns": ["mixes up real and virtual images"]
	}`))
	comp := NewCompressor(mock, DefaultCompressorConfig())
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	comp.now = func() time.Time { return fixed }

	input := InsightsInput{
		Stats: &student.Stats{
			TotalQuizzesTaken: 3,
			AverageScore:      71,
			Streak:            2,
			TopicBreakdown: []student.TopicMastery{
				{Topic: "Kinematics", QuizzesTaken: 2, AverageScore: 90, Mastered: true},
				{Topic: "Optics", QuizzesTaken: 1, AverageScore: 33},
			},
		},
		Recent: []student.QuizAttempt{{
			Topic: "Optics",
			QuestionsAnswered: []student.QuestionRecord{
				{Question: "Image in a plane mirror is?", SelectedAnswer: "A. Real", CorrectAnswer: "B. Virtual"},
				{Question: "Speed of light?", SelectedAnswer: "A. 3e8 m/s", CorrectAnswer: "A. 3e8 m/s", IsCorrect: true},
			},
		}},
	}

	insights, err := comp.Insights(t.Context(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(insights.Strengths) != 1 || len(insights.Patterns) != 1 {
		t.Errorf("unexpected insights %+v", insights)
	}
	if !insights.GeneratedAt.Equal(fixed) {
		t.Errorf("expected GeneratedAt from the clock, got %v", insights.GeneratedAt)
	}

	prompt := mock.Calls[0].Messages[0].Content
	for _, want := range []string{"Kinematics: 2 quizzes, average 90% (mastered)", "Image in a plane mirror is?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "Speed of light?") {
		t.Error("correct answers should not be listed as mistakes")
	}
}

func TestCompressor_InsightsWithoutHistory(t *testing.T) {
	mock := llm.NewMockProvider()
	comp := NewCompressor(mock, DefaultCompressorConfig())

	if _, err := comp.Insights(t.Context(), InsightsInput{}); err == nil {
		t.Error("expected an error without history")
	}
	if mock.CallCount() != 0 {
		t.Error("no LLM call expected without history")
	}
}
