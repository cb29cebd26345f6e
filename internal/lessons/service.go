// Package lessons generates study material with an LLM: tutor lessons,
// quizzes, flashcards, course outlines and answers to a student's doubts.
package lessons

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/abhisek/studywise/internal/llm"
	"github.com/abhisek/studywise/internal/student"
)

const (
	// QuizQuestions is the number of questions in a generated quiz.
	QuizQuestions = 5
	// QuizOptions is the number of options per question.
	QuizOptions = 3
	// DefaultFlashcards is the card count used when none is requested.
	DefaultFlashcards = 5
)

// Service generates study material.
type Service struct {
	provider   llm.Provider
	cfg        Config
	compressor *Compressor
}

// NewService creates a generation service.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{
		provider:   provider,
		cfg:        cfg,
		compressor: NewCompressor(provider, DefaultCompressorConfig()),
	}
}

// Compressor returns the compressor the service condenses lesson context
// with.
func (s *Service) Compressor() *Compressor {
	return s.compressor
}

// Teach streams a beginner-friendly plain-text lesson on topic. When image
// is set, topic is the student's question about the image.
func (s *Service) Teach(ctx context.Context, topic string, image *llm.InlineData) iter.Seq2[string, error] {
	ctx = llm.WithPurpose(ctx, llm.PurposeTutor)

	var images []llm.InlineData
	if image != nil {
		images = append(images, *image)
	}
	req := llm.Request{
		System:      tutorSystemPrompt,
		Messages:    []llm.Message{llm.UserMessage(buildTutorUserMessage(topic, image != nil), images...)},
		MaxTokens:   s.cfg.Tutor.MaxTokens,
		Temperature: s.cfg.Tutor.Temperature,
	}
	return s.provider.GenerateStream(ctx, req)
}

// TeachText collects Teach into a single string.
func (s *Service) TeachText(ctx context.Context, topic string, image *llm.InlineData) (string, error) {
	var b strings.Builder
	for chunk, err := range s.Teach(ctx, topic, image) {
		if err != nil {
			return "", fmt.Errorf("tutor lesson: %w", err)
		}
		b.WriteString(chunk)
	}
	return b.String(), nil
}

// QuizFromLesson writes a multiple-choice quiz on the lesson text.
// Questions whose answer is not one of their options are dropped.
func (s *Service) QuizFromLesson(ctx context.Context, topic, lesson string) (*Quiz, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuiz)

	var out Quiz
	if err := s.generate(ctx, quizSystemPrompt, buildQuizUserMessage(lesson), QuizSchema, s.cfg.Quiz, &out); err != nil {
		return nil, fmt.Errorf("quiz generation: %w", err)
	}

	quiz := &Quiz{Topic: topic}
	for _, q := range out.Questions {
		if q.Question == "" || len(q.Options) < 2 || !slices.Contains(q.Options, q.Answer) {
			continue
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if len(quiz.Questions) == 0 {
		return nil, &llm.ErrInvalidResponse{Err: fmt.Errorf("quiz has no usable questions")}
	}
	return quiz, nil
}

// Flashcards writes count flashcards from content. count <= 0 means
// DefaultFlashcards.
func (s *Service) Flashcards(ctx context.Context, topic, content string, count int) (*FlashcardSet, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeFlashcards)
	if count <= 0 {
		count = DefaultFlashcards
	}

	var out FlashcardSet
	if err := s.generate(ctx, flashcardSystemPrompt, buildFlashcardUserMessage(topic, content, count), FlashcardSchema, s.cfg.Flashcards, &out); err != nil {
		return nil, fmt.Errorf("flashcard generation: %w", err)
	}
	out.Topic = topic
	if out.Summary == "" {
		out.Summary = "Study this content thoroughly"
	}
	for i := range out.Cards {
		if out.Cards[i].Difficulty == "" {
			out.Cards[i].Difficulty = DifficultyMedium
		}
	}
	if out.Cards == nil {
		out.Cards = []Flashcard{}
	}
	return &out, nil
}

// CourseOutline designs a learning path for goal at level.
func (s *Service) CourseOutline(ctx context.Context, goal string, level student.Level) (*CourseOutline, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeCourse)
	lvl, ok := student.ParseLevel(string(level))
	if !ok {
		return nil, fmt.Errorf("invalid course level %q", level)
	}

	var out struct {
		Modules []student.CourseModule `json:"modules"`
	}
	if err := s.generate(ctx, courseSystemPrompt, buildCourseUserMessage(goal, lvl), CourseSchema, s.cfg.Course, &out); err != nil {
		return nil, fmt.Errorf("course generation: %w", err)
	}
	if len(out.Modules) == 0 {
		return nil, &llm.ErrInvalidResponse{Err: fmt.Errorf("course outline has no modules")}
	}
	for i := range out.Modules {
		if out.Modules[i].Title == "" {
			out.Modules[i].Title = "Module"
		}
		if out.Modules[i].Topics == nil {
			out.Modules[i].Topics = []string{}
		}
	}
	return &CourseOutline{Goal: goal, Level: lvl, Modules: out.Modules}, nil
}

// SolveDoubt answers a question about topic. lessonContext, when set, is
// the lesson the question came from; long lessons are condensed first.
func (s *Service) SolveDoubt(ctx context.Context, question, topic, lessonContext string) (*Doubt, error) {
	if len(lessonContext) > ContextCompressionThreshold {
		condensed, err := s.compressor.CondenseLesson(ctx, lessonContext)
		if err != nil {
			return nil, err
		}
		lessonContext = condensed
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeDoubt)

	var out Doubt
	if err := s.generate(ctx, doubtSystemPrompt, buildDoubtUserMessage(question, topic, lessonContext), DoubtSchema, s.cfg.Doubt, &out); err != nil {
		return nil, fmt.Errorf("doubt solving: %w", err)
	}
	if out.Difficulty == "" {
		out.Difficulty = student.LevelIntermediate
	}
	return &out, nil
}

// Hints returns 2-3 hints for problem. level runs from 1 (getting started)
// to 3 (just short of the solution) and is clamped to that range.
func (s *Service) Hints(ctx context.Context, problem, topic string, level int) ([]string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeHints)
	level = max(1, min(level, 3))

	// Sent without a schema: providers cannot all return a bare array as
	// structured output, so the array is recovered from the text.
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      hintsSystemPrompt,
		Messages:    []llm.Message{llm.UserMessage(buildHintsUserMessage(problem, topic, level))},
		MaxTokens:   s.cfg.Hints.MaxTokens,
		Temperature: s.cfg.Hints.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("hint generation: %w", err)
	}

	raw, err := llm.ExtractJSON(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("hint generation: %w", err)
	}
	var hints []string
	if err := json.Unmarshal(raw, &hints); err == nil {
		return hints, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	return nil, &llm.ErrInvalidResponse{Content: raw, Err: fmt.Errorf("hints are not a list of strings")}
}

func (s *Service) generate(ctx context.Context, system, user string, schema *llm.Schema, b Budget, out any) error {
	req := llm.Request{
		System:      system,
		Messages:    []llm.Message{llm.UserMessage(user)},
		Schema:      schema,
		MaxTokens:   b.MaxTokens,
		Temperature: b.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Content, out); err != nil {
		return fmt.Errorf("parse %s response: %w", schema.Name, err)
	}
	return nil
}
