package llm

import "context"

// Purpose labels what a request was made for. It is recorded with every
// logged request so usage can be broken down per feature.
type Purpose string

const (
	PurposeTutor      Purpose = "tutor"
	PurposeQuiz       Purpose = "quiz"
	PurposeFlashcards Purpose = "flashcards"
	PurposeCourse     Purpose = "course"
	PurposeDoubt      Purpose = "doubt"
	PurposeHints      Purpose = "hints"
	PurposeCondense   Purpose = "lesson-compress"
	PurposeInsights   Purpose = "insights"

	purposeUnknown Purpose = "unknown"
)

// Purposes lists the known purposes in display order.
func Purposes() []Purpose {
	return []Purpose{
		PurposeTutor, PurposeQuiz, PurposeFlashcards, PurposeCourse,
		PurposeDoubt, PurposeHints, PurposeCondense, PurposeInsights,
	}
}

type contextKey struct{}

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) Purpose {
	if v, ok := ctx.Value(contextKey{}).(Purpose); ok && v != "" {
		return v
	}
	return purposeUnknown
}
