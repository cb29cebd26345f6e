package lessons

import (
	"fmt"
	"time"

	"github.com/abhisek/studywise/internal/student"
)

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Quiz is a set of questions generated from a lesson.
type Quiz struct {
	Topic     string         `json:"topic"`
	Questions []QuizQuestion `json:"quiz"`
}

// Grade scores selected against the quiz. selected[i] is the option the
// student picked for question i; missing entries count as unanswered.
func (q *Quiz) Grade(userID string, selected []string, spent time.Duration) student.QuizAttempt {
	records := make([]student.QuestionRecord, len(q.Questions))
	score := 0
	for i, question := range q.Questions {
		var pick string
		if i < len(selected) {
			pick = selected[i]
		}
		correct := pick != "" && pick == question.Answer
		if correct {
			score++
		}
		records[i] = student.QuestionRecord{
			Question:       question.Question,
			SelectedAnswer: pick,
			CorrectAnswer:  question.Answer,
			IsCorrect:      correct,
		}
	}

	return student.QuizAttempt{
		UserID:            userID,
		Topic:             q.Topic,
		Score:             score,
		Total:             len(q.Questions),
		Percentage:        student.Percentage(score, len(q.Questions)),
		Duration:          int(spent.Seconds()),
		QuestionsAnswered: records,
	}
}

// Difficulty of a flashcard.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Flashcard is a question on the front and its answer on the back.
type Flashcard struct {
	Front      string     `json:"front"`
	Back       string     `json:"back"`
	Difficulty Difficulty `json:"difficulty"`
}

// FlashcardSet is the cards generated for a topic.
type FlashcardSet struct {
	Topic   string      `json:"topic"`
	Summary string      `json:"summary"`
	Cards   []Flashcard `json:"cards"`
}

// CourseOutline is a generated learning path, not yet saved.
type CourseOutline struct {
	Goal    string                 `json:"goal"`
	Level   student.Level          `json:"level"`
	Modules []student.CourseModule `json:"modules"`
}

// Course turns the outline into a Course record owned by userID.
func (o *CourseOutline) Course(userID string) student.Course {
	return student.Course{
		UserID:                 userID,
		Title:                  o.Goal,
		Description:            fmt.Sprintf("A %s learning path in %d modules", o.Level, len(o.Modules)),
		Goal:                   o.Goal,
		Level:                  o.Level,
		EstimatedDurationHours: 2 * len(o.Modules),
		Modules:                o.Modules,
	}
}

// Doubt is the answer to a student's question.
type Doubt struct {
	Answer            string        `json:"answer"`
	Explanation       string        `json:"explanation"`
	KeyPoints         []string      `json:"keyPoints"`
	RelatedConcepts   []string      `json:"relatedConcepts"`
	Difficulty        student.Level `json:"difficulty"`
	FollowUpQuestions []string      `json:"followUpQuestions"`
}

// Insights is a summary of a learner's strengths and weaknesses drawn from
// their quiz history.
type Insights struct {
	Summary     string    `json:"summary"`
	Strengths   []string  `json:"strengths"`
	Weaknesses  []string  `json:"weaknesses"`
	Patterns    []string  `json:"patterns"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// InsightsInput is the history Insights are drawn from.
type InsightsInput struct {
	Stats  *student.Stats
	Recent []student.QuizAttempt
}
