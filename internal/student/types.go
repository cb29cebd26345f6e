// Package student defines the records StudyWise keeps per user and where
// they live in the document store.
package student

import (
	"math"
	"time"
)

// MasteryThreshold is the rounded average at or above which a topic counts
// as mastered.
const MasteryThreshold = 80

// StartingCredits is the credit balance of a new account.
const StartingCredits = 100

// Identity is a signed-in user as reported by the identity provider.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// Account is the users/{uid} document. It carries fields that change out of
// band, such as the credit balance.
type Account struct {
	DisplayName        string    `json:"displayName"`
	Email              string    `json:"email"`
	PhotoURL           string    `json:"photoURL"`
	Credits            int       `json:"credits"`
	Friends            []string  `json:"friends"`
	CreatedAt          time.Time `json:"createdAt"`
	LastLogin          time.Time `json:"lastLogin"`
	TotalQuizzesTaken  int       `json:"totalQuizzesTaken"`
	TotalCreditsEarned int       `json:"totalCreditsEarned"`
}

// Profile is the students/{uid} document.
type Profile struct {
	UserID            string    `json:"userId"`
	DisplayName       string    `json:"displayName"`
	Email             string    `json:"email"`
	PhotoURL          string    `json:"photoURL"`
	CreatedAt         time.Time `json:"createdAt"`
	LastLogin         time.Time `json:"lastLogin"`
	Streak            int       `json:"streak"`
	TotalQuizzesTaken int       `json:"totalQuizzesTaken"`
	AverageScore      int       `json:"averageScore"`
	PreferredSubjects []string  `json:"preferredSubjects"`
}

// QuestionRecord is one answered question inside a quiz attempt.
type QuestionRecord struct {
	Question       string `json:"question"`
	SelectedAnswer string `json:"selectedAnswer"`
	CorrectAnswer  string `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// QuizAttempt is one submitted quiz. It is never modified after it is
// stored.
type QuizAttempt struct {
	ID                string           `json:"id,omitempty"`
	UserID            string           `json:"userId"`
	Topic             string           `json:"topic"`
	Score             int              `json:"score"`
	Total             int              `json:"total"`
	Percentage        int              `json:"percentage"`
	Timestamp         time.Time        `json:"timestamp"`
	Duration          int              `json:"duration,omitempty"` // seconds
	QuestionsAnswered []QuestionRecord `json:"questionsAnswered"`
}

// TopicMastery is the per-topic rollup inside Stats.
type TopicMastery struct {
	Topic         string    `json:"topic"`
	QuizzesTaken  int       `json:"quizzesTaken"`
	AverageScore  int       `json:"averageScore"`
	PercentageSum int       `json:"percentageSum"`
	LastAttempted time.Time `json:"lastAttempted"`
	Mastered      bool      `json:"mastered"`
}

// Stats is the students/{uid}/stats/summary document.
//
// AverageScore fields are display values: they are always round(sum/count)
// of the exact PercentageSum, so they carry no accumulated rounding error.
type Stats struct {
	UserID            string         `json:"userId"`
	TotalQuizzesTaken int            `json:"totalQuizzesTaken"`
	AverageScore      int            `json:"averageScore"`
	PercentageSum     int            `json:"percentageSum"`
	Streak            int            `json:"streak"`
	TopicsMastered    int            `json:"topicsMastered"`
	TotalTimeSpent    int            `json:"totalTimeSpent"` // minutes
	SecondsSpent      int            `json:"secondsSpent"`
	LastActivityDate  time.Time      `json:"lastActivityDate"`
	TopicBreakdown    []TopicMastery `json:"topicBreakdown"`
}

// LessonProgress is a lesson the user studied, one per topic.
type LessonProgress struct {
	ID           string    `json:"id,omitempty"`
	UserID       string    `json:"userId"`
	Topic        string    `json:"topic"`
	Content      string    `json:"content"`
	LastAccessed time.Time `json:"lastAccessed"`
	Completed    bool      `json:"completed"`
	TimeSpent    int       `json:"timeSpent"` // seconds
}

// Level is a course difficulty.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ParseLevel validates a level name. An empty name means beginner.
func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case "":
		return LevelBeginner, true
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return Level(s), true
	default:
		return "", false
	}
}

// CourseModule is one module of a course outline.
type CourseModule struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
}

// Course is a saved learning path. It is never modified after it is
// stored.
type Course struct {
	ID                     string         `json:"id,omitempty"`
	UserID                 string         `json:"userId"`
	Title                  string         `json:"title"`
	Description            string         `json:"description"`
	Goal                   string         `json:"goal"`
	Level                  Level          `json:"level"`
	EstimatedDurationHours int            `json:"estimatedDurationHours"`
	Modules                []CourseModule `json:"modules"`
	CreatedAt              time.Time      `json:"createdAt"`
}

// Percentage returns round(score/total*100), or 0 for an empty quiz.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return RoundDiv(score*100, total)
}

// RoundDiv returns sum/count rounded half away from zero.
func RoundDiv(sum, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(count)))
}
