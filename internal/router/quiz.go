package router

import (
	"context"
	"fmt"

	"github.com/abhisek/studywise/internal/docstore"
	"github.com/abhisek/studywise/internal/student"
)

// SaveQuiz is quiz.save. The attempt is stored with a server timestamp and
// then folded into the user's stats summary. A failed summary update does
// not fail the save.
//
// A zero Percentage is treated as not supplied and derived from Score and
// Total. For a zero score the two agree; a client sending 0 with a nonzero
// score gets the derived value stored instead.
type SaveQuiz struct {
	Data student.QuizAttempt `json:"data"`
}

func (SaveQuiz) Kind() Kind { return KindQuizSave }

func (a SaveQuiz) Owner() string { return a.Data.UserID }

func (a SaveQuiz) run(ctx context.Context, r *Router) (*student.QuizAttempt, string, error) {
	q := a.Data
	if err := checkUserID(q.UserID); err != nil {
		return nil, "", err
	}
	q.ID = ""
	if q.Percentage == 0 && q.Total > 0 {
		q.Percentage = student.Percentage(q.Score, q.Total)
	}
	if q.QuestionsAnswered == nil {
		q.QuestionsAnswered = []student.QuestionRecord{}
	}

	saved, err := r.stats.Submit(ctx, q.UserID, func(ctx context.Context) (*student.QuizAttempt, error) {
		fields, err := docstore.ToFields(q)
		if err != nil {
			return nil, err
		}
		fields["timestamp"] = docstore.ServerTimestamp

		ref, err := r.db.Add(ctx, student.QuizzesRef(q.UserID), fields)
		if err != nil {
			return nil, err
		}
		snap, err := r.db.Get(ctx, ref)
		if err != nil {
			return nil, err
		}
		stored, err := student.Decode[student.QuizAttempt](snap)
		if err != nil {
			return nil, err
		}
		return &stored, nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to save quiz attempt: %w", err)
	}
	return saved, "Quiz saved successfully", nil
}

func (a SaveQuiz) serve(ctx context.Context, r *Router) Response[any] {
	return erase(Dispatch[*student.QuizAttempt](ctx, r, a))
}

// ListQuizzes is quiz.getAll.
type ListQuizzes struct {
	UserID string `json:"userId"`
}

func (ListQuizzes) Kind() Kind { return KindQuizGetAll }

func (a ListQuizzes) Owner() string { return a.UserID }

func (a ListQuizzes) run(ctx context.Context, r *Router) ([]student.QuizAttempt, string, error) {
	if err := checkUserID(a.UserID); err != nil {
		return nil, "", err
	}
	quizzes, err := queryAll[student.QuizAttempt](ctx, r, student.QuizzesRef(a.UserID))
	if err != nil {
		return nil, "", err
	}
	return quizzes, fmt.Sprintf("Retrieved %d quizzes", len(quizzes)), nil
}

func (a ListQuizzes) serve(ctx context.Context, r *Router) Response[any] {
	return erase(Dispatch[[]student.QuizAttempt](ctx, r, a))
}

// ListQuizzesByTopic is quiz.getByTopic. Topics match exactly.
type ListQuizzesByTopic struct {
	UserID string `json:"userId"`
	Topic  string `json:"topic"`
}

func (ListQuizzesByTopic) Kind() Kind { return KindQuizGetByTopic }

func (a ListQuizzesByTopic) Owner() string { return a.UserID }

func (a ListQuizzesByTopic) run(ctx context.Context, r *Router) ([]student.QuizAttempt, string, error) {
	if err := checkUserID(a.UserID); err != nil {
		return nil, "", err
	}
	quizzes, err := queryAll[student.QuizAttempt](ctx, r, student.QuizzesRef(a.UserID),
		docstore.Where("topic", a.Topic))
	if err != nil {
		return nil, "", err
	}
	return quizzes, fmt.Sprintf("Retrieved %d quizzes for topic: %s", len(quizzes), a.Topic), nil
}

func (a ListQuizzesByTopic) serve(ctx context.Context, r *Router) Response[any] {
	return erase(Dispatch[[]student.QuizAttempt](ctx, r, a))
}

// queryAll loads and decodes a collection. The result is never nil.
func queryAll[T any, P interface {
	*T
	student.Identified
}](ctx context.Context, r *Router, coll docstore.CollectionRef, filters ...docstore.Filter) ([]T, error) {
	snaps, err := r.db.Query(ctx, coll, filters...)
	if err != nil {
		return nil, err
	}
	return student.DecodeAll[T, P](snaps)
}
