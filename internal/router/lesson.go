package router

import (
	"context"
	"fmt"

	"github.com/abhisek/studywise/internal/docstore"
	"github.com/abhisek/studywise/internal/student"
)

// SaveLesson is lesson.save. There is one lesson document per topic: saving
// a topic that already has one overwrites it in place.
type SaveLesson struct {
	Data student.LessonProgress `json:"data"`
}

func (SaveLesson) Kind() Kind { return KindLessonSave }

func (a SaveLesson) Owner() string { return a.Data.UserID }

func (a SaveLesson) run(ctx context.Context, r *Router) (*student.LessonProgress, string, error) {
	l := a.Data
	if err := checkUserID(l.UserID); err != nil {
		return nil, "", err
	}
	l.ID = ""
	fields, err := docstore.ToFields(l)
	if err != nil {
		return nil, "", err
	}
	fields["lastAccessed"] = docstore.ServerTimestamp

	coll := student.LessonsRef(l.UserID)
	existing, err := r.db.Query(ctx, coll, docstore.Where("topic", l.Topic))
	if err != nil {
		return nil, "", fmt.Errorf("failed to save lesson progress: %w", err)
	}

	var ref docstore.DocRef
	if len(existing) > 0 {
		ref = existing[0].Ref
		err = r.db.Update(ctx, ref, fields)
	} else {
		ref, err = r.db.Add(ctx, coll, fields)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to save lesson progress: %w", err)
	}

	snap, err := r.db.Get(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	stored, err := student.Decode[student.LessonProgress](snap)
	if err != nil {
		return nil, "", err
	}
	return &stored, "Lesson progress saved successfully", nil
}

func (a SaveLesson) serve(ctx context.Context, r *Router) Response[any] {
	return erase(Dispatch[*student.LessonProgress](ctx, r, a))
}

// ListLessons is lesson.getAll.
type ListLessons struct {
	UserID string `json:"userId"`
}

func (ListLessons) Kind() Kind { return KindLessonGetAll }

func (a ListLessons) Owner() string { return a.UserID }

func (a ListLessons) run(ctx context.Context, r *Router) ([]student.LessonProgress, string, error) {
	if err := checkUserID(a.UserID); err != nil {
		return nil, "", err
	}
	lessons, err := queryAll[student.LessonProgress](ctx, r, student.LessonsRef(a.UserID))
	if err != nil {
		return nil, "", err
	}
	return lessons, fmt.Sprintf("Retrieved %d lessons", len(lessons)), nil
}

func (a ListLessons) serve(ctx context.Context, r *Router) Response[any] {
	return erase(Dispatch[[]student.LessonProgress](ctx, r, a))
}

// LastLesson is lesson.getLast: the most recently accessed lesson.
type LastLesson struct {
	UserID string `json:"userId"`
}

func (LastLesson) Kind() Kind { return KindLessonGetLast }

func (a LastLesson) Owner() string { return a.UserID }

func (a LastLesson) run(ctx context.Context, r *Router) (*student.LessonProgress, string, error) {
	if err := checkUserID(a.UserID); err != nil {
		return nil, "", err
	}
	lessons, err := queryAll[student.LessonProgress](ctx, r, student.LessonsRef(a.UserID))
	if err != nil {
		return nil, "", err
	}
	if len(lessons) == 0 {
		return nil, "", &notFoundError{msg: "No lessons found"}
	}
	last := lessons[0]
	for _, l := range lessons[1:] {
		if l.LastAccessed.After(last.LastAccessed) {
			last = l
		}
	}
	return &last, "Last lesson retrieved successfully", nil
}

func (a LastLesson) serve(ctx context.Context, r *Router) Response[any] {
	return erase(Dispatch[*student.LessonProgress](ctx, r, a))
}
