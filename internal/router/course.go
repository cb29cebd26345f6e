package router

import (
	"context"
	"fmt"

	"github.com/abhisek/studywise/internal/docstore"
	"github.com/abhisek/studywise/internal/student"
)

// SaveCourse is course.save.
type SaveCourse struct {
	Data student.Course `json:"data"`
}

func (SaveCourse) Kind() Kind { return KindCourseSave }

func (a SaveCourse) Owner() string { return a.Data.UserID }

func (a SaveCourse) run(ctx context.Context, r *Router) (*student.Course, string, error) {
	c := a.Data
	if err := checkUserID(c.UserID); err != nil {
		return nil, "", err
	}
	level, ok := student.ParseLevel(string(c.Level))
	if !ok {
		return nil, "", fmt.Errorf("invalid course level %q", c.Level)
	}
	c.Level = level
	c.ID = ""
	if c.Modules == nil {
		c.Modules = []student.CourseModule{}
	}

	fields, err := docstore.ToFields(c)
	if err != nil {
		return nil, "", err
	}
	fields["createdAt"] = docstore.ServerTimestamp

	ref, err := r.db.Add(ctx, student.CoursesRef(c.UserID), fields)
	if err != nil {
		return nil, "", fmt.Errorf("failed to save course: %w", err)
	}
	snap, err := r.db.Get(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	stored, err := student.Decode[student.Course](snap)
	if err != nil {
		return nil, "", err
	}
	return &stored, "Course saved successfully", nil
}

func (a SaveCourse) serve(ctx context.Context, r *Router) Response[any] {
	return erase(Dispatch[*student.Course](ctx, r, a))
}

// ListCourses is course.getAll.
type ListCourses struct {
	UserID string `json:"userId"`
}

func (ListCourses) Kind() Kind { return KindCourseGetAll }

func (a ListCourses) Owner() string { return a.UserID }

func (a ListCourses) run(ctx context.Context, r *Router) ([]student.Course, string, error) {
	if err := checkUserID(a.UserID); err != nil {
		return nil, "", err
	}
	courses, err := queryAll[student.Course](ctx, r, student.CoursesRef(a.UserID))
	if err != nil {
		return nil, "", err
	}
	return courses, fmt.Sprintf("Retrieved %d courses", len(courses)), nil
}

func (a ListCourses) serve(ctx context.Context, r *Router) Response[any] {
	return erase(Dispatch[[]student.Course](ctx, r, a))
}
