package router

import (
	"context"

	"github.com/abhisek/studywise/internal/student"
)

// GetStats is stats.get. The summary is rebuilt from the attempt history
// when it has never been written.
type GetStats struct {
	UserID string `json:"userId"`
}

func (GetStats) Kind() Kind { return KindStatsGet }

func (a GetStats) Owner() string { return a.UserID }

func (a GetStats) run(ctx context.Context, r *Router) (*student.Stats, string, error) {
	if err := checkUserID(a.UserID); err != nil {
		return nil, "", err
	}
	s, err := r.stats.Get(ctx, a.UserID)
	if err != nil {
		return nil, "", err
	}
	if s == nil {
		return nil, "", &notFoundError{msg: "No statistics found"}
	}
	if s.TopicBreakdown == nil {
		s.TopicBreakdown = []student.TopicMastery{}
	}
	return s, "Student statistics retrieved successfully", nil
}

func (a GetStats) serve(ctx context.Context, r *Router) Response[any] {
	return erase(Dispatch[*student.Stats](ctx, r, a))
}
