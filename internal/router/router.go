// Package router is the single entry point for reading and writing student
// data. Every operation is a concrete action type; Dispatch runs it and
// always answers with a Response envelope, never an error or a panic.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/studywise/internal/docstore"
	"github.com/abhisek/studywise/internal/stats"
)

// Kind is the tag of an action.
type Kind string

const (
	KindProfileGet     Kind = "profile.get"
	KindProfileUpsert  Kind = "profile.upsert"
	KindQuizSave       Kind = "quiz.save"
	KindQuizGetAll     Kind = "quiz.getAll"
	KindQuizGetByTopic Kind = "quiz.getByTopic"
	KindLessonSave     Kind = "lesson.save"
	KindLessonGetAll   Kind = "lesson.getAll"
	KindLessonGetLast  Kind = "lesson.getLast"
	KindStatsGet       Kind = "stats.get"
	KindCourseSave     Kind = "course.save"
	KindCourseGetAll   Kind = "course.getAll"
)

// Response is the uniform result of every action.
type Response[T any] struct {
	Success bool
	Data    T
	Error   string
	Message string
}

// MarshalJSON writes {success, data?, error?, message?}. Data is present
// exactly when Success is true.
func (r Response[T]) MarshalJSON() ([]byte, error) {
	type wire struct {
		Success bool   `json:"success"`
		Data    any    `json:"data,omitempty"`
		Error   string `json:"error,omitempty"`
		Message string `json:"message,omitempty"`
	}
	w := wire{Success: r.Success, Error: r.Error, Message: r.Message}
	if r.Success {
		w.Data = r.Data
	}
	return json.Marshal(w)
}

// Action is an operation returning T. The set of actions is closed: the
// interface can only be implemented inside this package.
type Action[T any] interface {
	Kind() Kind
	run(ctx context.Context, r *Router) (T, string, error)
}

// Request is an action with its result type erased, as produced by Decode
// for transports that carry JSON.
type Request interface {
	Kind() Kind
	// Owner is the user whose data the action touches.
	Owner() string
	serve(ctx context.Context, r *Router) Response[any]
}

// Router dispatches actions against the document store.
type Router struct {
	db     docstore.DB
	stats  *stats.Aggregator
	logger *zap.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger failures are reported on.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Router. agg maintains the stats summary that quiz.save
// updates and stats.get reads.
func New(db docstore.DB, agg *stats.Aggregator, opts ...Option) *Router {
	r := &Router{db: db, stats: agg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch runs a and wraps its outcome in a Response.
func Dispatch[T any](ctx context.Context, r *Router, a Action[T]) (resp Response[T]) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("router action panicked",
				zap.String("action", string(a.Kind())), zap.Any("panic", p))
			resp = Response[T]{Error: fmt.Sprint(p)}
		}
	}()

	data, msg, err := a.run(ctx, r)
	if err != nil {
		var nf *notFoundError
		if errors.As(err, &nf) {
			r.logger.Debug("router lookup empty", zap.String("action", string(a.Kind())))
		} else {
			r.logger.Warn("router action failed",
				zap.String("action", string(a.Kind())), zap.Error(err))
		}
		return Response[T]{Error: err.Error()}
	}
	return Response[T]{Success: true, Data: data, Message: msg}
}

// Serve dispatches a decoded request.
func (r *Router) Serve(ctx context.Context, req Request) Response[any] {
	return req.serve(ctx, r)
}

func erase[T any](resp Response[T]) Response[any] {
	return Response[any]{
		Success: resp.Success,
		Data:    resp.Data,
		Error:   resp.Error,
		Message: resp.Message,
	}
}

// notFoundError marks a singular lookup that found nothing. Callers treat
// it as an empty state, not a failure.
type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string { return e.msg }

var errUserIDRequired = errors.New("userId is required")

// checkUserID rejects ids that would not name exactly one document under
// students/ and users/.
func checkUserID(uid string) error {
	if uid == "" {
		return errUserIDRequired
	}
	if strings.Contains(uid, "/") {
		return fmt.Errorf("invalid userId %q: must not contain '/'", uid)
	}
	return nil
}
