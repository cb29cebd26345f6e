package stats

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/studywise/internal/docstore"
	"github.com/abhisek/studywise/internal/student"
)

// Aggregator keeps students/{uid}/stats/summary in step with the user's
// quiz attempts.
//
// All writes for one user are serialized, so two quiz submissions racing
// for the same user both land in the summary. Cold-start recomputations
// for the same user are collapsed into one.
type Aggregator struct {
	db     docstore.DB
	logger *zap.Logger

	locks  *keyedMutex
	group  singleflight.Group
	failed atomic.Int64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger secondary-write failures are reported on.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Aggregator on db.
func New(db docstore.DB, opts ...Option) *Aggregator {
	a := &Aggregator{
		db:     db,
		logger: zap.NewNop(),
		locks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Get returns the user's summary, recomputing and storing it from the raw
// attempts when no summary document exists yet. It returns (nil, nil) for
// a user with no attempts.
func (a *Aggregator) Get(ctx context.Context, uid string) (*student.Stats, error) {
	s, err := a.load(ctx, uid)
	if err != nil || s != nil {
		return s, err
	}

	v, err, _ := a.group.Do(uid, func() (any, error) {
		unlock := a.locks.Lock(uid)
		defer unlock()

		// Someone may have written the summary while we waited.
		if s, err := a.load(ctx, uid); err != nil || s != nil {
			return s, err
		}
		return a.rebuild(ctx, uid, nil)
	})
	if err != nil {
		return nil, err
	}
	return clone(v.(*student.Stats)), nil
}

// Submit stores a quiz attempt with save and then folds the stored attempt
// into the summary, holding the user's lock across both writes.
//
// Only a failure of save is returned. The summary update is a best-effort
// secondary write: when it fails the attempt stays saved, the failure is
// logged and counted (see SecondaryFailures), and the summary catches up
// on the next rebuild.
func (a *Aggregator) Submit(ctx context.Context, uid string, save func(context.Context) (*student.QuizAttempt, error)) (*student.QuizAttempt, error) {
	unlock := a.locks.Lock(uid)
	defer unlock()

	attempt, err := save(ctx)
	if err != nil {
		return nil, err
	}

	s, err := a.record(ctx, *attempt)
	if err != nil {
		a.secondaryFailed("update stats", uid, err)
		return attempt, nil
	}
	if err := a.mirrorProfile(ctx, s); err != nil {
		a.secondaryFailed("mirror stats to profile", uid, err)
	}
	return attempt, nil
}

// Record folds an already stored attempt into the summary.
func (a *Aggregator) Record(ctx context.Context, attempt student.QuizAttempt) (*student.Stats, error) {
	unlock := a.locks.Lock(attempt.UserID)
	defer unlock()
	return a.record(ctx, attempt)
}

// SecondaryFailures reports how many best-effort summary writes failed
// since the Aggregator was created.
func (a *Aggregator) SecondaryFailures() int64 {
	return a.failed.Load()
}

// record must be called with the user's lock held.
func (a *Aggregator) record(ctx context.Context, attempt student.QuizAttempt) (*student.Stats, error) {
	cur, err := a.load(ctx, attempt.UserID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return a.rebuild(ctx, attempt.UserID, &attempt)
	}

	next := Apply(*cur, attempt)
	if err := a.store(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// rebuild folds the user's whole attempt history into a new summary and
// stores it. extra is folded in too unless the history already holds it.
// It must be called with the user's lock held.
func (a *Aggregator) rebuild(ctx context.Context, uid string, extra *student.QuizAttempt) (*student.Stats, error) {
	snaps, err := a.db.Query(ctx, student.QuizzesRef(uid))
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	attempts, err := student.DecodeAll[student.QuizAttempt](snaps)
	if err != nil {
		return nil, err
	}
	if extra != nil && !slices.ContainsFunc(attempts, func(q student.QuizAttempt) bool {
		return extra.ID != "" && q.ID == extra.ID
	}) {
		attempts = append(attempts, *extra)
	}

	s := Recompute(uid, attempts)
	if s == nil {
		return nil, nil
	}
	if err := a.store(ctx, s); err != nil {
		return nil, err
	}
	a.logger.Debug("stats rebuilt from attempts",
		zap.String("uid", uid), zap.Int("attempts", len(attempts)))
	return s, nil
}

func (a *Aggregator) load(ctx context.Context, uid string) (*student.Stats, error) {
	snap, err := a.db.Get(ctx, student.StatsRef(uid))
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	if !snap.Exists {
		return nil, nil
	}
	var s student.Stats
	if err := snap.DataTo(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// store overwrites the summary document.
func (a *Aggregator) store(ctx context.Context, s *student.Stats) error {
	fields, err := docstore.ToFields(s)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := a.db.Set(ctx, student.StatsRef(s.UserID), fields); err != nil {
		return fmt.Errorf("store stats: %w", err)
	}
	return nil
}

func (a *Aggregator) mirrorProfile(ctx context.Context, s *student.Stats) error {
	if s == nil {
		return nil
	}
	err := a.db.Update(ctx, student.ProfileRef(s.UserID), docstore.Fields{
		"totalQuizzesTaken": s.TotalQuizzesTaken,
		"averageScore":      s.AverageScore,
		"streak":            s.Streak,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	return err
}

func (a *Aggregator) secondaryFailed(what, uid string, err error) {
	a.failed.Add(1)
	a.logger.Warn("secondary write failed; quiz attempt kept",
		zap.String("op", what),
		zap.String("uid", uid),
		zap.Error(err),
	)
}

func clone(s *student.Stats) *student.Stats {
	if s == nil {
		return nil
	}
	c := *s
	c.TopicBreakdown = slices.Clone(s.TopicBreakdown)
	return &c
}
