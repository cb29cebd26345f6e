// Package session holds the signed-in user's application state: identity,
// live credit balance, loading flag and the last generated lesson.
//
// A Store is created once per process and passed to whatever needs it.
// State changes only through its methods, and subscribers are told about
// every change.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/studywise/internal/auth"
	"github.com/abhisek/studywise/internal/docstore"
	"github.com/abhisek/studywise/internal/router"
	"github.com/abhisek/studywise/internal/student"
)

// State is a point-in-time copy of the session.
type State struct {
	User       *student.Identity
	Credits    int
	Loading    bool
	LessonText string
}

// Store is the session state container.
type Store struct {
	auth   auth.Provider
	db     docstore.DB
	router *router.Router
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	signingIn int
	unwatch   func()
	subs      map[int]func(State)
	nextSub   int

	startOnce sync.Once
	unsubAuth func()
	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store. It starts in the loading state until Start has
// received the provider's first identity report.
func New(p auth.Provider, db docstore.DB, r *router.Router, opts ...Option) *Store {
	s := &Store{
		auth:   p,
		db:     db,
		router: r,
		logger: zap.NewNop(),
		state:  State{Loading: true},
		subs:   map[int]func(State){},
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to the identity provider. Calling it again is a no-op.
func (s *Store) Start(context.Context) {
	s.startOnce.Do(func() {
		unsub := s.auth.OnChange(s.SetUser)
		s.mu.Lock()
		s.unsubAuth = unsub
		s.mu.Unlock()
	})
}

// WaitReady blocks until the provider has reported the initial identity.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SignIn runs the provider's sign-in flow. The identity itself arrives
// through the provider's change notification; SignIn then makes sure the
// user's account and profile documents exist.
func (s *Store) SignIn(ctx context.Context) error {
	s.update(func(st *State) {
		s.signingIn++
		st.Loading = true
	})
	defer s.update(func(st *State) {
		s.signingIn--
		st.Loading = s.signingIn > 0
	})

	id, err := s.auth.SignIn(ctx)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := s.ensureAccount(ctx, id); err != nil {
		return err
	}

	resp := router.Dispatch[*student.Profile](ctx, s.router, router.UpsertProfile{Data: student.Profile{
		UserID:      id.UID,
		DisplayName: id.DisplayName,
		Email:       id.Email,
		PhotoURL:    id.PhotoURL,
	}})
	if !resp.Success {
		s.logger.Warn("profile upsert failed after sign-in",
			zap.String("uid", id.UID), zap.String("error", resp.Error))
	}
	return nil
}

// SignOut signs the user out. Local state is cleared even when the
// provider call fails.
func (s *Store) SignOut(ctx context.Context) {
	if err := s.auth.SignOut(ctx); err != nil {
		s.logger.Warn("provider sign-out failed", zap.Error(err))
	}
	s.SetUser(nil)
	s.update(func(st *State) {
		st.Loading = s.signingIn > 0
	})
}

// SetUser switches the session to id, or to signed out when id is nil. The
// live account subscription of the previous user is released first.
func (s *Store) SetUser(id *student.Identity) {
	s.mu.Lock()
	if s.unwatch != nil {
		s.unwatch()
		s.unwatch = nil
	}
	if id != nil {
		c := *id
		s.state.User = &c
	} else {
		s.state.User = nil
	}
	s.state.Credits = 0
	s.state.Loading = s.signingIn > 0

	if id != nil {
		uid := id.UID
		unwatch, err := s.db.Watch(student.AccountRef(uid), func(snap *docstore.Snapshot) {
			s.onAccount(uid, snap)
		})
		if err != nil {
			s.logger.Warn("cannot watch account", zap.String("uid", uid), zap.Error(err))
		} else {
			s.unwatch = unwatch
		}
	}
	st, subs := s.snapshotLocked()
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	notify(subs, st)
}

// SetLessonText stores the most recently generated lesson. An empty text
// clears it.
func (s *Store) SetLessonText(text string) {
	s.update(func(st *State) { st.LessonText = text })
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, _ := s.snapshotLocked()
	return st
}

// Subscribe calls fn after every state change until cancel is called.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, key)
			s.mu.Unlock()
		})
	}
}

// Close releases the provider and account subscriptions.
func (s *Store) Close() {
	s.mu.Lock()
	unsubAuth, unwatch := s.unsubAuth, s.unwatch
	s.unsubAuth, s.unwatch = nil, nil
	s.mu.Unlock()

	if unsubAuth != nil {
		unsubAuth()
	}
	if unwatch != nil {
		unwatch()
	}
}

func (s *Store) onAccount(uid string, snap *docstore.Snapshot) {
	var acc student.Account
	if snap.Exists {
		if err := snap.DataTo(&acc); err != nil {
			s.logger.Warn("cannot decode account", zap.String("uid", uid), zap.Error(err))
			return
		}
	}

	s.mu.Lock()
	if s.state.User == nil || s.state.User.UID != uid {
		s.mu.Unlock()
		return
	}
	s.state.Credits = acc.Credits
	st, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, st)
}

// ensureAccount creates users/{uid} with the starting credits, or refreshes
// lastLogin and photoURL when it exists.
func (s *Store) ensureAccount(ctx context.Context, id *student.Identity) error {
	ref := student.AccountRef(id.UID)
	snap, err := s.db.Get(ctx, ref)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	if snap.Exists {
		err := s.db.Update(ctx, ref, docstore.Fields{
			"lastLogin": docstore.ServerTimestamp,
			"photoURL":  id.PhotoURL,
		})
		if err == nil || !errors.Is(err, docstore.ErrNotFound) {
			return wrapAccountErr(err)
		}
	}

	return wrapAccountErr(s.db.Set(ctx, ref, docstore.Fields{
		"displayName":        id.DisplayName,
		"email":              id.Email,
		"photoURL":           id.PhotoURL,
		"credits":            student.StartingCredits,
		"friends":            []string{},
		"createdAt":          docstore.ServerTimestamp,
		"lastLogin":          docstore.ServerTimestamp,
		"totalQuizzesTaken":  0,
		"totalCreditsEarned": 0,
	}))
}

func wrapAccountErr(err error) error {
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	st, subs := s.snapshotLocked()
	s.mu.Unlock()
	notify(subs, st)
}

func (s *Store) snapshotLocked() (State, []func(State)) {
	st := s.state
	if st.User != nil {
		c := *st.User
		st.User = &c
	}
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return st, subs
}

func notify(subs []func(State), st State) {
	for _, fn := range subs {
		fn(st)
	}
}
