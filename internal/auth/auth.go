// Package auth signs users in and reports identity changes.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/abhisek/studywise/internal/student"
)

// Provider is an identity provider.
type Provider interface {
	// SignIn runs the provider's sign-in flow. Subscribers registered with
	// OnChange are notified of the new identity before SignIn returns.
	SignIn(ctx context.Context) (*student.Identity, error)

	// SignOut forgets the current identity.
	SignOut(ctx context.Context) error

	// OnChange registers fn for identity changes. fn is called once right
	// away with the current identity (nil when signed out).
	OnChange(fn func(*student.Identity)) (unsubscribe func())
}

// ErrSignInCancelled is returned when the user abandons a sign-in flow.
var ErrSignInCancelled = errors.New("sign-in cancelled")

const identityFile = "identity.json"

// identityState holds the signed-in identity, persists it under dir and
// fans changes out to subscribers. An empty dir keeps it in memory only.
type identityState struct {
	dir string

	mu      sync.Mutex
	current *student.Identity
	subs    map[int]func(*student.Identity)
	nextSub int
}

func newIdentityState(dir string) (*identityState, error) {
	s := &identityState{dir: dir, subs: map[int]func(*student.Identity){}}
	if dir == "" {
		return s, nil
	}
	b, err := os.ReadFile(filepath.Join(dir, identityFile))
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}
	var id student.Identity
	if err := json.Unmarshal(b, &id); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	if id.UID != "" {
		s.current = &id
	}
	return s, nil
}

func (s *identityState) get() *student.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyIdentity(s.current)
}

// set persists id (nil clears it) and notifies subscribers.
func (s *identityState) set(id *student.Identity) error {
	if err := s.persist(id); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = copyIdentity(id)
	fns := make([]func(*student.Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(copyIdentity(id))
	}
	return nil
}

func (s *identityState) persist(id *student.Identity) error {
	if s.dir == "" {
		return nil
	}
	path := filepath.Join(s.dir, identityFile)
	if id == nil {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove identity: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	b, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	return nil
}

func (s *identityState) OnChange(fn func(*student.Identity)) func() {
	s.mu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = fn
	cur := copyIdentity(s.current)
	s.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, key)
			s.mu.Unlock()
		})
	}
}

func copyIdentity(id *student.Identity) *student.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
