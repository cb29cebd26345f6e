package auth

import (
	"context"
	"time"

	"github.com/abhisek/studywise/internal/student"
)

// DemoUser is the identity the demo provider signs in.
var DemoUser = student.Identity{
	UID:         "demo-user-12345",
	DisplayName: "Demo User",
	Email:       "demo@studywise.local",
}

// DemoProvider signs in DemoUser without contacting any service.
type DemoProvider struct {
	*identityState
	delay time.Duration
}

// DemoOption configures a DemoProvider.
type DemoOption func(*DemoProvider)

// WithDelay sets the simulated sign-in latency.
func WithDelay(d time.Duration) DemoOption {
	return func(p *DemoProvider) { p.delay = d }
}

// NewDemoProvider returns a demo provider persisting its identity under
// dir.
func NewDemoProvider(dir string, opts ...DemoOption) (*DemoProvider, error) {
	state, err := newIdentityState(dir)
	if err != nil {
		return nil, err
	}
	p := &DemoProvider{identityState: state, delay: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *DemoProvider) SignIn(ctx context.Context) (*student.Identity, error) {
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
	}

	id := DemoUser
	if err := p.set(&id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (p *DemoProvider) SignOut(context.Context) error {
	return p.set(nil)
}
