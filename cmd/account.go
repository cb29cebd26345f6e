package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/studywise/internal/httpapi"
	"github.com/abhisek/studywise/internal/router"
	"github.com/abhisek/studywise/internal/session"
	"github.com/abhisek/studywise/internal/student"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		if err := a.session.SignIn(ctx); err != nil {
			return err
		}
		u, err := a.user()
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s", displayName(u))
		if u.Email != "" {
			fmt.Printf(" <%s>", u.Email)
		}
		fmt.Println()
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		if a.session.Snapshot().User == nil {
			fmt.Println("Not signed in.")
			return nil
		}
		a.session.SignOut(ctx)
		fmt.Println("Signed out.")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and credit balance",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.user()
		if err != nil {
			return err
		}
		st := waitForCredits(ctx, a.session, 2*time.Second)

		fmt.Printf("User:     %s\n", displayName(u))
		fmt.Printf("UID:      %s\n", u.UID)
		if u.Email != "" {
			fmt.Printf("Email:    %s\n", u.Email)
		}
		fmt.Printf("Credits:  %d\n", st.Credits)

		p, err := check(router.Dispatch[*student.Profile](ctx, a.router, router.GetProfile{UserID: u.UID}))
		if err == nil {
			fmt.Printf("Streak:   %d day(s)\n", p.Streak)
			fmt.Printf("Quizzes:  %d (avg %d%%)\n", p.TotalQuizzesTaken, p.AverageScore)
		}
		return nil
	}),
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for `studywise serve`",
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		u, err := a.user()
		if err != nil {
			return err
		}
		ttl := a.cfg.Server.TokenTTL
		if tokenTTL > 0 {
			ttl = tokenTTL
		}
		tok, err := httpapi.IssueToken([]byte(a.cfg.Server.JWTSecret), u.UID, ttl, time.Now())
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Println(tok)
		return nil
	}),
}

var tokenTTL time.Duration

// waitForCredits returns the session state once the live account document
// has reported a balance, or the current state after timeout.
func waitForCredits(ctx context.Context, s *session.Store, timeout time.Duration) session.State {
	ch := make(chan session.State, 1)
	cancel := s.Subscribe(func(st session.State) {
		if st.Credits > 0 {
			select {
			case ch <- st:
			default:
			}
		}
	})
	defer cancel()

	if st := s.Snapshot(); st.Credits > 0 {
		return st
	}
	ctx, stop := context.WithTimeout(ctx, timeout)
	defer stop()
	select {
	case st := <-ch:
		return st
	case <-ctx.Done():
		return s.Snapshot()
	}
}

func displayName(u *student.Identity) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return u.UID
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default from config, 24h)")
}
