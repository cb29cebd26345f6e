package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/studywise/internal/auth"
	"github.com/abhisek/studywise/internal/config"
	"github.com/abhisek/studywise/internal/lessons"
	"github.com/abhisek/studywise/internal/llm"
	"github.com/abhisek/studywise/internal/logger"
	"github.com/abhisek/studywise/internal/router"
	"github.com/abhisek/studywise/internal/session"
	"github.com/abhisek/studywise/internal/stats"
	"github.com/abhisek/studywise/internal/store"
	"github.com/abhisek/studywise/internal/student"
)

var errNotSignedIn = errors.New("not signed in; run `studywise login` first")

// app is everything a command needs, built from configuration.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   *store.Store
	router  *router.Router
	session *session.Store
	// lessons is nil when no LLM provider is configured.
	lessons *lessons.Service
	llmErr  error
}

// loadConfig resolves the configuration, letting --db override the file.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DB = p
	}
	return cfg, nil
}

// openApp opens the store, builds the services and waits for the session
// to learn who is signed in.
func openApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath, store.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	docs := st.Docs()
	r := router.New(docs, stats.New(docs, stats.WithLogger(log)), router.WithLogger(log))

	identity, err := newIdentityProvider(cfg, log)
	if err != nil {
		st.Close()
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  log,
		store:   st,
		router:  r,
		session: session.New(identity, docs, r, session.WithLogger(log)),
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log)
	if err != nil {
		a.llmErr = err
	} else {
		a.lessons = lessons.NewService(provider, lessons.DefaultConfig())
	}

	a.session.Start(ctx)
	if err := a.session.WaitReady(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	a.session.Close()
	a.store.Close()
	_ = a.logger.Sync()
}

func newIdentityProvider(cfg config.Config, log *zap.Logger) (auth.Provider, error) {
	dir, err := cfg.IdentityDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	switch cfg.Auth.Provider {
	case "", "demo":
		return auth.NewDemoProvider(dir)
	case "google":
		return auth.NewGoogleProvider(dir, auth.GoogleConfig{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			Prompt: func(url string) error {
				fmt.Fprintf(os.Stderr, "Open this link in your browser to sign in:\n\n  %s\n\n", url)
				return nil
			},
			Logger: log,
		})
	default:
		return nil, fmt.Errorf("unknown auth provider: %q", cfg.Auth.Provider)
	}
}

// user returns the signed-in identity.
func (a *app) user() (*student.Identity, error) {
	if u := a.session.Snapshot().User; u != nil {
		return u, nil
	}
	return nil, errNotSignedIn
}

// tutor returns the generation service or explains why there is none.
func (a *app) tutor() (*lessons.Service, error) {
	if a.lessons == nil {
		return nil, fmt.Errorf("LLM provider not configured: %w", a.llmErr)
	}
	return a.lessons, nil
}

// tutorError is a generation failure with advice on what to do about it.
type tutorError struct{ err error }

func (e *tutorError) Error() string { return e.err.Error() + "\n" + llm.Describe(e.err) }

func (e *tutorError) Unwrap() error { return e.err }

func tutorFailed(err error) error {
	if err == nil {
		return nil
	}
	return &tutorError{err: err}
}

// withApp runs fn with an opened app and closes it afterwards.
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd.Context(), a, args)
	}
}

// check turns a failed router response into an error.
func check[T any](resp router.Response[T]) (T, error) {
	if !resp.Success {
		var zero T
		return zero, errors.New(resp.Error)
	}
	return resp.Data, nil
}

// checkSave is check for writes, reporting a failure as a failed save.
func checkSave[T any](what string, resp router.Response[T]) (T, error) {
	v, err := check(resp)
	if err != nil {
		return v, fmt.Errorf("could not save your %s: %w", what, err)
	}
	return v, nil
}
