package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"go.uber.org/zap"

	"github.com/abhisek/studywise/internal/docstore"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store owns the SQLite handle and hands out the repositories built on it.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver

	docsOnce sync.Once
	docs     *docstore.SQLite
	docOpts  []docstore.Option
}

// Option configures Open.
type Option func(*Store)

// WithDocOptions passes options through to the document store.
func WithDocOptions(opts ...docstore.Option) Option {
	return func(s *Store) { s.docOpts = append(s.docOpts, opts...) }
}

// WithLogger sets the logger used by the document store.
func WithLogger(l *zap.Logger) Option {
	return WithDocOptions(docstore.WithLogger(l))
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers anyway; a single connection keeps in-memory
	// databases alive and avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	s := &Store{db: db, drv: drv}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Docs returns the document database backed by this store.
func (s *Store) Docs() *docstore.SQLite {
	s.docsOnce.Do(func() {
		s.docs = docstore.NewSQLite(s.db, s.docOpts...)
	})
	return s.docs
}

// EventRepo returns the LLM event repository backed by this store.
func (s *Store) EventRepo() *EventRepository {
	return &EventRepository{db: s.db}
}

// Close stops document watchers and closes the database connection.
func (s *Store) Close() error {
	if s.docs != nil {
		s.docs.Close()
	}
	return s.drv.Close()
}

// withPragmas adds per-connection pragmas to the DSN so every pooled
// connection gets them, not only the one applyPragmas ran on.
func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DataDir resolves the application data directory in priority order:
// 1. $XDG_DATA_HOME/studywise
// 2. ~/.local/share/studywise
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "studywise"), nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. STUDYWISE_DB environment variable
// 2. $XDG_DATA_HOME/studywise/studywise.db
// 3. ~/.local/share/studywise/studywise.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("STUDYWISE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "studywise.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
