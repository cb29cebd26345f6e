package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TableName is the SQL table documents are stored in.
const TableName = "documents"

// SQLite implements DB on a single SQLite table. Each row holds one document
// keyed by its full path, with the parent collection path indexed for
// queries.
type SQLite struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
	hub    *hub
}

var _ DB = (*SQLite)(nil)

// Option configures a SQLite document store.
type Option func(*SQLite)

// WithClock sets the clock used to resolve ServerTimestamp and to stamp
// create/update times.
func WithClock(now func() time.Time) Option {
	return func(s *SQLite) { s.now = now }
}

// WithLogger sets the logger used for watch delivery failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *SQLite) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSQLite wraps db, which must already contain the documents table.
func NewSQLite(db *sql.DB, opts ...Option) *SQLite {
	s := &SQLite{
		db:     db,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub(s)
	return s
}

// Close stops all active watches. It does not close the database.
func (s *SQLite) Close() {
	s.hub.close()
}

func (s *SQLite) Get(ctx context.Context, ref DocRef) (*Snapshot, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, s.db, ref)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	return snap, nil
}

func (s *SQLite) Set(ctx context.Context, ref DocRef, data Fields, opts ...SetOption) error {
	if err := ref.validate(); err != nil {
		return err
	}
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.load(ctx, tx, ref)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		next := resolve(data, now)
		if o.merge && cur.Exists {
			next = mergeFields(cur.Data, next)
		}
		return s.write(ctx, tx, ref, cur, next, now)
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", ref, err)
	}
	s.hub.changed(ref.path)
	return nil
}

func (s *SQLite) Update(ctx context.Context, ref DocRef, data Fields) error {
	if err := ref.validate(); err != nil {
		return err
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.load(ctx, tx, ref)
		if err != nil {
			return err
		}
		if !cur.Exists {
			return ErrNotFound
		}
		now := s.now().UTC()
		next := cur.Data
		for k, v := range resolve(data, now) {
			next[k] = v
		}
		return s.write(ctx, tx, ref, cur, next, now)
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", ref, err)
	}
	s.hub.changed(ref.path)
	return nil
}

func (s *SQLite) Add(ctx context.Context, coll CollectionRef, data Fields) (DocRef, error) {
	if err := coll.validate(); err != nil {
		return DocRef{}, err
	}
	ref := coll.Doc(uuid.NewString())
	now := s.now().UTC()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return s.write(ctx, tx, ref, &Snapshot{Ref: ref}, resolve(data, now), now)
	})
	if err != nil {
		return DocRef{}, fmt.Errorf("add to %s: %w", coll, err)
	}
	s.hub.changed(ref.path)
	return ref, nil
}

func (s *SQLite) Query(ctx context.Context, coll CollectionRef, filters ...Filter) ([]*Snapshot, error) {
	if err := coll.validate(); err != nil {
		return nil, err
	}
	preds := []*entsql.Predicate{entsql.EQ("parent", coll.path)}
	for _, f := range filters {
		v, err := filterValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("query %s: filter %s: %w", coll, f.Field, err)
		}
		preds = append(preds, entsql.ExprP("json_extract(data, ?) = ?", jsonPath(f.Field), v))
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Select("path", "data", "create_time", "update_time").
		From(entsql.Table(TableName)).
		Where(entsql.And(preds...)).
		OrderBy("id").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", coll, err)
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		var (
			path             string
			raw              string
			created, updated int64
		)
		if err := rows.Scan(&path, &raw, &created, &updated); err != nil {
			return nil, fmt.Errorf("query %s: scan: %w", coll, err)
		}
		snap, err := decodeSnapshot(DocRef{path: path}, raw, created, updated)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", coll, err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", coll, err)
	}
	return out, nil
}

func (s *SQLite) Watch(ref DocRef, fn func(*Snapshot)) (func(), error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	return s.hub.watch(ref, fn), nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLite) load(ctx context.Context, q querier, ref DocRef) (*Snapshot, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("data", "create_time", "update_time").
		From(entsql.Table(TableName)).
		Where(entsql.EQ("path", ref.path)).
		Query()

	var (
		raw              string
		created, updated int64
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(&raw, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return &Snapshot{Ref: ref}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(ref, raw, created, updated)
}

func (s *SQLite) write(ctx context.Context, tx *sql.Tx, ref DocRef, cur *Snapshot, data Fields, now time.Time) error {
	if data == nil {
		data = Fields{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	b := entsql.Dialect(dialect.SQLite)
	var (
		query string
		args  []any
	)
	if cur.Exists {
		query, args = b.Update(TableName).
			Set("data", string(raw)).
			Set("update_time", now.UnixNano()).
			Where(entsql.EQ("path", ref.path)).
			Query()
	} else {
		query, args = b.Insert(TableName).
			Columns("path", "parent", "data", "create_time", "update_time").
			Values(ref.path, ref.Parent().path, string(raw), now.UnixNano(), now.UnixNano()).
			Query()
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func decodeSnapshot(ref DocRef, raw string, created, updated int64) (*Snapshot, error) {
	var data Fields
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	if data == nil {
		data = Fields{}
	}
	return &Snapshot{
		Ref:        ref,
		Exists:     true,
		Data:       data,
		CreateTime: time.Unix(0, created).UTC(),
		UpdateTime: time.Unix(0, updated).UTC(),
	}, nil
}

func jsonPath(field string) string {
	return `$."` + field + `"`
}

// filterValue converts a filter operand into what json_extract yields for
// the same JSON value.
func filterValue(v any) (any, error) {
	switch x := v.(type) {
	case string, int, int32, int64, float32, float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	default:
		return nil, fmt.Errorf("unsupported filter value of type %T", v)
	}
}
