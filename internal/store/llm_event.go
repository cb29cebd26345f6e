package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// EventRepository implements EventRepo on the llm_request_events table and
// adds the read side used by the inspection commands.
type EventRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ EventRepo = (*EventRepository)(nil)

const llmEventsTable = "llm_request_events"

var llmEventColumns = []string{
	"id", "timestamp", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success",
	"error_message", "request_body", "response_body",
}

func (r *EventRepository) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *EventRepository) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(llmEventsTable).
		Columns(llmEventColumns[1:]...).
		Values(
			r.clock().UTC().UnixNano(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// QueryLLMEvents returns events newest first.
func (r *EventRepository) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error) {
	t := entsql.Table(llmEventsTable)
	sel := entsql.Dialect(dialect.SQLite).
		Select(llmEventColumns...).
		From(t).
		OrderBy(entsql.Desc("id"))

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("id", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("id", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UTC().UnixNano()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UTC().UnixNano()))
	}
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var records []LLMEventRecord
	for rows.Next() {
		rec, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// GetLLMEvent returns the event with the given id, or nil if none exists.
func (r *EventRepository) GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(llmEventColumns...).
		From(entsql.Table(llmEventsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	rec, err := scanLLMEvent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return rec, nil
}

// LLMUsageByPurpose aggregates calls and tokens per purpose.
func (r *EventRepository) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.usageBy(ctx, "purpose")
}

// LLMUsageByModel aggregates calls and tokens per model.
func (r *EventRepository) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usageBy(ctx, "model")
}

func (r *EventRepository) usageBy(ctx context.Context, column string) ([]LLMUsage, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(
			column,
			entsql.Count("*"),
			entsql.Sum("input_tokens"),
			entsql.Sum("output_tokens"),
			entsql.Sum("latency_ms"),
		).
		From(entsql.Table(llmEventsTable)).
		GroupBy(column).
		OrderBy(column).
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by %s: %w", column, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var (
			key          string
			u            LLMUsage
			latencyTotal int64
		)
		if err := rows.Scan(&key, &u.Calls, &u.InputTokens, &u.OutputTokens, &latencyTotal); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		if column == "purpose" {
			u.Purpose = key
		} else {
			u.Model = key
		}
		if u.Calls > 0 {
			u.AvgLatencyMs = latencyTotal / int64(u.Calls)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLLMEvent(s scanner) (*LLMEventRecord, error) {
	var (
		rec LLMEventRecord
		ts  int64
	)
	err := s.Scan(
		&rec.ID, &ts, &rec.Provider, &rec.Model, &rec.Purpose,
		&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs, &rec.Success,
		&rec.ErrorMessage, &rec.RequestBody, &rec.ResponseBody,
	)
	if err != nil {
		return nil, err
	}
	rec.Timestamp = time.Unix(0, ts).UTC()
	return &rec, nil
}
