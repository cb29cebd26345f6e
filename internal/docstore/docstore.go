// Package docstore is a small hierarchical document database.
//
// Documents live at slash-separated paths of the form
// collection/id/subcollection/id. Each document holds a JSON object. The
// operations mirror what the application needs from a document store: get by
// id, set (optionally merging), update existing fields, add with a generated
// id, equality queries within a collection, and live subscriptions on a
// single document.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Update when the target document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrInvalidPath is returned when a reference has the wrong shape.
var ErrInvalidPath = errors.New("invalid document path")

// Fields is the content of a document.
type Fields map[string]any

type sentinel struct{ name string }

// ServerTimestamp may be used as a field value on writes. The store replaces
// it with its own clock reading at the time the write is applied.
var ServerTimestamp = sentinel{name: "serverTimestamp"}

// DB is the document database consumed by the rest of the application.
type DB interface {
	// Get returns the document at ref. A missing document is reported as a
	// snapshot with Exists == false, not as an error.
	Get(ctx context.Context, ref DocRef) (*Snapshot, error)

	// Set writes data at ref, creating the document if needed. Without
	// Merge the previous content is replaced; with Merge nested objects are
	// merged key by key.
	Set(ctx context.Context, ref DocRef, data Fields, opts ...SetOption) error

	// Update replaces the given top-level fields of an existing document.
	// It returns ErrNotFound when the document is absent.
	Update(ctx context.Context, ref DocRef, data Fields) error

	// Add creates a new document with a generated id inside coll.
	Add(ctx context.Context, coll CollectionRef, data Fields) (DocRef, error)

	// Query returns the documents directly inside coll whose fields equal
	// every filter, in insertion order.
	Query(ctx context.Context, coll CollectionRef, filters ...Filter) ([]*Snapshot, error)

	// Watch calls fn with the current snapshot of ref and again after every
	// change to it. The returned func stops the subscription; it is safe to
	// call more than once.
	Watch(ref DocRef, fn func(*Snapshot)) (func(), error)
}

// SetOption configures Set.
type SetOption func(*setOptions)

type setOptions struct {
	merge bool
}

// Merge makes Set merge data into the existing document instead of
// replacing it.
func Merge() SetOption {
	return func(o *setOptions) { o.merge = true }
}

// Filter is an equality condition on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Where builds an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Snapshot is the state of one document at read time.
type Snapshot struct {
	Ref        DocRef
	Exists     bool
	Data       Fields
	CreateTime time.Time
	UpdateTime time.Time
}

// ID returns the last path segment of the document.
func (s *Snapshot) ID() string {
	return s.Ref.ID()
}

// DataTo decodes the document into v, which must be a pointer to a struct
// or map with JSON tags.
func (s *Snapshot) DataTo(v any) error {
	if !s.Exists {
		return fmt.Errorf("decode %s: %w", s.Ref, ErrNotFound)
	}
	b, err := json.Marshal(s.Data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.Ref, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", s.Ref, err)
	}
	return nil
}

// ToFields converts a JSON-tagged value into Fields.
func ToFields(v any) (Fields, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var f Fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("value of type %T is not an object", v)
	}
	return f, nil
}
