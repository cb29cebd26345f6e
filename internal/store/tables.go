package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/abhisek/studywise/internal/docstore"
)

// blob is the column size ent maps to SQLite's unbounded TEXT.
const blob = 2147483647

// documents holds one row per stored document. parent is the path of the
// owning collection, so listing a collection is an indexed equality match.
var documentCols = []*schema.Column{
	{Name: "id", Type: field.TypeInt, Increment: true},
	{Name: "path", Type: field.TypeString, Unique: true},
	{Name: "parent", Type: field.TypeString},
	{Name: "data", Type: field.TypeString, Size: blob},
	{Name: "create_time", Type: field.TypeInt64},
	{Name: "update_time", Type: field.TypeInt64},
}

// llm_request_events is written by the logging provider and read by
// `studywise llm`.
var eventCols = []*schema.Column{
	{Name: "id", Type: field.TypeInt, Increment: true},
	{Name: "timestamp", Type: field.TypeInt64},
	{Name: "provider", Type: field.TypeString},
	{Name: "model", Type: field.TypeString},
	{Name: "purpose", Type: field.TypeString},
	{Name: "input_tokens", Type: field.TypeInt, Default: 0},
	{Name: "output_tokens", Type: field.TypeInt, Default: 0},
	{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
	{Name: "success", Type: field.TypeBool},
	{Name: "error_message", Type: field.TypeString, Default: ""},
	{Name: "request_body", Type: field.TypeString, Size: blob, Default: ""},
	{Name: "response_body", Type: field.TypeString, Size: blob, Default: ""},
}

// table declares a table keyed by its first column with a single-column
// index named prefix_col for each indexed column. The prefixes match the
// index names databases created by earlier releases already carry.
func table(name, prefix string, cols []*schema.Column, indexed ...string) *schema.Table {
	t := &schema.Table{Name: name, Columns: cols, PrimaryKey: cols[:1]}
	for _, col := range indexed {
		for _, c := range cols {
			if c.Name == col {
				t.Indexes = append(t.Indexes, &schema.Index{
					Name:    prefix + "_" + col,
					Columns: []*schema.Column{c},
				})
			}
		}
	}
	return t
}

// tables is everything Open migrates.
var tables = []*schema.Table{
	table(docstore.TableName, "document", documentCols, "parent"),
	table(llmEventsTable, "llmrequestevent", eventCols, "timestamp", "provider", "purpose"),
}
