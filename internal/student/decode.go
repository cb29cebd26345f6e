package student

import (
	"fmt"

	"github.com/abhisek/studywise/internal/docstore"
)

// Identified is implemented by the pointer types of records whose id is
// the document id: *QuizAttempt, *LessonProgress and *Course.
type Identified interface {
	setID(id string)
}

func (q *QuizAttempt) setID(id string)    { q.ID = id }
func (l *LessonProgress) setID(id string) { l.ID = id }
func (c *Course) setID(id string)         { c.ID = id }

// Decode converts a stored document into a record, taking the id from the
// document path.
func Decode[T any, P interface {
	*T
	Identified
}](snap *docstore.Snapshot) (T, error) {
	var v T
	if err := snap.DataTo(&v); err != nil {
		return v, err
	}
	P(&v).setID(snap.ID())
	return v, nil
}

// DecodeAll decodes every snapshot, failing on the first bad document.
func DecodeAll[T any, P interface {
	*T
	Identified
}](snaps []*docstore.Snapshot) ([]T, error) {
	out := make([]T, 0, len(snaps))
	for _, s := range snaps {
		v, err := Decode[T, P](s)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.Ref, err)
		}
		out = append(out, v)
	}
	return out, nil
}
