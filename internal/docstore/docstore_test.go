package docstore_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studywise/internal/docstore"
	"github.com/abhisek/studywise/internal/store"
)

var fixedNow = time.Date(2026, 5, 4, 12, 30, 0, 0, time.UTC)

func openDocs(t *testing.T) *docstore.SQLite {
	t.Helper()
	s, err := store.Open(
		fmt.Sprintf("file:docs_%s?mode=memory&cache=shared", t.Name()),
		store.WithDocOptions(docstore.WithClock(func() time.Time { return fixedNow })),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.Docs()
}

func TestRefs(t *testing.T) {
	d := docstore.Doc("students", "u1", "stats", "summary")
	assert.Equal(t, "students/u1/stats/summary", d.String())
	assert.Equal(t, "summary", d.ID())
	assert.Equal(t, "students/u1/stats", d.Parent().String())

	c := docstore.Doc("students", "u1").Collection("quizzes")
	assert.Equal(t, "students/u1/quizzes", c.String())
	assert.Equal(t, "students/u1/quizzes/q9", c.Doc("q9").String())
}

func TestInvalidPaths(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"doc with odd segments", func() error {
			_, err := db.Get(ctx, docstore.Doc("students"))
			return err
		}},
		{"doc with empty segment", func() error {
			_, err := db.Get(ctx, docstore.Doc("students", ""))
			return err
		}},
		{"collection with even segments", func() error {
			_, err := db.Add(ctx, docstore.Collection("students", "u1"), docstore.Fields{})
			return err
		}},
		{"query on empty collection path", func() error {
			_, err := db.Query(ctx, docstore.Collection())
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), docstore.ErrInvalidPath)
		})
	}
}

func TestGetMissing(t *testing.T) {
	db := openDocs(t)
	snap, err := db.Get(context.Background(), docstore.Doc("students", "nobody"))
	require.NoError(t, err)
	assert.False(t, snap.Exists)
	assert.Equal(t, "nobody", snap.ID())

	var v map[string]any
	assert.True(t, errors.Is(snap.DataTo(&v), docstore.ErrNotFound))
}

func TestSetGetRoundTrip(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()
	ref := docstore.Doc("students", "u1")

	type profile struct {
		DisplayName string    `json:"displayName"`
		Streak      int       `json:"streak"`
		LastLogin   time.Time `json:"lastLogin"`
	}

	require.NoError(t, db.Set(ctx, ref, docstore.Fields{
		"displayName": "Ada",
		"streak":      3,
		"lastLogin":   docstore.ServerTimestamp,
	}))

	snap, err := db.Get(ctx, ref)
	require.NoError(t, err)
	require.True(t, snap.Exists)
	assert.Equal(t, fixedNow, snap.CreateTime)

	var p profile
	require.NoError(t, snap.DataTo(&p))
	assert.Equal(t, profile{DisplayName: "Ada", Streak: 3, LastLogin: fixedNow}, p)
}

func TestSetReplacesWithoutMerge(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()
	ref := docstore.Doc("users", "u1")

	require.NoError(t, db.Set(ctx, ref, docstore.Fields{"a": 1, "b": 2}))
	require.NoError(t, db.Set(ctx, ref, docstore.Fields{"a": 5}))

	snap, err := db.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, docstore.Fields{"a": float64(5)}, snap.Data)
}

func TestSetMergeIsDeep(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()
	ref := docstore.Doc("users", "u1")

	require.NoError(t, db.Set(ctx, ref, docstore.Fields{
		"credits": 100,
		"prefs":   map[string]any{"theme": "dark", "lang": "en"},
	}))
	require.NoError(t, db.Set(ctx, ref, docstore.Fields{
		"prefs": docstore.Fields{"lang": "de"},
		"email": "a@b.c",
	}, docstore.Merge()))

	snap, err := db.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, docstore.Fields{
		"credits": float64(100),
		"email":   "a@b.c",
		"prefs":   map[string]any{"theme": "dark", "lang": "de"},
	}, snap.Data)
}

func TestSetMergeCreatesMissing(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()
	ref := docstore.Doc("users", "new")

	require.NoError(t, db.Set(ctx, ref, docstore.Fields{"x": "y"}, docstore.Merge()))
	snap, err := db.Get(ctx, ref)
	require.NoError(t, err)
	assert.True(t, snap.Exists)
	assert.Equal(t, "y", snap.Data["x"])
}

func TestUpdate(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()
	ref := docstore.Doc("users", "u1")

	err := db.Update(ctx, ref, docstore.Fields{"credits": 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	require.NoError(t, db.Set(ctx, ref, docstore.Fields{
		"credits": 100,
		"prefs":   map[string]any{"theme": "dark"},
	}))
	require.NoError(t, db.Update(ctx, ref, docstore.Fields{
		"prefs":     map[string]any{"lang": "en"},
		"lastLogin": docstore.ServerTimestamp,
	}))

	snap, err := db.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, float64(100), snap.Data["credits"])
	assert.Equal(t, map[string]any{"lang": "en"}, snap.Data["prefs"], "update replaces top-level fields")
	assert.Equal(t, fixedNow.Format(time.RFC3339Nano), snap.Data["lastLogin"])
}

func TestAddAndQuery(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()
	quizzes := docstore.Collection("students", "u1", "quizzes")

	var ids []string
	for _, q := range []docstore.Fields{
		{"topic": "Kinematics", "score": 4, "passed": true},
		{"topic": "Optics", "score": 2, "passed": false},
		{"topic": "Kinematics", "score": 5, "passed": true},
	} {
		ref, err := db.Add(ctx, quizzes, q)
		require.NoError(t, err)
		assert.Equal(t, quizzes.String(), ref.Parent().String())
		ids = append(ids, ref.ID())
	}
	assert.NotEqual(t, ids[0], ids[1])

	// Documents in other collections and subcollections must not leak in.
	_, err := db.Add(ctx, docstore.Collection("students", "u2", "quizzes"), docstore.Fields{"topic": "Kinematics"})
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, quizzes.Doc(ids[0]).Collection("notes").Doc("n1"), docstore.Fields{"topic": "Kinematics"}))

	all, err := db.Query(ctx, quizzes)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, snap := range all {
		assert.Equal(t, ids[i], snap.ID(), "insertion order")
	}

	byTopic, err := db.Query(ctx, quizzes, docstore.Where("topic", "Kinematics"))
	require.NoError(t, err)
	require.Len(t, byTopic, 2)
	assert.Equal(t, ids[0], byTopic[0].ID())
	assert.Equal(t, ids[2], byTopic[1].ID())

	passed, err := db.Query(ctx, quizzes, docstore.Where("passed", false))
	require.NoError(t, err)
	require.Len(t, passed, 1)
	assert.Equal(t, ids[1], passed[0].ID())

	both, err := db.Query(ctx, quizzes, docstore.Where("topic", "Kinematics"), docstore.Where("score", 5))
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, ids[2], both[0].ID())

	none, err := db.Query(ctx, quizzes, docstore.Where("topic", "kinematics"))
	require.NoError(t, err)
	assert.Empty(t, none, "matching is exact")
}

func TestQueryUnsupportedFilter(t *testing.T) {
	db := openDocs(t)
	_, err := db.Query(context.Background(), docstore.Collection("c"), docstore.Where("x", []string{"a"}))
	assert.Error(t, err)
}

func TestToFields(t *testing.T) {
	type course struct {
		Title  string   `json:"title"`
		Topics []string `json:"topics"`
	}
	f, err := docstore.ToFields(course{Title: "Go", Topics: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, docstore.Fields{"title": "Go", "topics": []any{"a"}}, f)

	_, err = docstore.ToFields([]int{1})
	assert.Error(t, err)
}

type recorder struct {
	mu    sync.Mutex
	snaps []*docstore.Snapshot
}

func (r *recorder) add(s *docstore.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) last() *docstore.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return nil
	}
	return r.snaps[len(r.snaps)-1]
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestWatchDeliversInitialAndChanges(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()
	ref := docstore.Doc("users", "u1")
	require.NoError(t, db.Set(ctx, ref, docstore.Fields{"credits": 100}))

	var rec recorder
	cancel, err := db.Watch(ref, rec.add)
	require.NoError(t, err)
	defer cancel()

	require.Eventually(t, func() bool {
		s := rec.last()
		return s != nil && s.Data["credits"] == float64(100)
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, db.Update(ctx, ref, docstore.Fields{"credits": 90}))
	require.Eventually(t, func() bool {
		return rec.last().Data["credits"] == float64(90)
	}, time.Second, 5*time.Millisecond)
}

func TestWatchMissingDocument(t *testing.T) {
	db := openDocs(t)
	ref := docstore.Doc("users", "ghost")

	var rec recorder
	cancel, err := db.Watch(ref, rec.add)
	require.NoError(t, err)
	defer cancel()

	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, rec.last().Exists)

	require.NoError(t, db.Set(context.Background(), ref, docstore.Fields{"credits": 100}))
	require.Eventually(t, func() bool {
		s := rec.last()
		return s.Exists
	}, time.Second, 5*time.Millisecond)
}

func TestWatchCancelStopsDelivery(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()
	ref := docstore.Doc("users", "u1")

	var rec recorder
	cancel, err := db.Watch(ref, rec.add)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, db.ActiveWatches())

	cancel()
	cancel()
	assert.Equal(t, 0, db.ActiveWatches())

	require.NoError(t, db.Set(ctx, ref, docstore.Fields{"credits": 1}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.len())
}

func TestWatchIgnoresOtherDocuments(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()

	var rec recorder
	cancel, err := db.Watch(docstore.Doc("users", "u1"), rec.add)
	require.NoError(t, err)
	defer cancel()
	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, db.Set(ctx, docstore.Doc("users", "u2"), docstore.Fields{"credits": 1}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.len())
}

func TestCloseStopsWatches(t *testing.T) {
	db := openDocs(t)
	_, err := db.Watch(docstore.Doc("users", "u1"), func(*docstore.Snapshot) {})
	require.NoError(t, err)
	db.Close()
	assert.Equal(t, 0, db.ActiveWatches())

	cancel, err := db.Watch(docstore.Doc("users", "u1"), func(*docstore.Snapshot) {})
	require.NoError(t, err)
	cancel()
}
