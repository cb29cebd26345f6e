package stats_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/studywise/internal/docstore"
	"github.com/abhisek/studywise/internal/stats"
	"github.com/abhisek/studywise/internal/store"
	"github.com/abhisek/studywise/internal/student"
)

func openDocs(t *testing.T) docstore.DB {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:stats_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.Docs()
}

func saveAttempt(db docstore.DB, a student.QuizAttempt) func(context.Context) (*student.QuizAttempt, error) {
	return func(ctx context.Context) (*student.QuizAttempt, error) {
		fields, err := docstore.ToFields(a)
		if err != nil {
			return nil, err
		}
		ref, err := db.Add(ctx, student.QuizzesRef(a.UserID), fields)
		if err != nil {
			return nil, err
		}
		a.ID = ref.ID()
		return &a, nil
	}
}

func quiz(topic string, pct int) student.QuizAttempt {
	return student.QuizAttempt{
		UserID:     "u1",
		Topic:      topic,
		Percentage: pct,
		Timestamp:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestAggregator_GetWithoutAttempts(t *testing.T) {
	agg := stats.New(openDocs(t))
	s, err := agg.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestAggregator_SubmitScenario(t *testing.T) {
	db := openDocs(t)
	agg := stats.New(db)
	ctx := context.Background()

	_, err := agg.Submit(ctx, "u1", saveAttempt(db, quiz("Kinematics", 80)))
	require.NoError(t, err)

	s, err := agg.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 1, s.TotalQuizzesTaken)
	assert.Equal(t, 80, s.AverageScore)
	assert.Equal(t, 1, s.TopicsMastered)

	_, err = agg.Submit(ctx, "u1", saveAttempt(db, quiz("Kinematics", 60)))
	require.NoError(t, err)

	s, err = agg.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalQuizzesTaken)
	assert.Equal(t, 70, s.AverageScore)
	assert.Equal(t, 0, s.TopicsMastered)
	assert.False(t, s.TopicBreakdown[0].Mastered)
}

func TestAggregator_LazyRebuildFromAttempts(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()

	// Attempts written before any summary existed.
	for _, p := range []int{90, 70} {
		_, err := saveAttempt(db, quiz("Optics", p))(ctx)
		require.NoError(t, err)
	}

	agg := stats.New(db)
	s, err := agg.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 2, s.TotalQuizzesTaken)
	assert.Equal(t, 80, s.AverageScore)

	snap, err := db.Get(ctx, student.StatsRef("u1"))
	require.NoError(t, err)
	assert.True(t, snap.Exists, "rebuilt summary is persisted")
}

func TestAggregator_ColdSubmitCountsAttemptOnce(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()

	_, err := saveAttempt(db, quiz("Optics", 40))(ctx)
	require.NoError(t, err)

	agg := stats.New(db)
	_, err = agg.Submit(ctx, "u1", saveAttempt(db, quiz("Optics", 100)))
	require.NoError(t, err)

	s, err := agg.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalQuizzesTaken)
	assert.Equal(t, 70, s.AverageScore)
}

func TestAggregator_ConcurrentSubmitsAllCounted(t *testing.T) {
	db := openDocs(t)
	agg := stats.New(db)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := agg.Submit(ctx, "u1", saveAttempt(db, quiz("Waves", 50+i)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	attempts, err := db.Query(ctx, student.QuizzesRef("u1"))
	require.NoError(t, err)
	assert.Len(t, attempts, n)

	s, err := agg.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, n, s.TotalQuizzesTaken)
	assert.Equal(t, n, s.TopicBreakdown[0].QuizzesTaken)
}

func TestAggregator_ConcurrentColdGets(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()
	_, err := saveAttempt(db, quiz("Optics", 90))(ctx)
	require.NoError(t, err)

	agg := stats.New(db)
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := agg.Get(ctx, "u1")
			assert.NoError(t, err)
			if assert.NotNil(t, s) {
				assert.Equal(t, 1, s.TotalQuizzesTaken)
			}
		}()
	}
	wg.Wait()
}

func TestAggregator_MirrorsProfile(t *testing.T) {
	db := openDocs(t)
	ctx := context.Background()
	require.NoError(t, db.Set(ctx, student.ProfileRef("u1"), docstore.Fields{"userId": "u1"}))

	agg := stats.New(db)
	_, err := agg.Submit(ctx, "u1", saveAttempt(db, quiz("Optics", 90)))
	require.NoError(t, err)

	snap, err := db.Get(ctx, student.ProfileRef("u1"))
	require.NoError(t, err)
	var p student.Profile
	require.NoError(t, snap.DataTo(&p))
	assert.Equal(t, 1, p.TotalQuizzesTaken)
	assert.Equal(t, 90, p.AverageScore)
	assert.Equal(t, 1, p.Streak)
}

// failingStats rejects writes to the stats summary.
type failingStats struct {
	docstore.DB
}

func (f failingStats) Set(ctx context.Context, ref docstore.DocRef, data docstore.Fields, opts ...docstore.SetOption) error {
	if ref == student.StatsRef("u1") {
		return errors.New("disk full")
	}
	return f.DB.Set(ctx, ref, data, opts...)
}

func TestAggregator_SecondaryFailureKeepsAttempt(t *testing.T) {
	db := openDocs(t)
	core, logs := observer.New(zapcore.WarnLevel)
	agg := stats.New(failingStats{db}, stats.WithLogger(zap.New(core)))
	ctx := context.Background()

	saved, err := agg.Submit(ctx, "u1", saveAttempt(db, quiz("Optics", 90)))
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	assert.EqualValues(t, 1, agg.SecondaryFailures())
	entries := logs.FilterField(zap.String("op", "update stats")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].ContextMap()["uid"])

	attempts, err := db.Query(ctx, student.QuizzesRef("u1"))
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}

func TestAggregator_PrimaryFailureReturned(t *testing.T) {
	agg := stats.New(openDocs(t))
	_, err := agg.Submit(context.Background(), "u1", func(context.Context) (*student.QuizAttempt, error) {
		return nil, errors.New("write refused")
	})
	assert.EqualError(t, err, "write refused")
}
