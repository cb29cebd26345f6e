package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/studywise/internal/docstore"
	"github.com/abhisek/studywise/internal/router"
	"github.com/abhisek/studywise/internal/stats"
	"github.com/abhisek/studywise/internal/store"
	"github.com/abhisek/studywise/internal/student"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// newRouter returns a router over an in-memory store whose clock moves one
// minute forward on every write.
func newRouter(t *testing.T, opts ...router.Option) (*router.Router, docstore.DB) {
	t.Helper()
	var ticks atomic.Int64
	clock := func() time.Time {
		return epoch.Add(time.Duration(ticks.Add(1)) * time.Minute)
	}
	s, err := store.Open(
		fmt.Sprintf("file:router_%s?mode=memory&cache=shared", t.Name()),
		store.WithDocOptions(docstore.WithClock(clock)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	db := s.Docs()
	return router.New(db, stats.New(db), opts...), db
}

func kinematics(score, total, pct int) student.QuizAttempt {
	return student.QuizAttempt{
		UserID:     "u1",
		Topic:      "Kinematics",
		Score:      score,
		Total:      total,
		Percentage: pct,
		QuestionsAnswered: []student.QuestionRecord{
			{Question: "What is velocity?", SelectedAnswer: "Speed with direction", CorrectAnswer: "Speed with direction", IsCorrect: true},
		},
	}
}

func TestStatsBeforeAnyQuiz(t *testing.T) {
	r, _ := newRouter(t)
	resp := router.Dispatch[*student.Stats](context.Background(), r, router.GetStats{UserID: "u1"})

	assert.False(t, resp.Success)
	assert.Equal(t, "No statistics found", resp.Error)
	assert.Nil(t, resp.Data)
}

func TestQuizSaveUpdatesStats(t *testing.T) {
	r, _ := newRouter(t)
	ctx := context.Background()

	saved := router.Dispatch[*student.QuizAttempt](ctx, r, router.SaveQuiz{Data: kinematics(4, 5, 80)})
	require.True(t, saved.Success, saved.Error)
	assert.Equal(t, "Quiz saved successfully", saved.Message)
	assert.NotEmpty(t, saved.Data.ID)
	assert.False(t, saved.Data.Timestamp.IsZero())

	s := router.Dispatch[*student.Stats](ctx, r, router.GetStats{UserID: "u1"})
	require.True(t, s.Success, s.Error)
	assert.Equal(t, 1, s.Data.TotalQuizzesTaken)
	assert.Equal(t, 80, s.Data.AverageScore)
	assert.Equal(t, 1, s.Data.TopicsMastered)
	require.Len(t, s.Data.TopicBreakdown, 1)
	assert.Equal(t, "Kinematics", s.Data.TopicBreakdown[0].Topic)
	assert.True(t, s.Data.TopicBreakdown[0].Mastered)

	saved = router.Dispatch[*student.QuizAttempt](ctx, r, router.SaveQuiz{Data: kinematics(3, 5, 60)})
	require.True(t, saved.Success, saved.Error)

	s = router.Dispatch[*student.Stats](ctx, r, router.GetStats{UserID: "u1"})
	require.True(t, s.Success)
	assert.Equal(t, 2, s.Data.TotalQuizzesTaken)
	assert.Equal(t, 70, s.Data.AverageScore)
	assert.Equal(t, 0, s.Data.TopicsMastered)
	assert.Equal(t, 2, s.Data.TopicBreakdown[0].QuizzesTaken)
	assert.False(t, s.Data.TopicBreakdown[0].Mastered)
}

func TestQuizSaveComputesMissingPercentage(t *testing.T) {
	r, _ := newRouter(t)
	resp := router.Dispatch[*student.QuizAttempt](context.Background(), r,
		router.SaveQuiz{Data: kinematics(2, 3, 0)})
	require.True(t, resp.Success)
	assert.Equal(t, 67, resp.Data.Percentage)
}

func TestQuizSaveKeepsZeroForZeroScore(t *testing.T) {
	r, _ := newRouter(t)
	resp := router.Dispatch[*student.QuizAttempt](context.Background(), r,
		router.SaveQuiz{Data: kinematics(0, 5, 0)})
	require.True(t, resp.Success)
	assert.Equal(t, 0, resp.Data.Percentage)

	resp = router.Dispatch[*student.QuizAttempt](context.Background(), r,
		router.SaveQuiz{Data: kinematics(3, 5, 55)})
	require.True(t, resp.Success)
	assert.Equal(t, 55, resp.Data.Percentage, "a supplied percentage is stored as sent")
}

func TestQuizSaveRequiresUser(t *testing.T) {
	r, _ := newRouter(t)
	resp := router.Dispatch[*student.QuizAttempt](context.Background(), r, router.SaveQuiz{})
	assert.False(t, resp.Success)
	assert.Equal(t, "userId is required", resp.Error)
}

func TestQuizRoundTrip(t *testing.T) {
	r, _ := newRouter(t)
	ctx := context.Background()

	saved := router.Dispatch[*student.QuizAttempt](ctx, r, router.SaveQuiz{Data: kinematics(4, 5, 80)})
	require.True(t, saved.Success)

	optics := kinematics(1, 5, 20)
	optics.Topic = "Optics"
	require.True(t, router.Dispatch[*student.QuizAttempt](ctx, r, router.SaveQuiz{Data: optics}).Success)

	all := router.Dispatch[[]student.QuizAttempt](ctx, r, router.ListQuizzes{UserID: "u1"})
	require.True(t, all.Success)
	assert.Equal(t, "Retrieved 2 quizzes", all.Message)
	require.Len(t, all.Data, 2)
	assert.Equal(t, *saved.Data, all.Data[0])

	byTopic := router.Dispatch[[]student.QuizAttempt](ctx, r,
		router.ListQuizzesByTopic{UserID: "u1", Topic: "Optics"})
	require.True(t, byTopic.Success)
	assert.Equal(t, "Retrieved 1 quizzes for topic: Optics", byTopic.Message)
	require.Len(t, byTopic.Data, 1)
	assert.Equal(t, 20, byTopic.Data[0].Percentage)
}

func TestEmptyListsAreNotNil(t *testing.T) {
	r, _ := newRouter(t)
	ctx := context.Background()

	quizzes := router.Dispatch[[]student.QuizAttempt](ctx, r, router.ListQuizzes{UserID: "nobody"})
	require.True(t, quizzes.Success)
	assert.NotNil(t, quizzes.Data)
	assert.Empty(t, quizzes.Data)

	b, err := json.Marshal(quizzes)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":[],"message":"Retrieved 0 quizzes"}`, string(b))

	courses := router.Dispatch[[]student.Course](ctx, r, router.ListCourses{UserID: "nobody"})
	require.True(t, courses.Success)
	assert.NotNil(t, courses.Data)
}

func TestConcurrentQuizSaves(t *testing.T) {
	r, db := newRouter(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, pct := range []int{100, 40} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := router.Dispatch[*student.QuizAttempt](ctx, r, router.SaveQuiz{Data: kinematics(0, 5, pct)})
			assert.True(t, resp.Success)
		}()
	}
	wg.Wait()

	attempts, err := db.Query(ctx, student.QuizzesRef("u1"))
	require.NoError(t, err)
	assert.Len(t, attempts, 2, "both attempts persist")

	s := router.Dispatch[*student.Stats](ctx, r, router.GetStats{UserID: "u1"})
	require.True(t, s.Success)
	assert.Equal(t, 2, s.Data.TotalQuizzesTaken, "summary serializes saves per user")
	assert.Equal(t, 70, s.Data.AverageScore)
}

func TestProfileUpsert(t *testing.T) {
	r, _ := newRouter(t)
	ctx := context.Background()

	missing := router.Dispatch[*student.Profile](ctx, r, router.GetProfile{UserID: "u1"})
	assert.False(t, missing.Success)
	assert.Equal(t, "Student profile not found", missing.Error)

	first := router.Dispatch[*student.Profile](ctx, r, router.UpsertProfile{Data: student.Profile{
		UserID:            "u1",
		DisplayName:       "Ada",
		Email:             "ada@example.com",
		PreferredSubjects: []string{"Physics", "Physics", "Chemistry"},
	}})
	require.True(t, first.Success, first.Error)
	assert.Equal(t, "Profile updated successfully", first.Message)
	assert.Equal(t, []string{"Physics", "Chemistry"}, first.Data.PreferredSubjects)
	assert.Equal(t, 0, first.Data.TotalQuizzesTaken)
	assert.False(t, first.Data.CreatedAt.IsZero())

	require.True(t, router.Dispatch[*student.QuizAttempt](ctx, r, router.SaveQuiz{Data: kinematics(4, 5, 80)}).Success)

	// A second sign-in rewrites identity and lastLogin only.
	second := router.Dispatch[*student.Profile](ctx, r, router.UpsertProfile{Data: student.Profile{
		UserID:      "u1",
		DisplayName: "Ada L.",
	}})
	require.True(t, second.Success)
	assert.Equal(t, "Ada L.", second.Data.DisplayName)
	assert.Equal(t, "ada@example.com", second.Data.Email)
	assert.Equal(t, first.Data.CreatedAt, second.Data.CreatedAt)
	assert.True(t, second.Data.LastLogin.After(first.Data.LastLogin))
	assert.Equal(t, 1, second.Data.TotalQuizzesTaken)
	assert.Equal(t, 80, second.Data.AverageScore)
	assert.Equal(t, []string{"Physics", "Chemistry"}, second.Data.PreferredSubjects)

	got := router.Dispatch[*student.Profile](ctx, r, router.GetProfile{UserID: "u1"})
	require.True(t, got.Success)
	assert.Equal(t, *second.Data, *got.Data)
}

func TestUserIDMustBeOneSegment(t *testing.T) {
	r, _ := newRouter(t)
	ctx := context.Background()
	require.True(t, router.Dispatch[*student.QuizAttempt](ctx, r, router.SaveQuiz{Data: kinematics(4, 5, 80)}).Success)

	const nested = "u1/stats/summary"
	got := router.Dispatch[*student.Profile](ctx, r, router.GetProfile{UserID: nested})
	assert.False(t, got.Success)
	assert.Nil(t, got.Data)
	assert.Contains(t, got.Error, "invalid userId")

	up := router.Dispatch[*student.Profile](ctx, r, router.UpsertProfile{Data: student.Profile{UserID: nested, DisplayName: "Mallory"}})
	assert.False(t, up.Success)
	assert.Contains(t, up.Error, "invalid userId")

	q := kinematics(1, 5, 20)
	q.UserID = "u1/quizzes"
	assert.False(t, router.Dispatch[*student.QuizAttempt](ctx, r, router.SaveQuiz{Data: q}).Success)
	assert.False(t, router.Dispatch[[]student.LessonProgress](ctx, r, router.ListLessons{UserID: "a/b"}).Success)
	assert.False(t, router.Dispatch[*student.Stats](ctx, r, router.GetStats{UserID: "u1/"}).Success)

	// The real summary is untouched.
	s := router.Dispatch[*student.Stats](ctx, r, router.GetStats{UserID: "u1"})
	require.True(t, s.Success, s.Error)
	assert.Equal(t, 1, s.Data.TotalQuizzesTaken)
	assert.Equal(t, 80, s.Data.AverageScore)
}

func TestLessonSaveIsKeyedByTopic(t *testing.T) {
	r, _ := newRouter(t)
	ctx := context.Background()

	none := router.Dispatch[*student.LessonProgress](ctx, r, router.LastLesson{UserID: "u1"})
	assert.False(t, none.Success)
	assert.Equal(t, "No lessons found", none.Error)

	save := func(topic, content string) *student.LessonProgress {
		resp := router.Dispatch[*student.LessonProgress](ctx, r, router.SaveLesson{Data: student.LessonProgress{
			UserID: "u1", Topic: topic, Content: content,
		}})
		require.True(t, resp.Success, resp.Error)
		return resp.Data
	}

	a := save("Optics", "v1")
	save("Waves", "w1")
	b := save("Optics", "v2")
	assert.Equal(t, a.ID, b.ID)

	all := router.Dispatch[[]student.LessonProgress](ctx, r, router.ListLessons{UserID: "u1"})
	require.True(t, all.Success)
	assert.Len(t, all.Data, 2)

	last := router.Dispatch[*student.LessonProgress](ctx, r, router.LastLesson{UserID: "u1"})
	require.True(t, last.Success)
	assert.Equal(t, "Optics", last.Data.Topic)
	assert.Equal(t, "v2", last.Data.Content)
}

func TestCourseSave(t *testing.T) {
	r, _ := newRouter(t)
	ctx := context.Background()

	bad := router.Dispatch[*student.Course](ctx, r, router.SaveCourse{Data: student.Course{UserID: "u1", Level: "expert"}})
	assert.False(t, bad.Success)
	assert.Contains(t, bad.Error, "invalid course level")

	resp := router.Dispatch[*student.Course](ctx, r, router.SaveCourse{Data: student.Course{
		UserID: "u1",
		Title:  "Classical Mechanics",
		Modules: []student.CourseModule{
			{Title: "Motion", Topics: []string{"Kinematics"}},
		},
	}})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, student.LevelBeginner, resp.Data.Level)
	assert.False(t, resp.Data.CreatedAt.IsZero())

	all := router.Dispatch[[]student.Course](ctx, r, router.ListCourses{UserID: "u1"})
	require.True(t, all.Success)
	require.Len(t, all.Data, 1)
	assert.Equal(t, "Classical Mechanics", all.Data[0].Title)
}

func TestResponseJSON(t *testing.T) {
	ok := router.Response[int]{Success: true, Data: 0, Message: "fine"}
	b, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":0,"message":"fine"}`, string(b))

	failed := router.Response[*student.Stats]{Error: "No statistics found"}
	b, err = json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"No statistics found"}`, string(b))
}

func TestDecodeAndServe(t *testing.T) {
	r, _ := newRouter(t)
	ctx := context.Background()

	req, err := router.Decode([]byte(`{"type":"quiz.save","data":{"userId":"u1","topic":"Optics","score":1,"total":2}}`))
	require.NoError(t, err)
	assert.Equal(t, router.KindQuizSave, req.Kind())
	assert.Equal(t, "u1", req.Owner())

	resp := r.Serve(ctx, req)
	require.True(t, resp.Success, resp.Error)
	q, ok := resp.Data.(*student.QuizAttempt)
	require.True(t, ok)
	assert.Equal(t, 50, q.Percentage)

	req, err = router.Decode([]byte(`{"type":"quiz.getByTopic","userId":"u1","topic":"Optics"}`))
	require.NoError(t, err)
	resp = r.Serve(ctx, req)
	require.True(t, resp.Success)
	assert.Len(t, resp.Data, 1)
}

func TestDecodeUnknownAction(t *testing.T) {
	_, err := router.Decode([]byte(`{"type":"quiz.delete"}`))
	assert.EqualError(t, err, "Unknown action type: quiz.delete")

	_, err = router.Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r, _ := newRouter(t, router.WithLogger(zap.New(core)))
	ctx := context.Background()

	router.Dispatch[*student.Stats](ctx, r, router.GetStats{UserID: "u1"})
	router.Dispatch[*student.Stats](ctx, r, router.GetStats{})

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
	assert.Equal(t, "stats.get", logs.All()[1].ContextMap()["action"])
}
