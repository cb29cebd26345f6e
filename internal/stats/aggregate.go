// Package stats maintains the per-user StudentStats summary.
//
// The summary is a fold over the user's quiz attempts. Apply adds one
// attempt to a summary; Recompute folds a whole history with the same
// function, so the cold-start path and the incremental path cannot drift
// apart.
package stats

import (
	"slices"
	"time"

	"github.com/abhisek/studywise/internal/student"
)

// Apply returns s with attempt a folded in. s is not modified. A zero s is
// a valid starting point.
func Apply(s student.Stats, a student.QuizAttempt) student.Stats {
	out := s
	out.TopicBreakdown = slices.Clone(s.TopicBreakdown)
	if out.UserID == "" {
		out.UserID = a.UserID
	}
	migrateSums(&out)

	out.Streak = nextStreak(out.Streak, out.LastActivityDate, a.Timestamp)
	out.TotalQuizzesTaken++
	out.PercentageSum += a.Percentage
	out.AverageScore = student.RoundDiv(out.PercentageSum, out.TotalQuizzesTaken)
	out.SecondsSpent += a.Duration
	out.TotalTimeSpent = out.SecondsSpent / 60
	if a.Timestamp.After(out.LastActivityDate) {
		out.LastActivityDate = a.Timestamp
	}

	// Exact, case-sensitive match; new topics keep insertion order.
	i := slices.IndexFunc(out.TopicBreakdown, func(t student.TopicMastery) bool {
		return t.Topic == a.Topic
	})
	if i < 0 {
		out.TopicBreakdown = append(out.TopicBreakdown, student.TopicMastery{Topic: a.Topic})
		i = len(out.TopicBreakdown) - 1
	}
	t := &out.TopicBreakdown[i]
	t.QuizzesTaken++
	t.PercentageSum += a.Percentage
	t.AverageScore = student.RoundDiv(t.PercentageSum, t.QuizzesTaken)
	if a.Timestamp.After(t.LastAttempted) {
		t.LastAttempted = a.Timestamp
	}
	t.Mastered = t.AverageScore >= student.MasteryThreshold

	out.TopicsMastered = countMastered(out.TopicBreakdown)
	return out
}

// Recompute folds attempts, in order, into a fresh summary. It returns nil
// when there are no attempts.
func Recompute(userID string, attempts []student.QuizAttempt) *student.Stats {
	if len(attempts) == 0 {
		return nil
	}
	s := student.Stats{UserID: userID}
	for _, a := range attempts {
		s = Apply(s, a)
	}
	return &s
}

func countMastered(topics []student.TopicMastery) int {
	n := 0
	for _, t := range topics {
		if t.Mastered {
			n++
		}
	}
	return n
}

// migrateSums fills PercentageSum on summaries written before sums were
// stored, which only kept the rounded mean.
func migrateSums(s *student.Stats) {
	if s.PercentageSum == 0 && s.TotalQuizzesTaken > 0 {
		s.PercentageSum = s.AverageScore * s.TotalQuizzesTaken
	}
	for i := range s.TopicBreakdown {
		t := &s.TopicBreakdown[i]
		if t.PercentageSum == 0 && t.QuizzesTaken > 0 {
			t.PercentageSum = t.AverageScore * t.QuizzesTaken
		}
	}
}

// nextStreak counts consecutive UTC calendar days with activity. Another
// attempt on the same day keeps the streak, the following day extends it,
// and a gap restarts it at 1.
func nextStreak(streak int, last, at time.Time) int {
	if streak == 0 || last.IsZero() {
		return 1
	}
	switch days := daysBetween(last, at); {
	case days <= 0:
		return streak
	case days == 1:
		return streak + 1
	default:
		return 1
	}
}

func daysBetween(from, to time.Time) int {
	return int(midnight(to).Sub(midnight(from)).Hours() / 24)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
