package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studywise/internal/router"
	"github.com/abhisek/studywise/internal/student"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your quiz attempts",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.user()
		if err != nil {
			return err
		}

		var resp router.Response[[]student.QuizAttempt]
		if historyTopic != "" {
			resp = router.Dispatch[[]student.QuizAttempt](ctx, a.router, router.ListQuizzesByTopic{UserID: u.UID, Topic: historyTopic})
		} else {
			resp = router.Dispatch[[]student.QuizAttempt](ctx, a.router, router.ListQuizzes{UserID: u.UID})
		}
		attempts, err := check(resp)
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			fmt.Println("No quizzes yet.")
			return nil
		}

		fmt.Printf("%-16s  %-32s  %7s  %5s\n", "Taken", "Topic", "Score", "%")
		fmt.Println(strings.Repeat("\u2500", 68))
		for _, q := range attempts {
			fmt.Printf("%-16s  %-32s  %7s  %4d%%\n",
				q.Timestamp.Local().Format("2006-01-02 15:04"),
				truncate(q.Topic, 32),
				fmt.Sprintf("%d/%d", q.Score, q.Total),
				q.Percentage,
			)
		}
		return nil
	}),
}

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List the lessons you have studied",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.user()
		if err != nil {
			return err
		}
		all, err := check(router.Dispatch[[]student.LessonProgress](ctx, a.router, router.ListLessons{UserID: u.UID}))
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No lessons yet. Run `studywise learn <topic>` to start.")
			return nil
		}

		fmt.Printf("%-16s  %-40s  %8s  %s\n", "Last studied", "Topic", "Time", "Done")
		fmt.Println(strings.Repeat("\u2500", 76))
		for _, l := range all {
			done := ""
			if l.Completed {
				done = "✓"
			}
			fmt.Printf("%-16s  %-40s  %7dm  %s\n",
				l.LastAccessed.Local().Format("2006-01-02 15:04"),
				truncate(l.Topic, 40),
				(l.TimeSpent+59)/60,
				done,
			)
		}
		return nil
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your learning statistics",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.user()
		if err != nil {
			return err
		}
		resp := router.Dispatch[*student.Stats](ctx, a.router, router.GetStats{UserID: u.UID})
		if !resp.Success {
			fmt.Println(resp.Error + ". Take a quiz to get started.")
			return nil
		}
		s := resp.Data

		fmt.Printf("Quizzes taken:    %d\n", s.TotalQuizzesTaken)
		fmt.Printf("Average score:    %d%%\n", s.AverageScore)
		fmt.Printf("Topics mastered:  %d\n", s.TopicsMastered)
		fmt.Printf("Streak:           %d day(s)\n", s.Streak)
		fmt.Printf("Time on quizzes:  %dm\n", s.TotalTimeSpent)
		if !s.LastActivityDate.IsZero() {
			fmt.Printf("Last activity:    %s\n", s.LastActivityDate.Local().Format("2006-01-02 15:04"))
		}
		if len(s.TopicBreakdown) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Printf("%-32s  %7s  %5s  %s\n", "Topic", "Quizzes", "Avg", "Mastered")
		fmt.Println(strings.Repeat("\u2500", 60))
		for _, t := range s.TopicBreakdown {
			mastered := ""
			if t.Mastered {
				mastered = "✓"
			}
			fmt.Printf("%-32s  %7d  %4d%%  %s\n", truncate(t.Topic, 32), t.QuizzesTaken, t.AverageScore, mastered)
		}
		return nil
	}),
}

var historyTopic string

func init() {
	historyCmd.Flags().StringVarP(&historyTopic, "topic", "t", "", "Only show quizzes on this topic")
}
