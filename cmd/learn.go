package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/studywise/internal/llm"
	"github.com/abhisek/studywise/internal/router"
	"github.com/abhisek/studywise/internal/student"
	"github.com/abhisek/studywise/internal/ui/prompt"
	quizui "github.com/abhisek/studywise/internal/ui/quiz"
)

var learnCmd = &cobra.Command{
	Use:   "learn [topic]",
	Short: "Learn a topic with the AI tutor",
	Long: "Streams a beginner-friendly lesson on the topic and saves it to your lesson history.\n" +
		"With --image, the topic is your question about the picture (e.g. a photo of a problem).",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		u, err := a.user()
		if err != nil {
			return err
		}
		tutor, err := a.tutor()
		if err != nil {
			return err
		}

		topic := strings.Join(args, " ")
		if topic == "" {
			if topic, err = prompt.Ask("What would you like to learn?", "e.g. Newton's laws of motion"); err != nil {
				return err
			}
		}

		image, err := readImage(learnImage)
		if err != nil {
			return err
		}

		started := time.Now()
		var b strings.Builder
		for chunk, err := range tutor.Teach(ctx, topic, image) {
			if err != nil {
				return tutorFailed(err)
			}
			fmt.Print(chunk)
			b.WriteString(chunk)
		}
		fmt.Println()

		text := b.String()
		a.session.SetLessonText(text)

		_, err = checkSave("lesson", router.Dispatch[*student.LessonProgress](ctx, a.router, router.SaveLesson{Data: student.LessonProgress{
			UserID:    u.UID,
			Topic:     topic,
			Content:   text,
			TimeSpent: int(time.Since(started).Seconds()),
		}}))
		if err != nil {
			return err
		}

		if !learnQuiz {
			fmt.Println()
			fmt.Println("Lesson saved. Run `studywise quiz` to test yourself.")
			return nil
		}
		return takeQuiz(ctx, a, u, topic, text)
	}),
}

var quizCmd = &cobra.Command{
	Use:   "quiz [topic]",
	Short: "Take a quiz on a lesson",
	Long:  "Quizzes you on the lesson for the given topic, or on your most recent lesson.",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		u, err := a.user()
		if err != nil {
			return err
		}
		topic, text, err := lessonToQuiz(ctx, a, u.UID, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return takeQuiz(ctx, a, u, topic, text)
	}),
}

// lessonToQuiz finds the lesson to quiz on: the named topic's lesson, else
// the lesson generated in this session, else the most recent one.
func lessonToQuiz(ctx context.Context, a *app, uid, topic string) (string, string, error) {
	if topic != "" {
		all, err := check(router.Dispatch[[]student.LessonProgress](ctx, a.router, router.ListLessons{UserID: uid}))
		if err != nil {
			return "", "", err
		}
		for _, l := range all {
			if strings.EqualFold(l.Topic, topic) {
				return l.Topic, l.Content, nil
			}
		}
		return "", "", fmt.Errorf("no lesson on %q yet; run `studywise learn %s` first", topic, topic)
	}

	if text := a.session.Snapshot().LessonText; text != "" {
		return "", text, nil
	}
	last, err := check(router.Dispatch[*student.LessonProgress](ctx, a.router, router.LastLesson{UserID: uid}))
	if err != nil {
		return "", "", errors.New("no lessons yet; run `studywise learn <topic>` first")
	}
	return last.Topic, last.Content, nil
}

func takeQuiz(ctx context.Context, a *app, u *student.Identity, topic, lesson string) error {
	tutor, err := a.tutor()
	if err != nil {
		return err
	}
	fmt.Println("Writing your quiz...")
	q, err := tutor.QuizFromLesson(ctx, topic, lesson)
	if err != nil {
		return tutorFailed(err)
	}
	if q.Topic == "" {
		q.Topic = "General"
	}

	res, err := quizui.Run(q)
	if err != nil {
		return err
	}
	if res.Aborted {
		fmt.Println("Quiz abandoned; nothing was saved.")
		return nil
	}

	attempt := q.Grade(u.UID, res.Selected, res.Elapsed)
	saved, err := checkSave("quiz result", router.Dispatch[*student.QuizAttempt](ctx, a.router, router.SaveQuiz{Data: attempt}))
	if err != nil {
		return err
	}
	fmt.Printf("You scored %d/%d (%d%%) on %s.\n", saved.Score, saved.Total, saved.Percentage, saved.Topic)
	printMissed(saved)
	return nil
}

func printMissed(a *student.QuizAttempt) {
	for _, r := range a.QuestionsAnswered {
		if r.IsCorrect {
			continue
		}
		fmt.Printf("\n  ✗ %s\n    you: %s\n    answer: %s\n", r.Question, orDash(r.SelectedAnswer), r.CorrectAnswer)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// readImage loads an image attachment. An empty path means none.
func readImage(path string) (*llm.InlineData, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return &llm.InlineData{MIMEType: mime, Data: data}, nil
}

var (
	learnQuiz  bool
	learnImage string
)

func init() {
	learnCmd.Flags().BoolVar(&learnQuiz, "quiz", false, "Take a quiz on the lesson right after it")
	learnCmd.Flags().StringVar(&learnImage, "image", "", "Attach an image (png, jpeg, webp, gif)")
}
