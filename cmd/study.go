package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studywise/internal/lessons"
	"github.com/abhisek/studywise/internal/router"
	"github.com/abhisek/studywise/internal/student"
	"github.com/abhisek/studywise/internal/ui/prompt"
)

var flashcardsCmd = &cobra.Command{
	Use:   "flashcards <topic>",
	Short: "Generate flashcards on a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		tutor, err := a.tutor()
		if err != nil {
			return err
		}
		topic := strings.Join(args, " ")

		var content string
		if flashcardsFromLesson {
			u, err := a.user()
			if err != nil {
				return err
			}
			if _, content, err = lessonToQuiz(ctx, a, u.UID, topic); err != nil {
				return err
			}
		}

		set, err := tutor.Flashcards(ctx, topic, content, flashcardsCount)
		if err != nil {
			return tutorFailed(err)
		}
		fmt.Printf("%s\n%s\n", set.Topic, set.Summary)
		for i, c := range set.Cards {
			fmt.Printf("\n%d. [%s] %s\n   → %s\n", i+1, c.Difficulty, c.Front, c.Back)
		}
		return nil
	}),
}

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Design and list learning paths",
}

var courseNewCmd = &cobra.Command{
	Use:   "new <goal>",
	Short: "Design a learning path for a goal",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		tutor, err := a.tutor()
		if err != nil {
			return err
		}
		level, ok := student.ParseLevel(courseLevel)
		if !ok {
			return fmt.Errorf("invalid course level %q (beginner, intermediate, advanced)", courseLevel)
		}

		outline, err := tutor.CourseOutline(ctx, strings.Join(args, " "), level)
		if err != nil {
			return tutorFailed(err)
		}
		printModules(outline.Goal, outline.Level, outline.Modules)

		if courseNoSave {
			return nil
		}
		u, err := a.user()
		if err != nil {
			return err
		}
		saved, err := checkSave("course", router.Dispatch[*student.Course](ctx, a.router, router.SaveCourse{Data: outline.Course(u.UID)}))
		if err != nil {
			return err
		}
		fmt.Printf("\nSaved as course %s.\n", saved.ID)
		return nil
	}),
}

var courseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your saved courses",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.user()
		if err != nil {
			return err
		}
		courses, err := check(router.Dispatch[[]student.Course](ctx, a.router, router.ListCourses{UserID: u.UID}))
		if err != nil {
			return err
		}
		if len(courses) == 0 {
			fmt.Println("No courses yet. Run `studywise course new <goal>` to design one.")
			return nil
		}
		for i, c := range courses {
			if i > 0 {
				fmt.Println()
			}
			printModules(c.Title, c.Level, c.Modules)
			fmt.Printf("  about %dh, created %s\n", c.EstimatedDurationHours, c.CreatedAt.Local().Format("2006-01-02"))
		}
		return nil
	}),
}

func printModules(title string, level student.Level, modules []student.CourseModule) {
	fmt.Printf("%s (%s)\n", title, level)
	for i, m := range modules {
		fmt.Printf("  %d. %s\n", i+1, m.Title)
		if m.Description != "" {
			fmt.Printf("     %s\n", m.Description)
		}
		if len(m.Topics) > 0 {
			fmt.Printf("     topics: %s\n", strings.Join(m.Topics, ", "))
		}
	}
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the tutor a question",
	Long: "Answers a question with an explanation and key points. With --hints, gives a\n" +
		"ladder of hints instead so you can work the problem out yourself.",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		tutor, err := a.tutor()
		if err != nil {
			return err
		}
		question := strings.Join(args, " ")
		if question == "" {
			if question, err = prompt.Ask("What's your question?", "e.g. Why does ice float?"); err != nil {
				return err
			}
		}

		if askHints > 0 {
			hints, err := tutor.Hints(ctx, question, askTopic, askHints)
			if err != nil {
				return tutorFailed(err)
			}
			for i, h := range hints {
				fmt.Printf("Hint %d: %s\n", i+1, h)
			}
			return nil
		}

		var lessonContext string
		if askWithLesson {
			u, err := a.user()
			if err != nil {
				return err
			}
			if _, lessonContext, err = lessonToQuiz(ctx, a, u.UID, askTopic); err != nil {
				return err
			}
		}

		d, err := tutor.SolveDoubt(ctx, question, askTopic, lessonContext)
		if err != nil {
			return tutorFailed(err)
		}
		printDoubt(d)
		return nil
	}),
}

func printDoubt(d *lessons.Doubt) {
	fmt.Println(d.Answer)
	if d.Explanation != "" {
		fmt.Printf("\n%s\n", d.Explanation)
	}
	printList("Key points", d.KeyPoints)
	printList("Related concepts", d.RelatedConcepts)
	printList("Try next", d.FollowUpQuestions)
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, it := range items {
		fmt.Printf("  • %s\n", it)
	}
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Summarize your strengths and weaknesses from your quiz history",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		tutor, err := a.tutor()
		if err != nil {
			return err
		}
		u, err := a.user()
		if err != nil {
			return err
		}

		resp := router.Dispatch[*student.Stats](ctx, a.router, router.GetStats{UserID: u.UID})
		if !resp.Success {
			return errors.New("no quiz history yet; take a quiz first")
		}
		attempts, err := check(router.Dispatch[[]student.QuizAttempt](ctx, a.router, router.ListQuizzes{UserID: u.UID}))
		if err != nil {
			return err
		}
		if len(attempts) > insightsRecent {
			attempts = attempts[len(attempts)-insightsRecent:]
		}

		in, err := tutor.Compressor().Insights(ctx, lessons.InsightsInput{Stats: resp.Data, Recent: attempts})
		if err != nil {
			return tutorFailed(err)
		}
		fmt.Println(in.Summary)
		printList("Strengths", in.Strengths)
		printList("Needs work", in.Weaknesses)
		printList("Patterns", in.Patterns)
		return nil
	}),
}

var (
	flashcardsCount      int
	flashcardsFromLesson bool
	courseLevel          string
	courseNoSave         bool
	askTopic             string
	askHints             int
	askWithLesson        bool
	insightsRecent       int
)

func init() {
	flashcardsCmd.Flags().IntVarP(&flashcardsCount, "count", "n", lessons.DefaultFlashcards, "Number of cards")
	flashcardsCmd.Flags().BoolVar(&flashcardsFromLesson, "from-lesson", false, "Base the cards on your lesson for the topic")

	courseNewCmd.Flags().StringVarP(&courseLevel, "level", "l", "beginner", "beginner, intermediate or advanced")
	courseNewCmd.Flags().BoolVar(&courseNoSave, "no-save", false, "Only print the outline")
	courseCmd.AddCommand(courseNewCmd)
	courseCmd.AddCommand(courseListCmd)

	askCmd.Flags().StringVarP(&askTopic, "topic", "t", "", "Subject the question is about")
	askCmd.Flags().IntVar(&askHints, "hints", 0, "Give hints instead of the answer (1 gentle, 2 guided, 3 step by step)")
	askCmd.Flags().BoolVar(&askWithLesson, "with-lesson", false, "Use your lesson on the topic as context")

	insightsCmd.Flags().IntVar(&insightsRecent, "recent", 10, "Number of recent quizzes to consider")
}
