package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studywise",
	Short: "AI study companion",
	Long: "StudyWise: learn a topic with an AI tutor, test yourself with generated quizzes\n" +
		"and flashcards, and track your progress over time.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides STUDYWISE_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/studywise/config.toml)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(flashcardsCmd)
	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
