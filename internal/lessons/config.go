package lessons

// ContextCompressionThreshold is the lesson length, in characters, above
// which lesson text is condensed before it is sent along with a question.
const ContextCompressionThreshold = 4000

// Budget is the token limit and temperature for one kind of generation.
type Budget struct {
	MaxTokens   int
	Temperature float64
}

// Config holds generation settings.
type Config struct {
	Tutor      Budget
	Quiz       Budget
	Flashcards Budget
	Course     Budget
	Doubt      Budget
	Hints      Budget
}

// DefaultConfig returns sensible defaults for generation.
func DefaultConfig() Config {
	return Config{
		Tutor:      Budget{MaxTokens: 2048, Temperature: 0.7},
		Quiz:       Budget{MaxTokens: 1024, Temperature: 0.3},
		Flashcards: Budget{MaxTokens: 1024, Temperature: 0.5},
		Course:     Budget{MaxTokens: 1024, Temperature: 0.5},
		Doubt:      Budget{MaxTokens: 1024, Temperature: 0.5},
		Hints:      Budget{MaxTokens: 512, Temperature: 0.5},
	}
}

// CompressorConfig holds compression settings.
type CompressorConfig struct {
	LessonMaxTokens   int
	InsightsMaxTokens int
	Temperature       float64
}

// DefaultCompressorConfig returns sensible defaults for compression.
func DefaultCompressorConfig() CompressorConfig {
	return CompressorConfig{
		LessonMaxTokens:   512,
		InsightsMaxTokens: 512,
		Temperature:       0.3,
	}
}
