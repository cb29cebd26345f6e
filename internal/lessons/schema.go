package lessons

import "github.com/abhisek/studywise/internal/llm"

func stringArray(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}

// QuizSchema defines the JSON schema for a quiz generated from a lesson.
var QuizSchema = &llm.Schema{
	Name:        "quiz",
	Description: "A multiple-choice quiz on a lesson",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"quiz": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question text",
						},
						"options": stringArray("Exactly 3 options, prefixed 'A. ', 'B. ' and 'C. '"),
						"answer": map[string]any{
							"type":        "string",
							"description": "The correct option, copied exactly from options",
						},
					},
					"required":             []any{"question", "options", "answer"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"quiz"},
		"additionalProperties": false,
	},
}

// FlashcardSchema defines the JSON schema for flashcard generation.
var FlashcardSchema = &llm.Schema{
	Name:        "flashcards",
	Description: "Study flashcards with a summary of key concepts",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cards": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"front": map[string]any{
							"type":        "string",
							"description": "A clear question",
						},
						"back": map[string]any{
							"type":        "string",
							"description": "A concise answer",
						},
						"difficulty": map[string]any{
							"type": "string",
							"enum": []any{"easy", "medium", "hard"},
						},
					},
					"required":             []any{"front", "back", "difficulty"},
					"additionalProperties": false,
				},
			},
			"summary": map[string]any{
				"type":        "string",
				"description": "Brief summary of the key concepts",
			},
		},
		"required":             []any{"cards", "summary"},
		"additionalProperties": false,
	},
}

// CourseSchema defines the JSON schema for a course outline.
var CourseSchema = &llm.Schema{
	Name:        "course-outline",
	Description: "A short learning path split into modules",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"modules": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{
							"type": "string",
						},
						"description": map[string]any{
							"type": "string",
						},
						"topics": stringArray("2-4 topics covered by the module"),
					},
					"required":             []any{"title", "description", "topics"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"modules"},
		"additionalProperties": false,
	},
}

// DoubtSchema defines the JSON schema for answering a student's question.
var DoubtSchema = &llm.Schema{
	Name:        "doubt-answer",
	Description: "An answer to a student's question with supporting explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer": map[string]any{
				"type":        "string",
				"description": "Direct answer to the question",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Detailed explanation suitable for a student",
			},
			"keyPoints":         stringArray("2-4 key points"),
			"relatedConcepts":   stringArray("Related concepts worth studying"),
			"followUpQuestions": stringArray("Questions the student could ask next"),
			"difficulty": map[string]any{
				"type": "string",
				"enum": []any{"beginner", "intermediate", "advanced"},
			},
		},
		"required":             []any{"answer", "explanation", "keyPoints", "relatedConcepts", "followUpQuestions", "difficulty"},
		"additionalProperties": false,
	},
}

// LessonSummarySchema defines the JSON schema for condensing a long lesson.
var LessonSummarySchema = &llm.Schema{
	Name:        "lesson-summary",
	Description: "Condensed version of a lesson keeping its key facts",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "5-8 sentence summary of the lesson",
			},
		},
		"required":             []any{"summary"},
		"additionalProperties": false,
	},
}

// InsightsSchema defines the JSON schema for learner insights.
var InsightsSchema = &llm.Schema{
	Name:        "learner-insights",
	Description: "Holistic learner summary of strengths, weaknesses, and patterns",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "3-5 sentence overview of the learner's progress",
			},
			"strengths":  stringArray("2-4 specific strengths (5-10 words each)"),
			"weaknesses": stringArray("2-4 specific weaknesses (5-10 words each)"),
			"patterns":   stringArray("1-3 observed patterns (5-10 words each)"),
		},
		"required":             []any{"summary", "strengths", "weaknesses", "patterns"},
		"additionalProperties": false,
	},
}
