package lessons

import (
	"fmt"
	"strings"

	"github.com/abhisek/studywise/internal/student"
)

const tutorSystemPrompt = `You are an expert tutor for students preparing for competitive exams like JEE, NEET, UPSC, and GATE. You explain complex topics as simply as possible, as if teaching a complete beginner.`

func buildTutorUserMessage(topic string, withImage bool) string {
	var b strings.Builder

	if withImage {
		b.WriteString("The student has uploaded an image (a problem, a diagram, or a page of text) and asked a question about it.\n")
		b.WriteString(fmt.Sprintf("Student's question: %s\n", topic))
		b.WriteString(`
Instructions:
1. Analyze the image. Read any text in it and understand the diagram or problem.
2. Answer the question with a clear, beginner-friendly explanation using simple analogies.
3. Make sure the explanation is accurate and gives a solid foundation.
4. Do not use any formatting like markdown, bold text, or lists. Write plain text only.`)
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Topic: %s\n", topic))
	b.WriteString(fmt.Sprintf(`
Instructions:
1. Start your response with: "Of course. Here is a beginner-friendly explanation of %s."
2. Use easy-to-understand examples and simple analogies (like comparing electrical resistance to water flowing through a narrow pipe) to break down the core concepts.
3. Make sure the explanation is accurate and gives a solid foundation for someone who will study this topic in more detail for an exam.
4. Do not use any formatting like markdown, bold text, or lists. Write plain text only.`, topic))
	return b.String()
}

const quizSystemPrompt = `You are an expert test maker. You write multiple-choice questions based only on the text you are given.`

func buildQuizUserMessage(lesson string) string {
	var b strings.Builder

	b.WriteString("Lesson text:\n")
	b.WriteString(lesson)
	b.WriteString(fmt.Sprintf(`

Instructions:
1. Create a %d-question multiple-choice quiz based ONLY on the lesson text above.
2. Each question must have exactly %d options, written as "A. ...", "B. ...", "C. ...".
3. The answer must be one of the options, copied exactly.
4. Respond with JSON only.`, QuizQuestions, QuizOptions))
	return b.String()
}

const flashcardSystemPrompt = `You are an expert educator who turns study material into flashcards.`

func buildFlashcardUserMessage(topic, content string, count int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Topic: %s\n", topic))
	b.WriteString("Content:\n")
	b.WriteString(content)
	b.WriteString(fmt.Sprintf(`

Instructions:
1. Create exactly %d flashcards from the content above.
2. Each card has a clear question on the front and a concise answer on the back.
3. Include a mix of difficulty levels (easy, medium, hard).
4. Add a brief summary of the key concepts.`, count))
	return b.String()
}

const courseSystemPrompt = `You are an expert curriculum designer. You build short, practical, exam-focused learning paths.`

func buildCourseUserMessage(goal string, level student.Level) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Goal: %s\n", goal))
	b.WriteString(fmt.Sprintf("Level: %s\n", level))
	b.WriteString(`
Instructions:
1. Create a focused learning path of 3-5 modules for this goal.
2. Give every module a title, a one-sentence description and 2-4 topics.
3. Order modules so each builds on the previous one.`)
	return b.String()
}

const doubtSystemPrompt = `You are an expert tutor helping a student with a doubt. You are encouraging and make complex concepts simple, using analogies when helpful.`

func buildDoubtUserMessage(question, topic, lessonContext string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Topic: %s\n", topic))
	if lessonContext != "" {
		b.WriteString(fmt.Sprintf("\nContext from lesson:\n%s\n", lessonContext))
	}
	b.WriteString(fmt.Sprintf("\nStudent's question:\n%s\n", question))
	b.WriteString(`
Instructions:
Give a comprehensive but concise answer: a direct answer, a detailed explanation, 2-4 key points, related concepts, the difficulty of the question and 2 follow-up questions the student could ask next.`)
	return b.String()
}

const hintsSystemPrompt = `You are a tutor who guides students toward solving problems themselves without revealing the answer.`

var hintLevels = map[int]string{
	1: "general hints to get started",
	2: "more specific hints pointing toward the solution",
	3: "nearly complete hints just before the solution",
}

func buildHintsUserMessage(problem, topic string, level int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Topic: %s\n", topic))
	b.WriteString(fmt.Sprintf("Problem:\n%s\n", problem))
	b.WriteString(fmt.Sprintf(`
Instructions:
Provide %s. Give 2-3 hints that guide the student without revealing the answer.
Format them as a JSON array of strings: ["hint1", "hint2", "hint3"]`, hintLevels[level]))
	return b.String()
}

const condenseSystemPrompt = `You are condensing a lesson so it can be used as context for answering a student's question. Keep every fact, definition and formula the lesson relies on.`

func buildCondenseUserMessage(lesson string) string {
	var b strings.Builder

	b.WriteString("Lesson:\n")
	b.WriteString(lesson)
	b.WriteString(`

Instructions:
Summarize the lesson in 5-8 sentences. Drop greetings, repetition and analogies; keep definitions, formulas and the key steps of any worked example.`)
	return b.String()
}

const insightsSystemPrompt = `You are creating a learner profile for a study companion. The profile helps a student preparing for competitive exams decide what to study next.`

func buildInsightsUserMessage(input InsightsInput) string {
	var b strings.Builder

	if s := input.Stats; s != nil {
		b.WriteString(fmt.Sprintf("Quizzes taken: %d, average score: %d%%, day streak: %d\n",
			s.TotalQuizzesTaken, s.AverageScore, s.Streak))
		b.WriteString("\nTopics:\n")
		for _, t := range s.TopicBreakdown {
			state := "learning"
			if t.Mastered {
				state = "mastered"
			}
			b.WriteString(fmt.Sprintf("- %s: %d quizzes, average %d%% (%s)\n",
				t.Topic, t.QuizzesTaken, t.AverageScore, state))
		}
	}

	if len(input.Recent) > 0 {
		b.WriteString("\nRecent mistakes:\n")
		for _, q := range input.Recent {
			for _, r := range q.QuestionsAnswered {
				if r.IsCorrect {
					continue
				}
				b.WriteString(fmt.Sprintf("- [%s] %s answered %q, correct was %q\n",
					q.Topic, r.Question, r.SelectedAnswer, r.CorrectAnswer))
			}
		}
	}

	b.WriteString(`
Instructions:
Create a concise learner profile:
1. Write a 3-5 sentence summary of the student's progress, focusing on what they know well and where they need work.
2. List 2-4 specific strengths.
3. List 2-4 specific weaknesses.
4. List 1-3 patterns in their mistakes.
Keep all list entries to 5-10 words each.`)
	return b.String()
}
