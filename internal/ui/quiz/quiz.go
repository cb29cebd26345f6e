// Package quiz runs a generated quiz interactively in the terminal.
package quiz

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studywise/internal/lessons"
	"github.com/abhisek/studywise/internal/ui/components"
	"github.com/abhisek/studywise/internal/ui/theme"
)

// Result is what the student answered.
type Result struct {
	// Selected[i] is the option picked for question i.
	Selected []string
	Elapsed  time.Duration
	// Aborted is set when the student quit before the last question.
	Aborted bool
}

// Model is the Bubble Tea model of a quiz run. After each answer the
// correct option is revealed until the student moves on.
type Model struct {
	quiz      *lessons.Quiz
	now       func() time.Time
	started   time.Time
	finished  time.Time
	current   int
	choice    components.MultiChoice
	selected  []string
	reviewing bool
	done      bool
	aborted   bool
	width     int
}

// New creates a model for q. now is the clock elapsed time is measured on.
func New(q *lessons.Quiz, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	m := Model{quiz: q, now: now, started: now(), width: 60}
	if len(q.Questions) > 0 {
		m.choice = newChoice(q.Questions[0])
	} else {
		m.done = true
	}
	return m
}

func newChoice(q lessons.QuizQuestion) components.MultiChoice {
	return components.NewMultiChoice(q.Question, q.Options, slices.Index(q.Options, q.Answer))
}

func (m Model) Init() tea.Cmd {
	if m.done {
		return tea.Quit
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.aborted = true
			m.finished = m.now()
			return m, tea.Quit
		}

		if m.reviewing {
			switch msg.String() {
			case "enter", "space":
				return m.next()
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.choice, cmd = m.choice.Update(msg)
		if m.choice.Submitted {
			m.selected = append(m.selected, m.choice.Chosen())
			m.reviewing = true
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) next() (tea.Model, tea.Cmd) {
	m.reviewing = false
	m.current++
	if m.current >= len(m.quiz.Questions) {
		m.done = true
		m.finished = m.now()
		return m, tea.Quit
	}
	m.choice = newChoice(m.quiz.Questions[m.current])
	return m, nil
}

func (m Model) View() tea.View {
	return tea.NewView(m.render())
}

func (m Model) render() string {
	total := len(m.quiz.Questions)
	if m.done || m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Quiz: "+m.quiz.Topic) + "\n\n")
	bar := components.ProgressBar{
		Label:   fmt.Sprintf("Question %d/%d", m.current+1, total),
		Percent: float64(m.current) / float64(total),
		Width:   min(m.width, 60),
	}
	b.WriteString(bar.View() + "\n\n")
	b.WriteString(m.choice.View() + "\n")

	if m.reviewing {
		if m.choice.IsCorrect() {
			b.WriteString(theme.Correct.Render("Correct!") + "\n")
		} else {
			b.WriteString(theme.Incorrect.Render("Not quite.") + " " +
				theme.Body.Render("Answer: "+m.quiz.Questions[m.current].Answer) + "\n")
		}
		b.WriteString(theme.Hint.Render("enter to continue") + "\n")
	} else {
		b.WriteString(theme.Hint.Render("↑/↓ to move, enter or 1-9 to answer, esc to quit") + "\n")
	}
	return b.String()
}

// Result reports the answers given so far.
func (m Model) Result() Result {
	end := m.finished
	if end.IsZero() {
		end = m.now()
	}
	return Result{
		Selected: slices.Clone(m.selected),
		Elapsed:  end.Sub(m.started),
		Aborted:  m.aborted,
	}
}

// Run shows q on the terminal and returns the student's answers.
func Run(q *lessons.Quiz) (Result, error) {
	final, err := tea.NewProgram(New(q, time.Now)).Run()
	if err != nil {
		return Result{}, fmt.Errorf("run quiz: %w", err)
	}
	return final.(Model).Result(), nil
}
