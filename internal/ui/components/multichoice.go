// Package components holds reusable Bubble Tea widgets.
package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studywise/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. Once submitted it shows the
// correct option and, when different, the chosen one.
type MultiChoice struct {
	Question     string
	Options      []string
	CorrectIndex int // -1 when unknown
	Selected     int
	Submitted    bool
	ChosenIndex  int
}

// NewMultiChoice creates a multiple-choice selector.
func NewMultiChoice(question string, options []string, correctIndex int) MultiChoice {
	return MultiChoice{
		Question:     question,
		Options:      options,
		CorrectIndex: correctIndex,
		ChosenIndex:  -1,
	}
}

// Update handles keyboard navigation and selection. Digits 1-9 pick an
// option directly.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted {
		return m, nil
	}
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter", "space":
		m.submit(m.Selected)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < len(m.Options) {
				m.Selected = i
				m.submit(i)
			}
		}
	}
	return m, nil
}

func (m *MultiChoice) submit(i int) {
	m.Submitted = true
	m.ChosenIndex = i
}

// Chosen returns the submitted option, or "" before submission.
func (m MultiChoice) Chosen() string {
	if !m.Submitted || m.ChosenIndex < 0 {
		return ""
	}
	return m.Options[m.ChosenIndex]
}

// IsCorrect reports whether the submitted option is the correct one.
func (m MultiChoice) IsCorrect() bool {
	return m.Submitted && m.ChosenIndex == m.CorrectIndex
}

// View renders the question and its options.
func (m MultiChoice) View() string {
	s := theme.Body.Bold(true).Render(m.Question) + "\n\n"

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)

		switch {
		case m.Submitted && i == m.CorrectIndex:
			s += theme.Correct.Render(line)
		case m.Submitted && i == m.ChosenIndex:
			s += theme.Incorrect.Render(line)
		case m.Submitted:
			s += theme.Dim.Render(line)
		case i == m.Selected:
			s += theme.Selected.Render(line)
		default:
			s += theme.Unselected.Render(line)
		}
		s += "\n"
	}
	return s
}
