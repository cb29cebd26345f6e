// Package prompt asks the user for a line of text in the terminal.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studywise/internal/ui/components"
	"github.com/abhisek/studywise/internal/ui/theme"
)

// ErrCancelled is returned when the user quits the prompt.
var ErrCancelled = errors.New("prompt cancelled")

// Model is a single-line question.
type Model struct {
	label     string
	input     components.TextInput
	submitted bool
	cancelled bool
}

// New creates a prompt with a label and a placeholder.
func New(label, placeholder string) Model {
	return Model{label: label, input: components.NewTextInput(placeholder, 500)}
}

func (m Model) Init() tea.Cmd {
	return m.input.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if strings.TrimSpace(m.input.Value()) == "" {
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() tea.View {
	if m.submitted || m.cancelled {
		return tea.NewView("")
	}
	return tea.NewView(theme.Title.Render(m.label) + "\n" + m.input.View() + "\n" +
		theme.Hint.Render("enter to submit, esc to cancel") + "\n")
}

// Value returns the trimmed answer.
func (m Model) Value() (string, error) {
	if m.cancelled || !m.submitted {
		return "", ErrCancelled
	}
	return strings.TrimSpace(m.input.Value()), nil
}

// Ask shows the prompt and waits for an answer.
func Ask(label, placeholder string) (string, error) {
	final, err := tea.NewProgram(New(label, placeholder)).Run()
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	return final.(Model).Value()
}
