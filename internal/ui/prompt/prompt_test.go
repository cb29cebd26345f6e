package prompt

import (
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func typeText(m tea.Model, s string) tea.Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	return m
}

func TestPrompt_Submit(t *testing.T) {
	var m tea.Model = New("What do you want to learn?", "e.g. photosynthesis")
	m = typeText(m, "  inertia ")
	m, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected quit on enter")
	}
	got, err := m.(Model).Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inertia" {
		t.Errorf("Value = %q, want %q", got, "inertia")
	}
}

func TestPrompt_EmptyEnterIgnored(t *testing.T) {
	var m tea.Model = New("Question", "")
	m, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no quit on empty input")
	}
	if _, err := m.(Model).Value(); !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled before submit, got %v", err)
	}
}

func TestPrompt_Cancel(t *testing.T) {
	var m tea.Model = New("Question", "")
	m = typeText(m, "why")
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if _, err := m.(Model).Value(); !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}
