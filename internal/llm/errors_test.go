package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rate limit", &ErrRateLimit{Err: errors.New("429")}, "busy"},
		{"unavailable", fmt.Errorf("tutor lesson: %w", &ErrProviderUnavailable{}), "could not be reached"},
		{"invalid", &ErrInvalidResponse{Err: errors.New("bad json")}, "garbled"},
		{"max tokens", &ErrMaxTokensExceeded{}, "narrower topic"},
		{"deadline", context.DeadlineExceeded, "too long"},
		{"other", errors.New("boom"), "Try again"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("Describe() = %q, want it to mention %q", got, tt.want)
			}
		})
	}
}
