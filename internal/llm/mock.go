package llm

import (
	"context"
	"encoding/json"
	"iter"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// Chunks, when set, is what GenerateStream yields for this response.
	// Otherwise the stream yields Content as a single chunk.
	Chunks []string
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// MockText is shorthand for a canned plain-text response.
func MockText(text string) MockResponse {
	return MockResponse{Content: json.RawMessage(text)}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	resp, err := m.next(req)
	if err != nil {
		return nil, err
	}

	content := resp.Content
	if req.Schema != nil {
		content, err = structuredContent(req.Schema, string(resp.Content))
		if err != nil {
			return nil, err
		}
	}

	return &Response{
		Content:    content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// GenerateStream yields the next canned response chunk by chunk.
func (m *MockProvider) GenerateStream(_ context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := m.next(req)
		if err != nil {
			yield("", err)
			return
		}
		chunks := resp.Chunks
		if len(chunks) == 0 {
			chunks = []string{string(resp.Content)}
		}
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func (m *MockProvider) next(req Request) (MockResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return MockResponse{}, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]
	if resp.Err != nil {
		return MockResponse{}, resp.Err
	}
	return resp, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate and GenerateStream calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or the zero Request.
func (m *MockProvider) LastCall() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Request{}
	}
	return m.Calls[len(m.Calls)-1]
}
