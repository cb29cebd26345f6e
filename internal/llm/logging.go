package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/studywise/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner     Provider
	provider  string
	eventRepo store.EventRepo
	logger    *zap.Logger
}

// WithLogging wraps a Provider with event logging. provider names the
// backend in the recorded events. A nil logger discards diagnostics.
func WithLogging(p Provider, provider string, repo store.EventRepo, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingProvider{inner: p, provider: provider, eventRepo: repo, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	data := l.event(ctx, req, start, err)
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}
	l.record(ctx, data)

	return resp, err
}

func (l *LoggingProvider) GenerateStream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		start := time.Now()
		var (
			body    strings.Builder
			lastErr error
		)
		for chunk, err := range l.inner.GenerateStream(ctx, req) {
			if err != nil {
				lastErr = err
			} else {
				body.WriteString(chunk)
			}
			if !yield(chunk, err) {
				break
			}
		}
		data := l.event(ctx, req, start, lastErr)
		data.ResponseBody = body.String()
		l.record(ctx, data)
	}
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *LoggingProvider) event(ctx context.Context, req Request, start time.Time, err error) store.LLMRequestEventData {
	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     string(PurposeFrom(ctx)),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}
	return data
}

// record stores the event but never fails the request.
func (l *LoggingProvider) record(ctx context.Context, data store.LLMRequestEventData) {
	l.logger.Debug("llm request",
		zap.String("purpose", data.Purpose),
		zap.String("model", data.Model),
		zap.Int64("latency_ms", data.LatencyMs),
		zap.Bool("success", data.Success),
	)
	if l.eventRepo == nil {
		return
	}
	if err := l.eventRepo.AppendLLMRequest(context.WithoutCancel(ctx), data); err != nil {
		l.logger.Warn("failed to log LLM request event", zap.Error(err))
	}
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		b.WriteString(fmt.Sprintf("[%s]\n", m.Role))
		b.WriteString(m.Content)
		b.WriteString("\n")
		for _, img := range m.Images {
			b.WriteString(fmt.Sprintf("[inline %s, %d bytes]\n", img.MIMEType, len(img.Data)))
		}
		b.WriteString("\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			b.WriteString(fmt.Sprintf("[schema: %s]\n", req.Schema.Name))
			b.WriteString(string(schemaDef))
			b.WriteString("\n")
		}
	}

	return b.String()
}
