package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

// Observer receives one observation per inference attempt.
type Observer interface {
	ObserveLLMRequest(provider, model, outcome string, dur time.Duration)
}

type instrumentedClient struct {
	inner Client
	obs   Observer
	log   *logger.Logger
}

// Instrument wraps c with a span, a metrics observation and a debug log per call.
func Instrument(c Client, obs Observer, log *logger.Logger) Client {
	if c == nil {
		return nil
	}
	if log == nil {
		log = logger.Nop()
	}
	return &instrumentedClient{
		inner: c,
		obs:   obs,
		log:   log.With("client", "llm", "provider", c.Provider(), "model", c.Model()),
	}
}

func (c *instrumentedClient) Provider() string { return c.inner.Provider() }
func (c *instrumentedClient) Model() string    { return c.inner.Model() }

func (c *instrumentedClient) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := otel.Tracer("advisor/llm").Start(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.inner.Provider()),
		attribute.String("llm.model", c.inner.Model()),
		attribute.Int("llm.prompt_chars", len(prompt)),
	)

	start := time.Now()
	text, err := c.inner.GenerateJSON(ctx, system, prompt)
	dur := time.Since(start)
	outcome := Outcome(err)

	if c.obs != nil {
		c.obs.ObserveLLMRequest(c.inner.Provider(), c.inner.Model(), outcome, dur)
	}
	span.SetAttributes(attribute.String("llm.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		c.log.Warn("llm request failed", "outcome", outcome, "duration_ms", dur.Milliseconds(), "error", err)
		return "", err
	}
	c.log.Debug("llm request ok", "duration_ms", dur.Milliseconds(), "response_chars", len(text))
	return text, nil
}

func (c *instrumentedClient) Close() error {
	if closer, ok := c.inner.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
