package counsellor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/advisor-backend/internal/modules/advisor/delta"
	"github.com/yungbote/advisor-backend/internal/platform/llm"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

const (
	msgNotConfigured = "AI Counsellor is not configured. Please set LLM_API_KEYS or GEMINI_API_KEYS."
	msgHighDemand    = "I'm experiencing high demand right now. Please try again in about 30 seconds."
	msgFailed        = "I apologize, but I'm having trouble connecting to the AI service. Please try again shortly."
)

func msgQuotaExhausted(attempts int) string {
	return fmt.Sprintf("AI Service is temporarily unavailable due to high traffic (Quota exceeded after %d attempts). Please try again in a few minutes.", attempts)
}

type Request struct {
	Context string
	Message string
	// RecentFingerprints are delta.Fingerprint values of recent assistant
	// replies in the same session.
	RecentFingerprints []string
}

// Sleeper waits d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Backoff is the pause before retry number attempt (1-based): one second per
// attempt, capped at three.
func Backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * time.Second
	if d > 3*time.Second {
		d = 3 * time.Second
	}
	return d
}

type Option func(*Orchestrator)

func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

func WithEntropy(f func() string) Option {
	return func(o *Orchestrator) { o.entropy = f }
}

type Orchestrator struct {
	pool    *llm.Pool
	log     *logger.Logger
	sleep   Sleeper
	backoff func(int) time.Duration
	entropy func() string
}

func NewOrchestrator(pool *llm.Pool, log *logger.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	o := &Orchestrator{
		pool:    pool,
		log:     log.With("step", "counsellor"),
		sleep:   sleepCtx,
		backoff: Backoff,
		entropy: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Respond runs the attempt loop and always returns a well-formed envelope.
// Attempts are bounded by the pool size and each uses a distinct credential.
func (o *Orchestrator) Respond(ctx context.Context, req Request) Envelope {
	ctx, span := otel.Tracer("advisor").Start(ctx, "counsellor.respond")
	defer span.End()

	env := o.respond(ctx, req)
	span.SetAttributes(
		attribute.String("counsellor.outcome", string(env.Outcome)),
		attribute.Int("counsellor.attempts", env.Attempts),
		attribute.Int("counsellor.actions", len(env.Actions)),
	)
	return env
}

func (o *Orchestrator) respond(ctx context.Context, req Request) Envelope {
	size := o.pool.Size()
	if size == 0 {
		o.log.Warn("counsellor called without credentials")
		return textEnvelope(OutcomeNotConfigured, 0, msgNotConfigured)
	}

	base := basePrompt(req.Context, req.Message, o.entropy())
	var hints []string
	exclude := make(map[int]bool, size)
	attempts := 0

	for attempts < size {
		client, idx, err := o.pool.Acquire(exclude)
		if err != nil {
			break
		}
		exclude[idx] = true
		attempts++

		text, err := client.GenerateJSON(ctx, systemPrompt, buildPrompt(base, hints))
		if err != nil {
			if ctx.Err() != nil {
				return textEnvelope(OutcomeUnavailable, attempts, msgHighDemand)
			}
			if !llm.IsQuota(err) {
				o.log.Error("counsellor request failed", "attempt", attempts, "provider", client.Provider(), "error", err)
				return textEnvelope(OutcomeFailed, attempts, msgFailed)
			}
			o.log.Warn("counsellor quota error", "attempt", attempts, "credential", idx, "provider", client.Provider())
			if attempts >= size {
				return textEnvelope(OutcomeUnavailable, attempts, msgQuotaExhausted(attempts))
			}
			if err := o.sleep(ctx, o.backoff(attempts)); err != nil {
				return textEnvelope(OutcomeUnavailable, attempts, msgHighDemand)
			}
			continue
		}

		env := ParseEnvelope(text)
		env.Attempts = attempts
		if delta.IsDuplicate(env.Message, req.RecentFingerprints) && attempts < size {
			o.log.Info("counsellor reply repeated a recent reply, regenerating", "attempt", attempts)
			hints = append(hints, doNotRepeatHint)
			continue
		}
		return env
	}
	return textEnvelope(OutcomeUnavailable, attempts, msgHighDemand)
}
