package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/advisor-backend/internal/platform/envutil"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiErrors   *Counter

	llmRequests *CounterVec
	llmLatency  *HistogramVec

	intents        *CounterVec
	actions        *CounterVec
	counsellor     *CounterVec
	chatLatency    *HistogramVec
	rateLimited    *CounterVec
	fingerprintHit *Counter
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init returns the process-wide registry, or nil when METRICS_ENABLED is off.
// Every method tolerates a nil receiver.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New builds an unregistered set of metric families.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("advisor_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"advisor_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("advisor_api_inflight_requests", "In-flight API requests."),
		apiErrors:   NewCounter("advisor_api_server_errors_total", "API responses with a 5xx status."),
		llmRequests: NewCounterVec("advisor_llm_requests_total", "LLM attempts by provider/model/outcome.", []string{"provider", "model", "outcome"}),
		llmLatency: NewHistogramVec(
			"advisor_llm_request_duration_seconds",
			"LLM attempt latency in seconds by provider/model/outcome.",
			[]string{"provider", "model", "outcome"},
			[]float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		),
		intents:     NewCounterVec("advisor_intents_total", "Classified chat intents.", []string{"intent"}),
		actions:     NewCounterVec("advisor_actions_total", "Counsellor actions by type/result.", []string{"type", "result"}),
		counsellor:  NewCounterVec("advisor_counsellor_outcomes_total", "Counsellor turns by outcome.", []string{"outcome"}),
		chatLatency: NewHistogramVec("advisor_chat_turn_duration_seconds", "End-to-end chat turn latency.", []string{"outcome"}, []float64{0.5, 1, 2, 4, 8, 15, 30, 60}),
		rateLimited: NewCounterVec("advisor_rate_limited_total", "Requests rejected by the rate limiter.", []string{"scope"}),
		fingerprintHit: NewCounter(
			"advisor_repeated_reply_total",
			"Assistant replies whose fingerprint matched a recent reply in the same session.",
		),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	families := []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.llmRequests, m.llmLatency,
		m.intents, m.actions, m.counsellor, m.chatLatency,
		m.rateLimited, m.fingerprintHit,
	}
	for _, f := range families {
		if err := f.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if isServerErrorStatus(status) {
		m.apiErrors.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveLLMRequest records one provider attempt. It satisfies llm.Observer.
func (m *Metrics) ObserveLLMRequest(provider, model, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(provider, model, outcome)
	m.llmLatency.Observe(dur.Seconds(), provider, model, outcome)
}

func (m *Metrics) IncIntent(intent string) {
	if m == nil {
		return
	}
	m.intents.Inc(intent)
}

// IncAction counts an action by its result: executed, blocked or failed.
func (m *Metrics) IncAction(actionType, result string) {
	if m == nil {
		return
	}
	m.actions.Inc(actionType, result)
}

func (m *Metrics) ObserveChatTurn(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.counsellor.Inc(outcome)
	m.chatLatency.Observe(dur.Seconds(), outcome)
}

func (m *Metrics) IncRateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimited.Inc(scope)
}

func (m *Metrics) IncRepeatedReply() {
	if m == nil {
		return
	}
	m.fingerprintHit.Inc()
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	return len(status) == 3 && status[0] == '5'
}
