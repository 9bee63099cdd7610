package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrNotConfigured means the pool holds no credentials at all.
	ErrNotConfigured = errors.New("llm: no credentials configured")
	// ErrPoolExhausted means every credential was excluded by the caller.
	ErrPoolExhausted = errors.New("llm: credential pool exhausted")
)

// QuotaError marks a capacity failure raised by a client or a test double.
type QuotaError struct {
	Provider string
	Err      error
}

func (e *QuotaError) Error() string {
	if e == nil || e.Err == nil {
		return "llm: quota exceeded"
	}
	return e.Err.Error()
}

func (e *QuotaError) Unwrap() error { return e.Err }

var quotaMarkers = []string{
	"429",
	"resource_exhausted",
	"resource exhausted",
	"quota",
	"rate limit",
	"rate_limit",
	"too many requests",
}

// IsQuota reports whether err is a transient capacity error worth retrying on
// another credential.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	var qe *QuotaError
	if errors.As(err, &qe) {
		return true
	}
	if StatusCode(err) == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// StatusCode extracts the HTTP status carried by a provider SDK error, or 0.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}
	var sc interface{ HTTPStatusCode() int }
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	if code := openAIStatus(err); code != 0 {
		return code
	}
	if code := anthropicStatus(err); code != 0 {
		return code
	}
	return googleStatus(err)
}

// Outcome labels an attempt for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsQuota(err):
		return "quota"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
