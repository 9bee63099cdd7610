// Package writing holds the counsellor's standalone writing tools: SOP
// review and cold email drafting. Both make one JSON request per call and
// rotate credentials only on quota errors.
package writing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/advisor-backend/internal/platform/llm"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

// ErrUnavailable wraps every failure to obtain a usable model reply.
var ErrUnavailable = errors.New("writing assistant unavailable")

type Assistant struct {
	pool *llm.Pool
	log  *logger.Logger
}

func NewAssistant(pool *llm.Pool, log *logger.Logger) *Assistant {
	if log == nil {
		log = logger.Nop()
	}
	return &Assistant{pool: pool, log: log.With("module", "writing")}
}

// generate asks the pool for a JSON reply and decodes it into out. Quota
// errors move on to an unused credential; anything else stops.
func (a *Assistant) generate(ctx context.Context, system, prompt string, out any) error {
	size := a.pool.Size()
	if size == 0 {
		return fmt.Errorf("%w: %w", ErrUnavailable, llm.ErrNotConfigured)
	}
	exclude := make(map[int]bool, size)
	var last error
	for len(exclude) < size {
		client, idx, err := a.pool.Acquire(exclude)
		if err != nil {
			last = err
			break
		}
		exclude[idx] = true
		text, err := client.GenerateJSON(ctx, system, prompt)
		if err != nil {
			last = err
			if ctx.Err() == nil && llm.IsQuota(err) {
				a.log.Warn("writing quota error", "credential", idx, "provider", client.Provider())
				continue
			}
			a.log.Error("writing request failed", "provider", client.Provider(), "error", err)
			break
		}
		if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), out); err != nil {
			return fmt.Errorf("%w: decode reply: %w", ErrUnavailable, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, last)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
