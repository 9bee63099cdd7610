package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/advisor-backend/internal/observability"
	"github.com/yungbote/advisor-backend/internal/platform/fingerprint"
	"github.com/yungbote/advisor-backend/internal/platform/llm"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
	"github.com/yungbote/advisor-backend/internal/platform/ratelimit"
	"github.com/yungbote/advisor-backend/internal/platform/redisdb"
)

type Clients struct {
	Redis        *goredis.Client
	LLM          *llm.Pool
	Fingerprints fingerprint.Store
	ChatLimiter  ratelimit.Limiter
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis is optional; without it fingerprints and rate limits stay in process.
	rdb, err := redisdb.Connect(ctx, cfg.Redis, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}

	var (
		store   fingerprint.Store
		limiter ratelimit.Limiter
	)
	if rdb != nil {
		store = fingerprint.NewRedisStore(rdb, cfg.FingerprintTTL, fingerprint.DefaultKeep)
		limiter = ratelimit.NewRedis(rdb, cfg.ChatRateLimit)
	} else {
		log.Info("REDIS_ADDR not set; using in-memory fingerprint store and rate limiter")
		store = fingerprint.NewMemoryStore(cfg.FingerprintTTL, fingerprint.DefaultKeep)
		limiter = ratelimit.NewMemory(cfg.ChatRateLimit)
	}

	pool := llm.NewPoolFromCredentials(ctx, cfg.LLMCredentials, cfg.LLM, metrics, log)

	return Clients{
		Redis:        rdb,
		LLM:          pool,
		Fingerprints: store,
		ChatLimiter:  limiter,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.LLM != nil {
		_ = c.LLM.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
