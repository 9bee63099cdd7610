package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Client is one credential bound to one inference endpoint.
type Client interface {
	Provider() string
	Model() string
	// GenerateJSON asks the model for a JSON object and returns the raw text,
	// unparsed, so callers can recover from malformed output.
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)
}

type Config struct {
	DefaultProvider string
	// Models maps provider -> model name; missing providers use DefaultModel.
	Models      map[string]string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

func (c Config) modelFor(provider string) string {
	if m := strings.TrimSpace(c.Models[provider]); m != "" {
		return m
	}
	return DefaultModel(provider)
}

func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	default:
		return "gemini-2.0-flash"
	}
}

type Credential struct {
	Provider string
	Key      string
}

// ParseCredentials turns raw entries ("key" or "provider:key") into credentials.
// Unknown prefixes are treated as part of the key.
func ParseCredentials(entries []string, defaultProvider string) []Credential {
	defaultProvider = normalizeProvider(defaultProvider)
	seen := map[string]bool{}
	out := make([]Credential, 0, len(entries))
	for _, raw := range entries {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		cred := Credential{Provider: defaultProvider, Key: raw}
		if prefix, rest, ok := strings.Cut(raw, ":"); ok && strings.TrimSpace(rest) != "" {
			if p, known := knownProvider(prefix); known {
				cred = Credential{Provider: p, Key: strings.TrimSpace(rest)}
			}
		}
		id := cred.Provider + "|" + cred.Key
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, cred)
	}
	return out
}

func knownProvider(p string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case ProviderOpenAI:
		return ProviderOpenAI, true
	case ProviderAnthropic, "claude":
		return ProviderAnthropic, true
	case ProviderGemini, "google":
		return ProviderGemini, true
	default:
		return "", false
	}
}

// normalizeProvider falls back to Gemini for empty or unknown names.
func normalizeProvider(p string) string {
	if known, ok := knownProvider(p); ok {
		return known
	}
	return ProviderGemini
}

// NewClient builds the provider client for one credential.
func NewClient(ctx context.Context, cred Credential, cfg Config) (Client, error) {
	if strings.TrimSpace(cred.Key) == "" {
		return nil, fmt.Errorf("llm: empty api key for provider %s", cred.Provider)
	}
	switch cred.Provider {
	case ProviderOpenAI:
		return newOpenAIClient(cred.Key, cfg.modelFor(ProviderOpenAI), cfg), nil
	case ProviderAnthropic:
		return newAnthropicClient(cred.Key, cfg.modelFor(ProviderAnthropic), cfg), nil
	case ProviderGemini:
		c, err := newGeminiClient(ctx, cred.Key, cfg.modelFor(ProviderGemini), cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cred.Provider)
	}
}

// NewPoolFromCredentials builds one instrumented client per credential,
// skipping (and logging) credentials whose client cannot be constructed.
func NewPoolFromCredentials(ctx context.Context, creds []Credential, cfg Config, obs Observer, log *logger.Logger) *Pool {
	clients := make([]Client, 0, len(creds))
	for i, cred := range creds {
		c, err := NewClient(ctx, cred, cfg)
		if err != nil {
			if log != nil {
				log.Warn("llm client init failed; credential skipped", "index", i, "provider", cred.Provider, "error", err)
			}
			continue
		}
		clients = append(clients, Instrument(c, obs, log))
	}
	if log != nil {
		log.Info("llm credential pool ready", "size", len(clients))
	}
	return NewPool(clients...)
}
