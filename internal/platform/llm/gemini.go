package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type geminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func newGeminiClient(ctx context.Context, apiKey, model string, cfg Config) (*geminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &geminiClient{
		client:      client,
		model:       model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

func (c *geminiClient) Provider() string { return ProviderGemini }
func (c *geminiClient) Model() string    { return c.model }

func (c *geminiClient) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	m := c.client.GenerativeModel(c.model)
	m.ResponseMIMEType = "application/json"
	if c.temperature > 0 {
		m.SetTemperature(c.temperature)
	}
	if c.maxTokens > 0 {
		m.SetMaxOutputTokens(c.maxTokens)
	}
	if strings.TrimSpace(system) != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if resp != nil {
		for _, cand := range resp.Candidates {
			if cand == nil || cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					sb.WriteString(string(t))
				}
			}
			// First candidate with content wins.
			if sb.Len() > 0 {
				break
			}
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("gemini: empty completion")
	}
	return text, nil
}

func (c *geminiClient) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func googleStatus(err error) int {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr != nil {
		return gErr.Code
	}
	return 0
}
