// Package llmtest provides scripted llm.Client doubles for tests.
package llmtest

import (
	"context"
	"sync"
)

// Reply is one scripted response.
type Reply struct {
	Text string
	Err  error
}

// Client replays Replies in order; once exhausted it repeats the last one.
type Client struct {
	Name  string
	Reply []Reply

	mu      sync.Mutex
	calls   int
	prompts []string
	systems []string
}

func (c *Client) Provider() string { return "fake" }

func (c *Client) Model() string {
	if c.Name == "" {
		return "fake-model"
	}
	return c.Name
}

func (c *Client) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	c.systems = append(c.systems, system)
	i := c.calls
	c.calls++
	if len(c.Reply) == 0 {
		return "{}", nil
	}
	if i >= len(c.Reply) {
		i = len(c.Reply) - 1
	}
	return c.Reply[i].Text, c.Reply[i].Err
}

func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Prompts returns a copy of every prompt received.
func (c *Client) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

func (c *Client) Systems() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.systems...)
}

// Text is a convenience for a single successful reply.
func Text(s string) *Client { return &Client{Reply: []Reply{{Text: s}}} }

// Failing always returns err.
func Failing(err error) *Client { return &Client{Reply: []Reply{{Err: err}}} }
