package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/platform/llm"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

const maxChecklistItems = 8

type ChecklistItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

// ChecklistGenerator produces application tasks for a newly locked university.
type ChecklistGenerator interface {
	Generate(ctx context.Context, universityName, country string) ([]ChecklistItem, error)
}

// DefaultChecklist is used whenever generation fails or returns nothing.
func DefaultChecklist(universityName string) []ChecklistItem {
	return []ChecklistItem{
		{Title: "Research " + universityName + " admission requirements", Priority: 1},
		{Title: "Prepare SOP for " + universityName, Priority: 2},
		{Title: "Gather required documents for " + universityName, Priority: 3},
		{Title: "Check application deadline for " + universityName, Priority: 1},
	}
}

var checklistSystemPrompt = strings.Join([]string{
	"You generate application checklists for students applying to universities abroad.",
	"Return strict JSON only.",
}, "\n")

// LLMChecklist asks one credential from the pool for a checklist. It makes a
// single attempt; callers fall back to DefaultChecklist on any error.
type LLMChecklist struct {
	pool *llm.Pool
	log  *logger.Logger
}

func NewLLMChecklist(pool *llm.Pool, log *logger.Logger) *LLMChecklist {
	if log == nil {
		log = logger.Nop()
	}
	return &LLMChecklist{pool: pool, log: log.With("step", "checklist")}
}

func (g *LLMChecklist) Generate(ctx context.Context, universityName, country string) ([]ChecklistItem, error) {
	client, _, err := g.pool.Acquire(nil)
	if err != nil {
		return nil, err
	}
	prompt := strings.Join([]string{
		fmt.Sprintf("Generate an application checklist for %s in %s.", universityName, country),
		`Return JSON: {"tasks": [{"title": "...", "description": "...", "priority": 1}]}`,
		"priority: 1 = high, 2 = medium, 3 = low. Include 4 to 6 concrete tasks:",
		"documents, tests, SOP, recommendation letters and the application deadline.",
	}, "\n")
	text, err := client.GenerateJSON(ctx, checklistSystemPrompt, prompt)
	if err != nil {
		g.log.Warn("checklist generation failed", "university", universityName, "error", err)
		return nil, err
	}
	return ParseChecklist(text)
}

// ParseChecklist accepts {"tasks": [...]} or a bare array. Items without a
// title are dropped and priorities are clamped.
func ParseChecklist(text string) ([]ChecklistItem, error) {
	raw := llm.ExtractJSON(text)
	if open := strings.IndexByte(text, '['); open >= 0 && open < strings.IndexByte(text, '{') {
		if end := strings.LastIndexByte(text, ']'); end > open {
			raw = text[open : end+1]
		}
	}
	var items []ChecklistItem
	var wrapped struct {
		Tasks []ChecklistItem `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Tasks != nil {
		items = wrapped.Tasks
	} else if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parse checklist: %w", err)
	}

	out := make([]ChecklistItem, 0, len(items))
	for _, it := range items {
		it.Title = strings.TrimSpace(it.Title)
		if it.Title == "" {
			continue
		}
		it.Description = strings.TrimSpace(it.Description)
		it.Priority = types.ClampPriority(it.Priority)
		out = append(out, it)
		if len(out) == maxChecklistItems {
			break
		}
	}
	if len(out) == 0 {
		return nil, errors.New("checklist is empty")
	}
	return out, nil
}
