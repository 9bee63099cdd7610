package writing

import (
	"context"
	"fmt"
	"strings"
)

// MinSOPWords is the shortest statement worth reviewing.
const MinSOPWords = 50

type SOPRequest struct {
	Text           string `json:"text"`
	UniversityName string `json:"university_name,omitempty"`
	ProgramName    string `json:"program_name,omitempty"`
}

type SOPReview struct {
	OverallScore    int      `json:"overall_score"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	GrammarMistakes []string `json:"grammar_mistakes"`
	ImprovedSnippet string   `json:"improved_snippet,omitempty"`
	AIFeedback      string   `json:"ai_feedback"`
}

// WordCount splits on whitespace.
func WordCount(text string) int { return len(strings.Fields(text)) }

var sopSystemPrompt = strings.Join([]string{
	"You are an admissions reviewer who critiques statements of purpose for graduate programs abroad.",
	"Be specific and constructive. Return strict JSON only.",
}, "\n")

func sopPrompt(req SOPRequest) string {
	target := "a graduate program abroad"
	switch {
	case req.ProgramName != "" && req.UniversityName != "":
		target = fmt.Sprintf("the %s program at %s", req.ProgramName, req.UniversityName)
	case req.UniversityName != "":
		target = req.UniversityName
	case req.ProgramName != "":
		target = "the " + req.ProgramName + " program"
	}
	return strings.Join([]string{
		"Review this statement of purpose written for " + target + ".",
		`Return JSON: {"overall_score": 0-100, "strengths": ["..."], "weaknesses": ["..."], "grammar_mistakes": ["..."], "improved_snippet": "...", "ai_feedback": "..."}`,
		"improved_snippet rewrites the weakest paragraph. ai_feedback is two or three sentences.",
		"",
		"SOP:",
		req.Text,
	}, "\n")
}

// ReviewSOP scores a statement of purpose. Callers enforce MinSOPWords.
func (a *Assistant) ReviewSOP(ctx context.Context, req SOPRequest) (*SOPReview, error) {
	var out SOPReview
	if err := a.generate(ctx, sopSystemPrompt, sopPrompt(req), &out); err != nil {
		return nil, err
	}
	out.OverallScore = min(max(out.OverallScore, 0), 100)
	out.Strengths = cleanList(out.Strengths)
	out.Weaknesses = cleanList(out.Weaknesses)
	out.GrammarMistakes = cleanList(out.GrammarMistakes)
	out.ImprovedSnippet = strings.TrimSpace(out.ImprovedSnippet)
	out.AIFeedback = strings.TrimSpace(out.AIFeedback)
	return &out, nil
}
