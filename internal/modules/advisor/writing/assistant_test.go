package writing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/advisor-backend/internal/platform/llm"
	"github.com/yungbote/advisor-backend/internal/platform/llm/llmtest"
)

const reviewReply = "```json\n" + `{"overall_score": 130, "strengths": ["clear motivation", " "], "weaknesses": ["generic closing"], "grammar_mistakes": [], "improved_snippet": " Better. ", "ai_feedback": "Solid draft."}` + "\n```"

func TestReviewSOPParsesAndClamps(t *testing.T) {
	c := llmtest.Text(reviewReply)
	a := NewAssistant(llm.NewPool(c), nil)

	got, err := a.ReviewSOP(context.Background(), SOPRequest{Text: "My statement.", UniversityName: "TU Munich", ProgramName: "MSc Informatics"})
	require.NoError(t, err)
	require.Equal(t, 100, got.OverallScore)
	require.Equal(t, []string{"clear motivation"}, got.Strengths)
	require.Equal(t, []string{"generic closing"}, got.Weaknesses)
	require.Empty(t, got.GrammarMistakes)
	require.Equal(t, "Better.", got.ImprovedSnippet)
	require.Equal(t, "Solid draft.", got.AIFeedback)

	require.Len(t, c.Prompts(), 1)
	require.Contains(t, c.Prompts()[0], "the MSc Informatics program at TU Munich")
	require.Contains(t, c.Prompts()[0], "My statement.")
}

func TestReviewSOPRotatesOnQuota(t *testing.T) {
	quota := llmtest.Failing(errors.New("429 Too Many Requests"))
	ok := llmtest.Text(reviewReply)
	a := NewAssistant(llm.NewPool(quota, ok), nil)

	_, err := a.ReviewSOP(context.Background(), SOPRequest{Text: "x"})
	require.NoError(t, err)
	require.Equal(t, 1, ok.Calls())
	require.LessOrEqual(t, quota.Calls(), 1)
}

func TestReviewSOPHardErrorStops(t *testing.T) {
	a1, a2 := llmtest.Failing(errors.New("invalid argument")), llmtest.Failing(errors.New("invalid argument"))
	a := NewAssistant(llm.NewPool(a1, a2), nil)

	_, err := a.ReviewSOP(context.Background(), SOPRequest{Text: "x"})
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 1, a1.Calls()+a2.Calls())
}

func TestAssistantWithoutCredentials(t *testing.T) {
	a := NewAssistant(llm.NewPool(), nil)
	_, err := a.ReviewSOP(context.Background(), SOPRequest{Text: "x"})
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, llm.ErrNotConfigured)
}

func TestDraftColdEmail(t *testing.T) {
	c := llmtest.Text(`{"subject_line": "Prospective MS student: robot learning", "email_body": "Dear Professor Ng, ..."}`)
	a := NewAssistant(llm.NewPool(c), nil)

	req := ColdEmailRequest{ProfessorName: "Ng", UniversityName: "Stanford", ResearchArea: "robot learning", PaperTitle: "Policy Search"}
	require.NoError(t, req.Validate())
	require.Equal(t, DefaultTone, req.Tone)

	got, err := a.DraftColdEmail(context.Background(), "GPA 3.8, BSc Computer Science", req)
	require.NoError(t, err)
	require.Equal(t, "Prospective MS student: robot learning", got.SubjectLine)

	prompt := c.Prompts()[0]
	require.Contains(t, prompt, "professional cold email to Professor Ng at Stanford")
	require.Contains(t, prompt, `"Policy Search"`)
	require.Contains(t, prompt, "GPA 3.8")
}

func TestDraftColdEmailRejectsEmptyReply(t *testing.T) {
	a := NewAssistant(llm.NewPool(llmtest.Text(`{"subject_line": ""}`)), nil)
	_, err := a.DraftColdEmail(context.Background(), "", ColdEmailRequest{ProfessorName: "A", UniversityName: "B", ResearchArea: "C", Tone: DefaultTone})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestColdEmailValidate(t *testing.T) {
	req := ColdEmailRequest{ProfessorName: " ", ResearchArea: "nlp"}
	err := req.Validate()
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "professor_name"))
	require.Contains(t, err.Error(), "university_name")
	require.NotContains(t, err.Error(), "research_area")
}

func TestWordCount(t *testing.T) {
	require.Equal(t, 0, WordCount("   "))
	require.Equal(t, 3, WordCount("one  two\nthree"))
}
