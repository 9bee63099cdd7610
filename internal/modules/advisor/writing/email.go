package writing

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const DefaultTone = "Professional"

type ColdEmailRequest struct {
	ProfessorName  string `json:"professor_name"`
	UniversityName string `json:"university_name"`
	ResearchArea   string `json:"research_area"`
	PaperTitle     string `json:"paper_title,omitempty"`
	Tone           string `json:"tone"`
}

// Validate requires the professor, university and research area.
func (r *ColdEmailRequest) Validate() error {
	r.ProfessorName = strings.TrimSpace(r.ProfessorName)
	r.UniversityName = strings.TrimSpace(r.UniversityName)
	r.ResearchArea = strings.TrimSpace(r.ResearchArea)
	r.PaperTitle = strings.TrimSpace(r.PaperTitle)
	r.Tone = strings.TrimSpace(r.Tone)
	if r.Tone == "" {
		r.Tone = DefaultTone
	}
	var missing []string
	if r.ProfessorName == "" {
		missing = append(missing, "professor_name")
	}
	if r.UniversityName == "" {
		missing = append(missing, "university_name")
	}
	if r.ResearchArea == "" {
		missing = append(missing, "research_area")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

type ColdEmail struct {
	SubjectLine string `json:"subject_line"`
	EmailBody   string `json:"email_body"`
}

var emailSystemPrompt = strings.Join([]string{
	"You write concise cold emails from prospective graduate students to professors.",
	"Never invent achievements that are not in the student summary. Return strict JSON only.",
}, "\n")

// DraftColdEmail writes a first outreach email. profileSummary describes the
// student in a few lines.
func (a *Assistant) DraftColdEmail(ctx context.Context, profileSummary string, req ColdEmailRequest) (*ColdEmail, error) {
	lines := []string{
		fmt.Sprintf("Write a %s cold email to Professor %s at %s about research in %s.", strings.ToLower(req.Tone), req.ProfessorName, req.UniversityName, req.ResearchArea),
	}
	if req.PaperTitle != "" {
		lines = append(lines, fmt.Sprintf("Reference their paper %q in one sentence.", req.PaperTitle))
	}
	lines = append(lines,
		"Keep the body under 200 words and end with a clear request for a short call or supervision.",
		`Return JSON: {"subject_line": "...", "email_body": "..."}`,
		"",
		"Student:",
		profileSummary,
	)
	var out ColdEmail
	if err := a.generate(ctx, emailSystemPrompt, strings.Join(lines, "\n"), &out); err != nil {
		return nil, err
	}
	out.SubjectLine = strings.TrimSpace(out.SubjectLine)
	out.EmailBody = strings.TrimSpace(out.EmailBody)
	if out.SubjectLine == "" || out.EmailBody == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, errors.New("reply missing subject or body"))
	}
	return &out, nil
}
