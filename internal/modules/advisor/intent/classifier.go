package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/eligibility"
	"github.com/yungbote/advisor-backend/internal/platform/llm"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type Counter interface {
	IncIntent(intent string)
}

type Classifier struct {
	pool    *llm.Pool
	log     *logger.Logger
	metrics Counter
}

func NewClassifier(pool *llm.Pool, log *logger.Logger, metrics Counter) *Classifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Classifier{pool: pool, log: log.With("step", "intent"), metrics: metrics}
}

var systemPrompt = strings.Join([]string{
	"You are an Intent Detection Router for a study-abroad counsellor.",
	"Classify the user's message into exactly ONE of these intents:",
	"1. PROFILE_ANALYSIS: \"Am I good enough?\", \"What are my chances?\"",
	"2. UNIVERSITY_DISCOVERY: \"Suggest universities\", \"Where should I apply?\" (general)",
	"3. PROGRAM_SPECIFIC_QUERY: \"MS Data Science programs\", \"MBA in UK\" (specific)",
	"4. FIELD_SWITCH: \"What about Data Science instead?\", \"Switch to CS\" (explicit change)",
	"5. EXAM_STRATEGY: \"GRE score for this?\", \"Do I need IELTS?\"",
	"6. COMPARISON: \"Is X better than Y?\"",
	"7. NEXT_STEPS: \"What do I do now?\", \"How to apply?\"",
	"8. OUT_OF_SCOPE: \"Write me a poem\", \"Who is the president?\"",
	"",
	"Also extract strict search constraints.",
	"Return ONLY JSON:",
	`{"intent": "INTENT_TYPE", "target_discipline": "string or null", "target_degree": "string or null",`,
	` "max_budget_usd": "integer or null", "target_countries": ["string"],`,
	` "category_preference": "DREAM|TARGET|SAFE or null", "explicit_university_mentions": ["string"]}`,
}, "\n")

// Classify never fails: an empty pool, a provider error, or unusable output
// all yield Default().
func (c *Classifier) Classify(ctx context.Context, message string, p eligibility.Profile) Intent {
	ctx, span := otel.Tracer("advisor").Start(ctx, "intent.classify")
	defer span.End()

	out := c.classify(ctx, message, p)
	span.SetAttributes(attribute.String("intent", string(out.Type)))
	if c.metrics != nil {
		c.metrics.IncIntent(string(out.Type))
	}
	return out
}

func (c *Classifier) classify(ctx context.Context, message string, p eligibility.Profile) Intent {
	message = strings.TrimSpace(message)
	if message == "" {
		return Default()
	}
	client, _, err := c.pool.Acquire(nil)
	if err != nil {
		c.log.Debug("intent classification skipped", "error", err)
		return Default()
	}
	prompt := strings.Join([]string{
		"User Message: " + message,
		"User Profile Context: " + profileSummary(p),
	}, "\n")
	raw, err := client.GenerateJSON(ctx, systemPrompt, prompt)
	if err != nil {
		c.log.Warn("intent classification failed", "error", err)
		return Default()
	}
	in, err := Parse(raw)
	if err != nil {
		c.log.Warn("intent output unparseable", "error", err)
		return Default()
	}
	return in
}

func profileSummary(p eligibility.Profile) string {
	parts := []string{}
	if p.GPA != nil {
		parts = append(parts, "gpa="+eligibility.FormatGPA(*p.GPA))
	}
	if p.Budget != nil {
		parts = append(parts, fmt.Sprintf("budget_per_year=%d", *p.Budget))
	}
	if p.FieldOfStudy != "" {
		parts = append(parts, "field_of_study="+p.FieldOfStudy)
	}
	if p.IntendedDegree != "" {
		parts = append(parts, "intended_degree="+p.IntendedDegree)
	}
	if len(p.Countries) > 0 {
		parts = append(parts, "preferred_countries="+strings.Join(p.Countries, ","))
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, "; ")
}

type rawIntent struct {
	Intent             string          `json:"intent"`
	TargetDiscipline   any             `json:"target_discipline"`
	TargetDegree       any             `json:"target_degree"`
	MaxBudgetUSD       any             `json:"max_budget_usd"`
	TargetCountries    json.RawMessage `json:"target_countries"`
	CategoryPreference any             `json:"category_preference"`
	Mentions           json.RawMessage `json:"explicit_university_mentions"`
}

// Parse decodes model output into an Intent. Only undecodable JSON is an
// error; unknown labels and malformed constraints are normalized away.
func Parse(raw string) (Intent, error) {
	var r rawIntent
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &r); err != nil {
		return Intent{}, fmt.Errorf("decode intent: %w", err)
	}
	label, ok := ParseLabel(r.Intent)
	if !ok {
		label = UniversityDiscovery
	}
	in := Intent{
		Type:                       label,
		TargetDiscipline:           cleanString(r.TargetDiscipline),
		TargetDegree:               cleanString(r.TargetDegree),
		MaxBudgetUSD:               coerceInt(r.MaxBudgetUSD),
		TargetCountries:            stringList(r.TargetCountries),
		ExplicitUniversityMentions: stringList(r.Mentions),
	}
	if cat, ok := types.ParseCategory(cleanString(r.CategoryPreference)); ok {
		in.CategoryPreference = cat
	}
	return in, nil
}

// cleanString accepts only JSON strings and drops the literal "null".
func cleanString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return ""
	}
	return s
}

func coerceInt(v any) *int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(strings.NewReplacer(",", "", "$", "", "_", "").Replace(t))
		if s == "" || strings.EqualFold(s, "null") {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// stringList accepts a JSON array of strings or a single string.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil
		}
		list = []any{single}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := cleanString(item); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
