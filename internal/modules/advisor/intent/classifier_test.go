package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/eligibility"
	"github.com/yungbote/advisor-backend/internal/platform/llm"
	"github.com/yungbote/advisor-backend/internal/platform/llm/llmtest"
)

type countingMetrics struct{ seen []string }

func (c *countingMetrics) IncIntent(intent string) { c.seen = append(c.seen, intent) }

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Intent
	}{
		{
			name: "full constraints",
			raw: `{"intent":"PROGRAM_SPECIFIC_QUERY","target_discipline":"Data Science","target_degree":"MS",
				"max_budget_usd":"45000","target_countries":["Germany","Canada"],"category_preference":"safe",
				"explicit_university_mentions":["TU Munich"]}`,
			want: Intent{
				Type:                       ProgramSpecificQuery,
				TargetDiscipline:           "Data Science",
				TargetDegree:               "MS",
				MaxBudgetUSD:               ptr(45000),
				TargetCountries:            []string{"Germany", "Canada"},
				CategoryPreference:         types.CategorySafe,
				ExplicitUniversityMentions: []string{"TU Munich"},
			},
		},
		{
			name: "unknown label falls back to discovery",
			raw:  `{"intent":"BOOK_FLIGHT"}`,
			want: Intent{Type: UniversityDiscovery},
		},
		{
			name: "null strings and bad budget are dropped",
			raw:  `{"intent":"field_switch","target_discipline":"null","target_degree":null,"max_budget_usd":"lots","category_preference":"null"}`,
			want: Intent{Type: FieldSwitch},
		},
		{
			name: "numeric budget is truncated to int",
			raw:  "```json\n{\"intent\":\"UNIVERSITY_DISCOVERY\",\"max_budget_usd\":30000.7,\"target_countries\":\"UK\"}\n```",
			want: Intent{Type: UniversityDiscovery, MaxBudgetUSD: ptr(30000), TargetCountries: []string{"UK"}},
		},
		{
			name: "formatted budget string",
			raw:  `{"intent":"COMPARISON","max_budget_usd":"$40,000"}`,
			want: Intent{Type: Comparison, MaxBudgetUSD: ptr(40000)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	_, err := Parse("I think you want universities")
	require.Error(t, err)
}

func TestClassifyFailsClosed(t *testing.T) {
	ctx := context.Background()
	p := eligibility.Profile{FieldOfStudy: "Computer Science"}

	cases := map[string]*llm.Pool{
		"no credentials": llm.NewPool(),
		"provider error": llm.NewPool(llmtest.Failing(errors.New("boom"))),
		"prose reply":    llm.NewPool(llmtest.Text("Sure! Here are some universities.")),
		"unknown label":  llm.NewPool(llmtest.Text(`{"intent":"WEATHER"}`)),
	}
	for name, pool := range cases {
		t.Run(name, func(t *testing.T) {
			m := &countingMetrics{}
			got := NewClassifier(pool, nil, m).Classify(ctx, "what about Germany?", p)
			require.Equal(t, Default(), got)
			require.Equal(t, []string{string(UniversityDiscovery)}, m.seen)
		})
	}
}

func TestClassifySendsProfileContext(t *testing.T) {
	fake := llmtest.Text(`{"intent":"FIELD_SWITCH","target_discipline":"Data Science"}`)
	gpa := 3.4
	p := eligibility.Profile{GPA: &gpa, FieldOfStudy: "Mechanical Engineering"}

	got := NewClassifier(llm.NewPool(fake), nil, nil).Classify(context.Background(), "What about Data Science instead?", p)
	require.Equal(t, FieldSwitch, got.Type)
	require.True(t, got.StrictDiscipline())

	prompts := fake.Prompts()
	require.Len(t, prompts, 1)
	require.True(t, strings.HasPrefix(prompts[0], "User Message: What about Data Science instead?"))
	require.Contains(t, prompts[0], "gpa=3.4")
	require.Contains(t, prompts[0], "field_of_study=Mechanical Engineering")
	require.Contains(t, fake.Systems()[0], "FIELD_SWITCH")
}

func TestEmptyMessageSkipsModel(t *testing.T) {
	fake := llmtest.Text(`{"intent":"COMPARISON"}`)
	got := NewClassifier(llm.NewPool(fake), nil, nil).Classify(context.Background(), "   ", eligibility.Profile{})
	require.Equal(t, Default(), got)
	require.Zero(t, fake.Calls())
}

func ptr(v int) *int { return &v }
