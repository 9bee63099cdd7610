package counsellor

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/yungbote/advisor-backend/internal/platform/llm"
)

const (
	ActionShortlist  = "shortlist_university"
	ActionLock       = "lock_university"
	ActionUnlock     = "unlock_university"
	ActionCreateTask = "create_task"
	ActionUpdateTask = "update_task"
)

type Action struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

type SuggestedUniversity struct {
	UniversityID uint   `json:"university_id"`
	Category     string `json:"category,omitempty"`
	FitReason    string `json:"fit_reason,omitempty"`
	RiskReason   string `json:"risk_reason,omitempty"`
}

type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeNotConfigured Outcome = "not_configured"
	OutcomeUnavailable   Outcome = "unavailable"
	OutcomeFailed        Outcome = "failed"
)

// Envelope is the normalized counsellor reply. Slices are never nil once an
// envelope leaves this package.
type Envelope struct {
	Message                string                `json:"message"`
	Actions                []Action              `json:"actions"`
	SuggestedUniversities  []SuggestedUniversity `json:"suggested_universities"`
	SuggestedNextQuestions []string              `json:"suggested_next_questions"`

	Outcome  Outcome `json:"-"`
	Attempts int     `json:"-"`
}

const fallbackMessage = "I'm here to help you with your study abroad journey."

func textEnvelope(outcome Outcome, attempts int, msg string) Envelope {
	return Envelope{
		Message:                msg,
		Actions:                []Action{},
		SuggestedUniversities:  []SuggestedUniversity{},
		SuggestedNextQuestions: []string{},
		Outcome:                outcome,
		Attempts:               attempts,
	}
}

// ParseEnvelope turns model output into an Envelope. Output that is not a JSON
// object becomes the message verbatim; malformed fields are dropped one by one.
func ParseEnvelope(text string) Envelope {
	env := textEnvelope(OutcomeOK, 0, "")
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &fields); err != nil {
		env.Message = strings.TrimSpace(text)
		if env.Message == "" {
			env.Message = fallbackMessage
		}
		return env
	}

	var msg string
	if raw, ok := fields["message"]; ok && json.Unmarshal(raw, &msg) == nil {
		env.Message = strings.TrimSpace(msg)
	}
	if env.Message == "" {
		env.Message = fallbackMessage
	}

	var actions []json.RawMessage
	if raw, ok := fields["actions"]; ok && json.Unmarshal(raw, &actions) == nil {
		for _, a := range actions {
			var act Action
			if json.Unmarshal(a, &act) != nil {
				continue
			}
			act.Type = strings.ToLower(strings.TrimSpace(act.Type))
			if act.Type == "" {
				continue
			}
			if act.Params == nil {
				act.Params = map[string]any{}
			}
			env.Actions = append(env.Actions, act)
		}
	}

	var suggestions []map[string]any
	if raw, ok := fields["suggested_universities"]; ok && json.Unmarshal(raw, &suggestions) == nil {
		for _, s := range suggestions {
			id, ok := ParamUint(s, "university_id")
			if !ok {
				continue
			}
			env.SuggestedUniversities = append(env.SuggestedUniversities, SuggestedUniversity{
				UniversityID: id,
				Category:     strings.ToUpper(ParamString(s, "category")),
				FitReason:    ParamString(s, "fit_reason"),
				RiskReason:   ParamString(s, "risk_reason"),
			})
		}
	}

	var questions []any
	if raw, ok := fields["suggested_next_questions"]; ok && json.Unmarshal(raw, &questions) == nil {
		for _, q := range questions {
			if s, ok := q.(string); ok && strings.TrimSpace(s) != "" {
				env.SuggestedNextQuestions = append(env.SuggestedNextQuestions, strings.TrimSpace(s))
			}
		}
	}
	return env
}

// ParamUint reads a positive integer id that the model may have sent as a
// number or a numeric string.
func ParamUint(params map[string]any, key string) (uint, bool) {
	switch v := params[key].(type) {
	case float64:
		if v >= 1 && v == math.Trunc(v) && v <= math.MaxUint32 {
			return uint(v), true
		}
	case int:
		if v > 0 {
			return uint(v), true
		}
	case uint:
		return v, v > 0
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err == nil && n > 0 {
			return uint(n), true
		}
	}
	return 0, false
}

func ParamInt(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < math.MaxInt32 {
			return int(v), true
		}
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

func ParamString(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func ParamBool(params map[string]any, key string) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}
