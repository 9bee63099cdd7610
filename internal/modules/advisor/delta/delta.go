package delta

import (
	"strings"

	"github.com/yungbote/advisor-backend/internal/modules/advisor/intent"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one prior conversation message, oldest first in a history slice.
type Turn struct {
	Role    string
	Content string
}

type Info struct {
	IsNewSession  bool   `json:"is_new_session"`
	IsFieldSwitch bool   `json:"is_field_switch"`
	IsRepetition  bool   `json:"is_repetition"`
	ChangeSummary string `json:"change_summary"`
}

// Compute compares the current message and its classified intent against the
// history that preceded it.
func Compute(in intent.Intent, message string, history []Turn) Info {
	lastUser := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			lastUser = i
			break
		}
	}
	if lastUser < 0 {
		return Info{IsNewSession: true, ChangeSummary: "Initial Query"}
	}

	info := Info{ChangeSummary: "Follow-up query"}
	if normalize(message) != "" && normalize(message) == normalize(history[lastUser].Content) {
		info.IsRepetition = true
		info.ChangeSummary = "Repeated question"
	}
	if in.Type == intent.FieldSwitch {
		info.IsFieldSwitch = true
		target := in.TargetDiscipline
		if target == "" {
			target = "a new field"
		}
		info.ChangeSummary = "User switched focus to " + target
	}
	return info
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
