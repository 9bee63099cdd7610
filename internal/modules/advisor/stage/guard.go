package stage

import (
	"fmt"

	types "github.com/yungbote/advisor-backend/internal/domain"
)

const (
	CodeStageBlocked         = "STAGE_BLOCKED"
	CodeStageLocked          = "STAGE_LOCKED"
	CodeNoShortlist          = "NO_SHORTLIST"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
)

// Violation is an expected guard failure. Guards return nil when the action
// is allowed; a Violation is a value for the caller to report, not a fault.
type Violation struct {
	Code          string      `json:"error"`
	Message       string      `json:"message"`
	CurrentStage  types.Stage `json:"current_stage"`
	RequiredStage types.Stage `json:"required_stage,omitempty"`
	NextStep      string      `json:"next_step,omitempty"`
	Warning       string      `json:"warning,omitempty"`
	Impact        string      `json:"impact,omitempty"`
}

func (v *Violation) Details() map[string]any {
	if v == nil {
		return nil
	}
	d := map[string]any{"current_stage": string(v.CurrentStage)}
	if v.RequiredStage != "" {
		d["required_stage"] = string(v.RequiredStage)
	}
	if v.NextStep != "" {
		d["next_step"] = v.NextStep
	}
	if v.Warning != "" {
		d["warning"] = v.Warning
	}
	if v.Impact != "" {
		d["impact"] = v.Impact
	}
	return d
}

// NextStep is the guidance shown to a user who is blocked at stage s.
func NextStep(s types.Stage) string {
	switch s {
	case types.StageOnboarding:
		return "Complete your profile with academic details, budget, and preferences."
	case types.StageDiscovery:
		return "Explore universities and add at least one to your shortlist, then lock your choices."
	case types.StageLocked:
		return "Review your locked universities and proceed to applications."
	case types.StageApplication:
		return "Complete your application tasks for each locked university."
	default:
		return "Continue with your study abroad journey."
	}
}

func normalize(s types.Stage) types.Stage {
	if !s.Valid() {
		return types.StageOnboarding
	}
	return s
}

// RequireMinimum blocks users below required.
func RequireMinimum(current, required types.Stage, action string) *Violation {
	current = normalize(current)
	if current.AtLeast(required) {
		return nil
	}
	return &Violation{
		Code:          CodeStageBlocked,
		Message:       fmt.Sprintf("Cannot %s. You are in %s stage.", action, current),
		CurrentStage:  current,
		RequiredStage: required,
		NextStep:      NextStep(current),
	}
}

// BlockModification refuses shortlist changes once choices are locked.
func BlockModification(current types.Stage, action string) *Violation {
	current = normalize(current)
	if current != types.StageLocked && current != types.StageApplication {
		return nil
	}
	return &Violation{
		Code:         CodeStageLocked,
		Message:      fmt.Sprintf("Cannot %s. Your university list is locked for applications.", action),
		CurrentStage: current,
		Warning:      "Modifying your shortlist at this stage may affect your application progress.",
		NextStep:     "To modify, use the unlock feature with confirmation.",
	}
}

// RequireShortlistNonEmpty refuses locking before anything is shortlisted.
func RequireShortlistNonEmpty(current types.Stage, count int64) *Violation {
	if count > 0 {
		return nil
	}
	return &Violation{
		Code:         CodeNoShortlist,
		Message:      "Cannot lock universities. You must shortlist at least one university first.",
		CurrentStage: normalize(current),
		NextStep:     "Browse universities and add some to your shortlist before locking.",
	}
}

// WarnRegression requires APPLICATION users to confirm actions that undo
// application work. Other stages pass without confirmation.
func WarnRegression(current types.Stage, action string, confirmed bool) *Violation {
	current = normalize(current)
	if current != types.StageApplication || confirmed {
		return nil
	}
	return &Violation{
		Code:         CodeConfirmationRequired,
		Message:      fmt.Sprintf("You are in APPLICATION stage. %s will affect your application tasks.", action),
		CurrentStage: current,
		Warning:      "Confirm to proceed.",
		Impact:       "Some generated tasks may become invalid if you change your locked universities.",
	}
}
