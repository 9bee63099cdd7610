package user

import "strings"

// Stage is the advising lifecycle position of a user. Stages are totally ordered.
type Stage string

const (
	StageOnboarding  Stage = "ONBOARDING"
	StageDiscovery   Stage = "DISCOVERY"
	StageLocked      Stage = "LOCKED"
	StageApplication Stage = "APPLICATION"
)

// Level returns the ordinal of s (1..4), or 0 for unknown values.
func (s Stage) Level() int {
	switch s {
	case StageOnboarding:
		return 1
	case StageDiscovery:
		return 2
	case StageLocked:
		return 3
	case StageApplication:
		return 4
	default:
		return 0
	}
}

func (s Stage) Valid() bool { return s.Level() > 0 }

// AtLeast reports whether s is at or beyond other.
func (s Stage) AtLeast(other Stage) bool { return s.Level() >= other.Level() }

func ParseStage(raw string) (Stage, bool) {
	s := Stage(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}
