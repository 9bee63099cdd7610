package delta

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/advisor-backend/internal/modules/advisor/intent"
)

func TestComputeNewSession(t *testing.T) {
	got := Compute(intent.Default(), "hi", nil)
	require.Equal(t, Info{IsNewSession: true, ChangeSummary: "Initial Query"}, got)

	// assistant-only history still counts as a new session
	got = Compute(intent.Default(), "hi", []Turn{{Role: RoleAssistant, Content: "Welcome!"}})
	require.True(t, got.IsNewSession)
}

func TestComputeFieldSwitch(t *testing.T) {
	history := []Turn{
		{Role: RoleUser, Content: "Suggest CS programs"},
		{Role: RoleAssistant, Content: "Here are some."},
	}
	in := intent.Intent{Type: intent.FieldSwitch, TargetDiscipline: "Data Science"}
	got := Compute(in, "What about Data Science instead?", history)
	require.False(t, got.IsNewSession)
	require.True(t, got.IsFieldSwitch)
	require.Equal(t, "User switched focus to Data Science", got.ChangeSummary)
}

func TestComputeFollowUpAndRepetition(t *testing.T) {
	history := []Turn{
		{Role: RoleUser, Content: "Which  universities fit me?"},
		{Role: RoleAssistant, Content: "Try these."},
	}
	got := Compute(intent.Default(), "What are the deadlines?", history)
	require.Equal(t, Info{ChangeSummary: "Follow-up query"}, got)

	got = Compute(intent.Default(), "which universities fit ME?", history)
	require.True(t, got.IsRepetition)
	require.Equal(t, "Repeated question", got.ChangeSummary)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("Hello!  Welcome to your study abroad journey.")
	b := Fingerprint("hello! welcome to your\nstudy abroad journey.")
	require.Equal(t, a, b)
	require.NotEqual(t, a, Fingerprint("Hello! Welcome to your study abroad journey, Sam."))
	require.Empty(t, Fingerprint("   "))

	parts := strings.Split(a, ":")
	require.Len(t, parts, 2)
	require.Len(t, parts[0], 16)

	// same 120-rune opening, different length
	long := strings.Repeat("a", 130)
	require.NotEqual(t, Fingerprint(long), Fingerprint(long+"b"))
	require.True(t, strings.HasPrefix(Fingerprint(long), strings.Split(Fingerprint(long+"b"), ":")[0]))
}

func TestIsDuplicate(t *testing.T) {
	recent := []string{Fingerprint("Welcome back!"), Fingerprint("Let's look at Germany.")}
	require.True(t, IsDuplicate("welcome  back!", recent))
	require.False(t, IsDuplicate("Welcome back, Sam!", recent))
	require.False(t, IsDuplicate("", recent))
	require.False(t, IsDuplicate("Welcome back!", nil))
}
