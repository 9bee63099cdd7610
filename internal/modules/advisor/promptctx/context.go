package promptctx

import (
	"fmt"
	"strings"

	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/delta"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/eligibility"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/intent"
)

const (
	MaxUniversities       = 100
	MaxProgramsPerUni     = 3
	MaxPendingTasks       = 5
	notProvided           = "Not provided"
	notSpecified          = "Not specified"
	defaultDataSourceText = "Verified Internal DB"
)

// ShortlistItem is a shortlist entry joined with its university name.
type ShortlistItem struct {
	Entry          types.ShortlistEntry
	UniversityName string
}

type Input struct {
	User      types.User
	Profile   *types.UserProfile
	Catalog   []types.University
	Shortlist []ShortlistItem
	Tasks     []types.Task
	Intent    intent.Intent
	Delta     delta.Info
}

// Build renders the counsellor context. It only formats data already loaded
// by the caller.
func Build(in Input) string {
	p := eligibility.FromUserProfile(in.Profile)
	var b strings.Builder

	b.WriteString("## Current User Context\n\n")
	writeUser(&b, in.User)
	writeProfile(&b, in.Profile, p)
	writeShortlist(&b, in.Shortlist)
	writeTasks(&b, in.Tasks)
	writeConstraints(&b, in.Intent, in.Delta)
	writeCatalog(&b, in.Catalog, p)
	writeRules(&b)
	return b.String()
}

func writeUser(b *strings.Builder, u types.User) {
	name := u.FullName
	if name == "" {
		name = "Unknown"
	}
	stage := u.CurrentStage
	if !stage.Valid() {
		stage = types.StageOnboarding
	}
	b.WriteString("### User Info\n")
	fmt.Fprintf(b, "- Name: %s\n", name)
	fmt.Fprintf(b, "- Current Stage: %s\n", stage)
	fmt.Fprintf(b, "- Onboarding Completed: %t\n\n", u.OnboardingCompleted)
}

func writeProfile(b *strings.Builder, prof *types.UserProfile, p eligibility.Profile) {
	if prof == nil {
		prof = &types.UserProfile{}
	}
	gpa := notProvided
	if p.GPA != nil {
		gpa = eligibility.FormatGPA(*p.GPA)
	}
	budget := notSpecified
	if p.Budget != nil {
		budget = eligibility.FormatUSD(*p.Budget) + "/year"
	}
	countries := notSpecified
	if len(p.Countries) > 0 {
		countries = strings.Join(p.Countries, ", ")
	}

	b.WriteString("### Profile\n")
	fmt.Fprintf(b, "- Education: %s in %s\n", or(prof.CurrentEducationLevel, notProvided), or(prof.DegreeMajor, notProvided))
	fmt.Fprintf(b, "- GPA: %s\n", gpa)
	fmt.Fprintf(b, "- Target Degree: %s in %s\n", or(p.IntendedDegree, notProvided), or(p.FieldOfStudy, notProvided))
	fmt.Fprintf(b, "- Target Countries: %s\n", countries)
	fmt.Fprintf(b, "- Budget: %s\n", budget)
	fmt.Fprintf(b, "- Funding: %s\n", or(prof.FundingPlan, notSpecified))
	fmt.Fprintf(b, "- Work Experience: %dy\n", p.WorkExperienceYears)
	fmt.Fprintf(b, "- IELTS/TOEFL: %s\n", or(p.EnglishTestStatus, types.ExamNotStarted))
	fmt.Fprintf(b, "- GRE/GMAT: %s\n", or(p.GradTestStatus, types.ExamNotStarted))
	fmt.Fprintf(b, "- SOP Status: %s\n\n", or(p.SOPStatus, types.ExamNotStarted))

	s := eligibility.AnalyzeProfileStrength(p)
	b.WriteString("### Profile Strength\n")
	fmt.Fprintf(b, "- Academics: %s\n- Exams: %s\n- SOP: %s\n\n", s.Academics, s.Exams, s.SOP)
}

func writeShortlist(b *strings.Builder, items []ShortlistItem) {
	fmt.Fprintf(b, "### Shortlisted Universities (%d)\n", len(items))
	for _, it := range items {
		lock := "Not Locked"
		if it.Entry.IsLocked {
			lock = "LOCKED"
		}
		fmt.Fprintf(b, "- [ID: %d] %s (%s) - %s\n", it.Entry.UniversityID, or(it.UniversityName, "Unknown"), it.Entry.Category, lock)
	}
	b.WriteString("\n")
}

func writeTasks(b *strings.Builder, tasks []types.Task) {
	pending := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == types.TaskPending {
			pending = append(pending, t)
		}
	}
	fmt.Fprintf(b, "### Pending Tasks (%d)\n", len(pending))
	for i, t := range pending {
		if i == MaxPendingTasks {
			break
		}
		fmt.Fprintf(b, "- %s (%s, priority %d)\n", t.Title, t.Status, t.Priority)
	}
	b.WriteString("\n")
}

func writeConstraints(b *strings.Builder, in intent.Intent, d delta.Info) {
	b.WriteString("### Active Search Constraints\n")
	fmt.Fprintf(b, "- Intent: %s\n", in.Type)
	fmt.Fprintf(b, "- Discipline: %s\n", or(in.TargetDiscipline, "(profile field)"))
	fmt.Fprintf(b, "- Degree: %s\n", or(in.TargetDegree, "Any"))
	if in.MaxBudgetUSD != nil {
		fmt.Fprintf(b, "- Max Budget: %s/year\n", eligibility.FormatUSD(*in.MaxBudgetUSD))
	}
	if len(in.TargetCountries) > 0 {
		fmt.Fprintf(b, "- Countries: %s\n", strings.Join(in.TargetCountries, ", "))
	}
	if in.CategoryPreference != "" {
		fmt.Fprintf(b, "- Category Preference: %s\n", in.CategoryPreference)
	}
	if len(in.ExplicitUniversityMentions) > 0 {
		fmt.Fprintf(b, "- Mentioned: %s\n", strings.Join(in.ExplicitUniversityMentions, ", "))
	}
	fmt.Fprintf(b, "- Conversation: %s\n\n", or(d.ChangeSummary, "Follow-up query"))

	if d.IsFieldSwitch {
		b.WriteString("### FIELD SWITCH DETECTED\n")
		fmt.Fprintf(b, "The user has switched focus to %s. Acknowledge the switch explicitly.\n", or(in.TargetDiscipline, "a new field"))
		b.WriteString("Recommend ONLY programs in the new field listed below. Do not mix in recommendations for the previous field.\n\n")
	}
	if d.IsRepetition {
		b.WriteString("### REPEATED QUESTION\n")
		b.WriteString("The user asked this before. Answer from a different angle or ask what was unclear instead of repeating yourself.\n\n")
	}
}

func writeCatalog(b *strings.Builder, catalog []types.University, p eligibility.Profile) {
	shown := catalog
	if len(shown) > MaxUniversities {
		shown = shown[:MaxUniversities]
	}
	fmt.Fprintf(b, "### Available Universities (READ-ONLY SOURCE, %d of %d matches)\n", len(shown), len(catalog))
	if len(shown) == 0 {
		b.WriteString("No universities match the current constraints. Say so and suggest relaxing a constraint.\n\n")
		return
	}
	for _, uni := range shown {
		r := eligibility.Categorize(uni, uni.Programs, p)
		fmt.Fprintf(b, "- [ID: %d] %s (%s, %s)\n", uni.ID, uni.Name, uni.Country, or(uni.City, "Unknown"))
		fmt.Fprintf(b, "  Rank: %s (QS), Status: %s\n", rank(uni.QSRanking), publicLabel(uni.IsPublic))
		fmt.Fprintf(b, "  Category: %s | Acceptance: %s | Cost: %s\n", r.Category, r.AcceptanceChance, r.CostLevel)
		fmt.Fprintf(b, "  Fit: %s | Risk: %s\n", r.FitReason, r.RiskReason)
		b.WriteString("  Programs:")
		for i, prog := range uni.Programs {
			if i == MaxProgramsPerUni {
				break
			}
			writeProgram(b, prog, p)
		}
		fmt.Fprintf(b, "\n  Source: %s\n", or(uni.DataSource, defaultDataSourceText))
	}
	b.WriteString("\n")
}

func writeProgram(b *strings.Builder, prog types.Program, p eligibility.Profile) {
	if reasons := eligibility.CheckEligibility(prog, p); len(reasons) > 0 {
		fmt.Fprintf(b, "\n  - [INELIGIBLE] %s (%s): %s", prog.Name, prog.DegreeLevel, strings.Join(reasons, ", "))
		return
	}
	minGPA := "N/A"
	if prog.MinGPA != nil {
		minGPA = eligibility.FormatGPA(*prog.MinGPA)
	}
	fmt.Fprintf(b, "\n  - %s (%s): %s/yr, Min GPA: %s, Category: %s",
		prog.Name, prog.DegreeLevel, eligibility.FormatUSD(prog.TuitionPerYearUSD), minGPA, or(prog.Category, "OTHER"))
}

func writeRules(b *strings.Builder) {
	b.WriteString("### Data Rules\n")
	b.WriteString("- READ-ONLY: recommend only universities listed under Available Universities, by their ID.\n")
	b.WriteString("- ELIGIBILITY: never recommend an [INELIGIBLE] program as a fit. Cite the listed reason when the user asks about it.\n")
	b.WriteString("- Cite the Source line when quoting rankings, tuition or requirements. Say the data is not verified when a value is missing.\n")
}

func rank(r *int) string {
	if r == nil || *r <= 0 {
		return "NR"
	}
	return fmt.Sprintf("#%d", *r)
}

func publicLabel(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}

func or(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
