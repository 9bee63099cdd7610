package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/advisor-backend/internal/data/repos"
	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/eligibility"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/stage"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/writing"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

// WritingAssistant is satisfied by *writing.Assistant.
type WritingAssistant interface {
	ReviewSOP(ctx context.Context, req writing.SOPRequest) (*writing.SOPReview, error)
	DraftColdEmail(ctx context.Context, profileSummary string, req writing.ColdEmailRequest) (*writing.ColdEmail, error)
}

type ToolsService interface {
	// ReviewSOP needs a locked university and at least writing.MinSOPWords words.
	ReviewSOP(ctx context.Context, userID uuid.UUID, req writing.SOPRequest) (*writing.SOPReview, error)
	DraftColdEmail(ctx context.Context, userID uuid.UUID, req writing.ColdEmailRequest) (*writing.ColdEmail, error)
}

type toolsService struct {
	log      *logger.Logger
	users    repos.UserRepo
	profiles repos.UserProfileRepo
	writer   WritingAssistant
}

func NewToolsService(log *logger.Logger, users repos.UserRepo, profiles repos.UserProfileRepo, writer WritingAssistant) ToolsService {
	return &toolsService{log: log.With("service", "ToolsService"), users: users, profiles: profiles, writer: writer}
}

func (s *toolsService) ReviewSOP(ctx context.Context, userID uuid.UUID, req writing.SOPRequest) (*writing.SOPReview, error) {
	u, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user")
	}
	if v := stage.RequireMinimum(u.CurrentStage, types.StageLocked, "review SOP"); v != nil {
		return nil, violationError(v)
	}
	if writing.WordCount(req.Text) < writing.MinSOPWords {
		return nil, apierr.Invalid(fmt.Errorf("SOP is too short. Please provide at least %d words.", writing.MinSOPWords))
	}
	req.UniversityName = strings.TrimSpace(req.UniversityName)
	req.ProgramName = strings.TrimSpace(req.ProgramName)
	out, err := s.writer.ReviewSOP(ctx, req)
	if err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

func (s *toolsService) DraftColdEmail(ctx context.Context, userID uuid.UUID, req writing.ColdEmailRequest) (*writing.ColdEmail, error) {
	if err := req.Validate(); err != nil {
		return nil, apierr.Invalid(err)
	}
	p, err := s.profiles.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeProfileIncomplete, "Profile incomplete")
	}
	out, err := s.writer.DraftColdEmail(ctx, profileSummary(p), req)
	if err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

func unavailable(err error) error {
	if errors.Is(err, writing.ErrUnavailable) {
		return apierr.New(http.StatusServiceUnavailable, apierr.CodeLLMUnavailable, err)
	}
	return err
}

// profileSummary is the few-line student description handed to the model.
func profileSummary(p *types.UserProfile) string {
	or := func(v, fallback string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return v
	}
	gpa := "N/A"
	if p.GPA != nil {
		gpa = eligibility.FormatGPA(*p.GPA)
	}
	lines := []string{
		fmt.Sprintf("Education: %s in %s.", or(p.CurrentEducationLevel, "Undergraduate"), or(p.DegreeMajor, "Unknown")),
		fmt.Sprintf("Academic standing: GPA %s.", gpa),
		fmt.Sprintf("Goal: %s in %s.", or(p.IntendedDegree, "Masters"), or(p.FieldOfStudy, "General Field")),
	}
	if p.WorkExperienceYears > 0 {
		lines = append(lines, fmt.Sprintf("Experience: %d years of work experience.", p.WorkExperienceYears))
	}
	var exams []string
	if p.IELTSTOEFLStatus == types.ExamCompleted {
		exams = append(exams, "English Proficiency Cleared")
	}
	if p.GREGMATStatus == types.ExamCompleted {
		exams = append(exams, "GRE/GMAT Cleared")
	}
	if len(exams) > 0 {
		lines = append(lines, "Exams: "+strings.Join(exams, ", ")+".")
	}
	return strings.Join(lines, "\n")
}
