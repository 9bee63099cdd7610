package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/advisor-backend/internal/data/repos"
	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/actions"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/counsellor"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/eligibility"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/stage"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type ShortlistView struct {
	ID             uuid.UUID          `json:"id"`
	UniversityID   uint               `json:"university_id"`
	UniversityName string             `json:"university_name"`
	Country        string             `json:"country"`
	Category       types.Category     `json:"category"`
	IsLocked       bool               `json:"is_locked"`
	LockedAt       *time.Time         `json:"locked_at"`
	Fit            eligibility.Result `json:"fit"`
	TaskCount      int64              `json:"task_count"`
}

// ShortlistService is the direct (non-chat) shortlist API. Mutations go
// through the same executor the counsellor uses, so both paths share guards.
type ShortlistService interface {
	List(ctx context.Context, userID uuid.UUID) ([]ShortlistView, error)
	Add(ctx context.Context, userID uuid.UUID, universityID uint, category string) (actions.Entry, error)
	Remove(ctx context.Context, userID uuid.UUID, universityID uint) error
	Lock(ctx context.Context, userID uuid.UUID, universityID uint) (actions.Entry, error)
	Unlock(ctx context.Context, userID uuid.UUID, universityID uint, confirm bool) (actions.Entry, error)
}

type shortlistService struct {
	log          *logger.Logger
	users        repos.UserRepo
	profiles     repos.UserProfileRepo
	universities repos.UniversityRepo
	shortlist    repos.ShortlistRepo
	tasks        repos.TaskRepo
	executor     *actions.Executor
}

func NewShortlistService(
	log *logger.Logger,
	users repos.UserRepo,
	profiles repos.UserProfileRepo,
	universities repos.UniversityRepo,
	shortlist repos.ShortlistRepo,
	tasks repos.TaskRepo,
	executor *actions.Executor,
) ShortlistService {
	return &shortlistService{
		log:          log.With("service", "ShortlistService"),
		users:        users,
		profiles:     profiles,
		universities: universities,
		shortlist:    shortlist,
		tasks:        tasks,
		executor:     executor,
	}
}

func (s *shortlistService) List(ctx context.Context, userID uuid.UUID) ([]ShortlistView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	entries, err := s.shortlist.ListByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list shortlist: %w", err)
	}
	prof, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	p := eligibility.FromUserProfile(prof)

	out := make([]ShortlistView, 0, len(entries))
	for _, e := range entries {
		uni, err := s.universities.GetWithPrograms(dbc, e.UniversityID)
		if err != nil {
			return nil, fmt.Errorf("load university: %w", err)
		}
		if uni == nil {
			continue
		}
		n, err := s.tasks.CountByShortlistEntry(dbc, e.ID)
		if err != nil {
			return nil, fmt.Errorf("count tasks: %w", err)
		}
		out = append(out, ShortlistView{
			ID:             e.ID,
			UniversityID:   e.UniversityID,
			UniversityName: uni.Name,
			Country:        uni.Country,
			Category:       e.Category,
			IsLocked:       e.IsLocked,
			LockedAt:       e.LockedAt,
			Fit:            eligibility.Categorize(*uni, uni.Programs, p),
			TaskCount:      n,
		})
	}
	return out, nil
}

func (s *shortlistService) run(ctx context.Context, userID uuid.UUID, act counsellor.Action) (actions.Entry, error) {
	res, err := s.executor.Execute(ctx, userID, []counsellor.Action{act})
	if err != nil {
		return actions.Entry{}, userMissing(err)
	}
	return single(res)
}

func (s *shortlistService) Add(ctx context.Context, userID uuid.UUID, universityID uint, category string) (actions.Entry, error) {
	params := map[string]any{"university_id": universityID}
	if category != "" {
		if _, ok := types.ParseCategory(category); !ok {
			return actions.Entry{}, apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidRequest, "invalid category %q", category)
		}
		params["category"] = category
	}
	return s.run(ctx, userID, counsellor.Action{Type: counsellor.ActionShortlist, Params: params})
}

func (s *shortlistService) Lock(ctx context.Context, userID uuid.UUID, universityID uint) (actions.Entry, error) {
	return s.run(ctx, userID, counsellor.Action{
		Type:   counsellor.ActionLock,
		Params: map[string]any{"university_id": universityID},
	})
}

func (s *shortlistService) Unlock(ctx context.Context, userID uuid.UUID, universityID uint, confirm bool) (actions.Entry, error) {
	return s.run(ctx, userID, counsellor.Action{
		Type:   counsellor.ActionUnlock,
		Params: map[string]any{"university_id": universityID, "confirm": confirm},
	})
}

// Remove deletes an unlocked entry. Users in LOCKED or APPLICATION cannot
// edit the shortlist, and locked entries must be unlocked first.
func (s *shortlistService) Remove(ctx context.Context, userID uuid.UUID, universityID uint) error {
	dbc := dbctx.Context{Ctx: ctx}
	u, err := s.users.GetByID(dbc, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return apierr.NotFound("user")
	}
	if v := stage.RequireMinimum(u.CurrentStage, types.StageDiscovery, "modify your shortlist"); v != nil {
		return violationError(v)
	}
	if v := stage.BlockModification(u.CurrentStage, "remove universities from shortlist"); v != nil {
		return violationError(v)
	}
	entry, err := s.shortlist.GetByUserAndUniversity(dbc, userID, universityID)
	if err != nil {
		return fmt.Errorf("load shortlist entry: %w", err)
	}
	if entry == nil {
		return apierr.NotFound("shortlist entry")
	}
	if err := s.shortlist.Delete(dbc, entry.ID); err != nil {
		if errors.Is(err, repos.ErrEntryLocked) {
			return apierr.New(http.StatusConflict, apierr.CodeEntryLocked, errors.New("Cannot remove a locked university. Unlock it first.")).
				WithDetails(map[string]any{"current_stage": string(u.CurrentStage), "next_step": "To modify, use the unlock feature with confirmation."})
		}
		return fmt.Errorf("delete shortlist entry: %w", err)
	}
	s.log.Info("shortlist entry removed", "user_id", userID, "university_id", universityID)
	return nil
}
