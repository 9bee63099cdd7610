package user

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type UserProfileRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserProfile, error)
	Upsert(dbc dbctx.Context, profile *types.UserProfile) error
}

type userProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return &userProfileRepo{db: db, log: baseLog.With("repo", "UserProfileRepo")}
}

func (r *userProfileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.UserProfile
	if err := transaction.WithContext(dbc.Ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *userProfileRepo) Upsert(dbc dbctx.Context, profile *types.UserProfile) error {
	if profile == nil {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"current_education_level",
				"degree_major",
				"gpa",
				"work_experience_years",
				"intended_degree",
				"field_of_study",
				"preferred_countries",
				"budget_per_year",
				"funding_plan",
				"ielts_toefl_status",
				"gre_gmat_status",
				"sop_status",
				"updated_at",
			}),
		}).
		Create(profile).Error
}
