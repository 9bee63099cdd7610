package user

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	// LockByID reads the user row FOR UPDATE so concurrent action batches for
	// the same user serialize on the stage column.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	UpdateStage(dbc dbctx.Context, id uuid.UUID, stage types.Stage) error
	CompleteOnboarding(dbc dbctx.Context, id uuid.UUID) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	}
	if err := r.tx(dbc).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	var u types.User
	if err := r.tx(dbc).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	var u types.User
	err := r.tx(dbc).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	var u types.User
	err := r.tx(dbc).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) UpdateStage(dbc dbctx.Context, id uuid.UUID, stage types.Stage) error {
	return r.tx(dbc).
		Model(&types.User{}).
		Where("id = ?", id).
		Update("current_stage", stage).Error
}

func (r *userRepo) CompleteOnboarding(dbc dbctx.Context, id uuid.UUID) error {
	return r.tx(dbc).
		Model(&types.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"onboarding_completed": true,
			"current_stage":        types.StageDiscovery,
		}).Error
}
