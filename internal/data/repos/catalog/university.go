package catalog

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type UniversityRepo interface {
	Create(dbc dbctx.Context, rows []*types.University) ([]*types.University, error)
	// ListWithPrograms returns the full catalog ordered by id, programs preloaded.
	ListWithPrograms(dbc dbctx.Context) ([]types.University, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.University, error)
	// GetWithPrograms returns nil when the university does not exist.
	GetWithPrograms(dbc dbctx.Context, id uint) (*types.University, error)
	GetByNameAndCountry(dbc dbctx.Context, name, country string) (*types.University, error)
	Exists(dbc dbctx.Context, id uint) (bool, error)
}

type universityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUniversityRepo(db *gorm.DB, baseLog *logger.Logger) UniversityRepo {
	return &universityRepo{db: db, log: baseLog.With("repo", "UniversityRepo")}
}

func (r *universityRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *universityRepo) Create(dbc dbctx.Context, rows []*types.University) ([]*types.University, error) {
	if len(rows) == 0 {
		return []*types.University{}, nil
	}
	if err := r.tx(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *universityRepo) ListWithPrograms(dbc dbctx.Context) ([]types.University, error) {
	var out []types.University
	err := r.tx(dbc).
		Preload("Programs", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *universityRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.University, error) {
	var out []*types.University
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.tx(dbc).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *universityRepo) GetWithPrograms(dbc dbctx.Context, id uint) (*types.University, error) {
	if id == 0 {
		return nil, nil
	}
	var u types.University
	err := r.tx(dbc).
		Preload("Programs", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
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

func (r *universityRepo) GetByNameAndCountry(dbc dbctx.Context, name, country string) (*types.University, error) {
	var u types.University
	err := r.tx(dbc).
		Where("LOWER(name) = LOWER(?) AND LOWER(country) = LOWER(?)", name, country).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *universityRepo) Exists(dbc dbctx.Context, id uint) (bool, error) {
	var n int64
	if err := r.tx(dbc).Model(&types.University{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
