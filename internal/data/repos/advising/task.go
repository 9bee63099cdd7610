package advising

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type TaskRepo interface {
	Create(dbc dbctx.Context, rows []*types.Task) ([]*types.Task, error)
	// ListByUser orders by priority then creation time.
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Task, error)
	// GetForUser returns nil when the task is missing or owned by someone else.
	GetForUser(dbc dbctx.Context, userID, taskID uuid.UUID) (*types.Task, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByShortlistEntry(dbc dbctx.Context, entryID uuid.UUID) (int64, error)
	CountByShortlistEntry(dbc dbctx.Context, entryID uuid.UUID) (int64, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (r *taskRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *taskRepo) Create(dbc dbctx.Context, rows []*types.Task) ([]*types.Task, error) {
	if len(rows) == 0 {
		return []*types.Task{}, nil
	}
	if err := r.tx(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *taskRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Task, error) {
	var out []*types.Task
	if err := r.tx(dbc).
		Where("user_id = ?", userID).
		Order("priority ASC").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *taskRepo) GetForUser(dbc dbctx.Context, userID, taskID uuid.UUID) (*types.Task, error) {
	var t types.Task
	err := r.tx(dbc).Where("id = ? AND user_id = ?", taskID, userID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *taskRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.tx(dbc).Model(&types.Task{}).Where("id = ?", id).Updates(updates).Error
}

func (r *taskRepo) DeleteByShortlistEntry(dbc dbctx.Context, entryID uuid.UUID) (int64, error) {
	res := r.tx(dbc).Where("shortlist_entry_id = ?", entryID).Delete(&types.Task{})
	return res.RowsAffected, res.Error
}

func (r *taskRepo) CountByShortlistEntry(dbc dbctx.Context, entryID uuid.UUID) (int64, error) {
	var n int64
	err := r.tx(dbc).Model(&types.Task{}).Where("shortlist_entry_id = ?", entryID).Count(&n).Error
	return n, err
}
