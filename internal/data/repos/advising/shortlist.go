package advising

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

// ErrEntryLocked is returned when deleting a locked shortlist entry.
var ErrEntryLocked = errors.New("shortlist entry is locked; unlock it first")

type ShortlistRepo interface {
	Create(dbc dbctx.Context, entry *types.ShortlistEntry) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.ShortlistEntry, error)
	GetByUserAndUniversity(dbc dbctx.Context, userID uuid.UUID, universityID uint) (*types.ShortlistEntry, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	// CountLockedByUser counts locked entries, ignoring exceptID (uuid.Nil ignores nothing).
	CountLockedByUser(dbc dbctx.Context, userID uuid.UUID, exceptID uuid.UUID) (int64, error)
	SetLocked(dbc dbctx.Context, id uuid.UUID, lockedAt time.Time) error
	ClearLocked(dbc dbctx.Context, id uuid.UUID) error
	// Delete removes an unlocked entry. Locked entries yield ErrEntryLocked.
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type shortlistRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShortlistRepo(db *gorm.DB, baseLog *logger.Logger) ShortlistRepo {
	return &shortlistRepo{db: db, log: baseLog.With("repo", "ShortlistRepo")}
}

func (r *shortlistRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *shortlistRepo) Create(dbc dbctx.Context, entry *types.ShortlistEntry) error {
	if entry == nil {
		return nil
	}
	return r.tx(dbc).Create(entry).Error
}

func (r *shortlistRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.ShortlistEntry, error) {
	var out []*types.ShortlistEntry
	if err := r.tx(dbc).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *shortlistRepo) GetByUserAndUniversity(dbc dbctx.Context, userID uuid.UUID, universityID uint) (*types.ShortlistEntry, error) {
	var e types.ShortlistEntry
	err := r.tx(dbc).
		Where("user_id = ? AND university_id = ?", userID, universityID).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *shortlistRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.tx(dbc).Model(&types.ShortlistEntry{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *shortlistRepo) CountLockedByUser(dbc dbctx.Context, userID uuid.UUID, exceptID uuid.UUID) (int64, error) {
	q := r.tx(dbc).Model(&types.ShortlistEntry{}).Where("user_id = ? AND is_locked = ?", userID, true)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *shortlistRepo) SetLocked(dbc dbctx.Context, id uuid.UUID, lockedAt time.Time) error {
	return r.tx(dbc).
		Model(&types.ShortlistEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_locked": true,
			"locked_at": lockedAt,
		}).Error
}

func (r *shortlistRepo) ClearLocked(dbc dbctx.Context, id uuid.UUID) error {
	return r.tx(dbc).
		Model(&types.ShortlistEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_locked": false,
			"locked_at": nil,
		}).Error
}

func (r *shortlistRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := r.tx(dbc).
		Where("id = ? AND is_locked = ?", id, false).
		Delete(&types.ShortlistEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := r.tx(dbc).Model(&types.ShortlistEntry{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrEntryLocked
	}
	return gorm.ErrRecordNotFound
}
