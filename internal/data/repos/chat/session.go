package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type ChatSessionRepo interface {
	Create(dbc dbctx.Context, s *types.ChatSession) error
	GetForUser(dbc dbctx.Context, userID, sessionID uuid.UUID) (*types.ChatSession, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ChatSession, error)
	Touch(dbc dbctx.Context, id uuid.UUID) error
	// Rename reports whether a session owned by userID was updated.
	Rename(dbc dbctx.Context, userID, sessionID uuid.UUID, title string) (bool, error)
	// Delete removes a session and its messages, reporting whether it existed.
	Delete(dbc dbctx.Context, userID, sessionID uuid.UUID) (bool, error)
	DeleteAllByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type chatSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatSessionRepo(db *gorm.DB, log *logger.Logger) ChatSessionRepo {
	return &chatSessionRepo{db: db, log: log.With("repo", "ChatSessionRepo")}
}

func (r *chatSessionRepo) Create(dbc dbctx.Context, s *types.ChatSession) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(s).Error
}

func (r *chatSessionRepo) GetForUser(dbc dbctx.Context, userID, sessionID uuid.UUID) (*types.ChatSession, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var s types.ChatSession
	err := txx.WithContext(dbc.Ctx).Where("id = ? AND user_id = ?", sessionID, userID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *chatSessionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ChatSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ChatSession
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatSessionRepo) Touch(dbc dbctx.Context, id uuid.UUID) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.ChatSession{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

func (r *chatSessionRepo) Rename(dbc dbctx.Context, userID, sessionID uuid.UUID, title string) (bool, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Model(&types.ChatSession{}).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Updates(map[string]interface{}{"title": title, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

func (r *chatSessionRepo) Delete(dbc dbctx.Context, userID, sessionID uuid.UUID) (bool, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var found bool
	err := txx.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).Delete(&types.ChatMessage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", sessionID, userID).Delete(&types.ChatSession{})
		found = res.RowsAffected > 0
		return res.Error
	})
	return found, err
}

func (r *chatSessionRepo) DeleteAllByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	err := txx.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&types.ChatMessage{}).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ?", userID).Delete(&types.ChatSession{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}
