package chat

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/advisor-backend/internal/domain"
	chatdomain "github.com/yungbote/advisor-backend/internal/domain/chat"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type ChatMessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.ChatMessage) ([]*types.ChatMessage, error)
	// ListRecent returns the last limit messages of a session in chronological order.
	ListRecent(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error)
	RecentAssistantFingerprints(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]string, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, log *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: log.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(dbc dbctx.Context, rows []*types.ChatMessage) ([]*types.ChatMessage, error) {
	if len(rows) == 0 {
		return []*types.ChatMessage{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chatMessageRepo) ListRecent(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ChatMessage
	if err := txx.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *chatMessageRepo) RecentAssistantFingerprints(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []string
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ChatMessage{}).
		Where("session_id = ? AND role = ? AND fingerprint <> ''", sessionID, chatdomain.RoleAssistant).
		Order("created_at DESC").
		Limit(limit).
		Pluck("fingerprint", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
