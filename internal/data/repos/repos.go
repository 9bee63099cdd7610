package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/advisor-backend/internal/data/repos/advising"
	"github.com/yungbote/advisor-backend/internal/data/repos/catalog"
	"github.com/yungbote/advisor-backend/internal/data/repos/chat"
	"github.com/yungbote/advisor-backend/internal/data/repos/user"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserProfileRepo = user.UserProfileRepo

type UniversityRepo = catalog.UniversityRepo

type ShortlistRepo = advising.ShortlistRepo
type TaskRepo = advising.TaskRepo

type ChatSessionRepo = chat.ChatSessionRepo
type ChatMessageRepo = chat.ChatMessageRepo

var ErrEntryLocked = advising.ErrEntryLocked

// Set groups every repository over one *gorm.DB.
type Set struct {
	User        UserRepo
	Profile     UserProfileRepo
	University  UniversityRepo
	Shortlist   ShortlistRepo
	Task        TaskRepo
	ChatSession ChatSessionRepo
	ChatMessage ChatMessageRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		User:        user.NewUserRepo(db, log),
		Profile:     user.NewUserProfileRepo(db, log),
		University:  catalog.NewUniversityRepo(db, log),
		Shortlist:   advising.NewShortlistRepo(db, log),
		Task:        advising.NewTaskRepo(db, log),
		ChatSession: chat.NewChatSessionRepo(db, log),
		ChatMessage: chat.NewChatMessageRepo(db, log),
	}
}
