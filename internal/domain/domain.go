package domain

import (
	"github.com/yungbote/advisor-backend/internal/domain/advising"
	"github.com/yungbote/advisor-backend/internal/domain/catalog"
	"github.com/yungbote/advisor-backend/internal/domain/chat"
	"github.com/yungbote/advisor-backend/internal/domain/user"
)

type Stage = user.Stage

const (
	StageOnboarding  = user.StageOnboarding
	StageDiscovery   = user.StageDiscovery
	StageLocked      = user.StageLocked
	StageApplication = user.StageApplication
)

type User = user.User
type UserProfile = user.UserProfile

const (
	ExamNotStarted = user.ExamNotStarted
	ExamInProgress = user.ExamInProgress
	ExamCompleted  = user.ExamCompleted

	SOPNotStarted = user.SOPNotStarted
	SOPDraft      = user.SOPDraft
	SOPReady      = user.SOPReady
)

type University = catalog.University
type Program = catalog.Program

type Category = advising.Category

const (
	CategoryDream  = advising.CategoryDream
	CategoryTarget = advising.CategoryTarget
	CategorySafe   = advising.CategorySafe
)

var (
	ParseCategory   = advising.ParseCategory
	ParseTaskStatus = advising.ParseTaskStatus
	ClampPriority   = advising.ClampPriority
	ParseStage      = user.ParseStage
)

type ShortlistEntry = advising.ShortlistEntry
type Task = advising.Task
type TaskStatus = advising.TaskStatus

const (
	TaskPending    = advising.TaskPending
	TaskInProgress = advising.TaskInProgress
	TaskCompleted  = advising.TaskCompleted
)

type ChatSession = chat.ChatSession
type ChatMessage = chat.ChatMessage

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserProfile{},
		&University{},
		&Program{},
		&ShortlistEntry{},
		&Task{},
		&ChatSession{},
		&ChatMessage{},
	}
}
