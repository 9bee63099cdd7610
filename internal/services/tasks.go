package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/advisor-backend/internal/data/repos"
	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/actions"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/counsellor"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

// TaskUpdate carries optional fields; nil leaves the column unchanged.
type TaskUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *int       `json:"priority"`
	Status      *string    `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

type TaskService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*types.Task, error)
	Create(ctx context.Context, userID uuid.UUID, in TaskInput) (*types.Task, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, in TaskUpdate) (*types.Task, error)
}

type taskService struct {
	log      *logger.Logger
	tasks    repos.TaskRepo
	executor *actions.Executor
}

func NewTaskService(log *logger.Logger, tasks repos.TaskRepo, executor *actions.Executor) TaskService {
	return &taskService{log: log.With("service", "TaskService"), tasks: tasks, executor: executor}
}

func (s *taskService) List(ctx context.Context, userID uuid.UUID) ([]*types.Task, error) {
	out, err := s.tasks.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func (s *taskService) Create(ctx context.Context, userID uuid.UUID, in TaskInput) (*types.Task, error) {
	res, err := s.executor.Execute(ctx, userID, []counsellor.Action{{
		Type: counsellor.ActionCreateTask,
		Params: map[string]any{
			"title":       in.Title,
			"description": in.Description,
			"priority":    in.Priority,
		},
	}})
	if err != nil {
		return nil, userMissing(err)
	}
	entry, err := single(res)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(fmt.Sprint(entry.Result["task_id"]))
	if err != nil {
		return nil, fmt.Errorf("created task id: %w", err)
	}
	return s.tasks.GetForUser(dbctx.Context{Ctx: ctx}, userID, id)
}

func (s *taskService) Update(ctx context.Context, userID, taskID uuid.UUID, in TaskUpdate) (*types.Task, error) {
	dbc := dbctx.Context{Ctx: ctx}
	t, err := s.tasks.GetForUser(dbc, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if t == nil {
		return nil, apierr.NotFound("task")
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidRequest, "title cannot be empty")
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil {
		updates["priority"] = types.ClampPriority(*in.Priority)
	}
	if in.Status != nil {
		status, ok := types.ParseTaskStatus(*in.Status)
		if !ok {
			return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidStatus, "Invalid status: %s", *in.Status)
		}
		updates["status"] = status
	}
	if in.DueDate != nil {
		updates["due_date"] = in.DueDate.UTC()
	}
	if err := s.tasks.UpdateFields(dbc, t.ID, updates); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.tasks.GetForUser(dbc, userID, taskID)
}
