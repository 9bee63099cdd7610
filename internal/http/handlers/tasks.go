package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/advisor-backend/internal/http/response"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
	"github.com/yungbote/advisor-backend/internal/services"
)

type TaskHandler struct {
	log   *logger.Logger
	tasks services.TaskService
}

func NewTaskHandler(log *logger.Logger, tasks services.TaskService) *TaskHandler {
	return &TaskHandler{log: log.With("handler", "TaskHandler"), tasks: tasks}
}

// GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	tasks, err := h.tasks.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"tasks": tasks})
}

// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req services.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, h.log, apierr.Invalid(err))
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"task": task})
}

// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	taskID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req services.TaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, h.log, apierr.Invalid(err))
		return
	}
	task, err := h.tasks.Update(c.Request.Context(), userID, taskID, req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"task": task})
}
