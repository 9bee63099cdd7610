package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/advisor-backend/internal/http/response"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
	"github.com/yungbote/advisor-backend/internal/services"
)

type DashboardHandler struct {
	log       *logger.Logger
	dashboard services.DashboardService
}

func NewDashboardHandler(log *logger.Logger, dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{log: log.With("handler", "DashboardHandler"), dashboard: dashboard}
}

// GET /api/dashboard
func (h *DashboardHandler) Summary(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	out, err := h.dashboard.Summary(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/dashboard/timeline
func (h *DashboardHandler) Timeline(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	items, err := h.dashboard.Timeline(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, items)
}
