package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/advisor-backend/internal/http/response"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/writing"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
	"github.com/yungbote/advisor-backend/internal/services"
)

type ToolsHandler struct {
	log   *logger.Logger
	tools services.ToolsService
}

func NewToolsHandler(log *logger.Logger, tools services.ToolsService) *ToolsHandler {
	return &ToolsHandler{log: log.With("handler", "ToolsHandler"), tools: tools}
}

// POST /api/sop/review
func (h *ToolsHandler) ReviewSOP(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req writing.SOPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, h.log, apierr.Invalid(err))
		return
	}
	out, err := h.tools.ReviewSOP(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/tools/cold-email
func (h *ToolsHandler) ColdEmail(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req writing.ColdEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, h.log, apierr.Invalid(err))
		return
	}
	out, err := h.tools.DraftColdEmail(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}
