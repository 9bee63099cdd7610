package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/advisor-backend/internal/http/response"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
	"github.com/yungbote/advisor-backend/internal/services"
)

type ProfileHandler struct {
	log      *logger.Logger
	profiles services.ProfileService
}

func NewProfileHandler(log *logger.Logger, profiles services.ProfileService) *ProfileHandler {
	return &ProfileHandler{log: log.With("handler", "ProfileHandler"), profiles: profiles}
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	view, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, view)
}

// PUT /api/profile
func (h *ProfileHandler) Upsert(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req services.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, h.log, apierr.Invalid(err))
		return
	}
	view, err := h.profiles.Upsert(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/onboarding/complete
func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	view, err := h.profiles.CompleteOnboarding(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, view)
}
