package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/advisor-backend/internal/http/response"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
	"github.com/yungbote/advisor-backend/internal/services"
)

type ShortlistHandler struct {
	log       *logger.Logger
	shortlist services.ShortlistService
}

func NewShortlistHandler(log *logger.Logger, shortlist services.ShortlistService) *ShortlistHandler {
	return &ShortlistHandler{log: log.With("handler", "ShortlistHandler"), shortlist: shortlist}
}

type addShortlistReq struct {
	UniversityID uint   `json:"university_id"`
	Category     string `json:"category"`
}

// GET /api/shortlist
func (h *ShortlistHandler) List(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	entries, err := h.shortlist.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"shortlist": entries})
}

// POST /api/shortlist
func (h *ShortlistHandler) Add(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req addShortlistReq
	if err := c.ShouldBindJSON(&req); err != nil || req.UniversityID == 0 {
		response.RespondAPIError(c, h.log, apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidRequest, "university_id is required"))
		return
	}
	entry, err := h.shortlist.Add(c.Request.Context(), userID, req.UniversityID, req.Category)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, entry.Result)
}

// DELETE /api/shortlist/:university_id
func (h *ShortlistHandler) Remove(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	uniID, err := uintParam(c, "university_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if err := h.shortlist.Remove(c.Request.Context(), userID, uniID); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"removed": true, "university_id": uniID})
}

// POST /api/shortlist/:university_id/lock
func (h *ShortlistHandler) Lock(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	uniID, err := uintParam(c, "university_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	entry, err := h.shortlist.Lock(c.Request.Context(), userID, uniID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, entry.Result)
}

// POST /api/shortlist/:university_id/unlock?confirm=true
func (h *ShortlistHandler) Unlock(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	uniID, err := uintParam(c, "university_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	entry, err := h.shortlist.Unlock(c.Request.Context(), userID, uniID, queryBool(c, "confirm"))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, entry.Result)
}
