package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/advisor-backend/internal/http/response"
	"github.com/yungbote/advisor-backend/internal/modules/advisor"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/actions"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/counsellor"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type ChatHandler struct {
	log     *logger.Logger
	advisor advisor.Usecases
}

func NewChatHandler(log *logger.Logger, uc advisor.Usecases) *ChatHandler {
	return &ChatHandler{log: log.With("handler", "ChatHandler"), advisor: uc}
}

type sendMessageReq struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	SessionID              uuid.UUID                     `json:"session_id"`
	MessageID              uuid.UUID                     `json:"message_id"`
	Message                string                        `json:"message"`
	Actions                []counsellor.Action           `json:"actions"`
	SuggestedUniversities  []advisor.SuggestedUniversity `json:"suggested_universities"`
	SuggestedNextQuestions []string                      `json:"suggested_next_questions"`
	Executed               []actions.Entry               `json:"executed,omitempty"`
	Blocked                []actions.Entry               `json:"blocked,omitempty"`
	FinalStage             string                        `json:"final_stage,omitempty"`
}

// POST /api/chat
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, h.log, apierr.Invalid(err))
		return
	}
	var sessionID uuid.UUID
	if s := strings.TrimSpace(req.SessionID); s != "" {
		if sessionID, err = uuid.Parse(s); err != nil {
			response.RespondAPIError(c, h.log, apierr.Invalid(errors.New("invalid session_id")))
			return
		}
	}

	out, err := h.advisor.Respond(c.Request.Context(), advisor.RespondInput{
		UserID:    userID,
		SessionID: sessionID,
		Content:   req.Message,
	})
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}

	resp := chatResponse{
		SessionID:              out.SessionID,
		MessageID:              out.MessageID,
		Message:                out.Message,
		Actions:                out.Actions,
		SuggestedUniversities:  out.SuggestedUniversities,
		SuggestedNextQuestions: out.SuggestedNextQuestions,
	}
	if out.ActionSummary != nil {
		resp.Executed = out.ActionSummary.Executed
		resp.Blocked = out.ActionSummary.Blocked
		resp.FinalStage = string(out.ActionSummary.FinalStage)
	}
	response.RespondOK(c, resp)
}

// GET /api/chat/sessions?limit=50
func (h *ChatHandler) ListSessions(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	sessions, err := h.advisor.ListSessions(c.Request.Context(), userID, queryInt(c, "limit", 50))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

// GET /api/chat/sessions/:id/messages?limit=100
func (h *ChatHandler) SessionMessages(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	sessionID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	msgs, err := h.advisor.SessionMessages(c.Request.Context(), userID, sessionID, queryInt(c, "limit", 100))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"session_id": sessionID, "messages": msgs})
}

type sessionTitleReq struct {
	Title string `json:"title"`
}

// POST /api/chat/sessions
func (h *ChatHandler) CreateSession(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req sessionTitleReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondAPIError(c, h.log, apierr.Invalid(err))
			return
		}
	}
	s, err := h.advisor.CreateSession(c.Request.Context(), userID, req.Title)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, s)
}

// PATCH /api/chat/sessions/:id
func (h *ChatHandler) RenameSession(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	sessionID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req sessionTitleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, h.log, apierr.Invalid(err))
		return
	}
	s, err := h.advisor.RenameSession(c.Request.Context(), userID, sessionID, req.Title)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, s)
}

// DELETE /api/chat/sessions/:id
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	sessionID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if err := h.advisor.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": sessionID})
}

// DELETE /api/chat/sessions
func (h *ChatHandler) DeleteAllSessions(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	n, err := h.advisor.DeleteAllSessions(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "All chat sessions deleted", "deleted": n})
}
