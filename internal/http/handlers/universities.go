package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/advisor-backend/internal/http/response"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
	"github.com/yungbote/advisor-backend/internal/services"
)

type UniversityHandler struct {
	log          *logger.Logger
	universities services.UniversityService
}

func NewUniversityHandler(log *logger.Logger, universities services.UniversityService) *UniversityHandler {
	return &UniversityHandler{log: log.With("handler", "UniversityHandler"), universities: universities}
}

// GET /api/universities?country=Germany&country=Canada&discipline=&degree=&max_budget=
func (h *UniversityHandler) List(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var countries []string
	for _, v := range c.QueryArray("country") {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				countries = append(countries, part)
			}
		}
	}
	unis, err := h.universities.List(c.Request.Context(), userID, services.UniversityQuery{
		Countries:  countries,
		Discipline: c.Query("discipline"),
		Degree:     c.Query("degree"),
		MaxBudget:  queryInt(c, "max_budget", 0),
	})
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"universities": unis, "count": len(unis)})
}

// GET /api/universities/:id
func (h *UniversityHandler) Get(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	id, err := uintParam(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	uni, err := h.universities.Get(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, uni)
}

// GET /api/universities/compare?ids=1,2,3
func (h *UniversityHandler) Compare(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var ids []uint
	for _, part := range strings.Split(c.Query("ids"), ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil || n == 0 {
			response.RespondAPIError(c, h.log, apierr.Invalid(errors.New("ids must be comma-separated university ids")))
			return
		}
		ids = append(ids, uint(n))
	}
	unis, err := h.universities.Compare(c.Request.Context(), userID, ids)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"universities": unis})
}
