package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/ctxutil"
)

var errUnauthenticated = errors.New("missing or invalid token")

func currentUser(c *gin.Context) (uuid.UUID, error) {
	id := ctxutil.UserID(c.Request.Context())
	if id == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, errUnauthenticated)
	}
	return id, nil
}

func uintParam(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || n == 0 {
		return 0, apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidRequest, "invalid %s", name)
	}
	return uint(n), nil
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidRequest, "invalid %s", name)
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, def int) int {
	if v := strings.TrimSpace(c.Query(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func queryBool(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(c.Query(name)))
	return b
}
