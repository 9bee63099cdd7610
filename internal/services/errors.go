package services

import (
	"errors"
	"net/http"

	"github.com/yungbote/advisor-backend/internal/modules/advisor/actions"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/stage"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
)

func violationError(v *stage.Violation) *apierr.Error {
	return apierr.New(apierr.StatusFor(v.Code), v.Code, errors.New(v.Message)).WithDetails(v.Details())
}

// blockedError turns a refused action into the matching API error.
func blockedError(e actions.Entry) *apierr.Error {
	code := e.Code
	if code == "" {
		code = apierr.CodeInvalidRequest
	}
	return apierr.New(apierr.StatusFor(code), code, errors.New(e.Reason)).WithDetails(e.Details)
}

// single runs the executor result of a one-action batch through the API
// error mapping.
func single(res actions.Result) (actions.Entry, error) {
	if len(res.Blocked) > 0 {
		return actions.Entry{}, blockedError(res.Blocked[0])
	}
	if len(res.Executed) == 0 {
		return actions.Entry{}, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, errors.New("action produced no result"))
	}
	return res.Executed[0], nil
}

func userMissing(err error) error {
	if errors.Is(err, actions.ErrUserNotFound) {
		return apierr.NotFound("user")
	}
	return err
}
