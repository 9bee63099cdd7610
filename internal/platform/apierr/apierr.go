package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable codes surfaced to API clients.
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeNotFound             = "NOT_FOUND"
	CodeStageBlocked         = "STAGE_BLOCKED"
	CodeStageLocked          = "STAGE_LOCKED"
	CodeNoShortlist          = "NO_SHORTLIST"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeEntryLocked          = "ENTRY_LOCKED"
	CodeInvalidStatus        = "INVALID_STATUS"
	CodeProfileIncomplete    = "PROFILE_INCOMPLETE"
	CodeRateLimited          = "RATE_LIMITED"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeLLMUnavailable       = "LLM_UNAVAILABLE"
	CodeInternal             = "INTERNAL"
)

type Error struct {
	Status  int
	Code    string
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Newf is New with a formatted message.
func Newf(status int, code, format string, args ...any) *Error {
	return New(status, code, fmt.Errorf(format, args...))
}

// WithDetails attaches structured guidance (current stage, next step, warnings).
func (e *Error) WithDetails(details map[string]any) *Error {
	if e == nil {
		return nil
	}
	e.Details = details
	return e
}

func NotFound(what string) *Error {
	return Newf(http.StatusNotFound, CodeNotFound, "%s not found", what)
}

func Invalid(err error) *Error {
	return New(http.StatusBadRequest, CodeInvalidRequest, err)
}

// As unwraps err into an *Error when present.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// StatusFor maps a machine code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case CodeInvalidRequest, CodeNoShortlist, CodeInvalidStatus, CodeProfileIncomplete:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeStageBlocked, CodeStageLocked:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeEntryLocked, CodeConfirmationRequired:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeLLMUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
