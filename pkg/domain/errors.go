package domain

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	// NotFound covers unknown, expired and fully consumed notes alike so
	// callers cannot probe for existence.
	ErrNoteNotFound = NewErr("NOTE_NOT_FOUND", "note not found", http.StatusNotFound)

	ErrNoteTooLarge       = NewErr("NOTE_TOO_LARGE", "note exceeds size limit", http.StatusRequestEntityTooLarge)
	ErrMetaTooLarge       = NewErr("META_TOO_LARGE", "meta exceeds size limit", http.StatusBadRequest)
	ErrViewsOutOfRange    = NewErr("VIEWS_OUT_OF_RANGE", "views out of allowed range", http.StatusBadRequest)
	ErrTTLOutOfRange      = NewErr("TTL_OUT_OF_RANGE", "expiration out of allowed range", http.StatusBadRequest)
	ErrContentRequired    = NewErr("CONTENT_REQUIRED", "content required", http.StatusBadRequest)
	ErrInvalidRequest     = NewErr("INVALID_REQUEST", "invalid request", http.StatusBadRequest)
	ErrRateLimited        = NewErr("RATE_LIMITED", "rate limit exceeded", http.StatusTooManyRequests)
	ErrStorageUnavailable = NewErr("STORAGE_UNAVAILABLE", "storage unavailable", http.StatusServiceUnavailable)
	ErrInternalServer     = NewErr("INTERNAL_ERROR", "internal error", http.StatusInternalServerError)
	ErrIDGenerationFailed = NewErr("ID_GENERATION_FAILED", "id generation failed", http.StatusInternalServerError)
)

type Err struct {
	Code   string `json:"code"`
	Msg    string `json:"message"`
	Status int    `json:"-"`
}

func (e *Err) Error() string { return e.Msg }
func NewErr(code, msg string, status int) *Err {
	return &Err{Code: code, Msg: msg, Status: status}
}

// IsValidation reports whether err is one of the client-correctable
// bound violations produced by the expiration policy.
func IsValidation(err error) bool {
	switch cause(err) {
	case ErrNoteTooLarge, ErrMetaTooLarge, ErrViewsOutOfRange, ErrTTLOutOfRange, ErrContentRequired:
		return true
	}
	return false
}

type ErrResp struct {
	Error ErrDetail `json:"error"`
}
type ErrDetail struct {
	Code string `json:"code"`
	Msg  string `json:"message"`
}

func ToResp(err error) ErrResp {
	if e, ok := cause(err).(*Err); ok {
		return ErrResp{Error: ErrDetail{Code: e.Code, Msg: e.Msg}}
	}
	return ErrResp{Error: ErrDetail{Code: "INTERNAL_ERROR", Msg: "internal error"}}
}

func Status(err error) int {
	if e, ok := cause(err).(*Err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}

func cause(err error) error {
	if e, ok := err.(*Err); ok {
		return e
	}
	return errors.Cause(err)
}
