package http

import (
	"errors"
	"net/http"

	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/log"
)

var (
	errUnauthenticated = errors.New("missing or invalid bearer token")
	errRateLimited     = errors.New("rate limit exceeded, please try again later")
)

// requestError is a malformed request: bad JSON, unknown fields, bad query.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// classify maps an error to its HTTP status and public code.
func classify(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "bad_request"
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrDuplicateInvitation),
		errors.Is(err, core.ErrAlreadyResolved),
		errors.Is(err, core.ErrAlreadyCoupled):
		return http.StatusConflict, "conflict"
	case errors.Is(err, core.ErrExpired):
		return http.StatusGone, "expired"
	case errors.Is(err, core.ErrLimitExceeded):
		return http.StatusForbidden, "limit_exceeded"
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, core.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError answers with the mapped status. Internal failures are logged and
// never echoed to the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	body := errorBody{Error: code, Message: err.Error()}

	var verr *core.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}

	log.RequestFailed(r.Context(), err, status, r.Method+" "+r.URL.Path)
	if status == http.StatusInternalServerError {
		body.Message = "internal server error"
	}

	writeJSON(w, status, body)
}
