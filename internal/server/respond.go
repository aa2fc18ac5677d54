package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/matzehuels/gardenflow/pkg/errors"
)

type errorBody struct {
	Error     errorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidOption, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidSchema:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeGardenNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNavigationThrottled:
		return http.StatusTooManyRequests
	case errors.ErrCodeSuperseded:
		return http.StatusConflict
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeNetworkError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	if r.URL.Query().Get("pretty") == "true" {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err, "request_id", RequestID(r.Context()))
	}
}

// writeError writes err as a JSON error body. Errors without a code are
// reported as INTERNAL_ERROR without their message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		s.logger.Error("internal error", "error", err, "request_id", RequestID(r.Context()))
		code = errors.ErrCodeInternal
		msg = "internal error"
	}

	var throttled *errors.ThrottledError
	if errors.As(err, &throttled) && throttled.RetryAfterMillis > 0 {
		secs := (throttled.RetryAfterMillis + 999) / 1000
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}

	s.writeJSON(w, r, statusFor(code), errorBody{
		Error:     errorDetail{Code: code, Message: msg},
		RequestID: RequestID(r.Context()),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusMethodNotAllowed, errorBody{
		Error:     errorDetail{Code: errors.ErrCodeInvalidInput, Message: "method " + r.Method + " not allowed"},
		RequestID: RequestID(r.Context()),
	})
}
