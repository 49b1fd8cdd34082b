package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"tick-task/internal/model"
	"tick-task/internal/service"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []service.FieldError `json:"fields,omitempty"`
}

// readBodyError wraps a failure to read the request body.
type readBodyError struct {
	err error
}

func (e readBodyError) Error() string { return "read body: " + e.err.Error() }
func (e readBodyError) Unwrap() error { return e.err }

// writeError maps err onto a status code and the JSON error body. Unexpected
// errors are logged and hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr    *service.ValidationError
		tooBig  *http.MaxBytesError
		readErr readBodyError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: errorDetail{
			Code:    "validation_error",
			Message: "request validation failed",
			Fields:  verr.Fields,
		}})
	case errors.Is(err, model.ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{
			Code:    "not_found",
			Message: "task not found",
		}})
	case errors.Is(err, model.ErrTaskArchived), errors.Is(err, model.ErrTaskAlreadyArchived):
		writeJSON(w, http.StatusConflict, errorBody{Error: errorDetail{
			Code:    "conflict",
			Message: err.Error(),
		}})
	case errors.As(err, &tooBig):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: errorDetail{
			Code:    "body_too_large",
			Message: "request body too large",
		}})
	case errors.As(err, &readErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "bad_request",
			Message: "could not read request body",
		}})
	default:
		s.logger.Logf("ERROR %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
			Code:    "internal_error",
			Message: "internal server error",
		}})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
