package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/venicegeo/bf-s2reader/model"
)

// HTTPErr is an error carrying the HTTP status it should be reported with
type HTTPErr struct {
	Status  int
	Message string
}

func (err HTTPErr) Error() string {
	return fmt.Sprintf("%d: %s", err.Status, err.Message)
}

// HTTPError logs the message and writes it as a plain-text response with the given status
func HTTPError(request *http.Request, writer http.ResponseWriter, ctx LogContext, message string, status int) {
	LogInfo(ctx, "HTTP error response", "method", request.Method, "path", request.URL.Path, "status", status, "message", message)
	http.Error(writer, message, status)
}

// StatusForError maps the error taxonomy onto HTTP status codes
func StatusForError(err error) int {
	var httpErr HTTPErr
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidArgument), errors.Is(err, model.ErrUnrecognized):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
