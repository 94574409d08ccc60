// Package problem turns errors into HTTP status codes at the API boundary.
//
// Error responses carry no body: clients get the status code and nothing
// else. The error itself goes to the request-scoped log.
package problem

import (
	"context"
	"errors"
	"net/http"

	"github.com/Togather-Foundation/events-api/internal/domain/events"
	"github.com/rs/zerolog"
)

// StatusFor maps an error returned by the service layer to a response status.
func StatusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, events.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, events.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, events.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error logs err and writes the status StatusFor picks, with an empty body.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	Write(w, r, StatusFor(err), err)
}

// Write logs err through the request logger (5xx at error level, 4xx at warn)
// and writes status with an empty body.
func Write(w http.ResponseWriter, r *http.Request, status int, err error) {
	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		var evt *zerolog.Event
		if status >= 500 {
			evt = logger.Error()
		} else {
			evt = logger.Warn()
		}
		evt.Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(http.StatusText(status))
	}

	w.Header().Set("Content-Length", "0")
	w.WriteHeader(status)
}
