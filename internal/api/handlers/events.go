package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/events-api/internal/api/problem"
	"github.com/Togather-Foundation/events-api/internal/domain/events"
	"github.com/rs/zerolog"
)

type EventsHandler struct {
	Service *events.Service
}

func NewEventsHandler(service *events.Service) *EventsHandler {
	return &EventsHandler{Service: service}
}

var errNoService = errors.New("events handler has no service")

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Error(w, r, errNoService)
		return
	}

	items, err := h.Service.List(r.Context())
	if err != nil {
		problem.Error(w, r, err)
		return
	}
	if items == nil {
		items = []events.Event{}
	}

	writeJSON(w, r, http.StatusOK, items)
}

// Create stores the posted event and answers 201 with an empty body and a
// Location header pointing at the new resource.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Error(w, r, errNoService)
		return
	}

	event, err := decodeEvent(r.Body)
	if err != nil {
		problem.Error(w, r, err)
		return
	}

	created, err := h.Service.Create(r.Context(), event)
	if err != nil {
		problem.Error(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Debug().Int64("event_id", created.ID).Msg("event created")

	w.Header().Set("Location", locationFor(r, created.ID))
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusCreated)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Error(w, r, errNoService)
		return
	}

	id, err := events.ParseID(pathParam(r, "id"))
	if err != nil {
		problem.Error(w, r, err)
		return
	}

	item, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		problem.Error(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, item)
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Error(w, r, errNoService)
		return
	}

	id, err := events.ParseID(pathParam(r, "id"))
	if err != nil {
		problem.Error(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		problem.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeEvent reads exactly one JSON object from body. Oversized bodies keep
// their *http.MaxBytesError so they map to 413; everything else malformed is
// invalid input.
func decodeEvent(body io.Reader) (events.Event, error) {
	var event events.Event
	if body == nil {
		return event, events.InputError{Field: "body", Message: "missing"}
	}

	dec := json.NewDecoder(body)
	if err := dec.Decode(&event); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			return event, fmt.Errorf("read event body: %w", err)
		case errors.Is(err, events.ErrInvalidInput):
			return event, err
		case errors.Is(err, io.EOF):
			return event, events.InputError{Field: "body", Message: "missing"}
		default:
			return event, events.InputError{Field: "body", Message: err.Error()}
		}
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return event, fmt.Errorf("read event body: %w", err)
		}
		return event, events.InputError{Field: "body", Message: "unexpected data after JSON object"}
	}
	return event, nil
}

// locationFor builds the absolute URI of a created event from the request
// URL: scheme, host with port, and path with the id appended. Any query is
// dropped.
func locationFor(r *http.Request, id int64) string {
	u := url.URL{
		Scheme: requestScheme(r),
		Host:   r.Host,
		Path:   strings.TrimRight(r.URL.Path, "/") + "/" + strconv.FormatInt(id, 10),
	}
	return u.String()
}

// requestScheme honors X-Forwarded-Proto, which the router strips unless the
// peer is a trusted proxy.
func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); proto == "https" || proto == "http" {
		return proto
	}
	return "http"
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		problem.Error(w, r, fmt.Errorf("encode response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}
