package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"listings_pipeline/internal/adapters/observability"
	"listings_pipeline/internal/domain"
)

type Splitter interface {
	Split(ctx context.Context, ev domain.ObjectEvent) domain.SplitSummary
}

type Loader interface {
	Load(ctx context.Context, ev domain.ObjectEvent) domain.LoadSummary
}

// Handlers serves storage CloudEvents. A nil pipeline is not routed.
type Handlers struct {
	Split Splitter
	Load  Loader
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	if h.Split != nil {
		s.mux.Post("/events/split", h.split)
	}
	if h.Load != nil {
		s.mux.Post("/events/load", h.load)
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

var errIncompleteEvent = errors.New("event data needs bucket and name")

// decodeObjectEvent accepts binary and structured CloudEvents.
func decodeObjectEvent(r *http.Request) (domain.ObjectEvent, error) {
	var ev domain.ObjectEvent
	ce, err := cloudevents.NewEventFromHTTPRequest(r)
	if err != nil {
		return ev, err
	}
	if err := ce.DataAs(&ev); err != nil {
		return ev, err
	}
	if ev.Bucket == "" || ev.Name == "" {
		return ev, errIncompleteEvent
	}
	zerolog.Ctx(r.Context()).Debug().
		Str("ce_id", ce.ID()).
		Str("ce_type", ce.Type()).
		Str("ce_source", ce.Source()).
		Msg("event received")
	return ev, nil
}

// Job failures are reported in the summary with a 200 so the trigger does
// not redeliver; only undecodable events get a 4xx.
func (h *Handlers) split(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeObjectEvent(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid event", err.Error())
		return
	}
	sum := h.Split.Split(r.Context(), ev)
	observability.ObserveSplit(sum)
	writeJSON(w, sum)
}

func (h *Handlers) load(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeObjectEvent(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid event", err.Error())
		return
	}
	sum := h.Load.Load(r.Context(), ev)
	observability.ObserveLoad(sum)
	writeJSON(w, sum)
}
