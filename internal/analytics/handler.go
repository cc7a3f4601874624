package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/etalage/web/internal/httpx"
	"github.com/etalage/web/internal/requestctx"
)

const maxBodyBytes = 8 << 10

// Observer records accepted events and failed deliveries.
type Observer interface {
	ObserveEvent(name string)
	ObservePublishFailure(sink string)
}

type nopObserver struct{}

func (nopObserver) ObserveEvent(string)          {}
func (nopObserver) ObservePublishFailure(string) {}

// Handler accepts POSTed events and forwards them to the publisher.
type Handler struct {
	publisher Publisher
	observer  Observer
}

// NewHandler constructs the events endpoint. A nil observer disables metrics.
func NewHandler(publisher Publisher, observer Observer) *Handler {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Handler{publisher: publisher, observer: observer}
}

type eventRequest struct {
	Name  string         `json:"name"`
	Path  string         `json:"path"`
	Props map[string]any `json:"props"`
}

type eventResponse struct {
	ID string `json:"id"`
}

// ServeHTTP decodes `{name, path, props}` and answers 202 with the event id.
// Delivery failures are logged and counted; the client still gets 202.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestctx.Logger(ctx)

	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.ErrBadRequest.WithMessage("invalid event payload"))
		return
	}

	props := make(map[string]string, len(req.Props))
	for k, v := range req.Props {
		if v == nil {
			continue
		}
		props[k] = fmt.Sprint(v)
	}

	event, err := NewEvent(req.Name, req.Path, props, requestctx.Now(ctx))
	if err != nil {
		if errors.Is(err, ErrUnknownEvent) {
			httpx.WriteError(ctx, w, httpx.NewError("unknown_event", "unknown event", http.StatusUnprocessableEntity))
			return
		}
		httpx.WriteError(ctx, w, httpx.ErrBadRequest.WithMessage(err.Error()))
		return
	}

	h.observer.ObserveEvent(event.Name)
	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, event); err != nil {
			h.observer.ObservePublishFailure(h.publisher.Name())
			logger.Warn("analytics publish failed",
				zap.String("event", event.Name),
				zap.String("sink", h.publisher.Name()),
				zap.Error(err),
			)
		}
	}

	httpx.WriteJSON(w, http.StatusAccepted, eventResponse{ID: event.ID})
}
