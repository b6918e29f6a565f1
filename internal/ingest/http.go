package ingest

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"alertengine/internal/domain"
	"alertengine/internal/permanent"
)

// EventSink receives decoded events from ingest interfaces.
// Params: context and decoded event payload.
// Returns: affected alerts and processing error.
type EventSink interface {
	Process(ctx context.Context, event domain.Event) ([]domain.Alert, error)
}

// HTTPHandler decodes JSON events and forwards them to the sink.
// Params: sink receives validated events, max body limits payload size.
// Returns: HTTP handler for ingest endpoint.
type HTTPHandler struct {
	sink        EventSink
	maxBodySize int64
}

// NewHTTPHandler creates ingest HTTP handler.
// Params: sink and max request body size in bytes.
// Returns: configured handler.
func NewHTTPHandler(sink EventSink, maxBodySize int64) *HTTPHandler {
	return &HTTPHandler{sink: sink, maxBodySize: maxBodySize}
}

// ServeHTTP handles one incoming event or event-batch request.
// Params: HTTP request/response writer pair.
// Returns: writes status code according to decode/process result.
func (h *HTTPHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	request.Body = http.MaxBytesReader(writer, request.Body, h.maxBodySize)
	defer request.Body.Close()
	body, err := io.ReadAll(request.Body)
	if err != nil {
		writer.WriteHeader(http.StatusBadRequest)
		return
	}

	events, err := decodePayload(body)
	if err != nil {
		writer.WriteHeader(http.StatusBadRequest)
		return
	}

	for _, event := range events {
		if _, err := h.sink.Process(request.Context(), event); err != nil {
			if permanent.Is(err) {
				writer.WriteHeader(http.StatusBadRequest)
				return
			}
			writer.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	writer.WriteHeader(http.StatusAccepted)
}

// decodePayload decodes one event object or an event array.
// Params: raw JSON request body.
// Returns: validated events or decode error.
func decodePayload(body []byte) ([]domain.Event, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return domain.DecodeEvents(trimmed)
	}
	event, err := domain.DecodeEvent(trimmed)
	if err != nil {
		return nil, err
	}
	return []domain.Event{event}, nil
}
