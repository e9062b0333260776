package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jivorix/checkout-service/internal/inventory"
	kafkax "github.com/jivorix/checkout-service/internal/kafka"
	"github.com/jivorix/checkout-service/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
)

// Envelope is the uniform response shape the storefront clients expect.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, code int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Envelope{Success: success, Message: message, Data: data})
}

func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrUserNotFound):
		respond(w, http.StatusNotFound, false, "User not found", nil)
	case errors.Is(err, orders.ErrOrderNotFound):
		respond(w, http.StatusNotFound, false, "Order not found", nil)
	case errors.Is(err, inventory.ErrItemNotFound):
		respond(w, http.StatusNotFound, false, err.Error(), nil)
	case errors.Is(err, orders.ErrNotCancellable):
		respond(w, http.StatusConflict, false, "Order cannot be cancelled. It may have already been processed or delivered.", nil)
	case errors.Is(err, orders.ErrInvalidStatus):
		respond(w, http.StatusBadRequest, false, invalidStatusMessage(), nil)
	default:
		respond(w, http.StatusInternalServerError, false, "Database error: "+err.Error(), nil)
	}
}

func invalidStatusMessage() string {
	msg := "Invalid status. Valid statuses: "
	for i, s := range orders.Statuses {
		if i > 0 {
			msg += ", "
		}
		msg += string(s)
	}
	return msg
}

// Publisher is the slice of the kafka producer the handlers need.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

func publishEvent(p Publisher, service, eventType, correlationID, traceID string, payload any) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      service,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
