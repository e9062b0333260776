package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderStatusChanged = "OrderStatusChanged"
	EventStockReserved      = "StockReserved"
	EventStockDepleted      = "StockDepleted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderStatusChangedPayload struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	Status        Status `json:"status"`
}

type ReservedLine struct {
	ItemID           string `json:"item_id"`
	PreviousQuantity int    `json:"previous_quantity"`
	ReducedBy        int    `json:"reduced_by"`
	NewQuantity      int    `json:"new_quantity"`
}

type StockReservedPayload struct {
	Items []ReservedLine `json:"items"`
}

// StockDepletedPayload lists items a reservation clamped to zero.
type StockDepletedPayload struct {
	ItemIDs []string `json:"item_ids"`
}
