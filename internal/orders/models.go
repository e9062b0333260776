package orders

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrOrderNotFound  = errors.New("order not found")
	ErrNotCancellable = errors.New("order cannot be cancelled")
)

// Source names one of the three backing tables. Table names used in SQL come
// from this fixed set only, never from request input.
type Source string

const (
	SourceCOD    Source = "paymentondelivery"
	SourceOnline Source = "onlinepayment"
	SourceCard   Source = "creditcardpayment"
)

// Sources in probe order: COD first, then online, then card.
var Sources = []Source{SourceCOD, SourceOnline, SourceCard}

// Order is the normalized shape shared by all three payment tables. Variant
// fields are pointers and omitted from JSON when the source lacks them.
type Order struct {
	ID             int64             `json:"id"`
	UserID         string            `json:"user_id"`
	CustomerName   string            `json:"customer_name"`
	Phone          string            `json:"phone"`
	Email          string            `json:"email"`
	Country        string            `json:"country"`
	City           string            `json:"city"`
	Address        string            `json:"address"`
	Products       []json.RawMessage `json:"products"`
	TransactionID  string            `json:"transaction_id"`
	PaymentMethod  string            `json:"payment_method"`
	PaymentAmount  float64           `json:"payment_amount"`
	ProductAmount  float64           `json:"product_amount"`
	DeliveryCharge float64           `json:"delivery_charge"`
	Discount       float64           `json:"discount"`
	AppliedPromo   *string           `json:"applied_promo"`
	OrderDate      time.Time         `json:"order_date"`
	Status         Status            `json:"order_status"`
	Source         Source            `json:"table_source"`

	// online wallet orders
	PaymentGateway       *string `json:"payment_gateway,omitempty"`
	GatewayTransactionID *string `json:"gateway_transaction_id,omitempty"`

	// card orders
	CardLastFour           *string `json:"card_last_four,omitempty"`
	CardType               *string `json:"card_type,omitempty"`
	PaymentProcessor       *string `json:"payment_processor,omitempty"`
	ProcessorTransactionID *string `json:"processor_transaction_id,omitempty"`

	// derived, filled when orders are returned to clients
	ItemCount     int    `json:"item_count"`
	CanCancel     bool   `json:"can_cancel"`
	FormattedDate string `json:"formatted_date"`
}

type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

type History struct {
	Orders      []Order    `json:"orders"`
	TotalOrders int        `json:"totalOrders"`
	TotalCount  int        `json:"totalCount"`
	Pagination  Pagination `json:"pagination"`
}
