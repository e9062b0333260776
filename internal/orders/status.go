package orders

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses in lifecycle order, also used to render validation messages.
var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ValidStatus(s Status) bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// CancelWindow is the grace period during which orders outside the
// pending/processing states remain cancellable.
const CancelWindow = 24 * time.Hour

// CanCancel reports whether an order may still be cancelled: always for
// pending/processing, otherwise only inside the (inclusive) 24h window and
// never once delivered or cancelled.
func CanCancel(status Status, orderDate, now time.Time) bool {
	if status == StatusPending || status == StatusProcessing {
		return true
	}
	if status == StatusDelivered || status == StatusCancelled {
		return false
	}
	return now.Sub(orderDate) <= CancelWindow
}
