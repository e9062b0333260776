package orders

const (
	TopicOrderStatus   = "checkout.order.status"
	TopicStockReserved = "checkout.stock.reserved"
	TopicStockDepleted = "checkout.stock.depleted"
)

// Partition key keeps all events for one order, or one stock batch, in order.
func PartitionKey(id string) []byte { return []byte(id) }
