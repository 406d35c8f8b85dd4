package orders

import "strconv"

const (
	TopicOrderCreated      = "order.created"
	TopicPurchaseConfirmed = "order.purchase.confirmed"
	TopicClaimFiled        = "order.claim.filed"
	TopicShippingUpdated   = "order.shipping.updated"
)

// Partition key = order id so every event for one order keeps its ordering.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
