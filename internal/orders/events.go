package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated      = "OrderCreated"
	EventPurchaseConfirmed = "PurchaseConfirmed"
	EventClaimFiled        = "ClaimFiled"
	EventShippingUpdated   = "ShippingUpdated"
)

type Envelope struct {
	EventID       string          `json:"event_id"` // uuid
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // the order id
	Payload       json.RawMessage `json:"payload"`
}

type LinePayload struct {
	ProductID int64  `json:"product_id"`
	OptionID  int64  `json:"option_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderCreatedPayload struct {
	OrderID     int64         `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	TotalAmount string        `json:"total_amount"`
	Lines       []LinePayload `json:"lines"`
}

type PurchaseConfirmedPayload struct {
	OrderID            int64  `json:"order_id"`
	ProcurementStatus  string `json:"procurement_status"`
	HasSufficientStock bool   `json:"has_sufficient_stock"`
	AvailableQuantity  int    `json:"available_quantity"`
}

type ClaimFiledPayload struct {
	OrderID   int64  `json:"order_id"`
	ClaimType string `json:"claim_type"`
	Reason    string `json:"reason"`
	// Outcome is the fulfillment status the claim forced the lines into.
	Outcome string `json:"outcome"`
}

type ShippingUpdatedPayload struct {
	OrderID        int64  `json:"order_id"`
	Courier        string `json:"courier"`
	TrackingNumber string `json:"tracking_number"`
	Status         string `json:"status"`
}
