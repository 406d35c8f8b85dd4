package orders

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64
	Name            string
	Phone           string
	ShippingAddress string
	DetailAddress   string
	RequestNote     string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Lines   []OrderLine
	Payment *Payment
}

// Number is the customer-facing order number.
func (o *Order) Number() string { return fmt.Sprintf("ORD-%d", o.ID) }

// TotalAmount is the sum of quantity * captured unit price over all lines.
func (o *Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Status is the order-level view of the customer lifecycle, taken from the
// first line. PENDING when the order has no lines yet.
func (o *Order) Status() FulfillmentStatus {
	if len(o.Lines) == 0 {
		return FulfillmentPending
	}
	return o.Lines[0].Fulfillment
}

// Shipping returns the shipping view once a carrier has been assigned.
func (o *Order) Shipping() *ShippingInfo {
	for _, l := range o.Lines {
		if l.Courier != "" {
			return &ShippingInfo{
				Status:         l.Fulfillment,
				Courier:        l.Courier,
				TrackingNumber: l.TrackingNumber,
				UpdatedAt:      l.UpdatedAt,
			}
		}
	}
	return nil
}

func ParseOrderNumber(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "ORD-"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order number %q", s)
	}
	return id, nil
}

// OrderLine references a (product, option) pair with the unit price captured
// at creation time. UnitPrice is a snapshot; it must never be recomputed
// from the current catalog price.
type OrderLine struct {
	ID        int64
	OrderID   int64
	ProductID int64
	OptionID  int64
	Quantity  int
	UnitPrice decimal.Decimal

	Courier        string
	TrackingNumber string

	Fulfillment FulfillmentStatus
	Procurement ProcurementStatus
	Claim       ClaimStatus
	ClaimReason string

	// display data resolved from the catalog on read
	ProductName string
	OptionSize  string
	OptionColor string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is read-only in this core; rows are written by the payment
// integration.
type Payment struct {
	TransactionID string
	OrderID       int64
	Amount        decimal.Decimal
	PaymentType   string
	PaymentStatus string
	PaidAt        time.Time
}

type ShippingInfo struct {
	Status         FulfillmentStatus
	Courier        string
	TrackingNumber string
	UpdatedAt      time.Time
}

// HeaderUpdate carries the mutable customer/shipping fields of an order
// header.
type HeaderUpdate struct {
	Name            string
	Phone           string
	ShippingAddress string
	DetailAddress   string
	RequestNote     string
}
