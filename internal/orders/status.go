package orders

// FulfillmentStatus is the customer-facing lifecycle of an order line.
type FulfillmentStatus string

const (
	FulfillmentPending     FulfillmentStatus = "PENDING"
	FulfillmentItemPending FulfillmentStatus = "ITEM_PENDING"
	FulfillmentPostpone    FulfillmentStatus = "POSTPONE"
	FulfillmentConfirmed   FulfillmentStatus = "CONFIRMED"
	FulfillmentShipping    FulfillmentStatus = "SHIPPING"
	FulfillmentDelivered   FulfillmentStatus = "DELIVERED"
	FulfillmentCancelled   FulfillmentStatus = "CANCELLED"

	// Claim-driven terminal states, set only through FileClaim.
	FulfillmentReturn   FulfillmentStatus = "RETURN"
	FulfillmentExchange FulfillmentStatus = "EXCHANGE"
)

// CANCELLED is reachable from every state before a carrier is assigned;
// SHIPPING and later are past that point.
var validNextFulfillment = map[FulfillmentStatus]map[FulfillmentStatus]bool{
	FulfillmentPending: {
		FulfillmentItemPending: true,
		FulfillmentPostpone:    true,
		FulfillmentConfirmed:   true,
		FulfillmentCancelled:   true,
	},
	FulfillmentItemPending: {
		FulfillmentPostpone:  true,
		FulfillmentConfirmed: true,
		FulfillmentCancelled: true,
	},
	FulfillmentPostpone: {
		FulfillmentItemPending: true,
		FulfillmentConfirmed:   true,
		FulfillmentCancelled:   true,
	},
	FulfillmentConfirmed: {
		FulfillmentShipping:  true,
		FulfillmentCancelled: true,
	},
	FulfillmentShipping: {
		FulfillmentDelivered: true,
	},
	FulfillmentDelivered: {},
	FulfillmentCancelled: {},
	FulfillmentReturn:    {},
	FulfillmentExchange:  {},
}

func (s FulfillmentStatus) Valid() bool {
	_, ok := validNextFulfillment[s]
	return ok
}

func (s FulfillmentStatus) CanTransition(to FulfillmentStatus) bool {
	return validNextFulfillment[s][to]
}

// ProcurementStatus is the supplier/warehouse confirmation axis, independent
// of fulfillment. The zero value means no procurement decision has been made.
type ProcurementStatus string

const (
	ProcurementUnset     ProcurementStatus = ""
	ProcurementConfirmed ProcurementStatus = "CONFIRMED"
	ProcurementPending   ProcurementStatus = "PENDING"
	ProcurementCancelled ProcurementStatus = "CANCELLED"
)

func (s ProcurementStatus) Valid() bool {
	switch s {
	case ProcurementUnset, ProcurementConfirmed, ProcurementPending, ProcurementCancelled:
		return true
	}
	return false
}

// CanCancel reports whether a seller cancellation is still allowed. Once a
// line is CONFIRMED the purchase order has gone out and cancellation must be
// rejected.
func (s ProcurementStatus) CanCancel() bool {
	return s == ProcurementUnset || s == ProcurementPending
}

// ClaimStatus is set once a post-purchase claim is filed and never cleared.
type ClaimStatus string

const (
	ClaimNone     ClaimStatus = ""
	ClaimReturn   ClaimStatus = "RETURN"
	ClaimExchange ClaimStatus = "EXCHANGE"
	ClaimCancel   ClaimStatus = "CANCEL"
)

func (c ClaimStatus) Valid() bool {
	switch c {
	case ClaimReturn, ClaimExchange, ClaimCancel:
		return true
	}
	return false
}

// FulfillmentOutcome is the fulfillment state a filed claim forces the line
// into.
func (c ClaimStatus) FulfillmentOutcome() FulfillmentStatus {
	switch c {
	case ClaimReturn:
		return FulfillmentReturn
	case ClaimExchange:
		return FulfillmentExchange
	default:
		return FulfillmentCancelled
	}
}
