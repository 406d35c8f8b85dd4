package orders

import "time"

// PageType names an admin list page; each page shows a fixed set of
// fulfillment statuses.
type PageType string

const (
	PageUnpaid      PageType = "UNPAID"
	PageProcurement PageType = "PROCUREMENT"
	PageShipping    PageType = "SHIPPING"
)

// StatusesForPageType maps a list page to the fulfillment statuses it shows.
// Unknown page types map to nothing, which filters out every order.
func StatusesForPageType(pt PageType) []FulfillmentStatus {
	switch pt {
	case PageUnpaid:
		return []FulfillmentStatus{FulfillmentPending}
	case PageProcurement:
		return []FulfillmentStatus{FulfillmentItemPending, FulfillmentPostpone, FulfillmentConfirmed}
	case PageShipping:
		return []FulfillmentStatus{FulfillmentShipping, FulfillmentDelivered}
	default:
		return nil
	}
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type SearchParams struct {
	StartDate *time.Time
	EndDate   *time.Time

	OrderNumber string

	FulfillmentStatus FulfillmentStatus
	ProcurementStatus ProcurementStatus
	ShippingStatus    FulfillmentStatus // carrier-phase filter on the same axis
	ClaimStatus       ClaimStatus
	PaymentStatus     string
	PageType          PageType

	SortBy        string // "created_at" | "updated_at" | "id"
	SortDirection SortDirection

	Page  int
	Limit int
}

// Normalize fills defaults and clamps pagination the way the HTTP layer
// validated them originally.
func (p *SearchParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	switch p.SortBy {
	case "created_at", "updated_at", "id":
	default:
		p.SortBy = "created_at"
	}
	if p.SortDirection != SortAsc {
		p.SortDirection = SortDesc
	}
}

func (p *SearchParams) Offset() int { return (p.Page - 1) * p.Limit }

// SearchResult carries one page of orders plus the total of the filtered set
// before pagination.
type SearchResult struct {
	Orders []Order
	Total  int
	Page   int
	Limit  int
}

type Statistics struct {
	TotalOrders int

	PendingOrders   int
	ShippingOrders  int
	DeliveredOrders int
	CancelledOrders int

	ProcurementConfirmed int
	ProcurementPending   int
}
