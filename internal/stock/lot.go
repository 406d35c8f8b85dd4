package stock

import "time"

// Lot is one discrete stock record for a (product, option) pair. Restocks
// create new lots; the allocator drains them oldest-first. A lot may sit at
// zero as a historical record but its quantity never goes negative and the
// order flow never deletes it.
type Lot struct {
	ID        int64
	ProductID int64
	OptionID  int64
	Quantity  int
	CreatedAt time.Time
}

type CheckResult struct {
	HasSufficientStock bool `json:"has_sufficient_stock"`
	// AvailableQuantity is the total across all lots as seen before this
	// reservation mutated anything.
	AvailableQuantity int `json:"available_quantity"`
}
