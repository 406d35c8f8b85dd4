package orders

import (
	"context"

	"github.com/MICGolf/backend/internal/catalog"
	"github.com/MICGolf/backend/internal/stock"
)

// Store is the persistence boundary of the order core. The pgx
// implementation lives in repo.go; tests run against an in-memory one.
type Store interface {
	// RunInTx runs fn inside one transaction. When fn returns an error the
	// transaction rolls back and nothing fn did is visible. Implementations
	// return ErrTxConflict (possibly wrapped) when the transaction lost a
	// lock or serialization race.
	RunInTx(ctx context.Context, fn func(tx StoreTx) error) error

	GetOrder(ctx context.Context, orderID int64) (*Order, error)
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
	Statistics(ctx context.Context) (*Statistics, error)
}

// StoreTx is the transactional view handed to workflow steps. It bundles the
// catalog lookups, the lot locking the allocator needs, and order writes so
// one operation stays in one transaction.
type StoreTx interface {
	catalog.Reader
	stock.LotTx

	InsertOrder(ctx context.Context, o *Order) error
	InsertLine(ctx context.Context, line *OrderLine) error

	// LinesForUpdate loads and locks all lines of an order. An empty result
	// means the order does not exist (an order always has at least one line).
	LinesForUpdate(ctx context.Context, orderID int64) ([]OrderLine, error)

	UpdateHeader(ctx context.Context, orderID int64, upd HeaderUpdate) error
	SetLineFulfillment(ctx context.Context, lineID int64, s FulfillmentStatus) error
	SetLineProcurement(ctx context.Context, lineID int64, s ProcurementStatus) error
	SetLineClaim(ctx context.Context, lineID int64, c ClaimStatus, reason string, outcome FulfillmentStatus) error
	SetLineShipping(ctx context.Context, lineID int64, courier, trackingNumber string, s FulfillmentStatus) error
}
