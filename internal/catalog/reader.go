package catalog

import (
	"context"
	"errors"
)

var ErrOptionNotFound = errors.New("option not found")

// Reader is the read-only catalog lookup the order flow depends on. Ids
// absent from the store are simply left out of the Products result; the
// caller decides whether a partial result is fatal.
type Reader interface {
	Products(ctx context.Context, ids []int64) (map[int64]Product, error)
	// Option returns ErrOptionNotFound when the option does not exist or
	// belongs to a different product.
	Option(ctx context.Context, productID, optionID int64) (Option, error)
}
