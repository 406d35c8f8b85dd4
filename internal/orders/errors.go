package orders

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order must contain at least one line")

	ErrInvalidInput = errors.New("invalid input")

	// ErrVerificationFailed means the supplied phone does not match the
	// order's phone on the guest-order lookup path.
	ErrVerificationFailed = errors.New("order verification failed")

	// ErrCannotCancelConfirmed rejects seller cancellation after the
	// procurement decision is already CONFIRMED.
	ErrCannotCancelConfirmed = errors.New("cannot cancel after purchase confirmation")

	// ErrTxConflict is returned by the store when a transaction lost a
	// lock/serialization race; the service retries it a bounded number of
	// times.
	ErrTxConflict = errors.New("transaction conflict")

	// ErrUnavailable wraps persistence failures that are not part of the
	// business-rule taxonomy.
	ErrUnavailable = errors.New("storage unavailable")
)

type ProductNotFoundError struct {
	IDs []int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("products not found: %v", e.IDs)
}

type OptionNotFoundError struct {
	ProductID int64
	OptionID  int64
}

func (e *OptionNotFoundError) Error() string {
	return fmt.Sprintf("option %d not found for product %d", e.OptionID, e.ProductID)
}

// PriceMismatchError guards against stale client-side carts: the price the
// caller captured no longer matches the catalog.
type PriceMismatchError struct {
	ProductID int64
	Expected  decimal.Decimal
	Actual    decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch for product %d: client sent %s, catalog has %s",
		e.ProductID, e.Expected, e.Actual)
}

type InsufficientStockError struct {
	ProductID int64
	OptionID  int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d option %d: requested %d, available %d",
		e.ProductID, e.OptionID, e.Requested, e.Available)
}

type InvalidTransitionError struct {
	Axis string // "fulfillment" | "procurement" | "claim"
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition %q -> %q", e.Axis, e.From, e.To)
}
