package stock

import (
	"context"
	"fmt"
)

// LotTx is the slice of a transaction the allocator needs. LotsForUpdate must
// return the pair's lots ordered by creation time ascending and must hold
// them locked until the surrounding transaction ends, so two concurrent
// reservations for the same pair cannot both pass the availability check.
type LotTx interface {
	LotsForUpdate(ctx context.Context, productID, optionID int64) ([]Lot, error)
	SetLotQuantity(ctx context.Context, lotID int64, quantity int) error
}

// CheckAndReserve sums the pair's lots and, when the total covers the
// requested quantity, drains lots oldest-first until it is satisfied. On a
// shortage nothing is mutated; the caller branches on HasSufficientStock.
// Both order creation and purchase confirmation run this same routine.
func CheckAndReserve(ctx context.Context, tx LotTx, productID, optionID int64, quantity int) (CheckResult, error) {
	if quantity <= 0 {
		return CheckResult{}, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	lots, err := tx.LotsForUpdate(ctx, productID, optionID)
	if err != nil {
		return CheckResult{}, err
	}

	available := 0
	for _, lot := range lots {
		available += lot.Quantity
	}
	if available < quantity {
		return CheckResult{HasSufficientStock: false, AvailableQuantity: available}, nil
	}

	remaining := quantity
	for _, lot := range lots {
		if remaining == 0 {
			break
		}
		if lot.Quantity == 0 {
			continue
		}
		take := lot.Quantity
		if take > remaining {
			take = remaining
		}
		if err := tx.SetLotQuantity(ctx, lot.ID, lot.Quantity-take); err != nil {
			return CheckResult{}, err
		}
		remaining -= take
	}
	return CheckResult{HasSufficientStock: true, AvailableQuantity: available}, nil
}

// Available sums the pair's lots without reserving anything.
func Available(ctx context.Context, tx LotTx, productID, optionID int64) (int, error) {
	lots, err := tx.LotsForUpdate(ctx, productID, optionID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, lot := range lots {
		total += lot.Quantity
	}
	return total, nil
}
