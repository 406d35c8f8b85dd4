package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MICGolf/backend/internal/catalog"
	"github.com/MICGolf/backend/internal/stock"
)

// Service implements the order/inventory core over a Store. All mutating
// operations run inside a single transaction; transactions that lose a lock
// race are retried a bounded number of times before surfacing ErrUnavailable.
type Service struct {
	Store Store
}

const txAttempts = 3

func (s *Service) runTx(ctx context.Context, fn func(tx StoreTx) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
			}
		}
		err = s.Store.RunInTx(ctx, fn)
		if err == nil || !errors.Is(err, ErrTxConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

type CreateOrderInput struct {
	Name            string
	Phone           string
	ShippingAddress string
	DetailAddress   string
	RequestNote     string
	Lines           []CreateOrderLine
}

type CreateOrderLine struct {
	ProductID int64
	OptionID  int64
	Quantity  int
	// UnitPrice is the price the caller's cart captured; it must match the
	// catalog or the whole order is rejected.
	UnitPrice decimal.Decimal
}

// CreateOrder validates every line against the catalog, reserves stock FIFO
// for each line and persists the order, all inside one transaction. Any
// failure rolls the whole thing back: no partial order, no partially
// decremented stock.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	if len(in.Lines) == 0 {
		return nil, ErrEmptyOrder
	}
	if in.Name == "" || in.Phone == "" || in.ShippingAddress == "" {
		return nil, fmt.Errorf("%w: name, phone and shipping address are required", ErrInvalidInput)
	}
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for product %d", ErrInvalidInput, l.ProductID)
		}
	}

	var orderID int64
	err := s.runTx(ctx, func(tx StoreTx) error {
		ids := distinctProductIDs(in.Lines)
		products, err := tx.Products(ctx, ids)
		if err != nil {
			return err
		}
		var missing []int64
		for _, id := range ids {
			if _, ok := products[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return &ProductNotFoundError{IDs: missing}
		}

		for _, l := range in.Lines {
			if _, err := tx.Option(ctx, l.ProductID, l.OptionID); err != nil {
				if errors.Is(err, catalog.ErrOptionNotFound) {
					return &OptionNotFoundError{ProductID: l.ProductID, OptionID: l.OptionID}
				}
				return err
			}
			p := products[l.ProductID]
			if !p.Price.Equal(l.UnitPrice) {
				return &PriceMismatchError{ProductID: l.ProductID, Expected: l.UnitPrice, Actual: p.Price}
			}
		}

		for _, l := range in.Lines {
			res, err := stock.CheckAndReserve(ctx, tx, l.ProductID, l.OptionID, l.Quantity)
			if err != nil {
				return err
			}
			if !res.HasSufficientStock {
				return &InsufficientStockError{
					ProductID: l.ProductID,
					OptionID:  l.OptionID,
					Requested: l.Quantity,
					Available: res.AvailableQuantity,
				}
			}
		}

		order := &Order{
			Name:            in.Name,
			Phone:           in.Phone,
			ShippingAddress: in.ShippingAddress,
			DetailAddress:   in.DetailAddress,
			RequestNote:     in.RequestNote,
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for _, l := range in.Lines {
			line := &OrderLine{
				OrderID:     order.ID,
				ProductID:   l.ProductID,
				OptionID:    l.OptionID,
				Quantity:    l.Quantity,
				UnitPrice:   products[l.ProductID].Price,
				Fulfillment: FulfillmentPending,
			}
			if err := tx.InsertLine(ctx, line); err != nil {
				return err
			}
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Store.GetOrder(ctx, orderID)
}

func distinctProductIDs(lines []CreateOrderLine) []int64 {
	seen := map[int64]bool{}
	out := make([]int64, 0, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			out = append(out, l.ProductID)
		}
	}
	return out
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	return s.Store.GetOrder(ctx, orderID)
}

// VerifyOwner is the guest-order ownership check: true only when the order
// exists and the stored phone matches. A missing order answers false rather
// than erroring, so the endpoint does not leak which ids exist.
func (s *Service) VerifyOwner(ctx context.Context, orderID int64, phone string) (bool, error) {
	o, err := s.Store.GetOrder(ctx, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return o.Phone == phone, nil
}

// GetOrderByVerification resolves "ORD-<id>" + phone to the full order.
func (s *Service) GetOrderByVerification(ctx context.Context, orderNumber, phone string) (*Order, error) {
	orderID, err := ParseOrderNumber(orderNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ok, err := s.VerifyOwner(ctx, orderID, phone)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVerificationFailed
	}
	return s.Store.GetOrder(ctx, orderID)
}

func (s *Service) UpdateFulfillmentStatus(ctx context.Context, orderID int64, status FulfillmentStatus) (int, error) {
	return s.BatchUpdateFulfillmentStatus(ctx, []int64{orderID}, status)
}

// BatchUpdateFulfillmentStatus applies one transition to every line of every
// targeted order. The batch is all-or-nothing: an unknown order id or an
// illegal transition on any line rolls back the entire call.
func (s *Service) BatchUpdateFulfillmentStatus(ctx context.Context, orderIDs []int64, status FulfillmentStatus) (int, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("%w: unknown fulfillment status %q", ErrInvalidInput, status)
	}
	updated := 0
	err := s.runTx(ctx, func(tx StoreTx) error {
		updated = 0
		for _, orderID := range orderIDs {
			lines, err := tx.LinesForUpdate(ctx, orderID)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return fmt.Errorf("%w: id=%d", ErrOrderNotFound, orderID)
			}
			for _, line := range lines {
				if line.Fulfillment != status && !line.Fulfillment.CanTransition(status) {
					return &InvalidTransitionError{
						Axis: "fulfillment",
						From: string(line.Fulfillment),
						To:   string(status),
					}
				}
				if err := tx.SetLineFulfillment(ctx, line.ID, status); err != nil {
					return err
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

type ShippingUpdate struct {
	OrderID        int64
	Courier        string
	TrackingNumber string
	Status         FulfillmentStatus
}

func (s *Service) UpdateShippingInfo(ctx context.Context, upd ShippingUpdate) (*ShippingInfo, error) {
	if _, err := s.BulkUpdateShippingInfo(ctx, []ShippingUpdate{upd}); err != nil {
		return nil, err
	}
	o, err := s.Store.GetOrder(ctx, upd.OrderID)
	if err != nil {
		return nil, err
	}
	info := o.Shipping()
	if info == nil {
		return nil, ErrOrderNotFound
	}
	return info, nil
}

// BulkUpdateShippingInfo assigns carrier and tracking number to every line of
// each targeted order, moving fulfillment to the given status. All-or-nothing
// across the whole slice.
func (s *Service) BulkUpdateShippingInfo(ctx context.Context, updates []ShippingUpdate) (int, error) {
	for _, upd := range updates {
		if !upd.Status.Valid() {
			return 0, fmt.Errorf("%w: unknown shipping status %q", ErrInvalidInput, upd.Status)
		}
		if upd.Courier == "" || upd.TrackingNumber == "" {
			return 0, fmt.Errorf("%w: courier and tracking number are required", ErrInvalidInput)
		}
	}
	updated := 0
	err := s.runTx(ctx, func(tx StoreTx) error {
		updated = 0
		for _, upd := range updates {
			lines, err := tx.LinesForUpdate(ctx, upd.OrderID)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return fmt.Errorf("%w: id=%d", ErrOrderNotFound, upd.OrderID)
			}
			for _, line := range lines {
				if line.Fulfillment != upd.Status && !line.Fulfillment.CanTransition(upd.Status) {
					return &InvalidTransitionError{
						Axis: "fulfillment",
						From: string(line.Fulfillment),
						To:   string(upd.Status),
					}
				}
				if err := tx.SetLineShipping(ctx, line.ID, upd.Courier, upd.TrackingNumber, upd.Status); err != nil {
					return err
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// ConfirmPurchase re-runs the stock check for each line that has no
// procurement decision yet. A line with sufficient stock gets the stock
// reserved and moves to CONFIRMED; a shortage is not an error, the line just
// stays PENDING. Lines already CONFIRMED or CANCELLED are left alone.
func (s *Service) ConfirmPurchase(ctx context.Context, orderID int64) (*Order, stock.CheckResult, error) {
	result := stock.CheckResult{HasSufficientStock: true}
	err := s.runTx(ctx, func(tx StoreTx) error {
		result = stock.CheckResult{HasSufficientStock: true}
		lines, err := tx.LinesForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrOrderNotFound
		}
		for _, line := range lines {
			if line.Procurement != ProcurementUnset && line.Procurement != ProcurementPending {
				continue
			}
			res, err := stock.CheckAndReserve(ctx, tx, line.ProductID, line.OptionID, line.Quantity)
			if err != nil {
				return err
			}
			result.AvailableQuantity += res.AvailableQuantity
			next := ProcurementConfirmed
			if !res.HasSufficientStock {
				result.HasSufficientStock = false
				next = ProcurementPending
			}
			if err := tx.SetLineProcurement(ctx, line.ID, next); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, stock.CheckResult{}, err
	}
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, stock.CheckResult{}, err
	}
	return o, result, nil
}

func (s *Service) UpdateProcurementStatus(ctx context.Context, orderID int64, status ProcurementStatus) (*Order, error) {
	if _, err := s.BatchUpdateProcurementStatus(ctx, []int64{orderID}, status); err != nil {
		return nil, err
	}
	return s.Store.GetOrder(ctx, orderID)
}

func (s *Service) BatchUpdateProcurementStatus(ctx context.Context, orderIDs []int64, status ProcurementStatus) (int, error) {
	if !status.Valid() || status == ProcurementUnset {
		return 0, fmt.Errorf("%w: unknown procurement status %q", ErrInvalidInput, status)
	}
	updated := 0
	err := s.runTx(ctx, func(tx StoreTx) error {
		updated = 0
		for _, orderID := range orderIDs {
			lines, err := tx.LinesForUpdate(ctx, orderID)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return fmt.Errorf("%w: id=%d", ErrOrderNotFound, orderID)
			}
			for _, line := range lines {
				if line.Procurement == status {
					updated++
					continue
				}
				if !line.Procurement.CanCancel() {
					if status == ProcurementCancelled {
						return ErrCannotCancelConfirmed
					}
					return &InvalidTransitionError{
						Axis: "procurement",
						From: string(line.Procurement),
						To:   string(status),
					}
				}
				if err := tx.SetLineProcurement(ctx, line.ID, status); err != nil {
					return err
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// SellerCancel cancels procurement for the whole order. Allowed only while
// every line is still unset or PENDING; once any line is CONFIRMED the call
// is rejected. Fulfillment mirrors the cancellation where the line has not
// shipped. Reserved stock is NOT returned to the ledger: the source system
// never released reservations and that behavior is preserved on purpose.
func (s *Service) SellerCancel(ctx context.Context, orderID int64) (*Order, error) {
	err := s.runTx(ctx, func(tx StoreTx) error {
		lines, err := tx.LinesForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrOrderNotFound
		}
		for _, line := range lines {
			if !line.Procurement.CanCancel() {
				return ErrCannotCancelConfirmed
			}
		}
		for _, line := range lines {
			if err := tx.SetLineProcurement(ctx, line.ID, ProcurementCancelled); err != nil {
				return err
			}
			if line.Fulfillment.CanTransition(FulfillmentCancelled) {
				if err := tx.SetLineFulfillment(ctx, line.ID, FulfillmentCancelled); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Store.GetOrder(ctx, orderID)
}

// FileClaim records a RETURN/EXCHANGE/CANCEL claim with its reason on every
// line and forces fulfillment into the claim outcome. A line can carry only
// one claim; refiling is rejected. A CANCEL claim does not release reserved
// stock (preserved source behavior, see DESIGN.md).
func (s *Service) FileClaim(ctx context.Context, orderID int64, claimType ClaimStatus, reason string) (*Order, error) {
	if !claimType.Valid() {
		return nil, fmt.Errorf("%w: unknown claim type %q", ErrInvalidInput, claimType)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: claim reason is required", ErrInvalidInput)
	}
	err := s.runTx(ctx, func(tx StoreTx) error {
		lines, err := tx.LinesForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrOrderNotFound
		}
		for _, line := range lines {
			if line.Claim != ClaimNone {
				return &InvalidTransitionError{
					Axis: "claim",
					From: string(line.Claim),
					To:   string(claimType),
				}
			}
			if err := tx.SetLineClaim(ctx, line.ID, claimType, reason, claimType.FulfillmentOutcome()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Store.GetOrder(ctx, orderID)
}

// CheckStock runs the allocator once outside the order flow (admin stock
// check endpoint). Sufficient stock is reserved immediately, matching the
// purchase-confirmation semantics.
func (s *Service) CheckStock(ctx context.Context, productID, optionID int64, quantity int) (stock.CheckResult, error) {
	if quantity <= 0 {
		return stock.CheckResult{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	var result stock.CheckResult
	err := s.runTx(ctx, func(tx StoreTx) error {
		res, err := stock.CheckAndReserve(ctx, tx, productID, optionID, quantity)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return stock.CheckResult{}, err
	}
	return result, nil
}

// UpdateOrderHeader rewrites the order's customer/shipping fields. Lines and
// statuses are untouched.
func (s *Service) UpdateOrderHeader(ctx context.Context, orderID int64, upd HeaderUpdate) (*Order, error) {
	if upd.Name == "" || upd.Phone == "" || upd.ShippingAddress == "" {
		return nil, fmt.Errorf("%w: name, phone and shipping address are required", ErrInvalidInput)
	}
	err := s.runTx(ctx, func(tx StoreTx) error {
		return tx.UpdateHeader(ctx, orderID, upd)
	})
	if err != nil {
		return nil, err
	}
	return s.Store.GetOrder(ctx, orderID)
}

func (s *Service) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	params.Normalize()
	return s.Store.Search(ctx, params)
}

func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	return s.Store.Statistics(ctx)
}
