package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MICGolf/backend/internal/catalog"
	"github.com/MICGolf/backend/internal/stock"
)

// memStore is an in-memory Store. A mutex serializes transactions and a
// snapshot taken at BeginTx time restores state when fn fails, matching the
// all-or-nothing contract of the pgx implementation.
type memStore struct {
	mu       sync.Mutex
	products map[int64]catalog.Product
	options  map[int64]catalog.Option
	lots     []*stock.Lot
	orders   map[int64]*Order
	lines    map[int64]*OrderLine
	payments map[int64]*Payment
	nextID   int64
	now      time.Time
}

func newMemStore() *memStore {
	return &memStore{
		products: map[int64]catalog.Product{},
		options:  map[int64]catalog.Option{},
		orders:   map[int64]*Order{},
		lines:    map[int64]*OrderLine{},
		payments: map[int64]*Payment{},
		now:      time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *memStore) addProduct(name string, price string) catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := catalog.Product{
		ID:          s.id(),
		Name:        name,
		Price:       decimal.RequireFromString(price),
		ProductCode: name,
		CreatedAt:   s.tick(),
	}
	s.products[p.ID] = p
	return p
}

func (s *memStore) setPrice(productID int64, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[productID]
	p.Price = decimal.RequireFromString(price)
	s.products[productID] = p
}

func (s *memStore) addOption(productID int64, size, color string) catalog.Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := catalog.Option{ID: s.id(), ProductID: productID, Size: size, Color: color}
	s.options[o.ID] = o
	return o
}

func (s *memStore) addLot(productID, optionID int64, qty int) *stock.Lot {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot := &stock.Lot{ID: s.id(), ProductID: productID, OptionID: optionID, Quantity: qty, CreatedAt: s.tick()}
	s.lots = append(s.lots, lot)
	return lot
}

func (s *memStore) addPayment(orderID int64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[orderID] = &Payment{
		TransactionID: "tx-test",
		OrderID:       orderID,
		Amount:        decimal.RequireFromString("85000"),
		PaymentType:   "card",
		PaymentStatus: status,
		PaidAt:        s.tick(),
	}
}

func (s *memStore) lotQty(lotID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lots {
		if l.ID == lotID {
			return l.Quantity
		}
	}
	return -1
}

func (s *memStore) totalStock(productID, optionID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, l := range s.lots {
		if l.ProductID == productID && l.OptionID == optionID {
			total += l.Quantity
		}
	}
	return total
}

func (s *memStore) lineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

type memSnapshot struct {
	lots   []stock.Lot
	orders map[int64]Order
	lines  map[int64]OrderLine
	nextID int64
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		orders: map[int64]Order{},
		lines:  map[int64]OrderLine{},
		nextID: s.nextID,
	}
	for _, l := range s.lots {
		snap.lots = append(snap.lots, *l)
	}
	for id, o := range s.orders {
		snap.orders[id] = *o
	}
	for id, l := range s.lines {
		snap.lines[id] = *l
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.lots = s.lots[:0]
	for i := range snap.lots {
		lot := snap.lots[i]
		s.lots = append(s.lots, &lot)
	}
	s.orders = map[int64]*Order{}
	for id := range snap.orders {
		o := snap.orders[id]
		s.orders[id] = &o
	}
	s.lines = map[int64]*OrderLine{}
	for id := range snap.lines {
		l := snap.lines[id]
		s.lines[id] = &l
	}
	s.nextID = snap.nextID
}

func (s *memStore) RunInTx(ctx context.Context, fn func(tx StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memTx struct{ s *memStore }

func (t *memTx) Products(ctx context.Context, ids []int64) (map[int64]catalog.Product, error) {
	out := map[int64]catalog.Product{}
	for _, id := range ids {
		if p, ok := t.s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (t *memTx) Option(ctx context.Context, productID, optionID int64) (catalog.Option, error) {
	o, ok := t.s.options[optionID]
	if !ok || o.ProductID != productID {
		return catalog.Option{}, catalog.ErrOptionNotFound
	}
	return o, nil
}

func (t *memTx) LotsForUpdate(ctx context.Context, productID, optionID int64) ([]stock.Lot, error) {
	var out []stock.Lot
	for _, l := range t.s.lots {
		if l.ProductID == productID && l.OptionID == optionID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memTx) SetLotQuantity(ctx context.Context, lotID int64, quantity int) error {
	for _, l := range t.s.lots {
		if l.ID == lotID {
			l.Quantity = quantity
			return nil
		}
	}
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *Order) error {
	o.ID = t.s.id()
	o.CreatedAt = t.s.tick()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	cp.Lines = nil
	t.s.orders[o.ID] = &cp
	return nil
}

func (t *memTx) InsertLine(ctx context.Context, line *OrderLine) error {
	line.ID = t.s.id()
	line.CreatedAt = t.s.tick()
	line.UpdatedAt = line.CreatedAt
	cp := *line
	t.s.lines[line.ID] = &cp
	return nil
}

func (t *memTx) LinesForUpdate(ctx context.Context, orderID int64) ([]OrderLine, error) {
	return t.s.orderLines(orderID), nil
}

func (s *memStore) orderLines(orderID int64) []OrderLine {
	var out []OrderLine
	for _, l := range s.lines {
		if l.OrderID == orderID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *memTx) UpdateHeader(ctx context.Context, orderID int64, upd HeaderUpdate) error {
	o, ok := t.s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.Name = upd.Name
	o.Phone = upd.Phone
	o.ShippingAddress = upd.ShippingAddress
	o.DetailAddress = upd.DetailAddress
	o.RequestNote = upd.RequestNote
	o.UpdatedAt = t.s.tick()
	return nil
}

func (t *memTx) SetLineFulfillment(ctx context.Context, lineID int64, st FulfillmentStatus) error {
	if l, ok := t.s.lines[lineID]; ok {
		l.Fulfillment = st
		l.UpdatedAt = t.s.tick()
	}
	return nil
}

func (t *memTx) SetLineProcurement(ctx context.Context, lineID int64, st ProcurementStatus) error {
	if l, ok := t.s.lines[lineID]; ok {
		l.Procurement = st
		l.UpdatedAt = t.s.tick()
	}
	return nil
}

func (t *memTx) SetLineClaim(ctx context.Context, lineID int64, c ClaimStatus, reason string, outcome FulfillmentStatus) error {
	if l, ok := t.s.lines[lineID]; ok {
		l.Claim = c
		l.ClaimReason = reason
		l.Fulfillment = outcome
		l.UpdatedAt = t.s.tick()
	}
	return nil
}

func (t *memTx) SetLineShipping(ctx context.Context, lineID int64, courier, trackingNumber string, st FulfillmentStatus) error {
	if l, ok := t.s.lines[lineID]; ok {
		l.Courier = courier
		l.TrackingNumber = trackingNumber
		l.Fulfillment = st
		l.UpdatedAt = t.s.tick()
	}
	return nil
}

func (s *memStore) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrderLocked(orderID)
}

func (s *memStore) getOrderLocked(orderID int64) (*Order, error) {
	rec, ok := s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	o := *rec
	o.Lines = s.orderLines(orderID)
	for i := range o.Lines {
		l := &o.Lines[i]
		l.ProductName = s.products[l.ProductID].Name
		l.OptionSize = s.options[l.OptionID].Size
		l.OptionColor = s.options[l.OptionID].Color
	}
	if p, ok := s.payments[orderID]; ok {
		cp := *p
		o.Payment = &cp
	}
	return &o, nil
}

func (s *memStore) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*Order
	for id := range s.orders {
		o, _ := s.getOrderLocked(id)
		if s.matches(o, params) {
			matched = append(matched, o)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		less := matched[i].CreatedAt.Before(matched[j].CreatedAt)
		if params.SortBy == "id" {
			less = matched[i].ID < matched[j].ID
		}
		if params.SortDirection == SortDesc {
			return !less
		}
		return less
	})

	res := &SearchResult{Total: len(matched), Page: params.Page, Limit: params.Limit}
	start := params.Offset()
	for i := start; i < len(matched) && i < start+params.Limit; i++ {
		res.Orders = append(res.Orders, *matched[i])
	}
	return res, nil
}

func (s *memStore) matches(o *Order, params SearchParams) bool {
	if params.StartDate != nil && o.CreatedAt.Before(*params.StartDate) {
		return false
	}
	if params.EndDate != nil && o.CreatedAt.After(*params.EndDate) {
		return false
	}
	if params.OrderNumber != "" {
		id, err := ParseOrderNumber(params.OrderNumber)
		if err != nil || id != o.ID {
			return false
		}
	}
	lineHas := func(pred func(OrderLine) bool) bool {
		for _, l := range o.Lines {
			if pred(l) {
				return true
			}
		}
		return false
	}
	if params.FulfillmentStatus != "" && !lineHas(func(l OrderLine) bool { return l.Fulfillment == params.FulfillmentStatus }) {
		return false
	}
	if params.ShippingStatus != "" && !lineHas(func(l OrderLine) bool { return l.Fulfillment == params.ShippingStatus }) {
		return false
	}
	if params.ProcurementStatus != "" && !lineHas(func(l OrderLine) bool { return l.Procurement == params.ProcurementStatus }) {
		return false
	}
	if params.ClaimStatus != "" && !lineHas(func(l OrderLine) bool { return l.Claim == params.ClaimStatus }) {
		return false
	}
	if params.PageType != "" {
		statuses := StatusesForPageType(params.PageType)
		ok := lineHas(func(l OrderLine) bool {
			for _, st := range statuses {
				if l.Fulfillment == st {
					return true
				}
			}
			return false
		})
		if !ok {
			return false
		}
	}
	if params.PaymentStatus != "" {
		if o.Payment == nil || o.Payment.PaymentStatus != params.PaymentStatus {
			return false
		}
	}
	return true
}

func (s *memStore) Statistics(ctx context.Context) (*Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Statistics{TotalOrders: len(s.orders)}
	fulfillment := map[int64]map[FulfillmentStatus]bool{}
	procurement := map[int64]map[ProcurementStatus]bool{}
	for _, l := range s.lines {
		if fulfillment[l.OrderID] == nil {
			fulfillment[l.OrderID] = map[FulfillmentStatus]bool{}
			procurement[l.OrderID] = map[ProcurementStatus]bool{}
		}
		fulfillment[l.OrderID][l.Fulfillment] = true
		procurement[l.OrderID][l.Procurement] = true
	}
	for _, set := range fulfillment {
		if set[FulfillmentPending] {
			st.PendingOrders++
		}
		if set[FulfillmentShipping] {
			st.ShippingOrders++
		}
		if set[FulfillmentDelivered] {
			st.DeliveredOrders++
		}
		if set[FulfillmentCancelled] {
			st.CancelledOrders++
		}
	}
	for _, set := range procurement {
		if set[ProcurementConfirmed] {
			st.ProcurementConfirmed++
		}
		if set[ProcurementPending] {
			st.ProcurementPending++
		}
	}
	return &st, nil
}
