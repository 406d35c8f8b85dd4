package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MICGolf/backend/internal/catalog"
	"github.com/MICGolf/backend/internal/stock"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) RunInTx(ctx context.Context, fn func(tx StoreTx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return translateConflict(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&repoTx{tx: tx}); err != nil {
		return translateConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translateConflict(err)
	}
	return nil
}

// translateConflict maps lock/serialization failures onto ErrTxConflict so
// the service can retry them.
func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %v", ErrTxConflict, err)
		}
	}
	return err
}

func (r *Repo) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var o Order
	var detail, note *string
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, phone, shipping_address, detail_address, request_note, created_at, updated_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.Name, &o.Phone, &o.ShippingAddress, &detail, &note, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if detail != nil {
		o.DetailAddress = *detail
	}
	if note != nil {
		o.RequestNote = *note
	}

	lines, err := r.linesWithDisplay(ctx, []int64{orderID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[orderID]

	payments, err := r.payments(ctx, []int64{orderID})
	if err != nil {
		return nil, err
	}
	o.Payment = payments[orderID]
	return &o, nil
}

func (r *Repo) linesWithDisplay(ctx context.Context, orderIDs []int64) (map[int64][]OrderLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT l.id, l.order_id, l.product_id, l.option_id, l.quantity, l.unit_price::text,
		       l.courier, l.tracking_number, l.fulfillment_status, l.procurement_status,
		       l.claim_status, l.claim_reason, l.created_at, l.updated_at,
		       p.name, o.size, o.color
		FROM order_lines l
		JOIN products p ON p.id = l.product_id
		JOIN options o ON o.id = l.option_id
		WHERE l.order_id = ANY($1)
		ORDER BY l.order_id, l.id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]OrderLine{}
	for rows.Next() {
		var (
			l     OrderLine
			price string
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.OptionID, &l.Quantity, &price,
			&l.Courier, &l.TrackingNumber, &l.Fulfillment, &l.Procurement,
			&l.Claim, &l.ClaimReason, &l.CreatedAt, &l.UpdatedAt,
			&l.ProductName, &l.OptionSize, &l.OptionColor); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return nil, err
		}
		l.UnitPrice = d
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}

func (r *Repo) payments(ctx context.Context, orderIDs []int64) (map[int64]*Payment, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT DISTINCT ON (order_id)
		       transaction_id, order_id, amount::text, payment_type, payment_status, created_at
		FROM payments WHERE order_id = ANY($1)
		ORDER BY order_id, created_at DESC`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]*Payment{}
	for rows.Next() {
		var (
			p      Payment
			amount string
		)
		if err := rows.Scan(&p.TransactionID, &p.OrderID, &amount, &p.PaymentType, &p.PaymentStatus, &p.PaidAt); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		p.Amount = d
		out[p.OrderID] = &p
	}
	return out, rows.Err()
}

func (r *Repo) Statistics(ctx context.Context) (*Statistics, error) {
	var st Statistics
	err := r.DB.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(DISTINCT order_id) FROM order_lines WHERE fulfillment_status='PENDING'),
			(SELECT COUNT(DISTINCT order_id) FROM order_lines WHERE fulfillment_status='SHIPPING'),
			(SELECT COUNT(DISTINCT order_id) FROM order_lines WHERE fulfillment_status='DELIVERED'),
			(SELECT COUNT(DISTINCT order_id) FROM order_lines WHERE fulfillment_status='CANCELLED'),
			(SELECT COUNT(DISTINCT order_id) FROM order_lines WHERE procurement_status='CONFIRMED'),
			(SELECT COUNT(DISTINCT order_id) FROM order_lines WHERE procurement_status='PENDING')`).
		Scan(&st.TotalOrders, &st.PendingOrders, &st.ShippingOrders, &st.DeliveredOrders,
			&st.CancelledOrders, &st.ProcurementConfirmed, &st.ProcurementPending)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

type repoTx struct{ tx pgx.Tx }

func (t *repoTx) Products(ctx context.Context, ids []int64) (map[int64]catalog.Product, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, name, price::text, product_code, created_at, updated_at
		FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]catalog.Product{}
	for rows.Next() {
		var (
			p     catalog.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.ProductCode, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return nil, err
		}
		p.Price = d
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (t *repoTx) Option(ctx context.Context, productID, optionID int64) (catalog.Option, error) {
	var o catalog.Option
	err := t.tx.QueryRow(ctx, `
		SELECT id, product_id, size, color, COALESCE(color_code, '')
		FROM options WHERE id=$1 AND product_id=$2`, optionID, productID).
		Scan(&o.ID, &o.ProductID, &o.Size, &o.Color, &o.ColorCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Option{}, catalog.ErrOptionNotFound
	}
	if err != nil {
		return catalog.Option{}, err
	}
	return o, nil
}

func (t *repoTx) LotsForUpdate(ctx context.Context, productID, optionID int64) ([]stock.Lot, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, product_id, option_id, quantity, created_at
		FROM stock_lots
		WHERE product_id=$1 AND option_id=$2
		ORDER BY created_at, id
		FOR UPDATE`, productID, optionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []stock.Lot
	for rows.Next() {
		var lot stock.Lot
		if err := rows.Scan(&lot.ID, &lot.ProductID, &lot.OptionID, &lot.Quantity, &lot.CreatedAt); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

func (t *repoTx) SetLotQuantity(ctx context.Context, lotID int64, quantity int) error {
	_, err := t.tx.Exec(ctx, `UPDATE stock_lots SET quantity=$2 WHERE id=$1`, lotID, quantity)
	return err
}

func (t *repoTx) InsertOrder(ctx context.Context, o *Order) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO orders(name, phone, shipping_address, detail_address, request_note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		o.Name, o.Phone, o.ShippingAddress, o.DetailAddress, o.RequestNote).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (t *repoTx) InsertLine(ctx context.Context, line *OrderLine) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO order_lines(order_id, product_id, option_id, quantity, unit_price,
		                        fulfillment_status, procurement_status, claim_status, claim_reason,
		                        courier, tracking_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		line.OrderID, line.ProductID, line.OptionID, line.Quantity, line.UnitPrice.String(),
		string(line.Fulfillment), string(line.Procurement), string(line.Claim), line.ClaimReason,
		line.Courier, line.TrackingNumber).
		Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt)
}

func (t *repoTx) LinesForUpdate(ctx context.Context, orderID int64) ([]OrderLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, order_id, product_id, option_id, quantity, unit_price::text,
		       courier, tracking_number, fulfillment_status, procurement_status,
		       claim_status, claim_reason, created_at, updated_at
		FROM order_lines WHERE order_id=$1
		ORDER BY id
		FOR UPDATE`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []OrderLine
	for rows.Next() {
		var (
			l     OrderLine
			price string
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.OptionID, &l.Quantity, &price,
			&l.Courier, &l.TrackingNumber, &l.Fulfillment, &l.Procurement,
			&l.Claim, &l.ClaimReason, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return nil, err
		}
		l.UnitPrice = d
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (t *repoTx) UpdateHeader(ctx context.Context, orderID int64, upd HeaderUpdate) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE orders
		SET name=$2, phone=$3, shipping_address=$4, detail_address=$5, request_note=$6, updated_at=now()
		WHERE id=$1`,
		orderID, upd.Name, upd.Phone, upd.ShippingAddress, upd.DetailAddress, upd.RequestNote)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (t *repoTx) SetLineFulfillment(ctx context.Context, lineID int64, s FulfillmentStatus) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE order_lines SET fulfillment_status=$2, updated_at=now() WHERE id=$1`,
		lineID, string(s))
	return err
}

func (t *repoTx) SetLineProcurement(ctx context.Context, lineID int64, s ProcurementStatus) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE order_lines SET procurement_status=$2, updated_at=now() WHERE id=$1`,
		lineID, string(s))
	return err
}

func (t *repoTx) SetLineClaim(ctx context.Context, lineID int64, c ClaimStatus, reason string, outcome FulfillmentStatus) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE order_lines
		SET claim_status=$2, claim_reason=$3, fulfillment_status=$4, updated_at=now()
		WHERE id=$1`,
		lineID, string(c), reason, string(outcome))
	return err
}

func (t *repoTx) SetLineShipping(ctx context.Context, lineID int64, courier, trackingNumber string, s FulfillmentStatus) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE order_lines
		SET courier=$2, tracking_number=$3, fulfillment_status=$4, updated_at=now()
		WHERE id=$1`,
		lineID, courier, trackingNumber, string(s))
	return err
}
