package orders

import (
	"context"
	"fmt"
	"strings"
)

// Search filters, sorts and paginates orders. Total reflects the filtered
// set before pagination.
func (r *Repo) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	where, args := buildSearchWhere(params)

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	res := &SearchResult{Total: total, Page: params.Page, Limit: params.Limit}
	if total == 0 {
		return res, nil
	}

	// sort column and direction come from a whitelist (SearchParams.Normalize)
	query := fmt.Sprintf(`
		SELECT o.id, o.name, o.phone, o.shipping_address,
		       COALESCE(o.detail_address, ''), COALESCE(o.request_note, ''),
		       o.created_at, o.updated_at
		FROM orders o
		%s
		ORDER BY o.%s %s
		LIMIT %d OFFSET %d`,
		where, params.SortBy, strings.ToUpper(string(params.SortDirection)), params.Limit, params.Offset())

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	byID := map[int64]*Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Name, &o.Phone, &o.ShippingAddress,
			&o.DetailAddress, &o.RequestNote, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		ids = append(ids, o.ID)
		res.Orders = append(res.Orders, o)
		byID[o.ID] = &res.Orders[len(res.Orders)-1]
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := r.linesWithDisplay(ctx, ids)
	if err != nil {
		return nil, err
	}
	payments, err := r.payments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, o := range byID {
		o.Lines = lines[id]
		o.Payment = payments[id]
	}
	return res, nil
}

func buildSearchWhere(params SearchParams) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	lineExists := func(col string, v any) {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM order_lines l WHERE l.order_id=o.id AND l.%s=%s)", col, arg(v)))
	}

	if params.StartDate != nil {
		conds = append(conds, "o.created_at >= "+arg(*params.StartDate))
	}
	if params.EndDate != nil {
		conds = append(conds, "o.created_at <= "+arg(*params.EndDate))
	}
	if params.OrderNumber != "" {
		id, err := ParseOrderNumber(params.OrderNumber)
		if err != nil {
			id = -1 // unparsable order number matches nothing
		}
		conds = append(conds, "o.id = "+arg(id))
	}
	if params.FulfillmentStatus != "" {
		lineExists("fulfillment_status", string(params.FulfillmentStatus))
	}
	if params.ShippingStatus != "" {
		lineExists("fulfillment_status", string(params.ShippingStatus))
	}
	if params.ProcurementStatus != "" {
		lineExists("procurement_status", string(params.ProcurementStatus))
	}
	if params.ClaimStatus != "" {
		lineExists("claim_status", string(params.ClaimStatus))
	}
	if params.PageType != "" {
		statuses := StatusesForPageType(params.PageType)
		set := make([]string, len(statuses))
		for i, s := range statuses {
			set[i] = string(s)
		}
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM order_lines l WHERE l.order_id=o.id AND l.fulfillment_status = ANY(%s))", arg(set)))
	}
	if params.PaymentStatus != "" {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM payments pm WHERE pm.order_id=o.id AND pm.payment_status=%s)",
			arg(params.PaymentStatus)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
