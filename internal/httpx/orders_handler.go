package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/MICGolf/backend/internal/catalog"
	kafkax "github.com/MICGolf/backend/internal/kafka"
	"github.com/MICGolf/backend/internal/orders"
	"github.com/MICGolf/backend/internal/redisx"
)

// Producers groups the per-topic event producers the handler publishes to.
// Any of them may be nil (e.g. in tests); publishing is then skipped.
type Producers struct {
	Created  *kafkax.Producer
	Purchase *kafkax.Producer
	Claim    *kafkax.Producer
	Shipping *kafkax.Producer
}

type OrdersHandler struct {
	Orders    *orders.Service
	Catalog   *catalog.Repo
	Redis     *redis.Client
	Producers Producers
	Service   string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Route("/order", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Post("/verify", h.verifyOrder)
		r.Get("/search", h.searchOrders)
		r.Get("/statistics", h.statistics)
		r.Put("/shipping", h.updateShipping)
		r.Put("/shipping/bulk", h.bulkUpdateShipping)
		r.Put("/batch-status", h.batchUpdateStatus)
		r.Post("/purchase", h.confirmPurchase)
		r.Put("/purchase-status", h.updatePurchaseStatus)
		r.Put("/batch-purchase-status", h.batchUpdatePurchaseStatus)
		r.Post("/seller-cancel", h.sellerCancel)
		r.Post("/claim", h.fileClaim)
		r.Get("/stock-check/{productID}", h.checkStock)
		r.Get("/{id}", h.getOrder)
		r.Get("/{id}/status", h.getOrderStatus)
		r.Put("/{id}", h.updateOrder)
		r.Put("/{id}/status", h.updateStatus)
	})
	r.Get("/products", h.listProducts)
}

func (h *OrdersHandler) publish(p *kafkax.Producer, eventType string, orderID int64, payload any, traceID string) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: strconv.FormatInt(orderID, 10),
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.CreateOrder(ctx, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	payload := orders.OrderCreatedPayload{
		OrderID:     o.ID,
		OrderNumber: o.Number(),
		TotalAmount: o.TotalAmount().String(),
	}
	for _, l := range o.Lines {
		payload.Lines = append(payload.Lines, orders.LinePayload{
			ProductID: l.ProductID,
			OptionID:  l.OptionID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.String(),
		})
	}
	h.publish(h.Producers.Created, orders.EventOrderCreated, o.ID, payload, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusCreated, toOrderResp(o))
}

func (h *OrdersHandler) verifyOrder(w http.ResponseWriter, r *http.Request) {
	var req VerifyOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.GetOrderByVerification(ctx, req.OrderNumber, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

// getOrderStatus serves from the redis cache first and falls back to the
// database, refreshing the cache on the way out.
func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	body, _ := json.Marshal(map[string]string{"status": string(o.Status())})
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	var req UpdateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.UpdateOrderHeader(ctx, id, orders.HeaderUpdate{
		Name:            req.Name,
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
		DetailAddress:   req.DetailAddress,
		RequestNote:     req.Request,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	count, err := h.Orders.UpdateFulfillmentStatus(ctx, id, orders.FulfillmentStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":               id,
		"status":                 req.Status,
		"updated_products_count": count,
	})
}

func (h *OrdersHandler) batchUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req BatchStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := h.Orders.BatchUpdateFulfillmentStatus(ctx, req.OrderIDs, orders.FulfillmentStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"updated_count": count,
		"status":        req.Status,
	})
}

func (h *OrdersHandler) updateShipping(w http.ResponseWriter, r *http.Request) {
	var req UpdateShippingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	info, err := h.Orders.UpdateShippingInfo(ctx, req.toUpdate())
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(h.Producers.Shipping, orders.EventShippingUpdated, req.OrderID, orders.ShippingUpdatedPayload{
		OrderID:        req.OrderID,
		Courier:        req.Courier,
		TrackingNumber: req.TrackingNumber,
		Status:         req.ShippingStatus,
	}, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusOK, toShippingResp(info))
}

func (h *OrdersHandler) bulkUpdateShipping(w http.ResponseWriter, r *http.Request) {
	var req BulkShippingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	updates := make([]orders.ShippingUpdate, 0, len(req.OrderProducts))
	for _, u := range req.OrderProducts {
		updates = append(updates, u.toUpdate())
	}
	count, err := h.Orders.BulkUpdateShippingInfo(ctx, updates)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, u := range req.OrderProducts {
		h.publish(h.Producers.Shipping, orders.EventShippingUpdated, u.OrderID, orders.ShippingUpdatedPayload{
			OrderID:        u.OrderID,
			Courier:        u.Courier,
			TrackingNumber: u.TrackingNumber,
			Status:         u.ShippingStatus,
		}, r.Header.Get("X-Request-Id"))
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated_count": count})
}

func (h *OrdersHandler) confirmPurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, check, err := h.Orders.ConfirmPurchase(ctx, req.OrderID)
	if err != nil {
		writeError(w, err)
		return
	}

	status := orders.ProcurementConfirmed
	if !check.HasSufficientStock {
		status = orders.ProcurementPending
	}
	h.publish(h.Producers.Purchase, orders.EventPurchaseConfirmed, o.ID, orders.PurchaseConfirmedPayload{
		OrderID:            o.ID,
		ProcurementStatus:  string(status),
		HasSufficientStock: check.HasSufficientStock,
		AvailableQuantity:  check.AvailableQuantity,
	}, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusOK, map[string]any{
		"order":       toOrderResp(o),
		"stock_check": check,
	})
}

func (h *OrdersHandler) updatePurchaseStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdatePurchaseStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.UpdateProcurementStatus(ctx, req.OrderID, orders.ProcurementStatus(req.PurchaseStatus))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) batchUpdatePurchaseStatus(w http.ResponseWriter, r *http.Request) {
	var req BatchPurchaseStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := h.Orders.BatchUpdateProcurementStatus(ctx, req.OrderIDs, orders.ProcurementStatus(req.PurchaseStatus))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"updated_count":   count,
		"purchase_status": req.PurchaseStatus,
	})
}

func (h *OrdersHandler) sellerCancel(w http.ResponseWriter, r *http.Request) {
	var req SellerCancelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.SellerCancel(ctx, req.OrderID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(h.Producers.Claim, orders.EventClaimFiled, o.ID, orders.ClaimFiledPayload{
		OrderID:   o.ID,
		ClaimType: string(orders.ClaimCancel),
		Reason:    req.CancelReason,
		Outcome:   string(orders.FulfillmentCancelled),
	}, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) fileClaim(w http.ResponseWriter, r *http.Request) {
	var req OrderClaimReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	claimType := orders.ClaimStatus(req.ClaimType)
	o, err := h.Orders.FileClaim(ctx, req.OrderID, claimType, req.ClaimReason)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(h.Producers.Claim, orders.EventClaimFiled, o.ID, orders.ClaimFiledPayload{
		OrderID:   o.ID,
		ClaimType: req.ClaimType,
		Reason:    req.ClaimReason,
		Outcome:   string(claimType.FulfillmentOutcome()),
	}, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) checkStock(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	optionID, err := strconv.ParseInt(r.URL.Query().Get("option_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid option id"})
		return
	}
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	res, err := h.Orders.CheckStock(ctx, productID, optionID, quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) searchOrders(w http.ResponseWriter, r *http.Request) {
	params, err := parseSearchParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Orders.Search(ctx, params)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]OrderResp, 0, len(res.Orders))
	for i := range res.Orders {
		out = append(out, toOrderResp(&res.Orders[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders": out,
		"total":  res.Total,
		"page":   res.Page,
		"limit":  res.Limit,
	})
}

func parseSearchParams(r *http.Request) (orders.SearchParams, error) {
	q := r.URL.Query()
	params := orders.SearchParams{
		OrderNumber:       q.Get("order_number"),
		FulfillmentStatus: orders.FulfillmentStatus(q.Get("order_status")),
		ProcurementStatus: orders.ProcurementStatus(q.Get("purchase_status")),
		ShippingStatus:    orders.FulfillmentStatus(q.Get("shipping_status")),
		ClaimStatus:       orders.ClaimStatus(q.Get("claim_status")),
		PaymentStatus:     q.Get("payment_status"),
		PageType:          orders.PageType(q.Get("page_type")),
		SortBy:            q.Get("sort_by"),
		SortDirection:     orders.SortDirection(q.Get("sort_direction")),
	}
	for _, f := range []struct {
		name string
		dst  **time.Time
	}{
		{"start_date", &params.StartDate},
		{"end_date", &params.EndDate},
	} {
		if v := q.Get(f.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return params, fmt.Errorf("invalid %s: %v", f.name, err)
			}
			*f.dst = &t
		}
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("invalid page: %v", err)
		}
		params.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("invalid limit: %v", err)
		}
		params.Limit = n
	}
	return params, nil
}

func (h *OrdersHandler) statistics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.Orders.Statistics(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_orders":          st.TotalOrders,
		"pending_orders":        st.PendingOrders,
		"shipping_orders":       st.ShippingOrders,
		"delivered_orders":      st.DeliveredOrders,
		"cancelled_orders":      st.CancelledOrders,
		"procurement_confirmed": st.ProcurementConfirmed,
		"procurement_pending":   st.ProcurementPending,
	})
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.ListProducts(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
