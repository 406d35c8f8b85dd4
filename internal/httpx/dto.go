package httpx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MICGolf/backend/internal/orders"
)

type CreateOrderReq struct {
	Name            string           `json:"name"`
	Phone           string           `json:"phone"`
	ShippingAddress string           `json:"shipping_address"`
	DetailAddress   string           `json:"detail_address,omitempty"`
	Request         string           `json:"request,omitempty"`
	Products        []OrderLineInput `json:"products"`
}

type OrderLineInput struct {
	ProductID int64           `json:"product_id"`
	OptionID  int64           `json:"option_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (r CreateOrderReq) toInput() orders.CreateOrderInput {
	in := orders.CreateOrderInput{
		Name:            r.Name,
		Phone:           r.Phone,
		ShippingAddress: r.ShippingAddress,
		DetailAddress:   r.DetailAddress,
		RequestNote:     r.Request,
	}
	for _, p := range r.Products {
		in.Lines = append(in.Lines, orders.CreateOrderLine{
			ProductID: p.ProductID,
			OptionID:  p.OptionID,
			Quantity:  p.Quantity,
			UnitPrice: p.Price,
		})
	}
	return in
}

type VerifyOrderReq struct {
	OrderNumber string `json:"order_number"`
	Phone       string `json:"phone"`
}

type UpdateStatusReq struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

type BatchStatusReq struct {
	OrderIDs []int64 `json:"order_ids"`
	Status   string  `json:"status"`
}

type UpdateShippingReq struct {
	OrderID        int64  `json:"order_id"`
	Courier        string `json:"courier"`
	TrackingNumber string `json:"tracking_number"`
	ShippingStatus string `json:"shipping_status"`
}

func (r UpdateShippingReq) toUpdate() orders.ShippingUpdate {
	return orders.ShippingUpdate{
		OrderID:        r.OrderID,
		Courier:        r.Courier,
		TrackingNumber: r.TrackingNumber,
		Status:         orders.FulfillmentStatus(r.ShippingStatus),
	}
}

type BulkShippingReq struct {
	OrderProducts []UpdateShippingReq `json:"order_products"`
}

type PurchaseOrderReq struct {
	OrderID int64 `json:"order_id"`
}

type UpdatePurchaseStatusReq struct {
	OrderID        int64  `json:"order_id"`
	PurchaseStatus string `json:"purchase_status"`
}

type BatchPurchaseStatusReq struct {
	OrderIDs       []int64 `json:"order_ids"`
	PurchaseStatus string  `json:"purchase_status"`
}

type SellerCancelReq struct {
	OrderID      int64  `json:"order_id"`
	CancelReason string `json:"cancel_reason"`
}

type OrderClaimReq struct {
	OrderID     int64  `json:"order_id"`
	ClaimType   string `json:"claim_type"`
	ClaimReason string `json:"claim_reason"`
}

type UpdateOrderReq struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	ShippingAddress string `json:"shipping_address"`
	DetailAddress   string `json:"detail_address,omitempty"`
	Request         string `json:"request,omitempty"`
}

type OrderLineResp struct {
	ID                int64  `json:"id"`
	ProductID         int64  `json:"product_id"`
	OptionID          int64  `json:"option_id"`
	ProductName       string `json:"product_name"`
	OptionSize        string `json:"option_size,omitempty"`
	OptionColor       string `json:"option_color,omitempty"`
	Quantity          int    `json:"quantity"`
	Price             string `json:"price"`
	Courier           string `json:"courier,omitempty"`
	TrackingNumber    string `json:"tracking_number,omitempty"`
	ShippingStatus    string `json:"shipping_status"`
	ProcurementStatus string `json:"procurement_status,omitempty"`
	ClaimStatus       string `json:"claim_status,omitempty"`
	ClaimReason       string `json:"claim_reason,omitempty"`
}

type PaymentResp struct {
	TransactionID string    `json:"transaction_id"`
	OrderID       int64     `json:"order_id"`
	Amount        string    `json:"amount"`
	PaymentType   string    `json:"payment_type"`
	PaymentStatus string    `json:"payment_status"`
	PaidAt        time.Time `json:"paid_at"`
}

type ShippingResp struct {
	Status         string    `json:"status"`
	Courier        string    `json:"courier"`
	TrackingNumber string    `json:"tracking_number"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type OrderResp struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	ShippingAddress string          `json:"shipping_address"`
	DetailAddress   string          `json:"detail_address,omitempty"`
	Request         string          `json:"request,omitempty"`
	TotalAmount     string          `json:"total_amount"`
	OrderStatus     string          `json:"order_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Products        []OrderLineResp `json:"products"`
	Payment         *PaymentResp    `json:"payment,omitempty"`
	Shipping        *ShippingResp   `json:"shipping,omitempty"`
}

func toOrderResp(o *orders.Order) OrderResp {
	resp := OrderResp{
		ID:              o.ID,
		OrderNumber:     o.Number(),
		Name:            o.Name,
		Phone:           o.Phone,
		ShippingAddress: o.ShippingAddress,
		DetailAddress:   o.DetailAddress,
		Request:         o.RequestNote,
		TotalAmount:     o.TotalAmount().String(),
		OrderStatus:     string(o.Status()),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Products:        make([]OrderLineResp, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		resp.Products = append(resp.Products, OrderLineResp{
			ID:                l.ID,
			ProductID:         l.ProductID,
			OptionID:          l.OptionID,
			ProductName:       l.ProductName,
			OptionSize:        l.OptionSize,
			OptionColor:       l.OptionColor,
			Quantity:          l.Quantity,
			Price:             l.UnitPrice.String(),
			Courier:           l.Courier,
			TrackingNumber:    l.TrackingNumber,
			ShippingStatus:    string(l.Fulfillment),
			ProcurementStatus: string(l.Procurement),
			ClaimStatus:       string(l.Claim),
			ClaimReason:       l.ClaimReason,
		})
	}
	if o.Payment != nil {
		resp.Payment = &PaymentResp{
			TransactionID: o.Payment.TransactionID,
			OrderID:       o.Payment.OrderID,
			Amount:        o.Payment.Amount.String(),
			PaymentType:   o.Payment.PaymentType,
			PaymentStatus: o.Payment.PaymentStatus,
			PaidAt:        o.Payment.PaidAt,
		}
	}
	if s := o.Shipping(); s != nil {
		resp.Shipping = &ShippingResp{
			Status:         string(s.Status),
			Courier:        s.Courier,
			TrackingNumber: s.TrackingNumber,
			UpdatedAt:      s.UpdatedAt,
		}
	}
	return resp
}

func toShippingResp(s *orders.ShippingInfo) ShippingResp {
	return ShippingResp{
		Status:         string(s.Status),
		Courier:        s.Courier,
		TrackingNumber: s.TrackingNumber,
		UpdatedAt:      s.UpdatedAt,
	}
}
