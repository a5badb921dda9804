package order

import (
	"time"

	"aurelia-be/internal/product"

	"github.com/shopspring/decimal"
)

type OrderItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Product   product.Summary `json:"product"`
}

type CustomerResponse struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
}

type TrackingResponse struct {
	Carrier   *string    `json:"carrier,omitempty"`
	Number    *string    `json:"number,omitempty"`
	ShippedAt *time.Time `json:"shippedAt,omitempty"`
}

type OrderResponse struct {
	ID                  string               `json:"id"`
	UserID              uint                 `json:"userId"`
	Status              OrderStatus          `json:"status"`
	Total               decimal.Decimal      `json:"total"`
	Customer            CustomerResponse     `json:"customer"`
	AddressVerification *AddressVerification `json:"addressVerification,omitempty"`
	PaymentOrderID      *string              `json:"paymentOrderId,omitempty"`
	PaymentID           *string              `json:"paymentId,omitempty"`
	Tracking            *TrackingResponse    `json:"tracking,omitempty"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
	Items               []OrderItemResponse  `json:"items"`
}

func ToOrderResponse(o *Order) *OrderResponse {
	if o == nil {
		return nil
	}

	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, i := range o.Items {
		items = append(items, OrderItemResponse{
			ID:        i.ID.String(),
			ProductID: i.ProductID,
			Quantity:  i.Quantity,
			Price:     i.Price,
			Subtotal:  i.LineTotal(),
			Product:   i.Product,
		})
	}

	var tracking *TrackingResponse
	if o.TrackingCarrier != nil || o.TrackingNumber != nil || o.ShippedAt != nil {
		tracking = &TrackingResponse{
			Carrier:   o.TrackingCarrier,
			Number:    o.TrackingNumber,
			ShippedAt: o.ShippedAt,
		}
	}

	return &OrderResponse{
		ID:     o.ID.String(),
		UserID: o.UserID,
		Status: o.Status,
		Total:  o.Total,
		Customer: CustomerResponse{
			Name:    o.CustomerName,
			Email:   o.CustomerEmail,
			Phone:   o.CustomerPhone,
			Address: o.ShippingAddress,
		},
		AddressVerification: o.AddressVerification,
		PaymentOrderID:      o.PaymentOrderID,
		PaymentID:           o.PaymentID,
		Tracking:            tracking,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		Items:               items,
	}
}
