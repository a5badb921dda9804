package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"aurelia-be/internal/order"
	"aurelia-be/internal/payment"
	"aurelia-be/internal/utils"

	"github.com/shopspring/decimal"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type checkoutItemRequest struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type customerRequest struct {
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Phone   string        `json:"phone"`
	Address order.Address `json:"address"`
}

type checkoutRequest struct {
	Items               []checkoutItemRequest      `json:"items"`
	Total               *decimal.Decimal           `json:"total"`
	Customer            *customerRequest           `json:"customer"`
	AddressVerification *order.AddressVerification `json:"addressVerification"`
}

type paymentVerifyRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
	checkoutRequest
}

type statusUpdateRequest struct {
	Status          string  `json:"status"`
	TrackingCarrier *string `json:"trackingCarrier"`
	TrackingNumber  *string `json:"trackingNumber"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// toCheckout binds the caller's identity to the body. Identity always comes
// from the verified session, never from the payload.
func (req checkoutRequest) toCheckout(r *http.Request) order.CheckoutRequest {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	out := order.CheckoutRequest{
		UserID:              userID,
		SessionEmail:        utils.GetUserEmailFromContext(r.Context()),
		Lines:               make([]order.CheckoutLine, 0, len(req.Items)),
		Total:               req.Total,
		AddressVerification: req.AddressVerification,
		IdempotencyKey:      strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)),
	}
	for _, it := range req.Items {
		out.Lines = append(out.Lines, order.CheckoutLine{
			ProductID: strings.TrimSpace(it.ProductID),
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	if req.Customer != nil {
		out.Customer = &order.Customer{
			Name:    strings.TrimSpace(req.Customer.Name),
			Email:   strings.TrimSpace(req.Customer.Email),
			Phone:   strings.TrimSpace(req.Customer.Phone),
			Address: req.Customer.Address,
		}
	}
	return out
}

func (req paymentVerifyRequest) confirmation() payment.Confirmation {
	return payment.Confirmation{
		GatewayOrderID:   strings.TrimSpace(req.GatewayOrderID),
		GatewayPaymentID: strings.TrimSpace(req.GatewayPaymentID),
		Signature:        strings.TrimSpace(req.Signature),
	}
}
