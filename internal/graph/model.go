package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"aurelia-be/internal/order"
	"aurelia-be/internal/payment"
	"aurelia-be/internal/product"
	"aurelia-be/internal/utils"

	"github.com/shopspring/decimal"
)

// object is a resolved GraphQL object. Fields are keyed by their schema name;
// values are scalars, *object, []*object or nil.
type object struct {
	typeName string
	fields   map[string]any
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func optTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func addressObject(a order.Address) *object {
	return &object{typeName: "Address", fields: map[string]any{
		"line1":      a.Line1,
		"line2":      a.Line2,
		"city":       a.City,
		"state":      a.State,
		"postalCode": a.PostalCode,
		"country":    a.Country,
	}}
}

func verificationObject(v *order.AddressVerification) any {
	if v == nil {
		return nil
	}
	fields := map[string]any{
		"verified":   v.Verified,
		"provider":   nil,
		"reference":  nil,
		"confidence": nil,
		"suggested":  nil,
	}
	if v.Provider != "" {
		fields["provider"] = v.Provider
	}
	if v.Reference != "" {
		fields["reference"] = v.Reference
	}
	if v.Confidence != nil {
		fields["confidence"] = *v.Confidence
	}
	if v.Suggested != nil {
		fields["suggested"] = addressObject(*v.Suggested)
	}
	return &object{typeName: "AddressVerification", fields: fields}
}

func productObject(p product.Summary) *object {
	return &object{typeName: "ProductSummary", fields: map[string]any{
		"id":           p.ID,
		"name":         p.Name,
		"imageUrl":     optString(p.ImageURL),
		"shippingCost": money(p.ShippingCost),
	}}
}

func orderObject(o *order.Order) any {
	if o == nil {
		return nil
	}

	items := make([]*object, 0, len(o.Items))
	for _, i := range o.Items {
		items = append(items, &object{typeName: "OrderItem", fields: map[string]any{
			"id":        i.ID.String(),
			"productId": i.ProductID,
			"quantity":  i.Quantity,
			"price":     money(i.Price),
			"subtotal":  money(i.LineTotal()),
			"product":   productObject(i.Product),
		}})
	}

	var tracking any
	if o.TrackingCarrier != nil || o.TrackingNumber != nil || o.ShippedAt != nil {
		tracking = &object{typeName: "Tracking", fields: map[string]any{
			"carrier":   optString(o.TrackingCarrier),
			"number":    optString(o.TrackingNumber),
			"shippedAt": optTime(o.ShippedAt),
		}}
	}

	return &object{typeName: "Order", fields: map[string]any{
		"id":     o.ID.String(),
		"userId": strconv.FormatUint(uint64(o.UserID), 10),
		"status": string(o.Status),
		"total":  money(o.Total),
		"customer": &object{typeName: "Customer", fields: map[string]any{
			"name":    o.CustomerName,
			"email":   o.CustomerEmail,
			"phone":   o.CustomerPhone,
			"address": addressObject(o.ShippingAddress),
		}},
		"addressVerification": verificationObject(o.AddressVerification),
		"paymentOrderId":      optString(o.PaymentOrderID),
		"paymentId":           optString(o.PaymentID),
		"tracking":            tracking,
		"createdAt":           o.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":           o.UpdatedAt.UTC().Format(time.RFC3339),
		"items":               items,
	}}
}

func checkoutPayload(res *order.CheckoutResult) any {
	updated := make([]*object, 0, len(res.Reconciliation.Updated))
	for _, l := range res.Reconciliation.Updated {
		updated = append(updated, &object{typeName: "StockLevel", fields: map[string]any{
			"productId":  l.ProductID,
			"stockCount": l.StockCount,
			"inStock":    l.InStock,
		}})
	}
	failures := make([]*object, 0, len(res.Reconciliation.Failures))
	for _, f := range res.Reconciliation.Failures {
		failures = append(failures, &object{typeName: "ReconcileFailure", fields: map[string]any{
			"productId": f.ProductID,
			"quantity":  f.Quantity,
			"error":     f.Error,
		}})
	}

	note := map[string]any{"status": res.Notification.Status, "recipient": nil, "reason": nil}
	if res.Notification.Recipient != "" {
		note["recipient"] = res.Notification.Recipient
	}
	if res.Notification.Reason != "" {
		note["reason"] = res.Notification.Reason
	}

	return &object{typeName: "CheckoutPayload", fields: map[string]any{
		"order": orderObject(res.Order),
		"reconciliation": &object{typeName: "Reconciliation", fields: map[string]any{
			"updated":  updated,
			"failures": failures,
		}},
		"notification": &object{typeName: "Notification", fields: note},
	}}
}

// args wraps coerced argument values. Input objects arrive as nested maps.
type args map[string]any

func (a args) obj(key string) args {
	m, _ := a[key].(map[string]any)
	return m
}

func (a args) list(key string) []any {
	l, _ := a[key].([]any)
	return l
}

func (a args) str(key string) string {
	s, _ := a[key].(string)
	return strings.TrimSpace(s)
}

func (a args) optStr(key string) *string {
	s, ok := a[key].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

func (a args) boolean(key string) bool {
	b, _ := a[key].(bool)
	return b
}

func (a args) integer(key string) (int, error) {
	switch n := a[key].(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}

func (a args) optFloat(key string) (*float64, error) {
	var f float64
	switch n := a[key].(type) {
	case nil:
		return nil, nil
	case float64:
		f = n
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	case json.Number:
		v, err := n.Float64()
		if err != nil {
			return nil, err
		}
		f = v
	default:
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}

func (a args) decimal(key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(a.str(key))
	if err != nil {
		return decimal.Zero, invalidInput("invalid_request", key+" must be a decimal amount")
	}
	return d, nil
}

func addressInput(a args) order.Address {
	return order.Address{
		Line1:      a.str("line1"),
		Line2:      a.str("line2"),
		City:       a.str("city"),
		State:      a.str("state"),
		PostalCode: a.str("postalCode"),
		Country:    a.str("country"),
	}
}

// checkoutRequest binds the caller's session identity to the input, the same
// way the REST body is bound.
func checkoutRequest(ctx context.Context, in args) (order.CheckoutRequest, error) {
	userID, _ := utils.GetUserIDFromContext(ctx)

	req := order.CheckoutRequest{
		UserID:         userID,
		SessionEmail:   utils.GetUserEmailFromContext(ctx),
		IdempotencyKey: in.str("idempotencyKey"),
	}

	for _, raw := range in.list("items") {
		it := args(nil)
		if m, ok := raw.(map[string]any); ok {
			it = m
		}
		qty, err := it.integer("quantity")
		if err != nil {
			return req, invalidInput("invalid_request", err.Error())
		}
		price, err := it.decimal("price")
		if err != nil {
			return req, err
		}
		req.Lines = append(req.Lines, order.CheckoutLine{
			ProductID: it.str("productId"),
			Quantity:  qty,
			Price:     price,
		})
	}

	if _, ok := in["total"].(string); ok {
		total, err := in.decimal("total")
		if err != nil {
			return req, err
		}
		req.Total = &total
	}

	if c := in.obj("customer"); c != nil {
		req.Customer = &order.Customer{
			Name:    c.str("name"),
			Email:   c.str("email"),
			Phone:   c.str("phone"),
			Address: addressInput(c.obj("address")),
		}
	}

	if v := in.obj("addressVerification"); v != nil {
		confidence, err := v.optFloat("confidence")
		if err != nil {
			return req, invalidInput("invalid_request", err.Error())
		}
		av := &order.AddressVerification{
			Verified:   v.boolean("verified"),
			Provider:   v.str("provider"),
			Reference:  v.str("reference"),
			Confidence: confidence,
		}
		if s := v.obj("suggested"); s != nil {
			addr := addressInput(s)
			av.Suggested = &addr
		}
		req.AddressVerification = av
	}

	return req, nil
}

func paymentConfirmation(in args) payment.Confirmation {
	return payment.Confirmation{
		GatewayOrderID:   in.str("gatewayOrderId"),
		GatewayPaymentID: in.str("gatewayPaymentId"),
		Signature:        in.str("signature"),
	}
}
