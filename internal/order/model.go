package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"aurelia-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

var nextStatus = map[OrderStatus]OrderStatus{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// CanTransition walks the lifecycle one step forward. Any live order may be
// cancelled.
func CanTransition(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() || from.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return nextStatus[from] == to
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Address) Scan(src any) error {
	return scanJSON(src, a)
}

// AddressVerification is whatever the storefront's address check reported
// when the order was placed.
type AddressVerification struct {
	Verified   bool     `json:"verified"`
	Provider   string   `json:"provider,omitempty"`
	Reference  string   `json:"reference,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Suggested  *Address `json:"suggested,omitempty"`
}

func (v AddressVerification) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *AddressVerification) Scan(src any) error {
	return scanJSON(src, v)
}

func scanJSON(src any, dest any) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(s, dest)
	case string:
		return json.Unmarshal([]byte(s), dest)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}

type Order struct {
	ID                  uuid.UUID
	UserID              uint
	Total               decimal.Decimal
	Status              OrderStatus
	CustomerName        string
	CustomerEmail       string
	CustomerPhone       string
	ShippingAddress     Address
	AddressVerification *AddressVerification
	PaymentOrderID      *string
	PaymentID           *string
	TrackingCarrier     *string
	TrackingNumber      *string
	ShippedAt           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Items               []OrderItem
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID string
	Quantity  int
	Price     decimal.Decimal
	Product   product.Summary
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type CheckoutLine struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address Address
}

type CheckoutRequest struct {
	UserID       uint
	SessionEmail string

	Lines               []CheckoutLine
	Total               *decimal.Decimal
	Customer            *Customer
	AddressVerification *AddressVerification

	IdempotencyKey string
}

type ReconcileFailure struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Error     string `json:"error"`
}

type ReconcileReport struct {
	Updated  []product.StockLevel `json:"updated"`
	Failures []ReconcileFailure   `json:"failures"`
}

func (r ReconcileReport) OK() bool {
	return len(r.Failures) == 0
}

const (
	NotificationQueued  = "queued"
	NotificationSkipped = "skipped"
	NotificationDropped = "dropped"
)

type NotificationStatus struct {
	Status    string `json:"status"`
	Recipient string `json:"recipient,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type CheckoutResult struct {
	Order          *Order
	Reconciliation ReconcileReport
	Notification   NotificationStatus
}

type StatusUpdate struct {
	Status          OrderStatus
	TrackingCarrier *string
	TrackingNumber  *string
}

func ParseStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}
