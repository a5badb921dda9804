package order

import (
	"errors"
	"fmt"
)

var (
	ErrServiceUnavailable      = errors.New("service unavailable")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrStockValidation         = errors.New("stock validation failed")
	ErrInvalidTotal            = errors.New("order total must not be negative")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrDuplicateRequest        = errors.New("duplicate checkout request")
	ErrCheckoutBusy            = errors.New("products are being checked out by another request")
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrUnknownStatus           = errors.New("unknown order status")
	ErrStatusConflict          = errors.New("order status changed concurrently")
	ErrPersistence             = errors.New("failed to persist order")
)

// UnavailableError carries the operator's message while checkout is stopped.
type UnavailableError struct {
	Message string
}

func (e *UnavailableError) Error() string {
	return "service unavailable: " + e.Message
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

const (
	ReasonInvalidLine  = "invalid_line"
	ReasonMissing      = "missing"
	ReasonOutOfStock   = "out_of_stock"
	ReasonInsufficient = "insufficient"
)

type Violation struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("stock validation failed for %d line(s)", len(e.Violations))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrStockValidation
}
