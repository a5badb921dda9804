package graph

import (
	"context"
	"errors"

	"aurelia-be/internal/logger"
	"aurelia-be/internal/order"
	"aurelia-be/internal/payment"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"
)

var (
	errUnauthenticated = errors.New("unauthorized")
	errAdminOnly       = errors.New("forbidden: admin only")
)

// inputError is an argument the schema accepted but the domain cannot.
type inputError struct {
	code    string
	message string
}

func (e *inputError) Error() string { return e.message }

func invalidInput(code, message string) error {
	return &inputError{code: code, message: message}
}

// presentError turns a resolver error into a GraphQL error whose "code"
// extension matches the REST error codes.
func presentError(ctx context.Context, path ast.Path, field string, err error) *gqlerror.Error {
	var (
		unavailable *order.UnavailableError
		invalid     *order.ValidationError
		bad         *inputError
	)

	ext := map[string]interface{}{}
	msg := err.Error()

	switch {
	case errors.As(err, &bad):
		ext["code"] = bad.code
	case errors.Is(err, errUnauthenticated), errors.Is(err, order.ErrUnauthorized):
		ext["code"], msg = "unauthorized", "Sign in to continue"
	case errors.Is(err, errAdminOnly):
		ext["code"], msg = "forbidden", "Admin access required"
	case errors.As(err, &unavailable):
		ext["code"], msg = "service_unavailable", unavailable.Message
	case errors.Is(err, payment.ErrMissingPaymentFields):
		ext["code"] = "invalid_payment_payload"
	case errors.Is(err, payment.ErrSignatureMismatch):
		ext["code"], msg = "signature_mismatch", "Payment signature could not be verified"
	case errors.Is(err, order.ErrEmptyCart):
		ext["code"], msg = "empty_cart", "Cart is empty"
	case errors.Is(err, order.ErrInvalidTotal):
		ext["code"], msg = "invalid_total", "Order total must not be negative"
	case errors.As(err, &invalid):
		ext["code"], msg = "stock_unavailable", "Some items are no longer available in the requested quantity"
		ext["violations"] = invalid.Violations
	case errors.Is(err, order.ErrDuplicateRequest):
		ext["code"], msg = "duplicate_request", "This checkout is already being processed"
	case errors.Is(err, order.ErrCheckoutBusy):
		ext["code"], msg = "checkout_busy", "These items are being checked out right now, please retry"
	case errors.Is(err, order.ErrOrderNotFound):
		ext["code"], msg = "not_found", "Order not found"
	case errors.Is(err, order.ErrForbidden):
		ext["code"], msg = "forbidden", "You do not have access to this order"
	case errors.Is(err, order.ErrUnknownStatus):
		ext["code"] = "invalid_status"
	case errors.Is(err, order.ErrInvalidStatusTransition):
		ext["code"] = "invalid_transition"
	case errors.Is(err, order.ErrStatusConflict):
		ext["code"], msg = "status_conflict", "Order was updated by someone else, reload and retry"
	default:
		logger.FromCtx(ctx).Error("graphql resolver failed",
			zap.String("layer", "graph"),
			zap.String("field", field),
			zap.Error(err),
		)
		ext["code"], msg = "internal_error", "Something went wrong"
		if errors.Is(err, payment.ErrMissingSecret) {
			ext["code"], msg = "payment_verification_unavailable", "Payment verification is unavailable"
		}
	}

	return &gqlerror.Error{
		Err:        err,
		Message:    msg,
		Path:       path,
		Extensions: ext,
	}
}
