package payment

import "errors"

var (
	ErrMissingSecret        = errors.New("payment signing secret is not configured")
	ErrMissingPaymentFields = errors.New("gateway order id, payment id and signature are required")
	ErrSignatureMismatch    = errors.New("payment signature mismatch")
)
