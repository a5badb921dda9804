package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type Verifier interface {
	Verify(c Confirmation) error
}

type verifier struct {
	secret string
}

func NewVerifier(secret string) Verifier {
	return &verifier{secret: secret}
}

// Verify checks the gateway signature, hex(HMAC-SHA256(secret, orderID|paymentID)).
func (v *verifier) Verify(c Confirmation) error {
	if v.secret == "" {
		return ErrMissingSecret
	}

	if strings.TrimSpace(c.GatewayOrderID) == "" ||
		strings.TrimSpace(c.GatewayPaymentID) == "" ||
		strings.TrimSpace(c.Signature) == "" {
		return ErrMissingPaymentFields
	}

	expected := Sign(v.secret, c.GatewayOrderID, c.GatewayPaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(c.Signature))) {
		return ErrSignatureMismatch
	}

	return nil
}

// Sign produces the signature the gateway would send for the pair.
func Sign(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
