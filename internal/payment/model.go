package payment

// Confirmation is what the gateway's checkout widget hands back to the
// browser after a successful charge.
type Confirmation struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}
