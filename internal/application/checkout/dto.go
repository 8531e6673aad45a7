package checkout

// CheckoutRequest represents a request to convert the cart into an order.
// PaymentToken is a gateway-minted token; raw card details are not part
// of this API and are rejected by binding if sent as extra fields.
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required,min=10,max=500"`
	PaymentToken    string `json:"payment_token" binding:"omitempty,max=100"`
}
