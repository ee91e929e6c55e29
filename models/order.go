package models

type CartItem struct {
	MenuID   string `json:"menuId"`
	Quantity int    `json:"quantity"`
}

// Cart is keyed by the owning user's email, one cart per user.
type Cart struct {
	Items []CartItem `json:"items"`
}

type PaymentStatus string

const (
	PaymentOutstanding PaymentStatus = "outstanding"
	PaymentPaid        PaymentStatus = "paid"
)

type ShippingAddress struct {
	Street string `json:"street"`
	Zip    string `json:"zip"`
	City   string `json:"city"`
}

// Order is created as outstanding before payment capture is attempted and
// moves to paid only after the charge succeeds. There are no other states.
type Order struct {
	OrderID         string          `json:"orderId"`
	UserID          string          `json:"userId"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	CartItems       []CartItem      `json:"cartItems"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
}
