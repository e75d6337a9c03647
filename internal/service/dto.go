package service

// CheckoutRequest represents the checkout submission payload. Line
// prices are deliberately absent: units are re-priced from the catalog
// server-side so a tampered client cannot set its own prices.
type CheckoutRequest struct {
	Items         []CheckoutItem `json:"items" binding:"required,min=1"`
	Customer      CustomerInfo   `json:"customer" binding:"required"`
	CouponCode    *string        `json:"coupon_code,omitempty"`
	PaymentMethod string         `json:"payment_method" binding:"required"`
}

type CheckoutItem struct {
	ProductID     string  `json:"product_id" binding:"required"`
	Quantity      int     `json:"quantity" binding:"required,min=1"`
	SelectedColor *string `json:"selected_color,omitempty"`
	SelectedSize  *string `json:"selected_size,omitempty"`
}

type CustomerInfo struct {
	Name       string  `json:"name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Phone      string  `json:"phone" binding:"required"`
	Address    string  `json:"address" binding:"required"`
	City       string  `json:"city" binding:"required"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code" binding:"required"`
	Country    string  `json:"country" binding:"required"`
}

// CheckoutResult is returned for a persisted order. RedirectURL is set
// only for online payments whose initiation succeeded.
type CheckoutResult struct {
	OrderID        string  `json:"order_id"`
	PaymentStatus  string  `json:"payment_status"`
	SubtotalAmount float64 `json:"subtotal_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
	RedirectURL    string  `json:"redirect_url,omitempty"`
}
