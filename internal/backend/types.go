package backend

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

func init() {
	// the backend reads prices as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// User is the identity the backend returns with a session.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// UnmarshalJSON accepts numeric or string ids.
func (u *User) UnmarshalJSON(b []byte) error {
	type alias User
	var raw struct {
		alias
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*u = User(raw.alias)
	u.ID = strings.Trim(string(raw.ID), `"`)
	if u.ID == "null" {
		u.ID = ""
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
}

// AuthResponse is kept loosely typed; its shape varies between backends.
type AuthResponse map[string]any

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
}

type CartItem struct {
	ID                 int64           `json:"id,omitempty"`
	ProductID          int64           `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductDescription string          `json:"productDescription"`
	ProductImageURL    string          `json:"productImageUrl"`
	ProductPrice       decimal.Decimal `json:"productPrice"`
	ProductCategory    string          `json:"productCategory"`
	Quantity           int             `json:"quantity"`
}

// Subtotal is price times quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.ProductPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart mirrors the server cart. ID 0 means no cart exists yet.
type Cart struct {
	ID    int64      `json:"id"`
	Items []CartItem `json:"items"`
}

// EmptyCart is published whenever the authoritative cart is unavailable.
func EmptyCart() Cart {
	return Cart{Items: []CartItem{}}
}

type Address struct {
	ID          int64  `json:"id,omitempty"`
	UserID      string `json:"userId,omitempty"`
	Name        string `json:"name" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Country     string `json:"country" validate:"required"`
	Street      string `json:"street" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	ZipCode     string `json:"zipCode" validate:"required"`
}

type OrderItem struct {
	ID          int64            `json:"id"`
	ProductID   int64            `json:"productId"`
	ProductName string           `json:"productName"`
	Quantity    int              `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	Subtotal    *decimal.Decimal `json:"subtotal,omitempty"`
}

// LineTotal is the subtotal when the backend sent one, price*quantity otherwise.
func (i OrderItem) LineTotal() decimal.Decimal {
	if i.Subtotal != nil {
		return *i.Subtotal
	}
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Payment struct {
	ID                    int64               `json:"id"`
	Amount                decimal.Decimal     `json:"amount"`
	Currency              string              `json:"currency"`
	Status                enums.PaymentStatus `json:"status"`
	StripePaymentIntentID string              `json:"stripePaymentIntentId"`
	CreatedAt             *time.Time          `json:"createdAt,omitempty"`
}

type Order struct {
	ID              int64             `json:"id"`
	UserID          string            `json:"userId"`
	UserOrderNumber int64             `json:"userOrderNumber"`
	Items           []OrderItem       `json:"items"`
	Total           decimal.Decimal   `json:"total"`
	Status          enums.OrderStatus `json:"status"`
	Payment         *Payment          `json:"payment,omitempty"`
	CreatedAt       *time.Time        `json:"createdAt,omitempty"`
}

// ItemCount is the sum of line quantities.
func (o Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

type CheckoutSession struct {
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
}

// PaymentVerification is the verify-payment answer. A nil Paid means the
// backend only signalled success through the status code.
type PaymentVerification struct {
	Paid      *bool               `json:"paid,omitempty"`
	Status    enums.PaymentStatus `json:"status,omitempty"`
	OrderID   int64               `json:"orderId,omitempty"`
	SessionID string              `json:"sessionId,omitempty"`
}

// Confirmed reports whether the verification counts as a settled payment.
func (v *PaymentVerification) Confirmed() bool {
	if v == nil {
		return false
	}
	if v.Paid != nil {
		return *v.Paid
	}
	if status, err := enums.ParsePaymentStatus(string(v.Status)); err == nil {
		return status.IsSettled()
	}
	return true
}
