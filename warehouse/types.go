// Package warehouse holds the fulfilment models. Its types reference each
// other: an order has a customer, whose orders lead back to it.
package warehouse

import (
	"time"
)

// Address is a shipping or billing address.
type Address struct {
	ID         uint      `json:"id"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Customer is a buyer with their addresses and orders.
type Customer struct {
	ID                       uint       `json:"id"`
	FirstName                string     `json:"first_name"`
	LastName                 string     `json:"last_name"`
	Email                    string     `json:"email"`
	Phone                    string     `json:"phone"`
	PasswordHash             string     `json:"-"`
	DateOfBirth              *time.Time `json:"date_of_birth,omitempty"`
	DefaultBillingAddressID  *uint      `json:"default_billing_address_id,omitempty"`
	DefaultShippingAddressID *uint      `json:"default_shipping_address_id,omitempty"`

	Addresses []Address `json:"addresses,omitempty"`
	Orders    []Order   `json:"orders,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a stocked item. Weight is in grams.
type Product struct {
	ID          uint    `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	Stock       int     `json:"stock"`
	IsActive    bool    `json:"is_active"`
	Weight      float64 `json:"weight"`

	OrderItems []OrderItem `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Order is a purchase being fulfilled. Amounts are in cents.
type Order struct {
	ID          uint   `json:"id"`
	CustomerID  uint   `json:"customer_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`

	ShippingAddressID uint `json:"shipping_address_id"`
	BillingAddressID  uint `json:"billing_address_id"`

	// addresses as they were when the order was placed
	ShippingAddress Address `json:"shipping_address"`
	BillingAddress  Address `json:"billing_address"`

	Customer Customer    `json:"customer"`
	Items    []OrderItem `json:"items"`

	PlacedAt    *time.Time `json:"placed_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID         uint  `json:"id"`
	OrderID    uint  `json:"order_id"`
	ProductID  uint  `json:"product_id"`
	Quantity   int   `json:"quantity"`
	UnitPrice  int64 `json:"unit_price"`
	TotalPrice int64 `json:"total_price"`

	Order   Order   `json:"-"`
	Product Product `json:"product"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
