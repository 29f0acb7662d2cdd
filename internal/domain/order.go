package domain

import (
	"time"

	"github.com/samber/lo"
)

// Order status constants.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Payment status constants.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Order represents a placed order. Line items and the shipping address are
// snapshots captured at purchase time; later book edits or deactivation do
// not change them. Amounts are in cents.
type Order struct {
	ID                string      `json:"id"`
	UserID            string      `json:"user_id"`
	Status            string      `json:"status"`
	PaymentStatus     string      `json:"payment_status"`
	PaymentMethod     string      `json:"payment_method"`
	Items             []OrderItem `json:"items"`
	ShippingAddress   Address     `json:"shipping_address"`
	CouponCode        string      `json:"coupon_code,omitempty"`
	Subtotal          int64       `json:"subtotal"`
	Tax               int64       `json:"tax"`
	ShippingCost      int64       `json:"shipping_cost"`
	Discount          int64       `json:"discount"`
	Total             int64       `json:"total"`
	TrackingNumber    string      `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time  `json:"estimated_delivery,omitempty"`
	DeliveredAt       *time.Time  `json:"delivered_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// OrderItem is one immutable line item inside an order.
type OrderItem struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	BookID     string `json:"book_id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	CoverImage string `json:"cover_image,omitempty"`
	Price      int64  `json:"price"`
	Quantity   int    `json:"quantity"`
}

// LineTotal returns the total price for this line item in cents.
func (i *OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Address is the shipping address snapshot stored with an order.
type Address struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Country  string `json:"country"`
	Phone    string `json:"phone,omitempty"`
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusRefunded,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	return lo.Contains(ValidStatuses(), status)
}

// ValidPaymentStatuses returns all valid payment statuses.
func ValidPaymentStatuses() []string {
	return []string{
		PaymentStatusPending,
		PaymentStatusPaid,
		PaymentStatusFailed,
		PaymentStatusRefunded,
	}
}

// IsValidPaymentStatus checks if a payment status string is valid.
func IsValidPaymentStatus(status string) bool {
	return lo.Contains(ValidPaymentStatuses(), status)
}

// CanBeCancelled reports whether the order may still be cancelled by its
// owner. Once shipped, cancellation is no longer possible.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// ReviewEligibleStatuses returns the order statuses that prove a purchase
// for review purposes: only shipped or delivered orders count.
func ReviewEligibleStatuses() []string {
	return []string{OrderStatusShipped, OrderStatusDelivered}
}
