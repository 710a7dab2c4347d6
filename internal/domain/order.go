package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPaid    OrderStatus = "PAID"
	OrderStatusFailed  OrderStatus = "FAILED"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether an order may move from one status to another.
// Paid and failed are terminal for the checkout flow; refunds live elsewhere.
func CanTransitionTo(from, to OrderStatus) bool {
	if from != OrderStatusPending {
		return false
	}
	return to == OrderStatusPaid || to == OrderStatusFailed
}

// OrderItem snapshots one purchased line at checkout time. Prices are copied,
// not referenced, so later catalog changes cannot alter a completed order.
type OrderItem struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

// OrderMetadata is the fixed key set echoed back from the payment gateway.
type OrderMetadata struct {
	CartID    string `json:"cart_id"`
	SellerID  string `json:"seller_id"`
	OrderType string `json:"order_type"`
}

// Order is one seller's slice of a multi-vendor checkout attempt.
type Order struct {
	ID               uuid.UUID
	BuyerID          string
	SellerID         string
	TotalCents       int64
	PlatformFeeCents int64
	NetToSellerCents int64
	Currency         string
	Status           OrderStatus
	ExternalTxnID    string
	PaidAt           *time.Time
	Metadata         OrderMetadata
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
