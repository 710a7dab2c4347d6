package domain

import "github.com/google/uuid"

type CheckoutRequest struct {
	BuyerID          string
	PaymentMethodRef string
	CartID           string
}

type PaymentSuccess struct {
	OrderID       uuid.UUID
	SellerID      string
	SellerName    string
	AmountCents   int64
	ExternalTxnID string
	Status        string
}

type PaymentFailure struct {
	SellerID   string
	SellerName string
	Error      string
}

// CheckoutReport aggregates per-seller outcomes. AllSucceeded is the sole
// signal the caller uses to pick a confirmation screen vs a per-seller view.
type CheckoutReport struct {
	SuccessfulPayments []PaymentSuccess
	FailedPayments     []PaymentFailure
	AllSucceeded       bool
	TotalProcessed     int
}
