// Package gateway wraps the external payment processor call that charges the
// buyer, retains the platform fee and transfers the remainder to the seller's
// connected payout account in a single authorize-and-capture request.
package gateway

import "context"

type Status string

const (
	StatusSucceeded      Status = "succeeded"
	StatusRequiresAction Status = "requires_action"
	StatusFailed         Status = "failed"
)

// ChargeMetadata is the fixed key set attached to every charge so the
// processor's records can be tied back to ours. The schema is deliberately
// closed: what is written here is exactly what reconciliation reads back.
type ChargeMetadata struct {
	OrderID   string
	BuyerID   string
	SellerID  string
	CartID    string
	OrderType string
}

type ChargeRequest struct {
	PaymentMethodRef string
	PayoutAccountRef string
	AmountCents      int64
	PlatformFeeCents int64
	Currency         string
	Metadata         ChargeMetadata
}

type GatewayResult struct {
	ExternalTransactionID string
	Status                Status
	DeclineReason         string
}

// PaymentGateway is one seller leg's money movement. Implementations must
// scope every failure to the single call; they never retry on their own.
type PaymentGateway interface {
	ChargeSellerLeg(ctx context.Context, req *ChargeRequest) (*GatewayResult, error)
}
