package service

import (
	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
)

// legOutcome holds exactly one of a success or a failure for one seller leg.
type legOutcome struct {
	success *domain.PaymentSuccess
	failure *domain.PaymentFailure
}

func successOutcome(order *domain.Order, group domain.SellerGroup, externalTxnID, status string) legOutcome {
	return legOutcome{success: &domain.PaymentSuccess{
		OrderID:       order.ID,
		SellerID:      group.Seller.ID,
		SellerName:    group.Seller.DisplayName,
		AmountCents:   order.TotalCents,
		ExternalTxnID: externalTxnID,
		Status:        status,
	}}
}

func failureOutcome(group domain.SellerGroup, reason string) legOutcome {
	return legOutcome{failure: &domain.PaymentFailure{
		SellerID:   group.Seller.ID,
		SellerName: group.Seller.DisplayName,
		Error:      reason,
	}}
}

// buildReport folds the per-leg outcomes into the caller-facing aggregate.
// Outcome order follows the seller-group order, regardless of which leg
// finished first.
func buildReport(outcomes []legOutcome) *domain.CheckoutReport {
	report := &domain.CheckoutReport{
		SuccessfulPayments: make([]domain.PaymentSuccess, 0, len(outcomes)),
		FailedPayments:     make([]domain.PaymentFailure, 0),
		TotalProcessed:     len(outcomes),
	}

	for _, outcome := range outcomes {
		if outcome.success != nil {
			report.SuccessfulPayments = append(report.SuccessfulPayments, *outcome.success)
		}
		if outcome.failure != nil {
			report.FailedPayments = append(report.FailedPayments, *outcome.failure)
		}
	}

	report.AllSucceeded = len(report.FailedPayments) == 0
	return report
}
