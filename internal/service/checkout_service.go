// Package service drives the multi-vendor checkout: one independent payment
// leg per seller, fanned out and reconciled into a single report.
package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
	"github.com/MatheoKatbie/neaply-checkout/internal/fees"
	"github.com/MatheoKatbie/neaply-checkout/internal/gateway"
)

type SellerGrouper interface {
	GroupCart(ctx context.Context, buyerID, cartID string) ([]domain.SellerGroup, error)
}

type OrderLedger interface {
	CreatePendingOrder(ctx context.Context, order *domain.Order) error
	UpdateOrderOutcome(ctx context.Context, orderID uuid.UUID, externalRef string, newStatus domain.OrderStatus, paidAt *time.Time) error
}

type CartClearer interface {
	DeleteCart(ctx context.Context, cartID string) error
}

type CheckoutService interface {
	ProcessCheckout(ctx context.Context, request *domain.CheckoutRequest) (*domain.CheckoutReport, error)
}

type CheckoutServiceImpl struct {
	groups         SellerGrouper
	ledger         OrderLedger
	gateway        gateway.PaymentGateway
	carts          CartClearer
	feeBasisPoints int64
	currency       string
}

func NewCheckoutService(groups SellerGrouper, ledger OrderLedger, gw gateway.PaymentGateway, carts CartClearer, feeBasisPoints int64, currency string) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		groups:         groups,
		ledger:         ledger,
		gateway:        gw,
		carts:          carts,
		feeBasisPoints: feeBasisPoints,
		currency:       currency,
	}
}

// ProcessCheckout validates the cart up front, then runs one payment leg per
// seller concurrently. Legs share no mutable state, so a failing leg never
// touches the others; the cart is cleared only when every leg settled.
// Precondition violations (empty cart, unpurchasable item, seller without a
// payout account) surface as errors before any order exists.
func (s *CheckoutServiceImpl) ProcessCheckout(ctx context.Context, request *domain.CheckoutRequest) (*domain.CheckoutReport, error) {
	groups, err := s.groups.GroupCart(ctx, request.BuyerID, request.CartID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]legOutcome, len(groups))
	var wg sync.WaitGroup
	for i, group := range groups {
		wg.Add(1)
		go func(i int, group domain.SellerGroup) {
			defer wg.Done()
			outcomes[i] = s.processLeg(ctx, request, group)
		}(i, group)
	}
	wg.Wait()

	report := buildReport(outcomes)

	if report.AllSucceeded {
		if err := s.carts.DeleteCart(ctx, request.CartID); err != nil {
			// Every seller was paid; a stale cart is an annoyance, not a loss.
			log.Printf("failed to clear cart %s after successful checkout: %v", request.CartID, err)
		}
	}

	return report, nil
}

// processLeg runs the full sequence for one seller: compute the split,
// persist a pending order, charge the gateway, record the outcome. The
// pending order is durable before the charge so a crash mid-leg still leaves
// a reconcilable record.
func (s *CheckoutServiceImpl) processLeg(ctx context.Context, request *domain.CheckoutRequest, group domain.SellerGroup) legOutcome {
	subtotal := group.SubtotalCents()
	fee, net := fees.Split(subtotal, s.feeBasisPoints)
	order := s.buildOrder(request, group, subtotal, fee, net)

	if err := s.ledger.CreatePendingOrder(ctx, order); err != nil {
		log.Printf("failed to create pending order for seller %s: %v", group.Seller.ID, err)
		return failureOutcome(group, "failed to record order, payment not attempted")
	}

	if subtotal == 0 {
		// Free carts settle without a gateway round trip.
		paidAt := time.Now()
		if err := s.ledger.UpdateOrderOutcome(ctx, order.ID, "", domain.OrderStatusPaid, &paidAt); err != nil {
			log.Printf("failed to settle free order %s: %v", order.ID, err)
			return failureOutcome(group, "failed to settle free order")
		}
		return successOutcome(order, group, "", string(gateway.StatusSucceeded))
	}

	result, err := s.gateway.ChargeSellerLeg(ctx, &gateway.ChargeRequest{
		PaymentMethodRef: request.PaymentMethodRef,
		PayoutAccountRef: group.Seller.PayoutAccountID,
		AmountCents:      subtotal,
		PlatformFeeCents: fee,
		Currency:         s.currency,
		Metadata: gateway.ChargeMetadata{
			OrderID:   order.ID.String(),
			BuyerID:   request.BuyerID,
			SellerID:  group.Seller.ID,
			CartID:    request.CartID,
			OrderType: orderTypeMultiVendor,
		},
	})
	if err != nil {
		// On a timeout the charge may have landed anyway; that ambiguity is
		// resolved out of band against the gateway's own event stream.
		s.markFailed(ctx, order.ID, group.Seller.ID, "")
		return failureOutcome(group, fmt.Sprintf("payment failed: %v", err))
	}

	if result.Status == gateway.StatusSucceeded {
		paidAt := time.Now()
		if err := s.ledger.UpdateOrderOutcome(ctx, order.ID, result.ExternalTransactionID, domain.OrderStatusPaid, &paidAt); err != nil {
			// Money moved but the ledger did not follow. Manual reconciliation only.
			log.Printf("CRITICAL: order %s charged (txn %s) but outcome write failed: %v",
				order.ID, result.ExternalTransactionID, err)
		}
		return successOutcome(order, group, result.ExternalTransactionID, string(result.Status))
	}

	reason := result.DeclineReason
	if reason == "" {
		reason = fmt.Sprintf("payment %s", result.Status)
	}
	s.markFailed(ctx, order.ID, group.Seller.ID, result.ExternalTransactionID)
	return failureOutcome(group, reason)
}

func (s *CheckoutServiceImpl) markFailed(ctx context.Context, orderID uuid.UUID, sellerID, externalRef string) {
	if err := s.ledger.UpdateOrderOutcome(ctx, orderID, externalRef, domain.OrderStatusFailed, nil); err != nil {
		log.Printf("failed to mark order %s failed for seller %s: %v", orderID, sellerID, err)
	}
}

const orderTypeMultiVendor = "multi_vendor"

func (s *CheckoutServiceImpl) buildOrder(request *domain.CheckoutRequest, group domain.SellerGroup, subtotal, fee, net int64) *domain.Order {
	items := make([]domain.OrderItem, len(group.Items))
	for i, item := range group.Items {
		items[i] = domain.OrderItem{
			ProductID:      item.Product.ID,
			ProductName:    item.Product.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.Product.PriceCents,
			SubtotalCents:  item.SubtotalCents,
		}
	}

	return &domain.Order{
		ID:               uuid.New(),
		BuyerID:          request.BuyerID,
		SellerID:         group.Seller.ID,
		TotalCents:       subtotal,
		PlatformFeeCents: fee,
		NetToSellerCents: net,
		Currency:         s.currency,
		Status:           domain.OrderStatusPending,
		Metadata: domain.OrderMetadata{
			CartID:    request.CartID,
			SellerID:  group.Seller.ID,
			OrderType: orderTypeMultiVendor,
		},
		Items: items,
	}
}
