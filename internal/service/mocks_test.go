package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
	"github.com/MatheoKatbie/neaply-checkout/internal/gateway"
)

// MockGrouper implements SellerGrouper for testing
type MockGrouper struct {
	Groups []domain.SellerGroup
	Err    error
}

func (m *MockGrouper) GroupCart(_ context.Context, _, _ string) ([]domain.SellerGroup, error) {
	return m.Groups, m.Err
}

// MockLedger records orders and transitions; legs run concurrently so every
// mutation is guarded.
type MockLedger struct {
	mu             sync.Mutex
	CreateErrFor   map[string]error // seller id -> error on CreatePendingOrder
	UpdateErr      error
	Created        []*domain.Order
	Outcomes       map[uuid.UUID]domain.OrderStatus
	ExternalRefs   map[uuid.UUID]string
	UpdateErrCount int
}

func NewMockLedger() *MockLedger {
	return &MockLedger{
		Outcomes:     make(map[uuid.UUID]domain.OrderStatus),
		ExternalRefs: make(map[uuid.UUID]string),
	}
}

func (m *MockLedger) CreatePendingOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.CreateErrFor[order.SellerID]; ok && err != nil {
		return err
	}
	m.Created = append(m.Created, order)
	return nil
}

func (m *MockLedger) UpdateOrderOutcome(_ context.Context, orderID uuid.UUID, externalRef string, newStatus domain.OrderStatus, _ *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		m.UpdateErrCount++
		return m.UpdateErr
	}
	m.Outcomes[orderID] = newStatus
	m.ExternalRefs[orderID] = externalRef
	return nil
}

func (m *MockLedger) StatusFor(sellerID string) domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.Created {
		if order.SellerID == sellerID {
			if status, ok := m.Outcomes[order.ID]; ok {
				return status
			}
			return order.Status
		}
	}
	return ""
}

// MockGateway returns a scripted result per seller payout account.
type MockGateway struct {
	mu         sync.Mutex
	Results    map[string]*gateway.GatewayResult // payout account ref -> result
	Errs       map[string]error                  // payout account ref -> transport error
	ChargeRefs []string
}

func (m *MockGateway) ChargeSellerLeg(_ context.Context, req *gateway.ChargeRequest) (*gateway.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChargeRefs = append(m.ChargeRefs, req.PayoutAccountRef)
	if err, ok := m.Errs[req.PayoutAccountRef]; ok && err != nil {
		return nil, err
	}
	if result, ok := m.Results[req.PayoutAccountRef]; ok {
		return result, nil
	}
	return &gateway.GatewayResult{
		ExternalTransactionID: "pi_" + req.PayoutAccountRef,
		Status:                gateway.StatusSucceeded,
	}, nil
}

func (m *MockGateway) Charges() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChargeRefs)
}

// MockCartClearer tracks whether the cart survived the checkout.
type MockCartClearer struct {
	mu      sync.Mutex
	Deleted []string
	Err     error
}

func (m *MockCartClearer) DeleteCart(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Deleted = append(m.Deleted, cartID)
	return nil
}

func (m *MockCartClearer) DeletedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Deleted)
}

func sellerGroup(sellerID, name, payoutAccount string, priceCents int64, quantity int) domain.SellerGroup {
	return domain.SellerGroup{
		Seller: domain.Seller{
			ID:              sellerID,
			DisplayName:     name,
			PayoutAccountID: payoutAccount,
			PayoutsEnabled:  true,
		},
		Items: []domain.GroupItem{
			{
				Product: domain.Product{
					ID:         "product-" + sellerID,
					Name:       name + " item",
					PriceCents: priceCents,
					Status:     domain.ProductStatusPublished,
					SellerID:   sellerID,
				},
				Quantity:      quantity,
				SubtotalCents: priceCents * int64(quantity),
			},
		},
	}
}

func checkoutRequest() *domain.CheckoutRequest {
	return &domain.CheckoutRequest{
		BuyerID:          "buyer-1",
		PaymentMethodRef: "pm_abc",
		CartID:           "cart-1",
	}
}

// newTestCheckoutService wires a service around mocks at the standard 15% fee.
func newTestCheckoutService(grouper *MockGrouper, ledger *MockLedger, gw *MockGateway, carts *MockCartClearer) *CheckoutServiceImpl {
	return NewCheckoutService(grouper, ledger, gw, carts, 1500, "usd")
}
