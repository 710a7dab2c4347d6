package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
)

type MockCartReader struct {
	Cart *domain.Cart
	Err  error
}

func (m *MockCartReader) GetCart(_ context.Context, _ string) (*domain.Cart, error) {
	return m.Cart, m.Err
}

type MockCatalog struct {
	Products map[string]domain.Product
	Sellers  map[string]domain.Seller
}

func (m *MockCatalog) GetProducts(_ context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.Products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *MockCatalog) GetSellers(_ context.Context, ids []string) (map[string]domain.Seller, error) {
	out := make(map[string]domain.Seller, len(ids))
	for _, id := range ids {
		if s, ok := m.Sellers[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func testCatalog() *MockCatalog {
	return &MockCatalog{
		Products: map[string]domain.Product{
			"p1": {ID: "p1", Name: "Poster", PriceCents: 1000, Status: domain.ProductStatusPublished, SellerID: "s1"},
			"p2": {ID: "p2", Name: "Mug", PriceCents: 500, Status: domain.ProductStatusPublished, SellerID: "s2"},
			"p3": {ID: "p3", Name: "Sticker pack", PriceCents: 250, Status: domain.ProductStatusPublished, SellerID: "s1"},
			"p4": {ID: "p4", Name: "Draft item", PriceCents: 100, Status: domain.ProductStatusDraft, SellerID: "s1"},
			"p5": {ID: "p5", Name: "Orphan", PriceCents: 100, Status: domain.ProductStatusPublished, SellerID: "s3"},
		},
		Sellers: map[string]domain.Seller{
			"s1": {ID: "s1", DisplayName: "Studio One", PayoutAccountID: "acct_1", PayoutsEnabled: true},
			"s2": {ID: "s2", DisplayName: "Mug Makers", PayoutAccountID: "acct_2", PayoutsEnabled: true},
			"s3": {ID: "s3", DisplayName: "No Payout Yet", PayoutAccountID: "", PayoutsEnabled: false},
		},
	}
}

func cartWith(userID string, items ...domain.CartItem) *domain.Cart {
	return &domain.Cart{
		ID:        "cart-1",
		UserID:    userID,
		Items:     items,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestGroupCart_PartitionsBySeller(t *testing.T) {
	cart := cartWith("buyer-1",
		domain.CartItem{ProductID: "p1", Quantity: 2},
		domain.CartItem{ProductID: "p2", Quantity: 1},
		domain.CartItem{ProductID: "p3", Quantity: 4},
	)
	agg := NewAggregator(&MockCartReader{Cart: cart}, testCatalog())

	groups, err := agg.GroupCart(context.Background(), "buyer-1", "cart-1")
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// First-seen ordering: s1 before s2.
	assert.Equal(t, "s1", groups[0].Seller.ID)
	assert.Equal(t, "s2", groups[1].Seller.ID)

	// Every cart item lands in exactly one group.
	total := 0
	for _, g := range groups {
		total += len(g.Items)
	}
	assert.Equal(t, len(cart.Items), total)

	assert.Equal(t, int64(2*1000+4*250), groups[0].SubtotalCents())
	assert.Equal(t, int64(500), groups[1].SubtotalCents())
}

func TestGroupCart_EmptyCart(t *testing.T) {
	agg := NewAggregator(&MockCartReader{Cart: cartWith("buyer-1")}, testCatalog())

	_, err := agg.GroupCart(context.Background(), "buyer-1", "cart-1")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestGroupCart_NotOwned(t *testing.T) {
	cart := cartWith("someone-else", domain.CartItem{ProductID: "p1", Quantity: 1})
	agg := NewAggregator(&MockCartReader{Cart: cart}, testCatalog())

	_, err := agg.GroupCart(context.Background(), "buyer-1", "cart-1")
	assert.ErrorIs(t, err, ErrCartNotOwned)
}

func TestGroupCart_UnpurchasableItem(t *testing.T) {
	cart := cartWith("buyer-1",
		domain.CartItem{ProductID: "p1", Quantity: 1},
		domain.CartItem{ProductID: "p4", Quantity: 1},
	)
	agg := NewAggregator(&MockCartReader{Cart: cart}, testCatalog())

	_, err := agg.GroupCart(context.Background(), "buyer-1", "cart-1")

	var notPurchasable *ItemNotPurchasableError
	require.ErrorAs(t, err, &notPurchasable)
	assert.Equal(t, "p4", notPurchasable.ProductID)
}

func TestGroupCart_UnknownProductIsUnpurchasable(t *testing.T) {
	cart := cartWith("buyer-1", domain.CartItem{ProductID: "deleted", Quantity: 1})
	agg := NewAggregator(&MockCartReader{Cart: cart}, testCatalog())

	_, err := agg.GroupCart(context.Background(), "buyer-1", "cart-1")

	var notPurchasable *ItemNotPurchasableError
	require.ErrorAs(t, err, &notPurchasable)
	assert.Equal(t, "deleted", notPurchasable.ProductID)
}

func TestGroupCart_SellerNotPayoutReady(t *testing.T) {
	cart := cartWith("buyer-1",
		domain.CartItem{ProductID: "p1", Quantity: 1},
		domain.CartItem{ProductID: "p5", Quantity: 1},
	)
	agg := NewAggregator(&MockCartReader{Cart: cart}, testCatalog())

	_, err := agg.GroupCart(context.Background(), "buyer-1", "cart-1")

	var notReady *SellerNotPayoutReadyError
	require.ErrorAs(t, err, &notReady)
	assert.Equal(t, "p5", notReady.ProductID)
	assert.Equal(t, "s3", notReady.SellerID)
}
