// Package aggregator reads a buyer's cart and partitions it into per-seller
// groups, validating every line before any order or gateway call exists.
package aggregator

import (
	"context"
	"errors"
	"fmt"

	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
)

var (
	ErrEmptyCart    = errors.New("cart is empty, nothing to checkout")
	ErrCartNotOwned = errors.New("cart does not belong to the requesting buyer")
)

// ItemNotPurchasableError names the offending cart line so the caller can
// surface it without creating any partial state.
type ItemNotPurchasableError struct {
	ProductID string
}

func (e *ItemNotPurchasableError) Error() string {
	return fmt.Sprintf("product %s is not purchasable", e.ProductID)
}

type SellerNotPayoutReadyError struct {
	ProductID string
	SellerID  string
}

func (e *SellerNotPayoutReadyError) Error() string {
	return fmt.Sprintf("seller %s of product %s has no usable payout account", e.SellerID, e.ProductID)
}

type CartReader interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
}

// Catalog resolves cart lines against the product and seller read model.
type Catalog interface {
	GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error)
	GetSellers(ctx context.Context, ids []string) (map[string]domain.Seller, error)
}

type Aggregator struct {
	carts   CartReader
	catalog Catalog
}

func NewAggregator(carts CartReader, catalog Catalog) *Aggregator {
	return &Aggregator{carts: carts, catalog: catalog}
}

// GroupCart partitions the cart by seller. Items are assigned to the
// first-seen group for their seller id, so the result order follows cart
// order. The groups cover every cart item exactly once.
func (a *Aggregator) GroupCart(ctx context.Context, buyerID, cartID string) ([]domain.SellerGroup, error) {
	cart, err := a.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart.UserID != buyerID {
		return nil, ErrCartNotOwned
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	productIDs := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := a.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve products: %w", err)
	}

	sellerIDs := make([]string, 0, len(products))
	seen := make(map[string]bool, len(products))
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok || !product.Purchasable() {
			return nil, &ItemNotPurchasableError{ProductID: item.ProductID}
		}
		if !seen[product.SellerID] {
			seen[product.SellerID] = true
			sellerIDs = append(sellerIDs, product.SellerID)
		}
	}

	sellers, err := a.catalog.GetSellers(ctx, sellerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sellers: %w", err)
	}

	groups := make([]domain.SellerGroup, 0, len(sellerIDs))
	groupIndex := make(map[string]int, len(sellerIDs))

	for _, item := range cart.Items {
		product := products[item.ProductID]
		seller, ok := sellers[product.SellerID]
		if !ok || !seller.PayoutReady() {
			return nil, &SellerNotPayoutReadyError{ProductID: item.ProductID, SellerID: product.SellerID}
		}

		idx, exists := groupIndex[seller.ID]
		if !exists {
			idx = len(groups)
			groupIndex[seller.ID] = idx
			groups = append(groups, domain.SellerGroup{Seller: seller})
		}

		groups[idx].Items = append(groups[idx].Items, domain.GroupItem{
			Product:       product,
			Quantity:      item.Quantity,
			SubtotalCents: product.PriceCents * int64(item.Quantity),
		})
	}

	return groups, nil
}
