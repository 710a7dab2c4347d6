package cartstore

import (
	"context"
	"errors"

	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository is the persistent side of the cart store. The checkout path
// only ever reads a cart and, on full success, deletes it; item mutation
// endpoints live in the storefront service.
type CartRepository interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	DeleteCart(ctx context.Context, cartID string) error
}
