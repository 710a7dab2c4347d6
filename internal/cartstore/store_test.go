package cartstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
)

type MockCartRepository struct {
	Cart       *domain.Cart
	GetErr     error
	DeleteErr  error
	GetCalls   int
	DeleteDone bool
}

func (m *MockCartRepository) GetCart(_ context.Context, _ string) (*domain.Cart, error) {
	m.GetCalls++
	return m.Cart, m.GetErr
}

func (m *MockCartRepository) DeleteCart(_ context.Context, _ string) error {
	if m.DeleteErr == nil {
		m.DeleteDone = true
	}
	return m.DeleteErr
}

type MockCartCache struct {
	Cart    *domain.Cart
	GetErr  error
	Deleted chan string
}

func (m *MockCartCache) Get(_ context.Context, _ string) (*domain.Cart, error) {
	if m.Cart != nil {
		return m.Cart, nil
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return nil, ErrCacheMiss
}

func (m *MockCartCache) Set(_ context.Context, _ string, _ *domain.Cart) error {
	return nil
}

func (m *MockCartCache) Delete(_ context.Context, cartID string) error {
	if m.Deleted != nil {
		m.Deleted <- cartID
	}
	return nil
}

func TestStore_GetCart_CacheHit(t *testing.T) {
	cached := &domain.Cart{ID: "cart-1", UserID: "buyer-1"}
	repo := &MockCartRepository{}
	store := NewStore(repo, &MockCartCache{Cart: cached})

	cart, err := store.GetCart(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, cached, cart)
	assert.Zero(t, repo.GetCalls, "cache hit must not touch the repository")
}

func TestStore_GetCart_CacheMissFallsBack(t *testing.T) {
	stored := &domain.Cart{ID: "cart-1", UserID: "buyer-1"}
	repo := &MockCartRepository{Cart: stored}
	store := NewStore(repo, &MockCartCache{})

	cart, err := store.GetCart(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, stored, cart)
	assert.Equal(t, 1, repo.GetCalls)
}

func TestStore_GetCart_CacheErrorIsNotFatal(t *testing.T) {
	stored := &domain.Cart{ID: "cart-1", UserID: "buyer-1"}
	repo := &MockCartRepository{Cart: stored}
	store := NewStore(repo, &MockCartCache{GetErr: errors.New("redis down")})

	cart, err := store.GetCart(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, stored, cart)
}

func TestStore_GetCart_NotFound(t *testing.T) {
	repo := &MockCartRepository{GetErr: ErrCartNotFound}
	store := NewStore(repo, &MockCartCache{})

	_, err := store.GetCart(context.Background(), "cart-1")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestStore_DeleteCart_InvalidatesCache(t *testing.T) {
	repo := &MockCartRepository{}
	cache := &MockCartCache{Deleted: make(chan string, 1)}
	store := NewStore(repo, cache)

	require.NoError(t, store.DeleteCart(context.Background(), "cart-1"))
	assert.True(t, repo.DeleteDone)

	select {
	case id := <-cache.Deleted:
		assert.Equal(t, "cart-1", id)
	case <-time.After(time.Second):
		t.Fatal("cache was not invalidated")
	}
}

func TestStore_DeleteCart_RepoErrorKeepsCache(t *testing.T) {
	repo := &MockCartRepository{DeleteErr: errors.New("mongo down")}
	cache := &MockCartCache{Deleted: make(chan string, 1)}
	store := NewStore(repo, cache)

	err := store.DeleteCart(context.Background(), "cart-1")
	require.Error(t, err)
	assert.Empty(t, cache.Deleted)
}
