package cartstore

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
)

// Store is a read-through cached view of the cart repository. Reads go
// cache first; a clear removes the document and invalidates the cache.
type Store struct {
	repo  CartRepository
	cache CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewStore(repo CartRepository, cache CartCache) *Store {
	return &Store{
		repo:  repo,
		cache: cache,
	}
}

func (s *Store) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, cartID)
		if err == nil {
			return cart, nil
		}

		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, cartID)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(setCtx, cartID, cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *Store) DeleteCart(ctx context.Context, cartID string) error {
	if err := s.repo.DeleteCart(ctx, cartID); err != nil {
		return err
	}

	s.invalidateCache(cartID)
	return nil
}

func (s *Store) invalidateCache(cartID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, cartID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
