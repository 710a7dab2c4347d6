package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
)

// GetProducts loads the catalog rows for the given ids. Missing ids are
// simply absent from the map; the aggregator treats them as unpurchasable.
func (r *Repository) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price_cents, status, seller_id
		FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Status, &p.SellerID); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("product iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) GetSellers(ctx context.Context, ids []string) (map[string]domain.Seller, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, display_name, payout_account_id, payouts_enabled
		FROM sellers WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query sellers: %w", err)
	}
	defer rows.Close()

	sellers := make(map[string]domain.Seller, len(ids))
	for rows.Next() {
		var s domain.Seller
		if err := rows.Scan(&s.ID, &s.DisplayName, &s.PayoutAccountID, &s.PayoutsEnabled); err != nil {
			return nil, fmt.Errorf("scan seller row: %w", err)
		}
		sellers[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("seller iteration error: %w", err)
	}

	return sellers, nil
}
