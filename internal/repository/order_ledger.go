package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidStateTransition = errors.New("illegal order status transition")
)

// CreatePendingOrder persists the order header and its items in one
// transaction. The commit is the durability boundary: the caller must not
// touch the payment gateway for this leg until this returns nil.
func (r *Repository) CreatePendingOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, seller_id, total_cents, platform_fee_cents, net_to_seller_cents,
		                    currency, status, cart_id, order_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		order.ID,
		order.BuyerID,
		order.SellerID,
		order.TotalCents,
		order.PlatformFeeCents,
		order.NetToSellerCents,
		order.Currency,
		domain.OrderStatusPending,
		order.Metadata.CartID,
		order.Metadata.OrderType,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price_cents, subtotal_cents)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.UnitPriceCents,
			item.SubtotalCents,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pending order: %w", err)
	}

	order.Status = domain.OrderStatusPending
	return nil
}

// UpdateOrderOutcome transitions an order out of pending. The conditional
// UPDATE enforces the state machine: a row already in a terminal state is
// left untouched and the call fails with ErrInvalidStateTransition.
// A paid outcome also enqueues an order_paid outbox event in the same
// transaction so the settlement stream cannot miss a paid order.
func (r *Repository) UpdateOrderOutcome(ctx context.Context, orderID uuid.UUID, externalRef string, newStatus domain.OrderStatus, paidAt *time.Time) error {
	if !domain.CanTransitionTo(domain.OrderStatusPending, newStatus) {
		return ErrInvalidStateTransition
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, external_txn_id = $3, paid_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5`,
		orderID, newStatus, externalRef, paidAt, domain.OrderStatusPending,
	)
	if err != nil {
		return fmt.Errorf("update order outcome: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var current domain.OrderStatus
		err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("query order status: %w", err)
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, current, newStatus)
	}

	if newStatus == domain.OrderStatusPaid {
		if err := insertPaidEvent(ctx, tx, orderID, externalRef, paidAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertPaidEvent(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, externalRef string, paidAt *time.Time) error {
	payload, err := json.Marshal(map[string]interface{}{
		"order_id":        orderID,
		"external_txn_id": externalRef,
		"paid_at":         paidAt,
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_outbox (aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, NOW())`,
		orderID.String(), "order_paid", payload,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, buyer_id, seller_id, total_cents, platform_fee_cents, net_to_seller_cents,
	                 currency, status, external_txn_id, paid_at, cart_id, order_type, created_at, updated_at
	          FROM orders WHERE id = $1`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.BuyerID,
		&order.SellerID,
		&order.TotalCents,
		&order.PlatformFeeCents,
		&order.NetToSellerCents,
		&order.Currency,
		&order.Status,
		&order.ExternalTxnID,
		&order.PaidAt,
		&order.Metadata.CartID,
		&order.Metadata.OrderType,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	order.Metadata.SellerID = order.SellerID

	items, err := r.getOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *Repository) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	query := `SELECT id, buyer_id, seller_id, total_cents, platform_fee_cents, net_to_seller_cents,
	                 currency, status, external_txn_id, paid_at, cart_id, order_type, created_at, updated_at
	          FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, fmt.Errorf("query orders by buyer: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.BuyerID,
			&order.SellerID,
			&order.TotalCents,
			&order.PlatformFeeCents,
			&order.NetToSellerCents,
			&order.Currency,
			&order.Status,
			&order.ExternalTxnID,
			&order.PaidAt,
			&order.Metadata.CartID,
			&order.Metadata.OrderType,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Metadata.SellerID = order.SellerID
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		items, err := r.getOrderItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

func (r *Repository) getOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, unit_price_cents, subtotal_cents
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPriceCents, &item.SubtotalCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order item iteration error: %w", err)
	}

	return items, nil
}
