package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
	"github.com/MatheoKatbie/neaply-checkout/internal/repository"
)

// OrderReader is the slice of the ledger the read API needs.
type OrderReader interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderReader
	timeout time.Duration
}

func NewOrdersHandler(orders OrderReader, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrderItemDTO struct {
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	SubtotalCents  int64  `json:"subtotalCents"`
}

type OrderResponseDTO struct {
	ID               string         `json:"id"`
	SellerID         string         `json:"sellerId"`
	TotalCents       int64          `json:"totalCents"`
	PlatformFeeCents int64          `json:"platformFeeCents"`
	NetToSellerCents int64          `json:"netToSellerCents"`
	Currency         string         `json:"currency"`
	Status           string         `json:"status"`
	PaymentIntentID  string         `json:"paymentIntentId"`
	PaidAt           *time.Time     `json:"paidAt,omitempty"`
	Items            []OrderItemDTO `json:"items"`
	CreatedAt        string         `json:"createdAt"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buyerID := getUserIDFromContext(r.Context())
	if buyerID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrdersByBuyer(ctx, buyerID)
	if err != nil {
		log.Printf("list orders failed (request %s): %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, convertOrder(order))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buyerID := getUserIDFromContext(r.Context())
	if buyerID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a valid UUID")
		return
	}

	order, err := h.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		log.Printf("get order failed (request %s): %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	if order.BuyerID != buyerID {
		respondError(w, http.StatusForbidden, "forbidden", "order belongs to another buyer")
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

func convertOrder(order *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			SubtotalCents:  item.SubtotalCents,
		})
	}

	return OrderResponseDTO{
		ID:               order.ID.String(),
		SellerID:         order.SellerID,
		TotalCents:       order.TotalCents,
		PlatformFeeCents: order.PlatformFeeCents,
		NetToSellerCents: order.NetToSellerCents,
		Currency:         order.Currency,
		Status:           order.Status.String(),
		PaymentIntentID:  order.ExternalTxnID,
		PaidAt:           order.PaidAt,
		Items:            items,
		CreatedAt:        order.CreatedAt.Format(time.RFC3339),
	}
}
