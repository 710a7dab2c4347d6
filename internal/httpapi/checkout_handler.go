package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MatheoKatbie/neaply-checkout/internal/aggregator"
	"github.com/MatheoKatbie/neaply-checkout/internal/cartstore"
	"github.com/MatheoKatbie/neaply-checkout/internal/domain"
	"github.com/MatheoKatbie/neaply-checkout/internal/service"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout service.CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	PaymentMethodRef string `json:"paymentMethodRef"`
	CartID           string `json:"cartId"`
}

type PaymentSuccessDTO struct {
	OrderID         string `json:"orderId"`
	SellerID        string `json:"sellerId"`
	SellerName      string `json:"sellerName"`
	AmountCents     int64  `json:"amountCents"`
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"`
}

type PaymentFailureDTO struct {
	SellerID   string `json:"sellerId"`
	SellerName string `json:"sellerName"`
	Error      string `json:"error"`
}

type CheckoutResponseDTO struct {
	Success            bool                `json:"success"`
	SuccessfulPayments []PaymentSuccessDTO `json:"successfulPayments"`
	FailedPayments     []PaymentFailureDTO `json:"failedPayments"`
	AllSucceeded       bool                `json:"allSucceeded"`
	TotalProcessed     int                 `json:"totalProcessed"`
}

// POST /api/v1/checkout/multi-vendor
func (h *CheckoutHandler) MultiVendorCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buyerID := getUserIDFromContext(r.Context())
	if buyerID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.PaymentMethodRef == "" {
		respondError(w, http.StatusBadRequest, "missing_payment_method", "paymentMethodRef is required")
		return
	}
	if _, err := uuid.Parse(req.CartID); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_cart_id", "cartId must be a valid UUID")
		return
	}

	report, err := h.checkout.ProcessCheckout(ctx, &domain.CheckoutRequest{
		BuyerID:          buyerID,
		PaymentMethodRef: req.PaymentMethodRef,
		CartID:           req.CartID,
	})
	if err != nil {
		handleCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertReport(report))
}

func handleCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var notPurchasable *aggregator.ItemNotPurchasableError
	var notPayoutReady *aggregator.SellerNotPayoutReadyError

	switch {
	case errors.Is(err, aggregator.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, aggregator.ErrCartNotOwned):
		respondError(w, http.StatusForbidden, "forbidden", "cart does not belong to you")
	case errors.Is(err, cartstore.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.As(err, &notPurchasable):
		respondError(w, http.StatusBadRequest, "item_not_purchasable", notPurchasable.Error())
	case errors.As(err, &notPayoutReady):
		respondError(w, http.StatusBadRequest, "seller_not_payout_ready", notPayoutReady.Error())
	default:
		log.Printf("checkout failed (request %s): %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
	}
}

func convertReport(report *domain.CheckoutReport) CheckoutResponseDTO {
	successes := make([]PaymentSuccessDTO, 0, len(report.SuccessfulPayments))
	for _, p := range report.SuccessfulPayments {
		successes = append(successes, PaymentSuccessDTO{
			OrderID:         p.OrderID.String(),
			SellerID:        p.SellerID,
			SellerName:      p.SellerName,
			AmountCents:     p.AmountCents,
			PaymentIntentID: p.ExternalTxnID,
			Status:          p.Status,
		})
	}

	failures := make([]PaymentFailureDTO, 0, len(report.FailedPayments))
	for _, p := range report.FailedPayments {
		failures = append(failures, PaymentFailureDTO{
			SellerID:   p.SellerID,
			SellerName: p.SellerName,
			Error:      p.Error,
		})
	}

	return CheckoutResponseDTO{
		Success:            true,
		SuccessfulPayments: successes,
		FailedPayments:     failures,
		AllSucceeded:       report.AllSucceeded,
		TotalProcessed:     report.TotalProcessed,
	}
}
