package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Client talks to the processor's payment-intent REST API. Each charge is
// confirmed immediately and off-session, with the platform fee withheld and
// the rest routed to the seller's connected account. Calls are bounded by the
// http client timeout and shielded by a circuit breaker; there is no retry
// and no idempotency key, so a repeated checkout charges again.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*GatewayResult]
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[*GatewayResult](settings),
	}
}

func (c *Client) ChargeSellerLeg(ctx context.Context, req *ChargeRequest) (*GatewayResult, error) {
	return c.breaker.Execute(func() (*GatewayResult, error) {
		return c.charge(ctx, req)
	})
}

func (c *Client) charge(ctx context.Context, req *ChargeRequest) (*GatewayResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	form.Set("currency", req.Currency)
	form.Set("payment_method", req.PaymentMethodRef)
	form.Set("confirm", "true")
	form.Set("off_session", "true")
	form.Set("application_fee_amount", strconv.FormatInt(req.PlatformFeeCents, 10))
	form.Set("transfer_data[destination]", req.PayoutAccountRef)
	form.Set("metadata[order_id]", req.Metadata.OrderID)
	form.Set("metadata[buyer_id]", req.Metadata.BuyerID)
	form.Set("metadata[seller_id]", req.Metadata.SellerID)
	form.Set("metadata[cart_id]", req.Metadata.CartID)
	form.Set("metadata[order_type]", req.Metadata.OrderType)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build charge request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	var body intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return mapIntent(&body), nil
	case resp.StatusCode == http.StatusPaymentRequired:
		// Card declines come back as payment errors, not transport errors.
		return &GatewayResult{
			ExternalTransactionID: body.errorIntentID(),
			Status:                StatusFailed,
			DeclineReason:         body.errorMessage(),
		}, nil
	default:
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, body.errorMessage())
	}
}

type intentResponse struct {
	ID               string        `json:"id"`
	Status           string        `json:"status"`
	LastPaymentError *paymentError `json:"last_payment_error"`
	Error            *apiError     `json:"error"`
}

type paymentError struct {
	Message string `json:"message"`
}

type apiError struct {
	Message     string `json:"message"`
	Code        string `json:"code"`
	DeclineCode string `json:"decline_code"`
	PaymentIntent *struct {
		ID string `json:"id"`
	} `json:"payment_intent"`
}

func (r *intentResponse) errorMessage() string {
	if r.Error != nil {
		if r.Error.DeclineCode != "" {
			return r.Error.DeclineCode
		}
		if r.Error.Message != "" {
			return r.Error.Message
		}
	}
	if r.LastPaymentError != nil {
		return r.LastPaymentError.Message
	}
	return "payment failed"
}

func (r *intentResponse) errorIntentID() string {
	if r.Error != nil && r.Error.PaymentIntent != nil {
		return r.Error.PaymentIntent.ID
	}
	return r.ID
}

func mapIntent(body *intentResponse) *GatewayResult {
	result := &GatewayResult{ExternalTransactionID: body.ID}

	switch body.Status {
	case "succeeded":
		result.Status = StatusSucceeded
	case "requires_action", "requires_confirmation":
		result.Status = StatusRequiresAction
		result.DeclineReason = "payment requires additional buyer action"
	default:
		result.Status = StatusFailed
		result.DeclineReason = body.errorMessage()
	}

	return result
}
