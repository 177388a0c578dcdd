package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"learnhub-service/internal/app"
	"learnhub-service/internal/domain"
)

// HTTPGateway charges through a JSON payment API.
//
//	POST {base}/charges  ->  {"status":"approved|declined","transaction_id":"...","message":"..."}
//
// 2xx and 402 responses carry a decision; anything else is treated as the
// gateway being unavailable.
type HTTPGateway struct {
	client *resty.Client
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPGateway{client: client}
}

type chargeBody struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

type chargeResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

func (g *HTTPGateway) Charge(ctx context.Context, req app.PaymentRequest) (app.PaymentResult, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", req.IdempotencyKey).
		SetBody(chargeBody{
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
			Description: req.Description,
			Metadata:    map[string]string{"user_id": fmt.Sprint(req.UserID)},
		}).
		Post("/charges")
	if err != nil {
		return app.PaymentResult{}, fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
	}
	if !resp.IsSuccess() && resp.StatusCode() != http.StatusPaymentRequired {
		return app.PaymentResult{}, fmt.Errorf("%w: status %d", domain.ErrPaymentUnavailable, resp.StatusCode())
	}

	var body chargeResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return app.PaymentResult{}, fmt.Errorf("%w: decode response: %v", domain.ErrPaymentUnavailable, err)
	}
	switch body.Status {
	case "approved", "succeeded":
		return app.PaymentResult{Approved: true, TransactionID: body.TransactionID, Message: body.Message}, nil
	case "declined", "failed":
		return app.PaymentResult{Approved: false, TransactionID: body.TransactionID, Message: body.Message}, nil
	default:
		return app.PaymentResult{}, fmt.Errorf("%w: unknown status %q", domain.ErrPaymentUnavailable, body.Status)
	}
}

// SandboxGateway answers every charge with a fixed decision. It stands in for a
// gateway in development and tests.
type SandboxGateway struct {
	approve bool
}

// NewSandboxGateway accepts "approve" or "decline".
func NewSandboxGateway(result string) *SandboxGateway {
	return &SandboxGateway{approve: result != "decline"}
}

func (g *SandboxGateway) Charge(ctx context.Context, req app.PaymentRequest) (app.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return app.PaymentResult{}, fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
	}
	if !g.approve {
		return app.PaymentResult{Message: "sandbox decline"}, nil
	}
	return app.PaymentResult{Approved: true, TransactionID: "sandbox_" + uuid.NewString()}, nil
}
