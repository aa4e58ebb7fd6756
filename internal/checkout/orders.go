package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mcheros/storefront/internal/domain"
)

// RejectedError means the order service answered with a non-2xx status. The
// message, when the body carried one, is suitable for showing to the buyer.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("order rejected with status %d: %s", e.Status, e.Message)
}

// OrderClient submits orders to the order service.
type OrderClient struct {
	baseURL string
	http    *http.Client
}

func NewOrderClient(baseURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type orderCreatedDTO struct {
	ID string `json:"id"`
}

type orderErrorDTO struct {
	Detail string `json:"detail"`
}

// Create sends one POST to the order service and returns the assigned order
// id. A non-2xx answer comes back as *RejectedError; anything without a
// response at all comes back as a wrapped transport error.
func (c *OrderClient) Create(ctx context.Context, order domain.OrderRequest, idempotencyKey string) (string, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var dto orderErrorDTO
		_ = json.NewDecoder(resp.Body).Decode(&dto)
		message := dto.Detail
		if message == "" {
			message = genericRejectionMessage
		}
		return "", &RejectedError{Status: resp.StatusCode, Message: message}
	}

	var dto orderCreatedDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil || dto.ID == "" {
		// a 2xx without a usable order id is still a rejection to the buyer
		return "", &RejectedError{Status: resp.StatusCode, Message: genericRejectionMessage}
	}
	return dto.ID, nil
}
