// Package payment captures charges through an external gateway. The order
// flow only depends on the Gateway interface; the Stripe client is the
// production implementation.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Gateway charges a payment source for an amount in minor currency units.
// A timeout counts as a capture failure.
type Gateway interface {
	Charge(ctx context.Context, source string, amountCents int64, description string) error
}

const defaultCurrency = "eur"

type StripeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewStripeClient(apiKey string, timeout time.Duration) *StripeClient {
	return &StripeClient{
		apiKey:  apiKey,
		baseURL: "https://api.stripe.com",
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *StripeClient) Charge(ctx context.Context, source string, amountCents int64, description string) error {
	if amountCents <= 0 {
		return fmt.Errorf("charge amount must be positive, got %d", amountCents)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", defaultCurrency)
	form.Set("description", description)
	form.Set("source", source)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build charge request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("charge request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read charge response: %w", err)
	}

	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		return fmt.Errorf("charge rejected: %s", parsed.Error.Message)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("charge failed with status %d", resp.StatusCode)
	}
	return nil
}
