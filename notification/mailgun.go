// Package notification sends order confirmation mail. Delivery is
// best-effort: the order is already paid when a mail goes out, so failures
// are logged and never surfaced.
package notification

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Mail struct {
	From    string
	To      string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

type MailgunClient struct {
	apiKey  string
	domain  string
	sender  string
	baseURL string
	client  *http.Client
}

func NewMailgunClient(apiKey, domain, sender string, timeout time.Duration) *MailgunClient {
	return &MailgunClient{
		apiKey:  apiKey,
		domain:  domain,
		sender:  sender,
		baseURL: "https://api.mailgun.net",
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *MailgunClient) Send(ctx context.Context, mail Mail) error {
	from := mail.From
	if from == "" {
		from = c.sender
	}

	form := url.Values{}
	form.Set("from", from)
	form.Set("to", mail.To)
	form.Set("subject", mail.Subject)
	form.Set("text", mail.Text)

	endpoint := c.baseURL + "/v3/" + c.domain + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.SetBasicAuth("api", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("mail rejected with status %d", resp.StatusCode)
	}
	return nil
}
