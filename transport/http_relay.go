package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/coregx/toolcast/model"
)

// DefaultTimeout bounds a single delivery request.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response body is kept in the error.
const maxErrorBody = 512

// RelayPayload is the JSON body posted to the relay for one recipient.
type RelayPayload struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// HTTPRelay delivers messages by POSTing them to an HTTP relay endpoint.
// Any 2xx response counts as delivered. There are no retries; the request
// timeout is the only time limit applied to a delivery.
//
// HTTPRelay is safe for concurrent use.
type HTTPRelay struct {
	endpoint   string
	from       string
	token      string
	httpClient *http.Client
}

// HTTPOption configures an HTTPRelay.
type HTTPOption func(*HTTPRelay) error

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(r *HTTPRelay) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be > 0, got %v", timeout)
		}
		r.httpClient.Timeout = timeout
		return nil
	}
}

// WithSender sets the From address passed to the relay.
func WithSender(from string) HTTPOption {
	return func(r *HTTPRelay) error {
		r.from = from
		return nil
	}
}

// WithBearerToken authenticates requests with an Authorization header.
func WithBearerToken(token string) HTTPOption {
	return func(r *HTTPRelay) error {
		r.token = token
		return nil
	}
}

// WithHTTPClient replaces the underlying client. Its Timeout is kept as is.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(r *HTTPRelay) error {
		if client == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		r.httpClient = client
		return nil
	}
}

// NewHTTPRelay creates a relay transport for endpoint.
func NewHTTPRelay(endpoint string, opts ...HTTPOption) (*HTTPRelay, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid relay endpoint %q", endpoint)
	}

	r := &HTTPRelay{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Deliver posts message for address to the relay.
func (r *HTTPRelay) Deliver(ctx context.Context, address string, message *model.Message) error {
	if message == nil {
		return fmt.Errorf("message is nil")
	}

	body, err := json.Marshal(RelayPayload{
		To:      address,
		From:    r.from,
		Subject: message.Subject,
		Text:    message.TextBody,
		HTML:    message.HTMLBody,
	})
	if err != nil {
		return fmt.Errorf("marshal relay payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send relay request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("relay rejected delivery: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
