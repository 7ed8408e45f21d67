package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is the outcome of one transport call that reached the
// subscriber. Network-level failures are reported as errors instead.
type Result struct {
	StatusCode int
	Body       string
}

// Success reports whether the subscriber accepted the delivery.
func (r *Result) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport posts an event payload to a subscriber endpoint.
type Transport interface {
	Post(ctx context.Context, endpointURL string, payload []byte) (*Result, error)
}

// HTTPTransport delivers payloads with an HTTP POST.
type HTTPTransport struct {
	client              *http.Client
	maxResponseBodySize int
}

// NewHTTPTransport creates a transport with the given request timeout
// and response body cap.
func NewHTTPTransport(timeoutSeconds, maxResponseBodySize int) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
		maxResponseBodySize: maxResponseBodySize,
	}
}

func (t *HTTPTransport) Post(ctx context.Context, endpointURL string, payload []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", endpointURL, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpointURL, err)
	}
	defer resp.Body.Close()

	// Body is capped; subscribers can return arbitrarily large junk.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(t.maxResponseBodySize)))
	if err != nil {
		body = nil
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}
