package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPTransportConfig contains configuration options for the HTTP
// transport.
type HTTPTransportConfig struct {
	// RequestTimeout bounds a single Call round-trip. Ignored when a
	// custom HTTPClient is provided.
	RequestTimeout time.Duration

	// HTTPClient overrides the underlying client, e.g. to configure
	// proxies or TLS. Optional.
	HTTPClient *http.Client
}

// DefaultHTTPTransportConfig provides sensible defaults for HTTP
// connections.
var DefaultHTTPTransportConfig = HTTPTransportConfig{
	RequestTimeout: 10 * time.Second,
}

// HTTPTransport implements Transport over plain HTTP POST requests.
// It is request/response only: it cannot receive server push messages,
// so subscription operations are unavailable over it.
type HTTPTransport struct {
	url        string
	httpClient *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates an HTTP transport for the node at url.
func NewHTTPTransport(url string, cfg HTTPTransportConfig) *HTTPTransport {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &HTTPTransport{
		url:        url,
		httpClient: httpClient,
	}
}

// Call POSTs the request envelope and decodes the response envelope.
func (t *HTTPTransport) Call(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshalingRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSendingRequest, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpRes, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSendingRequest, err)
	}
	defer httpRes.Body.Close()

	if httpRes.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, httpRes.Status)
	}

	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadingMessage, err)
	}

	var res Response
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadingMessage, err)
	}
	return &res, nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}
