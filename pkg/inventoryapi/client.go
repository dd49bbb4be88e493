package inventoryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
)

const (
	defaultTimeout           = 10 * time.Second
	errorBodyReadLimit int64 = 4096
)

var errBaseURLRequired = errors.New("inventory api base url is required")

// RequestObserver receives one sample per backend round trip.
type RequestObserver interface {
	ObserveRequest(endpoint string, status int, duration time.Duration)
}

// API talks to the inventory REST API. Every call is authorized with the
// caller's backend access token; the client itself holds no credentials.
type API struct {
	httpClient *http.Client
	baseURL    string
	observer   RequestObserver
}

// Option configures optional client behavior.
type Option func(*API)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *API) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *API) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithObserver records request latency per endpoint.
func WithObserver(observer RequestObserver) Option {
	return func(c *API) {
		c.observer = observer
	}
}

// NewClient builds the inventory API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*API, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parse inventory api base url: %w", err)
	}

	client := &API{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// APIError is a non-2xx answer from the inventory API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("inventory api status %d: %s", e.Status, e.Message)
}

// AsAPIError extracts the backend answer from err, if any.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

type request struct {
	method   string
	endpoint string
	token    string
	query    url.Values
	body     any

	// payload is sent as-is with contentType instead of JSON-encoding body.
	payload     io.Reader
	contentType string
}

func (c *API) do(ctx context.Context, req request, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "inventory api client not configured")
	}

	target := c.buildURL(req.endpoint)
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	body, contentType := req.payload, req.contentType
	if body == nil && req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+req.endpoint+" request")
		}
		body, contentType = bytes.NewReader(payload), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+req.endpoint+" request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.endpoint, 0, started)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inventory api unreachable")
	}
	defer func() { _ = resp.Body.Close() }()
	c.observe(req.endpoint, resp.StatusCode, started)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp)
		return pkgerrors.Wrap(codeForStatus(apiErr.Status), apiErr, apiErr.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+req.endpoint+" response")
	}
	return nil
}

func (c *API) observe(endpoint string, status int, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveRequest(endpoint, status, time.Since(started))
}

func (c *API) buildURL(endpoint string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(endpoint, "/"))
}

// decodeAPIError reads `{"error": "..."}` bodies, falling back to DRF's
// `{"detail": "..."}` and finally the raw text.
func decodeAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	apiErr := &APIError{Status: resp.StatusCode}

	var shaped struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &shaped); err == nil {
		switch {
		case shaped.Error != "":
			apiErr.Message = shaped.Error
		case shaped.Detail != "":
			apiErr.Message = shaped.Detail
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func codeForStatus(status int) pkgerrors.Code {
	switch {
	case status == http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case status == http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case status == http.StatusConflict:
		return pkgerrors.CodeConflict
	case status == http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case status >= 400 && status < 500:
		// The backend reports domain failures (stock, duplicates, bad credentials) as 400/403.
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}
