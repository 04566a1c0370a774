package agent

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

const apiPrefix = "/api/v1"

// Header names shared with the server.
const (
	HeaderRequestID       = "X-Request-ID"
	HeaderDelegatedKey    = "X-Delegated-Key"
	HeaderDelegatedTime   = "X-Delegated-Timestamp"
	HeaderDelegatedSigned = "X-Delegated-Signature"
)

// Client is the worker API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	initial    time.Duration
	maxBackoff time.Duration
	now        func() time.Time
}

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithRetries sets how many times a request is retried after a network
// error or a 429/5xx response. Zero disables retries.
func WithRetries(n int) Option {
	return func(client *Client) {
		client.maxRetries = n
	}
}

// WithBackoff bounds the exponential delay between retries.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(client *Client) {
		client.initial = initial
		client.maxBackoff = maxDelay
	}
}

// WithClock replaces the clock used for delegated signatures.
func WithClock(now func() time.Time) Option {
	return func(client *Client) {
		client.now = now
	}
}

// NewClient creates a new worker API client.
//
// Parameters:
//   - baseURL: The server root (e.g., "https://autopay.example.com")
//   - token: The worker's bearer token
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		initial:    500 * time.Millisecond,
		maxBackoff: 10 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterWorker presents the attestation. It reports false when the server
// rejected the quote.
func (c *Client) RegisterWorker(ctx context.Context, req RegisterWorkerRequest) (bool, error) {
	var resp struct {
		Registered bool `json:"registered"`
	}
	if err := c.doRequest(ctx, http.MethodPost, apiPrefix+"/workers/register", req, nil, &resp); err != nil {
		return false, fmt.Errorf("register worker: %w", err)
	}
	return resp.Registered, nil
}

// IsApproved reports whether the worker's codehash is currently approved.
func (c *Client) IsApproved(ctx context.Context) (bool, error) {
	err := c.doRequest(ctx, http.MethodGet, apiPrefix+"/workers/me/approved", nil, nil, nil)
	if err == nil {
		return true, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return false, nil
	}
	return false, fmt.Errorf("check approval: %w", err)
}

// DueSubscriptions lists up to limit subscriptions whose payment date has passed.
func (c *Client) DueSubscriptions(ctx context.Context, limit int) ([]Subscription, error) {
	path := apiPrefix + "/payments/due"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var subs []Subscription
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &subs); err != nil {
		return nil, fmt.Errorf("get due subscriptions: %w", err)
	}
	return subs, nil
}

// ProcessPayment asks the server to charge subscriptionID, proving
// possession of the delegated key the payer registered for it.
func (c *Client) ProcessPayment(ctx context.Context, subscriptionID string, key ed25519.PrivateKey) (*PaymentResult, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("process payment: invalid delegated key size %d", len(key))
	}

	path := apiPrefix + "/payments/" + url.PathEscape(subscriptionID) + "/process"
	sign := func(req *http.Request) {
		ts := c.now().Unix()
		payload := SigningPayload(req.Method, req.URL.Path, ts)
		req.Header.Set(HeaderDelegatedKey, FormatPublicKey(key.Public().(ed25519.PublicKey)))
		req.Header.Set(HeaderDelegatedTime, strconv.FormatInt(ts, 10))
		req.Header.Set(HeaderDelegatedSigned, hex.EncodeToString(ed25519.Sign(key, payload)))
	}

	var result PaymentResult
	if err := c.doRequest(ctx, http.MethodPost, path, nil, sign, &result); err != nil {
		return nil, fmt.Errorf("process payment: %w", err)
	}
	return &result, nil
}

// Version returns the server build information.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	var info VersionInfo
	if err := c.doRequest(ctx, http.MethodGet, "/version", nil, nil, &info); err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	return &info, nil
}

// SigningPayload is the message a delegated key signs for one request.
func SigningPayload(method, path string, timestamp int64) []byte {
	return []byte(fmt.Sprintf("%s\n%s\n%d", method, path, timestamp))
}

// FormatPublicKey renders a key the way the server stores it.
func FormatPublicKey(pub ed25519.PublicKey) string {
	return "ed25519:" + hex.EncodeToString(pub)
}

// doRequest sends the request, retrying transient failures with exponential
// backoff. Every attempt is rebuilt so signatures carry a fresh timestamp.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, decorate func(*http.Request), result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = data
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.initial
	expBackoff.MaxInterval = c.maxBackoff
	expBackoff.Reset()

	requestID := uuid.NewString()
	for attempt := 0; ; attempt++ {
		err := c.attempt(ctx, method, path, payload, requestID, decorate, result)
		if err == nil || attempt >= c.maxRetries || !retryable(err) {
			return err
		}

		delay := expBackoff.NextBackOff()
		if delay == backoff.Stop {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, requestID string, decorate func(*http.Request), result any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if decorate != nil {
		decorate(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{op: "send request", err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &transportError{op: "read response", err: err}
	}

	var apiResp apiResponse
	decodeErr := json.Unmarshal(respBody, &apiResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		if decodeErr == nil && apiResp.Error != nil {
			apiErr.Type = apiResp.Error.Type
			apiErr.Message = apiResp.Error.Message
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("unmarshal response: %w", decodeErr)
	}
	if len(apiResp.Data) == 0 || string(apiResp.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(apiResp.Data, result); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return nil
}

// transportError is a failure below HTTP: the server may not have seen the
// request at all.
type transportError struct {
	op  string
	err error
}

func (e *transportError) Error() string { return e.op + ": " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var tErr *transportError
	return errors.As(err, &tErr)
}
