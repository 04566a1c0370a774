// Package agent provides a Go SDK for workers talking to the autopay API.
package agent

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// RegisterWorkerRequest carries the attestation a worker presents on start.
type RegisterWorkerRequest struct {
	Quote       json.RawMessage `json:"quote"`
	TrustAnchor string          `json:"trust_anchor"`
	Checksum    string          `json:"checksum"`
	Codehash    string          `json:"codehash"`
}

// PaymentMethod is either native or a fungible token identified by TokenID.
type PaymentMethod struct {
	Type    string `json:"type"`
	TokenID string `json:"token_id,omitempty"`
}

// Subscription is a due subscription as listed by the server. Amount is a
// decimal string because it may not fit in 64 bits.
type Subscription struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	MerchantID      string        `json:"merchant_id"`
	Amount          string        `json:"amount"`
	Frequency       string        `json:"frequency"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	MaxPayments     *uint32       `json:"max_payments"`
	EndDate         *int64        `json:"end_date"`
	Status          string        `json:"status"`
	NextPaymentDate int64         `json:"next_payment_date"`
	PaymentsMade    uint32        `json:"payments_made"`
}

// PaymentResult is the outcome of one payment attempt. A rejected attempt
// is not an error: Success is false and Error explains why.
type PaymentResult struct {
	Success        bool    `json:"success"`
	SubscriptionID string  `json:"subscription_id"`
	Amount         string  `json:"amount"`
	Timestamp      int64   `json:"timestamp"`
	Error          *string `json:"error"`
	Reason         string  `json:"reason,omitempty"`
}

// VersionInfo is the server build reported by /version.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("api error: status=%d type=%s message=%s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// apiResponse represents the standard API response structure.
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
