package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType     = "Content-Type"
	HeaderAuthorization   = "Authorization"
	HeaderXRequestID      = "X-Request-ID"
	HeaderDelegatedKey    = "X-Delegated-Key"
	HeaderDelegatedTime   = "X-Delegated-Timestamp"
	HeaderDelegatedSigned = "X-Delegated-Signature"
	HeaderRateLimitLimit  = "X-RateLimit-Limit"
	HeaderRateLimitLeft   = "X-RateLimit-Remaining"

	// Content Types
	ContentTypeJSON = "application/json"

	// API version prefix
	APIVersionPrefix = "/api/v1"

	// Context keys
	ContextKeyPrincipal    = "principal"
	ContextKeyDelegatedKey = "delegated_key"
	ContextKeyRequestID    = "request_id"

	// Database table names
	TableWorkers             = "workers"
	TableApprovedCodehashes  = "approved_codehashes"
	TableMerchants           = "merchants"
	TableSubscriptions       = "subscriptions"
	TableDelegatedKeys       = "delegated_keys"
	TableSubscriptionCounter = "subscription_counters"

	// Scheduler defaults
	DefaultDueLimit = 50

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgResourceNotFound    = "Resource not found"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgForbidden           = "Access forbidden"
	ErrMsgValidationFailed    = "Validation failed"
	ErrMsgConflict            = "Resource already exists"
)
