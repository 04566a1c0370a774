// Package merchant holds the owner-managed set of principals that may
// receive subscription payments.
package merchant

import (
	"context"
	"errors"
)

var ErrMerchantNotRegistered = errors.New("merchant is not registered")

// Repository is the merchant allow-list. Adding an existing merchant is a no-op.
type Repository interface {
	Add(ctx context.Context, principal string, now int64) error
	Exists(ctx context.Context, principal string) (bool, error)
	// List returns merchants in registration order.
	List(ctx context.Context) ([]string, error)
}
