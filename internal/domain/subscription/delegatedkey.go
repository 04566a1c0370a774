package subscription

import (
	"fmt"
	"strings"
)

// DelegatedKey authorizes the holder of a public key to trigger payments for
// exactly one subscription. A key never grants lifecycle control.
type DelegatedKey struct {
	publicKey      string
	subscriptionID string
	registeredBy   string
	registeredAt   int64
}

func NewDelegatedKey(publicKey, subscriptionID, registeredBy string, now int64) (*DelegatedKey, error) {
	if strings.TrimSpace(publicKey) == "" {
		return nil, fmt.Errorf("public key is required")
	}
	if strings.TrimSpace(subscriptionID) == "" {
		return nil, fmt.Errorf("subscription ID is required")
	}
	return &DelegatedKey{
		publicKey:      publicKey,
		subscriptionID: subscriptionID,
		registeredBy:   registeredBy,
		registeredAt:   now,
	}, nil
}

func ReconstructDelegatedKey(publicKey, subscriptionID, registeredBy string, registeredAt int64) *DelegatedKey {
	return &DelegatedKey{
		publicKey:      publicKey,
		subscriptionID: subscriptionID,
		registeredBy:   registeredBy,
		registeredAt:   registeredAt,
	}
}

func (k *DelegatedKey) PublicKey() string {
	return k.publicKey
}

func (k *DelegatedKey) SubscriptionID() string {
	return k.subscriptionID
}

func (k *DelegatedKey) RegisteredBy() string {
	return k.registeredBy
}

func (k *DelegatedKey) RegisteredAt() int64 {
	return k.registeredAt
}

// Authorizes reports whether the key is bound to subscriptionID.
func (k *DelegatedKey) Authorizes(subscriptionID string) bool {
	return k != nil && k.subscriptionID == subscriptionID
}
