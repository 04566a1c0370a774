package subscription

import "context"

// SubscriptionRepository stores subscriptions. Iteration order is insertion
// order; callers must not rely on any other ordering.
type SubscriptionRepository interface {
	// NextSequence returns a store-wide counter used to keep ids unique.
	NextSequence(ctx context.Context) (uint64, error)
	Create(ctx context.Context, sub *Subscription) error
	// Update overwrites the stored subscription with the same id.
	Update(ctx context.Context, sub *Subscription) error
	// GetByID returns nil, nil when no subscription has this id.
	GetByID(ctx context.Context, id string) (*Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]*Subscription, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]*Subscription, error)
	// ListDue scans in insertion order and returns at most limit active
	// subscriptions whose next payment date is <= now.
	ListDue(ctx context.Context, now int64, limit int) ([]*Subscription, error)
}

// KeyRepository is the delegated key authorization map.
type KeyRepository interface {
	// Upsert binds publicKey to subscriptionID, replacing any earlier binding.
	Upsert(ctx context.Context, key *DelegatedKey) error
	// Resolve returns nil, nil for an unknown key.
	Resolve(ctx context.Context, publicKey string) (*DelegatedKey, error)
}
