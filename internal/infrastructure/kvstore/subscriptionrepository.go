package kvstore

import (
	"context"
	"errors"
	"fmt"

	bolt "github.com/boltdb/bolt"

	"github.com/orris-inc/autopay/internal/domain/subscription"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
)

// SubscriptionRepository stores subscriptions keyed by id plus an order
// bucket keyed by insertion sequence, which every scan walks.
type SubscriptionRepository struct {
	store  *Store
	mapper mappers.SubscriptionMapper
}

func NewSubscriptionRepository(store *Store) subscription.SubscriptionRepository {
	return &SubscriptionRepository{store: store, mapper: mappers.NewSubscriptionMapper()}
}

func (r *SubscriptionRepository) NextSequence(ctx context.Context) (uint64, error) {
	var next uint64
	err := r.store.update(ctx, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		next = btoi(b.Get(keySubscriptionCounter)) + 1
		return b.Put(keySubscriptionCounter, itob(next))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment subscription counter: %w", err)
	}
	return next, nil
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	err = r.store.update(ctx, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSubscriptions)
		if b.Get([]byte(model.SID)) != nil {
			return fmt.Errorf("subscription %s already exists", model.SID)
		}

		order := tx.Bucket(bucketSubscriptionOrder)
		seq, err := order.NextSequence()
		if err != nil {
			return err
		}
		model.ID = uint(seq)
		if err := order.Put(itob(seq), []byte(model.SID)); err != nil {
			return err
		}
		return putJSON(b, []byte(model.SID), model)
	})
	if err != nil {
		r.store.logger.Errorw("failed to create subscription", "subscription_id", sub.ID(), "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	err = r.store.update(ctx, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSubscriptions)

		var stored models.SubscriptionModel
		found, err := getJSON(b, []byte(model.SID), &stored)
		if err != nil {
			return err
		}
		if !found {
			return subscription.ErrSubscriptionNotFound
		}
		model.ID = stored.ID
		return putJSON(b, []byte(model.SID), model)
	})
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return err
		}
		r.store.logger.Errorw("failed to update subscription", "subscription_id", sub.ID(), "error", err)
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	var (
		model models.SubscriptionModel
		found bool
	)
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		var err error
		found, err = getJSON(tx.Bucket(bucketSubscriptions), []byte(id), &model)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if !found {
		return nil, nil
	}
	return r.mapper.ToEntity(&model)
}

func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	return r.scan(ctx, 0, func(m *models.SubscriptionModel) bool {
		return m.UserID == userID
	})
}

func (r *SubscriptionRepository) ListByMerchant(ctx context.Context, merchantID string) ([]*subscription.Subscription, error) {
	return r.scan(ctx, 0, func(m *models.SubscriptionModel) bool {
		return m.MerchantID == merchantID
	})
}

func (r *SubscriptionRepository) ListDue(ctx context.Context, now int64, limit int) ([]*subscription.Subscription, error) {
	if limit <= 0 {
		return []*subscription.Subscription{}, nil
	}
	return r.scan(ctx, limit, func(m *models.SubscriptionModel) bool {
		return m.Status == vo.StatusActive.String() && m.NextPaymentDate <= now
	})
}

// scan walks subscriptions in insertion order and keeps those matching
// keep, stopping after limit matches when limit > 0.
func (r *SubscriptionRepository) scan(ctx context.Context, limit int, keep func(*models.SubscriptionModel) bool) ([]*subscription.Subscription, error) {
	var rows []*models.SubscriptionModel

	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		subs := tx.Bucket(bucketSubscriptions)
		err := tx.Bucket(bucketSubscriptionOrder).ForEach(func(_, sid []byte) error {
			var m models.SubscriptionModel
			found, err := getJSON(subs, sid, &m)
			if err != nil || !found {
				return err
			}
			if keep(&m) {
				rows = append(rows, &m)
				if limit > 0 && len(rows) >= limit {
					return errStop
				}
			}
			return nil
		})
		if errors.Is(err, errStop) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscriptions: %w", err)
	}

	entities, err := r.mapper.ToEntities(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to map subscriptions: %w", err)
	}
	if entities == nil {
		entities = []*subscription.Subscription{}
	}
	return entities, nil
}
