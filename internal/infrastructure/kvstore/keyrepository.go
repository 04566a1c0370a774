package kvstore

import (
	"context"
	"fmt"

	bolt "github.com/boltdb/bolt"

	"github.com/orris-inc/autopay/internal/domain/subscription"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
)

type KeyRepository struct {
	store  *Store
	mapper mappers.DelegatedKeyMapper
}

func NewKeyRepository(store *Store) subscription.KeyRepository {
	return &KeyRepository{store: store, mapper: mappers.NewDelegatedKeyMapper()}
}

func (r *KeyRepository) Upsert(ctx context.Context, key *subscription.DelegatedKey) error {
	err := r.store.update(ctx, func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketDelegatedKeys), []byte(key.PublicKey()), r.mapper.ToModel(key))
	})
	if err != nil {
		return fmt.Errorf("failed to upsert delegated key: %w", err)
	}
	return nil
}

func (r *KeyRepository) Resolve(ctx context.Context, publicKey string) (*subscription.DelegatedKey, error) {
	var (
		model models.DelegatedKeyModel
		found bool
	)
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		var err error
		found, err = getJSON(tx.Bucket(bucketDelegatedKeys), []byte(publicKey), &model)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve delegated key: %w", err)
	}
	if !found {
		return nil, nil
	}
	return r.mapper.ToEntity(&model), nil
}
