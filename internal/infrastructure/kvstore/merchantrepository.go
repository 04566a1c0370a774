package kvstore

import (
	"context"
	"fmt"

	bolt "github.com/boltdb/bolt"

	"github.com/orris-inc/autopay/internal/domain/merchant"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
)

type MerchantRepository struct {
	store *Store
}

func NewMerchantRepository(store *Store) merchant.Repository {
	return &MerchantRepository{store: store}
}

func (r *MerchantRepository) Add(ctx context.Context, principal string, now int64) error {
	err := r.store.update(ctx, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMerchants)
		if b.Get([]byte(principal)) != nil {
			return nil
		}

		order := tx.Bucket(bucketMerchantOrder)
		seq, err := order.NextSequence()
		if err != nil {
			return err
		}
		if err := order.Put(itob(seq), []byte(principal)); err != nil {
			return err
		}
		return putJSON(b, []byte(principal), models.MerchantModel{
			ID:           uint(seq),
			Principal:    principal,
			RegisteredAt: now,
		})
	})
	if err != nil {
		r.store.logger.Errorw("failed to add merchant", "principal", principal, "error", err)
		return fmt.Errorf("failed to add merchant: %w", err)
	}
	return nil
}

func (r *MerchantRepository) Exists(ctx context.Context, principal string) (bool, error) {
	var ok bool
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		ok = tx.Bucket(bucketMerchants).Get([]byte(principal)) != nil
		return nil
	})
	return ok, err
}

func (r *MerchantRepository) List(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMerchantOrder).ForEach(func(_, v []byte) error {
			out = append(out, string(v))
			return nil
		})
	})
	return out, err
}
