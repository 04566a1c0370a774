package kvstore

import (
	"context"
	"fmt"

	bolt "github.com/boltdb/bolt"

	"github.com/orris-inc/autopay/internal/domain/worker"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/autopay/internal/shared/biztime"
)

type WorkerRepository struct {
	store  *Store
	mapper mappers.WorkerMapper
}

func NewWorkerRepository(store *Store) worker.Repository {
	return &WorkerRepository{store: store, mapper: mappers.NewWorkerMapper()}
}

func (r *WorkerRepository) Upsert(ctx context.Context, w *worker.Worker) error {
	err := r.store.update(ctx, func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketWorkers), []byte(w.Principal()), r.mapper.ToModel(w))
	})
	if err != nil {
		r.store.logger.Errorw("failed to upsert worker", "principal", w.Principal(), "error", err)
		return fmt.Errorf("failed to upsert worker: %w", err)
	}
	return nil
}

func (r *WorkerRepository) GetByPrincipal(ctx context.Context, principal string) (*worker.Worker, error) {
	var (
		model models.WorkerModel
		found bool
	)
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		var err error
		found, err = getJSON(tx.Bucket(bucketWorkers), []byte(principal), &model)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	if !found {
		return nil, nil
	}
	return r.mapper.ToEntity(&model), nil
}

type CodehashRepository struct {
	store *Store
	clock biztime.Clock
}

func NewCodehashRepository(store *Store, clock biztime.Clock) worker.CodehashRepository {
	return &CodehashRepository{store: store, clock: clock}
}

func (r *CodehashRepository) Approve(ctx context.Context, codehash string) error {
	return r.store.update(ctx, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCodehashes)
		if b.Get([]byte(codehash)) != nil {
			return nil
		}
		return putJSON(b, []byte(codehash), models.ApprovedCodehashModel{
			Codehash:   codehash,
			ApprovedAt: biztime.Unix(r.clock),
		})
	})
}

func (r *CodehashRepository) IsApproved(ctx context.Context, codehash string) (bool, error) {
	var ok bool
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		ok = tx.Bucket(bucketCodehashes).Get([]byte(codehash)) != nil
		return nil
	})
	return ok, err
}

// List returns codehashes in key order.
func (r *CodehashRepository) List(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.store.view(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCodehashes).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}
