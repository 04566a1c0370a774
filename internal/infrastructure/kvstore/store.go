// Package kvstore keeps the ledger in a single BoltDB file. It is the
// embedded alternative to the relational repositories and implements the
// same domain repository interfaces.
package kvstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/orris-inc/autopay/internal/shared/db"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

var (
	bucketWorkers           = []byte("workers")
	bucketCodehashes        = []byte("approved_codehashes")
	bucketMerchants         = []byte("merchants")
	bucketMerchantOrder     = []byte("merchant_order")
	bucketSubscriptions     = []byte("subscriptions")
	bucketSubscriptionOrder = []byte("subscription_order")
	bucketDelegatedKeys     = []byte("delegated_keys")
	bucketMeta              = []byte("meta")

	keySubscriptionCounter = []byte("subscription_counter")
)

var allBuckets = [][]byte{
	bucketWorkers,
	bucketCodehashes,
	bucketMerchants,
	bucketMerchantOrder,
	bucketSubscriptions,
	bucketSubscriptionOrder,
	bucketDelegatedKeys,
	bucketMeta,
}

var _ db.TransactionRunner = (*Store)(nil)

// Store wraps a BoltDB database.
type Store struct {
	db     *bolt.DB
	logger logger.Interface
}

// Open opens (or creates) the database file at path and ensures every bucket exists.
func Open(path string, log logger.Interface) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create bolt directory: %w", err)
		}
	}

	boltDB, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = boltDB.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		boltDB.Close()
		return nil, err
	}

	log.Infow("bolt store opened", "path", path)
	return &Store{db: boltDB, logger: log}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

type txKey struct{}

// RunInTransaction runs fn inside one read-write bolt transaction. Nested
// calls reuse the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*bolt.Tx); ok {
		return fn(ctx)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// update runs fn in the context transaction or in a fresh read-write one.
func (s *Store) update(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if tx, ok := ctx.Value(txKey{}).(*bolt.Tx); ok {
		return fn(tx)
	}
	return s.db.Update(fn)
}

// view runs fn in the context transaction or in a fresh read-only one.
func (s *Store) view(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if tx, ok := ctx.Value(txKey{}).(*bolt.Tx); ok {
		return fn(tx)
	}
	return s.db.View(fn)
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

var errStop = errors.New("stop iteration")

func getJSON(b *bolt.Bucket, key []byte, out interface{}) (bool, error) {
	v := b.Get(key)
	if v == nil {
		return false, nil
	}
	if err := json.Unmarshal(v, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func putJSON(b *bolt.Bucket, key []byte, in interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return b.Put(key, data)
}
