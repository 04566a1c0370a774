// Package db provides database utilities including transaction management.
package db

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// txKey is the context key for storing transaction.
type txKey struct{}

// TransactionRunner runs fn atomically. Repositories pick the active
// transaction up from the context passed to fn.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactionManager manages database transactions.
type TransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager creates a new TransactionManager.
func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// RunInTransaction executes the given function within a database transaction.
// If the function returns an error, the transaction will be rolled back.
// Nested calls reuse the outer transaction.
func (tm *TransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey{}, tx)
		return fn(txCtx)
	})
}

// GetTxFromContext returns the transaction from context if available.
// This is a standalone function for use in repositories.
func GetTxFromContext(ctx context.Context, defaultDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return defaultDB.WithContext(ctx)
}

// SerialRunner admits one transaction at a time across the process so that
// every operation observes the state left by the previous one.
type SerialRunner struct {
	mu   sync.Mutex
	next TransactionRunner
}

// NewSerialRunner wraps next with a process-wide exclusive lock.
func NewSerialRunner(next TransactionRunner) *SerialRunner {
	return &SerialRunner{next: next}
}

type serialKey struct{}

func (s *SerialRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(serialKey{}) == s {
		return s.next.RunInTransaction(ctx, fn)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.RunInTransaction(context.WithValue(ctx, serialKey{}, s), fn)
}
