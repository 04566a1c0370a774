// Package repotest holds behaviour checks shared by every repository backend.
package repotest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/autopay/internal/domain/merchant"
	"github.com/orris-inc/autopay/internal/domain/subscription"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/domain/worker"
	"github.com/orris-inc/autopay/internal/shared/db"
)

// Repos is one backend's set of repositories plus its transaction runner.
type Repos struct {
	Workers       worker.Repository
	Codehashes    worker.CodehashRepository
	Merchants     merchant.Repository
	Subscriptions subscription.SubscriptionRepository
	Keys          subscription.KeyRepository
	Runner        db.TransactionRunner
}

// Factory returns fresh, empty repositories for each call.
type Factory func(t *testing.T) Repos

// NewSubscription builds an active daily subscription created at now.
func NewSubscription(t *testing.T, id, user, merchantID string, now int64) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.NewSubscription(subscription.NewSubscriptionParams{
		ID:            id,
		UserID:        user,
		MerchantID:    merchantID,
		Amount:        vo.NewAmount(100),
		Frequency:     vo.FrequencyDaily,
		PaymentMethod: vo.NativePayment(),
		Now:           now,
	})
	require.NoError(t, err)
	return sub
}

// Run exercises the shared repository behaviour against factory.
func Run(t *testing.T, factory Factory) {
	t.Run("worker upsert overwrites", func(t *testing.T) {
		r := factory(t)
		ctx := context.Background()

		missing, err := r.Workers.GetByPrincipal(ctx, "w1")
		require.NoError(t, err)
		assert.Nil(t, missing)

		w, err := worker.NewWorker("w1", "sum-a", "code-a", 10)
		require.NoError(t, err)
		require.NoError(t, r.Workers.Upsert(ctx, w))

		w.Reattest("sum-b", "code-b", 20)
		require.NoError(t, r.Workers.Upsert(ctx, w))

		got, err := r.Workers.GetByPrincipal(ctx, "w1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "code-b", got.Codehash())
		assert.Equal(t, "sum-b", got.Checksum())
		assert.Equal(t, int64(10), got.RegisteredAt())
		assert.Equal(t, int64(20), got.UpdatedAt())
	})

	t.Run("codehash approval is idempotent", func(t *testing.T) {
		r := factory(t)
		ctx := context.Background()

		ok, err := r.Codehashes.IsApproved(ctx, "code-a")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, r.Codehashes.Approve(ctx, "code-a"))
		require.NoError(t, r.Codehashes.Approve(ctx, "code-a"))

		ok, err = r.Codehashes.IsApproved(ctx, "code-a")
		require.NoError(t, err)
		assert.True(t, ok)

		list, err := r.Codehashes.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"code-a"}, list)
	})

	t.Run("merchants keep registration order", func(t *testing.T) {
		r := factory(t)
		ctx := context.Background()

		require.NoError(t, r.Merchants.Add(ctx, "zeta", 1))
		require.NoError(t, r.Merchants.Add(ctx, "alpha", 2))
		require.NoError(t, r.Merchants.Add(ctx, "zeta", 3))

		ok, err := r.Merchants.Exists(ctx, "alpha")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.Merchants.Exists(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, ok)

		list, err := r.Merchants.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"zeta", "alpha"}, list)
	})

	t.Run("sequence is monotonic", func(t *testing.T) {
		r := factory(t)
		ctx := context.Background()

		first, err := r.Subscriptions.NextSequence(ctx)
		require.NoError(t, err)
		second, err := r.Subscriptions.NextSequence(ctx)
		require.NoError(t, err)
		assert.Equal(t, first+1, second)
	})

	t.Run("subscription create get update", func(t *testing.T) {
		r := factory(t)
		ctx := context.Background()

		missing, err := r.Subscriptions.GetByID(ctx, "sub-none")
		require.NoError(t, err)
		assert.Nil(t, missing)

		sub := NewSubscription(t, "sub-alice-100-1", "alice", "shop", 100)
		require.NoError(t, r.Subscriptions.Create(ctx, sub))

		require.NoError(t, sub.Pause(150))
		require.NoError(t, r.Subscriptions.Update(ctx, sub))

		got, err := r.Subscriptions.GetByID(ctx, sub.ID())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, vo.StatusPaused, got.Status())
		assert.Equal(t, int64(150), got.UpdatedAt())
		assert.Equal(t, "100", got.Amount().String())

		ghost := NewSubscription(t, "sub-ghost-1-1", "ghost", "shop", 1)
		assert.ErrorIs(t, r.Subscriptions.Update(ctx, ghost), subscription.ErrSubscriptionNotFound)
	})

	t.Run("list by party", func(t *testing.T) {
		r := factory(t)
		ctx := context.Background()

		for i, p := range [][2]string{{"alice", "shop"}, {"bob", "shop"}, {"alice", "cafe"}} {
			sub := NewSubscription(t, fmt.Sprintf("sub-%s-1-%d", p[0], i), p[0], p[1], 1)
			require.NoError(t, r.Subscriptions.Create(ctx, sub))
		}

		byAlice, err := r.Subscriptions.ListByUser(ctx, "alice")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"sub-alice-1-0", "sub-alice-1-2"}, ids(byAlice))

		byShop, err := r.Subscriptions.ListByMerchant(ctx, "shop")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"sub-alice-1-0", "sub-bob-1-1"}, ids(byShop))

		none, err := r.Subscriptions.ListByUser(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("due scan keeps storage order and limit", func(t *testing.T) {
		r := factory(t)
		ctx := context.Background()

		// Created later but due earlier; storage order must still win.
		late := NewSubscription(t, "sub-a-500-1", "a", "shop", 500)
		early := NewSubscription(t, "sub-b-100-2", "b", "shop", 100)
		paused := NewSubscription(t, "sub-c-100-3", "c", "shop", 100)
		notDue := NewSubscription(t, "sub-d-900000-4", "d", "shop", 900_000)
		require.NoError(t, paused.Pause(100))

		for _, s := range []*subscription.Subscription{late, early, paused, notDue} {
			require.NoError(t, r.Subscriptions.Create(ctx, s))
		}

		now := int64(500 + 86_400)
		due, err := r.Subscriptions.ListDue(ctx, now, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"sub-a-500-1", "sub-b-100-2"}, ids(due))

		first, err := r.Subscriptions.ListDue(ctx, now, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"sub-a-500-1"}, ids(first))
	})

	t.Run("delegated key upsert rebinds", func(t *testing.T) {
		r := factory(t)
		ctx := context.Background()

		missing, err := r.Keys.Resolve(ctx, "pk")
		require.NoError(t, err)
		assert.Nil(t, missing)

		k1, err := subscription.NewDelegatedKey("pk", "sub-1", "alice", 1)
		require.NoError(t, err)
		require.NoError(t, r.Keys.Upsert(ctx, k1))

		k2, err := subscription.NewDelegatedKey("pk", "sub-2", "alice", 2)
		require.NoError(t, err)
		require.NoError(t, r.Keys.Upsert(ctx, k2))

		got, err := r.Keys.Resolve(ctx, "pk")
		require.NoError(t, err)
		assert.True(t, got.Authorizes("sub-2"))
		assert.False(t, got.Authorizes("sub-1"))
	})

	t.Run("rollback discards writes", func(t *testing.T) {
		r := factory(t)
		ctx := context.Background()

		boom := fmt.Errorf("boom")
		err := r.Runner.RunInTransaction(ctx, func(ctx context.Context) error {
			require.NoError(t, r.Merchants.Add(ctx, "temp", 1))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		ok, err := r.Merchants.Exists(ctx, "temp")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func ids(subs []*subscription.Subscription) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.ID())
	}
	return out
}
