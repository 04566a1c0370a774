package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/autopay/internal/infrastructure/persistence/repotest"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "autopay.bolt"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltRepositories(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repotest.Repos {
		s := newTestStore(t)
		return repotest.Repos{
			Workers:       NewWorkerRepository(s),
			Codehashes:    NewCodehashRepository(s, biztime.NewManualClock(1_700_000_000)),
			Merchants:     NewMerchantRepository(s),
			Subscriptions: NewSubscriptionRepository(s),
			Keys:          NewKeyRepository(s),
			Runner:        s,
		}
	})
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autopay.bolt")

	s, err := Open(path, logger.NewNop())
	require.NoError(t, err)
	repo := NewSubscriptionRepository(s)
	sub := repotest.NewSubscription(t, "sub-alice-1-1", "alice", "shop", 1)
	require.NoError(t, repo.Create(t.Context(), sub))
	require.NoError(t, s.Close())

	s, err = Open(path, logger.NewNop())
	require.NoError(t, err)
	defer s.Close()

	got, err := NewSubscriptionRepository(s).GetByID(t.Context(), "sub-alice-1-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.UserID())

	seq, err := NewSubscriptionRepository(s).NextSequence(t.Context())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
}

func TestItob(t *testing.T) {
	assert.Equal(t, uint64(42), btoi(itob(42)))
	assert.Equal(t, uint64(0), btoi(nil))
}
