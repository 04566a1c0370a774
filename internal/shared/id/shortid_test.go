package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	a, err := Generate(0)
	require.NoError(t, err)
	assert.Len(t, a, DefaultLength)

	b, err := Generate(20)
	require.NoError(t, err)
	assert.Len(t, b, 20)
	for _, r := range b {
		assert.True(t, strings.ContainsRune(alphabet, r))
	}
}

func TestPrefixedIDs(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewEventID(), "evt_"))
	assert.True(t, strings.HasPrefix(NewTransferID(), "trf_"))
	assert.NotEqual(t, NewEventID(), NewEventID())
}

func TestFormatSubscriptionID(t *testing.T) {
	assert.Equal(t, "sub-alice.near-1700000000-7", FormatSubscriptionID("alice.near", 1700000000, 7))
	assert.NotEqual(t,
		FormatSubscriptionID("alice", 1700000000, 1),
		FormatSubscriptionID("alice", 1700000000, 2),
	)
}

func TestSubscriptionPayer(t *testing.T) {
	payer, err := SubscriptionPayer(FormatSubscriptionID("team-billing-bot", 1700000000, 3))
	require.NoError(t, err)
	assert.Equal(t, "team-billing-bot", payer)

	for _, bad := range []string{"", "sub-", "plan-alice-1-2", "sub-1"} {
		_, err := SubscriptionPayer(bad)
		assert.Error(t, err, bad)
	}
}
