package subscription

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
)

const t0 = int64(1_700_000_000)

// --- helpers ---

func uint32Ptr(v uint32) *uint32 { return &v }
func int64Ptr(v int64) *int64    { return &v }

func newParams() NewSubscriptionParams {
	return NewSubscriptionParams{
		ID:            "sub-alice-1700000000-1",
		UserID:        "alice",
		MerchantID:    "netflix",
		Amount:        vo.NewAmount(100),
		Frequency:     vo.FrequencyDaily,
		PaymentMethod: vo.NativePayment(),
		Now:           t0,
	}
}

func newActiveSubscription(t *testing.T, mutate ...func(*NewSubscriptionParams)) *Subscription {
	t.Helper()
	p := newParams()
	for _, m := range mutate {
		m(&p)
	}
	sub, err := NewSubscription(p)
	require.NoError(t, err)
	return sub
}

// =============================================================================
// Creation
// =============================================================================

func TestNewSubscription(t *testing.T) {
	sub := newActiveSubscription(t)

	assert.Equal(t, "sub-alice-1700000000-1", sub.ID())
	assert.Equal(t, "alice", sub.UserID())
	assert.Equal(t, "netflix", sub.MerchantID())
	assert.Equal(t, "100", sub.Amount().String())
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, t0+86400, sub.NextPaymentDate())
	assert.Zero(t, sub.PaymentsMade())
	assert.Equal(t, t0, sub.CreatedAt())
	assert.Equal(t, t0, sub.UpdatedAt())
	assert.Nil(t, sub.MaxPayments())
	assert.Nil(t, sub.EndDate())
}

func TestNewSubscription_NextPaymentPerFrequency(t *testing.T) {
	for f, interval := range vo.FrequencyIntervals {
		t.Run(string(f), func(t *testing.T) {
			sub := newActiveSubscription(t, func(p *NewSubscriptionParams) { p.Frequency = f })
			assert.Equal(t, t0+interval, sub.NextPaymentDate())
		})
	}
}

func TestNewSubscription_RejectsInvalidTerms(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NewSubscriptionParams)
	}{
		{"zero amount", func(p *NewSubscriptionParams) { p.Amount = vo.NewAmount(0) }},
		{"unknown frequency", func(p *NewSubscriptionParams) { p.Frequency = "hourly" }},
		{"missing payment method", func(p *NewSubscriptionParams) { p.PaymentMethod = vo.PaymentMethod{} }},
		{"zero max payments", func(p *NewSubscriptionParams) { p.MaxPayments = uint32Ptr(0) }},
		{"end date in the past", func(p *NewSubscriptionParams) { p.EndDate = int64Ptr(t0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParams()
			tt.mutate(&p)
			_, err := NewSubscription(p)
			assert.ErrorIs(t, err, ErrInvalidTerms)
		})
	}

	p := newParams()
	p.UserID = ""
	_, err := NewSubscription(p)
	assert.Error(t, err)
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestPauseResumeCancel(t *testing.T) {
	sub := newActiveSubscription(t)

	require.NoError(t, sub.Pause(t0+10))
	assert.Equal(t, vo.StatusPaused, sub.Status())
	assert.Equal(t, t0+10, sub.UpdatedAt())

	require.NoError(t, sub.Resume(t0+20))
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, t0+20, sub.UpdatedAt())

	require.NoError(t, sub.Cancel(t0+30))
	assert.Equal(t, vo.StatusCanceled, sub.Status())
	assert.Equal(t, t0+30, sub.UpdatedAt())
}

func TestResume_RequiresPaused(t *testing.T) {
	sub := newActiveSubscription(t)

	err := sub.Resume(t0 + 1)

	assert.ErrorIs(t, err, ErrNotPaused)
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, t0, sub.UpdatedAt())
}

func TestCanceledIsTerminal(t *testing.T) {
	sub := newActiveSubscription(t)
	require.NoError(t, sub.Cancel(t0+1))

	assert.ErrorIs(t, sub.Pause(t0+2), ErrInvalidStatusTransition)
	assert.ErrorIs(t, sub.Resume(t0+2), ErrNotPaused)
	assert.ErrorIs(t, sub.Cancel(t0+2), ErrInvalidStatusTransition)
	assert.Equal(t, vo.StatusCanceled, sub.Status())
	assert.Equal(t, t0+1, sub.UpdatedAt())
}

func TestPause_RequiresActive(t *testing.T) {
	sub := newActiveSubscription(t)
	require.NoError(t, sub.Pause(t0+1))

	assert.ErrorIs(t, sub.Pause(t0+2), ErrInvalidStatusTransition)
}

// =============================================================================
// Payment schedule
// =============================================================================

func TestIsDue(t *testing.T) {
	sub := newActiveSubscription(t)

	assert.False(t, sub.IsDue(t0+86399))
	assert.True(t, sub.IsDue(t0+86400))

	require.NoError(t, sub.Pause(t0+1))
	assert.False(t, sub.IsDue(t0+86400))
}

func TestRecordPayment_ProcessingTimeAnchor(t *testing.T) {
	sub := newActiveSubscription(t)
	late := t0 + 86400 + 3600

	require.NoError(t, sub.RecordPayment(late, vo.AnchorProcessingTime))

	assert.Equal(t, uint32(1), sub.PaymentsMade())
	assert.Equal(t, late+86400, sub.NextPaymentDate())
	assert.Equal(t, late, sub.UpdatedAt())
	assert.Equal(t, vo.StatusActive, sub.Status())
}

func TestRecordPayment_PreviousDueDateAnchor(t *testing.T) {
	sub := newActiveSubscription(t)
	late := t0 + 86400 + 3600

	require.NoError(t, sub.RecordPayment(late, vo.AnchorPreviousDueDate))

	assert.Equal(t, t0+2*86400, sub.NextPaymentDate())
}

func TestRecordPayment_CancelsWhenCapReached(t *testing.T) {
	sub := newActiveSubscription(t, func(p *NewSubscriptionParams) { p.MaxPayments = uint32Ptr(2) })

	first := t0 + 86400
	require.NoError(t, sub.RecordPayment(first, vo.AnchorProcessingTime))
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.False(t, sub.LimitReached())

	second := first + 86400
	require.NoError(t, sub.RecordPayment(second, vo.AnchorProcessingTime))
	assert.Equal(t, uint32(2), sub.PaymentsMade())
	assert.Equal(t, vo.StatusCanceled, sub.Status())
	assert.True(t, sub.LimitReached())
}

func TestRecordPayment_RequiresDue(t *testing.T) {
	sub := newActiveSubscription(t)

	err := sub.RecordPayment(t0+1, vo.AnchorProcessingTime)

	assert.True(t, errors.Is(err, ErrNotDue))
	assert.Zero(t, sub.PaymentsMade())
}

func TestEndDateReached(t *testing.T) {
	sub := newActiveSubscription(t, func(p *NewSubscriptionParams) { p.EndDate = int64Ptr(t0 + 100) })

	assert.False(t, sub.EndDateReached(t0+99))
	assert.True(t, sub.EndDateReached(t0+100))

	sub.Exhaust(t0 + 100)
	assert.Equal(t, vo.StatusCanceled, sub.Status())
}

func TestReconstructSubscription_ValidatesStatus(t *testing.T) {
	_, err := ReconstructSubscription(ReconstructParams{ID: "sub-x", Status: "expired", Frequency: vo.FrequencyDaily})
	assert.Error(t, err)

	sub, err := ReconstructSubscription(ReconstructParams{
		ID:              "sub-x",
		UserID:          "bob",
		Status:          vo.StatusFailed,
		Frequency:       vo.FrequencyYearly,
		NextPaymentDate: 5,
		PaymentsMade:    3,
	})
	require.NoError(t, err)
	assert.Equal(t, vo.StatusFailed, sub.Status())
	assert.Equal(t, uint32(3), sub.PaymentsMade())
	assert.True(t, sub.IsOwnedBy("bob"))
	assert.False(t, sub.IsOwnedBy("mallory"))
}

// =============================================================================
// Delegated keys and events
// =============================================================================

func TestDelegatedKey(t *testing.T) {
	key, err := NewDelegatedKey("ed25519:abc", "sub-1", "alice", t0)
	require.NoError(t, err)

	assert.True(t, key.Authorizes("sub-1"))
	assert.False(t, key.Authorizes("sub-2"))

	var missing *DelegatedKey
	assert.False(t, missing.Authorizes("sub-1"))

	_, err = NewDelegatedKey("", "sub-1", "alice", t0)
	assert.Error(t, err)
}

func TestEvents(t *testing.T) {
	sub := newActiveSubscription(t)
	at := time.Unix(t0, 0).UTC()

	changed := NewSubscriptionChangedEvent(EventSubscriptionCreated, sub, at)
	assert.Equal(t, sub.ID(), changed.GetAggregateID())
	assert.Equal(t, "active", changed.Status)

	key := ReconstructDelegatedKey("pk", sub.ID(), "alice", t0)
	registered := NewKeyRegisteredEvent(key, at)
	assert.Equal(t, EventKeyRegistered, registered.GetEventType())
	assert.Equal(t, "pk", registered.PublicKey)
}
