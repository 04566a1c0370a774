package payment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
)

func TestSucceeded(t *testing.T) {
	r := Succeeded("sub-1", vo.NewAmount(100), 42)

	assert.True(t, r.Success)
	assert.Nil(t, r.Error)
	assert.Empty(t, r.ErrorMessage())
	assert.Equal(t, ReasonNone, r.Reason)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"subscription_id":"sub-1","amount":"100","timestamp":42,"error":null}`, string(data))
}

func TestRejected(t *testing.T) {
	r := Rejected("sub-1", vo.NewAmount(0), 42, ReasonUnauthorizedKey, "Key is not authorized for this subscription")

	assert.False(t, r.Success)
	assert.Equal(t, "Key is not authorized for this subscription", r.ErrorMessage())
	assert.Equal(t, ReasonUnauthorizedKey, r.Reason)
	assert.True(t, r.Amount.IsZero())
}

func TestNewPaymentEvent(t *testing.T) {
	at := time.Unix(42, 0).UTC()

	ok := NewPaymentEvent("agent-1", Succeeded("sub-1", vo.NewAmount(5), 42), PaymentParties{UserID: "alice", MerchantID: "shop", PaymentsMade: 1}, at)
	assert.Equal(t, EventPaymentProcessed, ok.GetEventType())
	assert.Equal(t, "5", ok.Amount)
	assert.Equal(t, "sub-1", ok.GetAggregateID())

	rejected := NewPaymentEvent("agent-1", Rejected("sub-1", vo.NewAmount(5), 42, ReasonNotDue, "Payment is not due yet"), PaymentParties{}, at)
	assert.Equal(t, EventPaymentRejected, rejected.GetEventType())
	assert.Equal(t, ReasonNotDue, rejected.Reason)
	assert.Equal(t, "Payment is not due yet", rejected.Message)
}
