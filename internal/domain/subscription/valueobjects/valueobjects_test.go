package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Status
// =============================================================================

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to SubscriptionStatus
		allowed  bool
	}{
		{StatusActive, StatusPaused, true},
		{StatusActive, StatusCanceled, true},
		{StatusPaused, StatusActive, true},
		{StatusPaused, StatusCanceled, true},
		{StatusCanceled, StatusActive, false},
		{StatusCanceled, StatusPaused, false},
		{StatusActive, StatusFailed, false},
		{StatusPaused, StatusFailed, false},
		{StatusFailed, StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, StatusCanceled.IsTerminal())
	assert.False(t, StatusPaused.IsTerminal())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("paused")
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, s)
	assert.Equal(t, "Paused", s.Display())

	_, err = ParseStatus("expired")
	assert.Error(t, err)
}

// =============================================================================
// Frequency
// =============================================================================

func TestFrequencyIntervals(t *testing.T) {
	assert.Equal(t, int64(86400), FrequencyDaily.IntervalSeconds())
	assert.Equal(t, int64(604800), FrequencyWeekly.IntervalSeconds())
	assert.Equal(t, int64(2592000), FrequencyMonthly.IntervalSeconds())
	assert.Equal(t, int64(7776000), FrequencyQuarterly.IntervalSeconds())
	assert.Equal(t, int64(31536000), FrequencyYearly.IntervalSeconds())
	assert.Zero(t, Frequency("hourly").IntervalSeconds())
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, f)
	assert.True(t, f.IsValid())

	_, err = ParseFrequency("")
	assert.Error(t, err)
	_, err = ParseFrequency("fortnightly")
	assert.Error(t, err)
}

// =============================================================================
// PaymentMethod
// =============================================================================

func TestPaymentMethod(t *testing.T) {
	native := NativePayment()
	assert.False(t, native.IsToken())
	assert.Equal(t, "native", native.String())

	token, err := TokenPayment("usdc.token")
	require.NoError(t, err)
	assert.True(t, token.IsToken())
	assert.Equal(t, "usdc.token", token.TokenID())
	assert.Equal(t, "fungible_token(usdc.token)", token.String())

	_, err = TokenPayment("  ")
	assert.Error(t, err)
	_, err = NewPaymentMethod("card", "")
	assert.Error(t, err)
}

func TestPaymentMethod_JSON(t *testing.T) {
	token, err := TokenPayment("usdc.token")
	require.NoError(t, err)

	data, err := json.Marshal(token)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"fungible_token","token_id":"usdc.token"}`, string(data))

	var decoded PaymentMethod
	require.NoError(t, json.Unmarshal([]byte(`{"type":"native"}`), &decoded))
	assert.Equal(t, NativePayment(), decoded)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"fungible_token"}`), &decoded))
}

func TestPaymentMethod_ZeroValueRoundTrip(t *testing.T) {
	type holder struct {
		Method PaymentMethod `json:"payment_method"`
	}

	data, err := json.Marshal(holder{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"payment_method":null}`, string(data))

	var decoded holder
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Method.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"payment_method":{"type":""}}`), &decoded))
}

// =============================================================================
// Amount
// =============================================================================

func TestParseAmount(t *testing.T) {
	max := "340282366920938463463374607431768211455"

	a, err := ParseAmount(max)
	require.NoError(t, err)
	assert.Equal(t, max, a.String())

	_, err = ParseAmount("340282366920938463463374607431768211456")
	assert.Error(t, err)
	_, err = ParseAmount("-1")
	assert.Error(t, err)
	_, err = ParseAmount("1e3")
	assert.Error(t, err)
}

func TestAmount_ZeroValue(t *testing.T) {
	var a Amount
	assert.True(t, a.IsZero())
	assert.Equal(t, "0", a.String())
	assert.True(t, a.Equal(NewAmount(0)))
	assert.Equal(t, -1, a.Cmp(NewAmount(1)))
}

func TestAmount_JSONAcceptsStringAndNumber(t *testing.T) {
	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"1000000000000000000000000"`), &a))
	assert.Equal(t, "1000000000000000000000000", a.String())

	require.NoError(t, json.Unmarshal([]byte(`250`), &a))
	assert.Equal(t, "250", a.String())

	data, err := json.Marshal(NewAmount(100))
	require.NoError(t, err)
	assert.Equal(t, `"100"`, string(data))
}

func TestAmount_BigIntIsCopy(t *testing.T) {
	a := NewAmount(5)
	b := a.BigInt()
	b.SetInt64(99)
	assert.Equal(t, "5", a.String())
}

func TestAmount_ScanValue(t *testing.T) {
	v, err := NewAmount(42).Value()
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	var a Amount
	require.NoError(t, a.Scan([]byte("17")))
	assert.Equal(t, "17", a.String())
	require.NoError(t, a.Scan(int64(3)))
	assert.Equal(t, "3", a.String())
	assert.Error(t, a.Scan(3.5))
}

func TestParseScheduleAnchor(t *testing.T) {
	a, err := ParseScheduleAnchor("")
	require.NoError(t, err)
	assert.Equal(t, AnchorProcessingTime, a)

	a, err = ParseScheduleAnchor("previous_due_date")
	require.NoError(t, err)
	assert.Equal(t, AnchorPreviousDueDate, a)

	_, err = ParseScheduleAnchor("calendar")
	assert.Error(t, err)
}
