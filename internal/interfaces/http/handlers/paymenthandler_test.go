package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentUsecases "github.com/orris-inc/autopay/internal/application/payment/usecases"
	subdto "github.com/orris-inc/autopay/internal/application/subscription/dto"
	"github.com/orris-inc/autopay/internal/domain/payment"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/interfaces/http/handlers/testutil"
	"github.com/orris-inc/autopay/internal/shared/constants"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type mockPaymentService struct {
	due        []*subdto.SubscriptionDTO
	result     *payment.Result
	err        error
	lastLimit  int
	lastCaller string
	lastCmd    paymentUsecases.ProcessPaymentCommand
	dueCalls   int
}

func (m *mockPaymentService) GetDueSubscriptions(ctx context.Context, caller string, limit int) ([]*subdto.SubscriptionDTO, error) {
	m.dueCalls++
	m.lastCaller, m.lastLimit = caller, limit
	return m.due, m.err
}

func (m *mockPaymentService) ProcessPayment(ctx context.Context, cmd paymentUsecases.ProcessPaymentCommand) (*payment.Result, error) {
	m.lastCmd = cmd
	return m.result, m.err
}

func TestPaymentHandler_GetDueSubscriptions(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		svc := &mockPaymentService{due: []*subdto.SubscriptionDTO{{ID: "sub-1"}}}
		handler := NewPaymentHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodGet, "/payments/due", nil)
		testutil.SetPrincipal(c, "worker.near")

		handler.GetDueSubscriptions(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, constants.DefaultDueLimit, svc.lastLimit)
		assert.Equal(t, "worker.near", svc.lastCaller)
	})

	t.Run("explicit limit", func(t *testing.T) {
		svc := &mockPaymentService{due: []*subdto.SubscriptionDTO{}}
		handler := NewPaymentHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodGet, "/payments/due", nil)
		testutil.SetPrincipal(c, "worker.near")
		testutil.SetQueryParams(c, map[string]string{"limit": "2"})

		handler.GetDueSubscriptions(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, svc.lastLimit)
	})

	t.Run("bad limit", func(t *testing.T) {
		svc := &mockPaymentService{}
		handler := NewPaymentHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodGet, "/payments/due", nil)
		testutil.SetPrincipal(c, "worker.near")
		testutil.SetQueryParams(c, map[string]string{"limit": "-1"})

		handler.GetDueSubscriptions(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, svc.dueCalls)
	})

	t.Run("limit bounds", func(t *testing.T) {
		svc := &mockPaymentService{due: []*subdto.SubscriptionDTO{}}
		handler := NewPaymentHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodGet, "/payments/due", nil)
		testutil.SetPrincipal(c, "worker.near")
		testutil.SetQueryParams(c, map[string]string{"limit": strconv.Itoa(paymentUsecases.MaxDueLimit)})

		handler.GetDueSubscriptions(c)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, paymentUsecases.MaxDueLimit, svc.lastLimit)

		c, w = testutil.NewTestContext(http.MethodGet, "/payments/due", nil)
		testutil.SetPrincipal(c, "worker.near")
		testutil.SetQueryParams(c, map[string]string{"limit": strconv.Itoa(paymentUsecases.MaxDueLimit + 1)})

		handler.GetDueSubscriptions(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 1, svc.dueCalls)
	})

	t.Run("unapproved worker", func(t *testing.T) {
		svc := &mockPaymentService{err: errors.NewUnauthorizedError("Not an approved worker")}
		handler := NewPaymentHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodGet, "/payments/due", nil)
		testutil.SetPrincipal(c, "rogue.near")

		handler.GetDueSubscriptions(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPaymentHandler_ProcessPayment_Success(t *testing.T) {
	result := payment.Succeeded("sub-1", vo.NewAmount(100), 1_700_000_000)
	svc := &mockPaymentService{result: result}
	handler := NewPaymentHandler(svc, logger.NewNop())

	c, w := testutil.NewTestContext(http.MethodPost, "/payments/sub-1/process", nil)
	testutil.SetPrincipal(c, "worker.near")
	testutil.SetDelegatedKey(c, "ed25519:abcd")
	testutil.SetURLParam(c, "id", "sub-1")

	handler.ProcessPayment(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, paymentUsecases.ProcessPaymentCommand{
		Caller:         "worker.near",
		PublicKey:      "ed25519:abcd",
		SubscriptionID: "sub-1",
	}, svc.lastCmd)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Equal(t, "payment processed", resp.Message)
	var data payment.Result
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, data.Success)
	assert.Equal(t, "100", data.Amount.String())
}

func TestPaymentHandler_ProcessPayment_RejectedIsNotAnHTTPError(t *testing.T) {
	msg := "Payment is not due yet"
	svc := &mockPaymentService{result: &payment.Result{
		SubscriptionID: "sub-1",
		Amount:         vo.NewAmount(0),
		Error:          &msg,
		Reason:         payment.ReasonNotDue,
	}}
	handler := NewPaymentHandler(svc, logger.NewNop())

	c, w := testutil.NewTestContext(http.MethodPost, "/payments/sub-1/process", nil)
	testutil.SetPrincipal(c, "worker.near")
	testutil.SetDelegatedKey(c, "ed25519:abcd")
	testutil.SetURLParam(c, "id", "sub-1")

	handler.ProcessPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Equal(t, "payment rejected", resp.Message)
	var data payment.Result
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.False(t, data.Success)
	require.NotNil(t, data.Error)
	assert.Equal(t, msg, *data.Error)
}

func TestPaymentHandler_ProcessPayment_Failures(t *testing.T) {
	tests := []struct {
		name      string
		delegated bool
		err       error
		wantCode  int
	}{
		{"missing delegated key", false, nil, http.StatusUnauthorized},
		{"unknown subscription", true, errors.NewNotFoundError("Subscription not found"), http.StatusNotFound},
		{"concurrent attempt", true, errors.NewConflictError("payment already in progress"), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPaymentService{err: tt.err}
			handler := NewPaymentHandler(svc, logger.NewNop())
			c, w := testutil.NewTestContext(http.MethodPost, "/payments/sub-1/process", nil)
			testutil.SetPrincipal(c, "worker.near")
			if tt.delegated {
				testutil.SetDelegatedKey(c, "ed25519:abcd")
			}
			testutil.SetURLParam(c, "id", "sub-1")

			handler.ProcessPayment(c)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
