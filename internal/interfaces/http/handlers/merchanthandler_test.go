package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subdto "github.com/orris-inc/autopay/internal/application/subscription/dto"
	"github.com/orris-inc/autopay/internal/interfaces/http/handlers/testutil"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type mockMerchantService struct {
	merchants  []string
	subs       []*subdto.SubscriptionDTO
	err        error
	lastCaller string
	lastName   string
}

func (m *mockMerchantService) RegisterMerchant(ctx context.Context, caller, principal string) error {
	m.lastCaller, m.lastName = caller, principal
	return m.err
}

func (m *mockMerchantService) ListMerchants(ctx context.Context) ([]string, error) {
	return m.merchants, m.err
}

func (m *mockMerchantService) ListMerchantSubscriptions(ctx context.Context, merchantID string) ([]*subdto.SubscriptionDTO, error) {
	return m.subs, m.err
}

func TestMerchantHandler_RegisterMerchant(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		svc := &mockMerchantService{}
		handler := NewMerchantHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodPost, "/admin/merchants", RegisterMerchantRequest{Principal: "shop.near"})
		testutil.SetPrincipal(c, "owner.near")

		handler.RegisterMerchant(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "owner.near", svc.lastCaller)
		assert.Equal(t, "shop.near", svc.lastName)
	})

	t.Run("not owner", func(t *testing.T) {
		svc := &mockMerchantService{err: errors.NewUnauthorizedError("Only the owner can register merchants")}
		handler := NewMerchantHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodPost, "/admin/merchants", RegisterMerchantRequest{Principal: "shop.near"})
		testutil.SetPrincipal(c, "alice")

		handler.RegisterMerchant(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("empty principal", func(t *testing.T) {
		svc := &mockMerchantService{}
		handler := NewMerchantHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodPost, "/admin/merchants", RegisterMerchantRequest{})
		testutil.SetPrincipal(c, "owner.near")

		handler.RegisterMerchant(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.lastName)
	})
}

func TestMerchantHandler_ListMerchants(t *testing.T) {
	t.Run("registration order", func(t *testing.T) {
		handler := NewMerchantHandler(&mockMerchantService{merchants: []string{"b", "a"}}, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodGet, "/merchants", nil)

		handler.ListMerchants(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.JSONEq(t, `["b","a"]`, string(resp.Data))
	})

	t.Run("none", func(t *testing.T) {
		handler := NewMerchantHandler(&mockMerchantService{}, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodGet, "/merchants", nil)

		handler.ListMerchants(c)

		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Equal(t, "[]", string(resp.Data))
	})
}

func TestMerchantHandler_ListMerchantSubscriptions(t *testing.T) {
	svc := &mockMerchantService{subs: []*subdto.SubscriptionDTO{{ID: "sub-1", MerchantID: "shop.near"}}}
	handler := NewMerchantHandler(svc, logger.NewNop())
	c, w := testutil.NewTestContext(http.MethodGet, "/merchants/shop.near/subscriptions", nil)
	testutil.SetURLParam(c, "principal", "shop.near")

	handler.ListMerchantSubscriptions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Contains(t, string(resp.Data), `"merchant_id":"shop.near"`)
}
