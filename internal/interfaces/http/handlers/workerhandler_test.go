package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workerdto "github.com/orris-inc/autopay/internal/application/worker/dto"
	workerUsecases "github.com/orris-inc/autopay/internal/application/worker/usecases"
	"github.com/orris-inc/autopay/internal/interfaces/http/handlers/testutil"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// =====================================================================
// Mock services
// =====================================================================

type mockWorkerService struct {
	registered  bool
	worker      *workerdto.WorkerDTO
	approved    bool
	err         error
	lastCmd     workerUsecases.RegisterWorkerCommand
	lastCaller  string
	lastHash    string
	verifyCalls int
}

func (m *mockWorkerService) RegisterWorker(ctx context.Context, cmd workerUsecases.RegisterWorkerCommand) (bool, error) {
	m.lastCmd = cmd
	return m.registered, m.err
}

func (m *mockWorkerService) GetWorker(ctx context.Context, principal string) (*workerdto.WorkerDTO, error) {
	return m.worker, m.err
}

func (m *mockWorkerService) IsApprovedCaller(ctx context.Context, principal string) (bool, error) {
	return m.approved, m.err
}

func (m *mockWorkerService) VerifyWorkerCodehash(ctx context.Context, principal, codehash string) error {
	m.verifyCalls++
	m.lastCaller, m.lastHash = principal, codehash
	return m.err
}

func (m *mockWorkerService) ApproveCodehash(ctx context.Context, caller, codehash string) error {
	m.lastCaller, m.lastHash = caller, codehash
	return m.err
}

func validRegisterRequest() map[string]interface{} {
	return map[string]interface{}{
		"quote":        map[string]interface{}{"checksum": "c1", "codehash": "h1", "issued_at": 1, "signature": "00"},
		"trust_anchor": "ed25519:00",
		"checksum":     "c1",
		"codehash":     "h1",
	}
}

// =====================================================================
// RegisterWorker
// =====================================================================

func TestWorkerHandler_RegisterWorker_Success(t *testing.T) {
	svc := &mockWorkerService{registered: true}
	handler := NewWorkerHandler(svc, logger.NewNop())

	c, w := testutil.NewTestContext(http.MethodPost, "/workers/register", validRegisterRequest())
	testutil.SetPrincipal(c, "worker.near")

	handler.RegisterWorker(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)

	var data RegisterWorkerResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, data.Registered)

	assert.Equal(t, "worker.near", svc.lastCmd.Principal)
	assert.Equal(t, "h1", svc.lastCmd.Codehash)
	assert.JSONEq(t, `{"checksum":"c1","codehash":"h1","issued_at":1,"signature":"00"}`, string(svc.lastCmd.Quote))
}

func TestWorkerHandler_RegisterWorker_QuoteAsString(t *testing.T) {
	svc := &mockWorkerService{registered: true}
	handler := NewWorkerHandler(svc, logger.NewNop())

	body := validRegisterRequest()
	body["quote"] = `{"checksum":"c1"}`
	c, w := testutil.NewTestContext(http.MethodPost, "/workers/register", body)
	testutil.SetPrincipal(c, "worker.near")

	handler.RegisterWorker(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"checksum":"c1"}`, string(svc.lastCmd.Quote))
}

func TestWorkerHandler_RegisterWorker_Rejected(t *testing.T) {
	handler := NewWorkerHandler(&mockWorkerService{registered: false}, logger.NewNop())

	c, w := testutil.NewTestContext(http.MethodPost, "/workers/register", validRegisterRequest())
	testutil.SetPrincipal(c, "worker.near")

	handler.RegisterWorker(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Equal(t, "attestation rejected", resp.Message)
	assert.JSONEq(t, `{"registered":false}`, string(resp.Data))
}

func TestWorkerHandler_RegisterWorker_Unauthenticated(t *testing.T) {
	handler := NewWorkerHandler(&mockWorkerService{}, logger.NewNop())

	c, w := testutil.NewTestContext(http.MethodPost, "/workers/register", validRegisterRequest())

	handler.RegisterWorker(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWorkerHandler_RegisterWorker_MissingFields(t *testing.T) {
	handler := NewWorkerHandler(&mockWorkerService{}, logger.NewNop())

	c, w := testutil.NewTestContext(http.MethodPost, "/workers/register", map[string]string{"checksum": "c1"})
	testutil.SetPrincipal(c, "worker.near")

	handler.RegisterWorker(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation_error", resp.Error.Type)
	assert.Contains(t, resp.Error.Details, "quote")
}

// =====================================================================
// GetWorker / self checks / approvals
// =====================================================================

func TestWorkerHandler_GetWorker_NotFound(t *testing.T) {
	svc := &mockWorkerService{err: errors.NewNotFoundError("Worker not found for ghost.near")}
	handler := NewWorkerHandler(svc, logger.NewNop())

	c, w := testutil.NewTestContext(http.MethodGet, "/workers/ghost.near", nil)
	testutil.SetURLParam(c, "principal", "ghost.near")

	handler.GetWorker(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkerHandler_GetWorker_Success(t *testing.T) {
	svc := &mockWorkerService{worker: &workerdto.WorkerDTO{Principal: "worker.near", Codehash: "h1"}}
	handler := NewWorkerHandler(svc, logger.NewNop())

	c, w := testutil.NewTestContext(http.MethodGet, "/workers/worker.near", nil)
	testutil.SetURLParam(c, "principal", "worker.near")

	handler.GetWorker(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data workerdto.WorkerDTO
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "h1", data.Codehash)
}

func TestWorkerHandler_VerifyCodehash(t *testing.T) {
	t.Run("missing codehash", func(t *testing.T) {
		svc := &mockWorkerService{}
		handler := NewWorkerHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodGet, "/workers/me/verify", nil)
		testutil.SetPrincipal(c, "worker.near")

		handler.VerifyCodehash(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, svc.verifyCalls)
	})

	t.Run("mismatch", func(t *testing.T) {
		svc := &mockWorkerService{err: errors.NewUnauthorizedError("codehash mismatch")}
		handler := NewWorkerHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodGet, "/workers/me/verify", nil)
		testutil.SetPrincipal(c, "worker.near")
		testutil.SetQueryParams(c, map[string]string{"codehash": "other"})

		handler.VerifyCodehash(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "other", svc.lastHash)
	})

	t.Run("match", func(t *testing.T) {
		handler := NewWorkerHandler(&mockWorkerService{}, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodGet, "/workers/me/verify", nil)
		testutil.SetPrincipal(c, "worker.near")
		testutil.SetQueryParams(c, map[string]string{"codehash": "h1"})

		handler.VerifyCodehash(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestWorkerHandler_VerifyApproved(t *testing.T) {
	tests := []struct {
		name     string
		svc      *mockWorkerService
		wantCode int
	}{
		{"approved", &mockWorkerService{approved: true}, http.StatusOK},
		{"not approved", &mockWorkerService{approved: false}, http.StatusUnauthorized},
		{"unknown worker", &mockWorkerService{err: errors.NewNotFoundError("Worker not found")}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewWorkerHandler(tt.svc, logger.NewNop())
			c, w := testutil.NewTestContext(http.MethodGet, "/workers/me/approved", nil)
			testutil.SetPrincipal(c, "worker.near")

			handler.VerifyApproved(c)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestWorkerHandler_ApproveCodehash(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		svc := &mockWorkerService{}
		handler := NewWorkerHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodPost, "/admin/codehashes", ApproveCodehashRequest{Codehash: "h1"})
		testutil.SetPrincipal(c, "owner.near")

		handler.ApproveCodehash(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "owner.near", svc.lastCaller)
		assert.Equal(t, "h1", svc.lastHash)
	})

	t.Run("not owner", func(t *testing.T) {
		svc := &mockWorkerService{err: errors.NewUnauthorizedError("Only the owner can approve codehashes")}
		handler := NewWorkerHandler(svc, logger.NewNop())
		c, w := testutil.NewTestContext(http.MethodPost, "/admin/codehashes", ApproveCodehashRequest{Codehash: "h1"})
		testutil.SetPrincipal(c, "mallory.near")

		handler.ApproveCodehash(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
