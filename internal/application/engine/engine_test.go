package engine_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	stderrors "errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orris-inc/autopay/internal/application/engine"
	paymentUsecases "github.com/orris-inc/autopay/internal/application/payment/usecases"
	subscriptionUsecases "github.com/orris-inc/autopay/internal/application/subscription/usecases"
	workerUsecases "github.com/orris-inc/autopay/internal/application/worker/usecases"
	"github.com/orris-inc/autopay/internal/domain/payment"
	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/domain/subscription"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/domain/worker"
	"github.com/orris-inc/autopay/internal/infrastructure/attestation"
	"github.com/orris-inc/autopay/internal/infrastructure/kvstore"
	infraPayment "github.com/orris-inc/autopay/internal/infrastructure/payment"
	"github.com/orris-inc/autopay/internal/infrastructure/permission"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/autopay/internal/infrastructure/repository"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/db"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

const (
	start = int64(1_700_000_000)
	day   = int64(24 * 60 * 60)

	owner    = "owner.near"
	agent    = "agent.near"
	shop     = "shop.near"
	alice    = "alice.near"
	codehash = "h1"
)

// recordingPublisher keeps every published event type in order.
type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(e events.DomainEvent) error {
	return p.PublishAll([]events.DomainEvent{e})
}

func (p *recordingPublisher) PublishAll(evts []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range evts {
		p.types = append(p.types, e.GetEventType())
	}
	return nil
}

func (p *recordingPublisher) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

type failingExecutor struct{}

func (failingExecutor) Transfer(context.Context, string, vo.Amount) error {
	return stderrors.New("payee account does not exist")
}

func (failingExecutor) TokenTransfer(context.Context, string, string, vo.Amount, string) error {
	return stderrors.New("payee account does not exist")
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string) (func(), error) {
	return nil, engine.ErrLockHeld
}

type harness struct {
	t         *testing.T
	engine    *engine.Engine
	clock     *biztime.ManualClock
	events    *recordingPublisher
	anchorPub ed25519.PublicKey
	anchorKey ed25519.PrivateKey
}

type option func(*engine.Deps)

func withAnchor(anchor vo.ScheduleAnchor) option {
	return func(d *engine.Deps) { d.Anchor = anchor }
}

func withExecutor(executor payment.TransferExecutor) option {
	return func(d *engine.Deps) { d.Executor = executor }
}

func withLocker(locker engine.Locker) option {
	return func(d *engine.Deps) { d.Locker = locker }
}

func boltDeps(t *testing.T, clock biztime.Clock, log logger.Interface) engine.Deps {
	store, err := kvstore.Open(filepath.Join(t.TempDir(), "engine.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	enforcer, err := permission.NewMemoryEnforcer(log)
	require.NoError(t, err)

	return engine.Deps{
		Workers:       kvstore.NewWorkerRepository(store),
		Codehashes:    kvstore.NewCodehashRepository(store, clock),
		Merchants:     kvstore.NewMerchantRepository(store),
		Subscriptions: kvstore.NewSubscriptionRepository(store),
		Keys:          kvstore.NewKeyRepository(store),
		Runner:        store,
		Enforcer:      enforcer,
	}
}

func gormDeps(t *testing.T, clock biztime.Clock, log logger.Interface) engine.Deps {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, gdb.AutoMigrate(models.All()...))

	enforcer, err := permission.NewEnforcer(gdb, log)
	require.NoError(t, err)

	return engine.Deps{
		Workers:       repository.NewWorkerRepository(gdb, log),
		Codehashes:    repository.NewCodehashRepository(gdb, clock, log),
		Merchants:     repository.NewMerchantRepository(gdb, log),
		Subscriptions: repository.NewSubscriptionRepository(gdb, log),
		Keys:          repository.NewDelegatedKeyRepository(gdb, log),
		Runner:        db.NewTransactionManager(gdb),
		Enforcer:      enforcer,
	}
}

var backends = map[string]func(*testing.T, biztime.Clock, logger.Interface) engine.Deps{
	"bolt": boltDeps,
	"gorm": gormDeps,
}

// forEachBackend runs fn once per storage implementation.
func forEachBackend(t *testing.T, fn func(t *testing.T, h *harness), opts ...option) {
	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			fn(t, newHarness(t, build, opts...))
		})
	}
}

func newHarness(t *testing.T, build func(*testing.T, biztime.Clock, logger.Interface) engine.Deps, opts ...option) *harness {
	t.Helper()

	log := logger.NewNop()
	clock := biztime.NewManualClock(start)
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	deps := build(t, clock, log)
	deps.Clock = clock
	deps.Verifier = attestation.NewEd25519Verifier(0)
	deps.Executor = infraPayment.NewLogTransferExecutor(log)
	deps.Owner = owner
	deps.Logger = log
	publisher := &recordingPublisher{}
	deps.Dispatcher = publisher
	for _, opt := range opts {
		opt(&deps)
	}

	e, err := engine.New(deps)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	return &harness{t: t, engine: e, clock: clock, events: publisher, anchorPub: pub, anchorKey: priv}
}

func (h *harness) ctx() context.Context {
	return context.Background()
}

func (h *harness) registerWorker(principal, hash string) bool {
	h.t.Helper()
	quote, err := attestation.SignQuote(h.anchorKey, "c1", hash, h.clock.Now())
	require.NoError(h.t, err)
	ok, err := h.engine.RegisterWorker(h.ctx(), workerUsecases.RegisterWorkerCommand{
		Principal:   principal,
		Quote:       quote,
		TrustAnchor: attestation.FormatPublicKey(h.anchorPub),
		Checksum:    "c1",
		Codehash:    hash,
	})
	require.NoError(h.t, err)
	return ok
}

// approvedAgent registers and approves the agent and the shop merchant.
func (h *harness) approvedAgent() {
	h.t.Helper()
	require.True(h.t, h.registerWorker(agent, codehash))
	require.NoError(h.t, h.engine.ApproveCodehash(h.ctx(), owner, codehash))
	require.NoError(h.t, h.engine.RegisterMerchant(h.ctx(), owner, shop))
}

func (h *harness) subscribe(frequency vo.Frequency, maxPayments *uint32, endDate *int64) string {
	h.t.Helper()
	id, err := h.engine.CreateSubscription(h.ctx(), subscriptionUsecases.CreateSubscriptionCommand{
		Payer:         alice,
		MerchantID:    shop,
		Amount:        vo.NewAmount(100),
		Frequency:     frequency,
		PaymentMethod: vo.NativePayment(),
		MaxPayments:   maxPayments,
		EndDate:       endDate,
	})
	require.NoError(h.t, err)
	return id
}

func (h *harness) freshKey() string {
	h.t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(h.t, err)
	return attestation.FormatPublicKey(pub)
}

func (h *harness) delegate(subscriptionID string) string {
	h.t.Helper()
	key := h.freshKey()
	require.NoError(h.t, h.engine.RegisterSubscriptionKey(h.ctx(), subscriptionUsecases.RegisterSubscriptionKeyCommand{
		Payer:          alice,
		PublicKey:      key,
		SubscriptionID: subscriptionID,
	}))
	return key
}

func (h *harness) pay(key, subscriptionID string) *payment.Result {
	h.t.Helper()
	res, err := h.engine.ProcessPayment(h.ctx(), paymentUsecases.ProcessPaymentCommand{
		Caller:         agent,
		PublicKey:      key,
		SubscriptionID: subscriptionID,
	})
	require.NoError(h.t, err)
	require.NotNil(h.t, res)
	return res
}

func (h *harness) advanceDays(n int64) {
	h.clock.Set(h.clock.Now().Unix() + n*day)
}

func uint32Ptr(v uint32) *uint32 { return &v }

func TestEngine_CapCancelsOnLastPayment(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		h.approvedAgent()
		id := h.subscribe(vo.FrequencyDaily, uint32Ptr(2), nil)
		key := h.delegate(id)

		h.advanceDays(1)
		assert.True(t, h.pay(key, id).Success)

		h.advanceDays(1)
		second := h.pay(key, id)
		assert.True(t, second.Success)

		sub, err := h.engine.GetSubscription(h.ctx(), id)
		require.NoError(t, err)
		assert.Equal(t, uint32(2), sub.PaymentsMade)
		assert.Equal(t, "canceled", sub.Status)

		h.advanceDays(1)
		third := h.pay(key, id)
		assert.False(t, third.Success)
		assert.Equal(t, payment.ReasonNotActive, third.Reason)
		require.NotNil(t, third.Error)
		assert.Equal(t, "Subscription is not active: Canceled", *third.Error)

		due, err := h.engine.GetDueSubscriptions(h.ctx(), agent, 10)
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}

func TestEngine_NotDueBeforeFirstInterval(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		h.approvedAgent()
		id := h.subscribe(vo.FrequencyWeekly, nil, nil)
		key := h.delegate(id)

		res := h.pay(key, id)
		assert.False(t, res.Success)
		assert.Equal(t, payment.ReasonNotDue, res.Reason)
		assert.Equal(t, paymentUsecases.MsgNotDue, *res.Error)

		sub, err := h.engine.GetSubscription(h.ctx(), id)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), sub.PaymentsMade)
		assert.Equal(t, start+7*day, sub.NextPaymentDate)
	})
}

func TestEngine_ScheduleAnchors(t *testing.T) {
	tests := []struct {
		name     string
		anchor   vo.ScheduleAnchor
		wantNext int64
	}{
		// Paid three hours late on day one.
		{"processing time", vo.AnchorProcessingTime, start + day + 3*3600 + day},
		{"previous due date", vo.AnchorPreviousDueDate, start + 2*day},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forEachBackend(t, func(t *testing.T, h *harness) {
				h.approvedAgent()
				id := h.subscribe(vo.FrequencyDaily, nil, nil)
				key := h.delegate(id)

				h.clock.Set(start + day + 3*3600)
				require.True(t, h.pay(key, id).Success)

				sub, err := h.engine.GetSubscription(h.ctx(), id)
				require.NoError(t, err)
				assert.Equal(t, tt.wantNext, sub.NextPaymentDate)
				assert.Equal(t, "active", sub.Status)
			}, withAnchor(tt.anchor))
		})
	}
}

func TestEngine_EndDateExhaustsSubscription(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		h.approvedAgent()
		end := start + day + day/2
		id := h.subscribe(vo.FrequencyDaily, nil, &end)
		key := h.delegate(id)

		h.advanceDays(1)
		assert.True(t, h.pay(key, id).Success)

		h.advanceDays(1)
		res := h.pay(key, id)
		assert.False(t, res.Success)
		assert.Equal(t, payment.ReasonExpired, res.Reason)

		sub, err := h.engine.GetSubscription(h.ctx(), id)
		require.NoError(t, err)
		assert.Equal(t, "canceled", sub.Status)
		assert.Equal(t, uint32(1), sub.PaymentsMade)
	})
}

func TestEngine_UnapprovedWorkerRejected(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		require.NoError(t, h.engine.RegisterMerchant(h.ctx(), owner, shop))
		require.True(t, h.registerWorker(agent, "unreviewed"))

		approved, err := h.engine.IsApprovedCaller(h.ctx(), agent)
		require.NoError(t, err)
		assert.False(t, approved)

		_, err = h.engine.GetDueSubscriptions(h.ctx(), agent, 10)
		assert.True(t, errors.IsUnauthorizedError(err))

		_, err = h.engine.ProcessPayment(h.ctx(), paymentUsecases.ProcessPaymentCommand{
			Caller:         agent,
			PublicKey:      "ed25519:00",
			SubscriptionID: "sub-x",
		})
		assert.True(t, errors.IsUnauthorizedError(err))

		_, err = h.engine.GetDueSubscriptions(h.ctx(), "stranger.near", 10)
		assert.True(t, errors.IsNotFoundError(err))
	})
}

func TestEngine_ReattestationTracksNewCodehash(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		h.approvedAgent()
		require.NoError(t, h.engine.VerifyWorkerCodehash(h.ctx(), agent, codehash))

		require.True(t, h.registerWorker(agent, "h2"))
		err := h.engine.VerifyWorkerCodehash(h.ctx(), agent, codehash)
		assert.True(t, errors.IsUnauthorizedError(err))

		approved, err := h.engine.IsApprovedCaller(h.ctx(), agent)
		require.NoError(t, err)
		assert.False(t, approved)
	})
}

func TestEngine_RejectedAttestationIsNotStored(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		_, otherKey, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		quote, err := attestation.SignQuote(otherKey, "c1", codehash, h.clock.Now())
		require.NoError(t, err)

		ok, err := h.engine.RegisterWorker(h.ctx(), workerUsecases.RegisterWorkerCommand{
			Principal:   agent,
			Quote:       quote,
			TrustAnchor: attestation.FormatPublicKey(h.anchorPub),
			Checksum:    "c1",
			Codehash:    codehash,
		})
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = h.engine.GetWorker(h.ctx(), agent)
		assert.True(t, errors.IsNotFoundError(err))
		assert.Equal(t, []string{worker.EventWorkerRegistrationFailed}, h.events.snapshot())
	})
}

func TestEngine_OnlyOwnerAdministers(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		err := h.engine.ApproveCodehash(h.ctx(), "mallory.near", codehash)
		assert.True(t, errors.IsUnauthorizedError(err))
		err = h.engine.RegisterMerchant(h.ctx(), "mallory.near", shop)
		assert.True(t, errors.IsUnauthorizedError(err))

		merchants, err := h.engine.ListMerchants(h.ctx())
		require.NoError(t, err)
		assert.Empty(t, merchants)

		require.NoError(t, h.engine.RegisterMerchant(h.ctx(), owner, shop))
		merchants, err = h.engine.ListMerchants(h.ctx())
		require.NoError(t, err)
		assert.Equal(t, []string{shop}, merchants)
	})
}

func TestEngine_SubscriptionToUnknownMerchant(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		_, err := h.engine.CreateSubscription(h.ctx(), subscriptionUsecases.CreateSubscriptionCommand{
			Payer:         alice,
			MerchantID:    "nobody.near",
			Amount:        vo.NewAmount(1),
			Frequency:     vo.FrequencyDaily,
			PaymentMethod: vo.NativePayment(),
		})
		assert.True(t, errors.IsUnauthorizedError(err))
	})
}

func TestEngine_StatusTransitions(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		h.approvedAgent()
		id := h.subscribe(vo.FrequencyDaily, nil, nil)
		key := h.delegate(id)

		err := h.engine.ResumeSubscription(h.ctx(), id, alice)
		assert.True(t, errors.IsInvalidStateError(err))

		err = h.engine.CancelSubscription(h.ctx(), id, "mallory.near")
		assert.True(t, errors.IsUnauthorizedError(err))

		require.NoError(t, h.engine.PauseSubscription(h.ctx(), id, alice))
		h.advanceDays(1)
		paused := h.pay(key, id)
		assert.Equal(t, payment.ReasonNotActive, paused.Reason)
		assert.Equal(t, "Subscription is not active: Paused", *paused.Error)

		due, err := h.engine.GetDueSubscriptions(h.ctx(), agent, 10)
		require.NoError(t, err)
		assert.Empty(t, due)

		require.NoError(t, h.engine.ResumeSubscription(h.ctx(), id, alice))
		assert.True(t, h.pay(key, id).Success)

		require.NoError(t, h.engine.CancelSubscription(h.ctx(), id, alice))
		err = h.engine.PauseSubscription(h.ctx(), id, alice)
		assert.True(t, errors.IsInvalidStateError(err))

		err = h.engine.CancelSubscription(h.ctx(), "sub-missing-1-1", alice)
		assert.True(t, errors.IsNotFoundError(err))
	})
}

func TestEngine_KeyAuthorization(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		h.approvedAgent()
		first := h.subscribe(vo.FrequencyDaily, nil, nil)
		second := h.subscribe(vo.FrequencyDaily, nil, nil)
		key := h.delegate(first)
		h.advanceDays(1)

		wrong := h.pay(key, second)
		assert.False(t, wrong.Success)
		assert.Equal(t, payment.ReasonUnauthorizedKey, wrong.Reason)
		assert.Equal(t, paymentUsecases.MsgKeyNotAuthorized, *wrong.Error)

		unknown := h.pay(h.freshKey(), first)
		assert.Equal(t, payment.ReasonUnauthorizedKey, unknown.Reason)

		err := h.engine.RegisterSubscriptionKey(h.ctx(), subscriptionUsecases.RegisterSubscriptionKeyCommand{
			Payer:          "mallory.near",
			PublicKey:      key,
			SubscriptionID: second,
		})
		assert.True(t, errors.IsUnauthorizedError(err))

		// Rebinding moves the key to the second subscription.
		require.NoError(t, h.engine.RegisterSubscriptionKey(h.ctx(), subscriptionUsecases.RegisterSubscriptionKeyCommand{
			Payer:          alice,
			PublicKey:      key,
			SubscriptionID: second,
		}))
		assert.True(t, h.pay(key, second).Success)
		assert.Equal(t, payment.ReasonUnauthorizedKey, h.pay(key, first).Reason)
	})
}

func TestEngine_DueListOrderAndLimit(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		h.approvedAgent()
		ids := []string{
			h.subscribe(vo.FrequencyDaily, nil, nil),
			h.subscribe(vo.FrequencyDaily, nil, nil),
			h.subscribe(vo.FrequencyWeekly, nil, nil),
		}
		h.advanceDays(1)

		due, err := h.engine.GetDueSubscriptions(h.ctx(), agent, 10)
		require.NoError(t, err)
		require.Len(t, due, 2)
		assert.ElementsMatch(t, ids[:2], []string{due[0].ID, due[1].ID})

		due, err = h.engine.GetDueSubscriptions(h.ctx(), agent, 1)
		require.NoError(t, err)
		assert.Len(t, due, 1)

		mine, err := h.engine.ListUserSubscriptions(h.ctx(), alice)
		require.NoError(t, err)
		assert.Len(t, mine, 3)
		theirs, err := h.engine.ListMerchantSubscriptions(h.ctx(), shop)
		require.NoError(t, err)
		assert.Len(t, theirs, 3)
	})
}

func TestEngine_DispatchFailureLeavesScheduleUntouched(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		h.approvedAgent()
		id := h.subscribe(vo.FrequencyDaily, nil, nil)
		key := h.delegate(id)
		h.advanceDays(1)

		res := h.pay(key, id)
		assert.False(t, res.Success)
		assert.Equal(t, payment.ReasonDispatchFailed, res.Reason)

		sub, err := h.engine.GetSubscription(h.ctx(), id)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), sub.PaymentsMade)
		assert.Equal(t, start+day, sub.NextPaymentDate)
	}, withExecutor(failingExecutor{}))
}

func TestEngine_ConcurrentAttemptConflicts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		_, err := h.engine.ProcessPayment(h.ctx(), paymentUsecases.ProcessPaymentCommand{
			Caller:         agent,
			PublicKey:      "ed25519:00",
			SubscriptionID: "sub-1",
		})
		assert.True(t, errors.IsConflictError(err))
	}, withLocker(heldLocker{}))
}

func TestEngine_EventsFollowCommittedOperations(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		h.approvedAgent()
		id := h.subscribe(vo.FrequencyDaily, nil, nil)
		key := h.delegate(id)
		h.advanceDays(1)
		h.pay(key, id)

		_ = h.engine.ResumeSubscription(h.ctx(), id, alice)

		assert.Equal(t, []string{
			worker.EventWorkerRegistered,
			worker.EventCodehashApproved,
			subscription.EventSubscriptionCreated,
			subscription.EventKeyRegistered,
			payment.EventPaymentProcessed,
		}, h.events.snapshot())
	})
}

func TestEngine_GetUnknownSubscription(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		sub, err := h.engine.GetSubscription(h.ctx(), "sub-nobody-1-1")
		require.NoError(t, err)
		assert.Nil(t, sub)
	})
}

func TestEngine_Close(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		require.NoError(t, h.engine.Close())
		require.NoError(t, h.engine.Close())

		_, err := h.engine.ListMerchants(h.ctx())
		assert.ErrorIs(t, err, engine.ErrEngineClosed)
	})
}
