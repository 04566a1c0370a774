// Package engine is the single entry point into the payment authorization
// state. Every operation runs inside one serialized transaction and the
// domain events it recorded are published only after that transaction commits.
package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"

	merchantUsecases "github.com/orris-inc/autopay/internal/application/merchant/usecases"
	paymentUsecases "github.com/orris-inc/autopay/internal/application/payment/usecases"
	subscriptionDTO "github.com/orris-inc/autopay/internal/application/subscription/dto"
	subscriptionUsecases "github.com/orris-inc/autopay/internal/application/subscription/usecases"
	workerDTO "github.com/orris-inc/autopay/internal/application/worker/dto"
	workerUsecases "github.com/orris-inc/autopay/internal/application/worker/usecases"
	"github.com/orris-inc/autopay/internal/domain/merchant"
	"github.com/orris-inc/autopay/internal/domain/payment"
	"github.com/orris-inc/autopay/internal/domain/permission"
	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/domain/subscription"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/domain/worker"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/db"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// ErrEngineClosed is returned by every operation after Close.
var ErrEngineClosed = errors.NewInvalidStateError("engine is closed")

// Deps are the collaborators an Engine is assembled from. Dispatcher and
// Locker are optional.
type Deps struct {
	Workers       worker.Repository
	Codehashes    worker.CodehashRepository
	Merchants     merchant.Repository
	Subscriptions subscription.SubscriptionRepository
	Keys          subscription.KeyRepository

	Runner     db.TransactionRunner
	Clock      biztime.Clock
	Verifier   worker.AttestationVerifier
	Executor   payment.TransferExecutor
	Enforcer   permission.PermissionEnforcer
	Dispatcher events.EventPublisher
	Locker     Locker

	Owner  string
	Anchor vo.ScheduleAnchor
	Logger logger.Interface
}

type Engine struct {
	closed     atomic.Bool
	runner     db.TransactionRunner
	dispatcher events.EventPublisher
	locker     Locker
	logger     logger.Interface

	registerWorker   *workerUsecases.RegisterWorkerUseCase
	getWorker        *workerUsecases.GetWorkerUseCase
	approvedCaller   *workerUsecases.IsApprovedCallerUseCase
	approveCodehash  *workerUsecases.ApproveCodehashUseCase
	registerMerchant *merchantUsecases.RegisterMerchantUseCase
	listMerchants    *merchantUsecases.ListMerchantsUseCase
	createSub        *subscriptionUsecases.CreateSubscriptionUseCase
	registerKey      *subscriptionUsecases.RegisterSubscriptionKeyUseCase
	changeStatus     *subscriptionUsecases.ChangeSubscriptionStatusUseCase
	getSub           *subscriptionUsecases.GetSubscriptionUseCase
	listSubs         *subscriptionUsecases.ListSubscriptionsUseCase
	dueSubs          *paymentUsecases.GetDueSubscriptionsUseCase
	processPayment   *paymentUsecases.ProcessPaymentUseCase
}

// New wires the use cases and grants the owner role to d.Owner.
func New(d Deps) (*Engine, error) {
	if d.Runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if d.Clock == nil {
		d.Clock = biztime.SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.Locker == nil {
		d.Locker = noopLocker{}
	}
	if d.Anchor == "" {
		d.Anchor = vo.AnchorProcessingTime
	}

	if d.Owner != "" {
		if err := grantOwner(d.Enforcer, d.Owner); err != nil {
			return nil, err
		}
	}

	log := d.Logger.Named("engine")
	approved := workerUsecases.NewIsApprovedCallerUseCase(d.Workers, d.Codehashes, log)

	return &Engine{
		runner:     db.NewSerialRunner(d.Runner),
		dispatcher: d.Dispatcher,
		locker:     d.Locker,
		logger:     log,

		registerWorker:   workerUsecases.NewRegisterWorkerUseCase(d.Workers, d.Verifier, d.Clock, log),
		getWorker:        workerUsecases.NewGetWorkerUseCase(d.Workers, log),
		approvedCaller:   approved,
		approveCodehash:  workerUsecases.NewApproveCodehashUseCase(d.Codehashes, d.Enforcer, d.Clock, log),
		registerMerchant: merchantUsecases.NewRegisterMerchantUseCase(d.Merchants, d.Enforcer, d.Clock, log),
		listMerchants:    merchantUsecases.NewListMerchantsUseCase(d.Merchants, log),
		createSub:        subscriptionUsecases.NewCreateSubscriptionUseCase(d.Subscriptions, d.Merchants, d.Clock, log),
		registerKey:      subscriptionUsecases.NewRegisterSubscriptionKeyUseCase(d.Subscriptions, d.Keys, d.Clock, log),
		changeStatus:     subscriptionUsecases.NewChangeSubscriptionStatusUseCase(d.Subscriptions, d.Clock, log),
		getSub:           subscriptionUsecases.NewGetSubscriptionUseCase(d.Subscriptions, log),
		listSubs:         subscriptionUsecases.NewListSubscriptionsUseCase(d.Subscriptions, log),
		dueSubs:          paymentUsecases.NewGetDueSubscriptionsUseCase(approved, d.Subscriptions, d.Clock, log),
		processPayment: paymentUsecases.NewProcessPaymentUseCase(
			approved, d.Subscriptions, d.Keys, d.Executor, d.Anchor, d.Clock, log,
		),
	}, nil
}

// grantOwner makes owner the only holder of the owner role. Policies may be
// persisted, so a previously configured owner is revoked here.
func grantOwner(enforcer permission.PermissionEnforcer, owner string) error {
	holders, err := enforcer.GetUsersForRole(permission.RoleOwner)
	if err != nil {
		return fmt.Errorf("failed to read owner role: %w", err)
	}
	for _, h := range holders {
		if h == owner {
			continue
		}
		if err := enforcer.DeleteRoleForUser(h, permission.RoleOwner); err != nil {
			return fmt.Errorf("failed to revoke owner role from %s: %w", h, err)
		}
	}
	if err := enforcer.AddRoleForUser(owner, permission.RoleOwner); err != nil {
		return fmt.Errorf("failed to grant owner role: %w", err)
	}
	return nil
}

// Close rejects further operations and waits for the one in flight, if any.
// Storage and the event dispatcher belong to the caller and stay open.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	return e.runner.RunInTransaction(context.Background(), func(context.Context) error { return nil })
}

// run executes fn in the serialized transaction and publishes the events it
// recorded once the transaction has committed.
func (e *Engine) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	ctx = events.WithCollector(ctx)
	if err := e.runner.RunInTransaction(ctx, fn); err != nil {
		return err
	}
	e.publish(events.Collected(ctx))
	return nil
}

func (e *Engine) publish(evts []events.DomainEvent) {
	if e.dispatcher == nil || len(evts) == 0 {
		return
	}
	if err := e.dispatcher.PublishAll(evts); err != nil {
		e.logger.Warnw("failed to publish domain events", "error", err, "count", len(evts))
	}
}

// RegisterWorker reports false when the attestation quote is rejected.
func (e *Engine) RegisterWorker(ctx context.Context, cmd workerUsecases.RegisterWorkerCommand) (bool, error) {
	var ok bool
	err := e.run(ctx, func(ctx context.Context) error {
		var err error
		ok, err = e.registerWorker.Execute(ctx, cmd)
		return err
	})
	return ok, err
}

func (e *Engine) GetWorker(ctx context.Context, principal string) (*workerDTO.WorkerDTO, error) {
	var out *workerDTO.WorkerDTO
	err := e.run(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.getWorker.Execute(ctx, workerUsecases.GetWorkerQuery{Principal: principal})
		return err
	})
	return out, err
}

// IsApprovedCaller fails with NotFound for a principal that never registered.
func (e *Engine) IsApprovedCaller(ctx context.Context, principal string) (bool, error) {
	var ok bool
	err := e.run(ctx, func(ctx context.Context) error {
		var err error
		ok, err = e.approvedCaller.Execute(ctx, principal)
		return err
	})
	return ok, err
}

// VerifyWorkerCodehash fails unless principal registered with exactly codehash.
func (e *Engine) VerifyWorkerCodehash(ctx context.Context, principal, codehash string) error {
	return e.run(ctx, func(ctx context.Context) error {
		return e.approvedCaller.RequireCodehash(ctx, principal, codehash)
	})
}

func (e *Engine) ApproveCodehash(ctx context.Context, caller, codehash string) error {
	return e.run(ctx, func(ctx context.Context) error {
		return e.approveCodehash.Execute(ctx, workerUsecases.ApproveCodehashCommand{Caller: caller, Codehash: codehash})
	})
}

func (e *Engine) RegisterMerchant(ctx context.Context, caller, principal string) error {
	return e.run(ctx, func(ctx context.Context) error {
		return e.registerMerchant.Execute(ctx, merchantUsecases.RegisterMerchantCommand{Caller: caller, Merchant: principal})
	})
}

func (e *Engine) ListMerchants(ctx context.Context) ([]string, error) {
	var out []string
	err := e.run(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.listMerchants.Execute(ctx)
		return err
	})
	return out, err
}

func (e *Engine) CreateSubscription(ctx context.Context, cmd subscriptionUsecases.CreateSubscriptionCommand) (string, error) {
	var id string
	err := e.run(ctx, func(ctx context.Context) error {
		var err error
		id, err = e.createSub.Execute(ctx, cmd)
		return err
	})
	return id, err
}

func (e *Engine) RegisterSubscriptionKey(ctx context.Context, cmd subscriptionUsecases.RegisterSubscriptionKeyCommand) error {
	return e.run(ctx, func(ctx context.Context) error {
		return e.registerKey.Execute(ctx, cmd)
	})
}

func (e *Engine) CancelSubscription(ctx context.Context, subscriptionID, caller string) error {
	return e.changeSubscriptionStatus(ctx, subscriptionID, caller, subscriptionUsecases.ActionCancel)
}

func (e *Engine) PauseSubscription(ctx context.Context, subscriptionID, caller string) error {
	return e.changeSubscriptionStatus(ctx, subscriptionID, caller, subscriptionUsecases.ActionPause)
}

func (e *Engine) ResumeSubscription(ctx context.Context, subscriptionID, caller string) error {
	return e.changeSubscriptionStatus(ctx, subscriptionID, caller, subscriptionUsecases.ActionResume)
}

func (e *Engine) changeSubscriptionStatus(ctx context.Context, subscriptionID, caller string, action subscriptionUsecases.StatusAction) error {
	return e.run(ctx, func(ctx context.Context) error {
		return e.changeStatus.Execute(ctx, subscriptionUsecases.ChangeSubscriptionStatusCommand{
			SubscriptionID: subscriptionID,
			Caller:         caller,
			Action:         action,
		})
	})
}

// GetSubscription returns nil, nil for an unknown id.
func (e *Engine) GetSubscription(ctx context.Context, subscriptionID string) (*subscriptionDTO.SubscriptionDTO, error) {
	var out *subscriptionDTO.SubscriptionDTO
	err := e.run(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.getSub.Execute(ctx, subscriptionUsecases.GetSubscriptionQuery{SubscriptionID: subscriptionID})
		return err
	})
	return out, err
}

func (e *Engine) ListUserSubscriptions(ctx context.Context, userID string) ([]*subscriptionDTO.SubscriptionDTO, error) {
	return e.listSubscriptions(ctx, subscriptionUsecases.ListSubscriptionsQuery{UserID: userID})
}

func (e *Engine) ListMerchantSubscriptions(ctx context.Context, merchantID string) ([]*subscriptionDTO.SubscriptionDTO, error) {
	return e.listSubscriptions(ctx, subscriptionUsecases.ListSubscriptionsQuery{MerchantID: merchantID})
}

func (e *Engine) listSubscriptions(ctx context.Context, query subscriptionUsecases.ListSubscriptionsQuery) ([]*subscriptionDTO.SubscriptionDTO, error) {
	var out []*subscriptionDTO.SubscriptionDTO
	err := e.run(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.listSubs.Execute(ctx, query)
		return err
	})
	return out, err
}

func (e *Engine) GetDueSubscriptions(ctx context.Context, caller string, limit int) ([]*subscriptionDTO.SubscriptionDTO, error) {
	var out []*subscriptionDTO.SubscriptionDTO
	err := e.run(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.dueSubs.Execute(ctx, paymentUsecases.GetDueSubscriptionsQuery{Caller: caller, Limit: limit})
		return err
	})
	return out, err
}

// ProcessPayment holds the per-subscription lock for the whole attempt. A
// concurrent attempt on the same subscription fails with a Conflict error.
func (e *Engine) ProcessPayment(ctx context.Context, cmd paymentUsecases.ProcessPaymentCommand) (*payment.Result, error) {
	release, err := e.locker.Acquire(ctx, cmd.SubscriptionID)
	if err != nil {
		if stderrors.Is(err, ErrLockHeld) {
			e.logger.Warnw("payment already in progress", "subscription_id", cmd.SubscriptionID, "caller", cmd.Caller)
			return nil, errors.NewConflictError("payment already in progress", cmd.SubscriptionID)
		}
		return nil, fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	defer release()

	var result *payment.Result
	err = e.run(ctx, func(ctx context.Context) error {
		var err error
		result, err = e.processPayment.Execute(ctx, cmd)
		return err
	})
	return result, err
}
