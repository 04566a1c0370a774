package handlers

import (
	"context"

	paymentUsecases "github.com/orris-inc/autopay/internal/application/payment/usecases"
	subdto "github.com/orris-inc/autopay/internal/application/subscription/dto"
	subscriptionUsecases "github.com/orris-inc/autopay/internal/application/subscription/usecases"
	workerdto "github.com/orris-inc/autopay/internal/application/worker/dto"
	workerUsecases "github.com/orris-inc/autopay/internal/application/worker/usecases"
	"github.com/orris-inc/autopay/internal/domain/payment"
)

// Engine facets used by the handlers. *engine.Engine satisfies all of them.

type workerService interface {
	RegisterWorker(ctx context.Context, cmd workerUsecases.RegisterWorkerCommand) (bool, error)
	GetWorker(ctx context.Context, principal string) (*workerdto.WorkerDTO, error)
	IsApprovedCaller(ctx context.Context, principal string) (bool, error)
	VerifyWorkerCodehash(ctx context.Context, principal, codehash string) error
	ApproveCodehash(ctx context.Context, caller, codehash string) error
}

type merchantService interface {
	RegisterMerchant(ctx context.Context, caller, principal string) error
	ListMerchants(ctx context.Context) ([]string, error)
	ListMerchantSubscriptions(ctx context.Context, merchantID string) ([]*subdto.SubscriptionDTO, error)
}

type subscriptionService interface {
	CreateSubscription(ctx context.Context, cmd subscriptionUsecases.CreateSubscriptionCommand) (string, error)
	RegisterSubscriptionKey(ctx context.Context, cmd subscriptionUsecases.RegisterSubscriptionKeyCommand) error
	CancelSubscription(ctx context.Context, subscriptionID, caller string) error
	PauseSubscription(ctx context.Context, subscriptionID, caller string) error
	ResumeSubscription(ctx context.Context, subscriptionID, caller string) error
	GetSubscription(ctx context.Context, subscriptionID string) (*subdto.SubscriptionDTO, error)
	ListUserSubscriptions(ctx context.Context, userID string) ([]*subdto.SubscriptionDTO, error)
}

type paymentService interface {
	GetDueSubscriptions(ctx context.Context, caller string, limit int) ([]*subdto.SubscriptionDTO, error)
	ProcessPayment(ctx context.Context, cmd paymentUsecases.ProcessPaymentCommand) (*payment.Result, error)
}
