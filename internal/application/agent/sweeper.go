// Package agent drives payments from the worker side: it lists what is due
// and asks the server to charge each subscription it holds a key for.
package agent

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	paymentUsecases "github.com/orris-inc/autopay/internal/application/payment/usecases"
	"github.com/orris-inc/autopay/internal/shared/logger"
	sdk "github.com/orris-inc/autopay/sdk/agent"
)

// PaymentClient is the part of the worker SDK the sweeper needs.
type PaymentClient interface {
	DueSubscriptions(ctx context.Context, limit int) ([]sdk.Subscription, error)
	ProcessPayment(ctx context.Context, subscriptionID string, key ed25519.PrivateKey) (*sdk.PaymentResult, error)
}

// KeySource resolves the delegated key for a subscription.
type KeySource interface {
	Key(subscriptionID string) (ed25519.PrivateKey, bool)
}

// SweepReport counts what one sweep did.
type SweepReport struct {
	Due       int
	Processed int
	Rejected  int
	Skipped   int
	Failed    int
}

// Sweeper processes one batch of due subscriptions per run.
type Sweeper struct {
	client      PaymentClient
	keys        KeySource
	batchSize   int
	concurrency int
	logger      logger.Interface
}

func NewSweeper(client PaymentClient, keys KeySource, batchSize, concurrency int, log logger.Interface) *Sweeper {
	if batchSize <= 0 {
		batchSize = 50
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Sweeper{
		client:      client,
		keys:        keys,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      log,
	}
}

// Execute runs one sweep and returns the number of successful payments. It
// satisfies the scheduler's BatchJob.
func (s *Sweeper) Execute(ctx context.Context) (int, error) {
	report, err := s.Sweep(ctx)
	return report.Processed, err
}

type keyedSubscription struct {
	sub sdk.Subscription
	key ed25519.PrivateKey
}

// Sweep fetches due subscriptions and processes those with a known key.
// Individual payment failures are counted, not returned; only a failed due
// listing aborts the sweep.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	due, work, err := s.collect(ctx)
	if err != nil {
		return SweepReport{}, err
	}

	var processed, rejected, failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, item := range work {
		sub, key := item.sub, item.key
		g.Go(func() error {
			log := s.logger.With("subscription_id", sub.ID)

			result, err := s.client.ProcessPayment(gctx, sub.ID, key)
			if err != nil {
				failed.Add(1)
				log.Warnw("payment request failed", "error", err)
				return nil
			}
			if !result.Success {
				rejected.Add(1)
				msg := ""
				if result.Error != nil {
					msg = *result.Error
				}
				log.Infow("payment rejected",
					"reason", result.Reason,
					"error", msg,
				)
				return nil
			}

			processed.Add(1)
			log.Infow("payment processed",
				"merchant_id", sub.MerchantID,
				"amount", result.Amount,
			)
			return nil
		})
	}

	_ = g.Wait()

	report := SweepReport{
		Due:       len(due),
		Processed: int(processed.Load()),
		Rejected:  int(rejected.Load()),
		Skipped:   len(due) - len(work),
		Failed:    int(failed.Load()),
	}
	if report.Due > 0 {
		s.logger.Infow("sweep finished",
			"due", report.Due,
			"processed", report.Processed,
			"rejected", report.Rejected,
			"skipped", report.Skipped,
			"failed", report.Failed,
		)
	}
	return report, ctx.Err()
}

// collect lists due subscriptions and pairs them with their keys. Due
// subscriptions this agent holds no key for are never paid by it and stay at
// the front of the due list, so when a page yields nothing payable the
// listing is widened until it does or the server has nothing more.
func (s *Sweeper) collect(ctx context.Context) ([]sdk.Subscription, []keyedSubscription, error) {
	limit := min(s.batchSize, paymentUsecases.MaxDueLimit)
	for {
		due, err := s.client.DueSubscriptions(ctx, limit)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list due subscriptions: %w", err)
		}

		work := make([]keyedSubscription, 0, len(due))
		for _, sub := range due {
			key, ok := s.keys.Key(sub.ID)
			if !ok {
				s.logger.Debugw("no delegated key for due subscription", "subscription_id", sub.ID)
				continue
			}
			work = append(work, keyedSubscription{sub: sub, key: key})
		}

		if len(work) > 0 || len(due) < limit || limit >= paymentUsecases.MaxDueLimit {
			return due, work, nil
		}
		limit = min(limit*2, paymentUsecases.MaxDueLimit)
		s.logger.Debugw("widening due listing past unkeyed subscriptions", "limit", limit)
	}
}
