// Package payment provides the transfer executors that hand approved
// payments to the settlement layer.
package payment

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/autopay/internal/domain/payment"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/id"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// DefaultTransferStream is the Redis stream transfer instructions are appended to.
const DefaultTransferStream = "autopay:transfers"

const (
	transferKindNative = "native"
	transferKindToken  = "token"
)

var (
	_ payment.TransferExecutor = (*LogTransferExecutor)(nil)
	_ payment.TransferExecutor = (*StreamTransferExecutor)(nil)
)

// LogTransferExecutor accepts every transfer and only logs it. It is the
// default in development and when no settlement consumer is deployed.
type LogTransferExecutor struct {
	logger logger.Interface
}

func NewLogTransferExecutor(log logger.Interface) *LogTransferExecutor {
	return &LogTransferExecutor{logger: log}
}

func (e *LogTransferExecutor) Transfer(_ context.Context, payee string, amount vo.Amount) error {
	e.logger.Infow("native transfer dispatched",
		"transfer_id", id.NewTransferID(),
		"payee", payee,
		"amount", amount.String(),
	)
	return nil
}

func (e *LogTransferExecutor) TokenTransfer(_ context.Context, tokenID, payee string, amount vo.Amount, memo string) error {
	e.logger.Infow("token transfer dispatched",
		"transfer_id", id.NewTransferID(),
		"token_id", tokenID,
		"payee", payee,
		"amount", amount.String(),
		"memo", memo,
	)
	return nil
}

// StreamTransferExecutor appends each transfer to a Redis stream consumed by
// the settlement service. XADD succeeding is the acceptance signal.
type StreamTransferExecutor struct {
	client *redis.Client
	stream string
	clock  biztime.Clock
	logger logger.Interface
}

func NewStreamTransferExecutor(client *redis.Client, stream string, clock biztime.Clock, log logger.Interface) *StreamTransferExecutor {
	if stream == "" {
		stream = DefaultTransferStream
	}
	return &StreamTransferExecutor{
		client: client,
		stream: stream,
		clock:  clock,
		logger: log,
	}
}

func (e *StreamTransferExecutor) Transfer(ctx context.Context, payee string, amount vo.Amount) error {
	return e.append(ctx, map[string]interface{}{
		"kind":   transferKindNative,
		"payee":  payee,
		"amount": amount.String(),
	})
}

func (e *StreamTransferExecutor) TokenTransfer(ctx context.Context, tokenID, payee string, amount vo.Amount, memo string) error {
	return e.append(ctx, map[string]interface{}{
		"kind":     transferKindToken,
		"token_id": tokenID,
		"payee":    payee,
		"amount":   amount.String(),
		"memo":     memo,
	})
}

func (e *StreamTransferExecutor) append(ctx context.Context, values map[string]interface{}) error {
	transferID := id.NewTransferID()
	values["transfer_id"] = transferID
	values["requested_at"] = biztime.Unix(e.clock)

	entryID, err := e.client.XAdd(ctx, &redis.XAddArgs{
		Stream: e.stream,
		Values: values,
	}).Result()
	if err != nil {
		e.logger.Errorw("failed to append transfer",
			"transfer_id", transferID,
			"stream", e.stream,
			"error", err,
		)
		return fmt.Errorf("failed to append transfer to %s: %w", e.stream, err)
	}

	e.logger.Debugw("transfer appended",
		"transfer_id", transferID,
		"stream", e.stream,
		"entry_id", entryID,
	)
	return nil
}
