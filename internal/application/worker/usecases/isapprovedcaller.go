package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/autopay/internal/domain/worker"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// IsApprovedCallerUseCase answers whether a registered worker runs approved
// code. It is the gate in front of every scheduler and processor call.
type IsApprovedCallerUseCase struct {
	workerRepo   worker.Repository
	codehashRepo worker.CodehashRepository
	logger       logger.Interface
}

func NewIsApprovedCallerUseCase(
	workerRepo worker.Repository,
	codehashRepo worker.CodehashRepository,
	logger logger.Interface,
) *IsApprovedCallerUseCase {
	return &IsApprovedCallerUseCase{
		workerRepo:   workerRepo,
		codehashRepo: codehashRepo,
		logger:       logger,
	}
}

// Execute fails with NotFound for an unknown principal.
func (uc *IsApprovedCallerUseCase) Execute(ctx context.Context, principal string) (bool, error) {
	w, err := uc.lookup(ctx, principal)
	if err != nil {
		return false, err
	}

	ok, err := uc.codehashRepo.IsApproved(ctx, w.Codehash())
	if err != nil {
		uc.logger.Errorw("failed to check codehash", "error", err, "codehash", w.Codehash())
		return false, fmt.Errorf("failed to check codehash: %w", err)
	}
	return ok, nil
}

// RequireApproved fails with NotFound for an unknown principal and with
// Unauthorized for a worker whose codehash is not approved.
func (uc *IsApprovedCallerUseCase) RequireApproved(ctx context.Context, principal string) error {
	ok, err := uc.Execute(ctx, principal)
	if err != nil {
		return err
	}
	if !ok {
		uc.logger.Warnw("rejected unapproved worker", "principal", principal)
		return errors.NewUnauthorizedError("Not an approved worker", principal)
	}
	return nil
}

// RequireCodehash fails unless the caller registered with exactly codehash.
func (uc *IsApprovedCallerUseCase) RequireCodehash(ctx context.Context, principal, codehash string) error {
	w, err := uc.lookup(ctx, principal)
	if err != nil {
		return err
	}
	if !w.RunsCodehash(codehash) {
		return errors.NewUnauthorizedError(worker.ErrCodehashMismatch.Error(), principal)
	}
	return nil
}

func (uc *IsApprovedCallerUseCase) lookup(ctx context.Context, principal string) (*worker.Worker, error) {
	w, err := uc.workerRepo.GetByPrincipal(ctx, principal)
	if err != nil {
		uc.logger.Errorw("failed to get worker", "error", err, "principal", principal)
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	if w == nil {
		return nil, errors.NewNotFoundError(worker.ErrWorkerNotFoundFor(principal).Error())
	}
	return w, nil
}
