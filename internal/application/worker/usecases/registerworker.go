package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/domain/worker"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type RegisterWorkerCommand struct {
	Principal   string
	Quote       []byte
	TrustAnchor string
	Checksum    string
	Codehash    string
}

type RegisterWorkerUseCase struct {
	workerRepo worker.Repository
	verifier   worker.AttestationVerifier
	clock      biztime.Clock
	logger     logger.Interface
}

func NewRegisterWorkerUseCase(
	workerRepo worker.Repository,
	verifier worker.AttestationVerifier,
	clock biztime.Clock,
	logger logger.Interface,
) *RegisterWorkerUseCase {
	return &RegisterWorkerUseCase{
		workerRepo: workerRepo,
		verifier:   verifier,
		clock:      clock,
		logger:     logger,
	}
}

// Execute admits the caller when its attestation verifies. A rejected quote
// is reported as false without touching the registry; only storage failures
// are returned as errors.
func (uc *RegisterWorkerUseCase) Execute(ctx context.Context, cmd RegisterWorkerCommand) (bool, error) {
	now := uc.clock.Now()

	if err := uc.verifier.Verify(ctx, cmd.Quote, cmd.TrustAnchor, now); err != nil {
		uc.logger.Warnw("worker attestation rejected",
			"principal", cmd.Principal,
			"codehash", cmd.Codehash,
			"error", err,
		)
		events.Record(ctx, worker.NewWorkerRegistrationFailedEvent(cmd.Principal, cmd.Codehash, err.Error(), now))
		return false, nil
	}

	existing, err := uc.workerRepo.GetByPrincipal(ctx, cmd.Principal)
	if err != nil {
		uc.logger.Errorw("failed to get worker", "error", err, "principal", cmd.Principal)
		return false, fmt.Errorf("failed to get worker: %w", err)
	}

	w := existing
	if w == nil {
		w, err = worker.NewWorker(cmd.Principal, cmd.Checksum, cmd.Codehash, now.Unix())
		if err != nil {
			return false, fmt.Errorf("failed to create worker: %w", err)
		}
	} else {
		w.Reattest(cmd.Checksum, cmd.Codehash, now.Unix())
	}

	if err := uc.workerRepo.Upsert(ctx, w); err != nil {
		uc.logger.Errorw("failed to save worker", "error", err, "principal", cmd.Principal)
		return false, fmt.Errorf("failed to save worker: %w", err)
	}

	events.Record(ctx, worker.NewWorkerRegisteredEvent(w, now))

	uc.logger.Infow("worker registered",
		"principal", w.Principal(),
		"codehash", w.Codehash(),
		"reregistered", existing != nil,
	)

	return true, nil
}
