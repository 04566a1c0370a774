package worker

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerNotFound      = errors.New("worker not found")
	ErrNotApprovedWorker   = errors.New("not an approved worker")
	ErrCodehashMismatch    = errors.New("worker codehash does not match")
	ErrAttestationRejected = errors.New("attestation rejected")
)

func ErrWorkerNotFoundFor(principal string) error {
	return fmt.Errorf("%w for account: %s", ErrWorkerNotFound, principal)
}
