package worker

import (
	"context"
	"time"
)

// Repository stores workers by principal. Workers are never deleted.
type Repository interface {
	// Upsert inserts the worker or overwrites the record with the same principal.
	Upsert(ctx context.Context, worker *Worker) error
	// GetByPrincipal returns nil, nil when the principal never registered.
	GetByPrincipal(ctx context.Context, principal string) (*Worker, error)
}

// CodehashRepository is the owner-managed set of trusted code measurements.
type CodehashRepository interface {
	Approve(ctx context.Context, codehash string) error
	IsApproved(ctx context.Context, codehash string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// AttestationVerifier checks a remote-attestation quote against a trust
// anchor. A nil error means the quote is acceptable at time now.
type AttestationVerifier interface {
	Verify(ctx context.Context, quote []byte, trustAnchor string, now time.Time) error
}
