package worker

import (
	"fmt"
	"strings"
)

// Worker is an autonomous agent admitted through attestation. It is keyed by
// principal; registering again overwrites the checksum and codehash.
type Worker struct {
	principal    string
	checksum     string
	codehash     string
	registeredAt int64
	updatedAt    int64
}

// NewWorker creates a worker record for a principal whose attestation passed.
func NewWorker(principal, checksum, codehash string, now int64) (*Worker, error) {
	if strings.TrimSpace(principal) == "" {
		return nil, fmt.Errorf("principal is required")
	}
	if strings.TrimSpace(codehash) == "" {
		return nil, fmt.Errorf("codehash is required")
	}

	return &Worker{
		principal:    principal,
		checksum:     checksum,
		codehash:     codehash,
		registeredAt: now,
		updatedAt:    now,
	}, nil
}

// ReconstructWorker reconstructs a worker from persistence
func ReconstructWorker(principal, checksum, codehash string, registeredAt, updatedAt int64) *Worker {
	return &Worker{
		principal:    principal,
		checksum:     checksum,
		codehash:     codehash,
		registeredAt: registeredAt,
		updatedAt:    updatedAt,
	}
}

func (w *Worker) Principal() string {
	return w.principal
}

func (w *Worker) Checksum() string {
	return w.checksum
}

func (w *Worker) Codehash() string {
	return w.codehash
}

// RegisteredAt is the first registration time; re-registration keeps it.
func (w *Worker) RegisteredAt() int64 {
	return w.registeredAt
}

func (w *Worker) UpdatedAt() int64 {
	return w.updatedAt
}

// Reattest replaces the attested measurements after a new registration.
func (w *Worker) Reattest(checksum, codehash string, now int64) {
	w.checksum = checksum
	w.codehash = codehash
	w.updatedAt = now
}

// RunsCodehash reports whether the worker attested the given code measurement.
func (w *Worker) RunsCodehash(codehash string) bool {
	return w.codehash == codehash
}
