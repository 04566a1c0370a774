package worker

import (
	"time"

	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/shared/id"
)

const (
	EventWorkerRegistered         = "worker.registered"
	EventWorkerRegistrationFailed = "worker.registration_failed"
	EventCodehashApproved         = "worker.codehash_approved"
)

// WorkerRegisteredEvent is recorded when an attestation passes and the worker record is written.
type WorkerRegisteredEvent struct {
	events.BaseEvent
	Principal string `json:"principal"`
	Checksum  string `json:"checksum"`
	Codehash  string `json:"codehash"`
}

func NewWorkerRegisteredEvent(w *Worker, at time.Time) *WorkerRegisteredEvent {
	return &WorkerRegisteredEvent{
		BaseEvent: events.BaseEvent{
			EventID:     id.NewEventID(),
			AggregateID: w.Principal(),
			EventType:   EventWorkerRegistered,
			OccurredAt:  at,
		},
		Principal: w.Principal(),
		Checksum:  w.Checksum(),
		Codehash:  w.Codehash(),
	}
}

// WorkerRegistrationFailedEvent is recorded when a quote fails verification.
type WorkerRegistrationFailedEvent struct {
	events.BaseEvent
	Principal string `json:"principal"`
	Codehash  string `json:"codehash"`
	Reason    string `json:"reason"`
}

func NewWorkerRegistrationFailedEvent(principal, codehash, reason string, at time.Time) *WorkerRegistrationFailedEvent {
	return &WorkerRegistrationFailedEvent{
		BaseEvent: events.BaseEvent{
			EventID:     id.NewEventID(),
			AggregateID: principal,
			EventType:   EventWorkerRegistrationFailed,
			OccurredAt:  at,
		},
		Principal: principal,
		Codehash:  codehash,
		Reason:    reason,
	}
}

// CodehashApprovedEvent is recorded when the owner trusts a new measurement.
type CodehashApprovedEvent struct {
	events.BaseEvent
	Codehash string `json:"codehash"`
}

func NewCodehashApprovedEvent(codehash string, at time.Time) *CodehashApprovedEvent {
	return &CodehashApprovedEvent{
		BaseEvent: events.BaseEvent{
			EventID:     id.NewEventID(),
			AggregateID: codehash,
			EventType:   EventCodehashApproved,
			OccurredAt:  at,
		},
		Codehash: codehash,
	}
}
