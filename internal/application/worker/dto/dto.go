package dto

import (
	"github.com/orris-inc/autopay/internal/domain/worker"
)

type WorkerDTO struct {
	Principal    string `json:"principal"`
	Checksum     string `json:"checksum"`
	Codehash     string `json:"codehash"`
	RegisteredAt int64  `json:"registered_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

func ToWorkerDTO(w *worker.Worker) *WorkerDTO {
	if w == nil {
		return nil
	}
	return &WorkerDTO{
		Principal:    w.Principal(),
		Checksum:     w.Checksum(),
		Codehash:     w.Codehash(),
		RegisteredAt: w.RegisteredAt(),
		UpdatedAt:    w.UpdatedAt(),
	}
}
