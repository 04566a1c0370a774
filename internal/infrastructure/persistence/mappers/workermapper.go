package mappers

import (
	"github.com/orris-inc/autopay/internal/domain/worker"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
)

type WorkerMapper interface {
	ToEntity(model *models.WorkerModel) *worker.Worker
	ToModel(entity *worker.Worker) *models.WorkerModel
}

type WorkerMapperImpl struct{}

func NewWorkerMapper() WorkerMapper {
	return &WorkerMapperImpl{}
}

func (m *WorkerMapperImpl) ToEntity(model *models.WorkerModel) *worker.Worker {
	if model == nil {
		return nil
	}
	return worker.ReconstructWorker(model.Principal, model.Checksum, model.Codehash, model.RegisteredAt, model.UpdatedAt)
}

func (m *WorkerMapperImpl) ToModel(entity *worker.Worker) *models.WorkerModel {
	if entity == nil {
		return nil
	}
	return &models.WorkerModel{
		Principal:    entity.Principal(),
		Checksum:     entity.Checksum(),
		Codehash:     entity.Codehash(),
		RegisteredAt: entity.RegisteredAt(),
		UpdatedAt:    entity.UpdatedAt(),
	}
}
