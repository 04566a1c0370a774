package mappers

import (
	"github.com/orris-inc/autopay/internal/domain/subscription"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
)

type DelegatedKeyMapper interface {
	ToEntity(model *models.DelegatedKeyModel) *subscription.DelegatedKey
	ToModel(entity *subscription.DelegatedKey) *models.DelegatedKeyModel
}

type DelegatedKeyMapperImpl struct{}

func NewDelegatedKeyMapper() DelegatedKeyMapper {
	return &DelegatedKeyMapperImpl{}
}

func (m *DelegatedKeyMapperImpl) ToEntity(model *models.DelegatedKeyModel) *subscription.DelegatedKey {
	if model == nil {
		return nil
	}
	return subscription.ReconstructDelegatedKey(model.PublicKey, model.SubscriptionSID, model.RegisteredBy, model.RegisteredAt)
}

func (m *DelegatedKeyMapperImpl) ToModel(entity *subscription.DelegatedKey) *models.DelegatedKeyModel {
	if entity == nil {
		return nil
	}
	return &models.DelegatedKeyModel{
		PublicKey:       entity.PublicKey(),
		SubscriptionSID: entity.SubscriptionID(),
		RegisteredBy:    entity.RegisteredBy(),
		RegisteredAt:    entity.RegisteredAt(),
	}
}
