package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/orris-inc/autopay/internal/domain/subscription"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/autopay/internal/shared/mapper"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(rows []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	amount, err := vo.ParseAmount(model.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}

	var method vo.PaymentMethod
	if err := json.Unmarshal(model.PaymentMethod, &method); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment method: %w", err)
	}

	entity, err := subscription.ReconstructSubscription(subscription.ReconstructParams{
		ID:              model.SID,
		UserID:          model.UserID,
		MerchantID:      model.MerchantID,
		Amount:          amount,
		Frequency:       vo.Frequency(model.Frequency),
		PaymentMethod:   method,
		MaxPayments:     model.MaxPayments,
		EndDate:         model.EndDate,
		Status:          vo.SubscriptionStatus(model.Status),
		NextPaymentDate: model.NextPaymentDate,
		PaymentsMade:    model.PaymentsMade,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

// ToModel leaves ID zero; repositories fill it from the stored row.
func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	method, err := json.Marshal(entity.PaymentMethod())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment method: %w", err)
	}

	return &models.SubscriptionModel{
		SID:             entity.ID(),
		UserID:          entity.UserID(),
		MerchantID:      entity.MerchantID(),
		Amount:          entity.Amount().String(),
		Frequency:       entity.Frequency().String(),
		PaymentMethod:   datatypes.JSON(method),
		MaxPayments:     entity.MaxPayments(),
		EndDate:         entity.EndDate(),
		Status:          entity.Status().String(),
		NextPaymentDate: entity.NextPaymentDate(),
		PaymentsMade:    entity.PaymentsMade(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapperImpl) ToEntities(rows []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	return mapper.MapRows(rows, m.ToEntity, func(model *models.SubscriptionModel) string {
		return model.SID
	})
}
