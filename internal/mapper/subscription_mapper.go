package mapper

import (
	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/model"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) PlanToEntity(p *model.SubscriptionPlan) *entity.SubscriptionPlan {
	if p == nil {
		return nil
	}
	return &entity.SubscriptionPlan{
		Id:                   p.Id,
		Name:                 p.Name,
		Slug:                 p.Slug,
		Description:          p.Description,
		Price:                p.Price,
		TaxRate:              p.TaxRate,
		BillingPeriod:        entity.BillingPeriod(p.BillingPeriod),
		MaxDocuments:         p.MaxDocuments,
		AiAnalysisDailyLimit: p.AiAnalysisDailyLimit,
		IsActive:             p.IsActive,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func (m *SubscriptionMapper) PlanToModel(p *entity.SubscriptionPlan) *model.SubscriptionPlan {
	if p == nil {
		return nil
	}
	return &model.SubscriptionPlan{
		Id:                   p.Id,
		Name:                 p.Name,
		Slug:                 p.Slug,
		Description:          p.Description,
		Price:                p.Price,
		TaxRate:              p.TaxRate,
		BillingPeriod:        string(p.BillingPeriod),
		MaxDocuments:         p.MaxDocuments,
		AiAnalysisDailyLimit: p.AiAnalysisDailyLimit,
		IsActive:             p.IsActive,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func (m *SubscriptionMapper) PlansToEntities(plans []*model.SubscriptionPlan) []*entity.SubscriptionPlan {
	entities := make([]*entity.SubscriptionPlan, len(plans))
	for i, p := range plans {
		entities[i] = m.PlanToEntity(p)
	}
	return entities
}

func (m *SubscriptionMapper) UserSubscriptionToEntity(s *model.UserSubscription) *entity.UserSubscription {
	if s == nil {
		return nil
	}
	return &entity.UserSubscription{
		Id:                    s.Id,
		UserId:                s.UserId,
		PlanId:                s.PlanId,
		Status:                entity.SubscriptionStatus(s.Status),
		CurrentPeriodStart:    s.CurrentPeriodStart,
		CurrentPeriodEnd:      s.CurrentPeriodEnd,
		PaymentStatus:         entity.PaymentStatus(s.PaymentStatus),
		MidtransTransactionId: s.MidtransTransactionId,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) UserSubscriptionToModel(s *entity.UserSubscription) *model.UserSubscription {
	if s == nil {
		return nil
	}
	return &model.UserSubscription{
		Id:                    s.Id,
		UserId:                s.UserId,
		PlanId:                s.PlanId,
		Status:                string(s.Status),
		CurrentPeriodStart:    s.CurrentPeriodStart,
		CurrentPeriodEnd:      s.CurrentPeriodEnd,
		PaymentStatus:         string(s.PaymentStatus),
		MidtransTransactionId: s.MidtransTransactionId,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}
