// FILE: internal/service/plan_service.go
// Service for plan management and usage limit checking
package service

import (
	"context"
	"time"

	"ai-docpilot-be/internal/dto"
	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/repository/specification"
	"ai-docpilot-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type PlanService interface {
	// User
	GetUserUsageStatus(ctx context.Context, userId uuid.UUID) (*dto.UsageStatusResponse, error)
}

type planService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewPlanService(uowFactory unitofwork.RepositoryFactory) PlanService {
	return &planService{
		uowFactory: uowFactory,
	}
}

// GetUserUsageStatus returns current usage vs limits for a user
func (s *planService) GetUserUsageStatus(ctx context.Context, userId uuid.UUID) (*dto.UsageStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Get user
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}

	// Get user's active plan
	plan, err := s.getUserPlan(ctx, uow, userId)
	if err != nil {
		return nil, err
	}

	// Count current usage
	documentCount, err := uow.DocumentRepository().Count(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}

	// Check and reset daily usage if needed
	if err := s.checkAndResetDailyUsage(ctx, uow, user); err != nil {
		return nil, err
	}

	// Calculate reset time (next midnight)
	now := time.Now()
	resetTime := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())

	analysisLimit := s.getEffectiveLimit(plan.AiAnalysisDailyLimit, user.AiDailyLimitOverride)

	response := &dto.UsageStatusResponse{
		Plan: dto.PlanInfo{
			Id:   plan.Id,
			Name: plan.Name,
			Slug: plan.Slug,
		},
		Storage: dto.StorageLimits{
			Documents: dto.UsageLimit{
				Used:   int(documentCount),
				Limit:  plan.MaxDocuments,
				CanUse: plan.MaxDocuments < 0 || int(documentCount) < plan.MaxDocuments,
			},
		},
		Daily: dto.DailyLimits{
			AiAnalysis: dto.UsageLimit{
				Used:     user.AiDailyUsage,
				Limit:    analysisLimit,
				CanUse:   s.canUseLimit(user.AiDailyUsage, analysisLimit),
				ResetsAt: &resetTime,
			},
		},
		UpgradeAvailable: plan.Slug == "free",
	}

	return response, nil
}

// checkAndResetDailyUsage checks if the daily usage needs to be reset based on calendar day
func (s *planService) checkAndResetDailyUsage(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User) error {
	now := time.Now()
	lastReset := user.AiDailyUsageLastReset

	// Check if the last reset was on a different calendar day
	// We compare Year, Month, and Day. If any differ, it's a new day.
	if now.Year() != lastReset.Year() || now.Month() != lastReset.Month() || now.Day() != lastReset.Day() {
		// Logic: If the stored "last reset" timestamp is NOT today, then the usage stored
		// belongs to a previous day. So we reset it.

		user.AiDailyUsage = 0
		user.AiDailyUsageLastReset = now

		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// getUserPlan gets the user's current plan or returns default free plan
func (s *planService) getUserPlan(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.SubscriptionPlan, error) {
	// Get all subscriptions for the user, ordered by creation (newest first)
	subs, err := uow.SubscriptionRepository().FindAllSubscriptions(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	var activeSub *entity.UserSubscription
	// Find the most recent active or paid subscription
	for _, sub := range subs {
		// Priority 1: Active
		if sub.Status == entity.SubscriptionStatusActive && sub.CurrentPeriodEnd.After(time.Now()) {
			activeSub = sub
			break
		}
		// Priority 2: Canceled but still within billing period (access retained)
		if sub.Status == entity.SubscriptionStatusCanceled && sub.CurrentPeriodEnd.After(time.Now()) {
			activeSub = sub
			break
		}
		// Priority 3: Just paid (fallback)
		if sub.PaymentStatus == entity.PaymentStatusPaid && sub.CurrentPeriodEnd.After(time.Now()) {
			activeSub = sub
			break
		}
	}

	if activeSub != nil {
		// Get the plan
		plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: activeSub.PlanId})
		if err != nil {
			return nil, err
		}
		if plan != nil {
			return plan, nil
		}
	}

	// Prefer the seeded free plan row so limits stay configurable
	freePlan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.Filter("slug", "free"))
	if err == nil && freePlan != nil {
		return freePlan, nil
	}

	// Return default free plan limits
	return &entity.SubscriptionPlan{
		Name:                 "Free Plan",
		Slug:                 "free",
		MaxDocuments:         20,
		AiAnalysisDailyLimit: 5,
	}, nil
}

// Helper to get effective limit (override takes precedence)
func (s *planService) getEffectiveLimit(planLimit int, override *int) int {
	if override != nil {
		return *override
	}
	return planLimit
}

// Helper to check if usage is within limit
func (s *planService) canUseLimit(used int, limit int) bool {
	if limit < 0 {
		return true // Unlimited
	}
	return used < limit
}
