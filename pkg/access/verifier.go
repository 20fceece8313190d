package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-docpilot-be/internal/dto"
	"ai-docpilot-be/internal/entity"
	"ai-docpilot-be/internal/repository/specification"
	"ai-docpilot-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ErrDocumentLimitReached signals the plan's document cap; controllers map
// it to 403 with an upgrade hint.
var ErrDocumentLimitReached = errors.New("document limit reached for current plan")

// Verifier handles access control and usage limits
type Verifier struct{}

// NewVerifier creates a new access verifier
func NewVerifier() *Verifier {
	return &Verifier{}
}

// activePlan resolves the plan that currently governs the user. Order of
// preference: active subscription, canceled-but-not-expired (access retained
// for the paid period), freshly paid fallback. Without any of those the
// free plan applies.
func (v *Verifier) activePlan(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.SubscriptionPlan, error) {
	subs, err := uow.SubscriptionRepository().FindAllSubscriptions(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	var activeSub *entity.UserSubscription
	now := time.Now()
	for _, sub := range subs {
		if sub.Status == entity.SubscriptionStatusActive && sub.CurrentPeriodEnd.After(now) {
			activeSub = sub
			break
		}
		if sub.Status == entity.SubscriptionStatusCanceled && sub.CurrentPeriodEnd.After(now) {
			activeSub = sub
			break
		}
		if sub.PaymentStatus == entity.PaymentStatusPaid && sub.CurrentPeriodEnd.After(now) {
			activeSub = sub
			break
		}
	}

	if activeSub != nil {
		plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: activeSub.PlanId})
		if err != nil {
			return nil, err
		}
		if plan != nil {
			return plan, nil
		}
	}

	// No (valid) subscription -> free tier
	return uow.SubscriptionRepository().FindOnePlan(ctx, specification.Filter("slug", "free"))
}

// VerifyAnalysisAccess checks the user's daily AI analysis quota
func (v *Verifier) VerifyAnalysisAccess(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) error {
	// 1. Fetch User First (to check for override)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil {
		return fmt.Errorf("user not found")
	}

	// 2. Resolve governing plan
	plan, err := v.activePlan(ctx, uow, userId)
	if err != nil {
		return err
	}

	// Limit semantics: -1 unlimited, 0 feature disabled, >0 daily cap
	aiLimit := 0
	if plan != nil {
		aiLimit = plan.AiAnalysisDailyLimit
	}

	// 3. Apply Override
	if user.AiDailyLimitOverride != nil {
		aiLimit = *user.AiDailyLimitOverride
	}

	if aiLimit == 0 {
		return fmt.Errorf("feature requires pro plan")
	}

	// 4. Check Usage
	now := time.Now()
	// Check if the last reset was on a different calendar day
	// We compare Year, Month, and Day. If any differ, it's a new day.
	if now.Year() != user.AiDailyUsageLastReset.Year() || now.Month() != user.AiDailyUsageLastReset.Month() || now.Day() != user.AiDailyUsageLastReset.Day() {
		user.AiDailyUsage = 0
		user.AiDailyUsageLastReset = now
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return err
		}
	}

	// Check Limit (Limit < 0 means unlimited)
	if aiLimit >= 0 && user.AiDailyUsage >= aiLimit {
		resetTime := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		return &dto.LimitExceededError{
			Limit:      aiLimit,
			Used:       user.AiDailyUsage,
			ResetAfter: resetTime,
		}
	}

	return nil
}

// IncrementUsage bumps the daily AI analysis counter
func (v *Verifier) IncrementUsage(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) error {
	return uow.UserRepository().IncrementAiUsage(ctx, userId)
}

// VerifyDocumentLimit checks the plan's document cap before a create
func (v *Verifier) VerifyDocumentLimit(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) error {
	plan, err := v.activePlan(ctx, uow, userId)
	if err != nil {
		return err
	}

	maxDocs := 0
	if plan != nil {
		maxDocs = plan.MaxDocuments
	}
	if maxDocs < 0 {
		return nil // unlimited
	}

	count, err := uow.DocumentRepository().Count(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return err
	}
	if count >= int64(maxDocs) {
		return ErrDocumentLimitReached
	}
	return nil
}
