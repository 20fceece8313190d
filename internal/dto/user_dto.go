// FILE: internal/dto/user_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserProfileResponse struct {
	Id           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	AvatarURL    string    `json:"avatar_url,omitempty"` // Avatar URL (omit if empty)
	AiDailyUsage int       `json:"ai_daily_usage"`
	CreatedAt    time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,min=3"`
	Email    string `json:"email" validate:"omitempty,email"` // Optional email update
}

// Feature flags structure
type SubscriptionFeatures struct {
	AiAnalysis   bool `json:"ai_analysis"`
	MaxDocuments int  `json:"max_documents"`
}

type SubscriptionStatusResponse struct {
	SubscriptionId       uuid.UUID            `json:"subscription_id"`
	PlanName             string               `json:"plan_name"`
	Status               string               `json:"status"`
	CurrentPeriodEnd     time.Time            `json:"current_period_end"`
	AiAnalysisDailyLimit int                  `json:"ai_analysis_daily_limit"`
	IsActive             bool                 `json:"is_active"`
	Features             SubscriptionFeatures `json:"features"`
}

// SubscriptionValidationResponse for checking subscription validity
type SubscriptionValidationResponse struct {
	IsValid          bool       `json:"is_valid"`
	Status           string     `json:"status"` // active, canceled, expired, grace_period, free_tier, inactive
	RenewalRequired  bool       `json:"renewal_required"`
	CurrentPeriodEnd time.Time  `json:"current_period_end,omitempty"`
	DaysRemaining    int        `json:"days_remaining,omitempty"`
	GracePeriodEnd   *time.Time `json:"grace_period_end,omitempty"`
	PlanName         string     `json:"plan_name,omitempty"`
}
