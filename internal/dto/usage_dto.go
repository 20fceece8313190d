// FILE: internal/dto/usage_dto.go
// DTOs for usage limits and status checking
package dto

import (
	"time"

	"github.com/google/uuid"
)

// UsageLimit represents a single limit status
type UsageLimit struct {
	Used     int        `json:"used"`
	Limit    int        `json:"limit"` // -1 = unlimited, 0 = disabled
	CanUse   bool       `json:"can_use"`
	ResetsAt *time.Time `json:"resets_at,omitempty"` // For daily limits
}

// StorageLimits for cumulative resources (documents)
type StorageLimits struct {
	Documents UsageLimit `json:"documents"`
}

// DailyLimits for usage that resets daily
type DailyLimits struct {
	AiAnalysis UsageLimit `json:"ai_analysis"`
}

// UsageStatusResponse is returned by GET /api/user/usage-status
type UsageStatusResponse struct {
	Plan             PlanInfo      `json:"plan"`
	Storage          StorageLimits `json:"storage"`
	Daily            DailyLimits   `json:"daily"`
	UpgradeAvailable bool          `json:"upgrade_available"`
}

type PlanInfo struct {
	Id   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// LimitType constants for error handling
const (
	LimitTypeDocuments  = "documents"
	LimitTypeAiAnalysis = "ai_analysis"
)
