package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string
type PaymentStatus string
type BillingPeriod string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"

	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodYearly  BillingPeriod = "yearly"
)

type SubscriptionPlan struct {
	Id            uuid.UUID
	Name          string
	Slug          string
	Description   string
	Price         float64
	TaxRate       float64
	BillingPeriod BillingPeriod
	// Storage limit, -1 = unlimited
	MaxDocuments int
	// Daily AI analysis runs, 0 = disabled, -1 = unlimited
	AiAnalysisDailyLimit int
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type UserSubscription struct {
	Id                    uuid.UUID
	UserId                uuid.UUID
	PlanId                uuid.UUID
	Status                SubscriptionStatus
	CurrentPeriodStart    time.Time
	CurrentPeriodEnd      time.Time
	PaymentStatus         PaymentStatus
	MidtransTransactionId *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
