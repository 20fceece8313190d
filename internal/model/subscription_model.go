package model

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionPlan struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string    `gorm:"type:varchar(255);not null"`
	Slug          string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description   string    `gorm:"type:text"`
	Price         float64   `gorm:"type:decimal(10,2);not null"`
	TaxRate       float64   `gorm:"type:decimal(5,4);default:0"`
	BillingPeriod string    `gorm:"type:varchar(20);not null"`
	// Storage limit, -1 = unlimited
	MaxDocuments int `gorm:"default:10"`
	// Daily AI analysis runs, 0 = disabled, -1 = unlimited
	AiAnalysisDailyLimit int       `gorm:"default:0"`
	IsActive             bool      `gorm:"default:true"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

type UserSubscription struct {
	Id                    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId                uuid.UUID `gorm:"type:uuid;not null;index"`
	PlanId                uuid.UUID `gorm:"type:uuid;not null;index"`
	Status                string    `gorm:"type:varchar(50);not null"`
	CurrentPeriodStart    time.Time `gorm:"not null"`
	CurrentPeriodEnd      time.Time `gorm:"not null"`
	PaymentStatus         string    `gorm:"type:varchar(50);not null"`
	MidtransTransactionId *string   `gorm:"type:varchar(255)"`
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}
