package main

import (
	"log"
	"os"

	"ai-docpilot-be/internal/model"
	"ai-docpilot-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding Subscription Plans...")

	plans := []model.SubscriptionPlan{
		{
			Name:                 "Free",
			Slug:                 "free",
			Description:          "Write and store up to 10 documents with a small daily AI analysis quota",
			Price:                0,
			BillingPeriod:        "monthly",
			MaxDocuments:         10,
			AiAnalysisDailyLimit: 5,
			IsActive:             true,
		},
		{
			Name:                 "Pro Monthly",
			Slug:                 "pro-monthly",
			Description:          "Unlimited documents and unlimited AI analysis runs",
			Price:                49000,
			TaxRate:              0.11,
			BillingPeriod:        "monthly",
			MaxDocuments:         -1,
			AiAnalysisDailyLimit: -1,
			IsActive:             true,
		},
		{
			Name:                 "Pro Yearly",
			Slug:                 "pro-yearly",
			Description:          "Unlimited documents and unlimited AI analysis runs, billed yearly",
			Price:                490000,
			TaxRate:              0.11,
			BillingPeriod:        "yearly",
			MaxDocuments:         -1,
			AiAnalysisDailyLimit: -1,
			IsActive:             true,
		},
	}

	for _, p := range plans {
		var existing model.SubscriptionPlan
		if err := db.Where("slug = ?", p.Slug).First(&existing).Error; err == nil {
			log.Printf("Plan '%s' already exists, skipping...", p.Slug)
			continue
		}

		if err := db.Create(&p).Error; err != nil {
			log.Printf("Error: Failed to seed plan '%s': %v", p.Slug, err)
			continue
		}
		log.Printf("Seeded plan '%s'", p.Slug)
	}

	log.Println("✅ Seeding completed.")
}
