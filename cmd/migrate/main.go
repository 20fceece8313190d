package main

import (
	"log"
	"os"

	"ai-docpilot-be/internal/model"
	"ai-docpilot-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions & Enums (Things GORM AutoMigrate doesn't do perfectly)
	log.Println("Step 1: Setting up Extensions and Enums...")

	setupSQL := []string{
		// Extensions
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,

		// Enums (Idempotent creation)
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'billing_period') THEN CREATE TYPE billing_period AS ENUM ('monthly', 'yearly'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_status') THEN CREATE TYPE payment_status AS ENUM ('pending', 'success', 'failed', 'refunded'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'subscription_status') THEN CREATE TYPE subscription_status AS ENUM ('active', 'inactive', 'canceled', 'trial'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_status') THEN CREATE TYPE user_status AS ENUM ('pending', 'active', 'suspended', 'deleted'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'analysis_run_status') THEN CREATE TYPE analysis_run_status AS ENUM ('queued', 'running', 'completed', 'failed'); END IF; END $$;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models (The Core Task)
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.User{},
		&model.PasswordResetToken{},
		&model.UserProvider{},
		&model.EmailVerificationToken{},
		&model.UserRefreshToken{},
		&model.Document{},
		&model.DocumentEmbedding{},
		&model.AnalysisRun{},
		&model.SuggestionRecord{},
		&model.DiagramRecord{},
		&model.SubscriptionPlan{},
		&model.UserSubscription{},
		&model.Notification{},
	}

	// Migrate strictly
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Indexes & Views
	log.Println("Step 3: Creating Indexes and Views...")

	postMigrationSQL := []string{
		// ivfflat index for the embedding similarity scan used by analysis
		// context retrieval. Dimension must match the embedding column.
		`CREATE INDEX IF NOT EXISTS idx_document_embeddings_embedding
		 ON document_embeddings USING ivfflat (embedding_value vector_cosine_ops) WITH (lists = 100);`,

		// View: user_payment_history
		`CREATE OR REPLACE VIEW user_payment_history AS
		 SELECT us.user_id, u.full_name, sp.name AS plan_name, sp.price, us.payment_status, us.midtrans_transaction_id, us.created_at AS payment_date
		 FROM user_subscriptions us
		 JOIN users u ON us.user_id = u.id
		 JOIN subscription_plans sp ON us.plan_id = sp.id
		 ORDER BY us.created_at DESC;`,

		// View: latest completed analysis run per document
		`CREATE OR REPLACE VIEW latest_analysis_runs AS
		 SELECT DISTINCT ON (document_id) *
		 FROM analysis_runs
		 WHERE status = 'completed'
		 ORDER BY document_id, started_at DESC;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
