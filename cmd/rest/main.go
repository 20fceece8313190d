package main

import (
	"context"
	"log"

	"ai-docpilot-be/internal/bootstrap"
	"ai-docpilot-be/internal/config"
	"ai-docpilot-be/internal/server"
	"ai-docpilot-be/internal/tracer"
	"ai-docpilot-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Workers
	// Note: In a larger app, we might use an errgroup or supervisor here
	go func() {
		log.Println("Background: Starting Embedding Consumer...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Embedding Consumer Error: %v", err)
		}
	}()
	go func() {
		log.Println("Background: Starting Analysis Worker...")
		if err := container.AnalysisService.Consume(context.Background()); err != nil {
			log.Printf("Background Analysis Worker Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
