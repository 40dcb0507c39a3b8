package main

import (
	"context"
	"log"

	"voc-chatbot-be/internal/bootstrap"
	"voc-chatbot-be/internal/config"
	"voc-chatbot-be/internal/server"
	"voc-chatbot-be/internal/tracer"
	"voc-chatbot-be/pkg/database"
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

	// 4. Seed the admin account if configured
	if err := container.AuthService.EnsureSeedAdmin(context.Background(), cfg.Auth.SeedAdminEmail, cfg.Auth.SeedAdminPass); err != nil {
		log.Printf("Seed admin error: %v", err)
	}

	// 5. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()
	container.AnalyticsService.StartSweeper(context.Background())

	// 6. Initialize Server
	srv := server.New(cfg, container)

	// 7. Run Server
	log.Fatal(srv.Run())
}
