package main

import (
	"log"
	"os"

	"voc-chatbot-be/internal/model"
	"voc-chatbot-be/pkg/database"

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

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.KnowledgeCase{},
		&model.CaseEmbedding{},
		&model.ConversationTurn{},
		&model.ConversationSummary{},
		&model.AdminUser{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Views
	log.Println("Step 3: Creating Views...")

	postMigrationSQL := []string{
		// View: searchable_cases joins the live case catalog with its embeddings
		`CREATE OR REPLACE VIEW searchable_cases AS
		 SELECT kc.id AS case_id, kc.case_name, kc.issue_type, ce.embedding_value AS embedding
		 FROM knowledge_cases kc JOIN case_embeddings ce ON kc.id = ce.case_id
		 WHERE kc.deleted_at IS NULL;`,

		// View: escalation_overview for support supervisors
		`CREATE OR REPLACE VIEW escalation_overview AS
		 SELECT cs.session_id, cs.final_issue, cs.final_case, cs.turn_count, cs.started_at, cs.ended_at
		 FROM conversation_summaries cs
		 WHERE cs.escalated
		 ORDER BY cs.ended_at DESC;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
