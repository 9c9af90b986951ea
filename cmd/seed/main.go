package main

import (
	"context"
	"flag"
	"log"

	"oss-clearance-be/internal/config"
	"oss-clearance-be/internal/pkg/logger"
	"oss-clearance-be/internal/repository/unitofwork"
	"oss-clearance-be/internal/service"
	"oss-clearance-be/pkg/database"
	"oss-clearance-be/pkg/embedding"
	"oss-clearance-be/pkg/knowledge"
)

func main() {
	cfg := config.Load()

	file := flag.String("file", cfg.Knowledge.File, "knowledge base JSON file")
	noEmbed := flag.Bool("no-embed", false, "skip embedding reference passages")
	flag.Parse()

	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	base, err := knowledge.LoadFile(*file)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	var embedder embedding.Provider
	if !*noEmbed && cfg.Ai.EmbeddingProvider != "" {
		embedder, err = embedding.NewProvider(cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel, cfg.Ai.EmbeddingBaseURL, cfg.Ai.LLMAPIKey)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
	}

	svc := service.NewKnowledgeService(unitofwork.NewRepositoryFactory(db), embedder, logger.NewZapLogger(cfg.App.LogFilePath, false))

	ctx := context.Background()
	if before, err := svc.Stats(ctx); err == nil {
		log.Printf("Replacing %d components and %d notes", before.Components, before.Notes)
	}

	log.Printf("Seeding knowledge base from %s...", *file)
	stats, err := svc.Import(ctx, base.Dataset())
	if err != nil {
		log.Fatalf("Error: Import failed: %v", err)
	}
	log.Printf("✅ Seeded %d components, %d notes, %d reference passages", stats.Components, stats.Notes, stats.References)
}
