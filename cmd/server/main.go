package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "ledger-core/internal/adapters/web"
	"ledger-core/internal/ai"
	"ledger-core/internal/app"
	"ledger-core/internal/core"
	"ledger-core/internal/db"
	"ledger-core/internal/storage/postgres"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	poster := core.NewPoster(store, store)
	calc := core.NewCalculator(store)
	classifier := core.NewClassifier(core.DefaultClassificationTable())
	assembler := core.NewAssembler(classifier, calc, store, store)

	var proposer ai.ProposerService
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		proposer = ai.NewProposer(apiKey)
	} else {
		logger.Warn("OPENAI_API_KEY is not set; AI event interpretation is disabled")
	}

	svc := app.NewAppService(store, store, poster, calc, assembler, proposer)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, logger, allowedOrigins)

	logger.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
