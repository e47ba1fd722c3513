package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/arturoeanton/go-video-rag-ollama/internal/adapter/ai"
	"github.com/arturoeanton/go-video-rag-ollama/internal/adapter/store"
	"github.com/arturoeanton/go-video-rag-ollama/internal/adapter/transcript"
	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/handler"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
	"github.com/arturoeanton/go-video-rag-ollama/internal/service"
	"github.com/arturoeanton/go-video-rag-ollama/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("🚀 Starting VideoLens AI",
		"port", cfg.Port,
		"store", cfg.StoreBackend,
		"collection", cfg.CollectionName,
		"ollama_embed", cfg.OllamaEmbedURL,
		"ollama_chat", cfg.OllamaChatURL,
	)

	ctx := context.Background()

	// ── Vector store backend ─────────────────────────────────────────────
	var (
		vectorStore   port.VectorStore
		conversations port.ConversationStore
	)
	switch cfg.StoreBackend {
	case "postgres":
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		vectorStore = store.NewPgVectorStore(pgStore)
		conversations = pgStore
	case "sqlite":
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			slog.Error("failed to open sqlite store", "error", err)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		vectorStore = sqliteStore
	default:
		vectorStore = store.NewMemoryStore()
	}

	if err := vectorStore.EnsureCollection(ctx, cfg.CollectionName, cfg.EmbeddingDimension); err != nil {
		slog.Error("failed to ensure collection", "collection", cfg.CollectionName, "error", err)
		os.Exit(1)
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	ollamaAI := ai.NewOllamaProvider(
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaEmbedURL,
			Model:   cfg.OllamaEmbedModel,
			Token:   cfg.OllamaEmbedToken,
		},
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaChatURL,
			Model:   cfg.OllamaChatModel,
			Token:   cfg.OllamaChatToken,
		},
	)
	transcripts := transcript.NewHTTPProvider(cfg.TranscriptServiceURL)

	// ── Services ─────────────────────────────────────────────────────────
	ingestService := service.NewIngestService(
		transcripts, ollamaAI, vectorStore,
		cfg.CollectionName, cfg.TranscriptLanguage,
		cfg.ChunkSize, cfg.ChunkOverlap,
	)
	ragService := service.NewRAGService(
		ollamaAI, vectorStore, cfg.CollectionName, cfg.TopK,
		service.PromptAssembler{MaxChars: cfg.MaxPromptChars},
	)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // ingestion embeds whole transcripts
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
	}))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	videoHandler := handler.NewVideoHandler(ingestService, vectorStore, cfg.CollectionName)
	videoHandler.Register(api)

	chatHandler := handler.NewChatHandler(ragService, conversations,
		domain.GenerationOptions{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens})
	chatHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
