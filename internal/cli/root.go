package cli

import (
	"context"
	"fmt"

	"github.com/arturoeanton/go-video-rag-ollama/internal/adapter/ai"
	"github.com/arturoeanton/go-video-rag-ollama/internal/adapter/store"
	"github.com/arturoeanton/go-video-rag-ollama/internal/adapter/transcript"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
	"github.com/arturoeanton/go-video-rag-ollama/internal/service"
	"github.com/arturoeanton/go-video-rag-ollama/pkg/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

// NewRootCommand creates the vtchat root command.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vtchat",
		Short: "Ask questions about YouTube videos, grounded in their transcripts",
		Long: `vtchat indexes YouTube video transcripts into a vector store and answers
natural-language questions about them, grounded in the retrieved transcript
chunks. Configuration comes from environment variables (and an optional .env
file), the same set the HTTP server uses.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	rootCmd.AddCommand(newIngestCommand())
	rootCmd.AddCommand(newAskCommand())
	rootCmd.AddCommand(newVersionCommand(version))

	return rootCmd
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("vtchat", version)
		},
	}
}

// pipeline bundles the wired adapters for CLI commands.
type pipeline struct {
	cfg    *config.Config
	ai     *ai.OllamaProvider
	vector port.VectorStore
	closer func() error
}

func (p *pipeline) close() {
	if p.closer != nil {
		_ = p.closer()
	}
}

// buildPipeline wires the store and AI adapters from config, the same way
// the server entrypoint does.
func buildPipeline(ctx context.Context) (*pipeline, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	p := &pipeline{cfg: cfg}

	switch cfg.StoreBackend {
	case "postgres":
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		p.vector = store.NewPgVectorStore(pgStore)
		p.closer = pgStore.Close
	case "sqlite":
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		p.vector = sqliteStore
		p.closer = sqliteStore.Close
	default:
		p.vector = store.NewMemoryStore()
	}

	if err := p.vector.EnsureCollection(ctx, cfg.CollectionName, cfg.EmbeddingDimension); err != nil {
		p.close()
		return nil, err
	}

	p.ai = ai.NewOllamaProvider(
		ai.OllamaEndpointConfig{BaseURL: cfg.OllamaEmbedURL, Model: cfg.OllamaEmbedModel, Token: cfg.OllamaEmbedToken},
		ai.OllamaEndpointConfig{BaseURL: cfg.OllamaChatURL, Model: cfg.OllamaChatModel, Token: cfg.OllamaChatToken},
	)
	return p, nil
}

func (p *pipeline) ingestService() *service.IngestService {
	return service.NewIngestService(
		transcript.NewHTTPProvider(p.cfg.TranscriptServiceURL),
		p.ai, p.vector,
		p.cfg.CollectionName, p.cfg.TranscriptLanguage,
		p.cfg.ChunkSize, p.cfg.ChunkOverlap,
	)
}

func (p *pipeline) ragService(topK int) *service.RAGService {
	if topK <= 0 {
		topK = p.cfg.TopK
	}
	return service.NewRAGService(p.ai, p.vector, p.cfg.CollectionName, topK,
		service.PromptAssembler{MaxChars: p.cfg.MaxPromptChars})
}
