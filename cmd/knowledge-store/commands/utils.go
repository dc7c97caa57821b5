// ABOUTME: Shared bootstrap helpers for CLI commands
// ABOUTME: Builds config, logger, vector store and dispatcher from the environment
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Claire-s-Monster/knowledge-store/internal/config"
	"github.com/Claire-s-Monster/knowledge-store/internal/knowledge"
	"github.com/Claire-s-Monster/knowledge-store/internal/tools"
	"github.com/Claire-s-Monster/knowledge-store/internal/vectorstore"
	"github.com/Claire-s-Monster/knowledge-store/pkg/logger"
)

// app holds the wired server components for one process.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	backend    *vectorstore.ChromemStore
	store      *knowledge.Store
	dispatcher *tools.Dispatcher
}

// newApp loads configuration and wires the store stack.
func newApp() (*app, error) {
	// Load .env file if it exists (for API keys)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("failed to create data directories: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if quiet {
		level = "error"
	}
	log, err := logger.New(level, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	embedding, err := vectorstore.NewEmbedding(
		cfg.EmbeddingProvider, cfg.EmbeddingModel, cfg.OpenAIKey, cfg.OllamaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to configure embeddings: %w", err)
	}

	backend, err := vectorstore.NewChromemStore(vectorstore.Options{
		DataDir:    cfg.DataDir,
		Collection: cfg.CollectionName,
		Embedding:  embedding,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	store := knowledge.NewStore(backend, cfg, log)
	dispatcher := tools.NewDispatcher(store, log)

	return &app{
		cfg:        cfg,
		log:        log,
		backend:    backend,
		store:      store,
		dispatcher: dispatcher,
	}, nil
}

// close releases the app's resources.
func (a *app) close() {
	if err := a.backend.Close(); err != nil {
		a.log.Warn("error closing vector store", zap.Error(err))
	}
	_ = a.log.Sync()
}
