package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lectern/lectern/db"
	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/ingest"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
	"github.com/lectern/lectern/internal/session"
	"github.com/lectern/lectern/internal/tools"
	"github.com/lectern/lectern/internal/vectorstore"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup. Call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	a.Store = vectorstore.New(
		vectorstore.NewQueries(pool),
		embedder,
		cfg.MaxResults,
		logger.With("component", "vectorstore"),
	)

	registry, err := provideTools(g, a.Store, logger)
	if err != nil {
		return nil, err
	}
	a.Registry = registry

	a.Sessions = session.NewMemoryStore(cfg.MaxHistory)

	orchestrator := rag.NewOrchestrator(g, registry, rag.Config{
		ModelName:   cfg.FullModelName(),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, logger.With("component", "rag"))

	a.System = rag.NewSystem(orchestrator, a.Sessions, a.Store, logger.With("component", "system"))

	server, err := api.NewServer(api.ServerConfig{
		Logger:      logger.With("component", "api"),
		Service:     a.System,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	a.Server = server

	_, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	return a, nil
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, error) {
	connStr := cfg.ConnectionString()

	if err := db.Migrate(connStr, logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the Gemini provider.
// GEMINI_API_KEY is read from the environment by the plugin.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	return g, nil
}

// provideTools creates the retrieval tools and registers them with Genkit.
func provideTools(g *genkit.Genkit, store *vectorstore.Store, logger log.Logger) (*tools.Registry, error) {
	registry := tools.NewRegistry(logger.With("component", "tools"))

	search := tools.NewSearchTool(store, logger.With("tool", tools.SearchToolName))
	if err := registry.Register(g, search); err != nil {
		return nil, fmt.Errorf("registering search tool: %w", err)
	}

	outline := tools.NewOutlineTool(store, logger.With("tool", tools.OutlineToolName))
	if err := registry.Register(g, outline); err != nil {
		return nil, fmt.Errorf("registering outline tool: %w", err)
	}

	return registry, nil
}

// Ingest loads transcripts from the configured docs folder into the vector
// store, skipping courses that are already present.
func (a *App) Ingest(ctx context.Context) error {
	chunker := ingest.NewChunker(a.Config.ChunkSize, a.Config.ChunkOverlap)
	loader := ingest.NewLoader(a.Store, chunker, a.Logger.With("component", "ingest"))

	added, err := loader.LoadFolder(ctx, a.Config.DocsDir)
	if err != nil {
		return fmt.Errorf("loading transcripts: %w", err)
	}

	count, err := a.Store.CountCourses(ctx)
	if err != nil {
		return fmt.Errorf("counting courses: %w", err)
	}
	a.Logger.Info("corpus ready", "added", added, "total_courses", count)
	return nil
}
