// Package app provides application initialization and dependency wiring.
//
// Setup builds the full component graph: database pool and migrations,
// Genkit with the Gemini provider, the vector store, the retrieval tools,
// session storage and the query system. Serve runs the HTTP server until
// the context is canceled.
package app

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
	"github.com/lectern/lectern/internal/session"
	"github.com/lectern/lectern/internal/tools"
	"github.com/lectern/lectern/internal/vectorstore"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool
	Store    *vectorstore.Store
	Registry *tools.Registry
	Sessions *session.MemoryStore
	System   *rag.System
	Server   *api.Server

	cancel context.CancelFunc
}

// Close releases all resources. Safe to call on a partially built App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.cancel != nil {
		a.cancel()
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		if a.Logger != nil {
			a.Logger.Info("database pool closed")
		}
	}

	return nil
}
