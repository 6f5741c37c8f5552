// Package app assembles the service: configuration, tracing, database,
// Genkit, the tool registry, the turn orchestrator, and the HTTP API.
package app

import (
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baygut/faq-chat-bot/internal/api"
	"github.com/baygut/faq-chat-bot/internal/chat"
	"github.com/baygut/faq-chat-bot/internal/config"
	"github.com/baygut/faq-chat-bot/internal/log"
	"github.com/baygut/faq-chat-bot/internal/model"
	"github.com/baygut/faq-chat-bot/internal/tools"
)

// App is the assembled application container.
type App struct {
	Config       *config.Config
	Logger       log.Logger
	Genkit       *genkit.Genkit
	Pool         *pgxpool.Pool
	Catalog      *model.Catalog
	Registry     *tools.Registry
	Orchestrator *chat.Orchestrator
	Server       *api.Server

	otelCleanup func()
}

// Close releases all resources in reverse initialization order.
func (a *App) Close() {
	a.Logger.Info("shutting down application")

	if a.Pool != nil {
		a.Pool.Close()
		a.Logger.Debug("database pool closed")
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
}
