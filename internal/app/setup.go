package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/baygut/faq-chat-bot/db"
	"github.com/baygut/faq-chat-bot/internal/api"
	"github.com/baygut/faq-chat-bot/internal/chat"
	"github.com/baygut/faq-chat-bot/internal/config"
	"github.com/baygut/faq-chat-bot/internal/conversation"
	"github.com/baygut/faq-chat-bot/internal/database"
	"github.com/baygut/faq-chat-bot/internal/document"
	"github.com/baygut/faq-chat-bot/internal/faq"
	"github.com/baygut/faq-chat-bot/internal/gateway"
	"github.com/baygut/faq-chat-bot/internal/log"
	"github.com/baygut/faq-chat-bot/internal/model"
	"github.com/baygut/faq-chat-bot/internal/observability"
	"github.com/baygut/faq-chat-bot/internal/tools"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	// Tracing must be registered before Genkit initialization so generation
	// spans reach the exporter.
	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.Pool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g
	a.Catalog = provideCatalog(cfg)

	gw := gateway.NewGenkit(g, logger)

	conversations := conversation.NewStore(pool, logger)
	documents := document.NewStore(pool, logger)
	faqs := faq.NewStore(pool, logger)

	registry, err := provideRegistry(gw, documents, faqs, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Registry = registry
	registry.Register(g)

	orch, err := chat.New(chat.Config{
		Gateway:       gw,
		Conversations: conversations,
		Faqs:          faqs,
		Catalog:       a.Catalog,
		ToolNames:     registry.Names(),
		MaxToolRounds: cfg.MaxToolRounds,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}
	a.Orchestrator = orch

	server, err := api.NewServer(api.ServerConfig{
		Logger:         logger,
		Orchestrator:   orch,
		FaqStore:       faqs,
		Documents:      documents,
		Pool:           pool,
		IdentitySecret: []byte(cfg.IdentitySecret),
		CORSOrigins:    cfg.CORSOrigins,
		IsDev:          cfg.Datadog.Environment == "dev",
		TrustProxy:     cfg.TrustProxy,
		RateBurst:      cfg.RateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	a.Server = server

	return a, nil
}

// provideOtelShutdown sets up Datadog tracing and returns a cleanup that
// flushes pending spans.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	shutdown, err := observability.SetupDatadog(ctx, observability.Config{
		AgentHost:   cfg.Datadog.AgentHost,
		Environment: cfg.Datadog.Environment,
		ServiceName: cfg.Datadog.ServiceName,
	}, logger)
	if err != nil {
		logger.Warn("setting up tracing", "error", err)
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the configured AI provider plugin.
// Supports gemini (default), ollama, and openai providers.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.DefaultModel,
			Type: "chat",
		}, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.DefaultModel, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized Genkit with openai provider", "model", cfg.DefaultModel)

	default: // gemini / googleai
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.DefaultModel)
	}

	return g, nil
}

// provideCatalog builds the chat model catalog for the configured provider.
// The Gemini providers get the stock lineup; ollama and openai run a single
// configured model, since their deployments name models locally.
func provideCatalog(cfg *config.Config) *model.Catalog {
	switch cfg.Provider {
	case config.ProviderOllama, config.ProviderOpenAI:
		return model.NewCatalog(model.Model{
			ID:          cfg.DefaultModel,
			Label:       cfg.DefaultModel,
			GatewayName: cfg.FullModelName(cfg.DefaultModel),
		})
	default:
		return model.DefaultCatalog(cfg.DefaultModel)
	}
}

// provideRegistry constructs the immutable tool registry from the three
// toolsets.
func provideRegistry(gw gateway.Gateway, documents *document.Store, faqs *faq.Store, cfg *config.Config, logger log.Logger) (*tools.Registry, error) {
	weather, err := tools.NewWeatherToolset(cfg.WeatherBaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("creating weather toolset: %w", err)
	}
	docs, err := tools.NewDocumentToolset(gw, documents, logger)
	if err != nil {
		return nil, fmt.Errorf("creating document toolset: %w", err)
	}
	knowledge, err := tools.NewFaqToolset(faqs, logger)
	if err != nil {
		return nil, fmt.Errorf("creating faq toolset: %w", err)
	}

	var all []*tools.Tool
	all = append(all, weather.Tools()...)
	all = append(all, docs.Tools()...)
	all = append(all, knowledge.Tools()...)

	return tools.NewRegistry(all...), nil
}
