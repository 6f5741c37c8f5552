package api

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baygut/faq-chat-bot/internal/chat"
	"github.com/baygut/faq-chat-bot/internal/log"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger         log.Logger
	Orchestrator   *chat.Orchestrator // Required
	FaqStore       FaqLister          // Required
	Documents      DocumentReader     // Required
	Pool           *pgxpool.Pool      // Optional: nil disables pool stats in /ready
	IdentitySecret []byte             // Required: 32+ bytes, signs the uid cookie
	CORSOrigins    []string           // Allowed origins for CORS
	IsDev          bool               // Enables HTTP cookies (no Secure flag)
	TrustProxy     bool               // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RateBurst      int                // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON/SSE API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	if cfg.FaqStore == nil {
		return nil, errors.New("faq store is required")
	}
	if cfg.Documents == nil {
		return nil, errors.New("document store is required")
	}
	if len(cfg.IdentitySecret) < 32 {
		return nil, errors.New("identity secret must be at least 32 bytes")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	im := &identityManager{
		secret: cfg.IdentitySecret,
		isDev:  cfg.IsDev,
		logger: logger,
	}

	ch := &chatHandler{orch: cfg.Orchestrator, logger: logger}
	cv := &conversationsHandler{orch: cfg.Orchestrator, logger: logger}
	fh := &faqHandler{store: cfg.FaqStore, logger: logger}
	dh := &documentsHandler{store: cfg.Documents, logger: logger}

	mux := http.NewServeMux()

	// Identity provisioning
	mux.HandleFunc("GET /api/v1/identity", im.issueIdentity)

	// Chat turns
	mux.HandleFunc("POST /api/v1/chat", ch.turn)
	mux.HandleFunc("DELETE /api/v1/chat", ch.deleteConversation)

	// Conversation reads
	mux.HandleFunc("GET /api/v1/conversations", cv.list)
	mux.HandleFunc("GET /api/v1/conversations/{id}/messages", cv.messages)

	// Document version history
	mux.HandleFunc("GET /api/v1/documents/{id}", dh.versions)

	// FAQ listing
	mux.HandleFunc("GET /api/v1/faq", fh.list)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Identity → Routes
	// RequestID must be before Logging so request_id is available in log attributes.
	// CORS must be before RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = identityMiddleware(im)(handler)
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Wrap with security headers
	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Use a top-level mux to separate health probes from middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
