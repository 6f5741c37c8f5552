// Package cmd provides the CLI commands for faqbot.
//
// Commands:
//   - serve: HTTP API server with SSE chat streaming
//   - migrate: apply pending database migrations and exit
//   - version: show build information
//
// Signal handling and graceful shutdown are implemented via context
// cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/baygut/faq-chat-bot/internal/log"
)

// Execute is the main entry point for the faqbot binary.
func Execute() error {
	logger := newLogger()
	slog.SetDefault(logger)

	// No arguments starts the server, so the container entrypoint can be
	// just the binary.
	if len(os.Args) < 2 {
		return runServe(logger)
	}

	switch os.Args[1] {
	case "serve":
		return runServe(logger)
	case "migrate":
		return runMigrate(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// newLogger builds the process-wide logger. The DEBUG environment
// variable (any value) enables debug level output.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: os.Getenv("LOG_FORMAT") == "json"})
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("faqbot - FAQ-oriented chat service")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  faqbot serve [addr]  Start HTTP API server (default command, addr :8080)")
	fmt.Println("  faqbot migrate       Apply pending database migrations")
	fmt.Println("  faqbot --version     Show version information")
	fmt.Println("  faqbot --help        Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY           Gemini API key (provider: gemini)")
	fmt.Println("  OPENAI_API_KEY           OpenAI API key (provider: openai)")
	fmt.Println("  DATABASE_URL             PostgreSQL connection URL")
	fmt.Println("  FAQBOT_IDENTITY_SECRET   HMAC secret for identity tokens")
	fmt.Println("  DEBUG                    Enable debug logging")
	fmt.Println("  LOG_FORMAT               Set to \"json\" for JSON logs")
}
