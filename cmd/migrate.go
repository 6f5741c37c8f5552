package cmd

import (
	"fmt"

	"github.com/baygut/faq-chat-bot/db"
	"github.com/baygut/faq-chat-bot/internal/config"
	"github.com/baygut/faq-chat-bot/internal/log"
)

// runMigrate applies pending database migrations and exits.
// The serve command also migrates at startup; this command exists for
// deployments that run migrations as a separate step.
func runMigrate(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	logger.Info("database schema up to date")
	return nil
}
