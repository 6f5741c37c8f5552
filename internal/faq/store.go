package faq

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baygut/faq-chat-bot/internal/log"
)

// Store manages FAQ persistence with a PostgreSQL backend.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, logger: logger}
}

// Save records a new question/answer pair.
func (s *Store) Save(ctx context.Context, question, answer string) (*Entry, error) {
	const q = `
		INSERT INTO faqs (question, answer)
		VALUES ($1, $2)
		RETURNING id, question, answer, category, created_at, updated_at`

	entry, err := scanEntry(s.pool.QueryRow(ctx, q, question, answer))
	if err != nil {
		return nil, fmt.Errorf("failed to save faq: %w", err)
	}

	s.logger.Debug("saved faq entry", "id", entry.ID)
	return entry, nil
}

// Search returns the best entry for a question, preferring the most recently
// updated match. Matching is a case-insensitive substring match in both
// directions, so "how do I reset my password?" finds an entry stored as
// "reset my password". Returns ErrNotFound when nothing matches.
func (s *Store) Search(ctx context.Context, question string) (*Entry, error) {
	const q = `
		SELECT id, question, answer, category, created_at, updated_at
		FROM faqs
		WHERE question ILIKE '%' || $1 || '%'
		   OR $1 ILIKE '%' || question || '%'
		ORDER BY updated_at DESC
		LIMIT 1`

	entry, err := scanEntry(s.pool.QueryRow(ctx, q, question))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to search faqs: %w", err)
	}
	return entry, nil
}

// List returns the most recently created entries, up to limit.
func (s *Store) List(ctx context.Context, limit int32) ([]*Entry, error) {
	const q = `
		SELECT id, question, answer, category, created_at, updated_at
		FROM faqs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan faq entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate faqs: %w", err)
	}
	return out, nil
}

// scanEntry reads one entry from a row produced by the standard column list.
func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var id pgtype.UUID
	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&id, &e.Question, &e.Answer, &e.Category, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.ID = uuid.UUID(id.Bytes)
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time
	return &e, nil
}
