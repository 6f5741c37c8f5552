package document

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

// Store manages document and suggestion persistence with a PostgreSQL backend.
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

// Save appends a new version of a document. The caller supplies the document
// ID; saving with an existing ID records a new version rather than updating
// in place.
func (s *Store) Save(ctx context.Context, doc *Document) error {
	const q = `
		INSERT INTO documents (id, title, content, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	var createdAt pgtype.Timestamptz
	err := s.pool.QueryRow(ctx, q,
		uuidToPgUUID(doc.ID), doc.Title, doc.Content, uuidToPgUUID(doc.OwnerID),
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
	}
	doc.CreatedAt = createdAt.Time

	s.logger.Debug("saved document", "id", doc.ID, "title", doc.Title)
	return nil
}

// GetLatest returns the newest version of a document.
// Returns ErrNotFound if no version exists.
func (s *Store) GetLatest(ctx context.Context, id uuid.UUID) (*Document, error) {
	const q = `
		SELECT id, created_at, title, content, owner_id
		FROM documents
		WHERE id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var doc Document
	var did, owner pgtype.UUID
	var createdAt pgtype.Timestamptz
	err := s.pool.QueryRow(ctx, q, uuidToPgUUID(id)).
		Scan(&did, &createdAt, &doc.Title, &doc.Content, &owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	doc.ID = pgUUIDToUUID(did)
	doc.CreatedAt = createdAt.Time
	doc.OwnerID = pgUUIDToUUID(owner)
	return &doc, nil
}

// ListVersions returns all versions of a document, oldest first.
func (s *Store) ListVersions(ctx context.Context, id uuid.UUID) ([]*Document, error) {
	const q = `
		SELECT id, created_at, title, content, owner_id
		FROM documents
		WHERE id = $1
		ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, q, uuidToPgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to list document versions: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		var doc Document
		var did, owner pgtype.UUID
		var createdAt pgtype.Timestamptz
		if err := rows.Scan(&did, &createdAt, &doc.Title, &doc.Content, &owner); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.ID = pgUUIDToUUID(did)
		doc.CreatedAt = createdAt.Time
		doc.OwnerID = pgUUIDToUUID(owner)
		out = append(out, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate document versions: %w", err)
	}
	return out, nil
}

// SaveSuggestions stores a batch of suggestions in one transaction.
func (s *Store) SaveSuggestions(ctx context.Context, suggestions []*Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	for i, sug := range suggestions {
		id := sug.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO suggestions
				(id, document_id, document_created_at, original_text, suggested_text, description, is_resolved, owner_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuidToPgUUID(id),
			uuidToPgUUID(sug.DocumentID),
			pgtype.Timestamptz{Time: sug.DocumentCreatedAt, Valid: true},
			sug.OriginalText,
			sug.SuggestedText,
			sug.Description,
			sug.IsResolved,
			uuidToPgUUID(sug.OwnerID),
		)
		if err != nil {
			return fmt.Errorf("failed to insert suggestion %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("saved suggestions", "count", len(suggestions))
	return nil
}

// GetSuggestions returns all suggestions recorded for a document, oldest first.
func (s *Store) GetSuggestions(ctx context.Context, documentID uuid.UUID) ([]*Suggestion, error) {
	const q = `
		SELECT id, document_id, document_created_at, original_text, suggested_text,
		       description, is_resolved, owner_id, created_at
		FROM suggestions
		WHERE document_id = $1
		ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, q, uuidToPgUUID(documentID))
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestions: %w", err)
	}
	defer rows.Close()

	var out []*Suggestion
	for rows.Next() {
		var sug Suggestion
		var sid, did, owner pgtype.UUID
		var docCreatedAt, createdAt pgtype.Timestamptz
		if err := rows.Scan(&sid, &did, &docCreatedAt, &sug.OriginalText, &sug.SuggestedText,
			&sug.Description, &sug.IsResolved, &owner, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		sug.ID = pgUUIDToUUID(sid)
		sug.DocumentID = pgUUIDToUUID(did)
		sug.DocumentCreatedAt = docCreatedAt.Time
		sug.OwnerID = pgUUIDToUUID(owner)
		sug.CreatedAt = createdAt.Time
		out = append(out, &sug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suggestions: %w", err)
	}
	return out, nil
}

func uuidToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgUUIDToUUID(id pgtype.UUID) uuid.UUID {
	return uuid.UUID(id.Bytes)
}
