package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baygut/faq-chat-bot/internal/log"
)

// Store manages conversation persistence with a PostgreSQL backend.
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

// Create creates a new conversation for the given owner. Clients mint the
// conversation ID up front so a thread can be addressed before its first
// message lands; a nil ID gets a fresh one.
func (s *Store) Create(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, title string) (*Conversation, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}

	const q = `
		INSERT INTO conversations (id, owner_id, title)
		VALUES ($1, $2, $3)
		RETURNING id, owner_id, title, created_at, updated_at`

	var c Conversation
	var cid, owner pgtype.UUID
	var createdAt, updatedAt pgtype.Timestamptz
	err := s.pool.QueryRow(ctx, q, uuidToPgUUID(id), uuidToPgUUID(ownerID), title).
		Scan(&cid, &owner, &c.Title, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	c.ID = pgUUIDToUUID(cid)
	c.OwnerID = pgUUIDToUUID(owner)
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	s.logger.Debug("created conversation", "id", c.ID, "owner_id", c.OwnerID)
	return &c, nil
}

// Get retrieves a conversation by ID. Returns ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	const q = `
		SELECT id, owner_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1`

	var c Conversation
	var cid, owner pgtype.UUID
	var createdAt, updatedAt pgtype.Timestamptz
	err := s.pool.QueryRow(ctx, q, uuidToPgUUID(id)).
		Scan(&cid, &owner, &c.Title, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation %s: %w", id, err)
	}
	c.ID = pgUUIDToUUID(cid)
	c.OwnerID = pgUUIDToUUID(owner)
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return &c, nil
}

// ListByOwner lists an owner's conversations, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Conversation, error) {
	const q = `
		SELECT id, owner_id, title, created_at, updated_at
		FROM conversations
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, uuidToPgUUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var out []*Conversation
	for rows.Next() {
		var c Conversation
		var cid, owner pgtype.UUID
		var createdAt, updatedAt pgtype.Timestamptz
		if err := rows.Scan(&cid, &owner, &c.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		c.ID = pgUUIDToUUID(cid)
		c.OwnerID = pgUUIDToUUID(owner)
		c.CreatedAt = createdAt.Time
		c.UpdatedAt = updatedAt.Time
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	s.logger.Debug("listed conversations", "owner_id", ownerID, "count", len(out))
	return out, nil
}

// Delete deletes a conversation and all its messages (CASCADE).
// Returns ErrNotFound if the conversation does not exist.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, uuidToPgUUID(id))
	if err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted conversation", "id", id)
	return nil
}

// AddMessages appends messages to a conversation in one transaction.
// Sequence numbers are assigned under a row lock on the conversation, so
// concurrent appends from separate turns never collide. Messages keep the
// IDs the caller assigned (callers mint them up front so they can be
// announced to the client before the write lands).
func (s *Store) AddMessages(ctx context.Context, conversationID uuid.UUID, messages []*Message) error {
	if len(messages) == 0 {
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

	// Row lock serializes sequence number assignment per conversation.
	var locked pgtype.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM conversations WHERE id = $1 FOR UPDATE`,
		uuidToPgUUID(conversationID)).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to lock conversation: %w", err)
	}

	var maxSeq int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM messages WHERE conversation_id = $1`,
		uuidToPgUUID(conversationID)).Scan(&maxSeq)
	if err != nil {
		return fmt.Errorf("failed to get max sequence number: %w", err)
	}

	for i, msg := range messages {
		for j, part := range msg.Content {
			if part == nil {
				return fmt.Errorf("message %d has nil content at index %d", i, j)
			}
		}

		contentJSON, err := json.Marshal(msg.Content)
		if err != nil {
			return fmt.Errorf("failed to marshal message content at index %d: %w", i, err)
		}

		id := msg.ID
		if id == uuid.Nil {
			id = uuid.New()
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO messages (id, conversation_id, role, content, sequence_number)
			VALUES ($1, $2, $3, $4, $5)`,
			uuidToPgUUID(id),
			uuidToPgUUID(conversationID),
			string(msg.Role),
			contentJSON,
			maxSeq+int64(i)+1,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message %d: %w", i, err)
		}
	}

	_, err = tx.Exec(ctx, `UPDATE conversations SET updated_at = now() WHERE id = $1`,
		uuidToPgUUID(conversationID))
	if err != nil {
		return fmt.Errorf("failed to update conversation metadata: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("added messages", "conversation_id", conversationID, "count", len(messages))
	return nil
}

// GetMessages returns a conversation's messages in sequence order.
func (s *Store) GetMessages(ctx context.Context, conversationID uuid.UUID) ([]*Message, error) {
	const q = `
		SELECT id, conversation_id, role, content, sequence_number, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sequence_number ASC`

	rows, err := s.pool.Query(ctx, q, uuidToPgUUID(conversationID))
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var m Message
		var mid, cid pgtype.UUID
		var role string
		var contentJSON []byte
		var createdAt pgtype.Timestamptz
		if err := rows.Scan(&mid, &cid, &role, &contentJSON, &m.SequenceNumber, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		var content []*ai.Part
		if err := json.Unmarshal(contentJSON, &content); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message content %s: %w", pgUUIDToUUID(mid), err)
		}

		m.ID = pgUUIDToUUID(mid)
		m.ConversationID = pgUUIDToUUID(cid)
		m.Role = ai.Role(role)
		m.Content = content
		m.CreatedAt = createdAt.Time
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return out, nil
}

// uuidToPgUUID converts a google/uuid UUID to pgtype format.
func uuidToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// pgUUIDToUUID converts a pgtype UUID back to google/uuid format.
func pgUUIDToUUID(id pgtype.UUID) uuid.UUID {
	return uuid.UUID(id.Bytes)
}
