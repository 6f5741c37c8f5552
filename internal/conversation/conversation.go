// Package conversation persists chat conversations and their messages.
package conversation

import (
	"errors"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// Sentinel errors, checked with errors.Is().
var (
	// ErrNotFound indicates the requested conversation does not exist.
	ErrNotFound = errors.New("conversation not found")
)

// Conversation is one chat thread owned by a single identity.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is one turn element within a conversation. Content holds the
// model-native parts (text, tool requests, tool responses) serialized as
// JSONB, so a conversation can be replayed back into the gateway verbatim.
type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversationId"`
	Role           ai.Role    `json:"role"`
	Content        []*ai.Part `json:"content"`
	SequenceNumber int64      `json:"sequenceNumber"`
	CreatedAt      time.Time  `json:"createdAt"`
}
