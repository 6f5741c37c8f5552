// Package document persists generated documents and writing suggestions.
//
// Documents are versioned by (id, created_at): every save appends a new row
// with the same ID, and readers take the newest row. Suggestions reference
// the document version they were produced against.
package document

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors, checked with errors.Is().
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")
)

// Document is one saved version of a generated text document.
type Document struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	OwnerID   uuid.UUID `json:"ownerId"`
}

// Suggestion is one writing improvement tied to a document version.
type Suggestion struct {
	ID                uuid.UUID `json:"id"`
	DocumentID        uuid.UUID `json:"documentId"`
	DocumentCreatedAt time.Time `json:"documentCreatedAt"`
	OriginalText      string    `json:"originalText"`
	SuggestedText     string    `json:"suggestedText"`
	Description       string    `json:"description"`
	IsResolved        bool      `json:"isResolved"`
	OwnerID           uuid.UUID `json:"ownerId"`
	CreatedAt         time.Time `json:"createdAt"`
}
