// Package faq persists the frequently-asked-question knowledge base the
// assistant answers from and contributes to.
package faq

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors, checked with errors.Is().
var (
	// ErrNotFound indicates no matching FAQ entry exists.
	ErrNotFound = errors.New("faq entry not found")
)

// Entry is one question/answer pair in the knowledge base.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
