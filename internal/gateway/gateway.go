// Package gateway abstracts the LLM provider behind a narrow interface.
//
// The chat orchestrator and tools talk to this interface only; the concrete
// Genkit-backed implementation lives in genkit.go. Tests substitute a
// scripted fake.
package gateway

import (
	"context"

	"github.com/firebase/genkit/go/ai"
)

// StreamFunc receives incremental text while a conversational generation runs.
type StreamFunc func(ctx context.Context, text string) error

// DeltaFunc receives incremental text while a document draft streams.
type DeltaFunc func(ctx context.Context, delta string) error

// ConverseRequest describes one tool-augmented conversational generation.
type ConverseRequest struct {
	// Model is the provider-qualified model name.
	Model string
	// System is the system prompt for this turn.
	System string
	// Messages is the full prior history plus the new user message.
	Messages []*ai.Message
	// Tools names the registered tools the model may call.
	Tools []string
	// MaxToolRounds caps tool-call iterations before the model must answer.
	MaxToolRounds int
}

// DraftRequest describes a single-shot text generation for document content.
type DraftRequest struct {
	Model  string
	System string
	Prompt string
}

// SuggestionDraft is one writing improvement proposed by the model.
type SuggestionDraft struct {
	OriginalSentence  string `json:"originalSentence"`
	SuggestedSentence string `json:"suggestedSentence"`
	Description       string `json:"description"`
}

// Gateway is the LLM provider surface the application depends on.
type Gateway interface {
	// Converse runs a tool-augmented generation, invoking stream for each
	// text chunk as it arrives. The returned response carries the final
	// message and the request history including tool traffic.
	Converse(ctx context.Context, req ConverseRequest, stream StreamFunc) (*ai.ModelResponse, error)

	// Draft generates document text, invoking stream per delta, and returns
	// the complete text.
	Draft(ctx context.Context, req DraftRequest, stream DeltaFunc) (string, error)

	// Suggest proposes writing improvements for the given document content.
	Suggest(ctx context.Context, model, content string) ([]SuggestionDraft, error)

	// Title produces a short conversation title from the first user message.
	Title(ctx context.Context, model, userMessage string) (string, error)
}
