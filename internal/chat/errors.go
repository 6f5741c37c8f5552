package chat

import "errors"

// Sentinel errors for chat operations, part of the Orchestrator's public API.
// Check with errors.Is(); the HTTP layer maps them to status codes.
var (
	// ErrUnauthorized indicates the caller does not own the conversation.
	ErrUnauthorized = errors.New("not authorized for this conversation")

	// ErrModelNotFound indicates the requested model ID is not in the catalog.
	ErrModelNotFound = errors.New("model not found")

	// ErrNoUserMessage indicates the turn request carries no user message.
	ErrNoUserMessage = errors.New("no user message in request")

	// ErrNoConversationID indicates the turn request carries no conversation ID.
	ErrNoConversationID = errors.New("no conversation ID in request")
)
