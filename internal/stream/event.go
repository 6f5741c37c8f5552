// Package stream carries per-turn events from the chat orchestrator and its
// tools to the transport layer. A Channel is created per turn, passed down
// through context, and drained by exactly one consumer (the SSE writer).
package stream

// EventType identifies the kind of payload an Event carries.
type EventType string

// Event types emitted during a chat turn. The Content shape depends on the
// type; see the constants below.
const (
	// EventUserMessageID carries the server-assigned ID of the persisted
	// user message (string).
	EventUserMessageID EventType = "user-message-id"

	// EventDocumentID announces the ID of a document being created (string).
	EventDocumentID EventType = "id"

	// EventDocumentTitle announces the title of a document being created
	// or updated (string).
	EventDocumentTitle EventType = "title"

	// EventClear tells the client to reset the document view before new
	// content streams in (string, empty).
	EventClear EventType = "clear"

	// EventTextDelta carries an incremental chunk of generated text (string).
	EventTextDelta EventType = "text-delta"

	// EventSuggestion carries one writing suggestion (Suggestion payload).
	EventSuggestion EventType = "suggestion"

	// EventFinish marks the end of a document generation stream (string, empty).
	EventFinish EventType = "finish"

	// EventMessageAnnotation carries metadata about a persisted assistant
	// message (Annotation payload).
	EventMessageAnnotation EventType = "message-annotation"

	// EventError carries a terminal error description (string).
	EventError EventType = "error"
)

// Event is a single tagged item on a turn's stream.
type Event struct {
	Type    EventType `json:"type"`
	Content any       `json:"content"`
}

// Suggestion is the Content payload of an EventSuggestion.
type Suggestion struct {
	ID                string `json:"id"`
	DocumentID        string `json:"documentId"`
	OriginalSentence  string `json:"originalText"`
	SuggestedSentence string `json:"suggestedText"`
	Description       string `json:"description"`
}

// Annotation is the Content payload of an EventMessageAnnotation.
type Annotation struct {
	MessageIDFromServer string `json:"messageIdFromServer"`
}
