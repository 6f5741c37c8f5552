package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/baygut/faq-chat-bot/internal/chat"
	"github.com/baygut/faq-chat-bot/internal/conversation"
	"github.com/baygut/faq-chat-bot/internal/log"
	"github.com/baygut/faq-chat-bot/internal/stream"
)

const maxTurnBodyBytes = 1 << 20

// chatHandler serves the turn endpoint and conversation deletion.
type chatHandler struct {
	orch   *chat.Orchestrator
	logger log.Logger
}

// wireMessage is one role-tagged message in a turn request body.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// turnPayload is the POST /api/v1/chat request body.
type turnPayload struct {
	ConversationID string        `json:"conversationId"`
	Messages       []wireMessage `json:"messages"`
	ModelID        string        `json:"modelId"`
}

// turn handles POST /api/v1/chat.
// Preconditions are checked before the response is upgraded to SSE so that
// failures surface as plain JSON status codes. Once streaming starts, errors
// arrive as error events on the stream instead.
func (h *chatHandler) turn(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := ownerIDFromContext(r.Context())

	var payload turnPayload
	r.Body = http.MaxBytesReader(w, r.Body, maxTurnBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	conversationID, err := uuid.Parse(payload.ConversationID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "invalid conversation ID", h.logger)
		return
	}

	req := chat.TurnRequest{
		ConversationID: conversationID,
		Messages:       toHistory(payload.Messages),
		ModelID:        payload.ModelID,
		OwnerID:        ownerID,
		Events:         stream.NewChannel(),
	}

	if err := h.orch.ValidateTurn(req); err != nil {
		h.writeTurnError(w, err)
		return
	}
	if err := h.orch.AuthorizeTurn(r.Context(), conversationID, ownerID); err != nil {
		h.writeTurnError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// The orchestrator closes the channel on every exit path, so draining
	// Events() always terminates. Client disconnects cancel r.Context(),
	// which aborts generation.
	go func() {
		if err := h.orch.HandleTurn(r.Context(), req); err != nil {
			h.logger.Error("turn failed",
				"error", err,
				"conversation_id", conversationID,
			)
		}
	}()

	for ev := range req.Events.Events() {
		if err := writeEvent(w, flusher, string(ev.Type), ev.Content); err != nil {
			// Write failure usually means the connection closed.
			h.logger.Debug("failed to write stream event", "error", err)
			for range req.Events.Events() {
			}
			return
		}
	}
}

// deleteConversation handles DELETE /api/v1/chat?id=<conversationId>.
func (h *chatHandler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := ownerIDFromContext(r.Context())

	// An absent id cannot resolve to a conversation, so it is a 404 like any
	// other unknown conversation.
	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		WriteError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "invalid conversation ID", h.logger)
		return
	}

	if err := h.orch.DeleteConversation(r.Context(), id, ownerID); err != nil {
		switch {
		case errors.Is(err, chat.ErrUnauthorized):
			WriteError(w, http.StatusUnauthorized, "unauthorized", "conversation access denied", h.logger)
		case errors.Is(err, conversation.ErrNotFound):
			WriteError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
		default:
			h.logger.Error("deleting conversation", "error", err, "conversation_id", id)
			WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete conversation", h.logger)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, h.logger)
}

// writeTurnError maps orchestrator precondition failures to HTTP status codes.
func (h *chatHandler) writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "caller identity required", h.logger)
	case errors.Is(err, chat.ErrModelNotFound):
		WriteError(w, http.StatusNotFound, "model_not_found", "unknown model", h.logger)
	case errors.Is(err, chat.ErrNoUserMessage):
		WriteError(w, http.StatusBadRequest, "no_user_message", "at least one user message is required", h.logger)
	case errors.Is(err, chat.ErrNoConversationID):
		WriteError(w, http.StatusBadRequest, "missing_id", "conversation ID required", h.logger)
	default:
		h.logger.Error("turn validation failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
	}
}

// toHistory converts wire messages into model messages. Unknown roles and
// empty contents are dropped rather than rejected so stale clients degrade
// gracefully.
func toHistory(msgs []wireMessage) []*ai.Message {
	out := make([]*ai.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case "user":
			out = append(out, ai.NewUserMessage(ai.NewTextPart(m.Content)))
		case "assistant", "model":
			out = append(out, ai.NewModelMessage(ai.NewTextPart(m.Content)))
		case "system":
			out = append(out, ai.NewSystemMessage(ai.NewTextPart(m.Content)))
		}
	}
	return out
}

// writeEvent writes a single SSE event with JSON-encoded data.
// SSE format: "event: <type>\ndata: <json>\n\n"
func writeEvent(w io.Writer, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	flusher.Flush()
	return nil
}
