package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/baygut/faq-chat-bot/internal/chat"
	"github.com/baygut/faq-chat-bot/internal/conversation"
	"github.com/baygut/faq-chat-bot/internal/log"
)

// conversationsHandler serves conversation listing and history reads.
type conversationsHandler struct {
	orch   *chat.Orchestrator
	logger log.Logger
}

// conversationItem is the JSON representation of a conversation in list responses.
type conversationItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// messageItem is the JSON representation of a message in history responses.
type messageItem struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// list handles GET /api/v1/conversations.
func (h *conversationsHandler) list(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := ownerIDFromContext(r.Context())

	convs, err := h.orch.Conversations(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("listing conversations", "error", err, "owner_id", ownerID)
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list conversations", h.logger)
		return
	}

	items := make([]conversationItem, 0, len(convs))
	for _, c := range convs {
		items = append(items, conversationItem{
			ID:        c.ID.String(),
			Title:     c.Title,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
			UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
		})
	}

	WriteJSON(w, http.StatusOK, map[string]any{"conversations": items}, h.logger)
}

// messages handles GET /api/v1/conversations/{id}/messages.
func (h *conversationsHandler) messages(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := ownerIDFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "invalid conversation ID", h.logger)
		return
	}

	msgs, err := h.orch.History(r.Context(), id, ownerID)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrUnauthorized):
			WriteError(w, http.StatusUnauthorized, "unauthorized", "conversation access denied", h.logger)
		case errors.Is(err, conversation.ErrNotFound):
			WriteError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
		default:
			h.logger.Error("reading conversation history", "error", err, "conversation_id", id)
			WriteError(w, http.StatusInternalServerError, "history_failed", "failed to read messages", h.logger)
		}
		return
	}

	items := make([]messageItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, messageItem{
			ID:        m.ID.String(),
			Role:      wireRole(m.Role),
			Content:   partsText(m.Content),
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}

	WriteJSON(w, http.StatusOK, map[string]any{"messages": items}, h.logger)
}

// wireRole maps model roles to the vocabulary clients use.
func wireRole(role ai.Role) string {
	if role == ai.RoleModel {
		return "assistant"
	}
	return string(role)
}

// partsText concatenates the text parts of a stored message.
// Tool call and tool result parts carry no user-facing text.
func partsText(parts []*ai.Part) string {
	var out string
	for _, p := range parts {
		if p != nil && p.IsText() {
			out += p.Text
		}
	}
	return out
}
