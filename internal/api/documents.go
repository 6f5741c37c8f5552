package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/baygut/faq-chat-bot/internal/document"
	"github.com/baygut/faq-chat-bot/internal/log"
)

// DocumentReader lists the stored versions of a generated document.
type DocumentReader interface {
	ListVersions(ctx context.Context, id uuid.UUID) ([]*document.Document, error)
}

type documentsHandler struct {
	store  DocumentReader
	logger log.Logger
}

type documentItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// versions handles GET /api/v1/documents/{id}.
// Returns every version of the document, oldest first, so the client can
// step through edit history.
func (h *documentsHandler) versions(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := ownerIDFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "document not found", h.logger)
		return
	}

	docs, err := h.store.ListVersions(r.Context(), id)
	if err != nil {
		h.logger.Error("listing document versions", "error", err, "document_id", id)
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to load document", h.logger)
		return
	}
	if len(docs) == 0 {
		WriteError(w, http.StatusNotFound, "not_found", "document not found", h.logger)
		return
	}
	if docs[0].OwnerID != ownerID {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "document access denied", h.logger)
		return
	}

	items := make([]documentItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, documentItem{
			ID:        d.ID.String(),
			Title:     d.Title,
			Content:   d.Content,
			CreatedAt: d.CreatedAt.Format(time.RFC3339),
		})
	}

	WriteJSON(w, http.StatusOK, map[string]any{"documents": items}, h.logger)
}
