package api

import (
	"context"
	"net/http"

	"github.com/baygut/faq-chat-bot/internal/faq"
	"github.com/baygut/faq-chat-bot/internal/log"
)

// FaqLister is the slice of the FAQ store the listing endpoint needs.
type FaqLister interface {
	List(ctx context.Context, limit int32) ([]*faq.Entry, error)
}

const faqListLimit = 100

// faqHandler serves the read-only FAQ listing.
type faqHandler struct {
	store  FaqLister
	logger log.Logger
}

// faqItem is the JSON representation of an FAQ entry in list responses.
type faqItem struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

// list handles GET /api/v1/faq.
func (h *faqHandler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context(), faqListLimit)
	if err != nil {
		h.logger.Error("listing faqs", "error", err)
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list faqs", h.logger)
		return
	}

	items := make([]faqItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, faqItem{Question: e.Question, Category: e.Category})
	}

	WriteJSON(w, http.StatusOK, map[string]any{"faqs": items}, h.logger)
}
