package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/baygut/faq-chat-bot/internal/document"
	"github.com/baygut/faq-chat-bot/internal/log"
)

func documentsMux(docs *memDocStore) *http.ServeMux {
	h := &documentsHandler{store: docs, logger: log.NewNop()}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/documents/{id}", h.versions)
	return mux
}

func documentsRequest(docID string, ownerID uuid.UUID) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID, nil)
	return r.WithContext(context.WithValue(r.Context(), ctxKeyOwnerID, ownerID))
}

func TestDocumentVersions(t *testing.T) {
	docs := newMemDocStore()
	ownerID := uuid.New()
	docID := uuid.New()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	docs.versions[docID] = []*document.Document{
		{ID: docID, OwnerID: ownerID, Title: "Guide", Content: "v1", CreatedAt: base},
		{ID: docID, OwnerID: ownerID, Title: "Guide", Content: "v2", CreatedAt: base.Add(time.Minute)},
	}

	w := httptest.NewRecorder()
	documentsMux(docs).ServeHTTP(w, documentsRequest(docID.String(), ownerID))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/documents/{id} status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Documents []documentItem `json:"documents"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Documents) != 2 {
		t.Fatalf("len(documents) = %d, want 2", len(body.Documents))
	}
	if body.Documents[0].Content != "v1" || body.Documents[1].Content != "v2" {
		t.Errorf("versions out of order: %+v", body.Documents)
	}
}

func TestDocumentVersions_OwnershipEnforced(t *testing.T) {
	docs := newMemDocStore()
	docID := uuid.New()
	docs.versions[docID] = []*document.Document{
		{ID: docID, OwnerID: uuid.New(), Title: "Private", Content: "v1", CreatedAt: time.Now()},
	}

	w := httptest.NewRecorder()
	documentsMux(docs).ServeHTTP(w, documentsRequest(docID.String(), uuid.New()))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("stranger read status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestDocumentVersions_NotFound(t *testing.T) {
	docs := newMemDocStore()

	for _, id := range []string{uuid.New().String(), "not-a-uuid"} {
		w := httptest.NewRecorder()
		documentsMux(docs).ServeHTTP(w, documentsRequest(id, uuid.New()))
		if w.Code != http.StatusNotFound {
			t.Fatalf("unknown document %q status = %d, want %d", id, w.Code, http.StatusNotFound)
		}
	}
}
