package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestConversationMessages(t *testing.T) {
	gw := &fakeGateway{deltas: []string{"hello there"}, final: "hello there", title: "Greeting"}
	store := newMemConvStore()
	srv := testServer(t, gw, store, nil)

	ownerID := uuid.New()
	conversationID := uuid.New()

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, identityRequest(http.MethodPost, "/api/v1/chat", turnBody(conversationID, "hi", "fast"), ownerID))
	if w.Code != http.StatusOK {
		t.Fatalf("setup turn status = %d", w.Code)
	}

	w2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w2, identityRequest(http.MethodGet, "/api/v1/conversations/"+conversationID.String()+"/messages", "", ownerID))
	if w2.Code != http.StatusOK {
		t.Fatalf("GET messages status = %d: %s", w2.Code, w2.Body.String())
	}

	var body struct {
		Messages []messageItem `json:"messages"`
	}
	if err := json.NewDecoder(w2.Body).Decode(&body); err != nil {
		t.Fatalf("decoding messages: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("got %d messages, want user and assistant", len(body.Messages))
	}
	if body.Messages[0].Role != "user" || body.Messages[0].Content != "hi" {
		t.Fatalf("first message = %+v, want the user turn", body.Messages[0])
	}
	if body.Messages[1].Role != "assistant" || body.Messages[1].Content != "hello there" {
		t.Fatalf("second message = %+v, want the assistant answer", body.Messages[1])
	}
}

func TestConversationMessages_OwnershipEnforced(t *testing.T) {
	gw := &fakeGateway{final: "ok", title: "T"}
	store := newMemConvStore()
	srv := testServer(t, gw, store, nil)

	conversationID := uuid.New()

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, identityRequest(http.MethodPost, "/api/v1/chat", turnBody(conversationID, "hi", "fast"), uuid.New()))
	if w.Code != http.StatusOK {
		t.Fatalf("setup turn status = %d", w.Code)
	}

	w2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w2, identityRequest(http.MethodGet, "/api/v1/conversations/"+conversationID.String()+"/messages", "", uuid.New()))
	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("stranger read status = %d, want %d", w2.Code, http.StatusUnauthorized)
	}
}

func TestConversationMessages_UnknownConversation(t *testing.T) {
	srv := testServer(t, nil, nil, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, identityRequest(http.MethodGet, "/api/v1/conversations/"+uuid.New().String()+"/messages", "", uuid.New()))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown conversation status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestConversationList_EmptyForNewIdentity(t *testing.T) {
	srv := testServer(t, nil, nil, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, identityRequest(http.MethodGet, "/api/v1/conversations", "", uuid.New()))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/conversations status = %d", w.Code)
	}

	var body struct {
		Conversations []conversationItem `json:"conversations"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(body.Conversations) != 0 {
		t.Fatalf("new identity sees %d conversations, want none", len(body.Conversations))
	}
}
