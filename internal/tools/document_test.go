package tools

import (
	"context"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/baygut/faq-chat-bot/internal/document"
	"github.com/baygut/faq-chat-bot/internal/gateway"
	"github.com/baygut/faq-chat-bot/internal/log"
	"github.com/baygut/faq-chat-bot/internal/stream"
)

// memDocStore is an in-memory DocumentStore for tests.
type memDocStore struct {
	versions    []*document.Document
	suggestions []*document.Suggestion
}

func (m *memDocStore) Save(_ context.Context, doc *document.Document) error {
	saved := *doc
	saved.CreatedAt = time.Now()
	m.versions = append(m.versions, &saved)
	doc.CreatedAt = saved.CreatedAt
	return nil
}

func (m *memDocStore) GetLatest(_ context.Context, id uuid.UUID) (*document.Document, error) {
	for i := len(m.versions) - 1; i >= 0; i-- {
		if m.versions[i].ID == id {
			return m.versions[i], nil
		}
	}
	return nil, document.ErrNotFound
}

func (m *memDocStore) SaveSuggestions(_ context.Context, suggestions []*document.Suggestion) error {
	m.suggestions = append(m.suggestions, suggestions...)
	return nil
}

// scriptedGateway plays back fixed draft text and suggestions.
type scriptedGateway struct {
	draftDeltas []string
	suggestions []gateway.SuggestionDraft
}

func (s *scriptedGateway) Converse(context.Context, gateway.ConverseRequest, gateway.StreamFunc) (*ai.ModelResponse, error) {
	panic("not used in document tests")
}

func (s *scriptedGateway) Draft(ctx context.Context, _ gateway.DraftRequest, stream gateway.DeltaFunc) (string, error) {
	var full string
	for _, d := range s.draftDeltas {
		full += d
		if stream != nil {
			if err := stream(ctx, d); err != nil {
				return "", err
			}
		}
	}
	return full, nil
}

func (s *scriptedGateway) Suggest(context.Context, string, string) ([]gateway.SuggestionDraft, error) {
	return s.suggestions, nil
}

func (s *scriptedGateway) Title(context.Context, string, string) (string, error) {
	return "", nil
}

func docTestContext(ch *stream.Channel, ownerID uuid.UUID) context.Context {
	ctx := ContextWithTurn(context.Background(), Turn{OwnerID: ownerID, Model: "googleai/gemini-2.5-flash"})
	if ch != nil {
		ctx = stream.ContextWith(ctx, ch)
	}
	return ctx
}

func drainAfter(ch *stream.Channel, fn func()) []stream.Event {
	var events []stream.Event
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch.Events() {
			events = append(events, ev)
		}
	}()
	fn()
	ch.Close()
	<-done
	return events
}

func newDocRegistry(t *testing.T, gw gateway.Gateway, store DocumentStore) *Registry {
	t.Helper()
	dt, err := NewDocumentToolset(gw, store, log.NewNop())
	if err != nil {
		t.Fatalf("NewDocumentToolset() = %v", err)
	}
	return NewRegistry(dt.Tools()...)
}

func TestCreateDocument(t *testing.T) {
	store := &memDocStore{}
	gw := &scriptedGateway{draftDeltas: []string{"# Title\n", "Body text."}}
	r := newDocRegistry(t, gw, store)

	owner := uuid.New()
	ch := stream.NewChannel()
	ctx := docTestContext(ch, owner)

	var res Result
	events := drainAfter(ch, func() {
		out, err := r.Execute(ctx, "createDocument", map[string]any{"title": "Onboarding guide"})
		if err != nil {
			t.Errorf("Execute(createDocument) = %v", err)
			return
		}
		res = out.(Result)
	})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %q, error = %q", res.Status, res.Error)
	}
	if res.Message != "A document was created and is now visible to the user." {
		t.Errorf("message = %q", res.Message)
	}

	if len(store.versions) != 1 {
		t.Fatalf("saved %d document versions, want 1", len(store.versions))
	}
	doc := store.versions[0]
	if doc.Title != "Onboarding guide" || doc.Content != "# Title\nBody text." || doc.OwnerID != owner {
		t.Errorf("saved document = %+v", doc)
	}

	// Event order: id, title, clear, deltas, finish.
	wantTypes := []stream.EventType{
		stream.EventDocumentID, stream.EventDocumentTitle, stream.EventClear,
		stream.EventTextDelta, stream.EventTextDelta, stream.EventFinish,
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events %v, want %d", len(events), events, len(wantTypes))
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d type = %q, want %q", i, events[i].Type, want)
		}
	}
	if events[0].Content.(string) != doc.ID.String() {
		t.Errorf("id event content = %v, want %s", events[0].Content, doc.ID)
	}
}

func TestUpdateDocument(t *testing.T) {
	store := &memDocStore{}
	owner := uuid.New()
	existing := &document.Document{ID: uuid.New(), Title: "Guide", Content: "old", OwnerID: owner}
	if err := store.Save(context.Background(), existing); err != nil {
		t.Fatalf("seed Save() = %v", err)
	}

	gw := &scriptedGateway{draftDeltas: []string{"new content"}}
	r := newDocRegistry(t, gw, store)

	ch := stream.NewChannel()
	ctx := docTestContext(ch, owner)

	var res Result
	events := drainAfter(ch, func() {
		out, err := r.Execute(ctx, "updateDocument", map[string]any{
			"id":          existing.ID.String(),
			"description": "rewrite it",
		})
		if err != nil {
			t.Errorf("Execute(updateDocument) = %v", err)
			return
		}
		res = out.(Result)
	})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %q, error = %q", res.Status, res.Error)
	}

	if len(store.versions) != 2 {
		t.Fatalf("saved %d versions, want 2", len(store.versions))
	}
	latest := store.versions[1]
	if latest.ID != existing.ID || latest.Content != "new content" || latest.Title != "Guide" {
		t.Errorf("latest version = %+v", latest)
	}

	if len(events) == 0 || events[0].Type != stream.EventClear || events[0].Content.(string) != "Guide" {
		t.Errorf("first event = %+v, want clear with title", events)
	}
	if last := events[len(events)-1]; last.Type != stream.EventFinish {
		t.Errorf("last event type = %q, want finish", last.Type)
	}
}

func TestUpdateDocument_NotFound(t *testing.T) {
	r := newDocRegistry(t, &scriptedGateway{}, &memDocStore{})
	ctx := docTestContext(nil, uuid.New())

	out, err := r.Execute(ctx, "updateDocument", map[string]any{
		"id":          uuid.NewString(),
		"description": "whatever",
	})
	if err != nil {
		t.Fatalf("Execute(updateDocument) = %v", err)
	}
	res := out.(Result)
	if res.Status != StatusFailed || res.Error != "Document not found" {
		t.Errorf("result = %+v, want Document not found failure", res)
	}
}

func TestRequestSuggestions(t *testing.T) {
	store := &memDocStore{}
	owner := uuid.New()
	doc := &document.Document{ID: uuid.New(), Title: "Guide", Content: "Some prose.", OwnerID: owner}
	if err := store.Save(context.Background(), doc); err != nil {
		t.Fatalf("seed Save() = %v", err)
	}

	gw := &scriptedGateway{suggestions: []gateway.SuggestionDraft{
		{OriginalSentence: "Some prose.", SuggestedSentence: "Clearer prose.", Description: "Tighten wording"},
	}}
	r := newDocRegistry(t, gw, store)

	ch := stream.NewChannel()
	ctx := docTestContext(ch, owner)

	var res Result
	events := drainAfter(ch, func() {
		out, err := r.Execute(ctx, "requestSuggestions", map[string]any{"documentId": doc.ID.String()})
		if err != nil {
			t.Errorf("Execute(requestSuggestions) = %v", err)
			return
		}
		res = out.(Result)
	})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %q, error = %q", res.Status, res.Error)
	}
	if len(store.suggestions) != 1 {
		t.Fatalf("saved %d suggestions, want 1", len(store.suggestions))
	}
	saved := store.suggestions[0]
	if saved.DocumentID != doc.ID || saved.SuggestedText != "Clearer prose." || saved.OwnerID != owner {
		t.Errorf("saved suggestion = %+v", saved)
	}

	if len(events) != 1 || events[0].Type != stream.EventSuggestion {
		t.Fatalf("events = %+v, want one suggestion event", events)
	}
	payload := events[0].Content.(stream.Suggestion)
	if payload.SuggestedSentence != "Clearer prose." || payload.DocumentID != doc.ID.String() {
		t.Errorf("suggestion payload = %+v", payload)
	}
}

func TestRequestSuggestions_EmptyDocument(t *testing.T) {
	store := &memDocStore{}
	owner := uuid.New()
	doc := &document.Document{ID: uuid.New(), Title: "Empty", Content: "", OwnerID: owner}
	if err := store.Save(context.Background(), doc); err != nil {
		t.Fatalf("seed Save() = %v", err)
	}

	r := newDocRegistry(t, &scriptedGateway{}, store)
	ctx := docTestContext(nil, owner)

	out, err := r.Execute(ctx, "requestSuggestions", map[string]any{"documentId": doc.ID.String()})
	if err != nil {
		t.Fatalf("Execute(requestSuggestions) = %v", err)
	}
	if res := out.(Result); res.Status != StatusFailed {
		t.Errorf("status = %q, want failed for empty document", res.Status)
	}
}
