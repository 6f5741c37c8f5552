package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/baygut/faq-chat-bot/internal/document"
	"github.com/baygut/faq-chat-bot/internal/gateway"
	"github.com/baygut/faq-chat-bot/internal/log"
	"github.com/baygut/faq-chat-bot/internal/stream"
)

// DocumentToolsetName is the toolset identifier constant.
const DocumentToolsetName = "document"

const createDocumentSystem = `Write about the given topic. Markdown is supported. Use headings wherever appropriate.`

const updateDocumentSystem = `Update the following contents of the document based on the given description.

Current content:
%s`

// DocumentStore is the persistence surface the document tools need.
type DocumentStore interface {
	Save(ctx context.Context, doc *document.Document) error
	GetLatest(ctx context.Context, id uuid.UUID) (*document.Document, error)
	SaveSuggestions(ctx context.Context, suggestions []*document.Suggestion) error
}

// CreateDocumentInput defines input for the createDocument tool.
type CreateDocumentInput struct {
	Title string `json:"title" jsonschema_description:"Title of the document to create"`
}

// UpdateDocumentInput defines input for the updateDocument tool.
type UpdateDocumentInput struct {
	ID          string `json:"id" jsonschema_description:"ID of the document to update"`
	Description string `json:"description" jsonschema_description:"Description of the changes to make"`
}

// RequestSuggestionsInput defines input for the requestSuggestions tool.
type RequestSuggestionsInput struct {
	DocumentID string `json:"documentId" jsonschema_description:"ID of the document to request edit suggestions for"`
}

// DocumentRef identifies a document in tool result data.
type DocumentRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DocumentToolset provides document creation, update, and suggestion tools.
// Progress streams to the client through the per-turn event channel; the
// final Result only tells the model what happened.
type DocumentToolset struct {
	gw     gateway.Gateway
	docs   DocumentStore
	logger log.Logger
}

// NewDocumentToolset creates a DocumentToolset.
func NewDocumentToolset(gw gateway.Gateway, docs DocumentStore, logger log.Logger) (*DocumentToolset, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if docs == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &DocumentToolset{gw: gw, docs: docs, logger: logger}, nil
}

// Name returns the toolset identifier.
func (dt *DocumentToolset) Name() string {
	return DocumentToolsetName
}

// Tools returns all tools provided by this toolset.
func (dt *DocumentToolset) Tools() []*Tool {
	return []*Tool{
		NewTool(
			"createDocument",
			"Create a document for a writing activity. "+
				"The document content streams to the user as it is written; "+
				"do not repeat the content in your reply.",
			dt.createDocument,
		),
		NewTool(
			"updateDocument",
			"Update a document with the given description. "+
				"The updated content streams to the user; do not repeat it in your reply.",
			dt.updateDocument,
		),
		NewTool(
			"requestSuggestions",
			"Request writing suggestions for a document. "+
				"Suggestions appear alongside the document for the user to review.",
			dt.requestSuggestions,
		),
	}
}

func (dt *DocumentToolset) createDocument(tc *ai.ToolContext, in CreateDocumentInput) (Result, error) {
	ctx := tc.Context
	turn, ok := TurnFromContext(ctx)
	if !ok {
		return Result{}, fmt.Errorf("no active turn in context")
	}
	events := stream.FromContext(ctx)

	id := uuid.New()
	emit(events, stream.EventDocumentID, id.String())
	emit(events, stream.EventDocumentTitle, in.Title)
	emit(events, stream.EventClear, "")

	content, err := dt.gw.Draft(ctx, gateway.DraftRequest{
		Model:  turn.Model,
		System: createDocumentSystem,
		Prompt: in.Title,
	}, func(_ context.Context, delta string) error {
		emit(events, stream.EventTextDelta, delta)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("draft document: %w", err)
	}

	emit(events, stream.EventFinish, "")

	doc := &document.Document{
		ID:      id,
		Title:   in.Title,
		Content: content,
		OwnerID: turn.OwnerID,
	}
	if err := dt.docs.Save(ctx, doc); err != nil {
		dt.logger.Error("failed to save created document", "id", id, "error", err)
		return Failed("the document could not be saved"), nil
	}

	return Result{
		Status:  StatusSuccess,
		Message: "A document was created and is now visible to the user.",
		Data:    DocumentRef{ID: id.String(), Title: in.Title},
	}, nil
}

func (dt *DocumentToolset) updateDocument(tc *ai.ToolContext, in UpdateDocumentInput) (Result, error) {
	ctx := tc.Context
	turn, ok := TurnFromContext(ctx)
	if !ok {
		return Result{}, fmt.Errorf("no active turn in context")
	}

	id, err := uuid.Parse(in.ID)
	if err != nil {
		return Failed(fmt.Sprintf("invalid document ID %q", in.ID)), nil
	}

	doc, err := dt.docs.GetLatest(ctx, id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return Failed("Document not found"), nil
		}
		return Result{}, fmt.Errorf("get document: %w", err)
	}

	events := stream.FromContext(ctx)
	emit(events, stream.EventClear, doc.Title)

	content, err := dt.gw.Draft(ctx, gateway.DraftRequest{
		Model:  turn.Model,
		System: fmt.Sprintf(updateDocumentSystem, doc.Content),
		Prompt: in.Description,
	}, func(_ context.Context, delta string) error {
		emit(events, stream.EventTextDelta, delta)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("draft document update: %w", err)
	}

	emit(events, stream.EventFinish, "")

	updated := &document.Document{
		ID:      doc.ID,
		Title:   doc.Title,
		Content: content,
		OwnerID: doc.OwnerID,
	}
	if err := dt.docs.Save(ctx, updated); err != nil {
		dt.logger.Error("failed to save updated document", "id", doc.ID, "error", err)
		return Failed("the document could not be saved"), nil
	}

	return Result{
		Status:  StatusSuccess,
		Message: "The document has been updated successfully.",
		Data:    DocumentRef{ID: doc.ID.String(), Title: doc.Title},
	}, nil
}

func (dt *DocumentToolset) requestSuggestions(tc *ai.ToolContext, in RequestSuggestionsInput) (Result, error) {
	ctx := tc.Context
	turn, ok := TurnFromContext(ctx)
	if !ok {
		return Result{}, fmt.Errorf("no active turn in context")
	}

	id, err := uuid.Parse(in.DocumentID)
	if err != nil {
		return Failed(fmt.Sprintf("invalid document ID %q", in.DocumentID)), nil
	}

	doc, err := dt.docs.GetLatest(ctx, id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return Failed("Document not found"), nil
		}
		return Result{}, fmt.Errorf("get document: %w", err)
	}
	if doc.Content == "" {
		return Failed("Document has no content to suggest improvements for"), nil
	}

	drafts, err := dt.gw.Suggest(ctx, turn.Model, doc.Content)
	if err != nil {
		return Result{}, fmt.Errorf("generate suggestions: %w", err)
	}

	events := stream.FromContext(ctx)
	suggestions := make([]*document.Suggestion, 0, len(drafts))
	for _, d := range drafts {
		sug := &document.Suggestion{
			ID:                uuid.New(),
			DocumentID:        doc.ID,
			DocumentCreatedAt: doc.CreatedAt,
			OriginalText:      d.OriginalSentence,
			SuggestedText:     d.SuggestedSentence,
			Description:       d.Description,
			OwnerID:           turn.OwnerID,
		}
		suggestions = append(suggestions, sug)

		emit(events, stream.EventSuggestion, stream.Suggestion{
			ID:                sug.ID.String(),
			DocumentID:        doc.ID.String(),
			OriginalSentence:  sug.OriginalText,
			SuggestedSentence: sug.SuggestedText,
			Description:       sug.Description,
		})
	}

	if err := dt.docs.SaveSuggestions(ctx, suggestions); err != nil {
		dt.logger.Error("failed to save suggestions", "document_id", doc.ID, "error", err)
		return Failed("the suggestions could not be saved"), nil
	}

	return Result{
		Status:  StatusSuccess,
		Message: "Suggestions have been added to the document.",
		Data:    DocumentRef{ID: doc.ID.String(), Title: doc.Title},
	}, nil
}

// emit forwards an event to the turn's stream when one is attached. A closed
// or missing stream is not an error for tools; persistence still proceeds.
func emit(c *stream.Channel, typ stream.EventType, content any) {
	if c == nil {
		return
	}
	_ = c.Emit(stream.Event{Type: typ, Content: content})
}
