// Package chat runs tool-augmented chat turns: it validates the request,
// persists the user message, streams the model's answer and tool side
// effects to the client, and records the outcome.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/baygut/faq-chat-bot/internal/conversation"
	"github.com/baygut/faq-chat-bot/internal/faq"
	"github.com/baygut/faq-chat-bot/internal/gateway"
	"github.com/baygut/faq-chat-bot/internal/log"
	"github.com/baygut/faq-chat-bot/internal/model"
	"github.com/baygut/faq-chat-bot/internal/stream"
	"github.com/baygut/faq-chat-bot/internal/tools"
)

// turnTimeout bounds one full turn including tool rounds.
const turnTimeout = 60 * time.Second

// titleFallbackMaxRunes caps the truncation fallback when AI title
// generation fails.
const titleFallbackMaxRunes = 80

// ConversationStore is the persistence surface the orchestrator needs.
type ConversationStore interface {
	Create(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, title string) (*conversation.Conversation, error)
	Get(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*conversation.Conversation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMessages(ctx context.Context, conversationID uuid.UUID, messages []*conversation.Message) error
	GetMessages(ctx context.Context, conversationID uuid.UUID) ([]*conversation.Message, error)
}

// FaqSource supplies knowledge base entries for the system prompt.
type FaqSource interface {
	List(ctx context.Context, limit int32) ([]*faq.Entry, error)
}

// Config carries the orchestrator's dependencies.
type Config struct {
	Gateway       gateway.Gateway
	Conversations ConversationStore
	Faqs          FaqSource
	Catalog       *model.Catalog
	// ToolNames lists the registered tools the model may call each turn.
	ToolNames []string
	// MaxToolRounds caps tool-call iterations per turn.
	MaxToolRounds int
	Logger        log.Logger
}

func (c Config) validate() error {
	if c.Gateway == nil {
		return fmt.Errorf("gateway is required")
	}
	if c.Conversations == nil {
		return fmt.Errorf("conversation store is required")
	}
	if c.Catalog == nil {
		return fmt.Errorf("model catalog is required")
	}
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("max tool rounds must be at least 1, got %d", c.MaxToolRounds)
	}
	return nil
}

// Orchestrator coordinates one chat turn end to end.
// It is safe for concurrent use; per-turn state lives on the stack and in
// the per-turn stream.Channel.
type Orchestrator struct {
	gw            gateway.Gateway
	conversations ConversationStore
	faqs          FaqSource
	catalog       *model.Catalog
	toolNames     []string
	maxToolRounds int
	logger        log.Logger
}

// New creates an Orchestrator from the given config.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid chat config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Orchestrator{
		gw:            cfg.Gateway,
		conversations: cfg.Conversations,
		faqs:          cfg.Faqs,
		catalog:       cfg.Catalog,
		toolNames:     append([]string(nil), cfg.ToolNames...),
		maxToolRounds: cfg.MaxToolRounds,
		logger:        logger,
	}, nil
}

// TurnRequest describes one chat turn.
type TurnRequest struct {
	// ConversationID identifies the thread; a new conversation is created
	// under this ID on first use.
	ConversationID uuid.UUID
	// Messages is the client's view of the conversation, ending with the
	// new user message.
	Messages []*ai.Message
	// ModelID selects a catalog model; empty means the catalog default.
	ModelID string
	// OwnerID is the authenticated identity for the request.
	OwnerID uuid.UUID
	// Events receives the turn's stream. HandleTurn closes it exactly once,
	// on every path.
	Events *stream.Channel
}

// ValidateTurn checks a turn request without side effects. The HTTP layer
// calls it before committing to a streaming response, so validation failures
// still map to proper status codes.
func (o *Orchestrator) ValidateTurn(req TurnRequest) error {
	if req.OwnerID == uuid.Nil {
		return ErrUnauthorized
	}
	if req.ConversationID == uuid.Nil {
		return ErrNoConversationID
	}
	if _, ok := o.lookupModel(req.ModelID); !ok {
		return ErrModelNotFound
	}
	if lastUserMessage(req.Messages) == nil {
		return ErrNoUserMessage
	}
	return nil
}

// AuthorizeTurn verifies that an existing conversation belongs to the
// caller. An unknown conversation passes; the turn will create it. The HTTP
// layer calls it before committing to a streaming response so an ownership
// mismatch maps to a status code.
func (o *Orchestrator) AuthorizeTurn(ctx context.Context, conversationID, ownerID uuid.UUID) error {
	conv, err := o.conversations.Get(ctx, conversationID)
	if errors.Is(err, conversation.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	if conv.OwnerID != ownerID {
		return ErrUnauthorized
	}
	return nil
}

// HandleTurn runs one chat turn. Events emitted on req.Events, in order:
// the persisted user message ID, any tool progress (document IDs, titles,
// text deltas, suggestions), the streamed answer text, one annotation per
// persisted assistant message, and an error event if storage or generation
// fails mid-stream. The channel is closed when the turn is over.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) error {
	defer req.Events.Close()

	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	if err := o.ValidateTurn(req); err != nil {
		return err
	}
	mdl, _ := o.lookupModel(req.ModelID)
	userMsg := lastUserMessage(req.Messages)

	// Failures from here on happen after the SSE stream is committed, so
	// they surface as an error event; a bare stream close would be
	// indistinguishable from an empty answer.
	if err := o.ensureConversation(ctx, req, userMsg, mdl); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			o.emit(req.Events, stream.EventError, "conversation access denied")
		} else {
			o.emit(req.Events, stream.EventError, "the conversation could not be prepared")
		}
		return err
	}

	// The user message is durable before any model output streams, so a
	// generation failure never loses what the user typed.
	userMsgID := uuid.New()
	err := o.conversations.AddMessages(ctx, req.ConversationID, []*conversation.Message{{
		ID:      userMsgID,
		Role:    ai.RoleUser,
		Content: userMsg.Content,
	}})
	if err != nil {
		o.emit(req.Events, stream.EventError, "the message could not be saved")
		return fmt.Errorf("persist user message: %w", err)
	}
	o.emit(req.Events, stream.EventUserMessageID, userMsgID.String())

	system := o.systemPromptForTurn(ctx)

	// Tools read the owner, model, and event stream from the context.
	turnCtx := stream.ContextWith(ctx, req.Events)
	turnCtx = tools.ContextWithTurn(turnCtx, tools.Turn{OwnerID: req.OwnerID, Model: mdl.GatewayName})

	resp, err := o.gw.Converse(turnCtx, gateway.ConverseRequest{
		Model:         mdl.GatewayName,
		System:        system,
		Messages:      req.Messages,
		Tools:         o.toolNames,
		MaxToolRounds: o.maxToolRounds,
	}, func(_ context.Context, text string) error {
		o.emit(req.Events, stream.EventTextDelta, text)
		return nil
	})
	if err != nil {
		o.emit(req.Events, stream.EventError, "the assistant could not complete this turn")
		return fmt.Errorf("generate turn: %w", err)
	}

	o.persistResponse(ctx, req, resp)
	return nil
}

// ensureConversation loads the conversation or creates it on first use,
// synthesizing a title from the user's first message.
func (o *Orchestrator) ensureConversation(ctx context.Context, req TurnRequest, userMsg *ai.Message, mdl model.Model) error {
	conv, err := o.conversations.Get(ctx, req.ConversationID)
	if err == nil {
		if conv.OwnerID != req.OwnerID {
			return ErrUnauthorized
		}
		return nil
	}
	if !errors.Is(err, conversation.ErrNotFound) {
		return fmt.Errorf("load conversation: %w", err)
	}

	title := o.synthesizeTitle(ctx, mdl, messageText(userMsg))
	if _, err := o.conversations.Create(ctx, req.ConversationID, req.OwnerID, title); err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// synthesizeTitle asks the model for a title and falls back to truncating
// the user message. Title generation is best effort and never fails a turn.
func (o *Orchestrator) synthesizeTitle(ctx context.Context, mdl model.Model, userText string) string {
	title, err := o.gw.Title(ctx, mdl.GatewayName, userText)
	if err != nil {
		o.logger.Debug("title generation failed, falling back to truncation", "error", err)
	}
	if title != "" {
		return title
	}

	runes := []rune(strings.TrimSpace(userText))
	if len(runes) == 0 {
		return "New conversation"
	}
	if len(runes) > titleFallbackMaxRunes {
		return string(runes[:titleFallbackMaxRunes-3]) + "..."
	}
	return string(runes)
}

// systemPromptForTurn folds the FAQ knowledge base into the system prompt.
// A store failure degrades to the base prompt.
func (o *Orchestrator) systemPromptForTurn(ctx context.Context) string {
	if o.faqs == nil {
		return buildSystemPrompt(nil)
	}
	entries, err := o.faqs.List(ctx, faqPromptLimit)
	if err != nil {
		o.logger.Warn("failed to load faq entries for prompt", "error", err)
		return buildSystemPrompt(nil)
	}
	return buildSystemPrompt(entries)
}

// persistResponse sanitizes and stores the model's output, announcing each
// stored assistant message to the client. Persistence here is best effort:
// the user already has the streamed answer, so a storage failure is logged
// rather than surfaced as a turn error.
func (o *Orchestrator) persistResponse(ctx context.Context, req TurnRequest, resp *ai.ModelResponse) {
	newMessages := responseMessages(req.Messages, resp)
	sanitized := sanitizeMessages(newMessages)
	if len(sanitized) == 0 {
		return
	}

	toStore := make([]*conversation.Message, 0, len(sanitized))
	for _, msg := range sanitized {
		stored := &conversation.Message{
			ID:      uuid.New(),
			Role:    msg.Role,
			Content: msg.Content,
		}
		toStore = append(toStore, stored)
	}

	if err := o.conversations.AddMessages(ctx, req.ConversationID, toStore); err != nil {
		o.logger.Error("failed to persist assistant messages",
			"conversation_id", req.ConversationID, "error", err)
		return
	}

	for _, stored := range toStore {
		if stored.Role == ai.RoleModel {
			o.emit(req.Events, stream.EventMessageAnnotation, stream.Annotation{
				MessageIDFromServer: stored.ID.String(),
			})
		}
	}
}

// responseMessages extracts what the generation added beyond the client's
// input: tool traffic recorded in the final request history, plus the final
// message itself.
func responseMessages(input []*ai.Message, resp *ai.ModelResponse) []*ai.Message {
	var out []*ai.Message
	if resp.Request != nil && len(resp.Request.Messages) > len(input) {
		// The request history starts with the rendered input (possibly
		// prefixed by a system message); everything past the last user
		// message is tool traffic from this turn.
		history := resp.Request.Messages
		last := -1
		for i, msg := range history {
			if msg.Role == ai.RoleUser {
				last = i
			}
		}
		if last >= 0 {
			out = append(out, history[last+1:]...)
		}
	}
	if resp.Message != nil {
		out = append(out, resp.Message)
	}
	return out
}

// DeleteConversation removes a conversation after an ownership check.
// Returns conversation.ErrNotFound or ErrUnauthorized accordingly.
func (o *Orchestrator) DeleteConversation(ctx context.Context, id, ownerID uuid.UUID) error {
	conv, err := o.conversations.Get(ctx, id)
	if err != nil {
		return err
	}
	if conv.OwnerID != ownerID {
		return ErrUnauthorized
	}
	return o.conversations.Delete(ctx, id)
}

// Conversations lists the owner's conversations, newest first.
func (o *Orchestrator) Conversations(ctx context.Context, ownerID uuid.UUID) ([]*conversation.Conversation, error) {
	return o.conversations.ListByOwner(ctx, ownerID)
}

// History returns a conversation's messages after an ownership check.
func (o *Orchestrator) History(ctx context.Context, id, ownerID uuid.UUID) ([]*conversation.Message, error) {
	conv, err := o.conversations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}
	return o.conversations.GetMessages(ctx, id)
}

func (o *Orchestrator) lookupModel(id string) (model.Model, bool) {
	if id == "" {
		return o.catalog.Default(), true
	}
	return o.catalog.Lookup(id)
}

// emit forwards an event, tolerating a channel closed by a disconnected
// client.
func (o *Orchestrator) emit(c *stream.Channel, typ stream.EventType, content any) {
	if err := c.Emit(stream.Event{Type: typ, Content: content}); err != nil {
		o.logger.Debug("event dropped", "type", typ, "error", err)
	}
}

// lastUserMessage returns the most recent user message, or nil.
func lastUserMessage(msgs []*ai.Message) *ai.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == ai.RoleUser {
			return msgs[i]
		}
	}
	return nil
}

// messageText concatenates a message's text parts.
func messageText(msg *ai.Message) string {
	if msg == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range msg.Content {
		if part != nil && part.IsText() {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
