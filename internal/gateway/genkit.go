package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/baygut/faq-chat-bot/internal/log"
)

const (
	// titleMaxLength caps generated conversation titles.
	titleMaxLength = 80

	// titleInputMaxRunes limits how much of the user message is sent for
	// title generation; long pastes would waste tokens for no better title.
	titleInputMaxRunes = 500

	// titleTimeout bounds title generation so a slow provider cannot stall
	// the turn.
	titleTimeout = 5 * time.Second
)

var titlePrompt = fmt.Sprintf(
	"Generate a concise title (max %d characters) for a chat conversation based on this first message.",
	titleMaxLength) + `
Rules:
- Summarize the topic, do not answer the question
- No quotes, no trailing punctuation
- Use the language of the message

Message: %s`

const suggestionsSystem = `You are a help desk content editor. Given a piece of writing,
propose improvements sentence by sentence. For each improvable sentence return the
original sentence, the improved sentence, and a one-line description of the change.
Return at most 5 suggestions.`

// suggestionsOutput is the structured output schema for Suggest.
type suggestionsOutput struct {
	Suggestions []SuggestionDraft `json:"suggestions"`
}

// GenkitGateway implements Gateway on top of a Genkit instance. Tool names in
// ConverseRequest.Tools must already be registered with the same instance.
type GenkitGateway struct {
	g      *genkit.Genkit
	logger log.Logger
}

var _ Gateway = (*GenkitGateway)(nil)

// NewGenkit wraps a configured Genkit instance.
func NewGenkit(g *genkit.Genkit, logger log.Logger) *GenkitGateway {
	if logger == nil {
		logger = log.NewNop()
	}
	return &GenkitGateway{g: g, logger: logger}
}

// Converse runs a tool-augmented generation.
func (gw *GenkitGateway) Converse(ctx context.Context, req ConverseRequest, stream StreamFunc) (*ai.ModelResponse, error) {
	refs := make([]ai.ToolRef, 0, len(req.Tools))
	for _, name := range req.Tools {
		tool := genkit.LookupTool(gw.g, name)
		if tool == nil {
			return nil, fmt.Errorf("tool %q is not registered", name)
		}
		refs = append(refs, tool)
	}

	// Genkit mutates message content in place while rendering, so shared
	// history slices must be copied per call to avoid a data race.
	messages := deepCopyMessages(req.Messages)

	opts := []ai.GenerateOption{
		ai.WithModelName(req.Model),
		ai.WithMessages(messages...),
		ai.WithTools(refs...),
		ai.WithMaxTurns(req.MaxToolRounds),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}
	if stream != nil {
		opts = append(opts, ai.WithStreaming(func(cctx context.Context, chunk *ai.ModelResponseChunk) error {
			text := chunk.Text()
			if text == "" {
				return nil
			}
			return stream(cctx, text)
		}))
	}

	gw.logger.Debug("running conversation generation",
		"model", req.Model,
		"messages", len(messages),
		"tools", len(refs),
	)

	resp, err := genkit.Generate(ctx, gw.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return resp, nil
}

// Draft generates document text and streams deltas as they arrive.
func (gw *GenkitGateway) Draft(ctx context.Context, req DraftRequest, stream DeltaFunc) (string, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(req.Model),
		ai.WithPrompt(req.Prompt),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}
	if stream != nil {
		opts = append(opts, ai.WithStreaming(func(cctx context.Context, chunk *ai.ModelResponseChunk) error {
			text := chunk.Text()
			if text == "" {
				return nil
			}
			return stream(cctx, text)
		}))
	}

	resp, err := genkit.Generate(ctx, gw.g, opts...)
	if err != nil {
		return "", fmt.Errorf("draft: %w", err)
	}
	return resp.Text(), nil
}

// Suggest proposes writing improvements via structured output.
func (gw *GenkitGateway) Suggest(ctx context.Context, model, content string) ([]SuggestionDraft, error) {
	resp, err := genkit.Generate(ctx, gw.g,
		ai.WithModelName(model),
		ai.WithSystem(suggestionsSystem),
		ai.WithPrompt(content),
		ai.WithOutputType(suggestionsOutput{}),
	)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	var out suggestionsOutput
	if err := resp.Output(&out); err != nil {
		return nil, fmt.Errorf("suggest output: %w", err)
	}
	if len(out.Suggestions) > 5 {
		out.Suggestions = out.Suggestions[:5]
	}
	return out.Suggestions, nil
}

// Title produces a short conversation title from the user's first message.
// Failures return an error; callers fall back to truncating the message.
func (gw *GenkitGateway) Title(ctx context.Context, model, userMessage string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	inputRunes := []rune(userMessage)
	if len(inputRunes) > titleInputMaxRunes {
		userMessage = string(inputRunes[:titleInputMaxRunes]) + "..."
	}

	resp, err := genkit.Generate(ctx, gw.g,
		ai.WithModelName(model),
		ai.WithPrompt(titlePrompt, userMessage),
	)
	if err != nil {
		return "", fmt.Errorf("title: %w", err)
	}

	title := strings.TrimSpace(resp.Text())
	titleRunes := []rune(title)
	if len(titleRunes) > titleMaxLength {
		title = string(titleRunes[:titleMaxLength-3]) + "..."
	}
	return title, nil
}

// deepCopyMessages copies messages so Genkit's in-place rendering cannot
// race with another generation sharing the same history.
func deepCopyMessages(msgs []*ai.Message) []*ai.Message {
	if msgs == nil {
		return nil
	}
	copied := make([]*ai.Message, len(msgs))
	for i, msg := range msgs {
		parts := make([]*ai.Part, len(msg.Content))
		for j, part := range msg.Content {
			parts[j] = deepCopyPart(part)
		}
		copied[i] = &ai.Message{
			Role:     msg.Role,
			Content:  parts,
			Metadata: shallowCopyMap(msg.Metadata),
		}
	}
	return copied
}

// deepCopyPart copies a part. ToolRequest/ToolResponse payloads are treated
// as read-only and copied by reference.
func deepCopyPart(p *ai.Part) *ai.Part {
	if p == nil {
		return nil
	}
	cp := &ai.Part{
		Kind:        p.Kind,
		ContentType: p.ContentType,
		Text:        p.Text,
		Custom:      shallowCopyMap(p.Custom),
		Metadata:    shallowCopyMap(p.Metadata),
	}
	if p.ToolRequest != nil {
		cp.ToolRequest = &ai.ToolRequest{
			Input: p.ToolRequest.Input,
			Name:  p.ToolRequest.Name,
			Ref:   p.ToolRequest.Ref,
		}
	}
	if p.ToolResponse != nil {
		cp.ToolResponse = &ai.ToolResponse{
			Name:   p.ToolResponse.Name,
			Output: p.ToolResponse.Output,
			Ref:    p.ToolResponse.Ref,
		}
	}
	if p.Resource != nil {
		cp.Resource = &ai.ResourcePart{Uri: p.Resource.Uri}
	}
	return cp
}

func shallowCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
