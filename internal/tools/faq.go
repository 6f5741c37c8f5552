package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"

	"github.com/baygut/faq-chat-bot/internal/faq"
	"github.com/baygut/faq-chat-bot/internal/log"
)

// FaqToolsetName is the toolset identifier constant.
const FaqToolsetName = "faq"

// faqSuggestionLimit caps how many questions getFaqSuggestions returns.
const faqSuggestionLimit = 10

// FaqStore is the persistence surface the FAQ tools need.
type FaqStore interface {
	Save(ctx context.Context, question, answer string) (*faq.Entry, error)
	Search(ctx context.Context, question string) (*faq.Entry, error)
	List(ctx context.Context, limit int32) ([]*faq.Entry, error)
}

// SaveFaqInput defines input for the saveFaq tool.
type SaveFaqInput struct {
	Question string `json:"question" jsonschema_description:"The question to save"`
	Answer   string `json:"answer" jsonschema_description:"The answer to the question"`
}

// AnswerFaqInput defines input for the answerFaq tool.
type AnswerFaqInput struct {
	Question string `json:"question" jsonschema_description:"The question to look up"`
}

// FaqAnswer is the data payload of a successful answerFaq call.
type FaqAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FaqToolset provides knowledge-base tools: saving new Q&A pairs, answering
// from stored entries, and suggesting questions users commonly ask.
type FaqToolset struct {
	store  FaqStore
	logger log.Logger
}

// NewFaqToolset creates a FaqToolset.
func NewFaqToolset(store FaqStore, logger log.Logger) (*FaqToolset, error) {
	if store == nil {
		return nil, fmt.Errorf("faq store is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &FaqToolset{store: store, logger: logger}, nil
}

// Name returns the toolset identifier.
func (ft *FaqToolset) Name() string {
	return FaqToolsetName
}

// Tools returns all tools provided by this toolset.
func (ft *FaqToolset) Tools() []*Tool {
	return []*Tool{
		NewTool(
			"saveFaq",
			"Save a question and answer pair to the FAQ knowledge base "+
				"so future users asking the same thing get a consistent answer.",
			ft.saveFaq,
		),
		NewTool(
			"answerFaq",
			"Look up a question in the FAQ knowledge base and return the stored answer. "+
				"Prefer this over answering from memory when the question sounds like a frequently asked one.",
			ft.answerFaq,
		),
		NewTool(
			"getFaqSuggestions",
			"Get recently asked questions from the FAQ knowledge base, "+
				"useful for suggesting follow-up questions to the user.",
			ft.getFaqSuggestions,
		),
	}
}

func (ft *FaqToolset) saveFaq(tc *ai.ToolContext, in SaveFaqInput) (Result, error) {
	if in.Question == "" || in.Answer == "" {
		return Failed("both question and answer are required"), nil
	}

	entry, err := ft.store.Save(tc.Context, in.Question, in.Answer)
	if err != nil {
		ft.logger.Error("failed to save faq entry", "error", err)
		return Failed("the FAQ entry could not be saved"), nil
	}

	return Success("The question and answer were saved to the FAQ knowledge base.", FaqAnswer{
		Question: entry.Question,
		Answer:   entry.Answer,
	}), nil
}

func (ft *FaqToolset) answerFaq(tc *ai.ToolContext, in AnswerFaqInput) (Result, error) {
	if in.Question == "" {
		return Failed("a question is required"), nil
	}

	entry, err := ft.store.Search(tc.Context, in.Question)
	if err != nil {
		if errors.Is(err, faq.ErrNotFound) {
			return Failed("No matching entry in the FAQ knowledge base."), nil
		}
		return Result{}, fmt.Errorf("search faqs: %w", err)
	}

	return Success("", FaqAnswer{Question: entry.Question, Answer: entry.Answer}), nil
}

func (ft *FaqToolset) getFaqSuggestions(tc *ai.ToolContext, _ struct{}) (Result, error) {
	entries, err := ft.store.List(tc.Context, faqSuggestionLimit)
	if err != nil {
		return Result{}, fmt.Errorf("list faqs: %w", err)
	}
	if len(entries) == 0 {
		return Failed("The FAQ knowledge base is empty."), nil
	}

	questions := make([]string, 0, len(entries))
	for _, e := range entries {
		questions = append(questions, e.Question)
	}
	return Success("", questions), nil
}
