package chat

import (
	"strings"

	"github.com/baygut/faq-chat-bot/internal/faq"
)

// systemPrompt is the assistant's standing instruction set.
const systemPrompt = `You are a friendly help desk assistant. Keep your responses concise and helpful.

You can call tools to help the user:
- Use getWeather when the user asks about current weather at a location.
- Use createDocument and updateDocument for writing activities; the document content
  streams to the user directly, so never repeat it in your reply.
- Use requestSuggestions when the user asks for feedback on a document.
- Answer frequently asked questions from the knowledge base with answerFaq before
  answering from memory, and save genuinely new question/answer pairs with saveFaq.
- Use getFaqSuggestions to propose follow-up questions.`

// faqPromptLimit caps how many knowledge base entries are inlined into the
// system prompt per turn.
const faqPromptLimit = 20

// buildSystemPrompt appends the current FAQ knowledge base to the standing
// prompt so the model can answer common questions without a tool round trip.
func buildSystemPrompt(entries []*faq.Entry) string {
	if len(entries) == 0 {
		return systemPrompt
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nKnown frequently asked questions:\n")
	for _, e := range entries {
		b.WriteString("Q: ")
		b.WriteString(e.Question)
		b.WriteString("\nA: ")
		b.WriteString(e.Answer)
		b.WriteString("\n")
	}
	return b.String()
}
