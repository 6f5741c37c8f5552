package chat

import "github.com/firebase/genkit/go/ai"

// sanitizeMessages removes artifacts a failed or interrupted generation can
// leave behind before the turn is persisted: tool requests that never got a
// response, and messages left with no content. Replaying a dangling tool
// request into a later generation makes providers reject the history.
func sanitizeMessages(msgs []*ai.Message) []*ai.Message {
	answered := make(map[string]bool)
	for _, msg := range msgs {
		for _, part := range msg.Content {
			if part != nil && part.ToolResponse != nil {
				answered[toolKey(part.ToolResponse.Ref, part.ToolResponse.Name)] = true
			}
		}
	}

	var out []*ai.Message
	for _, msg := range msgs {
		kept := make([]*ai.Part, 0, len(msg.Content))
		for _, part := range msg.Content {
			if part == nil {
				continue
			}
			if part.IsText() && part.Text == "" {
				continue
			}
			if part.ToolRequest != nil && !answered[toolKey(part.ToolRequest.Ref, part.ToolRequest.Name)] {
				continue
			}
			kept = append(kept, part)
		}
		if len(kept) == 0 {
			continue
		}
		out = append(out, &ai.Message{Role: msg.Role, Content: kept, Metadata: msg.Metadata})
	}
	return out
}

// toolKey matches a tool request to its response. Providers that send call
// IDs use Ref; others are matched by tool name.
func toolKey(ref, name string) string {
	if ref != "" {
		return ref
	}
	return name
}
