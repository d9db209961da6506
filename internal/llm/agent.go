package llm

import (
	"context"
	"encoding/json"
	"strings"

	"email-agent-go/internal/model"
)

// AgentText combines the email body with a serialized snapshot of the
// whole email record
func AgentText(email model.Email) string {
	snapshot, _ := json.Marshal(email)
	return email.Body + "\n\nFull email metadata:\n" + string(snapshot)
}

// RenderPrompt substitutes text and, when non-nil, the user instruction
// into template
func RenderPrompt(template, text string, userInstruction *string) string {
	prompt := strings.ReplaceAll(template, model.EmailTextPlaceholder, text)
	if userInstruction != nil {
		prompt = strings.ReplaceAll(prompt, model.UserInstructionPlaceholder, *userInstruction)
	}
	return prompt
}

// AgentQuery renders template for email and dispatches it as a kind task
func (d *Dispatcher) AgentQuery(ctx context.Context, kind Kind, email model.Email, template string, userInstruction *string, maxTokens int) Result {
	text := AgentText(email)
	return d.Run(ctx, Task{
		Kind:   kind,
		Prompt: RenderPrompt(template, text, userInstruction),
		Text:   text,
		Tone:   userInstruction,
	}, maxTokens)
}
