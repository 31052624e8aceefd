package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/z-apology/backend/internal/model/chat"
	"github.com/zhouzirui/z-apology/backend/internal/model/style"
)

// PromptBuilder assembles the message list sent to the model: one system message,
// the caller-supplied history, then the new user message.
type PromptBuilder struct {
	styles   style.Catalog
	template *prompt.DefaultChatTemplate
}

// NewPromptBuilder creates a builder backed by the given style table.
func NewPromptBuilder(styles style.Catalog) *PromptBuilder {
	return &PromptBuilder{
		styles: styles,
		template: prompt.FromMessages(
			schema.FString,
			schema.SystemMessage("{system}"),
			schema.MessagesPlaceholder("history", true),
			schema.UserMessage("{query}"),
		),
	}
}

// SystemPrompt returns the base prompt joined with the overlay for s, along with the
// style that was actually applied.
func (b *PromptBuilder) SystemPrompt(s style.Style) (string, style.Style) {
	effective := style.Normalize(s)
	profile, ok := b.styles.Find(effective)
	if !ok {
		effective = style.Default
		profile, _ = b.styles.Find(effective)
	}
	return style.BasePrompt + "\n\n" + profile.Prompt, effective
}

// BuildMessages renders the full prompt. History is used as given; truncation is the
// caller's responsibility.
func (b *PromptBuilder) BuildMessages(ctx context.Context, message string, s style.Style, history []chat.Message) ([]*schema.Message, style.Style, error) {
	system, effective := b.SystemPrompt(s)

	messages, err := b.template.Format(ctx, map[string]any{
		"system":  system,
		"history": toSchemaMessages(history),
		"query":   message,
	})
	if err != nil {
		return nil, effective, fmt.Errorf("failed to format apology prompt: %w", err)
	}
	return messages, effective, nil
}

func toSchemaMessages(history []chat.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case chat.RoleUser:
			out = append(out, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		case chat.RoleSystem:
			out = append(out, schema.SystemMessage(msg.Content))
		}
	}
	return out
}
