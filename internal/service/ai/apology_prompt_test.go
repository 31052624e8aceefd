package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-apology/backend/internal/model/chat"
	"github.com/zhouzirui/z-apology/backend/internal/model/style"
)

func TestSystemPromptJoinsBaseAndOverlay(t *testing.T) {
	catalog := style.NewMemoryCatalog(style.Seed())
	builder := NewPromptBuilder(catalog)

	for _, s := range style.All {
		profile, _ := catalog.Find(s)
		got, effective := builder.SystemPrompt(s)
		assert.Equal(t, s, effective)
		assert.Equal(t, style.BasePrompt+"\n\n"+profile.Prompt, got)
	}
}

func TestSystemPromptDefaultsToGentle(t *testing.T) {
	builder := NewPromptBuilder(style.NewMemoryCatalog(style.Seed()))
	gentle, _ := builder.SystemPrompt(style.Gentle)

	for _, s := range []style.Style{"", "sarcastic"} {
		got, effective := builder.SystemPrompt(s)
		assert.Equal(t, style.Gentle, effective)
		assert.Equal(t, gentle, got)
	}
}

func TestBuildMessagesOrdering(t *testing.T) {
	builder := NewPromptBuilder(style.NewMemoryCatalog(style.Seed()))
	history := []chat.Message{
		chat.UserMessage("我今天心情不好"),
		chat.AssistantMessage("非常抱歉听到这个消息..."),
	}

	messages, effective, err := builder.BuildMessages(context.Background(), "还是觉得很难受", style.Formal, history)
	require.NoError(t, err)
	assert.Equal(t, style.Formal, effective)
	require.Len(t, messages, 4)

	assert.Equal(t, schema.System, messages[0].Role)
	assert.True(t, strings.HasPrefix(messages[0].Content, style.BasePrompt))
	assert.Equal(t, schema.User, messages[1].Role)
	assert.Equal(t, "我今天心情不好", messages[1].Content)
	assert.Equal(t, schema.Assistant, messages[2].Role)
	assert.Equal(t, "非常抱歉听到这个消息...", messages[2].Content)
	assert.Equal(t, schema.User, messages[3].Role)
	assert.Equal(t, "还是觉得很难受", messages[3].Content)
}

func TestBuildMessagesWithoutHistory(t *testing.T) {
	builder := NewPromptBuilder(style.NewMemoryCatalog(style.Seed()))

	messages, _, err := builder.BuildMessages(context.Background(), "{literally} braces", "", nil)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "{literally} braces", messages[1].Content)
}
