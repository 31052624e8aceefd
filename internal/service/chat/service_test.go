package chat_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-apology/backend/internal/analysis/emotion"
	"github.com/zhouzirui/z-apology/backend/internal/model/chat"
	"github.com/zhouzirui/z-apology/backend/internal/model/style"
	"github.com/zhouzirui/z-apology/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/z-apology/backend/internal/service/chat"
	"github.com/zhouzirui/z-apology/backend/internal/service/session"
)

// stubGenerator records requests and answers with a canned reply or error.
type stubGenerator struct {
	requests []ai.ApologyRequest
	err      error
}

func (g *stubGenerator) GenerateApology(_ context.Context, req ai.ApologyRequest) (ai.Apology, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return ai.Apology{}, g.err
	}
	return ai.Apology{
		Reply:      "抱歉: " + req.Message,
		Emotion:    emotion.Detect(req.Message),
		Style:      style.Normalize(req.Style),
		TokensUsed: 42,
	}, nil
}

func newService(gen chatservice.Generator) (*chatservice.Service, *session.Store) {
	store := session.NewStore()
	return chatservice.NewService(store, gen, nil), store
}

func TestHandleMessageNewSession(t *testing.T) {
	gen := &stubGenerator{}
	svc, store := newService(gen)

	reply, err := svc.HandleMessage(context.Background(), chatservice.Request{Message: "今天工作太累了"})
	require.NoError(t, err)

	assert.NotEmpty(t, reply.SessionID)
	assert.Equal(t, "抱歉: 今天工作太累了", reply.Reply)
	assert.Equal(t, emotion.Tired, reply.Emotion)
	assert.Equal(t, style.Gentle, reply.Style)
	assert.Equal(t, 42, reply.TokensUsed)

	want := []chat.Message{
		chat.UserMessage("今天工作太累了"),
		chat.AssistantMessage("抱歉: 今天工作太累了"),
	}
	if diff := cmp.Diff(want, store.GetMessages(reply.SessionID)); diff != "" {
		t.Fatalf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleMessageMintsDistinctIDs(t *testing.T) {
	svc, _ := newService(&stubGenerator{})

	first, err := svc.HandleMessage(context.Background(), chatservice.Request{Message: "a"})
	require.NoError(t, err)
	second, err := svc.HandleMessage(context.Background(), chatservice.Request{Message: "b"})
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestHandleMessageReplaysLastTenMessages(t *testing.T) {
	gen := &stubGenerator{}
	svc, store := newService(gen)

	for i := 0; i < 6; i++ {
		_, err := svc.HandleMessage(context.Background(), chatservice.Request{SessionID: "s1", Message: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}
	require.Len(t, store.GetMessages("s1"), 12)

	_, err := svc.HandleMessage(context.Background(), chatservice.Request{SessionID: "s1", Message: "latest", Style: style.Formal})
	require.NoError(t, err)

	last := gen.requests[len(gen.requests)-1]
	require.Len(t, last.History, chatservice.HistoryLimit)
	assert.Equal(t, chat.UserMessage("m1"), last.History[0])
	assert.Equal(t, chat.AssistantMessage("抱歉: m5"), last.History[9])
	assert.Equal(t, style.Formal, last.Style)
	assert.Empty(t, last.Emotion, "emotion is left to the generator")
}

func TestHandleMessageFailureWritesNothing(t *testing.T) {
	gwErr := &ai.Error{Code: ai.CodeConnectionRefused, Message: "down"}
	gen := &stubGenerator{err: gwErr}
	svc, store := newService(gen)

	_, err := svc.HandleMessage(context.Background(), chatservice.Request{SessionID: "s1", Message: "hello"})
	assert.Same(t, gwErr, err)
	assert.Empty(t, store.GetMessages("s1"))
	assert.Zero(t, store.Len())
}

func TestHandleMessageRequiresMessage(t *testing.T) {
	gen := &stubGenerator{}
	svc, _ := newService(gen)

	_, err := svc.HandleMessage(context.Background(), chatservice.Request{Message: "   "})
	assert.ErrorIs(t, err, chatservice.ErrMessageRequired)
	assert.Empty(t, gen.requests)
}

func TestHistory(t *testing.T) {
	svc, _ := newService(&stubGenerator{})
	ctx := context.Background()

	reply, err := svc.HandleMessage(ctx, chatservice.Request{Message: "hi"})
	require.NoError(t, err)

	view, err := svc.History(ctx, reply.SessionID)
	require.NoError(t, err)
	assert.Len(t, view.Messages, 2)
	require.NotNil(t, view.Session)
	assert.Equal(t, reply.SessionID, view.Session.ID)

	unknown, err := svc.History(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, unknown.Messages)
	assert.NotNil(t, unknown.Messages)
	assert.Nil(t, unknown.Session)

	_, err = svc.History(ctx, "")
	assert.ErrorIs(t, err, chatservice.ErrSessionIDRequired)
}

func TestClearHistoryTwice(t *testing.T) {
	svc, store := newService(&stubGenerator{})
	ctx := context.Background()

	_, err := svc.HandleMessage(ctx, chatservice.Request{SessionID: "s1", Message: "hi"})
	require.NoError(t, err)

	require.NoError(t, svc.ClearHistory(ctx, "s1"))
	assert.Empty(t, store.GetMessages("s1"))
	require.NoError(t, svc.ClearHistory(ctx, "s1"))
	assert.Empty(t, store.GetMessages("s1"))
	require.NoError(t, svc.ClearHistory(ctx, "unknown"))
}

func TestDeleteSession(t *testing.T) {
	svc, _ := newService(&stubGenerator{})
	ctx := context.Background()

	_, err := svc.HandleMessage(ctx, chatservice.Request{SessionID: "s1", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, svc.ListSessions(ctx))

	require.NoError(t, svc.DeleteSession(ctx, "s1"))
	assert.ErrorIs(t, svc.DeleteSession(ctx, "s1"), chatservice.ErrSessionNotFound)
	assert.Empty(t, svc.ListSessions(ctx))
}
