// Package mockllm serves a minimal OpenAI-compatible endpoint for local development
// and tests: GET /v1/models and POST /v1/chat/completions.
package mockllm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sashabaranov/go-openai"
)

// ModelID is the single model advertised by the mock.
const ModelID = "mock-model-v1"

const (
	tiredReply = `非常抱歉听到你今天这么辛苦。工作压力大确实会让人感到疲惫和烦躁，这种感受完全可以理解。

你的感受是完全正常和合理的。每个人都有承受压力的极限，感到累和烦躁说明你已经付出了很多努力。

请允许我向你表达深深的理解和支持。你并不孤单，这样的感受很多人都经历过。希望你能好好休息一下，给自己一些放松的时间。`
	genericReply = "非常抱歉给您带来了困扰。我完全理解您的感受，这确实让人感到不舒服。请允许我真诚地向您道歉，并表达我的理解和支持。"
	plainReply   = "Hi there!"
)

// Options tunes the mock's behaviour.
type Options struct {
	// Latency is added before every chat completion response.
	Latency time.Duration
	// FailStatus, when non-zero, makes chat completions answer with this status and an
	// OpenAI-style error body.
	FailStatus int
	// RawFailure makes failures return a plain-text body instead of JSON.
	RawFailure bool
	// Reply overrides the canned reply selection.
	Reply func(req openai.ChatCompletionRequest) string
}

// Server is an http.Handler that records every chat completion request it receives.
type Server struct {
	opts   Options
	router chi.Router

	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
}

// New builds a mock endpoint.
func New(opts Options) *Server {
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Get("/v1/models", s.handleModels)
	r.Post("/v1/chat/completions", s.handleChatCompletions)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Requests returns the chat completion requests received so far.
func (s *Server) Requests() []openai.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]openai.ChatCompletionRequest(nil), s.requests...)
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data": []openai.Model{{
			ID:        ModelID,
			Object:    "model",
			CreatedAt: time.Now().Unix(),
			OwnedBy:   "mock-lm-studio",
		}},
	})
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.opts.Latency > 0 {
		select {
		case <-time.After(s.opts.Latency):
		case <-r.Context().Done():
			return
		}
	}

	if s.opts.FailStatus != 0 {
		if s.opts.RawFailure {
			http.Error(w, "upstream exploded", s.opts.FailStatus)
			return
		}
		writeJSON(w, s.opts.FailStatus, errorBody(http.StatusText(s.opts.FailStatus)))
		return
	}

	reply := s.reply(req)
	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += estimateTokens(m.Content)
	}
	completionTokens := estimateTokens(reply)

	now := time.Now()
	writeJSON(w, http.StatusOK, openai.ChatCompletionResponse{
		ID:      fmt.Sprintf("chatcmpl-mock-%d", now.UnixMilli()),
		Object:  "chat.completion",
		Created: now.Unix(),
		Model:   ModelID,
		Choices: []openai.ChatCompletionChoice{{
			Index: 0,
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: reply,
			},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: openai.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	})
}

func (s *Server) reply(req openai.ChatCompletionRequest) string {
	if s.opts.Reply != nil {
		return s.opts.Reply(req)
	}

	var system, user string
	for _, m := range req.Messages {
		switch m.Role {
		case openai.ChatMessageRoleSystem:
			if system == "" {
				system = m.Content
			}
		case openai.ChatMessageRoleUser:
			user = m.Content
		}
	}

	if !strings.Contains(system, "道歉专家") && !strings.Contains(system, "apology") {
		return plainReply
	}
	if strings.Contains(user, "累") || strings.Contains(user, "烦") {
		return tiredReply
	}
	return genericReply
}

// estimateTokens approximates four characters per token, rounding up.
func estimateTokens(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}

func errorBody(message string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "mock_error",
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
