package ai

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-apology/backend/internal/analysis/emotion"
	"github.com/zhouzirui/z-apology/backend/internal/model/chat"
	"github.com/zhouzirui/z-apology/backend/internal/model/style"
)

// HealthCheckTimeout bounds HealthCheck regardless of the configured chat timeout.
const HealthCheckTimeout = 5 * time.Second

// Config describes the OpenAI-compatible endpoint the gateway talks to.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// ConfigUpdate carries a partial reconfiguration. Nil fields keep their current value.
type ConfigUpdate struct {
	BaseURL     *string
	Model       *string
	Temperature *float64
	MaxTokens   *int
	Timeout     *time.Duration
}

// ApologyRequest is the input of GenerateApology. An empty Emotion is detected from
// Message; an empty or unknown Style falls back to style.Default.
type ApologyRequest struct {
	Message string
	Style   style.Style
	History []chat.Message
	Emotion emotion.Label
}

// Apology is the shaped result of one model call.
type Apology struct {
	Reply        string
	Emotion      emotion.Label
	Style        style.Style
	TokensUsed   int
	FinishReason string
}

// ModelInfo is one entry of the endpoint's /v1/models listing.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// gatewayState is swapped as a whole so readers never see a half-applied config.
type gatewayState struct {
	cfg        Config
	httpClient *http.Client
	client     *openai.Client
}

// Service is the LLM gateway: it owns the HTTP client for the endpoint and turns
// every transport failure into an *Error.
type Service struct {
	mu      sync.Mutex
	state   atomic.Pointer[gatewayState]
	prompts *PromptBuilder
	logger  *zap.Logger
}

// NewService creates a gateway for cfg.
func NewService(cfg Config, prompts *PromptBuilder, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	s := &Service{prompts: prompts, logger: logger.Named("ai")}
	s.state.Store(newGatewayState(cfg, nil))
	return s, nil
}

// Config returns a snapshot of the active configuration.
func (s *Service) Config() Config {
	return s.state.Load().cfg
}

// UpdateConfig applies u atomically. Changing the base URL or timeout rebuilds the
// pooled transport and releases idle connections held by the old one.
func (s *Service) UpdateConfig(u ConfigUpdate) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.Load()
	next := current.cfg
	if u.BaseURL != nil {
		next.BaseURL = *u.BaseURL
	}
	if u.Model != nil {
		next.Model = *u.Model
	}
	if u.Temperature != nil {
		next.Temperature = *u.Temperature
	}
	if u.MaxTokens != nil {
		next.MaxTokens = *u.MaxTokens
	}
	if u.Timeout != nil {
		next.Timeout = *u.Timeout
	}
	if err := validateConfig(next); err != nil {
		return current.cfg, err
	}

	rebuild := normalizeBaseURL(next.BaseURL) != normalizeBaseURL(current.cfg.BaseURL) ||
		next.Timeout != current.cfg.Timeout
	if rebuild {
		s.state.Store(newGatewayState(next, nil))
		current.httpClient.CloseIdleConnections()
		s.logger.Info("llm transport rebuilt", zap.String("baseURL", next.BaseURL), zap.Duration("timeout", next.Timeout))
	} else {
		s.state.Store(newGatewayState(next, current))
	}
	return next, nil
}

// Close releases pooled connections.
func (s *Service) Close() {
	s.state.Load().httpClient.CloseIdleConnections()
}

// ChatCompletion posts messages to {BaseURL}/v1/chat/completions. The returned message
// carries the first choice's content; its ResponseMeta holds the finish reason and the
// upstream usage block unmodified.
//
// Cancellation of ctx is not propagated: once issued, the request runs until it
// completes, fails or hits the configured timeout.
func (s *Service) ChatCompletion(ctx context.Context, messages []*schema.Message, temperature float64, maxTokens int) (*schema.Message, error) {
	st := s.state.Load()

	req := openai.ChatCompletionRequest{
		Model:       st.cfg.Model,
		Messages:    toOpenAIMessages(messages),
		Temperature: wireTemperature(temperature),
		MaxTokens:   maxTokens,
	}

	started := time.Now()
	resp, err := st.client.CreateChatCompletion(context.WithoutCancel(ctx), req)
	if err != nil {
		gwErr := normalizeError(err)
		s.logger.Warn("chat completion failed",
			zap.String("code", string(gwErr.Code)),
			zap.Int("status", gwErr.StatusCode),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return nil, gwErr
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Code: CodeUnknownError, Message: "LM Studio returned no choices"}
	}

	choice := resp.Choices[0]
	s.logger.Debug("chat completion finished",
		zap.String("model", resp.Model),
		zap.String("finishReason", string(choice.FinishReason)),
		zap.Int("totalTokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(started)))

	return &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(choice.FinishReason),
			Usage: &schema.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		},
	}, nil
}

// HealthCheck reports whether GET {BaseURL}/v1/models answers 200 within
// HealthCheckTimeout. The body is not inspected. It never returns an error.
func (s *Service) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), HealthCheckTimeout)
	defer cancel()

	st := s.state.Load()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalizeBaseURL(st.cfg.BaseURL)+"/v1/models", nil)
	if err != nil {
		return false
	}

	resp, err := st.httpClient.Do(req)
	if err != nil {
		s.logger.Debug("health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		s.logger.Debug("health check failed", zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}

// Models lists the models served by the endpoint.
func (s *Service) Models(ctx context.Context) ([]ModelInfo, error) {
	list, err := s.state.Load().client.ListModels(context.WithoutCancel(ctx))
	if err != nil {
		return nil, normalizeError(err)
	}

	models := make([]ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, ModelInfo{ID: m.ID, Object: m.Object, Created: m.CreatedAt, OwnedBy: m.OwnedBy})
	}
	return models, nil
}

// GenerateApology builds the prompt for req and asks the model for a reply.
func (s *Service) GenerateApology(ctx context.Context, req ApologyRequest) (Apology, error) {
	detected := req.Emotion
	if detected == "" {
		detected = emotion.Detect(req.Message)
	}

	messages, effective, err := s.prompts.BuildMessages(ctx, req.Message, req.Style, req.History)
	if err != nil {
		return Apology{}, normalizeError(err)
	}

	cfg := s.Config()
	reply, err := s.ChatCompletion(ctx, messages, cfg.Temperature, cfg.MaxTokens)
	if err != nil {
		return Apology{}, err
	}

	result := Apology{
		Reply:   reply.Content,
		Emotion: detected,
		Style:   effective,
	}
	if meta := reply.ResponseMeta; meta != nil {
		result.FinishReason = meta.FinishReason
		if meta.Usage != nil {
			result.TokensUsed = meta.Usage.TotalTokens
		}
	}

	s.logger.Info("generated apology",
		zap.String("style", string(effective)),
		zap.String("emotion", string(detected)),
		zap.Int("history", len(req.History)),
		zap.Int("tokens", result.TokensUsed))
	return result, nil
}

func newGatewayState(cfg Config, reuse *gatewayState) *gatewayState {
	if reuse != nil {
		return &gatewayState{cfg: cfg, httpClient: reuse.httpClient, client: reuse.client}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	httpClient := &http.Client{Transport: transport, Timeout: cfg.Timeout}

	clientCfg := openai.DefaultConfig("")
	clientCfg.BaseURL = normalizeBaseURL(cfg.BaseURL) + "/v1"
	clientCfg.HTTPClient = httpClient

	return &gatewayState{
		cfg:        cfg,
		httpClient: httpClient,
		client:     openai.NewClientWithConfig(clientCfg),
	}
}

// wireTemperature keeps an explicit 0 on the wire; go-openai omits a zero temperature.
func wireTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func validateConfig(cfg Config) error {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid LLM base URL %q: %w", cfg.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid LLM base URL %q: expected http(s)://host[:port]", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("invalid LLM timeout %s: must be positive", cfg.Timeout)
	}
	if cfg.MaxTokens < 0 {
		return fmt.Errorf("invalid LLM max tokens %d", cfg.MaxTokens)
	}
	return nil
}

func normalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

func toOpenAIMessages(messages []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return out
}
