package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-apology/backend/internal/analysis/emotion"
	"github.com/zhouzirui/z-apology/backend/internal/model/chat"
	"github.com/zhouzirui/z-apology/backend/internal/model/style"
	"github.com/zhouzirui/z-apology/backend/internal/service/ai"
	"github.com/zhouzirui/z-apology/backend/internal/service/session"
)

// HistoryLimit is the number of trailing transcript entries replayed to the model.
// Older context is dropped, not summarised.
const HistoryLimit = 10

var (
	ErrMessageRequired   = errors.New("message is required")
	ErrSessionIDRequired = session.ErrSessionIDRequired
	ErrSessionNotFound   = errors.New("session not found")
)

// Generator produces an apology for one user turn.
type Generator interface {
	GenerateApology(ctx context.Context, req ai.ApologyRequest) (ai.Apology, error)
}

// Request is one inbound chat message. An empty SessionID starts a new session.
type Request struct {
	SessionID string
	Message   string
	Style     style.Style
}

// Reply is the shaped result returned to the HTTP layer.
type Reply struct {
	SessionID  string
	Reply      string
	Emotion    emotion.Label
	Style      style.Style
	TokensUsed int
}

// History is a transcript view. Session is nil when the id is unknown.
type History struct {
	SessionID string
	Messages  []chat.Message
	Session   *chat.Session
}

// Service orchestrates one request: load history, generate, persist the exchange.
type Service struct {
	sessions  *session.Store
	generator Generator
	newID     func() string
	logger    *zap.Logger
}

// NewService wires the orchestrator to its store and generator.
func NewService(sessions *session.Store, generator Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions:  sessions,
		generator: generator,
		newID:     uuid.NewString,
		logger:    logger.Named("chat"),
	}
}

// HandleMessage runs one exchange. Both turns are stored only after the generator
// succeeds; a generator error is returned untouched and nothing is written.
func (s *Service) HandleMessage(ctx context.Context, req Request) (Reply, error) {
	if strings.TrimSpace(req.Message) == "" {
		return Reply{}, ErrMessageRequired
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.newID()
	}

	history := s.sessions.GetMessages(sessionID)
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}

	result, err := s.generator.GenerateApology(ctx, ai.ApologyRequest{
		Message: req.Message,
		Style:   req.Style,
		History: history,
	})
	if err != nil {
		return Reply{}, err
	}

	if _, err := s.sessions.AddMessages(sessionID,
		chat.UserMessage(req.Message),
		chat.AssistantMessage(result.Reply),
	); err != nil {
		return Reply{}, fmt.Errorf("failed to persist exchange: %w", err)
	}

	s.logger.Debug("exchange stored",
		zap.String("session", sessionID),
		zap.Int("context", len(history)),
		zap.Int("tokens", result.TokensUsed))

	return Reply{
		SessionID:  sessionID,
		Reply:      result.Reply,
		Emotion:    result.Emotion,
		Style:      result.Style,
		TokensUsed: result.TokensUsed,
	}, nil
}

// History returns the full transcript for sessionID.
func (s *Service) History(_ context.Context, sessionID string) (History, error) {
	if sessionID == "" {
		return History{}, ErrSessionIDRequired
	}

	view := History{SessionID: sessionID, Messages: []chat.Message{}}
	if sess, ok := s.sessions.Get(sessionID); ok {
		view.Messages = sess.Messages
		view.Session = &sess
	}
	return view, nil
}

// ClearHistory empties the transcript; unknown ids are not an error.
func (s *Service) ClearHistory(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}
	s.sessions.Clear(sessionID)
	return nil
}

// DeleteSession removes the session entirely.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}
	if !s.sessions.Delete(sessionID) {
		return ErrSessionNotFound
	}
	s.logger.Debug("session deleted", zap.String("session", sessionID))
	return nil
}

// ListSessions returns the ids of all live sessions.
func (s *Service) ListSessions(_ context.Context) []string {
	return s.sessions.ListIDs()
}
