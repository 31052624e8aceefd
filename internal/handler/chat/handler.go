package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-apology/backend/internal/handler/httperror"
	"github.com/zhouzirui/z-apology/backend/internal/model/chat"
	"github.com/zhouzirui/z-apology/backend/internal/model/style"
	chatService "github.com/zhouzirui/z-apology/backend/internal/service/chat"
	"github.com/zhouzirui/z-apology/backend/pkg/utils"
)

// maxBodyBytes 请求体大小上限
const maxBodyBytes = 1 << 20

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	errors  *httperror.Responder
	now     func() time.Time
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, responder *httperror.Responder) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		errors:  responder,
		now:     time.Now,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Post("/message", h.handleMessage)
		r.Get("/history", h.handleGetHistory)
		r.Delete("/history", h.handleClearHistory)
		r.Delete("/session", h.handleDeleteSession)
		r.Get("/sessions", h.handleListSessions)
	})
}

type messageRequest struct {
	Message   string `json:"message"`
	Style     string `json:"style"`
	SessionID string `json:"sessionId"`
}

type messageResponse struct {
	SessionID  string `json:"sessionId"`
	Reply      string `json:"reply"`
	Emotion    string `json:"emotion"`
	Style      string `json:"style"`
	TokensUsed int    `json:"tokensUsed"`
	Timestamp  string `json:"timestamp"`
}

type historyResponse struct {
	SessionID    string         `json:"sessionId"`
	Messages     []chat.Message `json:"messages"`
	MessageCount int            `json:"messageCount"`
	CreatedAt    *string        `json:"createdAt,omitempty"`
	UpdatedAt    *string        `json:"updatedAt,omitempty"`
}

type sessionActionResponse struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type sessionsResponse struct {
	Sessions []string `json:"sessions"`
	Count    int      `json:"count"`
}

// handleMessage 发送消息并获取道歉回复
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		h.errors.Validation(w, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Message) == "" {
		h.errors.Validation(w, chatService.ErrMessageRequired.Error())
		return
	}

	// 未知风格按默认风格处理
	st, _ := style.Parse(payload.Style)

	reply, err := h.chatSvc.HandleMessage(r.Context(), chatService.Request{
		SessionID: payload.SessionID,
		Message:   payload.Message,
		Style:     st,
	})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, messageResponse{
		SessionID:  reply.SessionID,
		Reply:      reply.Reply,
		Emotion:    string(reply.Emotion),
		Style:      string(reply.Style),
		TokensUsed: reply.TokensUsed,
		Timestamp:  utils.Timestamp(h.now()),
	})
}

// handleGetHistory 获取会话历史
func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")

	view, err := h.chatSvc.History(r.Context(), sessionID)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	resp := historyResponse{
		SessionID:    view.SessionID,
		Messages:     view.Messages,
		MessageCount: len(view.Messages),
	}
	if view.Session != nil {
		createdAt := utils.Timestamp(view.Session.CreatedAt)
		updatedAt := utils.Timestamp(view.Session.UpdatedAt)
		resp.CreatedAt = &createdAt
		resp.UpdatedAt = &updatedAt
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// handleClearHistory 清空会话历史, 保留会话本身
func (h *Handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(w, r)

	if err := h.chatSvc.ClearHistory(r.Context(), sessionID); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sessionActionResponse{
		SessionID: sessionID,
		Message:   "History cleared successfully",
	})
}

// handleDeleteSession 删除整个会话
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(w, r)

	if err := h.chatSvc.DeleteSession(r.Context(), sessionID); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sessionActionResponse{
		SessionID: sessionID,
		Message:   "Session deleted successfully",
	})
}

// handleListSessions 列出所有会话ID (调试用)
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := h.chatSvc.ListSessions(r.Context())
	utils.RespondJSON(w, http.StatusOK, sessionsResponse{Sessions: ids, Count: len(ids)})
}

// sessionIDFromRequest 优先读取查询参数, 缺失时回退到JSON请求体
func sessionIDFromRequest(w http.ResponseWriter, r *http.Request) string {
	if id := r.URL.Query().Get("sessionId"); id != "" {
		return id
	}
	if r.Body == nil {
		return ""
	}

	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return payload.SessionID
}
