package system

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-apology/backend/internal/handler/httperror"
	"github.com/zhouzirui/z-apology/backend/internal/service/ai"
	"github.com/zhouzirui/z-apology/backend/pkg/utils"
)

// Gateway 系统接口所需的LLM网关能力
type Gateway interface {
	Config() ai.Config
	HealthCheck(ctx context.Context) bool
	Models(ctx context.Context) ([]ai.ModelInfo, error)
}

// Handler 健康检查与LLM状态接口
type Handler struct {
	gateway Gateway
	errors  *httperror.Responder
	now     func() time.Time
}

// New 创建系统处理器
func New(gateway Gateway, responder *httperror.Responder) *Handler {
	return &Handler{gateway: gateway, errors: responder, now: time.Now}
}

// RegisterRoutes 注册系统路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/test", h.handleTest)
	r.Route("/llm", func(r chi.Router) {
		r.Get("/status", h.handleLLMStatus)
		r.Get("/models", h.handleLLMModels)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Backend server is running",
	})
}

func (h *Handler) handleTest(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message":   "API is working!",
		"timestamp": utils.Timestamp(h.now()),
	})
}

// handleLLMStatus 探测LLM端点是否可用, 本身总是返回200
func (h *Handler) handleLLMStatus(w http.ResponseWriter, r *http.Request) {
	cfg := h.gateway.Config()
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"available": h.gateway.HealthCheck(r.Context()),
		"baseURL":   cfg.BaseURL,
		"model":     cfg.Model,
	})
}

// handleLLMModels 透传上游的模型列表
func (h *Handler) handleLLMModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.gateway.Models(r.Context())
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   models,
	})
}
