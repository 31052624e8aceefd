package style

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-apology/backend/internal/model/style"
	"github.com/zhouzirui/z-apology/backend/pkg/utils"
)

// Handler 道歉风格的HTTP处理器
type Handler struct {
	styles style.Catalog
}

// New 创建风格处理器
func New(styles style.Catalog) *Handler {
	return &Handler{styles: styles}
}

// RegisterRoutes 注册风格相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/styles", h.handleListStyles)
}

// handleListStyles 列出所有风格及示例对话
func (h *Handler) handleListStyles(w http.ResponseWriter, r *http.Request) {
	profiles := h.styles.List()
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"styles": profiles,
		"count":  len(profiles),
	})
}
