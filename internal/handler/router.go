package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-apology/backend/internal/handler/chat"
	"github.com/zhouzirui/z-apology/backend/internal/handler/httperror"
	"github.com/zhouzirui/z-apology/backend/internal/handler/style"
	"github.com/zhouzirui/z-apology/backend/internal/handler/system"
	middlewarePkg "github.com/zhouzirui/z-apology/backend/internal/middleware"
	styleModel "github.com/zhouzirui/z-apology/backend/internal/model/style"
	chatService "github.com/zhouzirui/z-apology/backend/internal/service/chat"
	"github.com/zhouzirui/z-apology/backend/pkg/utils"
)

// Dependencies 路由所需的核心服务
type Dependencies struct {
	Styles      styleModel.Catalog
	Chat        *chatService.Service
	Gateway     system.Gateway
	Logger      *zap.Logger
	CORSOrigin  string
	Development bool
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	responder := httperror.NewResponder(deps.Development, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middlewarePkg.Recover(responder))
	r.Use(middlewarePkg.CORS(deps.CORSOrigin))

	// 未匹配的路由与方法统一返回404
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	systemHandler := system.New(deps.Gateway, responder)
	styleHandler := style.New(deps.Styles)
	chatHandler := chat.New(deps.Chat, responder)

	r.Route("/api", func(api chi.Router) {
		systemHandler.RegisterRoutes(api)
		styleHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
	})

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	utils.RespondError(w, http.StatusNotFound, httperror.KindNotFound,
		fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
}
