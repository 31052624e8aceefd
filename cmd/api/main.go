package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/z-apology/backend/internal/config"
	"github.com/zhouzirui/z-apology/backend/internal/handler"
	"github.com/zhouzirui/z-apology/backend/internal/logger"
	"github.com/zhouzirui/z-apology/backend/internal/model/style"
	"github.com/zhouzirui/z-apology/backend/internal/service/ai"
	"github.com/zhouzirui/z-apology/backend/internal/service/chat"
	"github.com/zhouzirui/z-apology/backend/internal/service/session"
)

const shutdownTimeout = 10 * time.Second

var (
	envFile string
	port    string
)

var rootCmd = &cobra.Command{
	Use:           "apology-api",
	Short:         "道歉聊天后端服务",
	Long:          "Runs the apology chat HTTP backend in front of a local OpenAI-compatible LLM endpoint.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务 (默认命令)",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default: ./.env if present)")
	rootCmd.PersistentFlags().StringVar(&port, "port", "", "listen port or address, overrides BACKEND_PORT")

	rootCmd.AddCommand(serveCmd, probeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig 加载 .env 与环境变量; envLoaded 表示是否读到了 .env 文件
func loadConfig() (cfg *config.Config, envLoaded bool, err error) {
	envLoaded = true
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, false, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil {
		envLoaded = false
	}

	cfg, err = config.Load()
	if err != nil {
		return nil, false, fmt.Errorf("failed to load configuration: %w", err)
	}

	if port != "" {
		addr, err := config.ParseAddr(port)
		if err != nil {
			return nil, false, err
		}
		cfg.Server.Addr = addr
	}
	return cfg, envLoaded, nil
}

func gatewayConfig(cfg config.LLMConfig) ai.Config {
	return ai.Config{
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, envLoaded, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if !envLoaded {
		log.Warn("no .env file loaded, continuing with system environment variables only")
	}

	catalog := style.NewMemoryCatalog(style.Seed())

	gateway, err := ai.NewService(gatewayConfig(cfg.LLM), ai.NewPromptBuilder(catalog), log)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM gateway: %w", err)
	}
	defer gateway.Close()

	store := session.NewStore(session.WithLogger(log))
	defer store.Close()

	chatSvc := chat.NewService(store, gateway, log)

	router := handler.NewRouter(handler.Dependencies{
		Styles:      catalog,
		Chat:        chatSvc,
		Gateway:     gateway,
		Logger:      log,
		CORSOrigin:  cfg.Server.CORSOrigin,
		Development: cfg.Server.Development(),
	})

	ctx := cmd.Context()
	if gateway.HealthCheck(ctx) {
		log.Info("LLM endpoint reachable", zap.String("baseURL", cfg.LLM.BaseURL), zap.String("model", cfg.LLM.Model))
	} else {
		log.Warn("LLM endpoint not reachable, chat requests will fail until it is up", zap.String("baseURL", cfg.LLM.BaseURL))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("apology backend listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Env))
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// runServer 运行服务直到 ctx 结束, 然后优雅关闭
func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
