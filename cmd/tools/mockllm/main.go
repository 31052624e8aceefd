package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-apology/backend/internal/logger"
	"github.com/zhouzirui/z-apology/backend/internal/mockllm"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", "127.0.0.1:1234", "监听地址")
	latency := flag.Duration("latency", 100*time.Millisecond, "每次对话补全前的模拟延迟")
	failStatus := flag.Int("fail-status", 0, "非0时对话补全总是返回该HTTP状态码")
	level := flag.String("log-level", "info", "日志级别")
	flag.Parse()

	log, err := logger.New("development", *level)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr: *addr,
		Handler: mockllm.New(mockllm.Options{
			Latency:    *latency,
			FailStatus: *failStatus,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("mock LLM endpoint running, not for production use",
		zap.String("addr", "http://"+*addr),
		zap.String("model", mockllm.ModelID),
		zap.Duration("latency", *latency))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("mock server failed", zap.Error(err))
	}
}
