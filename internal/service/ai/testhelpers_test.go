package ai

import (
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-apology/backend/internal/mockllm"
	"github.com/zhouzirui/z-apology/backend/internal/model/style"
)

func newTestGateway(t *testing.T, baseURL string, timeout time.Duration) *Service {
	t.Helper()
	svc, err := NewService(Config{
		BaseURL:     baseURL,
		Model:       "local-model",
		Temperature: 0.7,
		MaxTokens:   500,
		Timeout:     timeout,
	}, NewPromptBuilder(style.NewMemoryCatalog(style.Seed())), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func startMock(t *testing.T, opts mockllm.Options) (*mockllm.Server, string) {
	t.Helper()
	mock := mockllm.New(opts)
	srv := httptest.NewServer(mock)
	t.Cleanup(srv.Close)
	return mock, srv.URL
}

// closedAddr returns a URL on which nothing is listening.
func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return "http://" + addr
}
