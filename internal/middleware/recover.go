package middleware

import (
	"fmt"
	"net/http"

	"github.com/zhouzirui/z-apology/backend/internal/handler/httperror"
)

// Recover 捕获panic并返回统一的500 JSON响应
func Recover(responder *httperror.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				responder.Internal(w, r, fmt.Errorf("panic: %v", rec))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
