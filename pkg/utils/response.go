package utils

import (
	"encoding/json"
	"net/http"
	"time"
)

// TimestampLayout ISO-8601 毫秒精度, 与前端约定一致
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrorBody 统一的错误响应体
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// 头部已写出, 编码失败时无法再改状态码
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, kind, message string) {
	RespondJSON(w, status, ErrorBody{Error: kind, Message: message})
}

// Timestamp 返回UTC时间戳字符串
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
