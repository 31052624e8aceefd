package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	LLM    LLMConfig
	Log    LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	llm, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, LLM: llm, Log: loadLogConfig()}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr       string
	Env        string
	CORSOrigin string
}

// Development 表示是否运行在开发模式，开发模式下 500 错误会返回原始信息。
func (c ServerConfig) Development() bool {
	return strings.EqualFold(c.Env, "development")
}

// loadServerConfig 解析服务器监听地址与运行环境。
func loadServerConfig() (ServerConfig, error) {
	addr, err := ParseAddr(getEnvOrDefault("BACKEND_PORT", "5000"))
	if err != nil {
		return ServerConfig{}, err
	}

	env := getEnvOrDefault("APP_ENV", getEnvOrDefault("NODE_ENV", "development"))

	return ServerConfig{
		Addr:       addr,
		Env:        strings.ToLower(env),
		CORSOrigin: getEnvOrDefault("CORS_ORIGIN", "http://localhost:3000"),
	}, nil
}

// ParseAddr 将端口或地址转换为 http.Server 可用的监听地址。
func ParseAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		return "", fmt.Errorf("invalid BACKEND_PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "127.0.0.1:5000"。
		return port, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid BACKEND_PORT value: %q", port)
	}

	return ":" + port, nil
}

// LLMConfig 描述本地大模型服务（OpenAI 兼容接口）的配置。
type LLMConfig struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

const (
	DefaultLLMBaseURL     = "http://127.0.0.1:1234"
	DefaultLLMModel       = "local-model"
	DefaultLLMTemperature = 0.7
	DefaultLLMMaxTokens   = 500
	DefaultLLMTimeout     = 30 * time.Second
)

func loadLLMConfig() (LLMConfig, error) {
	cfg := LLMConfig{
		BaseURL:     strings.TrimRight(getEnvOrDefault("LM_STUDIO_URL", DefaultLLMBaseURL), "/"),
		Model:       getEnvOrDefault("LLM_MODEL_NAME", DefaultLLMModel),
		Temperature: DefaultLLMTemperature,
		MaxTokens:   DefaultLLMMaxTokens,
		Timeout:     DefaultLLMTimeout,
	}

	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return LLMConfig{}, err
	}
	if temperature != nil {
		cfg.Temperature = *temperature
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return LLMConfig{}, err
	}
	if maxTokens != nil {
		if *maxTokens < 1 {
			return LLMConfig{}, fmt.Errorf("invalid LLM_MAX_TOKENS value %d: must be positive", *maxTokens)
		}
		cfg.MaxTokens = *maxTokens
	}

	timeoutMS, err := parseOptionalIntEnv("LLM_TIMEOUT_MS")
	if err != nil {
		return LLMConfig{}, err
	}
	if timeoutMS != nil {
		if *timeoutMS < 1 {
			return LLMConfig{}, fmt.Errorf("invalid LLM_TIMEOUT_MS value %d: must be positive", *timeoutMS)
		}
		cfg.Timeout = time.Duration(*timeoutMS) * time.Millisecond
	}

	return cfg, nil
}

// LogConfig 描述日志输出配置。
type LogConfig struct {
	Level string
}

func loadLogConfig() LogConfig {
	return LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
