package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-apology/backend/internal/model/style"
	"github.com/zhouzirui/z-apology/backend/internal/service/ai"
)

const probeMessage = "今天工作太累了，感觉很烦躁"

var (
	probeURL   string
	probeModel string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "检查LLM端点: 模型列表, 测试对话, 道歉回复",
	Long: `probe runs three checks against the configured LLM endpoint:
  1. GET /v1/models
  2. a short chat completion
  3. a full apology generation with the default style`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeURL, "url", "", "LLM endpoint base URL, overrides LM_STUDIO_URL")
	probeCmd.Flags().StringVar(&probeModel, "model", "", "model name, overrides LLM_MODEL_NAME")
}

func runProbe(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	gwCfg := gatewayConfig(cfg.LLM)
	if probeURL != "" {
		gwCfg.BaseURL = probeURL
	}
	if probeModel != "" {
		gwCfg.Model = probeModel
	}

	gateway, err := ai.NewService(gwCfg, ai.NewPromptBuilder(style.NewMemoryCatalog(style.Seed())), zap.NewNop())
	if err != nil {
		return err
	}
	defer gateway.Close()

	return probe(cmd, gateway)
}

func probe(cmd *cobra.Command, gateway *ai.Service) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Target URL: %s\n\n", gateway.Config().BaseURL)

	fmt.Fprintln(out, "[1/3] checking server availability...")
	models, err := gateway.Models(ctx)
	if err != nil {
		fmt.Fprintln(out, "  cannot reach the endpoint. Make sure LM Studio is running, a model is loaded and the server is listening.")
		return fmt.Errorf("list models: %w", err)
	}
	fmt.Fprintln(out, "  server is running, available models:")
	if err := printJSON(out, models); err != nil {
		return err
	}

	fmt.Fprintln(out, "[2/3] sending test chat completion...")
	started := time.Now()
	reply, err := gateway.ChatCompletion(ctx, []*schema.Message{
		schema.SystemMessage("You are a helpful assistant."),
		schema.UserMessage(`Hello! Please respond with just "Hi there!"`),
	}, gateway.Config().Temperature, 50)
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	fmt.Fprintf(out, "  ok in %s\n  reply: %s\n  tokens: %d\n\n",
		time.Since(started).Round(time.Millisecond), reply.Content, totalTokens(reply))

	fmt.Fprintln(out, "[3/3] generating apology...")
	started = time.Now()
	apology, err := gateway.GenerateApology(ctx, ai.ApologyRequest{Message: probeMessage})
	if err != nil {
		return fmt.Errorf("generate apology: %w", err)
	}
	fmt.Fprintf(out, "  ok in %s (emotion=%s, style=%s, tokens=%d)\n\n%s\n\n",
		time.Since(started).Round(time.Millisecond), apology.Emotion, apology.Style, apology.TokensUsed, apology.Reply)

	fmt.Fprintln(out, "all checks passed")
	return nil
}

func totalTokens(msg *schema.Message) int {
	if msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return 0
	}
	return msg.ResponseMeta.Usage.TotalTokens
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("  ", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
