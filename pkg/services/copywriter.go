package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/config"
	"github.com/promoforge-inc/promoforge-engine/pkg/logging"
	"github.com/promoforge-inc/promoforge-engine/pkg/retry"
)

// providerRetryConfig keeps provider retries short; the render is waiting.
var providerRetryConfig = &retry.Config{
	MaxRetries:   2,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2.0,
	JitterFactor: 0.1,
}

const copywriterSystemPrompt = `あなたはECバナーのコピーライターです。商品タイトルをバナー向けの短いキャッチコピーに書き換えてください。意味を変えず、誇大表現を加えず、書き換えた文のみを返してください。`

// CopywriterService optionally rewrites titles with an LLM, steered by the
// tenant's recent teach samples. It never fails a render: any provider
// error returns the input unchanged.
type CopywriterService interface {
	// Refine returns the rewritten title, or the input verbatim when the
	// copywriter is disabled or the provider call fails.
	Refine(ctx context.Context, tenantID, title string) string
}

// completionClient is the thin seam over the two provider SDKs.
type completionClient interface {
	complete(ctx context.Context, system, prompt string) (string, error)
}

type copywriterService struct {
	cfg    config.CopywriterConfig
	client completionClient
	teach  TeachService
	logger *zap.Logger
}

// NewCopywriterService builds the provider client from configuration. An
// empty provider yields a pass-through service.
func NewCopywriterService(cfg config.CopywriterConfig, teach TeachService, logger *zap.Logger) (CopywriterService, error) {
	s := &copywriterService{cfg: cfg, teach: teach, logger: logger}

	switch cfg.Provider {
	case "":
		// Pass-through.
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("copywriter provider openai requires COPYWRITER_API_KEY")
		}
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.Endpoint != "" {
			oc.BaseURL = cfg.Endpoint
		}
		s.client = &openaiClient{client: openai.NewClientWithConfig(oc), model: cfg.Model}
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("copywriter provider anthropic requires COPYWRITER_API_KEY")
		}
		s.client = &anthropicClient{client: anthropic.NewClient(cfg.APIKey), model: cfg.Model}
	default:
		return nil, fmt.Errorf("unknown copywriter provider %q", cfg.Provider)
	}
	return s, nil
}

var _ CopywriterService = (*copywriterService)(nil)

func (s *copywriterService) Refine(ctx context.Context, tenantID, title string) string {
	if s.client == nil || title == "" {
		return title
	}

	timeout := time.Duration(s.cfg.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt := s.buildPrompt(ctx, tenantID, title)
	var out string
	err := retry.DoIfRetryable(ctx, providerRetryConfig, func() error {
		var cerr error
		out, cerr = s.client.complete(ctx, copywriterSystemPrompt, prompt)
		return cerr
	})
	if err != nil {
		s.logger.Warn("Copywriter call failed, keeping original title",
			zap.String("tenant", tenantID),
			zap.String("title", logging.TruncateString(title, logging.MaxTitleLogLength)),
			zap.Error(err))
		return title
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return title
	}
	return out
}

// buildPrompt prepends the tenant's recent corrections as few-shot pairs.
// A failed exemplar fetch just means a plain prompt.
func (s *copywriterService) buildPrompt(ctx context.Context, tenantID, title string) string {
	var b strings.Builder

	if s.teach != nil && s.cfg.MaxExemplars > 0 {
		samples, err := s.teach.RecentExemplars(ctx, tenantID, s.cfg.MaxExemplars)
		if err != nil {
			s.logger.Warn("Failed to load teach exemplars", zap.String("tenant", tenantID), zap.Error(err))
		}
		if len(samples) > 0 {
			b.WriteString("書き換え例:\n")
			// Oldest first so the freshest correction is closest to the task.
			for i := len(samples) - 1; i >= 0; i-- {
				fmt.Fprintf(&b, "入力: %s\n出力: %s\n", samples[i].Input, samples[i].IdealOutput)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "入力: %s\n出力:", title)
	return b.String()
}

type openaiClient struct {
	client *openai.Client
	model  string
}

func (c *openaiClient) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

type anthropicClient struct {
	client *anthropic.Client
	model  string
}

func (c *anthropicClient) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    system,
		MaxTokens: 256,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	return resp.GetFirstContentText(), nil
}
