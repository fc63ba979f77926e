package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/wolfman30/voice-normalizers/internal/assist"
	appconfig "github.com/wolfman30/voice-normalizers/internal/config"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

const assistTimeout = 3 * time.Second

// BuildAssistant wires the optional LLM date assistant. It returns nil when
// ASSIST_PROVIDER is none.
func BuildAssistant(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*assist.DateAssistant, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() {}

	switch strings.TrimSpace(cfg.AssistProvider) {
	case "", "none":
		return nil, noop, nil
	case "gemini":
		completer, err := assist.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: gemini: %w", err)
		}
		logger.Info("ai assist enabled", "provider", "gemini")
		return assist.NewDateAssistant(completer, assistTimeout, logger), func() { _ = completer.Close() }, nil
	case "bedrock":
		completer, err := assist.NewBedrockCompleter(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: bedrock: %w", err)
		}
		logger.Info("ai assist enabled", "provider", "bedrock", "model", cfg.BedrockModelID)
		return assist.NewDateAssistant(completer, assistTimeout, logger), noop, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown assist provider %q", cfg.AssistProvider)
	}
}
