package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/pkg/log"
)

// Provider is what the agent and the /model command need from a backend.
type Provider interface {
	core.AIProvider
	core.ModelLister
}

// NewProvider creates the backend named by the configuration.
func NewProvider(ctx context.Context, cfg core.ProviderConfig) (Provider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", cfg.GetModel()).
		Msg("starting llm provider")

	switch cfg.GetProvider() {
	case "ollama":
		return NewOllama(cfg.GetBaseURL(), cfg.GetAPIKey(), cfg.GetModel(), cfg.GetNumCtx())
	case "openai":
		return NewOpenAI(cfg.GetAPIKey(), cfg.GetModel()), nil
	case "openrouter":
		return NewOpenRouter(cfg.GetAPIKey(), cfg.GetModel()), nil
	case "custom":
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    cfg.GetBaseURL(),
			APIKey:     cfg.GetAPIKey(),
			Model:      cfg.GetModel(),
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}
