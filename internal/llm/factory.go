package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ProviderOptions agrupa lo necesario para construir cualquier proveedor.
type ProviderOptions struct {
	Provider     string
	APIKey       string
	BaseURL      string
	Model        string
	GeminiAPIKey string
	GeminiModel  string
	Timeout      time.Duration
}

// NewFromOptions devuelve nil, nil si no hay credenciales: el motor funciona en modo reglas.
func NewFromOptions(ctx context.Context, opts ProviderOptions, logger *zap.Logger) (LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderOpenAI:
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, nil
		}
		return NewHTTPClient(opts.BaseURL, opts.APIKey, opts.Model, opts.Timeout, logger), nil
	case ProviderGemini:
		key := opts.GeminiAPIKey
		if strings.TrimSpace(key) == "" {
			key = opts.APIKey
		}
		if strings.TrimSpace(key) == "" {
			return nil, nil
		}
		client, err := NewGeminiClient(ctx, key, opts.GeminiModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}
