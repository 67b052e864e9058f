package llm

import (
	"strings"
	"time"

	"github.com/mkravets/chatlens/types"
)

// NewProvider is a factory function that returns a Provider based on the
// LLM configuration.
func NewProvider(config *types.LLMConfig) (Provider, error) {
	if config == nil {
		return nil, types.NewConfigError("LLM configuration cannot be nil")
	}

	provider := strings.ToLower(strings.TrimSpace(config.Provider))
	switch provider {
	case "openai":
		if config.APIKey == "" {
			return nil, types.NewConfigError("OpenAI provider selected but OPENAI_API_KEY is missing; add it to .env or the config file")
		}
		opts := []OpenAIOption{
			WithModel(config.ModelName),
			WithDebug(config.Debug),
		}
		if config.RequestTimeoutSeconds > 0 {
			opts = append(opts, WithTimeout(time.Duration(config.RequestTimeoutSeconds)*time.Second))
		}
		if config.Temperature > 0 {
			opts = append(opts, WithTemperature(config.Temperature))
		}
		if config.MaxRetries > 0 {
			opts = append(opts, WithMaxRetries(config.MaxRetries))
		}
		if config.TemplatesDir != "" {
			opts = append(opts, WithTemplatesDir(config.TemplatesDir))
		}
		return NewOpenAIProvider(config.APIKey, opts...), nil
	case "":
		return nil, types.NewConfigError("no LLM provider specified in configuration")
	default:
		return nil, types.NewConfigError("unsupported LLM provider: %s", config.Provider)
	}
}
