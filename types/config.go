package types

// AppConfig represents the complete application configuration.
type AppConfig struct {
	Verbose  bool           `mapstructure:"verbose"`
	Config   string         `mapstructure:"config"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Telegram TelegramConfig `mapstructure:"telegram" validate:"omitempty"`
	Reports  ReportsConfig  `mapstructure:"reports" validate:"required"`
	Analysis AnalysisConfig `mapstructure:"analysis" validate:"required"`
}

// LLMConfig holds configuration for the language-model gateway.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider" validate:"omitempty,oneof=openai"`
	ModelName   string  `mapstructure:"modelName" validate:"omitempty,min=1"`
	APIKey      string  `mapstructure:"apiKey" validate:"omitempty,min=1"`
	Temperature float64 `mapstructure:"temperature" validate:"omitempty,min=0,max=2"`
	// RequestTimeoutSeconds controls the HTTP client timeout for LLM calls.
	RequestTimeoutSeconds int `mapstructure:"requestTimeoutSeconds" validate:"omitempty,min=5,max=600"`
	// MaxRetries controls automatic retries after a rate-limit response.
	MaxRetries int `mapstructure:"maxRetries" validate:"omitempty,min=0,max=3"`
	// TemplatesDir points at a directory of prompt override files.
	TemplatesDir string `mapstructure:"templatesDir"`
	// Debug enables request/response logging inside the provider.
	Debug bool `mapstructure:"debug"`
}

// TelegramConfig holds credentials for the live Telegram import.
type TelegramConfig struct {
	APIID       int    `mapstructure:"apiId" validate:"omitempty,min=1"`
	APIHash     string `mapstructure:"apiHash" validate:"omitempty,min=1"`
	Phone       string `mapstructure:"phone"`
	SessionFile string `mapstructure:"sessionFile" validate:"required"`
}

// ReportsConfig holds report output settings.
type ReportsConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
	// Format of the structured report file: json or yaml.
	Format string `mapstructure:"format" validate:"required,oneof=json yaml"`
}

// AnalysisConfig holds pipeline tuning knobs. The pauses are cooperative
// client-side pacing against provider rate limits, not correctness
// requirements.
type AnalysisConfig struct {
	ChunkSize      int     `mapstructure:"chunkSize" validate:"required,min=1"`
	ChunkPauseSec  float64 `mapstructure:"chunkPauseSec" validate:"min=0"`
	TaskPauseSec   float64 `mapstructure:"taskPauseSec" validate:"min=0"`
	ResponseWindow int     `mapstructure:"responseWindow" validate:"required,min=1"`
}
