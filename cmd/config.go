package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mkravets/chatlens/types"
)

const (
	configName = ".chatlens"
	envPrefix  = "CHATLENS"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single validator instance, it caches struct info.
var validate = validator.New()

// InitConfig reads in the config file and ENV variables if set.
func InitConfig() {
	// Load .env first if present; it's fine when the file doesn't exist.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix) // e.g. CHATLENS_VERBOSE
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cfgFileFlag := viper.GetString("config"); cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(configName)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
	}

	setDefaults()

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %s\n", err)
		os.Exit(1)
	}
	applyEnvCredentials(&GlobalAppConfig)

	if GlobalAppConfig.Verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
}

func setDefaults() {
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.modelName", "gpt-4o-mini")
	viper.SetDefault("llm.apiKey", "")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.requestTimeoutSeconds", 300)
	viper.SetDefault("llm.maxRetries", 3)
	viper.SetDefault("llm.templatesDir", "")

	viper.SetDefault("telegram.apiId", 0)
	viper.SetDefault("telegram.apiHash", "")
	viper.SetDefault("telegram.phone", "")
	viper.SetDefault("telegram.sessionFile", "telegram.session")

	viper.SetDefault("reports.dir", "reports")
	viper.SetDefault("reports.format", "json")

	viper.SetDefault("analysis.chunkSize", 30)
	viper.SetDefault("analysis.chunkPauseSec", 0.5)
	viper.SetDefault("analysis.taskPauseSec", 0.3)
	viper.SetDefault("analysis.responseWindow", 10)
}

// applyEnvCredentials honors the conventional credential variables when
// the prefixed ones are not set: OPENAI_API_KEY, TELEGRAM_API_ID,
// TELEGRAM_API_HASH and TELEGRAM_PHONE.
func applyEnvCredentials(cfg *types.AppConfig) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Telegram.APIID == 0 {
		if id, err := strconv.Atoi(os.Getenv("TELEGRAM_API_ID")); err == nil {
			cfg.Telegram.APIID = id
		}
	}
	if cfg.Telegram.APIHash == "" {
		cfg.Telegram.APIHash = os.Getenv("TELEGRAM_API_HASH")
	}
	if cfg.Telegram.Phone == "" {
		cfg.Telegram.Phone = os.Getenv("TELEGRAM_PHONE")
	}
}

// GetConfig returns the loaded application configuration after validating it.
func GetConfig() (*types.AppConfig, error) {
	if err := validate.Struct(&GlobalAppConfig); err != nil {
		return nil, types.NewConfigError("invalid configuration: %v", err)
	}
	return &GlobalAppConfig, nil
}
