// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.scribe/config.yaml or ./config.yaml)
//  3. Default values
//
// Security: Slack tokens are read from the environment only and are masked in
// MarshalJSON / String so they never reach logs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingSlackBotToken indicates SLACK_BOT_TOKEN is not set.
	ErrMissingSlackBotToken = errors.New("missing Slack bot token")

	// ErrMissingSlackAppToken indicates SLACK_APP_TOKEN is not set.
	ErrMissingSlackAppToken = errors.New("missing Slack app-level token")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidProjectRoot indicates the project root does not exist.
	ErrInvalidProjectRoot = errors.New("invalid project root")

	// ErrInvalidSessionTimeout indicates the session timeout is out of range.
	ErrInvalidSessionTimeout = errors.New("invalid session timeout")

	// ErrInvalidSessionCap indicates the session message cap is out of range.
	ErrInvalidSessionCap = errors.New("invalid session message cap")

	// ErrInvalidToolRounds indicates the tool round cap is out of range.
	ErrInvalidToolRounds = errors.New("invalid max tool rounds")

	// ErrUnknownPartition indicates channel_access references an undeclared partition.
	ErrUnknownPartition = errors.New("unknown partition in channel access")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderGoogleAI = "googleai"
)

// Defaults for the conversational memory window and the tool loop.
const (
	// DefaultSessionTimeout is how long a conversation stays warm without activity.
	DefaultSessionTimeout = 30 * time.Minute

	// DefaultSessionMaxMessages caps stored messages per conversation (20 exchanges).
	DefaultSessionMaxMessages = 40

	// DefaultMaxToolRounds bounds the model's tool-use loop per turn.
	DefaultMaxToolRounds = 8

	// DefaultGitTimeout bounds each git subprocess invocation.
	DefaultGitTimeout = 30 * time.Second
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI provider and model configuration
	Provider  string `mapstructure:"provider" json:"provider"`     // "gemini" (default) or "ollama"
	ModelName string `mapstructure:"model_name" json:"model_name"` // e.g. "gemini-2.5-flash", "llama3.3"

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Project content configuration
	ProjectRoot   string              `mapstructure:"project_root" json:"project_root"`
	Partitions    map[string]string   `mapstructure:"partitions" json:"partitions"`         // directory -> display name
	ChannelAccess map[string][]string `mapstructure:"channel_access" json:"channel_access"` // channel id -> allowed partitions
	ExcludeFiles  []string            `mapstructure:"exclude_files" json:"exclude_files"`   // root-level documents to skip

	// Conversation memory configuration
	SessionTimeoutMinutes int `mapstructure:"session_timeout_minutes" json:"session_timeout_minutes"`
	SessionMaxMessages    int `mapstructure:"session_max_messages" json:"session_max_messages"`

	// Orchestration configuration
	MaxToolRounds     int `mapstructure:"max_tool_rounds" json:"max_tool_rounds"`
	GitTimeoutSeconds int `mapstructure:"git_timeout_seconds" json:"git_timeout_seconds"`

	// Slack credentials (environment only, never from file)
	SlackBotToken string `mapstructure:"slack_bot_token" json:"slack_bot_token"` // SENSITIVE: masked in MarshalJSON
	SlackAppToken string `mapstructure:"slack_app_token" json:"slack_app_token"` // SENSITIVE: masked in MarshalJSON
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".scribe")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Also support current directory

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("ollama_host", "http://localhost:11434")

	v.SetDefault("project_root", ".")
	v.SetDefault("partitions", map[string]string{})
	v.SetDefault("channel_access", map[string][]string{})
	v.SetDefault("exclude_files", []string{})

	v.SetDefault("session_timeout_minutes", int(DefaultSessionTimeout/time.Minute))
	v.SetDefault("session_max_messages", DefaultSessionMaxMessages)

	v.SetDefault("max_tool_rounds", DefaultMaxToolRounds)
	v.SetDefault("git_timeout_seconds", int(DefaultGitTimeout/time.Second))
}

// bindEnvVariables binds environment variables explicitly.
// Secrets come exclusively from the environment:
//   - SLACK_BOT_TOKEN, SLACK_APP_TOKEN: Slack credentials
//   - GEMINI_API_KEY: read directly by the Genkit googlegenai plugin, not via Viper
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a failure here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("slack_bot_token", "SLACK_BOT_TOKEN")
	mustBind("slack_app_token", "SLACK_APP_TOKEN")

	mustBind("provider", "SCRIBE_PROVIDER")
	mustBind("model_name", "SCRIBE_MODEL_NAME")
	mustBind("ollama_host", "SCRIBE_OLLAMA_HOST")
	mustBind("project_root", "SCRIBE_PROJECT_ROOT")
}

// Validate checks configuration invariants (fail-fast at startup).
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.SlackBotToken == "" {
		return fmt.Errorf("%w: set SLACK_BOT_TOKEN", ErrMissingSlackBotToken)
	}
	if c.SlackAppToken == "" {
		return fmt.Errorf("%w: set SLACK_APP_TOKEN", ErrMissingSlackAppToken)
	}

	switch c.Provider {
	case ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q (supported: gemini, ollama)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}

	info, err := os.Stat(c.ProjectRoot)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrInvalidProjectRoot, c.ProjectRoot)
	}

	if c.SessionTimeoutMinutes <= 0 {
		return fmt.Errorf("%w: %d minutes", ErrInvalidSessionTimeout, c.SessionTimeoutMinutes)
	}
	if c.SessionMaxMessages < 2 {
		return fmt.Errorf("%w: %d (need at least one exchange)", ErrInvalidSessionCap, c.SessionMaxMessages)
	}
	if c.MaxToolRounds <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidToolRounds, c.MaxToolRounds)
	}

	for channel, partitions := range c.ChannelAccess {
		for _, p := range partitions {
			if _, ok := c.Partitions[p]; !ok {
				return fmt.Errorf("%w: channel %q references %q", ErrUnknownPartition, channel, p)
			}
		}
	}

	return nil
}

// SessionTimeout returns the configured session timeout as a duration.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}

// GitTimeout returns the configured git subprocess timeout as a duration.
func (c *Config) GitTimeout() time.Duration {
	return time.Duration(c.GitTimeoutSeconds) * time.Second
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	if c.Provider == ProviderOllama {
		return ProviderOllama + "/" + c.ModelName
	}
	return ProviderGoogleAI + "/" + c.ModelName
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Short secrets are fully masked; longer ones keep two characters of context
// at each end for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.SlackBotToken = maskSecret(a.SlackBotToken)
	a.SlackAppToken = maskSecret(a.SlackAppToken)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
