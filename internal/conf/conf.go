package conf

import (
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/usecase"
)

// Config represents application configuration
type Config struct {
	DataDir           string `env:"WINGMAN_DATA_DIR" envDefault:"./data"`
	LogLevel          string `env:"WINGMAN_LOG_LEVEL" envDefault:"info"`
	LogFormat         string `env:"WINGMAN_LOG_FORMAT" envDefault:"console"`
	Timezone          string `env:"WINGMAN_TIMEZONE" envDefault:"Europe/London"`
	DashboardAddr     string `env:"DASHBOARD_ADDR" envDefault:"127.0.0.1:8765"`
	PersonalitiesPath string `env:"PERSONALITIES_PATH"`

	LLM      LLMConfig      `envPrefix:"LLM_"`
	Client   ClientConfig   `envPrefix:"CLIENT_"`
	Pipeline PipelineConfig `envPrefix:"PIPELINE_"`
	Feishu   FeishuConfig   `envPrefix:"FEISHU_"`
	Defaults DefaultsConfig
}

// LLMConfig contains completion backend configuration
type LLMConfig struct {
	Provider       string        `env:"PROVIDER" envDefault:"anthropic"` // anthropic or openai
	APIKey         string        `env:"API_KEY"`
	BaseURL        string        `env:"BASE_URL"`
	Model          string        `env:"MODEL"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"15s"`
	MaxAttempts    int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	BaseDelay      time.Duration `env:"BASE_DELAY" envDefault:"1s"`
	AltPersonality string        `env:"ALT_PERSONALITY" envDefault:"playful"`
}

// ClientConfig selects and configures the app client
type ClientConfig struct {
	Kind       string  `env:"KIND" envDefault:"file"` // file or stub
	InboxPath  string  `env:"INBOX_PATH"`
	OutboxPath string  `env:"OUTBOX_PATH"`
	MatchRate  float64 `env:"MATCH_RATE" envDefault:"0.3"`
}

// PipelineConfig contains scheduler and pass configuration
type PipelineConfig struct {
	PollInterval     time.Duration `env:"POLL_INTERVAL" envDefault:"5m"`
	PassTimeout      time.Duration `env:"PASS_TIMEOUT" envDefault:"30m"`
	Concurrency      int           `env:"CONCURRENCY" envDefault:"1"`
	PendingRetention time.Duration `env:"PENDING_RETENTION" envDefault:"168h"`
	OutreachDelayMin time.Duration `env:"OUTREACH_DELAY_MIN" envDefault:"5s"`
	OutreachDelayMax time.Duration `env:"OUTREACH_DELAY_MAX" envDefault:"10s"`
}

// FeishuConfig contains the operator notification chat
type FeishuConfig struct {
	AppID          string `env:"APP_ID"`
	AppSecret      string `env:"APP_SECRET"`
	ApprovalChatID string `env:"APPROVAL_CHAT_ID"`
	Commands       bool   `env:"COMMANDS" envDefault:"true"` // Accept approve/discard commands in the approval chat
}

// Enabled reports whether credentials and a chat are configured
func (f FeishuConfig) Enabled() bool {
	return f.AppID != "" && f.AppSecret != "" && f.ApprovalChatID != ""
}

// DefaultsConfig seeds runtime settings on first start
type DefaultsConfig struct {
	BotEnabled      bool    `env:"BOT_ENABLED" envDefault:"false"`
	AutoApprove     bool    `env:"AUTO_APPROVE" envDefault:"true"`
	AutoSwipe       bool    `env:"AUTO_SWIPE" envDefault:"false"`
	Personality     string  `env:"PERSONALITY" envDefault:"default"`
	MatchLimit      int     `env:"MATCH_LIMIT" envDefault:"100"`
	TypingDelay     float64 `env:"TYPING_DELAY" envDefault:"3"`
	MaxTokens       int     `env:"MAX_TOKENS" envDefault:"300"`
	Temperature     float32 `env:"TEMPERATURE" envDefault:"0.8"`
	MessageDelayMin int     `env:"MESSAGE_DELAY_MIN" envDefault:"30"`
	MessageDelayMax int     `env:"MESSAGE_DELAY_MAX" envDefault:"120"`
	OutreachCount   int     `env:"OUTREACH_COUNT" envDefault:"5"`
	SwipeLimit      int     `env:"SWIPE_LIMIT" envDefault:"20"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, &ConfigError{Field: "env", Message: err.Error()}
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills paths derived from the data directory
func (c *Config) ApplyDefaults() {
	if c.Client.InboxPath == "" {
		c.Client.InboxPath = filepath.Join(c.DataDir, "inbox.json")
	}
	if c.Client.OutboxPath == "" {
		c.Client.OutboxPath = filepath.Join(c.DataDir, "outbox.jsonl")
	}
}

// SettingsPath is where runtime settings are persisted
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.yaml")
}

// Location returns the reference timezone, UTC when unknown
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ToSettings converts the seed values into runtime settings
func (d DefaultsConfig) ToSettings() domain.Settings {
	return domain.Settings{
		BotEnabled:      d.BotEnabled,
		AutoApprove:     d.AutoApprove,
		AutoSwipe:       d.AutoSwipe,
		Personality:     d.Personality,
		MatchLimit:      d.MatchLimit,
		TypingDelay:     d.TypingDelay,
		MaxTokens:       d.MaxTokens,
		Temperature:     d.Temperature,
		MessageDelayMin: d.MessageDelayMin,
		MessageDelayMax: d.MessageDelayMax,
		OutreachCount:   d.OutreachCount,
		SwipeLimit:      d.SwipeLimit,
	}
}

// ToGeneratorConfig converts to reply generator configuration
func (c *Config) ToGeneratorConfig() usecase.GeneratorConfig {
	cfg := usecase.DefaultGeneratorConfig()
	cfg.Prompt.Location = c.Location()
	cfg.CallTimeout = c.LLM.Timeout
	cfg.Retry.MaxAttempts = c.LLM.MaxAttempts
	cfg.Retry.InitialDelay = c.LLM.BaseDelay
	cfg.AltPersonality = c.LLM.AltPersonality
	cfg.MaxTokens = c.Defaults.MaxTokens
	cfg.Temperature = c.Defaults.Temperature
	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch {
	case c.LLM.Provider != "anthropic" && c.LLM.Provider != "openai":
		return &ConfigError{Field: "LLM_PROVIDER", Message: "must be anthropic or openai"}
	case c.Client.Kind != "file" && c.Client.Kind != "stub":
		return &ConfigError{Field: "CLIENT_KIND", Message: "must be file or stub"}
	case c.Client.MatchRate < 0 || c.Client.MatchRate > 1:
		return &ConfigError{Field: "CLIENT_MATCH_RATE", Message: "must be within [0, 1]"}
	case c.LLM.MaxAttempts < 1:
		return &ConfigError{Field: "LLM_MAX_ATTEMPTS", Message: "must be at least 1"}
	case c.Pipeline.PollInterval <= 0:
		return &ConfigError{Field: "PIPELINE_POLL_INTERVAL", Message: "must be positive"}
	case c.Pipeline.Concurrency < 1:
		return &ConfigError{Field: "PIPELINE_CONCURRENCY", Message: "must be at least 1"}
	case c.Pipeline.OutreachDelayMax < c.Pipeline.OutreachDelayMin:
		return &ConfigError{Field: "PIPELINE_OUTREACH_DELAY_MAX", Message: "must not be below PIPELINE_OUTREACH_DELAY_MIN"}
	}
	if err := c.Defaults.ToSettings().Validate(); err != nil {
		return &ConfigError{Field: "defaults", Message: err.Error()}
	}
	return nil
}

// ValidateBackend checks the settings needed to call the completion backend
func (c *Config) ValidateBackend() error {
	if c.LLM.APIKey == "" {
		return &ConfigError{Field: "LLM_API_KEY", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
