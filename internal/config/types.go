// Package config loads the relay configuration from defaults, an optional
// config.yaml, an optional .env file and the process environment.
package config

import "time"

// Config holds every setting the relay reads at startup. It is immutable after
// Load returns.
type Config struct {
	Discord   DiscordConfig   `mapstructure:"discord"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Logger    LoggerConfig    `mapstructure:"log"`
	KeepAlive KeepAliveConfig `mapstructure:"keepalive"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// DiscordConfig holds the chat platform settings.
type DiscordConfig struct {
	Token  string `mapstructure:"token"`
	Status string `mapstructure:"status"`
}

// GeminiConfig holds the generation API settings.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	ModelName         string        `mapstructure:"model"              validate:"required"`
	Temperature       float32       `mapstructure:"temperature"        validate:"min=0,max=2"`
	SystemInstruction string        `mapstructure:"system_instruction"`
	Timeout           time.Duration `mapstructure:"timeout"            validate:"min=0,max=10m"`
}

// RelayConfig holds the message relay behaviour settings.
type RelayConfig struct {
	MaxMessageLength   int    `mapstructure:"max_message_length"   validate:"min=1,max=2000"`
	MaxAttachmentBytes int64  `mapstructure:"max_attachment_bytes" validate:"min=0"`
	Greeting           string `mapstructure:"greeting"             validate:"required"`
	Fallback           string `mapstructure:"fallback"             validate:"required"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// KeepAliveConfig controls the HTTP keep-alive endpoint.
type KeepAliveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"    validate:"required_if=Enabled true"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures one scheduled task. Schedule is a six-field cron
// expression (seconds first).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}
