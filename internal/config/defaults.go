package config

import "time"

// Names of the environment variables that carry the required secrets.
const (
	EnvDiscordToken = "DISCORD_TOKEN"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
)

// Default values for configuration.
const (
	DefaultDiscordStatus = "Mention me to chat"

	DefaultGeminiModel       = "gemini-flash-latest"
	DefaultGeminiTemperature = 1.0
	DefaultGeminiTimeout     = time.Duration(0) // no timeout

	DefaultMaxMessageLength   = 2000             // Discord's maximum message length
	DefaultMaxAttachmentBytes = 10 * 1024 * 1024 // 10 MiB per forwarded image
	DefaultGreeting           = "You mentioned me — how can I help?"
	DefaultFallback           = "Sorry, I had trouble generating a response."

	DefaultLogLevel = "info"

	DefaultKeepAliveEnabled = true
	DefaultKeepAliveAddr    = ":8080"

	DefaultPresenceSchedule  = "0 */10 * * * *"
	DefaultHeartbeatSchedule = "0 * * * * *"
)

// defaults lists every known key. Keys without a meaningful default are still
// registered so that AutomaticEnv resolves them during Unmarshal.
var defaults = map[string]any{
	"discord.token":  "",
	"discord.status": DefaultDiscordStatus,

	"gemini.api_key":            "",
	"gemini.model":              DefaultGeminiModel,
	"gemini.temperature":        DefaultGeminiTemperature,
	"gemini.system_instruction": "",
	"gemini.timeout":            DefaultGeminiTimeout,

	"relay.max_message_length":   DefaultMaxMessageLength,
	"relay.max_attachment_bytes": DefaultMaxAttachmentBytes,
	"relay.greeting":             DefaultGreeting,
	"relay.fallback":             DefaultFallback,

	"log.level": DefaultLogLevel,
	"log.json":  false,

	"keepalive.enabled": DefaultKeepAliveEnabled,
	"keepalive.addr":    DefaultKeepAliveAddr,

	"scheduler.tasks.presence.enabled":   true,
	"scheduler.tasks.presence.schedule":  DefaultPresenceSchedule,
	"scheduler.tasks.heartbeat.enabled":  false,
	"scheduler.tasks.heartbeat.schedule": DefaultHeartbeatSchedule,
}
