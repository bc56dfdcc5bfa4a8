// Package logger provides structured logging for the relay. It uses Go's slog
// package with configurable levels and formats, and bridges the loggers of
// third-party libraries into it.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/geminirelay/internal/relay"
)

// ParseLevel maps a config level name to a slog level. Unknown names map to
// info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a new slog Logger writing to stdout with the specified
// level and format, and installs it as the default logger.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := newLogger(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Middleware logs the start and end of every relayed message.
func Middleware(log *slog.Logger) relay.Middleware {
	return func(next relay.HandlerFunc) relay.HandlerFunc {
		return func(ctx context.Context, msg relay.IncomingMessage) {
			startTime := time.Now()

			logEntry := log.With(
				"message_id", msg.ID,
				"channel_id", msg.ChannelID,
				"author_id", msg.AuthorID,
				"dm", msg.IsDM(),
				"attachments", len(msg.Attachments),
				"text_preview", truncateString(msg.Content, 50),
			)

			logEntry.DebugContext(ctx, "Processing message")

			next(ctx, msg)

			logEntry.DebugContext(ctx, "Finished processing message", "duration", time.Since(startTime))
		}
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}

// gocronLogger implements gocron.Logger on top of slog.
type gocronLogger struct {
	log *slog.Logger
}

// NewGocronLogger returns a gocron.Logger that writes to log.
//
//nolint:ireturn // gocron's API takes an interface
func NewGocronLogger(log *slog.Logger) gocron.Logger {
	return &gocronLogger{log: log.With("component", "gocron")}
}

func (l *gocronLogger) Debug(msg string, args ...any) { l.log.Debug(msg, args...) }
func (l *gocronLogger) Info(msg string, args ...any)  { l.log.Info(msg, args...) }
func (l *gocronLogger) Warn(msg string, args ...any)  { l.log.Warn(msg, args...) }
func (l *gocronLogger) Error(msg string, args ...any) { l.log.Error(msg, args...) }

// BridgeDiscordgo routes discordgo's package-level logger into log.
func BridgeDiscordgo(log *slog.Logger) {
	dlog := log.With("component", "discordgo")
	discordgo.Logger = func(msgL, caller int, format string, a ...any) {
		dlog.Log(context.Background(), discordgoLevel(msgL), fmt.Sprintf(format, a...))
	}
}

func discordgoLevel(msgL int) slog.Level {
	switch msgL {
	case discordgo.LogError:
		return slog.LevelError
	case discordgo.LogWarning:
		return slog.LevelWarn
	case discordgo.LogInformational:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
