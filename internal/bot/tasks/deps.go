// Package tasks implements the relay's scheduled maintenance tasks.
package tasks

import (
	"log/slog"
	"time"

	"github.com/edgard/geminirelay/internal/config"
)

// Gateway is the part of the Discord session the tasks use.
type Gateway interface {
	UpdateCustomStatus(state string) error
	HeartbeatLatency() time.Duration
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Gateway Gateway
	Config  *config.Config
}
