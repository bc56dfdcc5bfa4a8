package tasks

import (
	"context"
	"fmt"
)

// newPresenceTask re-applies the bot's custom status. Discord drops presence
// on reconnect, so the task runs periodically rather than once.
func newPresenceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "presence")

	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		status := deps.Config.Discord.Status
		if status == "" {
			log.DebugContext(ctx, "No status configured, skipping presence update")
			return nil
		}

		if err := deps.Gateway.UpdateCustomStatus(status); err != nil {
			return fmt.Errorf("presence update failed: %w", err)
		}

		log.DebugContext(ctx, "Presence updated", "status", status)
		return nil
	}
}
