package tasks

import "context"

func newHeartbeatTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "heartbeat")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Gateway heartbeat", "latency", deps.Gateway.HeartbeatLatency())
		return nil
	}
}
