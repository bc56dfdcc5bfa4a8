package discord

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// DefaultTypingInterval refreshes the indicator before Discord's ~10s expiry.
const DefaultTypingInterval = 8 * time.Second

// typingManager keeps a channel's typing indicator alive.
type typingManager struct {
	api      api
	interval time.Duration
	log      *slog.Logger
}

// start sends the indicator now and then every interval until the returned
// stop is called or ctx ends. stop blocks until the refresh loop has exited
// and is safe to call more than once.
func (t *typingManager) start(ctx context.Context, channelID string) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		t.sendContinuousTyping(ctx, channelID)
	}()

	return func() {
		cancel()
		<-done
	}
}

func (t *typingManager) sendContinuousTyping(ctx context.Context, channelID string) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	if err := t.api.ChannelTyping(channelID, discordgo.WithContext(ctx)); err != nil {
		if ctx.Err() != nil {
			return
		}
		t.log.Debug("initial typing action failed", "error", err, "channel_id", channelID)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.api.ChannelTyping(channelID, discordgo.WithContext(ctx)); err != nil {
				if ctx.Err() != nil {
					return
				}
				t.log.Debug("typing action failed", "error", err, "channel_id", channelID)
			}
		}
	}
}
