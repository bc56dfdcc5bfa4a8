package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/edgard/geminirelay/internal/relay"
)

// relayGate holds messages until the bot's identity is known. The handler is
// registered before the gateway opens, and the relay itself can only be built
// once Discord has reported who the bot is.
type relayGate struct {
	log   *slog.Logger
	build func() (*relay.Relay, error)

	mu    sync.Mutex
	relay *relay.Relay
}

func newRelayGate(log *slog.Logger, build func() (*relay.Relay, error)) *relayGate {
	return &relayGate{log: log, build: build}
}

// get returns the relay, building it on first success. A failed build is
// retried on the next call.
func (g *relayGate) get() (*relay.Relay, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.relay != nil {
		return g.relay, nil
	}
	r, err := g.build()
	if err != nil {
		return nil, err
	}
	g.relay = r
	return r, nil
}

// HandleMessage is a relay.HandlerFunc.
func (g *relayGate) HandleMessage(ctx context.Context, msg relay.IncomingMessage) {
	r, err := g.get()
	if err != nil {
		g.log.WarnContext(ctx, "Dropping message received before the bot identity was known",
			"message_id", msg.ID, "channel_id", msg.ChannelID, "error", err)
		return
	}
	r.HandleMessage(ctx, msg)
}
