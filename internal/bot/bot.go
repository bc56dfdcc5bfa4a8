// Package bot wires the relay to the Discord gateway and supervises the
// process's long-running components until shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/geminirelay/internal/config"
	"github.com/edgard/geminirelay/internal/discord"
	"github.com/edgard/geminirelay/internal/keepalive"
	"github.com/edgard/geminirelay/internal/logger"
	"github.com/edgard/geminirelay/internal/relay"
)

// Bot owns the process's service handles and their lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	session   *discordgo.Session
	generator relay.Generator
	scheduler *Scheduler
	keepAlive *keepalive.Server
}

// NewBot creates the bot. keepAlive may be nil when the endpoint is disabled.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	session *discordgo.Session,
	generator relay.Generator,
	scheduler *Scheduler,
	keepAlive *keepalive.Server,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		session:   session,
		generator: generator,
		scheduler: scheduler,
		keepAlive: keepAlive,
	}
}

// NewRelay builds the message relay for the identity the gateway reported.
func NewRelay(log *slog.Logger, cfg *config.Config, chat relay.Chat, generator relay.Generator, fetcher relay.AttachmentFetcher, self relay.Identity) *relay.Relay {
	return relay.New(relay.Deps{
		Logger:             log,
		Chat:               chat,
		Generator:          generator,
		Fetcher:            fetcher,
		Self:               self,
		Greeting:           cfg.Relay.Greeting,
		Fallback:           cfg.Relay.Fallback,
		MaxMessageLength:   cfg.Relay.MaxMessageLength,
		MaxAttachmentBytes: cfg.Relay.MaxAttachmentBytes,
		GenerateTimeout:    cfg.Gemini.Timeout,
	})
}

// Run opens the gateway, starts relaying messages and blocks until ctx is
// cancelled or a component fails. The gateway is closed before Run returns.
func (b *Bot) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	gate := newRelayGate(b.logger, func() (*relay.Relay, error) {
		self, err := discord.Identify(b.session)
		if err != nil {
			return nil, err
		}
		b.logger.Info("Retrieved bot identity", "bot_id", self.ID, "bot_username", self.Username)
		return NewRelay(b.logger, b.cfg, discord.NewChat(b.session, 0, b.logger), b.generator, discord.NewAttachmentFetcher(nil), self), nil
	})
	// Registered before Open so no message between Ready and the end of Open is lost.
	remove := discord.Register(gCtx, b.session, b.logger, gate.HandleMessage, logger.Middleware(b.logger))

	b.logger.Info("Opening Discord gateway...")
	if err := b.session.Open(); err != nil {
		remove()
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}

	if _, err := gate.get(); err != nil {
		remove()
		b.closeGateway()
		return err
	}

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, closing Discord gateway...")
		remove()
		b.closeGateway()
		return nil
	})

	if b.keepAlive != nil {
		g.Go(func() error {
			runKeepAlive(gCtx, b.keepAlive, b.logger)
			return nil
		})
	}

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		b.logger.Info("Scheduler running", "jobs", b.scheduler.Jobs())

		<-gCtx.Done()
		b.logger.Info("Stopping scheduler...")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	b.logger.Info("Relay running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot stopped gracefully.")
	return nil
}

// keepAliveRunner is the part of keepalive.Server the bot supervises.
type keepAliveRunner interface {
	Run(ctx context.Context) error
}

// runKeepAlive serves the keep-alive endpoint until ctx ends. The endpoint is
// auxiliary: a failure is logged and never stops the relay.
func runKeepAlive(ctx context.Context, ka keepAliveRunner, log *slog.Logger) {
	if err := ka.Run(ctx); err != nil {
		log.Error("Keep-alive endpoint stopped, relay keeps running", "error", err)
	}
}

func (b *Bot) closeGateway() {
	if err := b.session.Close(); err != nil {
		b.logger.Error("Error closing Discord gateway", "error", err)
	}
}
