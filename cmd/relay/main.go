// Package main contains the entrypoint for the Discord to Gemini relay.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/edgard/geminirelay/internal/bot"
	"github.com/edgard/geminirelay/internal/bot/tasks"
	"github.com/edgard/geminirelay/internal/config"
	"github.com/edgard/geminirelay/internal/discord"
	"github.com/edgard/geminirelay/internal/gemini"
	"github.com/edgard/geminirelay/internal/keepalive"
	"github.com/edgard/geminirelay/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires config, logging, the Gemini client, the Discord session, the
// scheduler and the keep-alive endpoint, then blocks until shutdown. It
// returns the process exit code.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			slog.Error("Refusing to start: required secrets are not set", "missing", missing.Names)
			return 1
		}
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	logger.BridgeDiscordgo(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	session, err := discord.NewSession(cfg.Discord.Token, log)
	if err != nil {
		log.Error("Failed to create Discord session", "error", err)
		return 1
	}
	session.LogLevel = discordgo.LogWarning
	if logger.ParseLevel(cfg.Logger.Level) <= slog.LevelDebug {
		session.LogLevel = discordgo.LogInformational
	}

	tDeps := tasks.TaskDeps{
		Logger:  log,
		Gateway: session,
		Config:  cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var ka *keepalive.Server
	if cfg.KeepAlive.Enabled {
		ka = keepalive.New(cfg.KeepAlive.Addr, discord.Connected(session), log)
	}

	app := bot.NewBot(log, cfg, session, gemClient, sched, ka)

	log.Info("Starting relay...", "model", cfg.Gemini.ModelName)
	runErr := app.Run(ctx)
	log.Info("Relay run loop finished.")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Relay stopped due to error", "error", runErr)
		// Let the logs flush before exiting.
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Relay stopped gracefully.")
	return 0
}
