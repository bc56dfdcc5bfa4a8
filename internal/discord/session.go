// Package discord connects the relay to Discord through discordgo.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/edgard/geminirelay/internal/relay"
)

// Intents requests guild and direct messages plus their content.
const Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

// NewSession creates a gateway session for a bot token. The connection is not
// opened.
func NewSession(token string, logger *slog.Logger) (*discordgo.Session, error) {
	if token == "" {
		return nil, errors.New("discord token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "discord_session")

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = Intents

	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Info("Logged in", "username", r.User.Username, "user_id", r.User.ID)
	})
	s.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		log.Warn("Gateway disconnected")
	})
	s.AddHandler(func(_ *discordgo.Session, _ *discordgo.Resumed) {
		log.Info("Gateway session resumed")
	})

	log.Info("Discord session created")
	return s, nil
}

// Identify returns the bot's own identity. It must be called after Open.
func Identify(s *discordgo.Session) (relay.Identity, error) {
	if s == nil || s.State == nil || s.State.User == nil {
		return relay.Identity{}, errors.New("discord session has no user; is it open?")
	}
	return relay.Identity{ID: s.State.User.ID, Username: s.State.User.Username}, nil
}

// Connected reports whether s currently has a ready gateway connection.
func Connected(s *discordgo.Session) func() bool {
	return func() bool {
		s.RLock()
		defer s.RUnlock()
		return s.DataReady
	}
}

// Register routes MessageCreate events to handler, wrapped by middleware (the
// first middleware is the outermost). discordgo runs every event on its own
// goroutine, so a slow or failing message never blocks the others. ctx is the
// parent context for every handled message.
func Register(ctx context.Context, s *discordgo.Session, logger *slog.Logger, handler relay.HandlerFunc, middleware ...relay.Middleware) (remove func()) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "discord_events")

	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}

	return s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		msg, ok := ToIncoming(m)
		if !ok {
			log.Debug("Ignoring message event without author")
			return
		}
		handler(ctx, msg)
	})
}

// ToIncoming converts a gateway event into a relay message.
func ToIncoming(m *discordgo.MessageCreate) (relay.IncomingMessage, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return relay.IncomingMessage{}, false
	}

	msg := relay.IncomingMessage{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		AuthorID:  m.Author.ID,
		Content:   m.Content,
	}
	for _, u := range m.Mentions {
		if u != nil {
			msg.Mentions = append(msg.Mentions, u.ID)
		}
	}
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		msg.Attachments = append(msg.Attachments, relay.Attachment{
			ID:          a.ID,
			Filename:    a.Filename,
			URL:         a.URL,
			ContentType: a.ContentType,
			Size:        a.Size,
		})
	}
	return msg, true
}
