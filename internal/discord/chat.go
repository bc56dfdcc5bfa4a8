package discord

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	apperrors "github.com/edgard/geminirelay/internal/errors"
	"github.com/edgard/geminirelay/internal/relay"
)

// api is the subset of *discordgo.Session used to talk back to Discord.
type api interface {
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

// Chat implements relay.Chat on a Discord session.
type Chat struct {
	api    api
	log    *slog.Logger
	typing *typingManager
}

var _ relay.Chat = (*Chat)(nil)

// NewChat wraps s. A zero typingInterval uses DefaultTypingInterval.
func NewChat(s api, typingInterval time.Duration, logger *slog.Logger) *Chat {
	if logger == nil {
		logger = slog.Default()
	}
	if typingInterval <= 0 {
		typingInterval = DefaultTypingInterval
	}
	log := logger.With("component", "discord_chat")
	return &Chat{
		api:    s,
		log:    log,
		typing: &typingManager{api: s, interval: typingInterval, log: log},
	}
}

// Reply sends text as a reply to ref.
func (c *Chat) Reply(ctx context.Context, ref relay.MessageRef, text string) error {
	if ctx.Err() != nil {
		return apperrors.NewSendError("context cancelled before sending reply", ctx.Err())
	}

	sent, err := c.api.ChannelMessageSendReply(ref.ChannelID, text, &discordgo.MessageReference{
		MessageID: ref.MessageID,
		ChannelID: ref.ChannelID,
		GuildID:   ref.GuildID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return apperrors.NewSendError("failed to send reply", err)
	}

	if sent != nil {
		c.log.DebugContext(ctx, "Reply sent", "channel_id", ref.ChannelID, "reply_id", sent.ID, "length", len(text))
	}
	return nil
}

// StartTyping shows the typing indicator on channelID until stop is called.
func (c *Chat) StartTyping(ctx context.Context, channelID string) (stop func()) {
	return c.typing.start(ctx, channelID)
}
