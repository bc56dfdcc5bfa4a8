// Package relay decides which chat messages get an answer, forwards them to
// the generation API and sends the result back in transport-sized chunks.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/edgard/geminirelay/internal/errors"
)

// Deps are the service handles and settings a Relay needs. They are
// constructed once at startup.
type Deps struct {
	Logger    *slog.Logger
	Chat      Chat
	Generator Generator
	Fetcher   AttachmentFetcher // optional; images are not forwarded when nil
	Self      Identity

	Greeting           string
	Fallback           string
	MaxMessageLength   int
	MaxAttachmentBytes int64
	GenerateTimeout    time.Duration // zero means no timeout
}

// Relay handles incoming messages. It holds no per-message state, so
// HandleMessage is safe to call from many goroutines at once.
type Relay struct {
	deps Deps
	log  *slog.Logger
}

// New returns a Relay using deps.
func New(deps Deps) *Relay {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxMessageLength <= 0 || deps.MaxMessageLength > MaxMessageLength {
		deps.MaxMessageLength = MaxMessageLength
	}
	return &Relay{
		deps: deps,
		log:  deps.Logger.With("component", "relay"),
	}
}

// HandleMessage runs the whole relay flow for one message. Failures are
// reported to the user as the fallback reply and never escape this call.
func (r *Relay) HandleMessage(ctx context.Context, msg IncomingMessage) {
	if !ShouldReply(msg, r.deps.Self) {
		return
	}

	log := r.log.With("message_id", msg.ID, "channel_id", msg.ChannelID, "author_id", msg.AuthorID)
	ref := msg.Ref()

	defer func() {
		if p := recover(); p != nil {
			log.ErrorContext(ctx, "Recovered panic while handling message", "panic", fmt.Sprint(p))
			r.sendFallback(ctx, log, ref)
		}
	}()

	prompt := NormalizeText(msg.Content, r.deps.Self.ID)
	if prompt == "" && len(msg.Attachments) == 0 {
		log.InfoContext(ctx, "Mention received but prompt is empty")
		if err := r.deps.Chat.Reply(ctx, ref, r.deps.Greeting); err != nil {
			log.ErrorContext(ctx, "Failed to send greeting", "error", err, "error_code", apperrors.Code(err))
			r.sendFallback(ctx, log, ref)
		}
		return
	}

	text, err := r.generate(ctx, msg, prompt)
	if err != nil {
		log.ErrorContext(ctx, "Generation failed", "error", err, "error_code", apperrors.Code(err))
		r.sendFallback(ctx, log, ref)
		return
	}

	chunks := Chunk(text, r.deps.MaxMessageLength)
	for i, chunk := range chunks {
		if err := r.deps.Chat.Reply(ctx, ref, chunk); err != nil {
			log.ErrorContext(ctx, "Failed to send reply chunk", "error", err, "error_code", apperrors.Code(err),
				"chunk", i+1, "chunks", len(chunks))
			r.sendFallback(ctx, log, ref)
			return
		}
	}

	log.InfoContext(ctx, "Sent reply", "chunks", len(chunks), "length", len([]rune(text)))
}

// generate calls the generator with the typing indicator held for the whole
// call.
func (r *Relay) generate(ctx context.Context, msg IncomingMessage, text string) (string, error) {
	stop := r.deps.Chat.StartTyping(ctx, msg.ChannelID)
	defer stop()

	prompt := Prompt{Text: text, Images: r.collectImages(ctx, msg)}

	genCtx := ctx
	if r.deps.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, r.deps.GenerateTimeout)
		defer cancel()
	}

	out, err := r.deps.Generator.Generate(genCtx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", apperrors.NewGenerationError("generation returned empty text", nil)
	}
	return out, nil
}

func isImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// collectImages downloads the image attachments of msg. Attachments that fail
// to download are skipped.
func (r *Relay) collectImages(ctx context.Context, msg IncomingMessage) []Image {
	if r.deps.Fetcher == nil || len(msg.Attachments) == 0 {
		return nil
	}

	var images []Image
	for _, att := range msg.Attachments {
		// Untyped attachments are downloaded and sniffed by the fetcher.
		if att.ContentType != "" && !isImage(att.ContentType) {
			continue
		}
		data, mimeType, err := r.deps.Fetcher.Fetch(ctx, att, r.deps.MaxAttachmentBytes)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return images
			}
			r.log.WarnContext(ctx, "Skipping attachment that failed to download",
				"error", err, "attachment_id", att.ID, "filename", att.Filename)
			continue
		}
		if !isImage(mimeType) {
			r.log.DebugContext(ctx, "Skipping non-image attachment",
				"attachment_id", att.ID, "filename", att.Filename, "mime_type", mimeType)
			continue
		}
		images = append(images, Image{MIMEType: mimeType, Data: data})
	}
	return images
}

func (r *Relay) sendFallback(ctx context.Context, log *slog.Logger, ref MessageRef) {
	if err := r.deps.Chat.Reply(ctx, ref, r.deps.Fallback); err != nil {
		log.ErrorContext(ctx, "Failed to send fallback reply", "error", err, "error_code", apperrors.Code(err))
	}
}
