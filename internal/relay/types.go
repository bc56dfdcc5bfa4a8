package relay

import "context"

// MaxMessageLength is the longest message Discord accepts, in characters.
const MaxMessageLength = 2000

// Identity is the relay's own account on the chat platform. It is fixed for
// the lifetime of the process.
type Identity struct {
	ID       string
	Username string
}

// Attachment is a file carried by an incoming message.
type Attachment struct {
	ID          string
	Filename    string
	URL         string
	ContentType string
	Size        int
}

// IncomingMessage is one chat message as delivered by the platform. A message
// with an empty GuildID is a direct message.
type IncomingMessage struct {
	ID          string
	ChannelID   string
	GuildID     string
	AuthorID    string
	Content     string
	Attachments []Attachment
	Mentions    []string
}

// IsDM reports whether the message was sent in a one-to-one channel.
func (m IncomingMessage) IsDM() bool {
	return m.GuildID == ""
}

// Ref returns the reference used to reply to this message.
func (m IncomingMessage) Ref() MessageRef {
	return MessageRef{MessageID: m.ID, ChannelID: m.ChannelID, GuildID: m.GuildID}
}

// MessageRef identifies the message a reply answers.
type MessageRef struct {
	MessageID string
	ChannelID string
	GuildID   string
}

// Image is inline image data forwarded to the generation API.
type Image struct {
	MIMEType string
	Data     []byte
}

// Prompt is a single generation request.
type Prompt struct {
	Text   string
	Images []Image
}

// Chat is the connection used to talk back to the platform.
type Chat interface {
	// Reply sends text as a reply to ref.
	Reply(ctx context.Context, ref MessageRef, text string) error
	// StartTyping shows the typing indicator on channelID until stop is
	// called or ctx ends.
	StartTyping(ctx context.Context, channelID string) (stop func())
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// AttachmentFetcher downloads attachment content. It returns the data and
// its detected MIME type.
type AttachmentFetcher interface {
	Fetch(ctx context.Context, att Attachment, maxBytes int64) ([]byte, string, error)
}

// HandlerFunc handles one incoming message.
type HandlerFunc func(ctx context.Context, msg IncomingMessage)

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc
