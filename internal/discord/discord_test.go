package discord

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/edgard/geminirelay/internal/errors"
	"github.com/edgard/geminirelay/internal/relay"
)

type fakeAPI struct {
	mu        sync.Mutex
	replies   []string
	refs      []*discordgo.MessageReference
	channels  []string
	typing    int
	replyErr  error
	typingErr error
}

func (f *fakeAPI) ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	f.replies = append(f.replies, content)
	f.refs = append(f.refs, reference)
	f.channels = append(f.channels, channelID)
	return &discordgo.Message{ID: "reply", ChannelID: channelID, Content: content}, nil
}

func (f *fakeAPI) ChannelTyping(_ string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing++
	return f.typingErr
}

func (f *fakeAPI) typingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.typing
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChat_Reply(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	chat := NewChat(api, time.Hour, quietLogger())

	ref := relay.MessageRef{MessageID: "m1", ChannelID: "c1", GuildID: "g1"}
	require.NoError(t, chat.Reply(context.Background(), ref, "hello"))

	assert.Equal(t, []string{"hello"}, api.replies)
	assert.Equal(t, []string{"c1"}, api.channels)
	require.Len(t, api.refs, 1)
	assert.Equal(t, "m1", api.refs[0].MessageID)
	assert.Equal(t, "g1", api.refs[0].GuildID)
}

func TestChat_ReplyErrors(t *testing.T) {
	t.Parallel()

	t.Run("api error", func(t *testing.T) {
		t.Parallel()
		chat := NewChat(&fakeAPI{replyErr: errors.New("HTTP 403 Forbidden")}, time.Hour, quietLogger())
		err := chat.Reply(context.Background(), relay.MessageRef{ChannelID: "c1"}, "hello")
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeSend, apperrors.Code(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		api := &fakeAPI{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewChat(api, time.Hour, quietLogger()).Reply(ctx, relay.MessageRef{ChannelID: "c1"}, "hello")
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeSend, apperrors.Code(err))
		assert.Empty(t, api.replies)
	})
}

func TestChat_StartTyping(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	chat := NewChat(api, 10*time.Millisecond, quietLogger())

	stop := chat.StartTyping(context.Background(), "c1")
	require.Eventually(t, func() bool { return api.typingCount() >= 3 }, time.Second, 5*time.Millisecond,
		"indicator is refreshed while held")
	stop()

	after := api.typingCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, api.typingCount(), "no refresh after stop")

	assert.NotPanics(t, stop, "stop is idempotent")
}

func TestChat_StartTypingStopsWithContext(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{typingErr: errors.New("missing access")}
	chat := NewChat(api, 10*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	stop := chat.StartTyping(ctx, "c1")
	cancel()

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return after context cancellation")
	}
}

func TestToIncoming(t *testing.T) {
	t.Parallel()

	event := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		Content:   "<@!42> hi",
		Author:    &discordgo.User{ID: "7"},
		Mentions:  []*discordgo.User{{ID: "42"}, nil, {ID: "43"}},
		Attachments: []*discordgo.MessageAttachment{
			{ID: "a1", Filename: "cat.png", URL: "https://cdn/cat.png", ContentType: "image/png", Size: 12},
			nil,
		},
	}}

	msg, ok := ToIncoming(event)
	require.True(t, ok)
	assert.Equal(t, relay.IncomingMessage{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		AuthorID:  "7",
		Content:   "<@!42> hi",
		Mentions:  []string{"42", "43"},
		Attachments: []relay.Attachment{
			{ID: "a1", Filename: "cat.png", URL: "https://cdn/cat.png", ContentType: "image/png", Size: 12},
		},
	}, msg)
	assert.False(t, msg.IsDM())

	dm, ok := ToIncoming(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "m2", Author: &discordgo.User{ID: "7"}}})
	require.True(t, ok)
	assert.True(t, dm.IsDM())

	_, ok = ToIncoming(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "m3"}})
	assert.False(t, ok, "events without an author are dropped")
	_, ok = ToIncoming(nil)
	assert.False(t, ok)
}

func TestAttachmentFetcher(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cat.png":
			_, _ = w.Write([]byte("\x89PNG\r\n\x1a\nrest-of-image"))
		case "/empty":
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	f := NewAttachmentFetcher(srv.Client())
	ctx := context.Background()

	data, mimeType, err := f.Fetch(ctx, relay.Attachment{ID: "a1", URL: srv.URL + "/cat.png"}, 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType, "sniffed when the platform gives no content type")
	assert.Contains(t, string(data), "rest-of-image")

	_, mimeType, err = f.Fetch(ctx, relay.Attachment{ID: "a1", URL: srv.URL + "/cat.png", ContentType: "image/webp"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mimeType)

	tests := []struct {
		name string
		att  relay.Attachment
		max  int64
	}{
		{name: "not found", att: relay.Attachment{ID: "a2", URL: srv.URL + "/missing"}, max: 1024},
		{name: "empty body", att: relay.Attachment{ID: "a3", URL: srv.URL + "/empty"}, max: 1024},
		{name: "declared size over limit", att: relay.Attachment{ID: "a4", URL: srv.URL + "/cat.png", Size: 4096}, max: 1024},
		{name: "body over limit", att: relay.Attachment{ID: "a5", URL: srv.URL + "/cat.png"}, max: 4},
		{name: "no url", att: relay.Attachment{ID: "a6"}, max: 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := f.Fetch(ctx, tt.att, tt.max)
			assert.Error(t, err)
		})
	}
}

func TestNewSession(t *testing.T) {
	t.Parallel()

	_, err := NewSession("", quietLogger())
	require.Error(t, err)

	s, err := NewSession("token", quietLogger())
	require.NoError(t, err)
	assert.Equal(t, Intents, s.Identify.Intents)

	_, err = Identify(s)
	assert.Error(t, err, "identity is unknown before the gateway is open")
}
