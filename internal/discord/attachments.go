package discord

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/edgard/geminirelay/internal/relay"
)

const attachmentDownloadTimeout = 30 * time.Second

// AttachmentFetcher downloads attachments from Discord's CDN. It implements
// relay.AttachmentFetcher.
type AttachmentFetcher struct {
	client *http.Client
}

var _ relay.AttachmentFetcher = (*AttachmentFetcher)(nil)

// NewAttachmentFetcher returns a fetcher using client, or http.DefaultClient
// when nil.
func NewAttachmentFetcher(client *http.Client) *AttachmentFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &AttachmentFetcher{client: client}
}

// Fetch downloads att. Content larger than maxBytes is rejected rather than
// truncated; maxBytes <= 0 disables the limit.
func (f *AttachmentFetcher) Fetch(ctx context.Context, att relay.Attachment, maxBytes int64) (data []byte, mimeType string, err error) {
	if att.URL == "" {
		return nil, "", fmt.Errorf("attachment %s has no URL", att.ID)
	}
	if maxBytes > 0 && int64(att.Size) > maxBytes {
		return nil, "", fmt.Errorf("attachment %s is %d bytes, limit is %d", att.ID, att.Size, maxBytes)
	}

	downloadCtx, cancel := context.WithTimeout(ctx, attachmentDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, att.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request for attachment %s: %w", att.ID, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download attachment %s: %w", att.ID, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code %d downloading attachment %s", resp.StatusCode, att.ID)
	}

	var body io.Reader = resp.Body
	if maxBytes > 0 {
		body = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err = io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read attachment %s: %w", att.ID, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("attachment %s exceeds %d bytes", att.ID, maxBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("attachment %s is empty", att.ID)
	}

	mimeType = att.ContentType
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	return data, mimeType, nil
}
