// Package gemini implements the relay's text generation on top of Google's
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/edgard/geminirelay/internal/config"
	apperrors "github.com/edgard/geminirelay/internal/errors"
	"github.com/edgard/geminirelay/internal/relay"
)

// contentGenerator is the part of genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends prompts to a Gemini model. It implements relay.Generator.
type Client struct {
	models        contentGenerator
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
}

var _ relay.Generator = (*Client)(nil)

// NewClient creates a Gemini client for the Gemini API backend.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewConfigError("gemini API key is required", nil)
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return newClient(gi.Models, cfg, log), nil
}

func newClient(models contentGenerator, cfg config.GeminiConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	temperature := cfg.Temperature
	baseCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if cfg.SystemInstruction != "" {
		baseCfg.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.ModelName)

	return &Client{
		models:        models,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.ModelName,
	}
}

// Generate sends prompt as a single user turn and returns the model's text.
// The call is made exactly once.
func (c *Client) Generate(ctx context.Context, prompt relay.Prompt) (string, error) {
	c.log.DebugContext(ctx, "Generating reply", "prompt_length", len(prompt.Text), "images", len(prompt.Images))

	parts := make([]*genai.Part, 0, len(prompt.Images)+1)
	if prompt.Text != "" {
		parts = append(parts, genai.NewPartFromText(prompt.Text))
	}
	for _, img := range prompt.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	if len(parts) == 0 {
		return "", apperrors.NewGenerationError("prompt has no content", nil)
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
	if err != nil {
		return "", apperrors.NewGenerationError("gemini API call failed", err)
	}

	return c.extractText(ctx, resp)
}

func (c *Client) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", apperrors.NewGenerationError("gemini returned no response", nil)
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(fb.BlockReason)
		if fb.BlockReasonMessage != "" {
			reason = fb.BlockReasonMessage
		}
		c.log.WarnContext(ctx, "Gemini request blocked", "reason", reason)
		return "", apperrors.NewGenerationError("blocked by safety filter: "+reason, nil)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			finishReason = string(resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", apperrors.NewGenerationError("gemini returned no content, finish reason: "+finishReason, nil)
	}

	text := resp.Text()
	if text == "" {
		return "", apperrors.NewGenerationError("gemini returned empty text", nil)
	}
	return text, nil
}
