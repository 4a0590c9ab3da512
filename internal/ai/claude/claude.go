package claude

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"donaprenda/internal/ai"
	"donaprenda/internal/recipes"

	"github.com/liushuangls/go-anthropic/v2"
)

const defaultModel = "claude-sonnet-4-5"

// maxTokens leaves room for a long preparation list in Portuguese.
const maxTokens = 2048

// Backend has no image generation: Paint always reports ErrNoImage and
// recipes are shown without a picture.
type Backend struct {
	client *anthropic.Client
	model  string
}

var _ ai.Backend = (*Backend)(nil)

func New(apiKey, model, baseURL string) *Backend {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultModel
	}
	return &Backend{client: anthropic.NewClient(apiKey, opts...), model: model}
}

func (b *Backend) StartConversation(_ context.Context, cfg ai.SessionConfig) (ai.Conversation, error) {
	system, err := SystemPrompt(cfg)
	if err != nil {
		return nil, err
	}
	return &conversation{backend: b, system: system, temperature: cfg.Temperature}, nil
}

// SystemPrompt appends the response schema, since the messages API has no
// structured output mode.
func SystemPrompt(cfg ai.SessionConfig) (string, error) {
	if cfg.Schema == nil {
		return cfg.SystemPrompt, nil
	}
	schema, err := json.Marshal(cfg.Schema)
	if err != nil {
		return "", fmt.Errorf("failed to encode schema: %w", err)
	}
	return cfg.SystemPrompt + "\nJSON schema da resposta:\n" + string(schema), nil
}

type conversation struct {
	backend     *Backend
	system      string
	temperature float32

	mu      sync.Mutex
	history []anthropic.Message
}

func (c *conversation) Complete(ctx context.Context, parts []ai.Part) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := append(append([]anthropic.Message(nil), c.history...), anthropic.Message{
		Role:    anthropic.RoleUser,
		Content: Content(parts),
	})
	temperature := c.temperature
	resp, err := c.backend.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.backend.model),
		System:      c.system,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("claude create message: %w", err)
	}
	text := resp.GetFirstContentText()
	if text == "" {
		return "", fmt.Errorf("claude returned no text")
	}
	c.history = append(messages, anthropic.NewAssistantTextMessage(text))
	return text, nil
}

func (b *Backend) Paint(context.Context, string) (*recipes.Image, error) {
	return nil, ai.ErrNoImage
}

// Content maps turn parts onto message content blocks.
func Content(parts []ai.Part) []anthropic.MessageContent {
	out := make([]anthropic.MessageContent, 0, len(parts))
	for _, p := range parts {
		if p.Image != nil {
			out = append(out, anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				normaliseMIME(p.Image.MIMEType),
				base64.StdEncoding.EncodeToString(p.Image.Data),
			)))
			continue
		}
		out = append(out, anthropic.NewTextMessageContent(p.Text))
	}
	return out
}

// normaliseMIME maps browser MIME types to the values the Anthropic API
// accepts: jpeg, png, gif and webp. Anything else is sent as jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
