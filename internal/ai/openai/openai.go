// Package openai backs recipe sessions with OpenAI chat completions and
// gpt-image for pictures. OpenAI chats are stateless, so each conversation
// carries its own message history.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"donaprenda/internal/ai"
	"donaprenda/internal/recipes"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	defaultModel      = "gpt-4.1-mini"
	defaultImageModel = "gpt-image-1"
)

type Backend struct {
	client     openai.Client
	model      string
	imageModel string
}

var _ ai.Backend = (*Backend)(nil)

func New(apiKey, model, imageModel, baseURL string) *Backend {
	// a failed turn surfaces to the user instead of being retried
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultModel
	}
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	return &Backend{
		client:     openai.NewClient(opts...),
		model:      model,
		imageModel: imageModel,
	}
}

func (b *Backend) StartConversation(_ context.Context, cfg ai.SessionConfig) (ai.Conversation, error) {
	return &conversation{
		backend: b,
		cfg:     cfg,
		history: []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(cfg.SystemPrompt)},
	}, nil
}

type conversation struct {
	backend *Backend
	cfg     ai.SessionConfig

	mu      sync.Mutex
	history []openai.ChatCompletionMessageParamUnion
}

func (c *conversation) Complete(ctx context.Context, parts []ai.Part) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	user := openai.UserMessage(ContentParts(parts))
	messages := append(append([]openai.ChatCompletionMessageParamUnion(nil), c.history...), user)

	resp, err := c.backend.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.backend.model),
		Messages:    messages,
		Temperature: openai.Float(float64(c.cfg.Temperature)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "recipe",
					Schema: c.cfg.Schema,
					Strict: openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned no content")
	}
	text := resp.Choices[0].Message.Content

	// only successful turns join the context, like a server side chat
	c.history = append(messages, openai.AssistantMessage(text))
	return text, nil
}

func (b *Backend) Paint(ctx context.Context, prompt string) (*recipes.Image, error) {
	resp, err := b.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:       prompt,
		Model:        openai.ImageModel(b.imageModel),
		N:            openai.Int(1),
		Size:         openai.ImageGenerateParamsSize1024x1024,
		OutputFormat: openai.ImageGenerateParamsOutputFormatJPEG,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image generate: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ai.ErrNoImage
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai image decode: %w", err)
	}
	return &recipes.Image{MIMEType: "image/jpeg", Data: data}, nil
}

// ContentParts maps turn parts onto chat content parts; images travel as
// data URIs.
func ContentParts(parts []ai.Part) []openai.ChatCompletionContentPartUnionParam {
	out := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, p := range parts {
		if p.Image != nil {
			out = append(out, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: p.Image.DataURI(),
			}))
			continue
		}
		out = append(out, openai.TextContentPart(p.Text))
	}
	return out
}
