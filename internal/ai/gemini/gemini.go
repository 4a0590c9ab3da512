// Package gemini talks to Google's Gemini API for recipes and Imagen for
// the pictures that go with them.
package gemini

import (
	"context"
	"fmt"

	"donaprenda/internal/ai"
	"donaprenda/internal/recipes"

	"github.com/invopop/jsonschema"
	"google.golang.org/genai"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultImageModel = "imagen-4.0-generate-001"
)

type Backend struct {
	client     *genai.Client
	model      string
	imageModel string
}

var _ ai.Backend = (*Backend)(nil)

// New builds a Gemini backend. Empty model names fall back to the defaults;
// baseURL is only set for tests and proxies.
func New(ctx context.Context, apiKey, model, imageModel, baseURL string) (*Backend, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	return &Backend{client: client, model: model, imageModel: imageModel}, nil
}

func (b *Backend) StartConversation(ctx context.Context, cfg ai.SessionConfig) (ai.Conversation, error) {
	chat, err := b.client.Chats.Create(ctx, b.model, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(cfg.SystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    Schema(cfg.Schema),
		Temperature:       genai.Ptr(cfg.Temperature),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini chat: %w", err)
	}
	return &conversation{chat: chat}, nil
}

type conversation struct {
	chat *genai.Chat
}

func (c *conversation) Complete(ctx context.Context, parts []ai.Part) (string, error) {
	resp, err := c.chat.SendMessage(ctx, Parts(parts)...)
	if err != nil {
		return "", fmt.Errorf("gemini send message: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}

func (b *Backend) Paint(ctx context.Context, prompt string) (*recipes.Image, error) {
	resp, err := b.client.Models.GenerateImages(ctx, b.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    "1:1",
	})
	if err != nil {
		return nil, fmt.Errorf("imagen generate: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return nil, ai.ErrNoImage
	}
	return &recipes.Image{MIMEType: "image/jpeg", Data: resp.GeneratedImages[0].Image.ImageBytes}, nil
}

// Parts maps turn parts onto genai parts, keeping their order.
func Parts(parts []ai.Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.Image != nil {
			out = append(out, genai.Part{InlineData: &genai.Blob{MIMEType: p.Image.MIMEType, Data: p.Image.Data}})
			continue
		}
		out = append(out, genai.Part{Text: p.Text})
	}
	return out
}

var schemaTypes = map[string]genai.Type{
	"object":  genai.TypeObject,
	"array":   genai.TypeArray,
	"string":  genai.TypeString,
	"integer": genai.TypeInteger,
	"number":  genai.TypeNumber,
	"boolean": genai.TypeBoolean,
}

// Schema converts a reflected JSON schema into the subset Gemini accepts.
func Schema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        schemaTypes[s.Type],
		Description: s.Description,
		Required:    s.Required,
	}
	if s.Items != nil {
		out.Items = Schema(s.Items)
	}
	if s.Properties != nil && s.Properties.Len() > 0 {
		out.Properties = make(map[string]*genai.Schema, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			out.Properties[pair.Key] = Schema(pair.Value)
			out.PropertyOrdering = append(out.PropertyOrdering, pair.Key)
		}
	}
	return out
}
