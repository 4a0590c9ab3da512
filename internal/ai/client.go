package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"donaprenda/internal/recipes"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Part is one piece of a user turn: either text or an inline image.
type Part struct {
	Text  string
	Image *recipes.Image
}

// SessionConfig is fixed for the lifetime of a conversation.
type SessionConfig struct {
	SystemPrompt string
	Schema       *jsonschema.Schema
	Temperature  float32
}

// Conversation is a provider chat that keeps its prior turns in context.
type Conversation interface {
	// Complete sends the next user turn and returns the raw model text.
	Complete(ctx context.Context, parts []Part) (string, error)
}

// Backend is what each provider package implements.
type Backend interface {
	StartConversation(ctx context.Context, cfg SessionConfig) (Conversation, error)
	// Paint returns one generated picture for prompt. Providers without
	// image generation return ErrNoImage.
	Paint(ctx context.Context, prompt string) (*recipes.Image, error)
}

// Chef hands out recipe sessions. The conversation controller depends on
// this and nothing else from the package.
type Chef interface {
	NewSession(ctx context.Context) (Session, error)
}

type Session interface {
	ID() string
	Send(ctx context.Context, ingredients string, d recipes.Difficulty, image *recipes.Image) (*recipes.Recipe, error)
}

var ErrNoImage = errors.New("no image generated")

type Client struct {
	provider string
	backend  Backend
	schema   *jsonschema.Schema
	tracer   trace.Tracer
}

var _ Chef = (*Client)(nil)

func NewClient(provider string, b Backend) *Client {
	return &Client{
		provider: provider,
		backend:  b,
		schema:   RecipeSchema(),
		tracer:   otel.Tracer("donaprenda/internal/ai"),
	}
}

// RecipeSchema is the strict response schema reflected from recipes.Recipe.
func RecipeSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return r.Reflect(&recipes.Recipe{})
}

func (c *Client) NewSession(ctx context.Context) (Session, error) {
	conv, err := c.backend.StartConversation(ctx, SessionConfig{
		SystemPrompt: SystemMessage,
		Schema:       c.schema,
		Temperature:  Temperature,
	})
	if err != nil {
		return nil, &GenerationError{Cause: err}
	}
	s := &session{id: uuid.NewString(), client: c, conv: conv}
	slog.InfoContext(ctx, "started recipe session", "session", s.id, "provider", c.provider)
	return s, nil
}

type session struct {
	id     string
	client *Client
	conv   Conversation
}

func (s *session) ID() string { return s.id }

func (s *session) Send(ctx context.Context, ingredients string, d recipes.Difficulty, image *recipes.Image) (*recipes.Recipe, error) {
	ctx, span := s.client.tracer.Start(ctx, "ai.send_turn", trace.WithAttributes(
		attribute.String("ai.provider", s.client.provider),
		attribute.String("ai.session", s.id),
		attribute.String("recipe.difficulty", string(d)),
		attribute.Bool("recipe.has_image", image != nil),
	))
	defer span.End()

	raw, err := s.conv.Complete(ctx, BuildParts(ingredients, d, image))
	if err != nil {
		return nil, s.fail(ctx, span, "recipe request failed", err)
	}
	recipe, err := recipes.ParseRecipe([]byte(stripCodeFence(raw)))
	if err != nil {
		return nil, s.fail(ctx, span, "recipe response rejected", err)
	}
	span.SetAttributes(attribute.String("recipe.name", recipe.RecipeName))
	if recipe.NotFound() {
		return recipe, nil
	}

	recipe.ImageURL = s.client.GenerateImage(ctx, recipe.RecipeName)
	return recipe, nil
}

func (s *session) fail(ctx context.Context, span trace.Span, msg string, err error) error {
	slog.ErrorContext(ctx, msg, "session", s.id, "provider", s.client.provider, "error", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return &GenerationError{Cause: err}
}

// GenerateImage is best effort: any failure is logged and gives nil.
func (c *Client) GenerateImage(ctx context.Context, recipeName string) *recipes.Image {
	ctx, span := c.tracer.Start(ctx, "ai.generate_image", trace.WithAttributes(
		attribute.String("ai.provider", c.provider),
		attribute.String("recipe.name", recipeName),
	))
	defer span.End()

	img, err := c.backend.Paint(ctx, ImagePrompt(recipeName))
	if errors.Is(err, ErrNoImage) {
		slog.DebugContext(ctx, "no recipe image", "recipe", recipeName, "provider", c.provider)
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to generate recipe image", "recipe", recipeName, "provider", c.provider, "error", err)
		span.RecordError(err)
		return nil
	}
	if img == nil || len(img.Data) == 0 {
		return nil
	}
	return img
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
