package main

import (
	"context"
	"fmt"
	"log/slog"

	"donaprenda/internal/ai"
	"donaprenda/internal/ai/claude"
	"donaprenda/internal/ai/gemini"
	"donaprenda/internal/ai/openai"
	"donaprenda/internal/config"
)

func newBackend(ctx context.Context, cfg config.AIConfig) (ai.Backend, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.New(ctx, cfg.APIKey, cfg.Model, cfg.ImageModel, cfg.BaseURL)
	case "openai":
		return openai.New(cfg.APIKey, cfg.Model, cfg.ImageModel, cfg.BaseURL), nil
	case "claude":
		return claude.New(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "mock":
		slog.WarnContext(ctx, "using the mock chef, every answer is canned")
		return ai.Mock{}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

func newChef(ctx context.Context, cfg config.AIConfig) (*ai.Client, error) {
	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "using AI provider", "provider", cfg.Provider, "model", cfg.Model)
	return ai.NewClient(cfg.Provider, backend), nil
}
