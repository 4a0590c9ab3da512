package cache

import (
	"context"
	"fmt"
	"log/slog"

	"donaprenda/internal/config"
)

// MakeCache builds the backend named in cfg, sealed with age when a
// passphrase is configured.
func MakeCache(ctx context.Context, cfg config.StorageConfig) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch cfg.Backend {
	case "memory":
		slog.InfoContext(ctx, "using in-memory storage, nothing survives a restart")
		c = NewInMemoryCache()
	case "sqlite":
		slog.InfoContext(ctx, "using sqlite for storage", "path", cfg.SQLitePath)
		c, err = NewSQLiteCache(cfg.SQLitePath)
	case "redis":
		slog.InfoContext(ctx, "using redis for storage")
		c, err = NewRedisCache(ctx, cfg.RedisURL, "donaprenda:")
	case "azure":
		slog.InfoContext(ctx, "using Azure Blob Storage for storage", "account", cfg.AzureAccount, "container", cfg.AzureContainer)
		c, err = NewBlobCache(cfg.AzureAccount, cfg.AzureAccountKey, cfg.AzureContainer)
	case "file", "":
		slog.InfoContext(ctx, "using local files for storage", "dir", cfg.Dir)
		c = NewFileCache(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Passphrase != "" {
		slog.InfoContext(ctx, "encrypting stored values with age")
		return NewSealed(c, cfg.Passphrase, 0)
	}
	return c, nil
}
