package cache

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"donaprenda/internal/config"
)

func readAll(t *testing.T, c Cache, key string) string {
	t.Helper()
	rc, err := c.Get(t.Context(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return string(b)
}

// exercise runs the contract every backend has to honour.
func exercise(t *testing.T, c Cache) {
	ctx := t.Context()

	if _, err := c.Get(ctx, "gaucho_history"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, err := c.Exists(ctx, "gaucho_history"); err != nil || ok {
		t.Fatalf("exists on empty = %v, %v", ok, err)
	}

	if err := c.Put(ctx, "gaucho_history", `[]`); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.Put(ctx, "gaucho_history", `[["oi"]]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got := readAll(t, c, "gaucho_history"); got != `[["oi"]]` {
		t.Fatalf("got %q", got)
	}
	if ok, err := c.Exists(ctx, "gaucho_history"); err != nil || !ok {
		t.Fatalf("exists after put = %v, %v", ok, err)
	}

	if err := c.Delete(ctx, "gaucho_history"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := c.Exists(ctx, "gaucho_history"); ok {
		t.Fatal("key still exists after delete")
	}
	if err := c.Delete(ctx, "gaucho_history"); err != nil {
		t.Fatalf("deleting a missing key should be a no-op: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	exercise(t, NewFileCache(t.TempDir()))
}

func TestFileCacheNestedKeys(t *testing.T) {
	fc := NewFileCache(t.TempDir())
	if err := fc.Put(t.Context(), "profiles/ana/favorites", "[]"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got := readAll(t, fc, "profiles/ana/favorites"); got != "[]" {
		t.Fatalf("got %q", got)
	}
}

func TestFileCacheRejectsEscapingKeys(t *testing.T) {
	fc := NewFileCache(t.TempDir())
	for _, key := range []string{"", "../outside", "/etc/passwd"} {
		if err := fc.Put(t.Context(), key, "x"); err == nil {
			t.Errorf("put(%q) should fail", key)
		}
	}
}

func TestInMemoryCache(t *testing.T) {
	exercise(t, NewInMemoryCache())
}

// TestRedisCache needs a disposable server, e.g. REDIS_URL=redis://localhost:6379/15.
func TestRedisCache(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	c, err := NewRedisCache(t.Context(), url, "donaprenda-test:"+t.Name()+":")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()
	t.Cleanup(func() { _ = c.Delete(context.Background(), "gaucho_history") })
	exercise(t, c)
}

func TestRedisCacheRejectsBadURL(t *testing.T) {
	if _, err := NewRedisCache(t.Context(), "not-a-redis-url", "x:"); err == nil {
		t.Fatal("expected an error for a malformed url")
	}
}

func TestSQLiteCache(t *testing.T) {
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()
	exercise(t, c)
}

func TestSQLiteCacheReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	c, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.Put(t.Context(), "gaucho_favorites", `[{"recipeName":"Galeto"}]`); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// migrations must be a no-op the second time
	c, err = NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	if got := readAll(t, c, "gaucho_favorites"); !strings.Contains(got, "Galeto") {
		t.Fatalf("value lost across reopen: %q", got)
	}
}

func TestSealedCache(t *testing.T) {
	inner := NewInMemoryCache()
	s, err := NewSealed(inner, "chimarrao", 10)
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, s)

	if err := s.Put(t.Context(), "gaucho_favorites", `[{"recipeName":"Galeto"}]`); err != nil {
		t.Fatalf("put: %v", err)
	}
	raw := readAll(t, inner, "gaucho_favorites")
	if strings.Contains(raw, "Galeto") {
		t.Fatal("value stored in the clear")
	}
	if !strings.HasPrefix(raw, "-----BEGIN AGE ENCRYPTED FILE-----") {
		t.Fatalf("expected armored age payload, got %q", raw)
	}
	if got := readAll(t, s, "gaucho_favorites"); got != `[{"recipeName":"Galeto"}]` {
		t.Fatalf("decrypted %q", got)
	}

	wrong, _ := NewSealed(inner, "terere", 10)
	if _, err := wrong.Get(t.Context(), "gaucho_favorites"); err == nil {
		t.Fatal("wrong passphrase should not decrypt")
	}
}

func TestSealedRejectsEmptyPassphrase(t *testing.T) {
	if _, err := NewSealed(NewInMemoryCache(), "", 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestMakeCache(t *testing.T) {
	ctx := context.Background()
	c, err := MakeCache(ctx, config.StorageConfig{Backend: "file", Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Fatalf("expected FileCache, got %T", c)
	}

	c, err = MakeCache(ctx, config.StorageConfig{Backend: "memory", Passphrase: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*Sealed); !ok {
		t.Fatalf("expected Sealed, got %T", c)
	}

	if _, err := MakeCache(ctx, config.StorageConfig{Backend: "floppy"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
