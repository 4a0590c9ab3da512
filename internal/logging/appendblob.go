package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// DateFolderFormat lays blobs out by day: YYYY/MM/DD.
const DateFolderFormat = "%d/%02d/%02d"

func FormatDateFolder(t time.Time) string {
	return fmt.Sprintf(DateFolderFormat, t.Year(), int(t.Month()), t.Day())
}

type BlobConfig struct {
	AccountName string
	AccountKey  string
	Container   string
	BlobName    string        // defaults to <date folder>/<hostname>.jsonl
	FlushEvery  time.Duration // default 2s
}

func (c BlobConfig) Enabled() bool {
	return c.AccountName != "" && c.AccountKey != "" && c.Container != ""
}

type appender interface {
	AppendBlock(ctx context.Context, body io.ReadSeekCloser, o *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error)
}

// BlobHandler is an slog.Handler that batches JSON lines into an Azure
// append blob. Levels are left to the caller, see New.
type BlobHandler struct {
	ab     appender
	ch     chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	ticker *time.Ticker
	once   sync.Once
}

func NewBlobHandler(ctx context.Context, cfg BlobConfig) (*BlobHandler, error) {
	if !cfg.Enabled() {
		return nil, errors.New("AccountName, AccountKey and Container are required")
	}
	if cfg.BlobName == "" {
		host, _ := os.Hostname()
		cfg.BlobName = FormatDateFolder(time.Now().UTC()) + "/" + host + ".jsonl"
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, err
	}
	blobURL := "https://" + cfg.AccountName + ".blob.core.windows.net/" +
		url.PathEscape(cfg.Container) + "/" + cfg.BlobName // BlobName may include slashes; don't path-escape it.

	ab, err := appendblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
	if err != nil {
		return nil, err
	}
	if _, err := ab.Create(ctx, nil); err != nil && !bloberror.HasCode(err, bloberror.BlobAlreadyExists) {
		return nil, fmt.Errorf("failed to create log blob %s: %w", cfg.BlobName, err)
	}
	return newBlobHandler(ctx, ab, cfg.FlushEvery), nil
}

func newBlobHandler(ctx context.Context, ab appender, flushEvery time.Duration) *BlobHandler {
	if flushEvery <= 0 {
		flushEvery = 2 * time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &BlobHandler{
		ab:     ab,
		ch:     make(chan []byte, 1024),
		ctx:    ctx,
		cancel: cancel,
		ticker: time.NewTicker(flushEvery),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

// Close flushes what is buffered and stops the background writer.
func (h *BlobHandler) Close() error {
	h.once.Do(func() {
		h.cancel()
		h.wg.Wait()
		h.ticker.Stop()
	})
	return nil
}

func (h *BlobHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *BlobHandler) Handle(_ context.Context, r slog.Record) error {
	ev := make(map[string]any, r.NumAttrs()+3)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ev["ts"] = ts.UTC().Format(time.RFC3339Nano)
	ev["level"] = r.Level.String()
	ev["msg"] = r.Message

	r.Attrs(func(a slog.Attr) bool {
		a.Value = a.Value.Resolve()
		if a.Value.Kind() == slog.KindGroup {
			m := map[string]any{}
			// one level deep
			for _, aa := range a.Value.Group() {
				aa.Value = aa.Value.Resolve()
				m[aa.Key] = attrValue(aa.Value)
			}
			ev[a.Key] = m
		} else {
			ev[a.Key] = attrValue(a.Value)
		}
		return true
	})

	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return err
	}

	select {
	case h.ch <- append([]byte{}, b.Bytes()...):
		return nil
	case <-h.ctx.Done():
		return h.ctx.Err()
	}
}

// attrValue keeps errors readable, json would encode them as {}.
func attrValue(v slog.Value) any {
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return v.Any()
}

func (h *BlobHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: h, attrs: attrs}
}

func (h *BlobHandler) WithGroup(string) slog.Handler { return h }

func (h *BlobHandler) loop() {
	defer h.wg.Done()
	var buf []byte
	flush := func(ctx context.Context) {
		if len(buf) == 0 {
			return
		}
		if _, err := h.ab.AppendBlock(ctx, readSeekNopCloser{bytes.NewReader(buf)}, nil); err != nil {
			fmt.Fprintf(os.Stderr, "failed to append logs: %v\n", err)
		}
		buf = buf[:0]
	}

	for {
		select {
		case <-h.ctx.Done():
		drain:
			for {
				select {
				case line := <-h.ch:
					buf = append(buf, line...)
				default:
					break drain
				}
			}
			flush(context.WithoutCancel(h.ctx))
			return
		case line := <-h.ch:
			buf = append(buf, line...)
		case <-h.ticker.C:
			flush(h.ctx)
		}
	}
}

type withAttrs struct {
	slog.Handler
	attrs []slog.Attr
}

func (w *withAttrs) Handle(ctx context.Context, r slog.Record) error {
	r2 := r.Clone()
	r2.AddAttrs(w.attrs...)
	return w.Handler.Handle(ctx, r2)
}

func (w *withAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: w.Handler, attrs: append(append([]slog.Attr{}, w.attrs...), attrs...)}
}

type readSeekNopCloser struct{ io.ReadSeeker }

func (r readSeekNopCloser) Close() error { return nil }
