package static

import (
	"crypto/sha256"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
)

//go:embed style.css
var styleCSS []byte

//go:embed app.js
var appJS []byte

var StyleAssetPath, ScriptAssetPath string

func Init() {
	StyleAssetPath = fmt.Sprintf("/static/style.%s.css", shortHash(styleCSS))
	ScriptAssetPath = fmt.Sprintf("/static/app.%s.js", shortHash(appJS))
}

func shortHash(b []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(b))[:12]
}

// Register serves the embedded assets. Paths carry a content hash so they
// can be cached forever; call Init first.
func Register(mux *http.ServeMux) {
	if StyleAssetPath == "" {
		Init()
	}
	mux.Handle("GET "+StyleAssetPath, asset("text/css; charset=utf-8", styleCSS))
	mux.Handle("GET "+ScriptAssetPath, asset("application/javascript; charset=utf-8", appJS))
}

func asset(contentType string, body []byte) http.HandlerFunc {
	etag := fmt.Sprintf(`"%s"`, shortHash(body))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("ETag", etag)
		if _, err := w.Write(body); err != nil {
			slog.ErrorContext(r.Context(), "failed to write static asset", "path", r.URL.Path, "error", err)
		}
	}
}
