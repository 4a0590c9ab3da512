// Package web serves the Dona Prenda chat as server rendered pages driven by
// htmx forms.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"donaprenda/internal/chat"
	"donaprenda/internal/recipes"
	"donaprenda/internal/templates"
)

// MaxImageBytes caps an uploaded photo.
const MaxImageBytes = 10 << 20

type controller interface {
	StartSession(ctx context.Context) error
	SendTurn(ctx context.Context, text string, image *recipes.Image) (chat.Turn, error)
	ToggleFavorite(ctx context.Context, r recipes.Recipe) bool
	ClearHistory(ctx context.Context)
	SetDifficulty(d recipes.Difficulty) error
	FindRecipe(name string) (recipes.Recipe, bool)
	Snapshot() chat.State
}

type Handler struct {
	chat    controller
	timeout time.Duration
	loc     *time.Location
}

// NewHandler needs templates.Init to have run. timeout bounds each turn,
// zero means the request context alone.
func NewHandler(c controller, timeout time.Duration) *Handler {
	return &Handler{chat: c, timeout: timeout, loc: time.Local}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleChat)
	mux.HandleFunc("POST /chat", h.handleTurn)
	mux.HandleFunc("POST /chat/new", h.handleNewChat)
	mux.HandleFunc("POST /difficulty", h.handleDifficulty)
	mux.HandleFunc("GET /favorites", h.handleFavorites)
	mux.HandleFunc("POST /favorites/toggle", h.handleToggleFavorite)
	mux.HandleFunc("GET /history", h.handleHistory)
	mux.HandleFunc("POST /history/clear", h.handleClearHistory)
	mux.HandleFunc("GET /share", h.handleShare)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, templates.Chat, newChatPage(h.chat.Snapshot()))
}

func (h *Handler) handleFavorites(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, templates.Favorites, newFavoritesPage(h.chat.Snapshot()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, templates.History, newHistoryPage(h.chat.Snapshot(), h.loc))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := tmpl.Execute(w, data); err != nil {
		slog.ErrorContext(r.Context(), "template execute error", "template", tmpl.Name(), "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(MaxImageBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.WarnContext(ctx, "failed to parse turn form", "error", err)
		http.Error(w, "could not read the form", http.StatusBadRequest)
		return
	}

	text := r.FormValue("text")
	var image *recipes.Image
	if r.FormValue("suggest") != "" {
		text = ""
	} else {
		var err error
		image, err = formImage(r)
		if err != nil {
			slog.WarnContext(ctx, "rejected uploaded image", "error", err)
			status := http.StatusBadRequest
			if errors.Is(err, errTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.Error(), status)
			return
		}
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	turn, err := h.chat.SendTurn(ctx, text, image)
	switch {
	case errors.Is(err, chat.ErrTurnInProgress):
		http.Error(w, chat.Thinking, http.StatusConflict)
		return
	case errors.Is(err, chat.ErrSessionReset):
		slog.InfoContext(ctx, "turn dropped by a new chat")
	case err != nil:
		slog.ErrorContext(ctx, "turn failed", "error", err)
		http.Error(w, "could not send the message", http.StatusInternalServerError)
		return
	case turn.Err != nil:
		slog.WarnContext(ctx, "turn answered with an error", "error", turn.Err)
	}
	redirect(w, r, "/")
}

var errTooLarge = fmt.Errorf("image is larger than %d MiB", MaxImageBytes>>20)

// formImage reads the optional "image" file. A missing file is not an error.
func formImage(r *http.Request) (*recipes.Image, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageBytes {
		return nil, errTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}
	mime := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%s is not an image", header.Filename)
	}
	return &recipes.Image{MIMEType: mime, Data: data}, nil
}

func (h *Handler) handleNewChat(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.StartSession(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "failed to start a new chat", "error", err)
		http.Error(w, "could not start a new chat", http.StatusBadGateway)
		return
	}
	redirect(w, r, "/")
}

func (h *Handler) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	d, err := recipes.ParseDifficulty(r.FormValue("difficulty"))
	if err == nil {
		err = h.chat.SetDifficulty(d)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	redirect(w, r, "/")
}

func (h *Handler) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	recipe, ok := h.chat.FindRecipe(name)
	if !ok {
		http.Error(w, "recipe not found", http.StatusNotFound)
		return
	}
	favorite := h.chat.ToggleFavorite(r.Context(), recipe)
	slog.InfoContext(r.Context(), "toggled favorite", "recipe", name, "favorite", favorite)
	redirect(w, r, returnPath(r.FormValue("return")))
}

// returnPath only allows our own pages.
func returnPath(p string) string {
	switch p {
	case "/favorites", "/history":
		return p
	default:
		return "/"
	}
}

func (h *Handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	h.chat.ClearHistory(r.Context())
	redirect(w, r, "/history")
}

func (h *Handler) handleShare(w http.ResponseWriter, r *http.Request) {
	recipe, ok := h.chat.FindRecipe(r.URL.Query().Get("name"))
	if !ok {
		http.Error(w, "recipe not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, recipes.ShareText(recipe)); err != nil {
		slog.ErrorContext(r.Context(), "failed to write share text", "error", err)
	}
}

// redirect tells htmx to navigate, plain forms get a 303.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
