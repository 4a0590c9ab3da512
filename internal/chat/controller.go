// Package chat holds the conversation controller: the live messages, the
// chosen difficulty, favorites and history, and the AI session they run on.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"donaprenda/internal/ai"
	"donaprenda/internal/recipes"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	Greeting = "Bah, tchê! Sou a Dona Prenda, tua parceira na cozinha gaúcha. Me diz ou me mostra os ingredientes que tu tens aí, que eu te ajudo a preparar um prato tri especial!"

	FallbackError = "Bah, guri(a)! Deu um problema aqui nas minhas coisas. Tenta de novo em um instante, por favor."

	// Thinking is what presentations show while a turn is running.
	Thinking = "Dona Prenda está pensando..."

	suggestionRequest = "Me sugira uma receita %s, por favor!"
	acknowledgement   = "Barbaridade! Olhando o que tu tens aí, tu podes fazer um(a) %s de lamber os beiços!"
)

var (
	// ErrTurnInProgress rejects a turn sent while another is outstanding.
	ErrTurnInProgress = errors.New("turn already in progress")
	// ErrSessionReset is returned by a turn whose chat was replaced before
	// the answer came back. Nothing from that turn is kept.
	ErrSessionReset = errors.New("chat was restarted during the turn")
)

// Store is the durable side of favorites and history.
type Store interface {
	LoadFavorites(ctx context.Context) []recipes.Recipe
	SaveFavorites(ctx context.Context, favorites []recipes.Recipe) error
	LoadHistory(ctx context.Context) [][]recipes.Message
	SaveHistory(ctx context.Context, history [][]recipes.Message) error
	ClearHistory(ctx context.Context) error
}

type Options struct {
	Chef  ai.Chef
	Store Store
	// Now defaults to time.Now; message ids derive from it.
	Now func() time.Time
}

type Controller struct {
	chef  ai.Chef
	store Store
	now   func() time.Time

	mu         sync.Mutex
	messages   []recipes.Message
	history    [][]recipes.Message
	favorites  []recipes.Recipe
	loading    bool
	lastErr    error
	difficulty recipes.Difficulty
	session    ai.Session
	generation uint64
	cancel     context.CancelFunc
	lastID     int64
}

// Turn is the pair of messages one SendTurn appended.
type Turn struct {
	User recipes.Message
	Bot  recipes.Message
	// Err is the adapter failure folded into Bot, if any.
	Err error
}

// State is a copy of the controller state for rendering.
type State struct {
	Messages   []recipes.Message
	History    [][]recipes.Message
	Favorites  []recipes.Recipe
	Loading    bool
	Err        error
	Difficulty recipes.Difficulty
	SessionID  string
}

// New loads favorites and history once and opens the first session.
func New(ctx context.Context, opts Options) (*Controller, error) {
	if opts.Chef == nil || opts.Store == nil {
		return nil, fmt.Errorf("chat: chef and store are required")
	}
	c := &Controller{
		chef:       opts.Chef,
		store:      opts.Store,
		now:        opts.Now,
		difficulty: recipes.Easy,
	}
	if c.now == nil {
		c.now = time.Now
	}

	// Stored state never fails to load, it comes back empty instead. Only
	// the session can fail.
	var (
		g       errgroup.Group
		session ai.Session
	)
	g.Go(func() error {
		c.favorites = opts.Store.LoadFavorites(ctx)
		return nil
	})
	g.Go(func() error {
		c.history = opts.Store.LoadHistory(ctx)
		return nil
	})
	g.Go(func() error {
		var err error
		session, err = c.openSession(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.lastID = lo.Max(lo.Map(lo.Flatten(c.history), func(m recipes.Message, _ int) int64 { return m.ID }))
	slog.InfoContext(ctx, "loaded saved state", "favorites", len(c.favorites), "conversations", len(c.history))

	c.reset(session)
	return c, nil
}

func (c *Controller) openSession(ctx context.Context) (ai.Session, error) {
	session, err := c.chef.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return session, nil
}

// StartSession opens a fresh AI session and resets the chat to the greeting.
// A turn still running is cancelled and its answer dropped.
func (c *Controller) StartSession(ctx context.Context) error {
	session, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	c.reset(session)
	return nil
}

func (c *Controller) reset(session ai.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.session = session
	c.loading = false
	c.lastErr = nil
	c.messages = []recipes.Message{{ID: c.nextID(), Text: Greeting, Sender: recipes.SenderBot}}
}

// SendTurn runs one user turn. Empty text without a photo asks for any
// recipe of the selected difficulty. Adapter failures become a bot message
// and are reported in Turn.Err, not as the returned error.
func (c *Controller) SendTurn(ctx context.Context, text string, image *recipes.Image) (Turn, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return Turn{}, ErrTurnInProgress
	}

	display, effective := text, text
	if strings.TrimSpace(text) == "" && image == nil {
		display = fmt.Sprintf(suggestionRequest, c.difficulty)
		effective = ""
	}
	user := recipes.Message{ID: c.nextID(), Text: display, Sender: recipes.SenderUser}
	if image != nil {
		img := image.Clone()
		user.Image = &img
	}
	c.messages = append(c.messages, user)
	c.loading = true
	c.lastErr = nil

	gen := c.generation
	session := c.session
	difficulty := c.difficulty
	turnCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()
	defer func() {
		// A panicking provider must not leave the chat stuck in loading.
		if r := recover(); r != nil {
			c.mu.Lock()
			if gen == c.generation {
				c.loading = false
				c.cancel = nil
			}
			c.mu.Unlock()
			panic(r)
		}
	}()

	recipe, err := session.Send(turnCtx, effective, difficulty, image)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		slog.InfoContext(ctx, "dropping answer for a restarted chat", "session", session.ID())
		return Turn{User: user}, ErrSessionReset
	}
	c.loading = false
	c.cancel = nil

	bot := recipes.Message{ID: c.nextID(), Sender: recipes.SenderBot}
	if err != nil {
		bot.Text = errorText(err)
		c.lastErr = err
		c.messages = append(c.messages, bot)
		return Turn{User: user, Bot: bot, Err: err}, nil
	}

	if recipe.NotFound() {
		bot.Text = recipe.Curiosity
	} else {
		bot.Text = fmt.Sprintf(acknowledgement, recipe.RecipeName)
		r := recipe.Clone()
		bot.Recipe = &r
	}
	c.messages = append(c.messages, bot)
	c.history = append(c.history, recipes.CloneConversation(c.messages))
	if err := c.store.SaveHistory(context.WithoutCancel(ctx), c.history); err != nil {
		slog.ErrorContext(ctx, "failed to save history", "error", err)
	}
	return Turn{User: user, Bot: bot.Clone()}, nil
}

func errorText(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackError
}

// ToggleFavorite removes the favorite with the same recipe name or adds r.
// It reports whether r is a favorite afterwards.
func (c *Controller) ToggleFavorite(ctx context.Context, r recipes.Recipe) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	sameName := func(f recipes.Recipe) bool { return f.RecipeName == r.RecipeName }
	favorite := !lo.ContainsBy(c.favorites, sameName)
	if favorite {
		c.favorites = append(c.favorites, r.Clone())
	} else {
		c.favorites = lo.Reject(c.favorites, func(f recipes.Recipe, _ int) bool { return sameName(f) })
	}
	if err := c.store.SaveFavorites(context.WithoutCancel(ctx), c.favorites); err != nil {
		slog.ErrorContext(ctx, "failed to save favorites", "recipe", r.RecipeName, "error", err)
	}
	return favorite
}

func (c *Controller) IsFavorite(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.ContainsBy(c.favorites, func(f recipes.Recipe) bool { return f.RecipeName == name })
}

// ClearHistory forgets every past conversation and removes the stored copy.
func (c *Controller) ClearHistory(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
	if err := c.store.ClearHistory(context.WithoutCancel(ctx)); err != nil {
		slog.ErrorContext(ctx, "failed to clear history", "error", err)
	}
}

func (c *Controller) SetDifficulty(d recipes.Difficulty) error {
	if !d.Valid() {
		return fmt.Errorf("unknown difficulty %q", d)
	}
	c.mu.Lock()
	c.difficulty = d
	c.mu.Unlock()
	return nil
}

// FindRecipe looks a recipe up by name in the live chat, then favorites,
// then history, newest first.
func (c *Controller) FindRecipe(name string) (recipes.Recipe, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := findInConversation(c.messages, name); ok {
		return r, true
	}
	if r, ok := lo.Find(c.favorites, func(f recipes.Recipe) bool { return f.RecipeName == name }); ok {
		return r.Clone(), true
	}
	for i := len(c.history) - 1; i >= 0; i-- {
		if r, ok := findInConversation(c.history[i], name); ok {
			return r, true
		}
	}
	return recipes.Recipe{}, false
}

func findInConversation(msgs []recipes.Message, name string) (recipes.Recipe, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if r := msgs[i].Recipe; r != nil && r.RecipeName == name {
			return r.Clone(), true
		}
	}
	return recipes.Recipe{}, false
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	history := make([][]recipes.Message, len(c.history))
	for i, conv := range c.history {
		history[i] = recipes.CloneConversation(conv)
	}
	s := State{
		Messages:   recipes.CloneConversation(c.messages),
		History:    history,
		Favorites:  lo.Map(c.favorites, func(r recipes.Recipe, _ int) recipes.Recipe { return r.Clone() }),
		Loading:    c.loading,
		Err:        c.lastErr,
		Difficulty: c.difficulty,
	}
	if c.session != nil {
		s.SessionID = c.session.ID()
	}
	return s
}

// nextID hands out millisecond timestamps, bumped so they always increase.
func (c *Controller) nextID() int64 {
	id := c.now().UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return id
}
