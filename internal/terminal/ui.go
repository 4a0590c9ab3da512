// Package terminal runs the chat in a Bubble Tea program. Output is printed
// above the prompt with Program.Println so answers arriving from the
// background never garble the input line.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"donaprenda/internal/chat"
	"donaprenda/internal/recipes"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type controller interface {
	StartSession(ctx context.Context) error
	SendTurn(ctx context.Context, text string, image *recipes.Image) (chat.Turn, error)
	ToggleFavorite(ctx context.Context, r recipes.Recipe) bool
	ClearHistory(ctx context.Context)
	SetDifficulty(d recipes.Difficulty) error
	Snapshot() chat.State
}

type Options struct {
	// Timeout bounds each turn; zero leaves it to ctx.
	Timeout time.Duration
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	Location  *time.Location
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, c controller, opts Options) error {
	p := tea.NewProgram(newModel(ctx, c, opts), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type model struct {
	ctx     context.Context
	chat    controller
	opts    Options
	input   textinput.Model
	spinner spinner.Model
	busy    bool
}

type turnDoneMsg struct {
	turn chat.Turn
	err  error
	// echoed is set when the user line was already printed.
	echoed bool
}

type newChatMsg struct{ err error }

func newModel(ctx context.Context, c controller, opts Options) model {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	// plain prompt text, styled prompts break the textinput width math
	ti := textinput.New()
	ti.Prompt = "prenda> "
	ti.PromptStyle = promptStyle
	ti.Placeholder = "Digite os ingredientes..."
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.CharLimit = 1000
	ti.Width = 60
	ti.Focus()

	return model{
		ctx:     ctx,
		chat:    c,
		opts:    opts,
		input:   ti,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(botStyle)),
	}
}

func (m model) Init() tea.Cmd {
	s := m.chat.Snapshot()
	lines := make([]string, 0, len(s.Messages)+2)
	for _, msg := range s.Messages {
		lines = append(lines, renderMessage(msg))
	}
	lines = append(lines, renderDifficulty(s.Difficulty), hintStyle.Render("Digita /ajuda para ver os comandos."))
	return tea.Batch(textinput.Blink, m.print(lines...))
}

func (m model) print(lines ...string) tea.Cmd {
	return tea.Println(strings.Join(lines, "\n"))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.Reset()
			cmd, err := ParseCommand(line)
			if err != nil {
				return m, m.print(errorStyle.Render(err.Error()))
			}
			return m.run(cmd)
		}

	case tea.WindowSizeMsg:
		if w := msg.Width - len(m.input.Prompt); w > 0 {
			m.input.Width = w
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case turnDoneMsg:
		m.busy = false
		return m, m.turnDone(msg)

	case newChatMsg:
		if msg.err != nil {
			return m, m.print(errorStyle.Render("Não consegui começar um novo papo: " + msg.err.Error()))
		}
		return m, m.print(renderMessage(m.chat.Snapshot().Messages[0]))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) run(cmd Command) (tea.Model, tea.Cmd) {
	switch cmd.Kind {
	case Send, Suggest, Photo:
		if m.busy {
			return m, m.print(hintStyle.Render(chat.Thinking))
		}
		m.busy = true
		echo := cmd.Text
		if cmd.Kind == Photo {
			echo = strings.TrimSpace("[foto " + cmd.Path + "] " + cmd.Text)
		}
		if cmd.Kind == Suggest {
			cmd.Text = ""
		}
		var cmds []tea.Cmd
		if echo != "" {
			cmds = append(cmds, m.print(userStyle.Render("Tu> "+echo)))
		}
		return m, tea.Batch(append(cmds, m.spinner.Tick, m.send(cmd, echo != ""))...)

	case SetDifficulty:
		if err := m.chat.SetDifficulty(cmd.Difficulty); err != nil {
			return m, m.print(errorStyle.Render(err.Error()))
		}
		return m, m.print(renderDifficulty(cmd.Difficulty))

	case Favorite:
		r, ok := lastRecipe(m.chat.Snapshot())
		if !ok {
			return m, m.print(hintStyle.Render("Ainda não tem receita nesta conversa, tchê."))
		}
		if m.chat.ToggleFavorite(m.ctx, r) {
			return m, m.print(botStyle.Render("Guardei " + r.RecipeName + " nos favoritos!"))
		}
		return m, m.print(botStyle.Render("Tirei " + r.RecipeName + " dos favoritos."))

	case Favorites:
		return m, m.print(renderFavorites(m.chat.Snapshot().Favorites))

	case History:
		return m, m.print(renderHistory(m.chat.Snapshot().History, m.opts.Location))

	case ClearHistory:
		m.chat.ClearHistory(m.ctx)
		return m, m.print(hintStyle.Render("Histórico apagado."))

	case NewChat:
		return m, m.newChat()

	case Share:
		r, ok := lastRecipe(m.chat.Snapshot())
		if !ok {
			return m, m.print(hintStyle.Render("Ainda não tem receita nesta conversa, tchê."))
		}
		text := recipes.ShareText(r)
		if err := m.opts.Clipboard(text); err != nil {
			return m, m.print(hintStyle.Render("Não consegui copiar, aqui está o texto:"), text)
		}
		return m, m.print(hintStyle.Render("Copiado!"))

	case Help:
		return m, m.print(hintStyle.Render(HelpText))

	case Quit:
		return m, tea.Quit
	}
	return m, nil
}

// send runs the turn off the event loop.
func (m model) send(cmd Command, echoed bool) tea.Cmd {
	ctx, c, timeout := m.ctx, m.chat, m.opts.Timeout
	return func() tea.Msg {
		var image *recipes.Image
		if cmd.Kind == Photo {
			var err error
			if image, err = loadPhoto(cmd.Path); err != nil {
				return turnDoneMsg{err: err, echoed: echoed}
			}
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		turn, err := c.SendTurn(ctx, cmd.Text, image)
		return turnDoneMsg{turn: turn, err: err, echoed: echoed}
	}
}

func (m model) turnDone(msg turnDoneMsg) tea.Cmd {
	switch {
	case errors.Is(msg.err, chat.ErrSessionReset):
		return nil
	case errors.Is(msg.err, chat.ErrTurnInProgress):
		return m.print(hintStyle.Render(chat.Thinking))
	case msg.err != nil:
		return m.print(errorStyle.Render(msg.err.Error()))
	}
	var lines []string
	if !msg.echoed {
		lines = append(lines, renderMessage(msg.turn.User))
	}
	if msg.turn.Err != nil {
		lines = append(lines, errorStyle.Render("Dona Prenda: "+msg.turn.Bot.Text))
	} else {
		lines = append(lines, renderMessage(msg.turn.Bot))
	}
	return m.print(lines...)
}

func (m model) newChat() tea.Cmd {
	ctx, c := m.ctx, m.chat
	return func() tea.Msg {
		return newChatMsg{err: c.StartSession(ctx)}
	}
}

func (m model) View() string {
	var b strings.Builder
	if m.busy {
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), hintStyle.Render(chat.Thinking)))
	}
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}
