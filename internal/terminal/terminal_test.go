package terminal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"donaprenda/internal/ai"
	"donaprenda/internal/cache"
	"donaprenda/internal/chat"
	"donaprenda/internal/recipes"
	"donaprenda/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"arroz, feijão", Command{Kind: Send, Text: "arroz, feijão"}},
		{"  ", Command{Kind: Send}},
		{"/sugerir", Command{Kind: Suggest}},
		{"/SUGERIR", Command{Kind: Suggest}},
		{"/foto geladeira.jpg", Command{Kind: Photo, Path: "geladeira.jpg"}},
		{"/foto geladeira.jpg tenho também charque", Command{Kind: Photo, Path: "geladeira.jpg", Text: "tenho também charque"}},
		{"/dificuldade medio", Command{Kind: SetDifficulty, Difficulty: recipes.Medium}},
		{"/dificuldade Difícil", Command{Kind: SetDifficulty, Difficulty: recipes.Hard}},
		{"/favoritar", Command{Kind: Favorite}},
		{"/favoritos", Command{Kind: Favorites}},
		{"/historico", Command{Kind: History}},
		{"/histórico", Command{Kind: History}},
		{"/limpar", Command{Kind: ClearHistory}},
		{"/novo", Command{Kind: NewChat}},
		{"/compartilhar", Command{Kind: Share}},
		{"/ajuda", Command{Kind: Help}},
		{"/sair", Command{Kind: Quit}},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestParseCommandErrors(t *testing.T) {
	_, err := ParseCommand("/churrasco")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	_, err = ParseCommand("/foto")
	assert.Error(t, err)
	_, err = ParseCommand("/dificuldade impossível")
	assert.Error(t, err)
}

func TestLoadPhoto(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "geladeira.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n0000"), 0o600))
	img, err := loadPhoto(png)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	txt := filepath.Join(dir, "lista.txt")
	require.NoError(t, os.WriteFile(txt, []byte("arroz e feijão"), 0o600))
	_, err = loadPhoto(txt)
	assert.Error(t, err)

	_, err = loadPhoto(filepath.Join(dir, "nada.jpg"))
	assert.Error(t, err)
}

func TestRenderRecipe(t *testing.T) {
	out := renderRecipe(recipes.Recipe{
		RecipeName:  "Galeto",
		Ingredients: []string{"frango", "sal grosso"},
		Preparation: []string{"Tempere", "Asse"},
		PrepTime:    "2 horas",
		Servings:    "4",
		Curiosity:   "Veio com os imigrantes italianos.",
	})
	for _, want := range []string{"Galeto", "Tempo de Preparo: 2 horas", "- sal grosso", "1. Tempere", "2. Asse", "Curiosidade da Prenda"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderHistory(t *testing.T) {
	assert.Contains(t, renderHistory(nil, time.UTC), "Nenhuma conversa por aqui ainda, tchê.")

	first := time.Date(2026, time.October, 1, 9, 30, 0, 0, time.UTC)
	out := renderHistory([][]recipes.Message{
		{{ID: first.UnixMilli(), Text: "primeira", Sender: recipes.SenderBot}},
		{
			{ID: first.Add(time.Hour).UnixMilli(), Sender: recipes.SenderUser, Image: &recipes.Image{MIMEType: "image/png"}},
			{ID: first.Add(time.Hour).UnixMilli() + 1, Text: "Barbaridade!", Sender: recipes.SenderBot, Recipe: &recipes.Recipe{RecipeName: "Sagu"}},
		},
	}, time.UTC)
	assert.Less(t, strings.Index(out, "01/10/2026, 10:30:00"), strings.Index(out, "01/10/2026, 09:30:00"), "newest first")
	assert.Contains(t, out, "Tu (com imagem): ")
	assert.Contains(t, out, "Dona Prenda: Sagu: Barbaridade!")
}

func TestRenderFavoritesEmpty(t *testing.T) {
	assert.Contains(t, renderFavorites(nil), "Tu ainda não salvaste nenhuma receita, vivente!")
}

func newTestModel(t *testing.T) (model, *chat.Controller, *[]string) {
	t.Helper()
	ctrl, err := chat.New(t.Context(), chat.Options{
		Chef:  ai.NewClient("mock", ai.Mock{}),
		Store: storage.NewStore(cache.NewInMemoryCache()),
	})
	require.NoError(t, err)
	var copied []string
	m := newModel(t.Context(), ctrl, Options{
		Clipboard: func(s string) error { copied = append(copied, s); return nil },
		Location:  time.UTC,
	})
	return m, ctrl, &copied
}

func sendTurn(t *testing.T, m model, cmd Command) model {
	t.Helper()
	updated, _ := m.run(cmd)
	m = updated.(model)
	require.True(t, m.busy)
	msg := m.send(cmd, true)()
	done, ok := msg.(turnDoneMsg)
	require.True(t, ok, "expected turnDoneMsg, got %T", msg)
	require.NoError(t, done.err)
	updated, _ = m.Update(done)
	return updated.(model)
}

func TestSendTurnFlow(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	m = sendTurn(t, m, Command{Kind: Send, Text: "charque"})
	assert.False(t, m.busy)

	s := ctrl.Snapshot()
	require.Len(t, s.Messages, 3)
	require.NotNil(t, s.Messages[2].Recipe)
	assert.Equal(t, "Arroz Carreteiro", s.Messages[2].Recipe.RecipeName)
}

func TestSuggestSendsEmptyText(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	cmd := Command{Kind: Suggest}
	msg := m.send(cmd, false)()
	done := msg.(turnDoneMsg)
	require.NoError(t, done.err)
	assert.Equal(t, "Me sugira uma receita Fácil, por favor!", ctrl.Snapshot().Messages[1].Text)
}

func TestBusyRejectsSecondTurn(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	m.busy = true
	updated, _ := m.run(Command{Kind: Send, Text: "charque"})
	assert.True(t, updated.(model).busy)
	assert.Len(t, ctrl.Snapshot().Messages, 1)
}

func TestPhotoErrorEndsTurn(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	msg := m.send(Command{Kind: Photo, Path: filepath.Join(t.TempDir(), "nada.jpg")}, true)()
	done := msg.(turnDoneMsg)
	assert.Error(t, done.err)
	updated, _ := m.Update(done)
	assert.False(t, updated.(model).busy)
	assert.Len(t, ctrl.Snapshot().Messages, 1)
}

func TestFavoriteAndShare(t *testing.T) {
	m, ctrl, copied := newTestModel(t)
	_, _ = m.run(Command{Kind: Favorite})
	assert.Empty(t, ctrl.Snapshot().Favorites, "nothing to favorite yet")

	m = sendTurn(t, m, Command{Kind: Send, Text: "charque"})
	_, _ = m.run(Command{Kind: Favorite})
	assert.Len(t, ctrl.Snapshot().Favorites, 1)
	_, _ = m.run(Command{Kind: Favorite})
	assert.Empty(t, ctrl.Snapshot().Favorites)

	_, _ = m.run(Command{Kind: Share})
	require.Len(t, *copied, 1)
	assert.True(t, strings.HasPrefix((*copied)[0], "Confere essa receita gaúcha tri-especial"))
}

func TestShareFallsBackWhenClipboardFails(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.opts.Clipboard = func(string) error { return errors.New("no clipboard") }
	m = sendTurn(t, m, Command{Kind: Send, Text: "charque"})
	_, cmd := m.run(Command{Kind: Share})
	assert.NotNil(t, cmd)
}

func TestDifficultyClearAndNewChat(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	_, _ = m.run(Command{Kind: SetDifficulty, Difficulty: recipes.Hard})
	assert.Equal(t, recipes.Hard, ctrl.Snapshot().Difficulty)

	m = sendTurn(t, m, Command{Kind: Send, Text: "charque"})
	require.Len(t, ctrl.Snapshot().History, 1)
	_, _ = m.run(Command{Kind: ClearHistory})
	assert.Empty(t, ctrl.Snapshot().History)

	before := ctrl.Snapshot().SessionID
	msg := m.newChat()()
	require.NoError(t, msg.(newChatMsg).err)
	s := ctrl.Snapshot()
	assert.Len(t, s.Messages, 1)
	assert.NotEqual(t, before, s.SessionID)
}
