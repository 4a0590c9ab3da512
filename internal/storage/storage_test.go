package storage

import (
	"fmt"
	"testing"

	"donaprenda/internal/cache"
	"donaprenda/internal/recipes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func galeto() recipes.Recipe {
	return recipes.Recipe{
		RecipeName:  "Galeto al Primo Canto",
		Ingredients: []string{"1 galeto", "sálvia"},
		Preparation: []string{"Tempere", "Asse"},
		PrepTime:    "1 hora",
		Servings:    "2 pessoas",
		Curiosity:   "Prato típico da serra gaúcha.",
		ImageURL:    &recipes.Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}},
	}
}

func TestRoundTripEmpty(t *testing.T) {
	s := NewStore(cache.NewInMemoryCache())
	require.NoError(t, s.SaveFavorites(t.Context(), []recipes.Recipe{}))
	assert.Equal(t, []recipes.Recipe{}, s.LoadFavorites(t.Context()))
}

func TestRoundTripOneRecipe(t *testing.T) {
	s := NewStore(cache.NewFileCache(t.TempDir()))
	want := []recipes.Recipe{galeto()}
	require.NoError(t, s.SaveFavorites(t.Context(), want))
	assert.Equal(t, want, s.LoadFavorites(t.Context()))
}

func TestRoundTripFiftyMessages(t *testing.T) {
	s := NewStore(cache.NewInMemoryCache())
	var conv []recipes.Message
	for i := range 50 {
		m := recipes.Message{ID: int64(1700000000000 + i), Text: fmt.Sprintf("msg %d", i), Sender: recipes.SenderUser}
		switch i % 3 {
		case 1:
			r := galeto()
			m.Sender = recipes.SenderBot
			m.Recipe = &r
		case 2:
			m.Image = &recipes.Image{MIMEType: "image/png", Data: []byte{byte(i), 1, 2}}
		}
		conv = append(conv, m)
	}
	want := [][]recipes.Message{conv}
	require.NoError(t, s.SaveHistory(t.Context(), want))
	assert.Equal(t, want, s.LoadHistory(t.Context()))
}

func TestLoadMissingIsEmpty(t *testing.T) {
	s := NewStore(cache.NewInMemoryCache())
	assert.Empty(t, s.LoadFavorites(t.Context()))
	assert.Empty(t, s.LoadHistory(t.Context()))
}

func TestLoadCorruptIsEmpty(t *testing.T) {
	c := cache.NewInMemoryCache()
	require.NoError(t, c.Put(t.Context(), FavoritesKey, `[{"recipeName": tchê`))
	require.NoError(t, c.Put(t.Context(), HistoryKey, `{"not":"a list"}`))

	s := NewStore(c)
	assert.Empty(t, s.LoadFavorites(t.Context()))
	assert.Empty(t, s.LoadHistory(t.Context()))
}

func TestClearHistoryRemovesKey(t *testing.T) {
	c := cache.NewInMemoryCache()
	s := NewStore(c)
	require.NoError(t, s.SaveHistory(t.Context(), [][]recipes.Message{{{ID: 1, Text: "oi", Sender: recipes.SenderUser}}}))

	has, err := s.HasHistory(t.Context())
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.ClearHistory(t.Context()))
	has, err = s.HasHistory(t.Context())
	require.NoError(t, err)
	assert.False(t, has, "clear must delete the key, not write an empty list")
	assert.Empty(t, s.LoadHistory(t.Context()))
}

func TestSaveNilWritesEmptyList(t *testing.T) {
	c := cache.NewInMemoryCache()
	s := NewStore(c)
	require.NoError(t, s.SaveFavorites(t.Context(), nil))
	rc, err := c.Get(t.Context(), FavoritesKey)
	require.NoError(t, err)
	defer rc.Close()
	buf := make([]byte, 8)
	n, _ := rc.Read(buf)
	assert.Equal(t, "[]", string(buf[:n]))
}
