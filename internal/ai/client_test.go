package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"donaprenda/internal/recipes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	reply    string
	err      error
	paintErr error
	started  []SessionConfig
	turns    [][]Part
	prompts  []string
}

func (f *fakeBackend) StartConversation(_ context.Context, cfg SessionConfig) (Conversation, error) {
	f.started = append(f.started, cfg)
	return f, nil
}

func (f *fakeBackend) Complete(_ context.Context, parts []Part) (string, error) {
	f.turns = append(f.turns, parts)
	return f.reply, f.err
}

func (f *fakeBackend) Paint(_ context.Context, prompt string) (*recipes.Image, error) {
	f.prompts = append(f.prompts, prompt)
	if f.paintErr != nil {
		return nil, f.paintErr
	}
	return &recipes.Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}, nil
}

const chimarraoReply = `{"recipeName":"Chimarrão","ingredients":["erva-mate","água quente"],"preparation":["Encha a cuia","Cevar com água a 70 graus"],"prepTime":"5 minutos","servings":"1 roda","curiosity":"Herança guarani."}`

func TestTurnText(t *testing.T) {
	assert.Equal(t, "Ingredientes: arroz, feijão, carne. Dificuldade desejada: Médio.", TurnText("arroz, feijão, carne", recipes.Medium))
	assert.Equal(t, "Ingredientes: nenhum texto fornecido. Dificuldade desejada: Fácil.", TurnText("", recipes.Easy))
}

func TestBuildPartsImageFirst(t *testing.T) {
	img := &recipes.Image{MIMEType: "image/png", Data: []byte{1}}
	parts := BuildParts("sal", recipes.Hard, img)
	require.Len(t, parts, 2)
	assert.Same(t, img, parts[0].Image)
	assert.Empty(t, parts[0].Text)
	assert.Equal(t, "Ingredientes: sal. Dificuldade desejada: Difícil.", parts[1].Text)

	parts = BuildParts("arroz, feijão, carne", recipes.Medium, nil)
	require.Len(t, parts, 1)
	assert.Nil(t, parts[0].Image)
}

func TestRecipeSchema(t *testing.T) {
	s := RecipeSchema()
	assert.ElementsMatch(t, []string{"recipeName", "ingredients", "preparation", "prepTime", "servings", "curiosity"}, s.Required)
	_, hasImage := s.Properties.Get("imageUrl")
	assert.False(t, hasImage, "imageUrl is never produced by the model")
	ing, ok := s.Properties.Get("ingredients")
	require.True(t, ok)
	assert.Equal(t, "array", ing.Type)
	assert.Equal(t, "string", ing.Items.Type)
}

func TestNewSessionBindsConfig(t *testing.T) {
	b := &fakeBackend{}
	c := NewClient("fake", b)
	s1, err := c.NewSession(t.Context())
	require.NoError(t, err)
	s2, err := c.NewSession(t.Context())
	require.NoError(t, err)

	assert.NotEqual(t, s1.ID(), s2.ID())
	require.Len(t, b.started, 2)
	assert.Equal(t, SystemMessage, b.started[0].SystemPrompt)
	assert.InDelta(t, 0.7, b.started[0].Temperature, 0.0001)
	assert.NotNil(t, b.started[0].Schema)
}

func TestSendGeneratesImage(t *testing.T) {
	b := &fakeBackend{reply: "```json\n" + chimarraoReply + "\n```"}
	s, err := NewClient("fake", b).NewSession(t.Context())
	require.NoError(t, err)

	r, err := s.Send(t.Context(), "erva", recipes.Easy, nil)
	require.NoError(t, err)
	assert.Equal(t, "Chimarrão", r.RecipeName)
	require.NotNil(t, r.ImageURL)
	assert.Equal(t, "image/jpeg", r.ImageURL.MIMEType)
	require.Len(t, b.prompts, 1)
	assert.Contains(t, b.prompts[0], "prato de Chimarrão gaúcho")
}

func TestSendSentinelSkipsImage(t *testing.T) {
	b := &fakeBackend{reply: `{"recipeName":"Não encontrei uma receita","curiosity":"Bah","ingredients":[],"preparation":[],"prepTime":"","servings":""}`}
	s, err := NewClient("fake", b).NewSession(t.Context())
	require.NoError(t, err)

	r, err := s.Send(t.Context(), "pedra", recipes.Easy, nil)
	require.NoError(t, err)
	assert.True(t, r.NotFound())
	assert.Nil(t, r.ImageURL)
	assert.Empty(t, b.prompts)
}

func TestSendImageFailureIsSwallowed(t *testing.T) {
	for _, paintErr := range []error{errors.New("quota"), ErrNoImage} {
		b := &fakeBackend{reply: chimarraoReply, paintErr: paintErr}
		s, err := NewClient("fake", b).NewSession(t.Context())
		require.NoError(t, err)

		r, err := s.Send(t.Context(), "erva", recipes.Easy, nil)
		require.NoError(t, err)
		assert.Equal(t, "Chimarrão", r.RecipeName)
		assert.Nil(t, r.ImageURL)
	}
}

func TestSendFailuresCollapse(t *testing.T) {
	tests := map[string]*fakeBackend{
		"transport":     {err: errors.New("connection reset")},
		"not json":      {reply: "Bah, tchê!"},
		"missing field": {reply: `{"recipeName":"Chimarrão"}`},
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := NewClient("fake", b).NewSession(t.Context())
			require.NoError(t, err)

			_, err = s.Send(t.Context(), "erva", recipes.Easy, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRecipeGeneration)
			assert.True(t, strings.HasPrefix(err.Error(), "Bah, guri(a)!"))
			assert.Empty(t, b.prompts, "no image after a failed turn")
		})
	}
}

func TestGenerationErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := error(&GenerationError{Cause: cause})
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrRecipeGeneration)
}

func TestMockBackend(t *testing.T) {
	s, err := NewClient("mock", Mock{}).NewSession(t.Context())
	require.NoError(t, err)

	r, err := s.Send(t.Context(), "charque e arroz", recipes.Medium, nil)
	require.NoError(t, err)
	assert.Equal(t, "Arroz Carreteiro", r.RecipeName)
	require.NotNil(t, r.ImageURL)
	assert.Equal(t, "image/png", r.ImageURL.MIMEType)

	r, err = s.Send(t.Context(), "uma pedra", recipes.Medium, nil)
	require.NoError(t, err)
	assert.True(t, r.NotFound())
}
