package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"donaprenda/internal/recipes"
)

// onePixel is a 1x1 PNG so the mock can exercise image rendering offline.
const onePixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// Mock answers every turn with a canned carreteiro, or with the not found
// answer when the ingredients mention "pedra". Used for local development.
type Mock struct{}

var _ Backend = Mock{}

func (Mock) StartConversation(_ context.Context, _ SessionConfig) (Conversation, error) {
	return mockConversation{}, nil
}

func (Mock) Paint(_ context.Context, _ string) (*recipes.Image, error) {
	data, err := base64.StdEncoding.DecodeString(onePixel)
	if err != nil {
		return nil, err
	}
	return &recipes.Image{MIMEType: "image/png", Data: data}, nil
}

type mockConversation struct{}

func (mockConversation) Complete(_ context.Context, parts []Part) (string, error) {
	var text string
	for _, p := range parts {
		text += p.Text
	}
	r := recipes.Recipe{
		RecipeName:  "Arroz Carreteiro",
		Ingredients: []string{"500 g de charque", "2 xícaras de arroz", "1 cebola", "2 dentes de alho"},
		Preparation: []string{
			"Dessalgue o charque de véspera e corte em cubos.",
			"Frite o charque com a cebola e o alho.",
			"Junte o arroz, refogue e cubra com água quente.",
			"Cozinhe até secar e sirva com salsinha.",
		},
		PrepTime:  "1 hora",
		Servings:  "4 porções",
		Curiosity: "Os carreteiros levavam charque e arroz nas viagens de carreta pelo pampa.",
	}
	if strings.Contains(strings.ToLower(text), "pedra") {
		r = recipes.Recipe{
			RecipeName:  recipes.NotFoundName,
			Ingredients: []string{},
			Preparation: []string{},
			Curiosity:   "Bah, guri(a), com esses ingredientes ficou difícil de achar um prato nosso. Tu não terias mais alguma coisa aí?",
		}
	}
	b, err := json.Marshal(r)
	return string(b), err
}
