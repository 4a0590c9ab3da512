package recipes

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

const churrasco = `{
	"recipeName": "Churrasco de Costela",
	"ingredients": ["2 kg de costela", "sal grosso"],
	"preparation": ["Salgue a costela", "Asse no fogo de chão"],
	"prepTime": "4 horas",
	"servings": "6 pessoas",
	"curiosity": "O fogo de chão vem dos tropeiros."
}`

func TestParseRecipe(t *testing.T) {
	r, err := ParseRecipe([]byte(churrasco))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.RecipeName != "Churrasco de Costela" {
		t.Errorf("recipeName = %q", r.RecipeName)
	}
	if want := []string{"Salgue a costela", "Asse no fogo de chão"}; !reflect.DeepEqual(r.Preparation, want) {
		t.Errorf("preparation = %v, want %v", r.Preparation, want)
	}
	if r.ImageURL != nil {
		t.Error("imageUrl should not be set by parsing")
	}
	if r.NotFound() {
		t.Error("real recipe reported as not found")
	}
}

func TestParseRecipeSentinel(t *testing.T) {
	raw := `{"recipeName":"Não encontrei uma receita","curiosity":"Bah, tchê","ingredients":[],"preparation":[],"prepTime":"","servings":""}`
	r, err := ParseRecipe([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.NotFound() {
		t.Fatal("sentinel recipe not detected")
	}
}

func TestParseRecipeRejects(t *testing.T) {
	tests := map[string]string{
		"not json":          "Bah, não sei",
		"array":             `["a"]`,
		"null":              `null`,
		"missing curiosity": `{"recipeName":"x","ingredients":[],"preparation":[],"prepTime":"","servings":""}`,
		"missing steps":     `{"recipeName":"x","ingredients":[],"prepTime":"","servings":"","curiosity":""}`,
		"wrong type":        `{"recipeName":"x","ingredients":"sal","preparation":[],"prepTime":"","servings":"","curiosity":""}`,
		"null list":         `{"recipeName":"x","ingredients":null,"preparation":[],"prepTime":"","servings":"","curiosity":""}`,
		"numeric servings":  `{"recipeName":"x","ingredients":[],"preparation":[],"prepTime":"","servings":4,"curiosity":""}`,
		"empty name":        `{"recipeName":" ","ingredients":[],"preparation":[],"prepTime":"","servings":"","curiosity":""}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRecipe([]byte(raw))
			if !errors.Is(err, ErrInvalidRecipe) {
				t.Fatalf("expected ErrInvalidRecipe, got %v", err)
			}
		})
	}
}

func TestParseRecipeIgnoresModelImage(t *testing.T) {
	raw := strings.Replace(churrasco, `"recipeName"`, `"imageUrl":"http://example.com/x.png","recipeName"`, 1)
	r, err := ParseRecipe([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ImageURL != nil {
		t.Fatal("imageUrl from the model should be dropped")
	}
}

func TestImageDataURIRoundTrip(t *testing.T) {
	img := Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	uri := img.DataURI()
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected uri %q", uri)
	}
	parsed, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(*parsed, img) {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}

	for _, bad := range []string{"", "http://x", "data:image/png,abc", "data:;base64,abc", "data:image/png;base64,@@"} {
		if _, err := ParseDataURI(bad); !errors.Is(err, ErrNotDataURI) {
			t.Errorf("ParseDataURI(%q) = %v, want ErrNotDataURI", bad, err)
		}
	}
}

func TestEmptyImageJSONRoundTrip(t *testing.T) {
	in := Message{ID: 7, Text: "foto", Sender: SenderUser, Image: &Image{MIMEType: "image/png"}}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Message
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

func TestMessageJSONOmitsAbsentFields(t *testing.T) {
	b, err := json.Marshal(Message{ID: 1, Text: "oi", Sender: SenderUser})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(b); got != `{"id":1,"text":"oi","sender":"user"}` {
		t.Fatalf("got %s", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	r, err := ParseRecipe([]byte(churrasco))
	if err != nil {
		t.Fatal(err)
	}
	r.ImageURL = &Image{MIMEType: "image/jpeg", Data: []byte{1, 2}}
	msgs := []Message{{ID: 1, Sender: SenderBot, Recipe: r}}
	copied := CloneConversation(msgs)
	copied[0].Recipe.Ingredients[0] = "changed"
	copied[0].Recipe.ImageURL.Data[0] = 9
	if r.Ingredients[0] == "changed" || r.ImageURL.Data[0] == 9 {
		t.Fatal("clone shares memory with original")
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := map[string]Difficulty{
		"Fácil":    Easy,
		"facil":    Easy,
		" MEDIO ":  Medium,
		"médio":    Medium,
		"Difícil":  Hard,
		"dificil":  Hard,
	}
	for in, want := range tests {
		got, err := ParseDifficulty(in)
		if err != nil || got != want {
			t.Errorf("ParseDifficulty(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseDifficulty("impossível"); err == nil {
		t.Error("expected error for unknown tier")
	}
	if Medium.Label() != "Já me ajeito" || Hard.Label() != "Mestre-cuca" || Easy.Label() != "Novo(a) na lida" {
		t.Error("unexpected tier labels")
	}
}

func TestShareText(t *testing.T) {
	r := Recipe{
		RecipeName:  "Arroz Carreteiro",
		Ingredients: []string{"arroz", "charque"},
		Preparation: []string{"Frite o charque", "Junte o arroz"},
	}
	want := "Confere essa receita gaúcha tri-especial que a Dona Prenda me passou:\n\n" +
		"*Arroz Carreteiro*\n\n" +
		"*Ingredientes:*\n- arroz\n- charque\n\n" +
		"*Modo de Preparo:*\n1. Frite o charque\n2. Junte o arroz\n\n" +
		"Enviado pelo App Dona Prenda!"
	if got := ShareText(r); got != want {
		t.Fatalf("share text mismatch:\n%s\nwant:\n%s", got, want)
	}
}
