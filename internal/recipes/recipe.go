package recipes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// NotFoundName is the recipeName the model answers with when it cannot
// suggest anything for the given ingredients.
const NotFoundName = "Não encontrei uma receita"

type Recipe struct {
	RecipeName  string   `json:"recipeName" jsonschema:"description=O nome da receita."`
	Ingredients []string `json:"ingredients" jsonschema:"description=A lista completa de ingredientes."`
	Preparation []string `json:"preparation" jsonschema:"description=O modo de preparo passo a passo."`
	PrepTime    string   `json:"prepTime" jsonschema:"description=O tempo de preparo."`
	Servings    string   `json:"servings" jsonschema:"description=O rendimento da receita."`
	Curiosity   string   `json:"curiosity" jsonschema:"description=Uma curiosidade cultural sobre o prato."`
	ImageURL    *Image   `json:"imageUrl,omitempty" jsonschema:"-"` // filled locally, never by the model
}

// NotFound reports whether r is the "no recipe found" answer. Only Curiosity
// is meaningful on such a value.
func (r *Recipe) NotFound() bool {
	return r != nil && r.RecipeName == NotFoundName
}

// Clone returns a deep copy so messages and favorites never share slices.
func (r Recipe) Clone() Recipe {
	out := r
	out.Ingredients = append([]string(nil), r.Ingredients...)
	out.Preparation = append([]string(nil), r.Preparation...)
	if r.ImageURL != nil {
		img := r.ImageURL.Clone()
		out.ImageURL = &img
	}
	return out
}

var requiredStrings = []string{"recipeName", "prepTime", "servings", "curiosity"}
var requiredLists = []string{"ingredients", "preparation"}

// ErrInvalidRecipe is returned by ParseRecipe for anything that is not a
// complete recipe object.
var ErrInvalidRecipe = errors.New("invalid recipe")

// ParseRecipe decodes a model response and checks every required field is
// present with the right JSON type. A partially valid recipe is an error.
func ParseRecipe(data []byte) (*Recipe, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: response is not an object", ErrInvalidRecipe)
	}

	for _, name := range requiredStrings {
		raw, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrInvalidRecipe, name)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
			return nil, fmt.Errorf("%w: field %q must be a string", ErrInvalidRecipe, name)
		}
	}
	for _, name := range requiredLists {
		raw, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrInvalidRecipe, name)
		}
		var items []string
		if err := json.Unmarshal(raw, &items); err != nil || isNull(raw) {
			return nil, fmt.Errorf("%w: field %q must be a list of strings", ErrInvalidRecipe, name)
		}
	}

	// the model has no business sending an image back
	delete(fields, "imageUrl")
	clean, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
	}
	var r Recipe
	if err := json.Unmarshal(clean, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
	}
	if strings.TrimSpace(r.RecipeName) == "" {
		return nil, fmt.Errorf("%w: empty recipeName", ErrInvalidRecipe)
	}
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Preparation == nil {
		r.Preparation = []string{}
	}
	return &r, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
