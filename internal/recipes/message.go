package recipes

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one chat bubble. Recipe is only set on bot messages that carried
// a suggestion and Image only on user messages with a photo.
type Message struct {
	ID     int64   `json:"id"`
	Text   string  `json:"text"`
	Sender Sender  `json:"sender"`
	Recipe *Recipe `json:"recipe,omitempty"`
	Image  *Image  `json:"image,omitempty"`
}

// Time is the creation time encoded in the id.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.ID)
}

func (m Message) Clone() Message {
	out := m
	if m.Recipe != nil {
		r := m.Recipe.Clone()
		out.Recipe = &r
	}
	if m.Image != nil {
		img := m.Image.Clone()
		out.Image = &img
	}
	return out
}

// CloneConversation deep copies a message sequence.
func CloneConversation(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

type Difficulty string

const (
	Easy   Difficulty = "Fácil"
	Medium Difficulty = "Médio"
	Hard   Difficulty = "Difícil"
)

var Difficulties = []Difficulty{Easy, Medium, Hard}

// Label is the friendly name shown next to each tier.
func (d Difficulty) Label() string {
	switch d {
	case Medium:
		return "Já me ajeito"
	case Hard:
		return "Mestre-cuca"
	default:
		return "Novo(a) na lida"
	}
}

func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// ParseDifficulty matches a tier ignoring case and accents, so "medio" and
// "MÉDIO" are both Médio.
func ParseDifficulty(s string) (Difficulty, error) {
	want := fold(s)
	for _, d := range Difficulties {
		if fold(string(d)) == want {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
