package terminal

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"donaprenda/internal/recipes"
)

type Kind int

const (
	Send Kind = iota
	Suggest
	Photo
	SetDifficulty
	Favorite
	Favorites
	History
	ClearHistory
	NewChat
	Share
	Help
	Quit
)

// Command is one parsed input line.
type Command struct {
	Kind Kind
	// Text is the message for Send and the optional caption for Photo.
	Text       string
	Path       string
	Difficulty recipes.Difficulty
}

var ErrUnknownCommand = errors.New("comando desconhecido, digita /ajuda")

var commands = map[string]Kind{
	"/sugerir":      Suggest,
	"/foto":         Photo,
	"/dificuldade":  SetDifficulty,
	"/favoritar":    Favorite,
	"/favoritos":    Favorites,
	"/historico":    History,
	"/histórico":    History,
	"/limpar":       ClearHistory,
	"/novo":         NewChat,
	"/compartilhar": Share,
	"/ajuda":        Help,
	"/sair":         Quit,
}

const HelpText = `Comandos:
  <ingredientes>             pede uma receita com o que tu tens
  /sugerir                   sugere uma receita da dificuldade escolhida
  /foto <arquivo> [texto]    manda uma foto dos ingredientes
  /dificuldade <nível>       Fácil, Médio ou Difícil
  /favoritar                 salva ou remove a última receita dos favoritos
  /favoritos                 lista as receitas favoritas
  /historico                 lista as conversas anteriores
  /limpar                    apaga o histórico
  /novo                      começa um novo papo
  /compartilhar              copia a última receita
  /ajuda                     mostra esta ajuda
  /sair                      sai`

// ParseCommand reads one line of input. Anything not starting with "/" is
// sent as ingredients.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: Send, Text: line}, nil
	}
	name, rest, _ := strings.Cut(line, " ")
	kind, ok := commands[strings.ToLower(name)]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	rest = strings.TrimSpace(rest)
	cmd := Command{Kind: kind}
	switch kind {
	case Photo:
		path, caption, _ := strings.Cut(rest, " ")
		if path == "" {
			return Command{}, errors.New("uso: /foto <arquivo> [texto]")
		}
		cmd.Path, cmd.Text = path, strings.TrimSpace(caption)
	case SetDifficulty:
		d, err := recipes.ParseDifficulty(rest)
		if err != nil {
			return Command{}, fmt.Errorf("dificuldade inválida %q, usa Fácil, Médio ou Difícil", rest)
		}
		cmd.Difficulty = d
	}
	return cmd, nil
}

const maxPhotoBytes = 10 << 20

// loadPhoto reads an image file from disk, sniffing its type.
func loadPhoto(path string) (*recipes.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("não achei a foto: %w", err)
	}
	if info.Size() > maxPhotoBytes {
		return nil, fmt.Errorf("a foto %s passa de %d MiB", path, maxPhotoBytes>>20)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("não consegui ler a foto: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%s não é uma imagem", path)
	}
	return &recipes.Image{MIMEType: mime, Data: data}, nil
}
