package terminal

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"donaprenda/internal/chat"
	"donaprenda/internal/recipes"

	"github.com/charmbracelet/lipgloss"
)

var (
	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D4A574"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F5F1EB")).
			Bold(true)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C7522A")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8A7968"))

	curiosityStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))
)

const historyTimeLayout = "02/01/2006, 15:04:05"

func renderMessage(m recipes.Message) string {
	if m.Sender == recipes.SenderUser {
		text := m.Text
		if m.Image != nil {
			text = strings.TrimSpace("[foto] " + text)
		}
		return userStyle.Render("Tu> " + text)
	}
	out := botStyle.Render("Dona Prenda: " + m.Text)
	if m.Recipe != nil {
		out += "\n" + renderRecipe(*m.Recipe)
	}
	return out
}

func renderRecipe(r recipes.Recipe) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  " + r.RecipeName))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  Tempo de Preparo: %s   Rendimento: %s\n", r.PrepTime, r.Servings)
	b.WriteString(headingStyle.Render("  Ingredientes"))
	b.WriteByte('\n')
	for _, i := range r.Ingredients {
		fmt.Fprintf(&b, "   - %s\n", i)
	}
	b.WriteString(headingStyle.Render("  Modo de Preparo"))
	b.WriteByte('\n')
	for n, step := range r.Preparation {
		fmt.Fprintf(&b, "   %d. %s\n", n+1, step)
	}
	b.WriteString(curiosityStyle.Render(fmt.Sprintf("  Curiosidade da Prenda: %q", r.Curiosity)))
	if r.ImageURL != nil {
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  (foto gerada disponível no modo web)"))
	}
	return b.String()
}

func renderFavorites(favs []recipes.Recipe) string {
	if len(favs) == 0 {
		return hintStyle.Render("Tu ainda não salvaste nenhuma receita, vivente!\nQuando gostares de uma sugestão, usa /favoritar para guardar ela aqui.")
	}
	parts := make([]string, 0, len(favs))
	for _, r := range favs {
		parts = append(parts, renderRecipe(r))
	}
	return headingStyle.Render("Receitas Favoritas") + "\n" + strings.Join(parts, "\n\n")
}

// renderHistory lists conversations newest first.
func renderHistory(history [][]recipes.Message, loc *time.Location) string {
	if len(history) == 0 {
		return hintStyle.Render("Nenhuma conversa por aqui ainda, tchê.\nVai lá e pede uma receita pra Dona Prenda!")
	}
	convs := slices.Clone(history)
	slices.Reverse(convs)

	var b strings.Builder
	b.WriteString(headingStyle.Render("Histórico de Conversas"))
	for _, conv := range convs {
		if len(conv) == 0 {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(titleStyle.Render("Conversa de " + conv[0].Time().In(loc).Format(historyTimeLayout)))
		for _, m := range conv {
			b.WriteByte('\n')
			b.WriteString(historyLine(m))
		}
	}
	return b.String()
}

func historyLine(m recipes.Message) string {
	speaker := "Dona Prenda"
	if m.Sender == recipes.SenderUser {
		speaker = "Tu"
		if m.Image != nil {
			speaker += " (com imagem)"
		}
	}
	if m.Recipe != nil {
		speaker += ": " + m.Recipe.RecipeName
	}
	return "  " + speaker + ": " + m.Text
}

func renderDifficulty(d recipes.Difficulty) string {
	return hintStyle.Render(fmt.Sprintf("Dificuldade: %s (%s)", d, d.Label()))
}

// lastRecipe is the newest recipe in the live chat.
func lastRecipe(s chat.State) (recipes.Recipe, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if r := s.Messages[i].Recipe; r != nil {
			return *r, true
		}
	}
	return recipes.Recipe{}, false
}
