package web

import (
	"slices"
	"time"

	"donaprenda/internal/chat"
	"donaprenda/internal/recipes"

	"github.com/samber/lo"
)

// historyTimeLayout matches the pt-BR toLocaleString form: 14/10/2026, 13:45:12.
const historyTimeLayout = "02/01/2006, 15:04:05"

type recipeView struct {
	Recipe   recipes.Recipe
	Favorite bool
	// Return is where the favorite toggle sends the browser back to.
	Return string
}

type messageView struct {
	recipes.Message
	Card *recipeView
}

type difficultyView struct {
	Value    recipes.Difficulty
	Label    string
	Selected bool
}

type chatPage struct {
	Messages     []messageView
	Loading      bool
	Thinking     string
	Difficulties []difficultyView
}

type favoritesPage struct {
	Cards []recipeView
}

type historyLine struct {
	User    bool
	Speaker string
	Text    string
}

type conversationView struct {
	Title string
	Lines []historyLine
}

type historyPage struct {
	Conversations []conversationView
}

func favoriteNames(s chat.State) map[string]bool {
	return lo.SliceToMap(s.Favorites, func(r recipes.Recipe) (string, bool) { return r.RecipeName, true })
}

func newChatPage(s chat.State) chatPage {
	favorites := favoriteNames(s)
	page := chatPage{
		Loading:  s.Loading,
		Thinking: chat.Thinking,
		Messages: lo.Map(s.Messages, func(m recipes.Message, _ int) messageView {
			v := messageView{Message: m}
			if m.Recipe != nil {
				v.Card = &recipeView{Recipe: *m.Recipe, Favorite: favorites[m.Recipe.RecipeName], Return: "/"}
			}
			return v
		}),
		Difficulties: lo.Map(recipes.Difficulties, func(d recipes.Difficulty, _ int) difficultyView {
			return difficultyView{Value: d, Label: d.Label(), Selected: d == s.Difficulty}
		}),
	}
	return page
}

func newFavoritesPage(s chat.State) favoritesPage {
	return favoritesPage{Cards: lo.Map(s.Favorites, func(r recipes.Recipe, _ int) recipeView {
		return recipeView{Recipe: r, Favorite: true, Return: "/favorites"}
	})}
}

// newHistoryPage lists conversations newest first.
func newHistoryPage(s chat.State, loc *time.Location) historyPage {
	convs := slices.Clone(s.History)
	slices.Reverse(convs)
	return historyPage{Conversations: lo.FilterMap(convs, func(conv []recipes.Message, _ int) (conversationView, bool) {
		if len(conv) == 0 {
			return conversationView{}, false
		}
		return conversationView{
			Title: "Conversa de " + conv[0].Time().In(loc).Format(historyTimeLayout),
			Lines: lo.Map(conv, func(m recipes.Message, _ int) historyLine { return newHistoryLine(m) }),
		}, true
	})}
}

func newHistoryLine(m recipes.Message) historyLine {
	line := historyLine{User: m.Sender == recipes.SenderUser, Text: m.Text}
	if line.User {
		line.Speaker = "Tu"
		if m.Image != nil {
			line.Speaker += " (com imagem)"
		}
	} else {
		line.Speaker = "Dona Prenda"
	}
	if m.Recipe != nil {
		line.Speaker += ": " + m.Recipe.RecipeName
	}
	return line
}
