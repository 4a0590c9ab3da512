package recipes

import (
	"fmt"
	"strings"
)

// ShareText formats a recipe as the plain text block people paste into
// messaging apps.
func ShareText(r Recipe) string {
	var b strings.Builder
	b.WriteString("Confere essa receita gaúcha tri-especial que a Dona Prenda me passou:\n\n")
	fmt.Fprintf(&b, "*%s*\n\n", r.RecipeName)
	b.WriteString("*Ingredientes:*\n")
	for _, i := range r.Ingredients {
		fmt.Fprintf(&b, "- %s\n", i)
	}
	b.WriteString("\n*Modo de Preparo:*\n")
	for n, step := range r.Preparation {
		fmt.Fprintf(&b, "%d. %s\n", n+1, step)
	}
	b.WriteString("\nEnviado pelo App Dona Prenda!")
	return b.String()
}
