package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var htmlFiles embed.FS

var Chat,
	Favorites,
	History *template.Template

// HTMXScript is loaded from the CDN; the pages add hx-* attributes only.
const HTMXScript = "https://unpkg.com/htmx.org@2.0.8/dist/htmx.min.js"

func Init(styleAssetPath, scriptAssetPath string) error {
	funcs := template.FuncMap{
		"StyleAssetPath":  func() string { return styleAssetPath },
		"ScriptAssetPath": func() string { return scriptAssetPath },
		"HTMXScript":      func() string { return HTMXScript },
		"inc":             func(i int) int { return i + 1 },
	}
	tmpls, err := template.New("all").Funcs(funcs).ParseFS(htmlFiles, "*.html")
	if err != nil {
		return err
	}
	Chat = ensure(tmpls, "chat.html")
	Favorites = ensure(tmpls, "favorites.html")
	History = ensure(tmpls, "history.html")
	return nil
}

func ensure(templates *template.Template, name string) *template.Template {
	tmpl := templates.Lookup(name)
	if tmpl == nil {
		panic("template " + name + " not found")
	}
	return tmpl
}
