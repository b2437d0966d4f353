package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

// Renderer holds the per-page template sets. Each page is parsed together
// with the layout to avoid {{define "content"}} collisions across pages.
type Renderer struct {
	templates map[string]*template.Template
	baseURL   string
	logger    *slog.Logger
}

var pages = []string{
	"index.html",
	"thanks.html",
	"login.html",
	"verify.html",
	"dashboard.html",
	"search.html",
	"saved_searches.html",
}

func NewRenderer(dir, baseURL string, logger *slog.Logger) (*Renderer, error) {
	layout := dir + "/layout.html"
	templates := make(map[string]*template.Template)
	for _, page := range pages {
		tmpl, err := template.ParseFiles(layout, dir+"/"+page)
		if err != nil {
			return nil, err
		}
		templates[page] = tmpl
	}
	return &Renderer{templates: templates, baseURL: baseURL, logger: logger}, nil
}

// Render executes the named page inside the layout.
func (rn *Renderer) Render(w http.ResponseWriter, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["BaseURL"] = rn.baseURL
	data["Year"] = time.Now().Year()

	tmpl, ok := rn.templates[name]
	if !ok {
		rn.logger.Error("template not found", "name", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		rn.logger.Error("template render", "error", err, "name", name)
	}
}
