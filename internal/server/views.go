package server

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/alfredjeanlab/devjournal/internal/model"
)

//go:embed views/*.html
var viewsFS embed.FS

type viewData struct {
	Users     []*model.User
	CSRFToken string
}

func parseViews() *template.Template {
	return template.Must(template.ParseFS(viewsFS, "views/*.html"))
}

// render executes the named view into a buffer first so a failing template
// never leaves a half-written page.
func (s *JournalServer) render(w http.ResponseWriter, name string, data viewData) {
	var buf bytes.Buffer
	if err := s.views.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("failed to render view", "view", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
