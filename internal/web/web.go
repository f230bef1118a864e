// Package web serves the three server-rendered pages: the landing page
// with the login and register forms, the project feed, and the user's bio.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tombers/tombers/internal/middleware"
	"github.com/tombers/tombers/internal/models"
	"github.com/tombers/tombers/internal/service"
)

//go:embed templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{"index.html", "feed.html", "bio.html"}

// Pages renders the HTML pages. Templates are parsed once by New.
type Pages struct {
	projects *service.ProjectService
	profiles *service.ProfileService
	log      *zap.Logger
	tmpl     map[string]*template.Template
}

func New(projects *service.ProjectService, profiles *service.ProfileService, log *zap.Logger) (*Pages, error) {
	funcs := template.FuncMap{
		"join": func(items models.StringList, sep string) string {
			return strings.Join(items, sep)
		},
		"deref": func(n *int) int {
			if n == nil {
				return 0
			}
			return *n
		},
	}
	p := &Pages{projects: projects, profiles: profiles, log: log, tmpl: map[string]*template.Template{}}
	for _, name := range pageNames {
		t, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, errors.Wrapf(err, "parse template %s", name)
		}
		p.tmpl[name] = t
	}
	return p, nil
}

// Static serves the embedded stylesheet and scripts under /static/.
func Static() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// pageData is passed to every template.
type pageData struct {
	Title    string
	Username string
	Projects []models.Project
	User     *models.User
}

func (p *Pages) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := p.tmpl[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		p.log.Error("render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// Index is the landing page. Visitors with a session go straight to the feed.
func (p *Pages) Index(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSession(r.Context()); ok {
		http.Redirect(w, r, "/feed", http.StatusFound)
		return
	}
	p.render(w, "index.html", pageData{Title: "Tombers"})
}

// Feed lists every project. Requires PageSession.
func (p *Pages) Feed(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	projects, err := p.projects.List(r.Context())
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	p.render(w, "feed.html", pageData{Title: "Projects", Username: sess.Username, Projects: projects})
}

// Bio shows the logged-in user's profile. Requires PageSession.
func (p *Pages) Bio(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	u, err := p.profiles.Get(r.Context(), sess.UserID)
	if service.KindOf(err) == service.KindAuth {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	p.render(w, "bio.html", pageData{Title: "Bio", Username: sess.Username, User: &u})
}
