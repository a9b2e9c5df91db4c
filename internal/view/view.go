// Package view renders HTML pages.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/isdelr/blogpress/internal/models"
	"github.com/isdelr/blogpress/internal/session"
)

// Page names.
const (
	PageIndex      = "index"
	PageAbout      = "about"
	PageArticles   = "articles"
	PageDashboard  = "dashboard"
	PageRegister   = "register"
	PageLogin      = "login"
	PageProfile    = "profile"
	PageAddArticle = "addarticle"
	PageEdit       = "edit"
	PageArticle    = "article"
)

// Page is everything a template can see. Handlers fill in only what the page needs.
type Page struct {
	Identity string
	Flashes  []session.Flash

	// Form holds the submitted values when a form is re-rendered.
	Form   interface{}
	Errors map[string]string

	User     *models.User
	Article  *models.Article
	Articles []models.Article
	Comments []models.Comment
}

// Renderer writes a named page with the given status.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, page Page) error
}

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return models.FormatTimestamp(t) },
}

// Templates renders the embedded page templates inside a shared layout.
type Templates struct {
	pages map[string]*template.Template
}

// NewTemplates parses the embedded templates.
func NewTemplates() (*Templates, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	t := &Templates{pages: make(map[string]*template.Template)}
	for _, file := range names {
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		if name == "layout" {
			continue
		}
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (t *Templates) Render(w http.ResponseWriter, status int, name string, page Page) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", page); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
