package handlers

import (
	"net/http"

	"github.com/isdelr/blogpress/internal/session"
	"github.com/isdelr/blogpress/internal/view"
)

// PageHandler serves the static pages.
type PageHandler struct {
	pages
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(sessions *session.Manager, renderer view.Renderer) *PageHandler {
	return &PageHandler{pages{sessions: sessions, view: renderer}}
}

// Home renders the landing page.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageIndex, view.Page{})
}

// About renders the about page.
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageAbout, view.Page{})
}
