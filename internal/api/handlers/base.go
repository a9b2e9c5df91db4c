package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/blogpress/internal/auth"
	"github.com/isdelr/blogpress/internal/session"
	"github.com/isdelr/blogpress/internal/view"
	"github.com/rs/zerolog/log"
)

// Notices shown to the user through flash messages.
const (
	msgLoginRequired      = "Please log in to view this page."
	msgRegistered         = "You have registered successfully."
	msgUsernameTaken      = "This username is already taken."
	msgLoggedIn           = "You have logged in successfully."
	msgNoSuchUser         = "No such user."
	msgWrongPassword      = "Wrong password."
	msgUserNotFound       = "User not found."
	msgArticleAdded       = "Article added successfully."
	msgArticleDeleted     = "Article deleted."
	msgArticleUpdated     = "Article updated successfully."
	msgArticleNotYours    = "Article not found or you are not authorized to do this."
	msgArticleNotFound    = "Article not found."
	msgCommentEmpty       = "Comment content cannot be empty!"
	msgCommentAdded       = "Comment added successfully."
	msgCommentLoginNeeded = "You must be logged in to comment."
	msgCommentNotFound    = "Comment not found."
	msgCommentNotYours    = "You are not authorized to delete this comment."
	msgCommentDeleted     = "Comment deleted successfully."
)

// pages carries what every HTML handler needs: the session manager and a renderer.
type pages struct {
	sessions *session.Manager
	view     view.Renderer
}

// render fills in the session part of page and writes it.
func (p pages) render(w http.ResponseWriter, r *http.Request, status int, name string, page view.Page) {
	page.Identity = session.FromContext(r.Context()).Identity()
	page.Flashes = p.sessions.PopFlashes(w, r)
	if err := p.view.Render(w, status, name, page); err != nil {
		log.Error().Err(err).Str("page", name).Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (p pages) flash(w http.ResponseWriter, r *http.Request, category, message string) {
	p.sessions.AddFlash(w, r, category, message)
}

// flashRedirect queues a notice and sends the browser elsewhere.
func (p pages) flashRedirect(w http.ResponseWriter, r *http.Request, category, message, to string) {
	p.flash(w, r, category, message)
	http.Redirect(w, r, to, http.StatusFound)
}

// requireLogin resolves the caller's identity. Anonymous callers are sent to
// the login page and ok is false.
func (p pages) requireLogin(w http.ResponseWriter, r *http.Request) (identity string, ok bool) {
	identity, err := auth.RequireAuthenticated(session.FromContext(r.Context()))
	if errors.Is(err, auth.ErrUnauthenticated) {
		p.flashRedirect(w, r, session.FlashDanger, msgLoginRequired, "/login")
		return "", false
	}
	return identity, true
}

// fail logs an unexpected error and answers with a 500.
func fail(w http.ResponseWriter, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// sameOriginReferer returns the path of the Referer header when it points
// back at this site, else "/".
func sameOriginReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || ref.Path[0] != '/' {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	if ref.Scheme != "" && ref.Scheme != "http" && ref.Scheme != "https" {
		return "/"
	}
	to := ref.EscapedPath()
	// "//host" would be read as a protocol-relative URL.
	if len(to) > 1 && (to[1] == '/' || to[1] == '\\') {
		return "/"
	}
	if ref.RawQuery != "" {
		to += "?" + ref.RawQuery
	}
	return to
}
