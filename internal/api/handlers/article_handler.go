package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/blogpress/internal/auth"
	"github.com/isdelr/blogpress/internal/forms"
	"github.com/isdelr/blogpress/internal/models"
	"github.com/isdelr/blogpress/internal/services"
	"github.com/isdelr/blogpress/internal/session"
	"github.com/isdelr/blogpress/internal/view"
	"github.com/rs/zerolog/log"
)

// ArticleHandler handles articles, the dashboard, profiles and posting comments.
type ArticleHandler struct {
	pages
	articles services.ArticleServiceProvider
	comments services.CommentServiceProvider
	users    services.UserServiceProvider
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(sessions *session.Manager, renderer view.Renderer, articles services.ArticleServiceProvider,
	comments services.CommentServiceProvider, users services.UserServiceProvider) *ArticleHandler {
	return &ArticleHandler{
		pages:    pages{sessions: sessions, view: renderer},
		articles: articles,
		comments: comments,
		users:    users,
	}
}

// List renders every article.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.ListArticles(r.Context())
	if err != nil {
		fail(w, err, "Failed to list articles")
		return
	}
	h.render(w, r, http.StatusOK, view.PageArticles, view.Page{Articles: articles})
}

// Dashboard renders the caller's own articles.
func (h *ArticleHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}
	articles, err := h.articles.ListArticlesByAuthor(r.Context(), identity)
	if err != nil {
		fail(w, err, "Failed to list dashboard articles")
		return
	}
	h.render(w, r, http.StatusOK, view.PageDashboard, view.Page{Articles: articles})
}

// Profile renders a user's public details and articles.
func (h *ArticleHandler) Profile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.users.GetUserByUsername(r.Context(), username)
	if errors.Is(err, services.ErrUserNotFound) {
		h.flashRedirect(w, r, session.FlashDanger, msgUserNotFound, "/")
		return
	} else if err != nil {
		fail(w, err, "Failed to load profile")
		return
	}

	articles, err := h.articles.ListArticlesByAuthor(r.Context(), user.Username)
	if err != nil {
		fail(w, err, "Failed to list profile articles")
		return
	}
	h.render(w, r, http.StatusOK, view.PageProfile, view.Page{User: &user, Articles: articles})
}

// AddForm renders the empty article form.
func (h *ArticleHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireLogin(w, r); !ok {
		return
	}
	h.render(w, r, http.StatusOK, view.PageAddArticle, view.Page{})
}

// Add publishes a new article under the caller's name.
func (h *ArticleHandler) Add(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}
	form, ok := h.decodeArticle(w, r, view.PageAddArticle, view.Page{})
	if !ok {
		return
	}

	article, err := h.articles.CreateArticle(r.Context(), identity, form.Title, form.Content)
	if err != nil {
		fail(w, err, "Failed to create article")
		return
	}
	log.Info().Int64("article_id", article.ID).Str("username", identity).Msg("Article created")
	h.flashRedirect(w, r, session.FlashSuccess, msgArticleAdded, "/dashboard")
}

// Delete removes one of the caller's articles. A missing article and someone
// else's article get the same answer.
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}
	id, ok := idParam(r)
	if !ok {
		h.flashRedirect(w, r, session.FlashDanger, msgArticleNotYours, "/dashboard")
		return
	}

	err := h.articles.DeleteArticle(r.Context(), id, identity)
	switch {
	case errors.Is(err, services.ErrNotFound):
		h.flashRedirect(w, r, session.FlashDanger, msgArticleNotYours, "/dashboard")
	case err != nil:
		fail(w, err, "Failed to delete article")
	default:
		h.flashRedirect(w, r, session.FlashSuccess, msgArticleDeleted, "/dashboard")
	}
}

// EditForm renders the edit form prefilled with the caller's article.
func (h *ArticleHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}
	id, ok := idParam(r)
	if !ok {
		h.flashRedirect(w, r, session.FlashDanger, msgArticleNotYours, "/")
		return
	}

	article, err := h.articles.GetArticleByAuthor(r.Context(), id, identity)
	if errors.Is(err, services.ErrNotFound) {
		h.flashRedirect(w, r, session.FlashDanger, msgArticleNotYours, "/")
		return
	} else if err != nil {
		fail(w, err, "Failed to load article for editing")
		return
	}

	form := forms.ArticleForm{Title: article.Title, Content: article.Content}
	h.render(w, r, http.StatusOK, view.PageEdit, view.Page{Article: &article, Form: form})
}

// Edit saves new title and content. The write only touches the article if
// the caller wrote it.
func (h *ArticleHandler) Edit(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}
	id, ok := idParam(r)
	if !ok {
		h.flashRedirect(w, r, session.FlashDanger, msgArticleNotYours, "/")
		return
	}

	stub := view.Page{Article: &models.Article{ID: id}}
	form, ok := h.decodeArticle(w, r, view.PageEdit, stub)
	if !ok {
		return
	}

	err := h.articles.UpdateArticle(r.Context(), id, identity, form.Title, form.Content)
	switch {
	case errors.Is(err, services.ErrNotFound):
		h.flashRedirect(w, r, session.FlashDanger, msgArticleNotYours, "/")
	case err != nil:
		fail(w, err, "Failed to update article")
	default:
		h.flashRedirect(w, r, session.FlashSuccess, msgArticleUpdated, "/dashboard")
	}
}

// View renders an article with its comments, newest first.
func (h *ArticleHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.flashRedirect(w, r, session.FlashDanger, msgArticleNotFound, "/articles")
		return
	}

	article, err := h.articles.GetArticle(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		h.flashRedirect(w, r, session.FlashDanger, msgArticleNotFound, "/articles")
		return
	} else if err != nil {
		fail(w, err, "Failed to load article")
		return
	}

	comments, err := h.comments.ListCommentsByArticle(r.Context(), id)
	if err != nil {
		fail(w, err, "Failed to list comments")
		return
	}
	h.render(w, r, http.StatusOK, view.PageArticle, view.Page{Article: &article, Comments: comments})
}

// Comment posts a comment on an article.
func (h *ArticleHandler) Comment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.flashRedirect(w, r, session.FlashDanger, msgArticleNotFound, "/articles")
		return
	}
	identity, err := auth.RequireAuthenticated(session.FromContext(r.Context()))
	if err != nil {
		h.flashRedirect(w, r, session.FlashDanger, msgCommentLoginNeeded, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	back := "/article/" + strconv.FormatInt(id, 10)
	content := r.PostFormValue("comment")
	if !r.PostForm.Has("comment") {
		content = r.PostFormValue("content")
	}
	_, err = h.comments.CreateComment(r.Context(), id, identity, content)
	switch {
	case errors.Is(err, services.ErrCommentContentEmpty):
		h.flashRedirect(w, r, session.FlashWarning, msgCommentEmpty, back)
	case errors.Is(err, services.ErrNotFound):
		h.flashRedirect(w, r, session.FlashDanger, msgArticleNotFound, "/articles")
	case err != nil:
		fail(w, err, "Failed to create comment")
	default:
		h.flashRedirect(w, r, session.FlashSuccess, msgCommentAdded, back)
	}
}

// decodeArticle reads and validates an article form. On failure it has
// already answered the request and ok is false.
func (h *ArticleHandler) decodeArticle(w http.ResponseWriter, r *http.Request, name string, page view.Page) (forms.ArticleForm, bool) {
	form, err := forms.DecodeArticle(r)
	if err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return form, false
	}

	var verr *services.ValidationError
	if err := forms.Validate(form); errors.As(err, &verr) {
		page.Form, page.Errors = form, verr.Fields
		h.render(w, r, http.StatusUnprocessableEntity, name, page)
		return form, false
	} else if err != nil {
		fail(w, err, "Failed to validate article form")
		return form, false
	}
	return form, true
}
