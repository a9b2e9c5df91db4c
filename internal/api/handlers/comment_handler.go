package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/blogpress/internal/auth"
	"github.com/isdelr/blogpress/internal/services"
	"github.com/isdelr/blogpress/internal/session"
	"github.com/isdelr/blogpress/internal/view"
)

// CommentHandler handles comment removal.
type CommentHandler struct {
	pages
	comments services.CommentServiceProvider
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(sessions *session.Manager, renderer view.Renderer, comments services.CommentServiceProvider) *CommentHandler {
	return &CommentHandler{pages: pages{sessions: sessions, view: renderer}, comments: comments}
}

// Delete removes one of the caller's comments and returns to the page the
// request came from.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireLogin(w, r)
	if !ok {
		return
	}
	back := sameOriginReferer(r)

	id, ok := idParam(r)
	if !ok {
		h.flashRedirect(w, r, session.FlashDanger, msgCommentNotFound, back)
		return
	}

	err := h.comments.DeleteComment(r.Context(), id, identity)
	switch {
	case errors.Is(err, services.ErrNotFound):
		h.flashRedirect(w, r, session.FlashDanger, msgCommentNotFound, back)
	case errors.Is(err, auth.ErrForbidden):
		h.flashRedirect(w, r, session.FlashDanger, msgCommentNotYours, back)
	case err != nil:
		fail(w, err, "Failed to delete comment")
	default:
		h.flashRedirect(w, r, session.FlashSuccess, msgCommentDeleted, back)
	}
}
