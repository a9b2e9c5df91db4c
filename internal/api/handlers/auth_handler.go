package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/blogpress/internal/forms"
	"github.com/isdelr/blogpress/internal/services"
	"github.com/isdelr/blogpress/internal/session"
	"github.com/isdelr/blogpress/internal/view"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	pages
	users services.UserServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessions *session.Manager, renderer view.Renderer, users services.UserServiceProvider) *AuthHandler {
	return &AuthHandler{pages: pages{sessions: sessions, view: renderer}, users: users}
}

// RegisterForm renders the empty sign-up form.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageRegister, view.Page{})
}

// Register creates an account and sends the new user to the login page.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	form, err := forms.DecodeRegister(r)
	if err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	// Never echo passwords back into the page.
	echo := form
	echo.Password, echo.Confirm = "", ""

	var verr *services.ValidationError
	if err := forms.Validate(form); errors.As(err, &verr) {
		h.render(w, r, http.StatusUnprocessableEntity, view.PageRegister, view.Page{Form: echo, Errors: verr.Fields})
		return
	} else if err != nil {
		fail(w, err, "Failed to validate registration form")
		return
	}

	_, err = h.users.CreateUser(r.Context(), form.Name, form.Email, form.Username, form.Password)
	switch {
	case errors.Is(err, services.ErrDuplicateUsername):
		h.flash(w, r, session.FlashDanger, msgUsernameTaken)
		h.render(w, r, http.StatusConflict, view.PageRegister, view.Page{
			Form:   echo,
			Errors: map[string]string{"username": msgUsernameTaken},
		})
		return
	case errors.As(err, &verr):
		h.render(w, r, http.StatusUnprocessableEntity, view.PageRegister, view.Page{Form: echo, Errors: verr.Fields})
		return
	case err != nil:
		fail(w, err, "Failed to register user")
		return
	}

	log.Info().Str("username", form.Username).Msg("User registered")
	h.flashRedirect(w, r, session.FlashSuccess, msgRegistered, "/login")
}

// LoginForm renders the empty sign-in form.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageLogin, view.Page{})
}

// Login checks the credentials and starts an authenticated session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := forms.DecodeLogin(r)
	if err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	echo := forms.LoginForm{Username: form.Username}

	user, err := h.users.AuthenticateUser(r.Context(), form.Username, form.Password)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		h.flash(w, r, session.FlashDanger, msgNoSuchUser)
		h.render(w, r, http.StatusUnauthorized, view.PageLogin, view.Page{Form: echo})
		return
	case errors.Is(err, services.ErrWrongPassword):
		log.Warn().Str("username", form.Username).Msg("Failed authentication attempt")
		h.flash(w, r, session.FlashDanger, msgWrongPassword)
		h.render(w, r, http.StatusUnauthorized, view.PageLogin, view.Page{Form: echo})
		return
	case err != nil:
		fail(w, err, "Failed to authenticate user")
		return
	}

	if err := h.sessions.Login(w, r, user.Username); err != nil {
		fail(w, err, "Failed to start session")
		return
	}
	h.flashRedirect(w, r, session.FlashSuccess, msgLoggedIn, "/")
}

// Logout ends the session, whatever state it was in.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		log.Warn().Err(err).Msg("Failed to delete session on logout")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
