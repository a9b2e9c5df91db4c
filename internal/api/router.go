package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/blogpress/internal/api/handlers"
	"github.com/isdelr/blogpress/internal/services"
	"github.com/isdelr/blogpress/internal/session"
	"github.com/isdelr/blogpress/internal/view"
	"github.com/isdelr/blogpress/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	sessions *session.Manager,
	renderer view.Renderer,
	hub *websocket.Hub,
	db handlers.Pinger,
	userService services.UserServiceProvider,
	articleService services.ArticleServiceProvider,
	commentService services.CommentServiceProvider,
	eventService services.EventServiceProvider,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	// Initialize handlers
	pageHandler := handlers.NewPageHandler(sessions, renderer)
	authHandler := handlers.NewAuthHandler(sessions, renderer, userService)
	articleHandler := handlers.NewArticleHandler(sessions, renderer, articleService, commentService, userService)
	commentHandler := handlers.NewCommentHandler(sessions, renderer, commentService)
	eventHandler := handlers.NewEventHandler(eventService)
	wsHandler := handlers.NewWebSocketHandler(hub, allowedOrigins)
	healthHandler := handlers.NewHealthHandler(db)

	r.Get("/healthz", healthHandler.Check)

	// JSON API for external dashboards.
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/activity", eventHandler.GetRecent)
	})

	// Live activity feed.
	r.Get("/ws", wsHandler.Serve)
	r.Get("/ws/articles/{id}", wsHandler.ServeArticle)

	// HTML pages, all session-aware.
	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Get("/", pageHandler.Home)
		r.Get("/about", pageHandler.About)

		r.Get("/register", authHandler.RegisterForm)
		r.Post("/register", authHandler.Register)
		r.Get("/login", authHandler.LoginForm)
		r.Post("/login", authHandler.Login)
		r.Get("/logout", authHandler.Logout)

		r.Get("/articles", articleHandler.List)
		r.Get("/dashboard", articleHandler.Dashboard)
		r.Get("/profil/{username}", articleHandler.Profile)
		r.Get("/addarticle", articleHandler.AddForm)
		r.Post("/addarticle", articleHandler.Add)
		r.Post("/delete/{id}", articleHandler.Delete)
		r.Get("/edit/{id}", articleHandler.EditForm)
		r.Post("/edit/{id}", articleHandler.Edit)
		r.Get("/article/{id}", articleHandler.View)
		r.Post("/article/{id}", articleHandler.Comment)

		r.Post("/delete_comment/{id}", commentHandler.Delete)
	})

	return r
}
