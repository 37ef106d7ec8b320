package api

import (
	"database/sql"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/smarttodo-be/internal/api/handlers"
	"github.com/isdelr/smarttodo-be/internal/auth"
	"github.com/isdelr/smarttodo-be/internal/services"
	"github.com/isdelr/smarttodo-be/internal/websocket"
)

// Services bundles what the router hands to its handlers.
type Services struct {
	Auth       services.AuthServiceProvider
	Tasks      services.TaskServiceProvider
	Categories services.CategoryServiceProvider
	Events     services.EventServiceProvider
}

// NewRouter creates and configures a new Chi router.
func NewRouter(db *sql.DB, hub *websocket.Hub, tokens *auth.TokenManager, stats handlers.HostStatsProvider, svc Services, allowedOrigin string) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	taskHandler := handlers.NewTaskHandler(svc.Tasks)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	eventHandler := handlers.NewEventHandler(svc.Events)
	healthHandler := handlers.NewHealthHandler(db, stats)
	wsHandler := handlers.NewWebSocketHandler(hub, svc.Auth, allowedOrigin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Get)

		// The websocket handshake authenticates itself from ?token=.
		r.Get("/ws", wsHandler.Serve)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password/{token}", authHandler.ResetPassword)
			r.With(auth.JWTMiddleware(tokens)).Get("/me", authHandler.GetMe)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware(tokens))

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.GetAll)
				r.Post("/", taskHandler.Create)
				r.Post("/suggestions", taskHandler.Suggestions)
				r.Get("/stats", taskHandler.Stats)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.Get)
					r.Put("/", taskHandler.Update)
					r.Delete("/", taskHandler.Delete)
				})
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", categoryHandler.GetAll)
				r.Post("/", categoryHandler.Create)
				r.Get("/{id}", categoryHandler.Get)
				r.Delete("/{id}", categoryHandler.Delete)
			})

			r.Get("/activity", eventHandler.GetRecent)
		})
	})

	return r
}
