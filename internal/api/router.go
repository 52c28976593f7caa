package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/punchy-be/internal/api/handlers"
	"github.com/isdelr/punchy-be/internal/logger"
	"github.com/isdelr/punchy-be/internal/services"
	"github.com/isdelr/punchy-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	db handlers.Pinger,
	userService services.UserServiceProvider,
	languageService services.LanguageServiceProvider,
	punchService services.PunchServiceProvider,
	visitService services.VisitServiceProvider,
	corsOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, languageService)
	punchHandler := handlers.NewPunchHandler(userService, punchService)
	visitHandler := handlers.NewVisitHandler(visitService)
	healthHandler := handlers.NewHealthHandler(db)
	wsHandler := handlers.NewWebSocketHandler(hub, userService, corsOrigins)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", healthHandler.Check)

		// WebSocket connection endpoint
		r.Get("/ws", wsHandler.Serve)

		r.Post("/auth/session", userHandler.Session)
		r.Post("/account/lang", userHandler.ChangeLang)

		r.Route("/time-records", func(r chi.Router) {
			r.Post("/punch-in", punchHandler.PunchIn)
			r.Post("/punch-out", punchHandler.PunchOut)
			r.Post("/list", punchHandler.List)
		})

		// Public, read-only
		r.Get("/records", visitHandler.ListAll)
	})

	return r
}
