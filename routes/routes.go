package routes

import (
	"github.com/arenaops/tournament-hub/handlers"
	"github.com/arenaops/tournament-hub/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Tournament   *handlers.TournamentHandler
	Registration *handlers.RegistrationHandler
	WebSocket    *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret []byte) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/signup", h.Auth.Signup)
	router.Post("/auth/login", h.Auth.Login)
	router.With(authenticate).Get("/auth/me", h.Auth.Me)

	router.Route("/tournaments", func(r chi.Router) {
		// Public read access.
		r.Get("/", h.Tournament.List)
		r.Get("/{id}", h.Tournament.GetByID)
		r.Get("/{tournamentID}/registrations", h.Registration.List)

		// Writes require an authenticated user; ownership is checked in the
		// service layer.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", h.Tournament.Create)
			r.Patch("/{id}", h.Tournament.Update)
			r.Delete("/{id}", h.Tournament.Delete)
			r.Put("/{id}/banner", h.Tournament.UploadBanner)
			r.Post("/{tournamentID}/registrations", h.Registration.Submit)
		})
	})

	router.With(authenticate).Patch("/registrations/{id}", h.Registration.UpdateStatus)

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeTournamentRoom)

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	return router
}
