package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cs2hub/backend/handlers"
	"github.com/cs2hub/backend/middleware"
)

type Handlers struct {
	Tournaments   *handlers.TournamentHandler
	Registrations *handlers.RegistrationHandler
	Servers       *handlers.ServerHandler
	WebSocket     *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, auth *middleware.Authenticator) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/tournaments", func(r chi.Router) {
		// Просмотр доступен без токена; токен добавляет флаг
		// is_registered для текущего игрока.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuthenticate)
			r.Get("/", h.Tournaments.ListHandler)
			r.Get("/{tournamentID}", h.Tournaments.GetByIDHandler)
		})

		// Заявки от имени игрока из токена.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/{tournamentID}/registrations", h.Registrations.RegisterHandler)
			r.Patch("/{tournamentID}/registrations/confirm", h.Registrations.ConfirmHandler)
			r.Delete("/{tournamentID}/registrations", h.Registrations.WithdrawHandler)
		})

		// Управление турнирами — только администраторы.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.RequireAdmin)
			r.Post("/", h.Tournaments.CreateHandler)
			r.Put("/{tournamentID}", h.Tournaments.UpdateHandler)
			r.Patch("/{tournamentID}/status", h.Tournaments.UpdateStatusHandler)
			r.Delete("/{tournamentID}", h.Tournaments.DeleteHandler)
			r.Post("/{tournamentID}/logo", h.Tournaments.UploadLogoHandler)
		})
	})

	router.Route("/servers", func(r chi.Router) {
		r.Get("/", h.Servers.ListHandler)
		r.Get("/refresh", h.Servers.RefreshHandler)
		r.Post("/refresh", h.Servers.RefreshHandler)
		r.Get("/{serverID}", h.Servers.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.RequireAdmin)
			r.Post("/", h.Servers.CreateHandler)
			r.Put("/{serverID}", h.Servers.UpdateHandler)
			r.Delete("/{serverID}", h.Servers.DeleteHandler)
		})
	})

	router.Route("/ws", func(r chi.Router) {
		r.Get("/tournaments/{tournamentID}", h.WebSocket.ServeTournament)
		r.Get("/servers", h.WebSocket.ServeServers)
	})

	return router
}
