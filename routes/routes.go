package routes

import (
	"github.com/Extrase/ft-Transcendance/handlers"
	"github.com/Extrase/ft-Transcendance/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	statsHandler *handlers.StatsHandler,
	notificationHandler *handlers.NotificationHandler,
	chatHandler *handlers.ChatHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	authenticateOptional := middleware.AuthenticateOptional(jwtSecret)

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты для просмотра турниров.
		// Список принимает filter=mine, поэтому claims подхватываются,
		// когда токен предъявлен.
		r.With(authenticateOptional).Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", tournamentHandler.CreateHandler)
			r.Post("/{tournamentID}/join", tournamentHandler.JoinHandler)
			r.Post("/{tournamentID}/leave", tournamentHandler.LeaveHandler)
			r.Post("/{tournamentID}/start", tournamentHandler.StartHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/{matchID}/play", matchHandler.PlayInfoHandler)
		r.Post("/{matchID}/result", matchHandler.ResultHandler)
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/games", statsHandler.RecordGameHandler)
		r.Get("/profile", statsHandler.ProfileHandler)
		r.Get("/notifications", notificationHandler.ListHandler)
		r.Get("/messages/{peerID}", chatHandler.ConversationHandler)
		r.Get("/ws", webSocketHandler.ServeWs)
	})

	router.Route("/players", func(r chi.Router) {
		r.Get("/{playerID}/stats", statsHandler.PlayerStatsHandler)
		r.Get("/{playerID}/games", statsHandler.RecentGamesHandler)
	})
}
