package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/studydeck-api/internal/api"
	apiMiddleware "github.com/phrazzld/studydeck-api/internal/api/middleware"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	rl := app.config.RateLimit
	addrLimiter := apiMiddleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst)
	userLimiter := apiMiddleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	studyHandler := api.NewStudyHandler(app.studyService, app.counter, app.logger)

	r.Get("/health", api.Health)

	r.Route("/api/study", func(r chi.Router) {
		// Requests are limited by address until authenticated, then by user.
		r.Use(addrLimiter.Limit)
		r.Use(authMiddleware.Authenticate)
		r.Use(userLimiter.Limit)

		r.Post("/cards/{cardID}/reviews", studyHandler.RecordReview)
		r.Get("/cards/{cardID}/reviews", studyHandler.GetReviewHistory)
		r.Get("/decks/{deckID}/due", studyHandler.GetDueCards)
		r.Get("/stats", studyHandler.GetStats)
	})

	return r
}
