package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"creatorlens-backend/internal/handlers"
	"creatorlens-backend/internal/middleware"
	"creatorlens-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	analysisHandler *handlers.AnalysisHandler,
	transcriptionHandler *handlers.TranscriptionHandler,
	hubHandler *handlers.HubHandler,
	interactionHandler *handlers.InteractionHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	// Job starts hit external platforms; keep them tighter than reads
	jobLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout and profile require auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		// ──── Analysis Routes ────
		r.Route("/analyses", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(jobLimiter.Middleware)
				r.Post("/{platform}", analysisHandler.Start)
			})

			r.Get("/", analysisHandler.List)
			r.Get("/{id}", analysisHandler.Get)
			r.Get("/{id}/export", analysisHandler.Export)
			r.Delete("/{id}", analysisHandler.Delete)
		})

		// ──── Transcription Routes ────
		r.Route("/transcriptions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(jobLimiter.Middleware)
				r.Post("/", transcriptionHandler.Start)
			})

			r.Get("/{id}", transcriptionHandler.Get)
			r.Get("/video/{platform}/{videoID}", transcriptionHandler.GetByVideo)
			r.Delete("/{id}", transcriptionHandler.Delete)
		})

		// ──── Hub Routes ────
		r.Route("/hubs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", hubHandler.Create)
			r.Get("/", hubHandler.List)
			r.Get("/{id}", hubHandler.Get)
			r.Put("/{id}", hubHandler.Update)
			r.Delete("/{id}", hubHandler.Delete)
			r.Get("/{id}/creators", hubHandler.ListCreators)
			r.Post("/{id}/creators", hubHandler.AddCreator)
			r.Delete("/{id}/creators/{analysisID}", hubHandler.RemoveCreator)
		})

		// ──── Content Item Interactions ────
		r.Route("/items", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Put("/{id}/rating", interactionHandler.Rate)
			r.Post("/{id}/comments", interactionHandler.Comment)
			r.Get("/{id}/comments", interactionHandler.ListComments)
			r.Put("/{id}/favorite", interactionHandler.ToggleFavorite)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
