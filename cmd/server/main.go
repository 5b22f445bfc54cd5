package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creatorlens-backend/internal/config"
	"creatorlens-backend/internal/database"
	"creatorlens-backend/internal/handlers"
	"creatorlens-backend/internal/middleware"
	"creatorlens-backend/internal/models"
	"creatorlens-backend/internal/repository"
	"creatorlens-backend/internal/router"
	"creatorlens-backend/internal/services"
	"creatorlens-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting CreatorLens Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	analysisRepo := repository.NewAnalysisRepo(pool)
	transcriptionRepo := repository.NewTranscriptionRepo(pool)
	hubRepo := repository.NewHubRepo(pool)
	interactionRepo := repository.NewInteractionRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	broker := services.NewStatusBroker(redisClients.Cache, redisClients.PubSub)

	youtubeService := services.NewYouTubeService(cfg.YouTubeAPIKey, cfg.MaxItemsPerAnalysis)
	instagramService := services.NewInstagramService(cfg.InstagramSessionCookie, cfg.MaxItemsPerAnalysis)
	assemblyAI := services.NewAssemblyAIService(cfg.AssemblyAIAPIKey)

	analysisService := services.NewAnalysisService(
		analysisRepo,
		map[string]services.PlatformClient{
			models.PlatformYouTube:   youtubeService,
			models.PlatformInstagram: instagramService,
		},
		broker,
		emailService,
		userRepo,
	)
	transcriptionService := services.NewTranscriptionService(
		transcriptionRepo,
		assemblyAI,
		youtubeService,
		analysisRepo,
		broker,
		cfg.TranscriptionPollEvery,
		cfg.TranscriptionMaxWait,
	)
	authService := services.NewAuthService(userRepo, redisClients.Cache, jwtAuth)
	hubService := services.NewHubService(hubRepo, analysisRepo)
	interactionService := services.NewInteractionService(interactionRepo, analysisRepo)
	exportService := services.NewExportService()

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService, exportService)
	transcriptionHandler := handlers.NewTranscriptionHandler(transcriptionService)
	hubHandler := handlers.NewHubHandler(hubService)
	interactionHandler := handlers.NewInteractionHandler(interactionService)

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		analysisHandler,
		transcriptionHandler,
		hubHandler,
		interactionHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ CreatorLens Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
