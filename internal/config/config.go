package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// YouTube Data API
	YouTubeAPIKey string

	// Instagram scraping
	InstagramSessionCookie string // relayed browser session, optional

	// AssemblyAI
	AssemblyAIAPIKey       string
	TranscriptionPollEvery time.Duration
	TranscriptionMaxWait   time.Duration

	// Analysis
	MaxItemsPerAnalysis int

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		YouTubeAPIKey:          mustGetEnv("YOUTUBE_API_KEY"),
		InstagramSessionCookie: getEnvOrDefault("INSTAGRAM_SESSION_COOKIE", ""),

		AssemblyAIAPIKey:       mustGetEnv("ASSEMBLYAI_API_KEY"),
		TranscriptionPollEvery: getEnvAsDurationOrDefault("TRANSCRIPTION_POLL_INTERVAL", 5*time.Second),
		TranscriptionMaxWait:   getEnvAsDurationOrDefault("TRANSCRIPTION_MAX_WAIT", 10*time.Minute),

		MaxItemsPerAnalysis: getEnvAsIntOrDefault("MAX_ITEMS_PER_ANALYSIS", 100),

		SMTPHost:    getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:    getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:    getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:    getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:    getEnvOrDefault("SMTP_FROM", "noreply@creatorlens.app"),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
