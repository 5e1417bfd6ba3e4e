package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mindwell/internal/config"
	"mindwell/internal/crypto"
	"mindwell/internal/db"
	"mindwell/internal/handlers"
	"mindwell/internal/llm"
	"mindwell/internal/llm/gemini"
	mw "mindwell/internal/middleware"
	"mindwell/internal/store"
)

const maxBodyBytes = 10 << 20 // clients send base64 JPEG frames

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set; chat, emotion and questionnaire endpoints will report not configured")
	}

	dbConn, err := sqlx.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open db", zap.Error(err))
	}
	dbConn.SetMaxOpenConns(10)
	dbConn.SetConnMaxLifetime(2 * time.Hour)
	if err = dbConn.Ping(); err != nil {
		logger.Fatal("failed to ping db", zap.Error(err))
	}
	if err := db.RunMigrations(dbConn); err != nil {
		logger.Fatal("failed migrations", zap.Error(err))
	}

	var noteCipher *crypto.NoteCipher
	if cfg.NoteEncryptionKey != "" {
		noteCipher, err = crypto.NewNoteCipher([]byte(cfg.NoteEncryptionKey))
		if err != nil {
			logger.Fatal("invalid NOTE_ENCRYPTION_KEY", zap.Error(err))
		}
	}

	var modelClient llm.Client
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			logger.Fatal("failed to create model client", zap.Error(err))
		}
		modelClient = client
	}

	var voiceNotes *store.VoiceNoteStore
	if cfg.MinioEndpoint != "" {
		voiceNotes, err = store.NewVoiceNoteStore(context.Background(), cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			logger.Fatal("failed to connect to minio", zap.Error(err))
		}
	} else {
		logger.Warn("MINIO_ENDPOINT not set; voice-note uploads will report not configured")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestSize(maxBodyBytes))
	r.Use(mw.ZapRequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(dbConn, []byte(cfg.JWTSecret))
	userHandler := handlers.NewUserHandler(dbConn)
	moodHandler := handlers.NewMoodHandler(dbConn, noteCipher)
	statsHandler := handlers.NewStatsHandler(dbConn)
	aiHandler := handlers.NewAIHandler(modelClient, logger)
	mediaHandler := handlers.NewMediaHandler(voiceNotes)
	authMW := mw.NewAuthMiddleware([]byte(cfg.JWTSecret))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		api.Post("/auth/register", authHandler.Register)
		api.Post("/auth/login", authHandler.Login)

		// Public by design: the companion chat works without an account.
		api.Post("/chat", aiHandler.Chat)
		api.Post("/emotion", aiHandler.Emotion)
		api.Post("/questionnaire", aiHandler.Questionnaire)

		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)
			pr.Get("/auth/me", userHandler.GetMe)
			pr.Put("/auth/me", userHandler.UpdateMe)
			pr.Get("/moods", moodHandler.List)
			pr.Post("/moods", moodHandler.Create)
			pr.Get("/moods/stats", statsHandler.Get)
			pr.Post("/moods/voice", mediaHandler.UploadVoiceNote)
			pr.Put("/moods/{id}", moodHandler.Update)
			pr.Delete("/moods/{id}", moodHandler.Delete)
		})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info("server stopped")
}
