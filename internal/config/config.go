package config

import "os"

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port              string
	DatabaseURL       string
	JWTSecret         string
	GeminiAPIKey      string
	NoteEncryptionKey string
	MinioEndpoint     string
	MinioAccessKey    string
	MinioSecretKey    string
	MinioBucket       string
	MinioUseSSL       bool
}

func Load() *Config {
	return &Config{
		Port:              getenv("PORT", "8080"),
		DatabaseURL:       getenv("DATABASE_URL", ""),
		JWTSecret:         getenv("JWT_SECRET", ""),
		GeminiAPIKey:      getenv("GEMINI_API_KEY", ""),
		NoteEncryptionKey: getenv("NOTE_ENCRYPTION_KEY", ""),
		MinioEndpoint:     getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey:    getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:       getenv("MINIO_BUCKET", "voice-notes"),
		MinioUseSSL:       getenv("MINIO_USE_SSL", "false") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
