package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every setting the server reads from the environment. It is
// loaded once in main and handed to the packages that need it; nothing else
// touches os.Getenv.
type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string

	CloudinaryURL string

	GoogleClientID     string
	GoogleClientSecret string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	AllowedOrigins []string
	ReleaseMode    bool
}

// Load reads .env if present, then the process environment. JWT_SECRET and
// MONGODB_URI have no safe defaults and are required; everything else
// degrades to a disabled feature or a sensible local default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: getenv("MONGODB_DATABASE", "tallyfest"),
		JWTSecret:     os.Getenv("JWT_SECRET"),

		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:    getenv("VAPID_SUBJECT", "mailto:admin@tallyfest.app"),

		ReleaseMode: os.Getenv("GIN_MODE") == "release",
	}

	origins := getenv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5500,http://127.0.0.1:5500")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.JWTSecret == "" || cfg.MongoURI == "" {
		return nil, errors.New("JWT_SECRET and MONGODB_URI must be set")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
