package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env in development. In production the
// environment is expected to be set by the deployment.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" || goEnv == "development" {
		return godotenv.Load()
	}
	return nil
}

// Env holds every environment variable the application reads.
type Env struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int

	JWT_SECRET string
	JWT_ISSUER string

	REDIS_URL string
}

// Get reads the environment into an Env, applying defaults for local
// development.
func Get() (*Env, error) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	return &Env{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getenv("DB_HOST", "localhost"),
		DB_PORT:      getenv("DB_PORT", "5432"),
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		JWT_SECRET:   os.Getenv("JWT_SECRET"),
		JWT_ISSUER:   os.Getenv("JWT_ISSUER"),
		REDIS_URL:    os.Getenv("REDIS_URL"),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
