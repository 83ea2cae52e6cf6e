package db

import (
	"os"
	"strconv"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func LoadPostgresConfig() PostgresConfig {
	port, err := strconv.Atoi(envOr("DB_PORT", "5432"))
	if err != nil {
		port = 5432
	}

	return PostgresConfig{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     port,
		User:     envOr("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   envOr("DB_NAME", "checkout"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
	}
}
