package config

import "os"

type Config struct {
	HTTPAddr     string
	DatabaseURL  string
	MaxOpenConns int
	JWTSecret    string
	GelfAddr     string
}

func Load() *Config {
	return &Config{
		HTTPAddr:     getEnv("CHEFS_ADDR", ":8080"),
		DatabaseURL:  getEnv("CHEFS_DATABASE_URL", "postgres://localhost:5432/chefs?sslmode=disable"),
		MaxOpenConns: getEnvInt("CHEFS_DB_MAX_CONNS", 10),
		JWTSecret:    getEnv("CHEFS_JWT_SECRET", "chefs-dev-secret-change-me"),
		GelfAddr:     getEnv("CHEFS_GELF_ADDR", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}
