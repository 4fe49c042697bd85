package config

import (
	"os"
	"strings"
)

// Config holds application configuration
type Config struct {
	// MariaDB接続設定（DB_HOST 未設定なら SQLite にフォールバック）
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// SQLite設定
	SQLitePath string

	// サーバー設定
	ServerPort string
	Env        string

	// CORS設定
	AllowedOrigins []string

	// CSV一括インポートのデフォルトファイルパス
	CSVImportPath string
}

// Load loads configuration from environment variables
func Load() Config {
	cfg := Config{
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		SQLitePath:    getEnv("SQLITE_PATH", "./data/supportdesk.db"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		CSVImportPath: getEnv("CSV_IMPORT_PATH", "./data/messages.csv"),
	}

	allowedOrigins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	cfg.AllowedOrigins = strings.Split(allowedOrigins, ",")
	for i := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(cfg.AllowedOrigins[i])
	}

	return cfg
}

// getEnv reads an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
