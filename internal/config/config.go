package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"kgtool/internal/logger"
)

const (
	DefaultWorkingDir = "./custom_kg"
	DefaultLogDir     = "./retrieval_logs"
	DBFileName        = "kg.db"
)

// Config holds the settings shared by every command. Flags override the
// values loaded here.
type Config struct {
	WorkingDir string
	LogDir     string
	DBPath     string // empty means <WorkingDir>/kg.db
	Debug      bool
}

// LoadEnv reads a .env file from the current directory if one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

// Load builds a Config from the environment.
func Load() *Config {
	return &Config{
		WorkingDir: GetEnvString("KG_WORKING_DIR", DefaultWorkingDir),
		LogDir:     GetEnvString("RETRIEVAL_LOG_DIR", DefaultLogDir),
		DBPath:     GetEnv("KG_DB"),
		Debug:      GetEnvBool("KG_DEBUG", false),
	}
}

// StorePath returns the SQLite file backing the knowledge graph.
func (c *Config) StorePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.WorkingDir, DBFileName)
}

func GetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return ""
	}
	return value
}

func GetEnvString(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if value == "true" || value == "false" {
		return value == "true"
	}
	return defaultValue
}
