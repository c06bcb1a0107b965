package config

import (
	"os"

	"github.com/joho/godotenv"
)

// loads a .env file if present, already-set environment variables win
func LoadEnvFile() {
	_ = godotenv.Load()
}

func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	return value
}

// credentials from the environment take precedence over config.yaml,
// so passwords do not have to live in the config file
func (c *Config) ApplyEnvOverrides() {
	c.PostgreSQL.Password = GetEnv("POSTGRES_PASSWORD", c.PostgreSQL.Password)
	c.MySQL.Password = GetEnv("MYSQL_PASSWORD", c.MySQL.Password)
	c.MongoDB.Password = GetEnv("MONGODB_PASSWORD", c.MongoDB.Password)
}
