// Package config reads the settings of the contacts directory from environment variables.
//
// Usage example on the command line:
//
//	> DBDRIVER=mysql DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 PORT=8080 go run ./cmd/service
//	> DBDRIVER=mongo MONGO_URI=mongodb://localhost:27017 DBNAME=contacts PORT=8080 go run ./cmd/service
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gitlab.com/dirk.krummacker/contacts-directory/internal/store/mysqlstore"
)

// Supported values of DBDRIVER.
const (
	DriverMySQL = "mysql"
	DriverMongo = "mongo"
)

// Config holds all settings of the service.
type Config struct {
	Port            int
	Driver          string
	MySQL           mysqlstore.Config
	MongoURI        string
	MongoDatabase   string
	RequestLogging  bool
	LogMode         string
	AllowedOrigins  []string
	BackfillWorkers int
}

// getEnv returns the value of the environment variable or the fallback if it is not set.
func getEnv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// splitList splits a comma separated list and drops empty entries.
func splitList(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Driver: strings.ToLower(getEnv("DBDRIVER", DriverMySQL)),
		MySQL: mysqlstore.Config{
			Host:     getEnv("DBHOST", "localhost:3306"),
			User:     os.Getenv("DBUSER"),
			Password: os.Getenv("DBPWD"),
			Database: getEnv("DBNAME", "test"),
		},
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("DBNAME", "test"),
		RequestLogging: !strings.EqualFold(os.Getenv("GIN_LOGGING"), "off"),
		LogMode:        getEnv("LOG_MODE", "development"),
		AllowedOrigins: splitList(os.Getenv("CORS_ORIGINS")),
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port < 1 || port > 65535 {
		return Config{}, fmt.Errorf("could not parse PORT env variable %q", os.Getenv("PORT"))
	}
	cfg.Port = port

	workers, err := strconv.Atoi(getEnv("BACKFILL_WORKERS", "8"))
	if err != nil || workers < 1 {
		return Config{}, fmt.Errorf("could not parse BACKFILL_WORKERS env variable %q", os.Getenv("BACKFILL_WORKERS"))
	}
	cfg.BackfillWorkers = workers

	if cfg.Driver != DriverMySQL && cfg.Driver != DriverMongo {
		return Config{}, fmt.Errorf("unsupported DBDRIVER %q", cfg.Driver)
	}
	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
