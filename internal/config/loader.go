package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the clinic
// scheduling service.
type Config struct {
	HTTPPort       int
	SQLiteDSN      string
	LogLevel       string
	DragSnap       time.Duration
	MaxOccurrences int
}

// Load reads an optional .env file and parses configuration values from the
// current process environment. Every field has a sensible default; values
// that are present but unparsable fail loading rather than being ignored.
func Load() (Config, error) {
	// Missing .env files are expected in production deployments.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:       8080,
		SQLiteDSN:      "file:clinic.db?_pragma=foreign_keys(1)",
		LogLevel:       "info",
		DragSnap:       15 * time.Minute,
		MaxOccurrences: 52,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("CLINIC_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "CLINIC_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("CLINIC_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if level := strings.TrimSpace(os.Getenv("CLINIC_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if snapValue := strings.TrimSpace(os.Getenv("CLINIC_DRAG_SNAP")); snapValue != "" {
		snap, err := time.ParseDuration(snapValue)
		if err != nil || snap <= 0 {
			invalid = append(invalid, "CLINIC_DRAG_SNAP")
		} else {
			cfg.DragSnap = snap
		}
	}

	if countValue := strings.TrimSpace(os.Getenv("CLINIC_MAX_OCCURRENCES")); countValue != "" {
		count, err := strconv.Atoi(countValue)
		if err != nil || count <= 0 {
			invalid = append(invalid, "CLINIC_MAX_OCCURRENCES")
		} else {
			cfg.MaxOccurrences = count
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
