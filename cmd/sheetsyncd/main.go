// Command sheetsyncd starts the collaborative spreadsheet server.
//
// Configuration comes from an optional YAML file plus environment
// variables (env wins):
//
//   - SHEETSYNC_CONFIG: path to a YAML config file
//   - SHEETSYNC_PORT: HTTP server port (default: 8000)
//   - SHEETSYNC_TITLE: document title
//   - SHEETSYNC_DATE_ORDER: "mdy" or "dmy" (default: mdy)
//   - SHEETSYNC_STRICT_NUMERIC: "true" to exclude numeric-looking text
//     from formula ranges
//   - GIN_MODE: gin framework mode
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/javajack/sheetsync/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := server.LoadConfig(os.Getenv("SHEETSYNC_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if port := getEnvInt("SHEETSYNC_PORT", 0); port != 0 {
		cfg.Port = port
	}
	if title := os.Getenv("SHEETSYNC_TITLE"); title != "" {
		cfg.Title = title
	}
	if order := os.Getenv("SHEETSYNC_DATE_ORDER"); order != "" {
		cfg.DateOrder = order
	}
	if strict := os.Getenv("SHEETSYNC_STRICT_NUMERIC"); strict != "" {
		cfg.StrictNumeric, _ = strconv.ParseBool(strict)
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.GinMode = mode
	}

	slog.Info("starting sheetsyncd",
		"port", cfg.Port,
		"date_order", cfg.DateOrder,
		"strict_numeric", cfg.StrictNumeric,
	)

	svc, err := server.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := svc.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
