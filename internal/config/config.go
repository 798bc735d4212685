package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ServerConfig holds the process-level settings. Values come from a .env
// file in the project root, overridden by environment variables.
type ServerConfig struct {
	Port     int
	Engine   string // preferred search engine ("batch" or "workers"), empty for auto
	LogLevel string
}

const defaultPort = 5000

// LoadServerConfig reads the .env file (if present) and applies environment
// overrides.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Port:     defaultPort,
		LogLevel: "info",
	}

	projectRoot := findProjectRoot()
	envPath := filepath.Join(projectRoot, ".env")

	data, err := os.ReadFile(envPath)
	if err == nil {
		parseEnvFile(string(data), cfg)
	}

	// Override with environment variables if set
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.Port = p
		}
	}
	if engine := os.Getenv("SEARCH_ENGINE"); engine != "" {
		cfg.Engine = engine
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

func parseEnvFile(content string, cfg *ServerConfig) {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "SERVER_PORT":
			if p, err := strconv.Atoi(value); err == nil && p > 0 {
				cfg.Port = p
			}
		case "SEARCH_ENGINE":
			cfg.Engine = value
		case "LOG_LEVEL":
			cfg.LogLevel = value
		}
	}
}

func findProjectRoot() string {
	cwd, _ := os.Getwd()
	// First check CWD for .env file
	if _, err := os.Stat(filepath.Join(cwd, ".env")); err == nil {
		return cwd
	}
	// Then walk up looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return cwd
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return cwd
		}
		cwd = parent
	}
}
