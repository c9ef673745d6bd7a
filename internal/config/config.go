// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sponsorcheck/sponsorcheck-server/internal/errors"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Data     DataConfig
	Server   ServerConfig
	Register RegisterConfig
	Quota    QuotaConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage configuration.
type DataConfig struct {
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed CORS origins (default: *)
}

// RegisterConfig holds sponsor register synchronization configuration.
type RegisterConfig struct {
	// PageURL is the government page listing the published register CSVs.
	PageURL string
	// SyncToken protects the sync trigger endpoint. Required.
	SyncToken string
	// SyncInterval is the period between scheduled register syncs (default: 24h).
	SyncInterval time.Duration
	// FetchTimeout bounds a single page or CSV download (default: 5m).
	FetchTimeout time.Duration
}

// QuotaConfig holds per-client lookup quota configuration.
type QuotaConfig struct {
	// HourlyLimit is the number of lookups a client key may perform per hour.
	HourlyLimit int
}

// flagValues holds the raw command-line flag strings before precedence
// resolution.
type flagValues struct {
	env          string
	logLevel     string
	dataPath     string
	port         string
	readTimeout  string
	writeTimeout string
	idleTimeout  string
	corsOrigins  string
	registerURL  string
	syncToken    string
	syncInterval string
	fetchTimeout string
	hourlyQuota  string
	envFile      string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fv, err := parseFlags(args)
	if err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(fv.envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(fv.env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(fv.logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(fv.dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(fv.port, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(fv.corsOrigins, "CORS_ORIGINS", "*")),
		},
		Register: RegisterConfig{
			PageURL:   getConfigValue(fv.registerURL, "REGISTER_PAGE_URL", defaultRegisterPageURL),
			SyncToken: getConfigValue(fv.syncToken, "SYNC_TOKEN", ""),
		},
		Quota: QuotaConfig{
			HourlyLimit: getIntConfigValue(fv.hourlyQuota, "LOOKUP_HOURLY_LIMIT", 60),
		},
	}

	durations := []struct {
		dst      *time.Duration
		flagVal  string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, fv.readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, fv.writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"},
		{&cfg.Server.IdleTimeout, fv.idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Register.SyncInterval, fv.syncInterval, "SYNC_INTERVAL", "24h"},
		{&cfg.Register.FetchTimeout, fv.fetchTimeout, "REGISTER_FETCH_TIMEOUT", "5m"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagVal, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// defaultRegisterPageURL is the UK government page that links the
// published register of licensed sponsors.
const defaultRegisterPageURL = "https://www.gov.uk/government/publications/register-of-licensed-sponsors-workers"

// parseFlags reads the command-line flags from args using a dedicated
// FlagSet so repeated loads in tests do not collide.
func parseFlags(args []string) (*flagValues, error) {
	fs := flag.NewFlagSet("sponsorcheck", flag.ContinueOnError)
	fv := &flagValues{}

	fs.StringVar(&fv.env, "env", "", "Environment (development, staging, production)")
	fs.StringVar(&fv.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&fv.dataPath, "data-path", "", "Base path for data storage")
	fs.StringVar(&fv.port, "port", "", "Server port (default: 8080)")
	fs.StringVar(&fv.readTimeout, "read-timeout", "", "HTTP read timeout (default: 15s)")
	fs.StringVar(&fv.writeTimeout, "write-timeout", "", "HTTP write timeout (default: 30s)")
	fs.StringVar(&fv.idleTimeout, "idle-timeout", "", "HTTP idle timeout (default: 60s)")
	fs.StringVar(&fv.corsOrigins, "cors-origins", "", "Comma-separated CORS origins (default: *)")
	fs.StringVar(&fv.registerURL, "register-url", "", "Sponsor register publication page URL")
	fs.StringVar(&fv.syncToken, "sync-token", "", "Shared token for the sync trigger endpoint")
	fs.StringVar(&fv.syncInterval, "sync-interval", "", "Interval between scheduled syncs (default: 24h)")
	fs.StringVar(&fv.fetchTimeout, "fetch-timeout", "", "Timeout for register downloads (default: 5m)")
	fs.StringVar(&fv.hourlyQuota, "hourly-quota", "", "Per-client lookups per hour (default: 60)")
	fs.StringVar(&fv.envFile, "env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fv, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.ConfigMissing("data base path cannot be empty after expansion")
	}

	if c.Register.PageURL == "" {
		return errors.ConfigMissing("register page URL is required")
	}

	if c.Register.SyncToken == "" {
		return errors.ConfigMissing("SYNC_TOKEN is required")
	}

	if c.Quota.HourlyLimit <= 0 {
		return errors.InvalidInput("hourly quota must be positive")
	}

	return nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/sponsorcheck/data when unset.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "sponsorcheck", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// splitList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Existing environment variables win over the .env file.
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}
