// Config loading for the calljmp CLI.
// Implements: prd001-cli-core R6; prd002-project-layout (R1.4, R3 env files).
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/calljmp/cli/internal/paths"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyDatabase      = "database"
	cfgKeySchemaDir     = "schema_dir"
	cfgKeyMigrationsDir = "migrations_dir"
	cfgKeyAPIURL        = "api_url"
	cfgKeyAPIToken      = "api_token"

	// API token environment variable, usually provided through .env files.
	envAPIToken = "CALLJMP_API_TOKEN"

	defaultAPIURL = "https://api.calljmp.com"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# calljmp CLI configuration

# Control-plane API endpoint
api_url: https://api.calljmp.com

# Project paths (optional; overridable by flags)
# database:
# schema_dir:
# migrations_dir:
`

// loadedConfig is the resolved configuration a command sees.
type loadedConfig struct {
	Database      string // config.yaml value, "" when unset
	SchemaDir     string
	MigrationsDir string
	APIURL        string
	APIToken      string
}

// loadProjectConfig loads project .env files, then config.yaml from the
// resolved config directory using Viper. The config directory and a default
// config.yaml are created on first run; a missing config.yaml is not an
// error.
func loadProjectConfig() (loadedConfig, error) {
	loadEnvFiles()

	configDir, err := paths.ResolveConfigDir(flagConfigDir)
	if err != nil {
		return loadedConfig{}, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return loadedConfig{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return loadedConfig{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyAPIURL, defaultAPIURL)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return loadedConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := loadedConfig{
		Database:      v.GetString(cfgKeyDatabase),
		SchemaDir:     v.GetString(cfgKeySchemaDir),
		MigrationsDir: v.GetString(cfgKeyMigrationsDir),
		APIURL:        v.GetString(cfgKeyAPIURL),
		APIToken:      v.GetString(cfgKeyAPIToken),
	}
	if cfg.APIToken == "" {
		cfg.APIToken = os.Getenv(envAPIToken)
	}
	return cfg, nil
}

// loadEnvFiles loads the project's .env files into the process environment.
// .env.local wins over .env; existing environment variables are never
// overwritten. Missing files are fine.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		_ = godotenv.Load(name)
	}
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		// File already exists.
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
