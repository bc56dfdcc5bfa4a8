package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	apperrors "github.com/edgard/geminirelay/internal/errors"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// MissingSecretsError names every required secret that was not provided.
type MissingSecretsError struct {
	Names []string
}

func (e *MissingSecretsError) Error() string {
	return "missing required configuration: " + strings.Join(e.Names, ", ")
}

// Load reads the configuration from the working directory. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom reads configuration in ascending priority:
//  1. Default values
//  2. config.yaml in dir (optional)
//  3. .env in dir (optional)
//  4. Environment variables (gemini.api_key -> GEMINI_API_KEY)
//
// Missing secrets are reported before any other validation so the caller never
// gets far enough to open a connection.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, apperrors.NewConfigError("failed to read config file", err)
		}
		slog.Debug("config.yaml not found, using defaults", "dir", dir)
	}

	if err := mergeDotEnv(v, filepath.Join(dir, ".env")); err != nil {
		return nil, apperrors.NewConfigError("failed to read .env file", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to parse config", err)
	}

	cfg.Discord.Token = strings.TrimSpace(cfg.Discord.Token)
	cfg.Gemini.APIKey = strings.TrimSpace(cfg.Gemini.APIKey)

	if err := checkSecrets(cfg); err != nil {
		return nil, apperrors.NewConfigError("refusing to start", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", err)
	}

	slog.Debug("configuration loaded",
		"gemini_model", cfg.Gemini.ModelName,
		"log_level", cfg.Logger.Level,
		"keepalive_enabled", cfg.KeepAlive.Enabled)

	return cfg, nil
}

func checkSecrets(cfg *Config) error {
	var missing []string
	if cfg.Discord.Token == "" {
		missing = append(missing, EnvDiscordToken)
	}
	if cfg.Gemini.APIKey == "" {
		missing = append(missing, EnvGeminiAPIKey)
	}
	if len(missing) > 0 {
		return &MissingSecretsError{Names: missing}
	}
	return nil
}

// mergeDotEnv layers KEY=value pairs from a dotenv file over config.yaml. Real
// environment variables still win because AutomaticEnv sits above the config
// layer. Only keys the relay knows about are taken.
func mergeDotEnv(v *viper.Viper, path string) error {
	dotenv := viper.New()
	dotenv.SetConfigFile(path)
	dotenv.SetConfigType("env")

	if err := dotenv.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	overrides := map[string]any{}
	for key := range defaults {
		envName := strings.ToLower(envKeyReplacer.Replace(key))
		if !dotenv.IsSet(envName) {
			continue
		}
		setNested(overrides, key, dotenv.Get(envName))
	}

	if len(overrides) == 0 {
		return nil
	}
	return v.MergeConfigMap(overrides)
}

func setNested(m map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}
