package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "ARCANA"

// defaults are applied before any file or environment source. Every key is
// registered here so AutomaticEnv can resolve it during Unmarshal.
var defaults = map[string]any{
	"server.port":                      8080,
	"server.log_level":                 "info",
	"server.default_timezone":          "UTC",
	"database.driver":                  "sqlite",
	"database.url":                     "file:arcana.db?_pragma=busy_timeout(5000)",
	"auth.jwt_secret":                  "",
	"auth.token_lifetime_minutes":      60 * 24 * 30,
	"llm.gemini_api_key":               "",
	"llm.model_name":                   "gemini-2.0-flash",
	"llm.timeout_seconds":              20,
	"llm.prompt_template_path":         "",
	"ratelimit.url":                    "",
	"ratelimit.timeout_seconds":        5,
	"gating.ad_cooldown_seconds":       300,
	"gating.max_another_topic_per_day": 3,
	"gating.max_clarifier_per_day":     3,
	"cache.enabled":                    true,
	"cache.size_mb":                    16,
	"cache.ttl_seconds":                300,
	"metrics.enabled":                  true,
}

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from the file.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile behaves like Load but reads the given config file instead of
// searching for config.yaml. A missing explicit file is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
