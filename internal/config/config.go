package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Gating    GatingConfig    `mapstructure:"gating"    validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// DefaultTimezone is used when a request carries no X-Timezone header.
	DefaultTimezone string `mapstructure:"default_timezone" validate:"required,timezone"`
}

// DatabaseConfig selects and locates the key-value backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `mapstructure:"url"    validate:"required"`
}

// AuthConfig contains settings for player access tokens.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains the interpretation collaborator settings.
// An empty API key disables interpretation; requests then fail and are recorded as failed.
type LLMConfig struct {
	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
	ModelName      string `mapstructure:"model_name"      validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
	// PromptTemplatePath overrides the embedded prompt template when set.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
}

// RateLimitConfig points at the remote rate-limit proxy. An empty URL allows every call.
type RateLimitConfig struct {
	URL            string `mapstructure:"url"             validate:"omitempty,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
}

// GatingConfig holds the daily quota limits.
type GatingConfig struct {
	AdCooldownSeconds     int `mapstructure:"ad_cooldown_seconds"       validate:"gte=0"`
	MaxAnotherTopicPerDay int `mapstructure:"max_another_topic_per_day" validate:"gte=0"`
	MaxClarifierPerDay    int `mapstructure:"max_clarifier_per_day"     validate:"gte=0"`
}

// CacheConfig controls the read-through record cache.
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	SizeMB     int  `mapstructure:"size_mb"     validate:"gte=0"`
	TTLSeconds int  `mapstructure:"ttl_seconds" validate:"gte=0"`
}

// MetricsConfig toggles the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
