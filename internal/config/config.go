package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr        string
		CORSOrigins string `mapstructure:"cors_origins"`
		PublicURL   string `mapstructure:"public_url"`
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret      string `mapstructure:"jwt_secret"`
		JWTAlgorithm   string `mapstructure:"jwt_algorithm"`
		TokenTTLHours  int    `mapstructure:"token_ttl_hours"`
		PasswordScheme string `mapstructure:"password_scheme"`
	}
	AI struct {
		APIKey         string `mapstructure:"api_key"`
		Model          string
		BaseURL        string `mapstructure:"base_url"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
		SurfaceErrors  bool   `mapstructure:"surface_errors"`
	}
	Storage struct {
		Bucket    string
		KeyPrefix string `mapstructure:"key_prefix"`
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	RateLimit struct {
		RPS   float64
		Burst int
	} `mapstructure:"rate_limit"`
	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from environment variables, an optional .env file
// and an optional config file in the working directory.
func Load() (Config, error) {
	// .env never overrides variables already present in the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8000")
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("server.public_url", "http://localhost:3000")
	v.SetDefault("database.path", "data/radar.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_algorithm", "HS256")
	v.SetDefault("auth.token_ttl_hours", 24)
	v.SetDefault("auth.password_scheme", "bcrypt")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("ai.timeout_seconds", 60)
	v.SetDefault("ai.surface_errors", false)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.key_prefix", "reports")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate rejects configurations the server cannot safely start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: RADAR_AUTH_JWT_SECRET must be set")
	}
	switch strings.ToUpper(c.Auth.JWTAlgorithm) {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("config: unsupported jwt algorithm %q", c.Auth.JWTAlgorithm)
	}
	if c.Auth.TokenTTLHours <= 0 {
		return fmt.Errorf("config: token ttl must be positive, got %d hours", c.Auth.TokenTTLHours)
	}
	switch c.Auth.PasswordScheme {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("config: unknown password scheme %q", c.Auth.PasswordScheme)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("config: rate limit rps and burst must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// TokenTTL returns the bearer token validity window.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// AITimeout returns the per-call deadline for the generative provider.
func (c Config) AITimeout() time.Duration {
	if c.AI.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// AllowedOrigins splits the configured CORS origins list.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(c.Server.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
