package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret       string   `mapstructure:"JWT_SECRET"`
	JWTIssuer       string   `mapstructure:"JWT_ISSUER"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int      `mapstructure:"RATE_LIMIT_BURST"`
	AllocatorMode   string   `mapstructure:"ALLOCATOR_MODE"`
	ModelAPIURL     string   `mapstructure:"MODEL_API_URL"`
	ModelAPIKey     string   `mapstructure:"MODEL_API_KEY"`
	ModelName       string   `mapstructure:"MODEL_NAME"`
	DefaultUnitRate float64  `mapstructure:"DEFAULT_UNIT_RATE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("ALLOCATOR_MODE", "rule")
	v.SetDefault("MODEL_NAME", "gpt-4o-mini")
	v.SetDefault("DEFAULT_UNIT_RATE", 45.0)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("JWT_ISSUER")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("ALLOCATOR_MODE")
	v.BindEnv("MODEL_API_URL")
	v.BindEnv("MODEL_API_KEY")
	v.BindEnv("MODEL_NAME")
	v.BindEnv("DEFAULT_UNIT_RATE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; all requests get billing access.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In non-development
// modes JWT_SECRET must be set so real authentication is enforced, and the
// model-backed allocator requires an API endpoint.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q; refusing to start without authentication", c.Env)
	}
	switch c.AllocatorMode {
	case "rule", "model":
	default:
		return fmt.Errorf("ALLOCATOR_MODE must be \"rule\" or \"model\", got %q", c.AllocatorMode)
	}
	if c.AllocatorMode == "model" && c.ModelAPIURL == "" {
		return fmt.Errorf("MODEL_API_URL is required when ALLOCATOR_MODE is \"model\"")
	}
	if c.DefaultUnitRate <= 0 {
		return fmt.Errorf("DEFAULT_UNIT_RATE must be positive, got %v", c.DefaultUnitRate)
	}
	return nil
}
