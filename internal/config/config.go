package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gorm.io/gorm"
)

// Config holds all application configuration
type Config struct {
	Env        string `envconfig:"APP_ENV" default:"development"`
	Port       int    `envconfig:"PORT" default:"8080"`
	BaseURL    string `envconfig:"APP_BASE_URL" default:"http://localhost:5173"`
	DB         DBConfig
	Redis      RedisConfig
	CORS       CORSConfig
	JWT        JWTConfig
	AI         AIConfig
	Weights    WeightsConfig
	Interview  InterviewConfig
	Proctoring ProctoringConfig
	SMTP       SMTPConfig
	Audit      AuditConfig
	Sweeper    SweeperConfig
}

// database configuration
type DBConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	Name     string `envconfig:"POSTGRES_DB" default:"intervuex"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// NewGormConfig returns the gorm settings every connection uses. TranslateError maps driver
// constraint errors onto gorm.ErrDuplicatedKey so callers can report conflicts.
func NewGormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// redis is optional; without an address events are delivered in-process only
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// CORS configuration
type CORSConfig struct {
	TrustedOrigins []string `envconfig:"CORS_TRUSTED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// JWT configuration
type JWTConfig struct {
	Secret       string        `envconfig:"JWT_SECRET" required:"true"`
	RecruiterTTL time.Duration `envconfig:"JWT_RECRUITER_TTL" default:"24h"`
	CandidateTTL time.Duration `envconfig:"JWT_CANDIDATE_TTL" default:"4h"`
}

// AI provider configuration. Gemini credentials are read by the gemini package itself.
type AIConfig struct {
	Provider         string        `envconfig:"AI_PROVIDER" default:"gemini"`
	GeneratorTimeout time.Duration `envconfig:"AI_GENERATOR_TIMEOUT" default:"8s"`
	EvaluatorTimeout time.Duration `envconfig:"AI_EVALUATOR_TIMEOUT" default:"20s"`
}

// severity weights used for integrity and risk
type WeightsConfig struct {
	Low      int `envconfig:"WEIGHT_LOW" default:"2"`
	Medium   int `envconfig:"WEIGHT_MEDIUM" default:"5"`
	High     int `envconfig:"WEIGHT_HIGH" default:"10"`
	Critical int `envconfig:"WEIGHT_CRITICAL" default:"15"`
}

type InterviewConfig struct {
	DefaultDurationSeconds int           `envconfig:"INTERVIEW_DEFAULT_DURATION" default:"1800"`
	LinkExpiry             time.Duration `envconfig:"INTERVIEW_LINK_EXPIRY" default:"24h"`
	SeedQuestions          int           `envconfig:"INTERVIEW_SEED_QUESTIONS" default:"3"`
}

type ProctoringConfig struct {
	RulesFile            string  `envconfig:"PROCTORING_RULES_FILE"`
	SignalRate           float64 `envconfig:"PROCTORING_SIGNAL_RATE" default:"20"`
	SignalBurst          int     `envconfig:"PROCTORING_SIGNAL_BURST" default:"40"`
	EnforceDeviceBinding bool    `envconfig:"ENFORCE_DEVICE_BINDING" default:"false"`
}

// SMTP is optional; without a host notifications are only logged
type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	User     string `envconfig:"SMTP_USER"`
	Password string `envconfig:"SMTP_PASS"`
	From     string `envconfig:"SMTP_FROM" default:"no-reply@intervuex.local"`
	FromName string `envconfig:"SMTP_FROM_NAME" default:"IntervueX"`
}

type AuditConfig struct {
	Store    string `envconfig:"AUDIT_STORE" default:"gorm"`
	MongoURI string `envconfig:"MONGO_URI"`
	MongoDB  string `envconfig:"MONGO_DB" default:"intervuex"`
}

type SweeperConfig struct {
	Enabled  bool   `envconfig:"SWEEPER_ENABLED" default:"false"`
	Schedule string `envconfig:"SWEEPER_SCHEDULE" default:"@every 1m"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.AI.Provider != "gemini" && c.AI.Provider != "none" {
		return fmt.Errorf("unsupported AI provider: %s (supported: gemini, none)", c.AI.Provider)
	}
	if c.AI.GeneratorTimeout <= 0 || c.AI.EvaluatorTimeout <= 0 {
		return fmt.Errorf("AI timeouts must be positive")
	}
	if c.Weights.Low < 0 || c.Weights.Medium < 0 || c.Weights.High < 0 || c.Weights.Critical < 0 {
		return fmt.Errorf("severity weights must be non-negative")
	}
	if c.Interview.DefaultDurationSeconds < 1 {
		return fmt.Errorf("INTERVIEW_DEFAULT_DURATION must be at least 1 second")
	}
	if c.Interview.SeedQuestions < 1 || c.Interview.SeedQuestions > 10 {
		return fmt.Errorf("INTERVIEW_SEED_QUESTIONS must be between 1 and 10 (got %d)", c.Interview.SeedQuestions)
	}
	if c.Proctoring.SignalRate <= 0 || c.Proctoring.SignalBurst < 1 {
		return fmt.Errorf("PROCTORING_SIGNAL_RATE must be positive and PROCTORING_SIGNAL_BURST at least 1")
	}
	switch c.Audit.Store {
	case "gorm":
	case "mongo":
		if c.Audit.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when AUDIT_STORE=mongo")
		}
	default:
		return fmt.Errorf("invalid audit store: %s (must be gorm or mongo)", c.Audit.Store)
	}
	if len(c.GetCORSOrigins()) == 0 {
		return fmt.Errorf("at least one trusted origin must be specified")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GetCORSOrigins returns the list of trusted CORS origins
func (c *Config) GetCORSOrigins() []string {
	origins := make([]string, 0, len(c.CORS.TrustedOrigins))
	for _, origin := range c.CORS.TrustedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, Port=%d, AI.Provider=%s, Redis=%t, SMTP=%t, Audit=%s, Sweeper=%t}",
		c.Env, c.Port, c.AI.Provider, c.Redis.Addr != "", c.SMTP.Host != "", c.Audit.Store, c.Sweeper.Enabled)
}
