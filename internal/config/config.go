package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	Username  string
	Password  string
	JWTSecret string
	TokenTTL  time.Duration
}

type LLMConfig struct {
	GeminiKey          string
	OpenAIKey          string
	AnthropicKey       string
	OllamaURL          string
	DefaultProvider    string
	DefaultModel       string
	DefaultTemperature float64
	FallbackProvider   string
	MaxRetries         int
	MaxOutputTokens    int
}

type WorkerConfig struct {
	Concurrency int
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, is loaded first without overriding set variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tokenTTL, err := getEnvDuration("AUTH_TOKEN_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_TTL: %w", err)
	}

	temperature, err := getEnvFloat("LLM_DEFAULT_TEMPERATURE", 0.7)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_DEFAULT_TEMPERATURE: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	maxOutputTokens, err := getEnvInt("LLM_MAX_OUTPUT_TOKENS", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_OUTPUT_TOKENS: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			Username:  getEnv("AUTH_USERNAME", ""),
			Password:  getEnv("AUTH_PASSWORD", ""),
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			TokenTTL:  tokenTTL,
		},
		LLM: LLMConfig{
			GeminiKey:          getEnv("GEMINI_API_KEY", ""),
			OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:       getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:          getEnv("OLLAMA_URL", ""),
			DefaultProvider:    getEnv("LLM_DEFAULT_PROVIDER", "gemini"),
			DefaultModel:       getEnv("LLM_DEFAULT_MODEL", "gemini-2.0-flash"),
			DefaultTemperature: temperature,
			FallbackProvider:   getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:         maxRetries,
			MaxOutputTokens:    maxOutputTokens,
		},
		Worker: WorkerConfig{
			Concurrency: concurrency,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports the required variables that are missing. The database is
// optional; without it the API keeps data in memory.
func (c *Config) Validate() error {
	var missing []string
	if c.Auth.Username == "" {
		missing = append(missing, "AUTH_USERNAME")
	}
	if c.Auth.Password == "" {
		missing = append(missing, "AUTH_PASSWORD")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.LLM.DefaultTemperature < 0 || c.LLM.DefaultTemperature > 1 {
		return fmt.Errorf("LLM_DEFAULT_TEMPERATURE must be within [0,1], got %v", c.LLM.DefaultTemperature)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
