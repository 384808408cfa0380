package config

import (
	"time"

	"github.com/caarlos0/env/v10"

	"pathfinder-llm/internal/llm"
	"pathfinder-llm/internal/service"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	LLMProvider  string        `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMAPIKey    string        `env:"LLM_API_KEY"`
	LLMBaseURL   string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel     string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	LLMTimeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"20s"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret    string        `env:"JWT_SECRET"`
	JWTAccessTTL time.Duration `env:"JWT_ACCESS_TTL" envDefault:"60m"`

	RecommendationEvery       int           `env:"RECOMMENDATION_EVERY" envDefault:"2"`
	RecommendationMinMessages int           `env:"RECOMMENDATION_MIN_MESSAGES" envDefault:"8"`
	GenerativeFailureLimit    int           `env:"GENERATIVE_FAILURE_LIMIT" envDefault:"1"`
	CatalogSource             string        `env:"CATALOG_SOURCE"`
	CatalogFile               string        `env:"CATALOG_FILE" envDefault:"catalog/occupations.yaml"`
	CatalogCacheTTL           time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"10m"`
	CatalogSampleSize         int           `env:"CATALOG_SAMPLE_SIZE" envDefault:"40"`
	TurnLockTTL               time.Duration `env:"TURN_LOCK_TTL" envDefault:"60s"`
	MessageRateLimit          int           `env:"MESSAGE_RATE_LIMIT" envDefault:"30"`
	MessageRateWindow         time.Duration `env:"MESSAGE_RATE_WINDOW" envDefault:"1m"`

	LogJSON  bool `env:"LOG_JSON" envDefault:"false"`
	LogDebug bool `env:"LOG_DEBUG" envDefault:"false"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// OrchestratorSettings traduce la configuracion a los parametros del orquestador.
func (c *Config) OrchestratorSettings() service.OrchestratorSettings {
	return service.OrchestratorSettings{
		RecommendationEvery:       c.RecommendationEvery,
		RecommendationMinMessages: c.RecommendationMinMessages,
		GenerativeFailureLimit:    c.GenerativeFailureLimit,
		CollaboratorTimeout:       c.LLMTimeout,
		CatalogSource:             c.CatalogSource,
		CatalogSampleSize:         c.CatalogSampleSize,
	}
}

// LLMOptions arma las opciones del proveedor de LLM elegido.
func (c *Config) LLMOptions() llm.ProviderOptions {
	return llm.ProviderOptions{
		Provider:     c.LLMProvider,
		APIKey:       c.LLMAPIKey,
		BaseURL:      c.LLMBaseURL,
		Model:        c.LLMModel,
		GeminiAPIKey: c.GeminiAPIKey,
		GeminiModel:  c.GeminiModel,
		Timeout:      c.LLMTimeout,
	}
}
