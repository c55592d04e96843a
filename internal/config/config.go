// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	SessionBackendDynamo = "dynamodb"
	SessionBackendFile   = "file"
)

// Config holds all application configuration.
type Config struct {
	Port             string
	SessionBackend   string
	StateTable       string
	SessionDir       string
	ParamPrefix      string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	ChatModel        string
	EmbeddingModel   string
	VectorDBPath     string
	CorpusDir        string
	MaxMessageLength int
	Flow             FlowConfig
	Retrieval        RetrievalConfig
}

// FlowConfig controls dwell minimums of the dialogue phases.
type FlowConfig struct {
	MinRoomTurns   int
	MinDrawerTurns int
}

// RetrievalConfig controls background passage lookup.
type RetrievalConfig struct {
	TopK              int
	Threshold         float64
	FallbackThreshold float64
	CacheSize         int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		SessionBackend:   strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendDynamo)),
		StateTable:       getEnv("STATE_TABLE", ""),
		SessionDir:       getEnv("SESSION_DIR", "./data/sessions"),
		ParamPrefix:      strings.TrimRight(getEnv("PARAM_PREFIX", ""), "/"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ChatModel:        getEnv("CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		VectorDBPath:     getEnv("VECTOR_DB_PATH", "./data/passages.db"),
		CorpusDir:        getEnv("CORPUS_DIR", ""),
		MaxMessageLength: getEnvInt("MAX_MESSAGE_LENGTH", 500),
		Flow: FlowConfig{
			MinRoomTurns:   getEnvInt("MIN_ROOM_TURNS", 5),
			MinDrawerTurns: getEnvInt("MIN_DRAWER_TURNS", 5),
		},
		Retrieval: RetrievalConfig{
			TopK:              getEnvInt("RETRIEVAL_TOP_K", 3),
			Threshold:         getEnvFloat("RETRIEVAL_THRESHOLD", 0.45),
			FallbackThreshold: getEnvFloat("RETRIEVAL_FALLBACK_THRESHOLD", 0.35),
			CacheSize:         getEnvInt("EMBEDDING_CACHE_SIZE", 512),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case SessionBackendDynamo:
		if c.StateTable == "" {
			return fmt.Errorf("STATE_TABLE cannot be empty with the dynamodb session backend")
		}
	case SessionBackendFile:
		if c.SessionDir == "" {
			return fmt.Errorf("SESSION_DIR cannot be empty with the file session backend")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q", SessionBackendDynamo, SessionBackendFile)
	}
	if c.ParamPrefix == "" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("either PARAM_PREFIX or OPENAI_API_KEY must be set")
	}
	if c.ChatModel == "" || c.EmbeddingModel == "" {
		return fmt.Errorf("CHAT_MODEL and EMBEDDING_MODEL cannot be empty")
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("MAX_MESSAGE_LENGTH must be > 0")
	}
	if c.Flow.MinRoomTurns <= 0 || c.Flow.MinDrawerTurns <= 0 {
		return fmt.Errorf("MIN_ROOM_TURNS and MIN_DRAWER_TURNS must be > 0")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be > 0")
	}
	if c.Retrieval.FallbackThreshold > c.Retrieval.Threshold {
		return fmt.Errorf("RETRIEVAL_FALLBACK_THRESHOLD must not exceed RETRIEVAL_THRESHOLD")
	}
	if c.Retrieval.CacheSize <= 0 {
		return fmt.Errorf("EMBEDDING_CACHE_SIZE must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
