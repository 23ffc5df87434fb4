package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EmbeddingProviderHuggingFace = "huggingface"
	EmbeddingProviderOpenAI      = "openai"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"5000"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	MaxBodyBytes       int64    `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	HFAccessToken string `envconfig:"HF_ACCESS_TOKEN" required:"true"`
	HFBaseURL     string `envconfig:"HF_BASE_URL" default:"https://api-inference.huggingface.co"`

	CorpusPath   string `envconfig:"CORPUS_PATH" default:"raw_data.txt"`
	PersistDir   string `envconfig:"PERSIST_DIR" default:"chroma_db"`
	Collection   string `envconfig:"COLLECTION" default:"langchain"`
	ChunkSize    int    `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap int    `envconfig:"CHUNK_OVERLAP" default:"0"`
	TopK         int    `envconfig:"TOP_K" default:"4"`

	GenerationModel   string        `envconfig:"GENERATION_MODEL" default:"mistralai/Mistral-Nemo-Instruct-2407"`
	MaxNewTokens      int           `envconfig:"MAX_NEW_TOKENS" default:"512"`
	RepetitionPenalty float64       `envconfig:"REPETITION_PENALTY" default:"1.03"`
	GenerationTimeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"60s"`
	GenerationRPM     int           `envconfig:"GENERATION_RPM" default:"0"`

	EmbeddingProvider string `envconfig:"EMBEDDING_PROVIDER" default:"huggingface"`
	EmbeddingModel    string `envconfig:"EMBEDDING_MODEL" default:"sentence-transformers/all-mpnet-base-v2"`
	EmbedBatchSize    int    `envconfig:"EMBED_BATCH_SIZE" default:"32"`
	OpenAIAPIKey      string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel       string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	OpenAIDimensions  int    `envconfig:"OPENAI_EMBEDDING_DIMENSIONS" default:"1536"`

	// Optional pgvector index; the disk index under PersistDir is used otherwise.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	// Query logs are only written when a database is configured.
	QueryLogInterval time.Duration `envconfig:"QUERY_LOG_INTERVAL" default:"5s"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("RAG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HFAccessToken) == "" {
		return fmt.Errorf("HF_ACCESS_TOKEN is required")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap > c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be between 0 and CHUNK_SIZE (%d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.HasDatabase() && c.QueryLogInterval <= 0 {
		return fmt.Errorf("QUERY_LOG_INTERVAL must be positive")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}

	switch c.EmbeddingProvider {
	case EmbeddingProviderHuggingFace:
	case EmbeddingProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER is %q", EmbeddingProviderOpenAI)
		}
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}

	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
