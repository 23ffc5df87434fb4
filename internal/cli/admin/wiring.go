package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/ragserve/internal/config"
	"github.com/cloo-solutions/ragserve/internal/corpus"
	"github.com/cloo-solutions/ragserve/internal/database"
	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/cloo-solutions/ragserve/internal/huggingface"
	"github.com/cloo-solutions/ragserve/internal/index"
	"github.com/cloo-solutions/ragserve/internal/openai"
	"github.com/cloo-solutions/ragserve/internal/repository"
	"github.com/cloo-solutions/ragserve/internal/service"
	"github.com/cloo-solutions/ragserve/internal/storage"
	"github.com/cloo-solutions/ragserve/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addOverrideFlags registers the flags that take precedence over RAG_* variables.
func addOverrideFlags(flags *pflag.FlagSet) {
	flags.String("corpus", "", "Corpus file path or s3://bucket/key (overrides RAG_CORPUS_PATH)")
	flags.String("persist-dir", "", "Disk index directory (overrides RAG_PERSIST_DIR)")
	flags.String("collection", "", "Index collection name (overrides RAG_COLLECTION)")
	flags.Bool("no-migrate", false, "Skip automatic database migrations on startup")
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetString("port")
	}
	if flags.Changed("corpus") {
		cfg.CorpusPath, _ = flags.GetString("corpus")
	}
	if flags.Changed("persist-dir") {
		cfg.PersistDir, _ = flags.GetString("persist-dir")
	}
	if flags.Changed("collection") {
		cfg.Collection, _ = flags.GetString("collection")
	}
}

// loadConfig reads the environment, applies flag overrides and reports
// failures as config-stage startup errors.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, domain.NewStartupError(domain.StartupStageConfig, err)
	}
	applyOverrides(cmd, cfg)
	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	return cfg, nil
}

func initTelemetry(cfg *config.Config) func() {
	if !cfg.HasSentry() {
		return func() {}
	}

	// 10% sampling in production, everything in development
	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
		return func() {}
	}
	return shutdown
}

// components are the long-lived collaborators shared by serve and index.
type components struct {
	loader    *corpus.Loader
	embedder  service.Embedder
	generator *huggingface.Client
	store     index.Store
	pool      *pgxpool.Pool
}

func (c *components) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

func buildComponents(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*components, error) {
	c := &components{}

	loader, err := newCorpusLoader(ctx, cfg)
	if err != nil {
		return nil, domain.NewStartupError(domain.StartupStageConfig, err)
	}
	c.loader = loader

	hf, err := huggingface.NewClient(huggingface.Config{
		BaseURL:           cfg.HFBaseURL,
		Token:             cfg.HFAccessToken,
		GenerationModel:   cfg.GenerationModel,
		EmbeddingModel:    cfg.EmbeddingModel,
		MaxNewTokens:      cfg.MaxNewTokens,
		RepetitionPenalty: cfg.RepetitionPenalty,
		Timeout:           cfg.GenerationTimeout,
		BatchSize:         cfg.EmbedBatchSize,
		RequestsPerMinute: cfg.GenerationRPM,
	})
	if err != nil {
		return nil, domain.NewStartupError(domain.StartupStageConfig, err)
	}
	c.generator = hf

	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderOpenAI:
		c.embedder = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			EmbeddingModel:      goopenai.EmbeddingModel(cfg.OpenAIModel),
			EmbeddingDimensions: cfg.OpenAIDimensions,
			BatchSize:           cfg.EmbedBatchSize,
		})
	default:
		c.embedder = hf
	}

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, domain.NewStartupError(domain.StartupStageIndex, err)
		}
		c.pool = pool
		log.Println("connected to database")

		if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
			if err := database.Migrate(cfg.DatabaseURL); err != nil {
				pool.Close()
				return nil, domain.NewStartupError(domain.StartupStageIndex, fmt.Errorf("failed to run migrations: %w", err))
			}
		}
		c.store = repository.NewChunkRepository(pool, cfg.Collection)
	} else {
		store, err := index.OpenDiskStore(cfg.PersistDir, cfg.Collection)
		if err != nil {
			return nil, domain.NewStartupError(domain.StartupStageIndex, err)
		}
		log.Printf("using disk index at %s", store.Path())
		c.store = store
	}

	return c, nil
}

func newS3Client(ctx context.Context, cfg *config.Config) (*storage.S3Client, error) {
	return storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		UsePathStyle:    true,
	})
}

func newCorpusLoader(ctx context.Context, cfg *config.Config) (*corpus.Loader, error) {
	if !cfg.HasS3() {
		return corpus.NewLoader(), nil
	}
	s3Client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return corpus.NewLoaderWithObjects(s3Client), nil
}

func startupConfig(cfg *config.Config) service.StartupConfig {
	return service.StartupConfig{
		CorpusSource: cfg.CorpusPath,
		Collection:   cfg.Collection,
		Chunk: service.ChunkConfig{
			Size:      cfg.ChunkSize,
			Overlap:   cfg.ChunkOverlap,
			Separator: service.DefaultChunkConfig().Separator,
		},
	}
}
