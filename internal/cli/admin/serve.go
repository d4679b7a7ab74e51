package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/syllabiq/syllabiq/internal/api/handlers"
	"github.com/syllabiq/syllabiq/internal/config"
	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/jobs"
	"github.com/syllabiq/syllabiq/internal/openai"
	"github.com/syllabiq/syllabiq/internal/pool"
	"github.com/syllabiq/syllabiq/internal/repository"
	"github.com/syllabiq/syllabiq/internal/server"
	"github.com/syllabiq/syllabiq/internal/service"
	"github.com/syllabiq/syllabiq/internal/storage"
	"github.com/syllabiq/syllabiq/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run database migrations and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg := config.MustLoad()

	if err := telemetry.Init(cfg.SentryDSN, cfg.SentryEnvironment, cfg.SentrySampleRate); err != nil {
		return err
	}
	defer telemetry.Flush()

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return err
	}

	db, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()

	deps, err := buildDeps(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer deps.queryPool.Release()

	if err := bootstrap(ctx, cfg, db); err != nil {
		return err
	}

	var worker *jobs.Worker
	if cfg.IndexWorkerEnabled {
		processor := jobs.NewIndexProcessor(
			repository.NewIndexJobRepository(db),
			repository.NewTopicRepository(db),
			deps.indexer,
		)
		worker = jobs.NewWorker(processor, cfg.IndexWorkerInterval)
		worker.Start(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           deps.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serve: listening on %s", cfg.ListenAddr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Println("serve: shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("serve: shutdown: %v", err)
	}
	if worker != nil {
		worker.Stop()
	}
	return nil
}

type serveDeps struct {
	router    http.Handler
	indexer   *service.IndexerService
	queryPool *pool.Pool
}

func buildDeps(ctx context.Context, cfg *config.Config, db repository.DBTX) (*serveDeps, error) {
	chunkRepo := repository.NewChunkRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	jobRepo := repository.NewIndexJobRepository(db)
	keyRepo := repository.NewAPIKeyRepository(db)

	embedder, chat := buildClients(cfg)

	var archiver service.SourceArchiver
	if cfg.HasS3() {
		a, err := storage.NewArchive(ctx, storage.ArchiveConfig{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		archiver = a
	}

	indexer := service.NewIndexerService(embedder, chunkRepo, topicRepo, archiver, service.ChunkingConfig{
		MaxChars:  cfg.ChunkMaxChars,
		MinChars:  cfg.ChunkMinChars,
		Overlap:   cfg.ChunkOverlap,
		MaxChunks: cfg.ChunkMaxPerTopic,
	})
	retriever := service.NewRetrieverService(embedder, chunkRepo)
	generator := service.NewGeneratorService(chat)
	validator := service.NewValidatorService()
	pipeline := service.NewQueryPipeline(
		service.NewIntentClassifier(), retriever, generator, validator,
		service.PipelineConfig{
			MaxAttempts:  cfg.MaxAttempts,
			DefaultTopK:  cfg.DefaultTopK,
			StageTimeout: cfg.StageTimeout,
		},
	)

	queryPool, err := pool.New(pool.Config{Capacity: cfg.QueryPoolSize, MaxWaiting: cfg.QueryQueueSize})
	if err != nil {
		return nil, err
	}

	router := server.NewRouter(server.Deps{
		Auth:  service.NewAuthService(keyRepo),
		Query: handlers.NewQueryHandler(pipeline, queryPool),
		Index: handlers.NewIndexHandler(indexer, topicRepo, jobRepo),
	})

	return &serveDeps{router: router, indexer: indexer, queryPool: queryPool}, nil
}

func buildClients(cfg *config.Config) (service.Embedder, service.ChatCompleter) {
	if !cfg.HasOpenAI() {
		log.Println("serve: no OpenAI key configured, upstream calls will fail deterministically")
		return openai.NewUnavailableClient(cfg.EmbeddingModel, cfg.EmbeddingDimensions),
			openai.UnavailableChatClient{}
	}
	embedder, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
	if err != nil {
		log.Printf("serve: embedding client: %v", err)
		return openai.NewUnavailableClient(cfg.EmbeddingModel, cfg.EmbeddingDimensions),
			openai.UnavailableChatClient{}
	}
	chat, err := openai.NewChatClient(cfg.OpenAIAPIKey, cfg.GenerationModel)
	if err != nil {
		log.Printf("serve: chat client: %v", err)
		return embedder, openai.UnavailableChatClient{}
	}
	return embedder, chat
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("opening database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// bootstrap creates the initial institution and API key when configured and
// absent. Lets a fresh deployment authenticate without manual SQL.
func bootstrap(ctx context.Context, cfg *config.Config, db repository.DBTX) error {
	if cfg.InitInstitutionName == "" || cfg.InitAPIKey == "" {
		return nil
	}
	institutions := repository.NewInstitutionRepository(db)
	keys := repository.NewAPIKeyRepository(db)

	institutionID, err := institutions.GetByName(ctx, cfg.InitInstitutionName)
	if errors.Is(err, domain.ErrInstitutionNotFound) {
		institutionID, err = institutions.Create(ctx, cfg.InitInstitutionName)
	}
	if err != nil {
		return fmt.Errorf("bootstrap institution: %w", err)
	}

	_, err = keys.GetByTokenHash(ctx, service.HashToken(cfg.InitAPIKey))
	if errors.Is(err, domain.ErrAPIKeyNotFound) {
		if !service.IsValidTokenFormat(cfg.InitAPIKey) {
			return fmt.Errorf("bootstrap api key has invalid format")
		}
		err = service.NewAuthService(keys).RegisterKey(ctx, institutionID, cfg.InitAPIKey, "bootstrap")
	}
	if err != nil {
		return fmt.Errorf("bootstrap api key: %w", err)
	}
	log.Printf("serve: bootstrap institution %q ready", cfg.InitInstitutionName)
	return nil
}
