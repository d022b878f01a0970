package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/api/handlers"
	"github.com/brandpulse-ai/brandpulse/internal/config"
	"github.com/brandpulse-ai/brandpulse/internal/database"
	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/brandpulse-ai/brandpulse/internal/guardrail"
	"github.com/brandpulse-ai/brandpulse/internal/jobs"
	"github.com/brandpulse-ai/brandpulse/internal/llm"
	"github.com/brandpulse-ai/brandpulse/internal/pipeline"
	"github.com/brandpulse-ai/brandpulse/internal/repository"
	"github.com/brandpulse-ai/brandpulse/internal/server"
	"github.com/brandpulse-ai/brandpulse/internal/service"
	"github.com/brandpulse-ai/brandpulse/internal/storage"
	"github.com/brandpulse-ai/brandpulse/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the brandpulse API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if a DSN is configured
	if cfg.SentryDSN != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	campaignRepo := repository.NewCampaignRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	runRepo := repository.NewRunRepository(pool)
	insightRepo := repository.NewInsightRepository(pool)
	embeddingJobRepo := repository.NewEmbeddingJobRepository(pool)
	retrievalRepo := repository.NewRetrievalRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var archiver pipeline.Archiver
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiver = s3Client
	}

	var llmClient *llm.Client
	if cfg.HasOpenAI() {
		llmClient = llm.NewClient(cfg.OpenAIAPIKey)
	}

	// Guardrails: heuristics and boundary always run; the classifier
	// needs a generation service.
	heuristics := guardrail.NewHeuristics()
	var classifier *guardrail.Classifier
	if llmClient != nil {
		classifier = guardrail.NewClassifier(llmClient, heuristics)
	}
	guard := guardrail.NewPipeline(heuristics, classifier, guardrail.NewBoundary())

	var runner handlers.PipelineRunner = &unconfiguredRunner{}
	if llmClient != nil && cfg.CollectorURL != "" {
		collector := pipeline.NewHTTPCollector(cfg.CollectorURL)
		scout := pipeline.NewScout(collector, archiver)
		cleaner := pipeline.NewCleaner(heuristics)
		analyst := pipeline.NewAnalyst(llmClient)
		retryCfg := pipeline.DefaultRetryConfig()
		if cfg.MaxStageAttempts > 0 {
			retryCfg.MaxAttempts = cfg.MaxStageAttempts
		}
		runner = pipeline.NewOrchestratorWithConfig(
			runRepo, contentRepo, insightRepo, embeddingJobRepo,
			scout, cleaner, analyst, retryCfg,
		)
	} else {
		log.Println("pipeline runner not configured (OPENAI_API_KEY and COLLECTOR_URL required)")
	}

	var chatProvider handlers.ChatProvider = &unconfiguredChat{}
	if llmClient != nil {
		retriever := service.NewRetrieverServiceWithConfig(retrievalRepo, llmClient, service.RetrieverConfig{
			SimilarityThreshold: cfg.SimilarityThreshold,
			TopK:                cfg.RetrievalTopK,
		})
		intent := service.NewIntentService(llmClient)
		chatProvider = service.NewChatService(guard, intent, retriever, llmClient, conversationRepo, auditRepo)
	}

	var embeddingWorker *jobs.Worker
	if llmClient != nil {
		embeddingSvc := service.NewInsightEmbeddingService(llmClient, insightRepo, txRunner)
		embeddingProcessor := jobs.NewEmbeddingWorker(embeddingJobRepo, embeddingSvc)
		embeddingWorker = jobs.NewWorker("embedding", embeddingProcessor, cfg.WorkerPollInterval)
		go embeddingWorker.Start(ctx)
	}

	routerCfg := server.RouterConfig{
		APIKeys:         cfg.APIKeys,
		CampaignHandler: handlers.NewCampaignHandler(campaignRepo),
		PipelineHandler: handlers.NewPipelineHandler(campaignRepo, runner, runRepo),
		ChatHandler:     handlers.NewChatHandler(chatProvider),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if embeddingWorker != nil {
		embeddingWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type unconfiguredRunner struct{}

func (r *unconfiguredRunner) Start(ctx context.Context, campaign *domain.Campaign) (*domain.PipelineRun, error) {
	return nil, fmt.Errorf("pipeline not configured: OPENAI_API_KEY and COLLECTOR_URL required")
}

type unconfiguredChat struct{}

func (c *unconfiguredChat) Chat(ctx context.Context, input service.ChatInput) (*service.ChatOutput, error) {
	return nil, fmt.Errorf("chat not configured: OPENAI_API_KEY required")
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
