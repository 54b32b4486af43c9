package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lex-technology/workwise-backend/internal/analyses"
	"github.com/lex-technology/workwise-backend/internal/applications"
	googleauth "github.com/lex-technology/workwise-backend/internal/auth"
	"github.com/lex-technology/workwise-backend/internal/credits"
	"github.com/lex-technology/workwise-backend/internal/ingest"
	"github.com/lex-technology/workwise-backend/internal/llm"
	openai "github.com/lex-technology/workwise-backend/internal/llm/openai"
	"github.com/lex-technology/workwise-backend/internal/parsedresumes"
	"github.com/lex-technology/workwise-backend/internal/parser"
	"github.com/lex-technology/workwise-backend/internal/queue"
	"github.com/lex-technology/workwise-backend/internal/services/health"
	"github.com/lex-technology/workwise-backend/internal/shared/config"
	"github.com/lex-technology/workwise-backend/internal/shared/server"
	"github.com/lex-technology/workwise-backend/internal/shared/server/middleware"
	"github.com/lex-technology/workwise-backend/internal/shared/storage/db"
	"github.com/lex-technology/workwise-backend/internal/shared/storage/object"
	localstore "github.com/lex-technology/workwise-backend/internal/shared/storage/object/local"
	s3store "github.com/lex-technology/workwise-backend/internal/shared/storage/object/s3"
	"github.com/lex-technology/workwise-backend/internal/users"
)

// App holds the wired dependency graph. Every service and repo is exported
// so tests can reach in and swap collaborators after Build.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	// Queue is nil when no backend is configured; JD analyses then run
	// inline. QueueConsumer drives the worker binary.
	Queue         queue.Client
	QueueConsumer queue.Consumer

	UsersRepo         users.Repo
	ApplicationsRepo  applications.Repo
	ParsedResumesRepo parsedresumes.Repo

	CreditsService       *credits.Service
	UsersService         *users.Service
	ApplicationsService  *applications.Service
	ParsedResumesService *parsedresumes.Service
	ParserService        *parser.Service
	AnalysesService      *analyses.Service
	IngestService        *ingest.Service
	HealthService        *health.Service

	IngestHandler        *ingest.Handler
	ApplicationsHandler  *applications.Handler
	ParsedResumesHandler *parsedresumes.Handler
	AnalysesHandler      *analyses.Handler
	CreditsHandler       *credits.Handler
	UsersHandler         *users.Handler
	GoogleAuth           *googleauth.GoogleService
}

// Build prepares the dependency graph and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, queueConsumer, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rateCounter, err := buildRateCounter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:        cfg,
		DB:            sqlDB,
		Store:         store,
		Queue:         queueClient,
		QueueConsumer: queueConsumer,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        app.Config,
		Health:        app.HealthService,
		Ingest:        app.IngestHandler,
		Applications:  app.ApplicationsHandler,
		ParsedResumes: app.ParsedResumesHandler,
		Analyses:      app.AnalysesHandler,
		Credits:       app.CreditsHandler,
		Users:         app.UsersHandler,
		GoogleAuth:    app.GoogleAuth,
		RateCounter:   rateCounter,
	})

	return app, nil
}

// Close releases held connections.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	// Production schema changes go through cmd/migrate as a deploy step.
	// Dev instances migrate on boot so a fresh database just works.
	if isDevLike(cfg.Env) {
		version, err := db.RunMigrations(ctx, sqlDB)
		if err != nil {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			_ = sqlDB.Close()
			return nil, nil
		}
		log.Printf("bootstrap: database schema at version %d", version)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, queue.Consumer, error) {
	switch cfg.QueueBackend {
	case "sqs":
		if strings.TrimSpace(cfg.SQSQueueURL) == "" {
			return nil, nil, fmt.Errorf("ANALYSIS_QUEUE_BACKEND=sqs requires ANALYSIS_SQS_QUEUE_URL")
		}
		client, err := queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	case "amqp":
		if strings.TrimSpace(cfg.AMQPURL) == "" {
			return nil, nil, fmt.Errorf("ANALYSIS_QUEUE_BACKEND=amqp requires AMQP_URL")
		}
		client, err := queue.NewAMQPClient(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	default:
		return nil, nil, nil
	}
}

func buildRateCounter(ctx context.Context, cfg config.Config) (middleware.CounterStore, error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil, nil
	}
	counter := middleware.NewRedisCounter(cfg.RedisAddr)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := counter.Ping(pingCtx); err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: redis unreachable; rate limits are per-process: %v", err)
			return nil, nil
		}
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return counter, nil
}

func buildLLMClient(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider == "placeholder" {
		return llm.PlaceholderClient{}, nil
	}
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: no %s API key; provider calls will fail until one is set", cfg.LLMProvider)
			return llm.PlaceholderClient{}, nil
		}
		return nil, fmt.Errorf("LLM provider %q requires an API key", cfg.LLMProvider)
	}
	return openai.NewClient(openai.Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.AnalysisModel,
		Timeout: cfg.LLMTimeout,
	})
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var usersRepo users.Repo
	var appsRepo applications.Repo
	var parsedRepo parsedresumes.Repo

	if app.DB != nil {
		usersRepo = &users.PGRepo{DB: app.DB}
		appsRepo = &applications.PGRepo{DB: app.DB}
		parsedRepo = &parsedresumes.PGRepo{DB: app.DB}
	} else {
		usersRepo = users.NewMemoryRepo()
		appsRepo = applications.NewMemoryRepo()
		parsedRepo = parsedresumes.NewMemoryRepo()
	}

	var creditsSvc *credits.Service
	if app.DB != nil {
		creditsSvc = credits.NewPostgresService(credits.NewPGStore(app.DB))
	} else {
		creditsSvc = credits.NewService()
	}

	llmClient, err := buildLLMClient(app.Config)
	if err != nil {
		return err
	}

	usersSvc := users.NewService(usersRepo)

	appsSvc := &applications.Service{
		Repo:     appsRepo,
		Profiles: creditsSvc,
	}

	parsedSvc := &parsedresumes.Service{
		Repo: parsedRepo,
		Apps: applicationUseAdapter{repo: appsRepo},
	}

	parserSvc := parser.NewService(llmClient, app.Config.ParseModel)

	analysesSvc := &analyses.Service{
		Apps:     appsSvc,
		Credits:  creditsSvc,
		LLM:      llmClient,
		JobQueue: app.Queue,
	}

	ingestSvc := &ingest.Service{
		Parsed: parsedSvc,
		Apps:   appsSvc,
		Parser: parserSvc,
		Store:  app.Store,
	}

	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
	)
	googleAuthSvc.Users = usersSvc
	googleAuthSvc.Credits = creditsSvc

	app.UsersRepo = usersRepo
	app.ApplicationsRepo = appsRepo
	app.ParsedResumesRepo = parsedRepo
	app.CreditsService = creditsSvc
	app.UsersService = usersSvc
	app.ApplicationsService = appsSvc
	app.ParsedResumesService = parsedSvc
	app.ParserService = parserSvc
	app.AnalysesService = analysesSvc
	app.IngestService = ingestSvc
	app.HealthService = health.NewService()

	app.IngestHandler = ingest.NewHandler(ingestSvc)
	app.ApplicationsHandler = applications.NewHandler(appsSvc)
	app.ParsedResumesHandler = parsedresumes.NewHandler(parsedSvc)
	app.AnalysesHandler = analyses.NewHandler(analysesSvc)
	app.CreditsHandler = credits.NewHandler(creditsSvc)
	app.UsersHandler = users.NewHandler(usersSvc)
	app.GoogleAuth = googleAuthSvc

	return nil
}

// applicationUseAdapter narrows the applications repo to the last-use view
// the parse cache listing needs.
type applicationUseAdapter struct {
	repo applications.Repo
}

func (a applicationUseAdapter) LatestByParsedResume(ctx context.Context, parsedResumeIDs []int64) (map[int64]parsedresumes.LastUse, error) {
	uses, err := a.repo.LatestByParsedResume(ctx, parsedResumeIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]parsedresumes.LastUse, len(uses))
	for id, use := range uses {
		out[id] = parsedresumes.LastUse{
			Company: use.Company,
			Role:    use.Role,
			Date:    use.CreatedAt,
		}
	}
	return out, nil
}
