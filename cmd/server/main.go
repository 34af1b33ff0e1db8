package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intervuex/internal/access"
	"intervuex/internal/auth"
	"intervuex/internal/config"
	"intervuex/internal/handlers"
	"intervuex/internal/integrity"
	"intervuex/internal/jobs"
	"intervuex/internal/lifecycle"
	"intervuex/internal/llm"
	_ "intervuex/internal/llm/gemini"
	"intervuex/internal/metrics"
	"intervuex/internal/models"
	"intervuex/internal/notify"
	"intervuex/internal/prompts"
	"intervuex/internal/questions"
	"intervuex/internal/realtime"
	"intervuex/internal/repositories"
	mongorepo "intervuex/internal/repositories/mongo"
	"intervuex/internal/resume"
	"intervuex/internal/routers"
	"intervuex/internal/scoring"
	"intervuex/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type auditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

// initDatabase opens PostgreSQL and migrates every table
func initDatabase(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), config.NewGormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// initRedis returns nil when no address is configured.
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// initAI picks the question generator and answer evaluator. The pool and the heuristic
// evaluator always back the provider up.
func initAI(cfg config.AIConfig, pool *questions.Pool, logger *zap.Logger) (questions.Generator, scoring.AnswerEvaluator, error) {
	poolGen := questions.NewPoolGenerator(pool, time.Now().UnixNano())
	if cfg.Provider == "none" {
		return poolGen, scoring.HeuristicEvaluator{}, nil
	}

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}
	provider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize AI provider: %w", err)
	}
	logger.Info("AI provider ready", zap.String("provider", provider.GetProviderName()))

	generator := questions.WithFallback(questions.NewAIGenerator(provider, promptManager), poolGen, cfg.GeneratorTimeout, logger)
	return generator, scoring.NewAIEvaluator(provider, promptManager), nil
}

func initClassifier(path string) (*integrity.Classifier, error) {
	rules, err := integrity.LoadRules(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load proctoring rules: %w", err)
	}
	return integrity.NewClassifier(rules), nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("Configuration loaded", zap.String("config", cfg.String()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := initDatabase(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to initialize redis", zap.Error(err))
	}

	sessions := &repositories.SessionRepository{DB: db}
	recruiters := &repositories.RecruiterRepository{DB: db}
	candidates := &repositories.CandidateRepository{DB: db}
	questionRepo := &repositories.QuestionRepository{DB: db}
	violations := &repositories.ViolationRepository{DB: db}
	scores := &repositories.ScoreRepository{DB: db}

	var audit auditStore = &repositories.AuditRepository{DB: db}
	var mongoClient *mongorepo.Client
	if cfg.Audit.Store == "mongo" {
		mongoClient, err = mongorepo.NewClient(ctx, cfg.Audit.MongoURI, cfg.Audit.MongoDB)
		if err != nil {
			logger.Fatal("Failed to connect to mongo", zap.Error(err))
		}
		mongoAudit, err := mongorepo.NewAuditRepository(mongoClient)
		if err != nil {
			logger.Fatal("Failed to initialize mongo audit store", zap.Error(err))
		}
		audit = mongoAudit
		logger.Info("Audit log stored in mongo", zap.String("db", cfg.Audit.MongoDB))
	}

	hub := realtime.NewHub()
	broker := realtime.NewBroker(hub, rdb, logger)
	if rdb != nil {
		if err := broker.Subscribe(ctx); err != nil {
			logger.Fatal("Failed to subscribe to session events", zap.Error(err))
		}
	}

	pool, err := questions.LoadPool()
	if err != nil {
		logger.Fatal("Failed to load question pool", zap.Error(err))
	}
	generator, evaluator, err := initAI(cfg.AI, pool, logger)
	if err != nil {
		logger.Fatal("Failed to initialize AI", zap.Error(err))
	}
	extractor, err := resume.NewKeywordExtractor()
	if err != nil {
		logger.Fatal("Failed to initialize resume extractor", zap.Error(err))
	}
	classifier, err := initClassifier(cfg.Proctoring.RulesFile)
	if err != nil {
		logger.Fatal("Failed to initialize signal classifier", zap.Error(err))
	}

	weights := integrity.Weights{
		Low:      cfg.Weights.Low,
		Medium:   cfg.Weights.Medium,
		High:     cfg.Weights.High,
		Critical: cfg.Weights.Critical,
	}
	notifier := notify.New(cfg.SMTP, logger)
	tokens := auth.NewTokenService(cfg.JWT)

	questionEngine := questions.NewEngine(questionRepo, sessions, candidates, generator, pool, cfg.Interview.SeedQuestions, logger)
	scoringEngine := scoring.NewEngine(evaluator, weights, cfg.AI.EvaluatorTimeout, logger)
	scoringService := scoring.NewService(scoringEngine, scores, questionRepo, violations, sessions, audit, logger)
	manager := lifecycle.NewManager(sessions, scoringService, broker, audit, notifier, recruiters, candidates, logger)
	integrityService := integrity.NewService(violations, sessions, broker, audit, weights, logger)
	ingestor := integrity.NewSignalIngestor(classifier, integrityService, logger)

	authHandler := handlers.NewAuthHandler(access.NewValidator(sessions, audit, cfg.Proctoring.EnforceDeviceBinding, logger), recruiters, tokens, logger)
	interviewHandler := handlers.NewInterviewHandler(manager, questionEngine, logger)
	proctoringHandler := handlers.NewProctoringHandler(integrityService, sessions, logger)
	recruiterHandler := handlers.NewRecruiterHandler(handlers.RecruiterDeps{
		Sessions:   sessions,
		Candidates: candidates,
		Records:    questionRepo,
		Shortlist:  scores,
		Questions:  questionEngine,
		Scoring:    scoringService,
		Lifecycle:  manager,
		Integrity:  integrityService,
		Extractor:  extractor,
	}, handlers.SchedulingConfig{
		BaseURL:         cfg.BaseURL,
		DefaultDuration: cfg.Interview.DefaultDurationSeconds,
		LinkExpiry:      cfg.Interview.LinkExpiry,
	}, logger)
	wsHandler := realtime.NewHandler(hub, tokens, sessions, ingestor, realtime.RateConfig{
		PerSecond: cfg.Proctoring.SignalRate,
		Burst:     cfg.Proctoring.SignalBurst,
	}, logger)

	checks := map[string]handlers.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	healthHandler := handlers.NewHealthHandler(checks)

	sweeper := jobs.NewExpirySweeper(sessions, manager, jobs.SweeperConfig{
		Enabled:  cfg.Sweeper.Enabled,
		Schedule: cfg.Sweeper.Schedule,
	}, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start expiry sweeper", zap.Error(err))
	}

	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.GetCORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", handlers.FingerprintHeader},
		AllowCredentials: true,
	}))

	// no Timeout middleware: it would cut websocket connections
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, metrics.Middleware)

	routers.HealthRoutes(router, healthHandler)
	routers.AuthRoutes(router, authHandler, tokens)
	routers.InterviewRoutes(router, interviewHandler, tokens)
	routers.ProctoringRoutes(router, proctoringHandler, tokens)
	routers.RecruiterRoutes(router, recruiterHandler, tokens)
	routers.RealtimeRoutes(router, wsHandler)

	serverAddr := cfg.GetServerAddr()
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("IntervueX server starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("IntervueX server shutting down...")
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	// completion emails still in flight
	manager.Wait()
	cancel()

	if rdb != nil {
		_ = rdb.Close()
	}
	if mongoClient != nil {
		_ = mongoClient.Close(shutdownCtx)
	}
	logger.Info("IntervueX server exited")
}
