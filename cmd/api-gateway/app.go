package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/hrm-case-api/internal/handler"
	"github.com/noah-isme/hrm-case-api/internal/repository"
	"github.com/noah-isme/hrm-case-api/internal/service"
	"github.com/noah-isme/hrm-case-api/pkg/cache"
	"github.com/noah-isme/hrm-case-api/pkg/config"
	"github.com/noah-isme/hrm-case-api/pkg/database"
	"github.com/noah-isme/hrm-case-api/pkg/geocode"
	"github.com/noah-isme/hrm-case-api/pkg/jobs"
	"github.com/noah-isme/hrm-case-api/pkg/storage"
)

// application owns every long-lived dependency of the API process.
type application struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	redis  *redis.Client
	queue  *jobs.Queue

	metrics *service.MetricsService
	auth    *service.AuthService

	authHandler      *handler.AuthHandler
	reportHandler    *handler.ReportHandler
	caseHandler      *handler.CaseHandler
	evidenceHandler  *handler.EvidenceHandler
	labelHandler     *handler.ViolationTypeHandler
	analyticsHandler *handler.AnalyticsHandler
	metricsHandler   *handler.MetricsHandler
}

func newApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*application, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &application{cfg: cfg, logger: logger, db: db, redis: redisClient}
	app.metrics = service.NewMetricsService()
	app.queue = jobs.NewQueue("background", jobs.QueueConfig{
		Workers:     cfg.History.RetryWorkers,
		MaxAttempts: cfg.History.RetryAttempts,
		RetryDelay:  cfg.History.RetryDelay,
		Logger:      logger,
	})
	app.metrics.TrackHistoryQueue(app.queue)

	validate := validator.New()

	reports := repository.NewReportRepository(db)
	cases := repository.NewCaseRepository(db)
	evidenceRepo := repository.NewEvidenceRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)
	users := repository.NewUserRepository(db)
	labelsRepo := repository.NewViolationTypeRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logger)

	cacheSvc := service.NewCacheService(cacheRepo, app.metrics, cfg.Analytics.CacheTTL, logger, redisClient != nil)
	history := service.NewHistoryRecorder(historyRepo, app.queue, logger)
	signer := storage.NewSignedURLSigner(cfg.Evidence.SignedURLSecret, cfg.Evidence.SignedURLTTL)
	evidence := service.NewEvidenceService(blobs, evidenceRepo, signer, app.queue, logger, service.EvidenceConfig{
		APIPrefix: cfg.APIPrefix,
		Timeout:   cfg.Storage.Timeout,
	})
	labels := service.NewViolationTypeService(labelsRepo, validate, logger, cfg.Analytics.CacheTTL)

	app.auth = service.NewAuthService(users, validate, logger, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	intake := service.NewIntakeService(reports, evidence, geocode.NewClient(cfg.Geocoder, logger), validate, app.metrics, logger, service.IntakeConfig{
		AllowAnonymous: cfg.Reports.AllowAnonymousSubmit,
		MaxFileSize:    cfg.Evidence.MaxFileSizeBytes,
		AllowedMIMEs:   cfg.Evidence.AllowedMIMEs,
		GeocodeTimeout: cfg.Geocoder.Timeout,
	})
	review := service.NewReviewService(reports, history, cacheSvc, app.metrics, validate, logger)
	caseSvc := service.NewCaseService(cases, reports, evidenceRepo, labels, history, cacheSvc, app.metrics, validate, logger)
	exporter := service.NewExportService(cases, app.metrics, logger, 0)
	analytics := service.NewAnalyticsService(analyticsRepo, cacheSvc, app.metrics, logger)

	app.authHandler = handler.NewAuthHandler(app.auth)
	app.reportHandler = handler.NewReportHandler(intake, review, caseSvc, logger)
	app.caseHandler = handler.NewCaseHandler(caseSvc, exporter)
	app.evidenceHandler = handler.NewEvidenceHandler(evidence)
	app.labelHandler = handler.NewViolationTypeHandler(labels)
	app.analyticsHandler = handler.NewAnalyticsHandler(analytics)
	app.metricsHandler = handler.NewMetricsHandler(app.metrics, app.readinessChecks(cacheRepo), logger)

	app.queue.Start(ctx)
	return app, nil
}

func newBlobStore(ctx context.Context, cfg config.StorageConfig) (service.BlobStore, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("init s3 client: %w", err)
		}
		return storage.NewS3Storage(client, cfg.S3.Bucket)
	case config.StorageDriverLocal, "":
		return storage.NewLocalStorage(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (a *application) readinessChecks(cacheRepo *repository.CacheRepository) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error { return a.db.PingContext(ctx) },
	}
	if a.redis != nil {
		checks["redis"] = cacheRepo.Ping
	}
	return checks
}

// Close stops background work and releases connections.
func (a *application) Close() {
	a.queue.Stop()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("database close failed", zap.Error(err))
	}
}
