package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	backend_api_client "property-browser-service/internal/adapters/backend_api_client"
	"property-browser-service/internal/adapters/clock"
	logger_adapter "property-browser-service/internal/adapters/logger"
	"property-browser-service/internal/adapters/metrics"
	postgres_adapter "property-browser-service/internal/adapters/postgres"
	rabbitmq_adapter "property-browser-service/internal/adapters/rabbitmq"
	redis_adapter "property-browser-service/internal/adapters/redis"
	"property-browser-service/internal/adapters/rest"
	"property-browser-service/internal/adapters/scheduler"
	"property-browser-service/internal/configs"
	"property-browser-service/internal/constants"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/contracts"
	"property-browser-service/internal/core/port"
	"property-browser-service/internal/core/usecase"
	fluentlogger "property-browser-service/pkg/fluent_logger"
	"property-browser-service/pkg/postgres"
	"property-browser-service/pkg/rabbitmq/rabbitmq_common"
	"property-browser-service/pkg/rabbitmq/rabbitmq_producer"
	redisclient "property-browser-service/pkg/redis"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

const rateLimiterIdleTTL = 30 * time.Minute

type App struct {
	config     *configs.AppConfig
	apiServer  *rest.Server
	scheduler  *scheduler.Scheduler
	registry   *usecase.SessionRegistry
	vocabulary *usecase.VocabularyService

	redisClient  *goredis.Client
	dbPool       *pgxpool.Pool
	connManager  *rabbitmq_common.ConnectionManager
	publisher    *rabbitmq_producer.Publisher
	fluentClient *fluent.Fluent
	logger       port.LoggerPort
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ЛОГГЕРЫ ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    logger_adapter.ParseLevel(appConfig.StdoutLogger.Level),
		IsJSON:   appConfig.StdoutLogger.IsJSON,
		UseColor: !appConfig.StdoutLogger.IsJSON,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
			Async:     true,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, logger_adapter.ParseLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{"service_name": appConfig.AppName})
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	app := &App{
		config:       appConfig,
		fluentClient: fluentClient,
		logger:       appLogger,
	}

	// --- 2. ИНФРАСТРУКТУРА ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	app.redisClient, err = redisclient.NewClient(initCtx, redisclient.Config{
		Addr:     appConfig.Redis.Addr,
		Password: appConfig.Redis.Password,
		DB:       appConfig.Redis.DB,
	})
	if err != nil {
		appLogger.Error("Failed to connect to Redis", err, nil)
		app.closeInfrastructure()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	appLogger.Info("Successfully connected to Redis", port.Fields{"addr": appConfig.Redis.Addr})

	var inquiryRepo port.InquiryRepositoryPort
	if appConfig.Database.URL != "" {
		app.dbPool, err = postgres.NewClient(initCtx, postgres.Config{
			DatabaseURL: appConfig.Database.URL,
			MaxConns:    appConfig.Database.MaxConns,
		})
		if err != nil {
			appLogger.Error("Failed to connect to PostgreSQL", err, nil)
			app.closeInfrastructure()
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		repo, err := postgres_adapter.NewPostgresInquiryRepository(app.dbPool)
		if err != nil {
			app.closeInfrastructure()
			return nil, fmt.Errorf("failed to create inquiry repository: %w", err)
		}
		if err := repo.EnsureSchema(initCtx); err != nil {
			appLogger.Error("Failed to prepare inquiries table", err, nil)
			app.closeInfrastructure()
			return nil, err
		}
		inquiryRepo = repo
		appLogger.Info("Successfully connected to PostgreSQL pool!", nil)
	} else {
		appLogger.Warn("DATABASE_URL is empty, inquiries will not be stored", nil)
	}

	var inquiryPublisher port.InquiryPublisherPort
	if appConfig.RabbitMQ.URL != "" {
		connLogger := rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "RabbitMQConnectionManager"}))
		app.connManager, err = rabbitmq_common.NewConnectionManager(appConfig.RabbitMQ.URL, connLogger)
		if err != nil {
			appLogger.Error("Failed to connect to RabbitMQ", err, nil)
			app.closeInfrastructure()
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}

		app.publisher, err = rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			ExchangeName:             constants.ExchangeLeads,
			ExchangeType:             "topic",
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
			Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "RabbitMQProducer"})),
		}, app.connManager)
		if err != nil {
			appLogger.Error("Failed to create RabbitMQ publisher", err, nil)
			app.closeInfrastructure()
			return nil, fmt.Errorf("failed to create rabbitmq publisher: %w", err)
		}

		publisher, err := rabbitmq_adapter.NewInquiryPublisher(app.publisher, constants.RoutingKeyInquiryNew)
		if err != nil {
			app.closeInfrastructure()
			return nil, err
		}
		inquiryPublisher = publisher
		appLogger.Info("RabbitMQ publisher initialized", port.Fields{"exchange": constants.ExchangeLeads})
	} else {
		appLogger.Warn("RABBITMQ_URL is empty, inquiry events will not be published", nil)
	}

	// --- 3. АДАПТЕРЫ И USE CASES ---
	promMetrics := metrics.NewPrometheusMetrics(true)
	realClock := clock.New()
	backendClient := backend_api_client.NewClient(appConfig.Backend.BaseURL, appConfig.Backend.Timeout, promMetrics)

	var pageCache port.PropertyPageCachePort
	if appConfig.Redis.PageCacheTTL > 0 {
		pageCache = redis_adapter.NewPageCache(app.redisClient, appConfig.Redis.PageCacheTTL)
	}

	vocabulary := usecase.NewVocabularyService(backendClient)
	app.vocabulary = vocabulary

	app.registry = usecase.NewSessionRegistry(usecase.BrowseConfig{
		DebounceDelay:    appConfig.Browse.DebounceDelay,
		RecordTTL:        appConfig.Browse.RecordTTL,
		PageLimit:        appConfig.Browse.PageLimit,
		MapBatchSize:     appConfig.Browse.MapBatchSize,
		MapBatchDelay:    appConfig.Browse.MapBatchDelay,
		MapMaxProperties: appConfig.Browse.MapMaxProperties,
		SessionIdleTTL:   appConfig.Browse.SessionIdleTTL,
	}, usecase.SessionDeps{
		Storage:    redis_adapter.NewFilterStorage(app.redisClient),
		Validator:  contracts.RecordValidator{},
		API:        backendClient,
		PageCache:  pageCache,
		Vocabulary: vocabulary,
		Clock:      realClock,
		Metrics:    promMetrics,
		Logger:     baseLogger,
	})

	createInquiryUseCase := usecase.NewCreateInquiryUseCase(usecase.InquiryConfig{
		AgentPhone:      appConfig.Inquiry.AgentPhone,
		DefaultCurrency: appConfig.Inquiry.DefaultCurrency,
	}, inquiryRepo, inquiryPublisher, realClock)

	// --- 4. ФОНОВЫЕ ЗАДАЧИ ---
	inquiryLimiter := rest.NewRateLimiter(appConfig.Inquiry.RatePerMinute, appConfig.Inquiry.Burst)

	app.scheduler = scheduler.NewScheduler(baseLogger)
	jobs := []scheduler.Job{
		{
			Name:     "vocabulary_refresh",
			Schedule: appConfig.Cron.VocabularyRefresh,
			Timeout:  appConfig.Backend.Timeout * 2,
			Run: func(ctx context.Context) {
				v := vocabulary.Refresh(ctx)
				if v.Degraded() {
					contextkeys.LoggerFromContext(ctx).Warn("Status vocabulary served from fallback", nil)
				}
			},
		},
		{
			Name:     "session_eviction",
			Schedule: appConfig.Cron.SessionEviction,
			Run: func(ctx context.Context) {
				app.registry.EvictIdle(ctx)
				inquiryLimiter.Sweep(rateLimiterIdleTTL)
			},
		},
	}
	for _, job := range jobs {
		if err := app.scheduler.Add(job); err != nil {
			appLogger.Error("Failed to schedule job", err, port.Fields{"job": job.Name})
			app.closeInfrastructure()
			return nil, err
		}
	}

	// --- 5. REST API ---
	router := rest.NewRouter(rest.RouterDeps{
		Sessions:       app.registry,
		Browse:         rest.NewBrowseHandler(app.registry, vocabulary),
		Inquiries:      rest.NewInquiryHandler(createInquiryUseCase),
		InquiryLimiter: inquiryLimiter,
		Metrics:        promMetrics,
		MetricsHandler: promMetrics.Handler(),
		AllowedOrigins: appConfig.CORS.AllowedOrigins,
		Logger:         baseLogger,
	})
	app.apiServer = rest.NewServer(rest.ServerConfig{
		Port:         appConfig.Rest.PORT,
		ReadTimeout:  appConfig.Rest.ReadTimeout,
		WriteTimeout: appConfig.Rest.WriteTimeout,
	}, router, baseLogger)
	appLogger.Info("REST API server configured.", nil)

	return app, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Rest.ShutdownTimeout)
		defer cancel()

		if err := a.apiServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("Error during API server shutdown", err, nil)
		}
		a.scheduler.Stop(shutdownCtx)
		a.registry.Close()

		a.closeInfrastructure()
		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	// первичная загрузка справочников, при сбое остаются запасные списки
	warmCtx, cancelWarm := context.WithTimeout(contextkeys.ContextWithLogger(appCtx, a.logger), a.config.Backend.Timeout)
	a.vocabulary.Refresh(warmCtx)
	cancelWarm()

	a.scheduler.Start()

	serverErrors := make(chan error, 1)
	go func() {
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	case err := <-serverErrors:
		a.logger.Error("Server failed to start, shutting down", err, nil)
		return err
	}
	return nil
}

// closeInfrastructure закрывает внешние соединения в обратном порядке
func (a *App) closeInfrastructure() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ publisher", err, nil)
		}
		a.publisher = nil
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
		a.connManager = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
		a.logger.Info("PostgreSQL pool closed.", nil)
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Error closing Redis client", err, nil)
		}
		a.redisClient = nil
	}
}
