package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"analytics-service/internal/adapters/cache"
	"analytics-service/internal/adapters/export"
	logger_adapter "analytics-service/internal/adapters/logger"
	"analytics-service/internal/adapters/metrics"
	postgres_adapter "analytics-service/internal/adapters/postgres"
	rabbitmq_adapter "analytics-service/internal/adapters/rabbitmq"
	"analytics-service/internal/adapters/rest"
	"analytics-service/internal/adapters/sqlite"
	"analytics-service/internal/adapters/sqlstore"
	"analytics-service/internal/configs"
	"analytics-service/internal/constants"
	"analytics-service/internal/core/analytics"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
	"analytics-service/internal/core/usecase"
	fluentlogger "analytics-service/pkg/fluent_logger"
	"analytics-service/pkg/postgres"
	"analytics-service/pkg/rabbitmq/rabbitmq_common"
	"analytics-service/pkg/rabbitmq/rabbitmq_consumer"
	"analytics-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// App – структура приложения
type App struct {
	config       *configs.AppConfig
	apiServer    *rest.Server
	fluentClient *fluent.Fluent
	logger       port.LoggerPort

	closeStorage func()
	jobs         []periodicJob

	listingsListener port.EventListenerPort
	dealsProducer    *rabbitmq_producer.Publisher
	connManager      *rabbitmq_common.ConnectionManager
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   appConfig.StdoutLogger.JSON,
		UseColor: !appConfig.StdoutLogger.JSON,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
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

	// --- 2. БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ ---
	baseLogger := multiLogger.WithFields(port.Fields{"service_name": appConfig.AppName})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// Все ресурсы, открытые до ошибки, закрываются в обратном порядке
	var cleanups []func()
	fail := func(msg string, err error) (*App, error) {
		appLogger.Error(msg, err, nil)
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		if fluentClient != nil {
			fluentClient.Close()
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	// --- 3. ХРАНИЛИЩЕ ---
	exec, closeStorage, err := openStorage(appConfig.Storage)
	if err != nil {
		return fail("Failed to open storage", err)
	}
	cleanups = append(cleanups, closeStorage)
	appLogger.Info("Storage connected", port.Fields{"driver": appConfig.Storage.Driver})

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), appConfig.Storage.QueryTimeout*6)
	err = sqlstore.Migrate(migrateCtx, exec)
	cancelMigrate()
	if err != nil {
		return fail("Failed to apply schema", err)
	}

	repository, err := sqlstore.NewRepository(exec, sqlstore.Options{
		Assembler: sqlstore.AssemblerOptions{
			MinPeers:          appConfig.Analytics.MinPeers,
			RelativeThreshold: appConfig.Analytics.RelativeMarketThreshold,
			Page: domain.PagePolicy{
				DefaultLimit: appConfig.Limits.SearchDefault,
				MaxLimit:     maxInt(appConfig.Limits.SearchMax, appConfig.Limits.AnomaliesMax, appConfig.Limits.ExportMax),
			},
		},
		Breaker: sqlstore.BreakerSettings{
			Name:          sqlstore.DefaultBreakerSettings.Name,
			MaxRequests:   appConfig.Storage.BreakerMaxRequests,
			Interval:      appConfig.Storage.BreakerInterval,
			Timeout:       appConfig.Storage.BreakerTimeout,
			MinRequests:   sqlstore.DefaultBreakerSettings.MinRequests,
			FailureRatio:  appConfig.Storage.BreakerFailureRatio,
			OnStateChange: metrics.RecordBreakerTransition,
		},
		ComparableCandidates: appConfig.Limits.Comparables * 20,
		QueryTimeout:         appConfig.Storage.QueryTimeout,
	})
	if err != nil {
		return fail("Failed to create repository", err)
	}
	appLogger.Info("Storage repository initialized.", nil)

	ranker := analytics.NewRanker(
		analytics.Thresholds{
			AbsoluteRatio:         appConfig.Analytics.AbsoluteRatioThreshold,
			RelativeMarketPercent: appConfig.Analytics.RelativeMarketThreshold,
			MinPeers:              appConfig.Analytics.MinPeers,
		},
		analytics.ScoringConfig{
			Weights: analytics.ScoreWeights{
				Ratio:          appConfig.Analytics.WeightRatio,
				MarketPosition: appConfig.Analytics.WeightMarket,
				CapRate:        appConfig.Analytics.WeightCapRate,
				SpacePerBed:    appConfig.Analytics.WeightSpacePerBed,
			},
			RatioTiers:       toTierCutoffs(appConfig.Analytics.RatioTiers),
			MarketTiers:      toTierCutoffs(appConfig.Analytics.MarketTiers),
			CapRateTiers:     toTierCutoffs(appConfig.Analytics.CapRateTiers),
			SpacePerBedTiers: toTierCutoffs(appConfig.Analytics.SpacePerBedTiers),
			NeutralTier:      appConfig.Analytics.NeutralTier,
		},
	)

	searchCache := cache.NewSearchCache(appConfig.Rest.CacheTTL, appConfig.Rest.CacheMaxItems)

	// --- 4. ИСХОДЯЩИЕ АДАПТЕРЫ RABBITMQ ---
	var (
		connManager   *rabbitmq_common.ConnectionManager
		dealsProducer *rabbitmq_producer.Publisher
		dealPublisher port.DealPublisherPort
	)
	if appConfig.RabbitMQ.Enabled {
		connManagerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})
		connManager, err = rabbitmq_common.NewManager(appConfig.RabbitMQ.URL, rabbitmq_adapter.NewPkgLoggerBridge(connManagerLogger))
		if err != nil {
			return fail("Failed to create connection manager", err)
		}
		cleanups = append(cleanups, func() { connManager.Close() })
		appLogger.Info("RabbitMQ Connection Manager initialized.", nil)

		if appConfig.RabbitMQ.PublishDeals {
			producerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})
			dealsProducer, err = rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
				Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
				ExchangeName:             constants.AnalyticsEventsExchange,
				ExchangeType:             "topic",
				DurableExchange:          true,
				DeclareExchangeIfMissing: true,
				Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(producerLogger),
			}, connManager)
			if err != nil {
				return fail("Failed to create deals producer", err)
			}
			cleanups = append(cleanups, func() { dealsProducer.Close() })

			adapter, err := rabbitmq_adapter.NewDealPublisherAdapter(dealsProducer, constants.RoutingKeyDealsFlagged)
			if err != nil {
				return fail("Failed to create deal publisher adapter", err)
			}
			dealPublisher = adapter
			appLogger.Info("RabbitMQ deal publisher initialized.", nil)
		}
	}

	// --- 5. USE CASES ---
	findPropertiesUseCase := usecase.NewFindPropertiesUseCase(repository, ranker, searchCache, domain.PagePolicy{
		DefaultLimit: appConfig.Limits.SearchDefault,
		MaxLimit:     appConfig.Limits.SearchMax,
	})
	getPropertyDetailsUseCase := usecase.NewGetPropertyDetailsUseCase(repository, ranker, usecase.DetailsOptions{
		ComparablesLimit: appConfig.Limits.Comparables,
		MinPositionPeers: appConfig.Analytics.MinMarketSample,
		MinRentComps:     appConfig.Analytics.MinRentalComps,
	})
	findAnomaliesUseCase := usecase.NewFindAnomaliesUseCase(repository, ranker, domain.PagePolicy{
		DefaultLimit: appConfig.Limits.AnomaliesDefault,
		MaxLimit:     appConfig.Limits.AnomaliesMax,
	})
	getMarketSummaryUseCase := usecase.NewGetMarketSummaryUseCase(repository, appConfig.Analytics.MinMarketSample)
	exportPropertiesUseCase := usecase.NewExportPropertiesUseCase(repository, ranker, appConfig.Limits.ExportMax)

	refreshMarketUseCase := usecase.NewRefreshMarketAggregatesUseCase(repository, searchCache)
	deactivateStaleUseCase := usecase.NewDeactivateStaleListingsUseCase(repository, searchCache, appConfig.Jobs.ListingRetention)

	saveRentalCompsUseCase := usecase.NewSaveRentalCompsUseCase(repository)
	saveListingsUseCase := usecase.NewSaveListingsUseCase(usecase.SaveListingsDeps{
		Listings:     repository,
		Search:       repository,
		Market:       repository,
		Refresher:    refreshMarketUseCase,
		Ranker:       ranker,
		Publisher:    dealPublisher,
		Cache:        searchCache,
		MinRentComps: appConfig.Analytics.MinRentalComps,
	})
	appLogger.Info("All use cases initialized.", nil)

	// --- 6. ВХОДЯЩИЕ АДАПТЕРЫ ---
	var listingsListener port.EventListenerPort
	if appConfig.RabbitMQ.Enabled {
		consumerCfg := rabbitmq_consumer.ConsumerConfig{
			Config:                 rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			QueueName:              constants.QueueAnalyticsListings,
			DeclareQueue:           true,
			DurableQueue:           true,
			ExchangeNameForBind:    constants.ListingsExchange,
			DeclareExchangeForBind: true,
			ExchangeTypeForBind:    "topic",
			DurableExchangeForBind: true,
			RoutingKeyForBind:      constants.RoutingKeyListingsUpsert,
			PrefetchCount:          appConfig.RabbitMQ.PrefetchCount,
			ConsumerTag:            "analytics-listings-consumer",

			EnableRetryMechanism: true,
			RetryExchange:        constants.QueueAnalyticsListings + "_retry_ex",
			RetryQueue:           constants.QueueAnalyticsListings + "_retry_wait",
			RetryTTL:             appConfig.RabbitMQ.RetryTTLMillis,

			FinalDLXExchange:   constants.FinalDLXExchange,
			FinalDLQ:           constants.FinalDLQ,
			FinalDLQRoutingKey: constants.FinalDLQRoutingKey,
			MaxRetries:         3,
		}
		listener, err := rabbitmq_adapter.NewListingConsumerAdapter(
			consumerCfg,
			saveListingsUseCase,
			saveRentalCompsUseCase,
			baseLogger,
			connManager,
			appConfig.RabbitMQ.BatchSize,
			appConfig.RabbitMQ.BatchTimeout,
		)
		if err != nil {
			return fail("Failed to create listings listener", err)
		}
		listingsListener = listener
		appLogger.Info("Listings Events Listener initialized.", nil)
	} else {
		appLogger.Warn("RabbitMQ disabled, ingestion and deal events are off", nil)
	}

	// REST API Server
	propertyHandler := rest.NewPropertyHandler(findPropertiesUseCase, getPropertyDetailsUseCase)
	analyticsHandler := rest.NewAnalyticsHandler(findAnomaliesUseCase, getMarketSummaryUseCase)
	exportHandler := rest.NewExportHandler(exportPropertiesUseCase, map[string]port.ReportRendererPort{
		"csv": export.NewCSVRenderer(),
		"pdf": export.NewPDFRenderer(appConfig.AppName),
	})
	healthHandler := rest.NewHealthHandler(repository)

	apiServer := rest.NewServer(rest.ServerOptions{
		Port:           appConfig.Rest.Port,
		AllowedOrigins: appConfig.Rest.AllowedOrigins,
		RateLimit:      appConfig.Rest.RateLimit,
		RateWindow:     appConfig.Rest.RateWindow,
		ReadTimeout:    appConfig.Rest.ReadTimeout,
		WriteTimeout:   appConfig.Rest.WriteTimeout,
	}, propertyHandler, analyticsHandler, exportHandler, healthHandler, baseLogger)
	appLogger.Info("REST API server configured.", nil)

	// 7. Собираем приложение
	return &App{
		config:       appConfig,
		apiServer:    apiServer,
		fluentClient: fluentClient,
		logger:       appLogger,
		closeStorage: closeStorage,
		jobs: []periodicJob{
			marketRefreshJob(refreshMarketUseCase, appConfig.Jobs.MarketRefreshInterval),
			staleSweepJob(deactivateStaleUseCase, appConfig.Jobs.StaleSweepInterval),
		},
		listingsListener: listingsListener,
		dealsProducer:    dealsProducer,
		connManager:      connManager,
	}, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		if a.apiServer != nil {
			if err := a.apiServer.Stop(context.Background()); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
		}

		a.logger.Info("Waiting for background processes to finish...", nil)
		wg.Wait()
		a.logger.Info("All background processes finished.", nil)

		if a.listingsListener != nil {
			if err := a.listingsListener.Close(); err != nil {
				a.logger.Error("Error closing listings listener", err, nil)
			}
		}

		if a.dealsProducer != nil {
			if err := a.dealsProducer.Close(); err != nil {
				a.logger.Error("Error closing deals producer", err, nil)
			}
		}

		if a.connManager != nil {
			if err := a.connManager.Close(); err != nil {
				a.logger.Error("Error closing RabbitMQ connection", err, nil)
			}
		}

		if a.closeStorage != nil {
			a.closeStorage()
			a.logger.Info("Storage closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				// fluent может быть уже недоступен
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	errorsCh := make(chan error, 1)

	startListener := func(name string, listener port.EventListenerPort) {
		defer wg.Done()
		listenerLogger := a.logger.WithFields(port.Fields{"listener_name": name})
		listenerLogger.Info("Starting listener...", nil)

		if err := listener.Start(appCtx); err != nil {
			listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
			select {
			case errorsCh <- fmt.Errorf("%s error: %w", name, err):
			default:
			}
		} else {
			listenerLogger.Info("Listener stopped gracefully due to context cancellation.", nil)
		}
	}

	if a.listingsListener != nil {
		wg.Add(1)
		go startListener("Listings Events Listener", a.listingsListener)
	}

	for _, job := range a.jobs {
		wg.Add(1)
		go func(job periodicJob) {
			defer wg.Done()
			runPeriodic(appCtx, a.logger, job)
		}(job)
	}

	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.Port})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			select {
			case errorsCh <- fmt.Errorf("failed to start HTTP server: %w", err):
			default:
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	var runErr error
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", err, nil)
		runErr = err
	}

	// graceful shutdown: отменяем главный контекст
	cancelApp()

	return runErr
}

// openStorage connects the configured driver and returns its executor with a closer.
func openStorage(cfg configs.StorageConfig) (sqlstore.Executor, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		exec, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return exec, func() { exec.Close() }, nil
	default:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout*6)
		defer cancel()

		pool, err := postgres.NewClient(ctx, postgres.Config{DatabaseURL: cfg.DatabaseURL})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		exec, err := postgres_adapter.NewExecutor(pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return exec, pool.Close, nil
	}
}

func toTierCutoffs(values []float64) analytics.TierCutoffs {
	var c analytics.TierCutoffs
	copy(c[:], values)
	return c
}

func maxInt(values ...int) int {
	m := 0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
