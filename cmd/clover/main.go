package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/lendfield/clover/config"
	bookingrepo "github.com/lendfield/clover/internal/repositories/booking"
	itemrepo "github.com/lendfield/clover/internal/repositories/item"
	matchrepo "github.com/lendfield/clover/internal/repositories/match"
	matchgrouprepo "github.com/lendfield/clover/internal/repositories/matchgroup"
	ratingrepo "github.com/lendfield/clover/internal/repositories/rating"
	requestrepo "github.com/lendfield/clover/internal/repositories/request"
	specfieldrepo "github.com/lendfield/clover/internal/repositories/specfield"
	"github.com/lendfield/clover/pkg/availability"
	"github.com/lendfield/clover/pkg/database"
	"github.com/lendfield/clover/pkg/events"
	"github.com/lendfield/clover/pkg/graph"
	"github.com/lendfield/clover/pkg/kafka"
	"github.com/lendfield/clover/pkg/matchgroup"
	"github.com/lendfield/clover/pkg/matching"
	"github.com/lendfield/clover/pkg/middleware"
	"github.com/lendfield/clover/pkg/processor"
	healthroutes "github.com/lendfield/clover/pkg/routes/health"
	matchroutes "github.com/lendfield/clover/pkg/routes/match"
	matchgrouproutes "github.com/lendfield/clover/pkg/routes/matchgroup"
	"github.com/lendfield/clover/pkg/specschema"
	"github.com/lendfield/clover/pkg/tracing"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Service exited with error")
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func run(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	// Tracing
	if cfg.TracingEnabled {
		exporter, err := tracing.NewOTLPExporter(ctx, tracing.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Insecure: cfg.OTLPInsecure,
		})
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		shutdown, err := tracing.InitProvider(ctx, cfg.AppName, exporter)
		if err != nil {
			return fmt.Errorf("failed to init trace provider: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("Failed to shut down trace provider")
			}
		}()
	}

	// Postgres
	db, sqlDB, err := database.Connect(ctx, database.ConnConfig{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		Username:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Database:        cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
		MaxAttempts:     cfg.StartupMaxAttempts,
	}, logger)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.Migrate(sqlDB, cfg.DatabaseName, cfg.DatabaseMigrationFolderPath, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	requests := requestrepo.NewRepository(db, logger)
	items := itemrepo.NewRepository(db, logger)
	matches := matchrepo.NewRepository(db, logger)
	groups := matchgrouprepo.NewRepository(db, logger)
	ratings := ratingrepo.NewRepository(db, logger)
	bookings := bookingrepo.NewRepository(db, logger)
	specFields := specfieldrepo.NewRepository(db, logger)

	// Kafka producer and notification emitter
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaNotificationTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeoutMS) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()

	emitter := events.NewEmitter(producer, logger)

	// Optional graph projection
	var projector matchgroup.Projector
	if cfg.GraphEnabled {
		graphClient, err := graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create graph client: %w", err)
		}
		defer graphClient.Close(context.Background())

		if err := graphClient.VerifyConnectivity(ctx); err != nil {
			logger.WithError(err).Warn("Graph database unreachable, continuing without projection")
		} else {
			projector = graph.NewProjector(graphClient, logger)
		}
	}

	// Matching pipeline
	checker := availability.NewChecker(bookings, logger)
	schema := specschema.NewProvider(specFields, logger)
	groupManager := matchgroup.NewManager(matches, groups, projector, logger)
	engine := matching.NewEngine(requests, items, matches, ratings, schema, checker, emitter, groupManager, logger)
	dispatcher := matching.NewDispatcher(logger)

	// Kafka consumer
	proc := processor.NewProcessor(logger, engine, groupManager, dispatcher)
	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaInputTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, proc.ProcessMessage)
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start consumer: %w", err)
		}
	}

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	var consumerHealth interface{ Health() bool }
	if consumer != nil {
		consumerHealth = consumer
	}
	health := healthroutes.NewChecker(sqlDB, consumerHealth, version)
	health.RegisterRoutes(e)

	api := e.Group("/api/v1")
	matchroutes.NewHandler(matches, engine, logger).Register(api)
	matchgrouproutes.NewHandler(groups, groupManager, logger).Register(api)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(fmt.Sprintf(":%d", cfg.Port))
	}()
	health.SetReady(true)

	logger.WithFields(map[string]any{
		"app":  cfg.AppName,
		"port": cfg.Port,
	}).Info("Service started")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	}

	health.SetReady(false)

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithError(err).Warn("Failed to stop consumer cleanly")
		}
	}

	// Let in-flight pipelines finish before the DB goes away.
	dispatcher.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Failed to shut down http server cleanly")
	}

	logger.Info("Service stopped")
	return nil
}
