package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/quriousri/foxglove/config"
	"github.com/quriousri/foxglove/internal/repositories/assessment"
	"github.com/quriousri/foxglove/internal/repositories/label"
	"github.com/quriousri/foxglove/pkg/database"
	"github.com/quriousri/foxglove/pkg/events"
	"github.com/quriousri/foxglove/pkg/fetch"
	"github.com/quriousri/foxglove/pkg/kafka"
	"github.com/quriousri/foxglove/pkg/pipeline"
	"github.com/quriousri/foxglove/pkg/startup"
	"github.com/quriousri/foxglove/pkg/tracing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	var cfg config.Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Printf("Failed to read configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := newZapLogger(&cfg)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.AppName),
		)),
	)
	otel.SetTracerProvider(tp)
	tracing.SetTracer(otel.Tracer(cfg.AppName))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shut down tracer provider")
		}
	}()

	sqlxDB, err := sqlx.Open(cfg.DatabaseDriver, buildDSN(&cfg))
	if err != nil {
		logger.WithError(err).Error("Failed to open database connection")
		os.Exit(1)
	}
	defer sqlxDB.Close()

	db := database.NewDatabaseInstance(sqlxDB, logger)
	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(startup.Dependency{
		Name: "postgres",
		StartFunc: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
	})
	boot.AddDependency(startup.Dependency{
		Name:           "migrations",
		DependsOnNames: []string{"postgres"},
		StartFunc: func(ctx context.Context) error {
			driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
			if err != nil {
				return err
			}
			svc := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				Force:               cfg.DatabaseMigrationForce,
				AutoRollback:        cfg.DatabaseMigrationAutoRollback,
			})
			return svc.Migrate(cfg.DatabaseName, driver)
		},
	})
	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		os.Exit(1)
	}

	var emitter *events.Emitter
	if cfg.KafkaProducerEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, logger)
	}

	fetcher := fetch.NewClient(logger, cfg.DownloadDir, cfg.RequestTimeout, cfg.DownloadMaxRetries)
	registry := pipeline.NewRegistry(logger, emitter)

	if cfg.RegistrationEnabled {
		repo := assessment.NewRepository(db, logger)
		registry.Register(pipeline.NewRegistrationModule(pipeline.RegistrationConfig{
			BulkURL:    cfg.DrugsBulkURL,
			TrialLimit: cfg.TrialLimit,
		}, db, fetcher, repo, emitter, logger))
	}

	if cfg.LabelEnabled {
		repo := label.NewRepository(db, logger)
		registry.Register(pipeline.NewLabelModule(pipeline.LabelConfig{
			ShardBaseURL: cfg.LabelShardBaseURL,
			MetadataURL:  cfg.LabelMetadataURL,
			BatchSize:    cfg.LabelBatchSize,
			ShardLimit:   cfg.TrialShardLimit,
		}, db, fetcher, repo, emitter, logger))
	}

	if err := registry.Run(ctx); err != nil {
		logger.WithError(err).Error("Load run finished with failures")
		os.Exit(1)
	}
	logger.Info("Load run finished")
}

func newZapLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode)
}
