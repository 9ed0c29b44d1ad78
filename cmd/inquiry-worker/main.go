package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aescanero/dago-adapters/pkg/llm"
	"github.com/aescanero/dago-inquiry-router/internal/classifier"
	"github.com/aescanero/dago-inquiry-router/internal/config"
	"github.com/aescanero/dago-inquiry-router/internal/conversation"
	"github.com/aescanero/dago-inquiry-router/internal/dtc"
	"github.com/aescanero/dago-inquiry-router/internal/eval/template"
	"github.com/aescanero/dago-inquiry-router/internal/inquiry"
	"github.com/aescanero/dago-inquiry-router/internal/router"
	"github.com/aescanero/dago-inquiry-router/internal/worker"
	"github.com/aescanero/dago-libs/pkg/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting inquiry worker",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("worker_id", cfg.WorkerID),
	)

	// Log configuration (without sensitive data)
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	// Keyword tables, optionally overridden from a file
	tables := classifier.DefaultTables()
	if cfg.KeywordsFile != "" {
		tables, err = classifier.LoadTables(cfg.KeywordsFile)
		if err != nil {
			logger.Fatal("failed to load keyword tables", zap.String("path", cfg.KeywordsFile), zap.Error(err))
		}
		logger.Info("keyword tables loaded", zap.String("path", cfg.KeywordsFile))
	}

	cls, err := classifier.NewClassifier(tables, logger)
	if err != nil {
		logger.Fatal("failed to create classifier", zap.Error(err))
	}

	// DTC descriptions, optionally overridden from a file
	lookup := dtc.NewStaticLookup(dtc.DefaultDescriptions())
	if cfg.DTCFile != "" {
		lookup, err = dtc.LoadStaticLookup(cfg.DTCFile)
		if err != nil {
			logger.Fatal("failed to load dtc descriptions", zap.String("path", cfg.DTCFile), zap.Error(err))
		}
		logger.Info("dtc descriptions loaded", zap.Int("codes", lookup.Len()))
	}

	engine := template.NewEngine()

	routerInstance, err := router.NewRouter(logger, router.WithTemplateEngine(engine))
	if err != nil {
		logger.Fatal("failed to create router", zap.Error(err))
	}
	logger.Info("router initialized")

	opts := []inquiry.Option{
		inquiry.WithDTCDetector(dtc.NewDetector(lookup, logger)),
		inquiry.WithHistoryLimit(cfg.HistoryLimit),
	}

	// Initialize LLM client (optional, keyword-only classification without it)
	if cfg.LLMFallbackActive() {
		llmClient, err := initLLMClient(cfg, logger)
		if err != nil {
			logger.Warn("failed to initialize llm client (llm fallback will not be available)",
				zap.Error(err),
			)
		} else {
			fallback := classifier.NewLLMFallback(
				classifier.NewDagoCompleter(llmClient, cfg.LLMModel),
				engine,
				cfg.LLMTimeout,
				logger,
			)
			opts = append(opts, inquiry.WithLLMFallback(fallback))
			logger.Info("llm fallback initialized",
				zap.String("provider", cfg.LLMProvider),
				zap.String("model", cfg.LLMModel),
			)
		}
	} else {
		logger.Info("llm fallback disabled")
	}

	// Conversation state store (Redis JSON documents)
	store := conversation.NewRedisStore(redisClient, logger,
		conversation.WithKeyPrefix(cfg.StateKeyPrefix),
		conversation.WithTTL(cfg.StateTTL),
	)

	service, err := inquiry.NewService(store, cls, routerInstance, logger, opts...)
	if err != nil {
		logger.Fatal("failed to create inquiry service", zap.Error(err))
	}

	// Decision sink
	var publisher worker.Publisher
	switch cfg.DecisionSink {
	case config.SinkKafka:
		publisher = worker.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info("publishing decisions to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	default:
		publisher = worker.NewStreamPublisher(redisClient, cfg.ResultStream, logger)
		logger.Info("publishing decisions to redis stream", zap.String("stream", cfg.ResultStream))
	}

	// Initialize worker
	w := worker.NewWorker(cfg, redisClient, service, publisher, logger)

	// Start worker
	if err := w.Start(); err != nil {
		logger.Fatal("failed to start worker", zap.Error(err))
	}

	// Start health server
	healthServer := worker.NewHealthServer(cfg.HealthPort, redisClient, logger)
	if err := healthServer.Start(); err != nil {
		logger.Fatal("failed to start health server", zap.Error(err))
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("inquiry worker running, press Ctrl+C to stop")
	<-sigChan

	logger.Info("shutdown signal received, stopping worker")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop health server
	if err := healthServer.Stop(); err != nil {
		logger.Error("failed to stop health server", zap.Error(err))
	}

	// Stop worker
	if err := w.Stop(); err != nil {
		logger.Error("failed to stop worker", zap.Error(err))
	}

	// Flush the decision sink
	if err := publisher.Close(); err != nil {
		logger.Error("failed to close decision publisher", zap.Error(err))
	}

	// Close Redis connection
	if err := redisClient.Close(); err != nil {
		logger.Error("failed to close redis connection", zap.Error(err))
	}

	select {
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, forcing exit")
	default:
		logger.Info("worker stopped gracefully")
	}
}

// initLogger initializes the logger
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

// initLLMClient initializes the LLM client using dago-adapters
func initLLMClient(cfg *config.Config, logger *zap.Logger) (ports.LLMClient, error) {
	return llm.NewClient(&llm.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Logger:   logger.Named("llm"),
	})
}
