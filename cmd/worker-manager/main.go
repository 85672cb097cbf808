// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	commonaws "mortgage-underwriting/internal/common/aws"
	"mortgage-underwriting/internal/common/camunda"
	"mortgage-underwriting/internal/common/config"
	"mortgage-underwriting/internal/common/database"
	commonerrors "mortgage-underwriting/internal/common/errors"
	"mortgage-underwriting/internal/common/logger"
	"mortgage-underwriting/internal/common/observability"
	"mortgage-underwriting/internal/conditions"
	"mortgage-underwriting/internal/documents"
	"mortgage-underwriting/internal/rules"
	"mortgage-underwriting/internal/scorecard"
	"mortgage-underwriting/pkg/catalog"

	bs "mortgage-underwriting/internal/workers/underwriting/build-scorecard"
	crd "mortgage-underwriting/internal/workers/underwriting/check-required-documents"
	gc "mortgage-underwriting/internal/workers/underwriting/generate-conditions"
	ndr "mortgage-underwriting/internal/workers/underwriting/notify-document-request"
	rc "mortgage-underwriting/internal/workers/underwriting/resolve-condition"
	vd "mortgage-underwriting/internal/workers/underwriting/validate-document"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// loadCatalog reads the configured rule catalog, or the embedded one when no
// path is set.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	c, err := catalog.LoadCatalog(path)
	if errors.Is(err, catalog.ErrInvalidCatalog) {
		return nil, commonerrors.NewCatalogInvalidError(err)
	}
	return c, err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console", "stderr")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting underwriting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ruleCatalog, err := loadCatalog(cfg.Rules.CatalogPath)
	if err != nil {
		zapLog.Fatal("rule catalog load failed", zap.Error(err), zap.String("path", cfg.Rules.CatalogPath))
	}
	zapLog.Info("Rule catalog loaded",
		zap.String("version", ruleCatalog.Version),
		zap.Int("documentTypes", len(ruleCatalog.DocumentTypes)),
	)

	obs, err := observability.New("underwriting-workers", observability.Options{
		TracingEnabled: cfg.Observability.TracingEnabled,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		SampleRatio:    cfg.Observability.SampleRatio,
	})
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(camunda.ClientConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	conditionStore := conditions.NewPostgresStore(pg.DB)
	if cfg.Database.Postgres.AutoMigrate {
		if err := conditionStore.Migrate(ctx); err != nil {
			zapLog.Fatal("condition schema migration failed", zap.Error(err))
		}
		zapLog.Info("Condition schema migrated")
	}

	// --- Init Redis with retry ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (optional) ---
	var indexer conditions.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		indexer = conditions.NewSearchIndex(es.Client, cfg.Database.Elasticsearch.ConditionsIndex)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init AWS notification clients ---
	var (
		emailSender ndr.EmailSender
		smsSender   ndr.SMSSender
	)
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := commonaws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config load failed", zap.Error(err))
		}
		if cfg.Notifications.Email.Enabled {
			emailSender = commonaws.NewSESClient(awsCfg, cfg.Notifications.Email.FromEmail)
		}
		if cfg.Notifications.SMS.Enabled {
			smsSender = commonaws.NewSNSClient(awsCfg, cfg.Notifications.SMS.SenderID)
		}
	}

	// --- Domain services ---
	validator := rules.NewValidator(ruleCatalog, nil, log)
	results := documents.NewRedisStore(redis.Client, cfg.Rules.ResultTTLDuration())
	conditionService := conditions.NewService(conditionStore, indexer, log)
	builder := scorecard.NewBuilder(ruleCatalog, log)

	// --- Register workers ---
	client := zeebe.GetClient()
	workers := []worker.JobWorker{}
	register := func(taskType string, handler worker.JobHandler) {
		if jw := camunda.Register(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, log); jw != nil {
			workers = append(workers, jw)
		}
	}

	register(vd.TaskType, vd.NewHandler(
		vd.LoadConfig(cfg),
		validator, results, log,
	).WithTracer(obs).Handle)

	register(gc.TaskType, gc.NewHandler(
		gc.LoadConfig(cfg),
		conditionService, log,
	).WithTracer(obs).Handle)

	register(rc.TaskType, rc.NewHandler(
		rc.LoadConfig(cfg),
		conditionService, log,
	).WithTracer(obs).Handle)

	register(crd.TaskType, crd.NewHandler(
		crd.LoadConfig(cfg),
		ruleCatalog, results, log,
	).WithTracer(obs).Handle)

	register(bs.TaskType, bs.NewHandler(
		bs.LoadConfig(cfg),
		builder, results, conditionService, log,
	).WithTracer(obs).Handle)

	register(ndr.TaskType, ndr.NewHandler(
		ndr.LoadConfig(cfg),
		ruleCatalog, conditionService, emailSender, smsSender, log,
	).WithTracer(obs).Handle)

	zapLog.Info("Underwriting workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	var ready atomic.Bool
	ready.Store(true)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           newServeMux(cfg, &ready, pg, redis),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

type pinger interface {
	Ping(ctx context.Context) error
}

func newServeMux(cfg *config.Config, ready *atomic.Bool, deps ...pinger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, d := range deps {
			if err := d.Ping(ctx); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	if cfg.Observability.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
