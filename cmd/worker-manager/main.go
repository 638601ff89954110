// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"marketplace-workers/internal/common/camunda"
	"marketplace-workers/internal/common/config"
	"marketplace-workers/internal/common/database"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/common/observability"
	"marketplace-workers/internal/matching"
	"marketplace-workers/pkg/registry"

	fc "marketplace-workers/internal/workers/matching/fetch-candidates"
	mp "marketplace-workers/internal/workers/matching/match-providers"
	nm "marketplace-workers/internal/workers/matching/notify-matches"
	vmr "marketplace-workers/internal/workers/matching/validate-match-request"
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

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	// The registry is documentation for operators; a broken file is
	// worth a loud warning but must not block job processing.
	if reg, err := registry.LoadRegistry("configs/activity-registry.json"); err != nil {
		zapLog.Warn("activity registry not loaded", zap.Error(err))
	} else if err := reg.Validate(); err != nil {
		zapLog.Warn("activity registry invalid", zap.Error(err))
	} else {
		zapLog.Info("activity registry loaded", zap.Int("activities", len(reg.Activities)))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
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

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Register Matching Pipeline Workers ---
	var workers []*camunda.Worker

	if wcfg := cfg.Workers[vmr.TaskType]; wcfg.Enabled {
		handler, err := vmr.NewHandler(
			&vmr.Config{
				Timeout: time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			log,
		)
		if err != nil {
			zapLog.Fatal("failed to create validate-match-request handler", zap.Error(err))
		}
		workers = append(workers, camunda.NewWorker(zeebe.Raw(), vmr.TaskType, wcfg.MaxJobsActive, camunda.Instrument(handler, obs, vmr.TaskType), zapLog))
	}

	if wcfg := cfg.Workers[fc.TaskType]; wcfg.Enabled {
		handler := fc.NewHandler(
			&fc.Config{
				Timeout:       time.Duration(wcfg.Timeout) * time.Millisecond,
				Index:         cfg.Directory.ProviderIndex,
				MaxCandidates: cfg.Directory.MaxCandidates,
				CacheTTL:      time.Duration(cfg.Directory.CacheTTLSeconds) * time.Second,
			},
			esClient.Client, pg.DB, redisClient.Client, log,
		)
		workers = append(workers, camunda.NewWorker(zeebe.Raw(), fc.TaskType, wcfg.MaxJobsActive, camunda.Instrument(handler, obs, fc.TaskType), zapLog))
	}

	if wcfg := cfg.Workers[mp.TaskType]; wcfg.Enabled {
		handler := mp.NewHandler(
			&mp.Config{
				Timeout: time.Duration(wcfg.Timeout) * time.Millisecond,
				Engine:  buildEngineConfig(cfg.Matching),
			},
			log,
		)
		workers = append(workers, camunda.NewWorker(zeebe.Raw(), mp.TaskType, wcfg.MaxJobsActive, camunda.Instrument(handler, obs, mp.TaskType), zapLog))
	}

	if wcfg := cfg.Workers[nm.TaskType]; wcfg.Enabled {
		handler, err := nm.NewHandler(
			&nm.Config{
				Timeout:         time.Duration(wcfg.Timeout) * time.Millisecond,
				AWSRegion:       cfg.Notifications.AWSRegion,
				SenderEmail:     cfg.Notifications.SenderEmail,
				SNSTopicArn:     cfg.Notifications.SNSTopicArn,
				WebhookURL:      cfg.Notifications.WebhookURL,
				DefaultChannels: []string{nm.ChannelEmail},
			},
			log,
		)
		if err != nil {
			zapLog.Fatal("failed to create notify-matches handler", zap.Error(err))
		}
		workers = append(workers, camunda.NewWorker(zeebe.Raw(), nm.TaskType, wcfg.MaxJobsActive, camunda.Instrument(handler, obs, nm.TaskType), zapLog))
	}

	zapLog.Info("All workers registered successfully", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// buildEngineConfig overlays file-driven tuning onto the engine
// defaults. Unset values keep the defaults; the per-job reference time
// is supplied by the worker, never from configuration.
func buildEngineConfig(mc config.MatchingConfig) matching.Config {
	ec := matching.DefaultConfig()

	if mc.MaxResults > 0 {
		ec.MaxResults = mc.MaxResults
	}
	if len(mc.Weights) > 0 {
		w := ec.Weights
		if v, ok := mc.Weights["skills"]; ok {
			w.Skills = v
		}
		if v, ok := mc.Weights["rating"]; ok {
			w.Rating = v
		}
		if v, ok := mc.Weights["distance"]; ok {
			w.Distance = v
		}
		if v, ok := mc.Weights["availability"]; ok {
			w.Availability = v
		}
		if v, ok := mc.Weights["verification"]; ok {
			w.Verification = v
		}
		if v, ok := mc.Weights["completion_rate"]; ok {
			w.CompletionRate = v
		}
		if v, ok := mc.Weights["response_time"]; ok {
			w.ResponseTime = v
		}
		ec.Weights = w
	}
	if mc.Distance.FullCreditKm > 0 {
		ec.Distance.FullCreditKm = mc.Distance.FullCreditKm
	}
	if mc.Distance.CutoffKm > 0 {
		ec.Distance.CutoffKm = mc.Distance.CutoffKm
	}
	if mc.Response.HalfLifeMinutes > 0 {
		ec.Response.HalfLifeMinutes = mc.Response.HalfLifeMinutes
	}
	if mc.Reasons.ContributionThreshold > 0 {
		ec.Reasons.ContributionThreshold = mc.Reasons.ContributionThreshold
	}
	if mc.Reasons.MaxReasons > 0 {
		ec.Reasons.MaxReasons = mc.Reasons.MaxReasons
	}

	return ec
}
