package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"alertengine/internal/clock"
	"alertengine/internal/config"
	"alertengine/internal/ingest"
	"alertengine/internal/lifecycle"
	"alertengine/internal/listener"
	"alertengine/internal/logging"
	"alertengine/internal/notify"
	"alertengine/internal/processor"
	"alertengine/internal/sweeper"
	"alertengine/internal/store"
	"alertengine/internal/threshold"
)

// Service composes runtime dependencies and process lifecycle.
// Params: config snapshot and shared runtime components.
// Returns: runnable alert engine service.
type Service struct {
	cfg       config.Config
	logger    *slog.Logger
	closeLog  func()
	alerts    store.AlertStore
	registry  *listener.Registry
	processor *processor.Processor
	lifecycle *lifecycle.Service
	sweeper   *sweeper.Sweeper
	httpSrv   *http.Server
	natsSub   interface{ Close() error }
	notifiers []interface{ Close() error }
	closers   []interface{ Close() error }
	readyFlag atomic.Bool
	clock     clock.Clock
}

// NewService builds service instance from config source.
// Params: config source and clock implementation.
// Returns: initialized service or setup error.
func NewService(source config.ConfigSource, clk clock.Clock) (*Service, error) {
	cfg, err := config.LoadSnapshot(source)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	alerts := store.NewMemoryAlertStore()
	definitions := store.NewMemoryDefinitionStore()
	tags := store.NewMemoryTagStore()
	registry := listener.NewRegistry(logger)

	thresholds, thresholdCloser, err := buildThresholdStore(cfg.Threshold)
	if err != nil {
		closeLog()
		return nil, err
	}
	tracker := threshold.NewTracker(thresholds, clk.Now)

	if err := seedDefinitions(cfg.Definition, definitions); err != nil {
		closeLog()
		return nil, err
	}

	lifecycleService := lifecycle.New(alerts, registry, clk, logger)
	service := &Service{
		cfg:       cfg,
		logger:    logger,
		closeLog:  closeLog,
		alerts:    alerts,
		registry:  registry,
		processor: processor.New(alerts, definitions, tags, tracker, registry, clk, logger),
		lifecycle: lifecycleService,
		sweeper: sweeper.New(sweeper.Config{
			Interval:  cfg.Engine.SweepInterval(),
			Retention: cfg.Engine.Retention(),
		}, alerts, lifecycleService, registry, clk, logger),
		clock: clk,
	}
	if thresholdCloser != nil {
		service.closers = append(service.closers, thresholdCloser)
	}

	if err := service.buildNotifiers(); err != nil {
		service.cleanupInitResources()
		return nil, err
	}
	if err := service.buildHTTPServer(); err != nil {
		service.cleanupInitResources()
		return nil, err
	}
	if err := service.buildNATSSubscriber(); err != nil {
		service.cleanupInitResources()
		return nil, err
	}

	return service, nil
}

// Run starts service lifecycle and blocks until shutdown signal.
// Params: root context for service runtime.
// Returns: terminal run error.
func (s *Service) Run(ctx context.Context) error {
	if err := s.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("start aging sweeper: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "listen", s.cfg.Ingest.HTTP.Listen)
		err := s.httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	s.readyFlag.Store(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errChan:
		_ = s.shutdown()
		return fmt.Errorf("http server failed: %w", err)
	case <-sigChan:
		return s.shutdown()
	}
}

// Processor exposes the event reducer for in-process callers.
// Params: none.
// Returns: event processing entry point.
func (s *Service) Processor() *processor.Processor {
	return s.processor
}

// Lifecycle exposes the alert lifecycle command API.
// Params: none.
// Returns: lifecycle service.
func (s *Service) Lifecycle() *lifecycle.Service {
	return s.lifecycle
}

// shutdown closes runtime resources in dependency order.
// Params: none.
// Returns: first close error.
func (s *Service) shutdown() error {
	s.readyFlag.Store(false)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var firstErr error
	markErr := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("http shutdown failed", "error", err.Error())
		markErr(fmt.Errorf("http shutdown: %w", err))
	}
	if s.natsSub != nil {
		if err := s.natsSub.Close(); err != nil {
			s.logger.Error("nats subscriber close failed", "error", err.Error())
			markErr(fmt.Errorf("nats subscriber close: %w", err))
		}
	}
	s.sweeper.Stop()
	for _, notifier := range s.notifiers {
		if err := notifier.Close(); err != nil {
			s.logger.Error("notifier close failed", "error", err.Error())
			markErr(fmt.Errorf("notifier close: %w", err))
		}
	}
	for _, closer := range s.closers {
		if err := closer.Close(); err != nil {
			s.logger.Error("store close failed", "error", err.Error())
			markErr(fmt.Errorf("store close: %w", err))
		}
	}
	if s.closeLog != nil {
		s.closeLog()
	}
	return firstErr
}

// cleanupInitResources closes partially initialized resources on startup failures.
// Params: none.
// Returns: all acquired resources closed best-effort.
func (s *Service) cleanupInitResources() {
	if s.natsSub != nil {
		_ = s.natsSub.Close()
		s.natsSub = nil
	}
	if s.httpSrv != nil {
		_ = s.httpSrv.Close()
		s.httpSrv = nil
	}
	for _, notifier := range s.notifiers {
		_ = notifier.Close()
	}
	s.notifiers = nil
	for _, closer := range s.closers {
		_ = closer.Close()
	}
	s.closers = nil
	if s.closeLog != nil {
		s.closeLog()
		s.closeLog = nil
	}
}

// buildHTTPServer wires router with ingest and health endpoints.
// Params: none.
// Returns: setup error.
func (s *Service) buildHTTPServer() error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Ingest.HTTP.HealthPath, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("ok"))
	})
	mux.HandleFunc(s.cfg.Ingest.HTTP.ReadyPath, func(writer http.ResponseWriter, _ *http.Request) {
		if !s.readyFlag.Load() {
			writer.WriteHeader(http.StatusServiceUnavailable)
			_, _ = writer.Write([]byte("not-ready"))
			return
		}
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("ready"))
	})

	if s.cfg.Ingest.HTTP.Enabled {
		handler := ingest.NewHTTPHandler(s.processor, s.cfg.Ingest.HTTP.MaxBodyBytes)
		mux.Handle(s.cfg.Ingest.HTTP.IngestPath, handler)
		batchPath := strings.TrimSuffix(s.cfg.Ingest.HTTP.IngestPath, "/") + "/batch"
		if batchPath != s.cfg.Ingest.HTTP.IngestPath {
			mux.Handle(batchPath, handler)
		}
	}

	s.httpSrv = &http.Server{
		Addr:              s.cfg.Ingest.HTTP.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// buildNATSSubscriber starts NATS ingest when enabled.
// Params: none.
// Returns: initialization error.
func (s *Service) buildNATSSubscriber() error {
	if !s.cfg.Ingest.NATS.Enabled {
		return nil
	}
	subscriber, err := ingest.NewNATSSubscriber(s.cfg.Ingest.NATS, s.processor, s.logger)
	if err != nil {
		return err
	}
	s.natsSub = subscriber
	return nil
}

// buildNotifiers registers enabled outbound publishers on the fan-out.
// Params: none.
// Returns: initialization error for broker connections.
func (s *Service) buildNotifiers() error {
	if s.cfg.Notify.NATS.Enabled {
		publisher, err := notify.NewNATSPublisher(s.cfg.Notify.NATS, s.logger)
		if err != nil {
			return err
		}
		s.notifiers = append(s.notifiers, publisher)
		s.registry.Subscribe("nats-publisher", publisher.Listener())
	}
	if s.cfg.Notify.Kafka.Enabled {
		publisher := notify.NewKafkaPublisher(s.cfg.Notify.Kafka, s.logger)
		s.notifiers = append(s.notifiers, publisher)
		s.registry.Subscribe("kafka-publisher", publisher.Listener())
	}
	if s.cfg.Notify.Telegram.Enabled {
		notifier := notify.NewTelegramNotifier(s.cfg.Notify.Telegram)
		s.registry.Subscribe("telegram-notifier", notifier.Listener())
	}
	return nil
}

// buildThresholdStore selects the thresholded-event backend from config.
// Params: threshold section snapshot.
// Returns: chosen store, optional closer, or Redis connection error.
func buildThresholdStore(cfg config.ThresholdConfig) (store.ThresholdStore, interface{ Close() error }, error) {
	if cfg.Backend == config.ThresholdBackendRedis {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		redisStore, err := store.NewRedisThresholdStore(ctx, store.RedisThresholdConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return redisStore, redisStore, nil
	}
	return store.NewMemoryThresholdStore(), nil, nil
}

// seedDefinitions loads configured alert definitions into the store.
// Params: definition config list and destination store.
// Returns: first conversion or save error.
func seedDefinitions(entries []config.DefinitionConfig, definitions store.DefinitionStore) error {
	for _, entry := range entries {
		definition, err := entry.Domain()
		if err != nil {
			return err
		}
		if err := definitions.Save(context.Background(), definition); err != nil {
			return fmt.Errorf("seed definition %q: %w", entry.Name, err)
		}
	}
	return nil
}
