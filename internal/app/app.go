package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"email-agent-go/internal/config"
	"email-agent-go/internal/db"
	"email-agent-go/internal/handler"
	"email-agent-go/internal/inbox"
	"email-agent-go/internal/llm"
	"email-agent-go/internal/metrics"
	"email-agent-go/internal/repository"
	"email-agent-go/internal/router"
	"email-agent-go/internal/sender"
	"email-agent-go/internal/service"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("Unknown log level %q, using info", cfg.Log.Level)
	}

	logrus.Info("Starting Email Agent Service")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeQuietly("store", store.Close)

	generator, err := llm.NewGenerator(cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create generative backend: %w", err)
	}
	dispatcher := llm.NewDispatcher(generator, cfg.LLM.Timeout, m)
	logrus.WithField("backend", dispatcher.Backend()).Info("Generation backend selected")

	ctx := context.Background()
	var opts []service.Option
	if cfg.Gmail.HasOAuth() {
		s, err := sender.NewGmailSender(ctx, cfg.Gmail)
		if err != nil {
			return fmt.Errorf("failed to create draft sender: %w", err)
		}
		defer closeQuietly("sender", s.Close)
		opts = append(opts, service.WithSender(s))
		logrus.Info("Draft sending enabled")
	}

	inboxStore := inbox.NewStore(cfg.Storage.InboxPath)
	agent := service.NewAgentService(inboxStore, store, dispatcher, cfg.LLM.MaxTokens, m, opts...)

	syncer, err := newSyncer(ctx, cfg, inboxStore, agent, m)
	if err != nil {
		return err
	}

	h := handler.NewHandlers(agent, syncer, reg)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.SetupRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if syncer != nil {
		if err := syncer.Start(); err != nil {
			return fmt.Errorf("failed to start inbox syncer: %w", err)
		}
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if syncer != nil {
		if err := syncer.Close(); err != nil {
			logrus.Errorf("Failed to close inbox syncer: %v", err)
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}

// openStore builds the record store selected by storage.backend
func openStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		logrus.Warn("Using in-memory storage; records are lost on restart")
		return repository.NewMemoryStore(), nil
	case config.StorageMySQL:
		conn, err := db.Init(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repository.NewGormStore(conn), nil
	default:
		return repository.NewJSONStore(repository.JSONPaths{
			Prompts:   cfg.Storage.PromptsPath,
			Processed: cfg.Storage.ProcessedPath,
			Drafts:    cfg.Storage.DraftsPath,
		}), nil
	}
}

// newSyncer returns nil when the inbox is a static document
func newSyncer(ctx context.Context, cfg *config.Config, store *inbox.Store, agent *service.AgentService, m *metrics.Metrics) (*inbox.Syncer, error) {
	var source inbox.Source
	switch cfg.Inbox.Source {
	case config.InboxIMAP:
		s, err := inbox.NewIMAPSource(cfg.Gmail)
		if err != nil {
			return nil, fmt.Errorf("failed to create IMAP source: %w", err)
		}
		source = s
	case config.InboxGmail:
		s, err := inbox.NewGmailSource(ctx, cfg.Gmail)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gmail source: %w", err)
		}
		source = s
	default:
		return nil, nil
	}

	var processor inbox.Processor
	if cfg.Inbox.AutoProcess {
		processor = agent
	}

	logrus.WithFields(logrus.Fields{
		"source":       source.Name(),
		"auto_process": cfg.Inbox.AutoProcess,
	}).Info("Inbox sync enabled")
	return inbox.NewSyncer(cfg.Inbox.SyncIntervalMinutes, source, store, processor, m), nil
}

func closeQuietly(name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logrus.Errorf("Failed to close %s: %v", name, err)
	}
}
