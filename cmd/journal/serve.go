package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devjournal/internal/config"
	"github.com/alfredjeanlab/devjournal/internal/csrf"
	"github.com/alfredjeanlab/devjournal/internal/events"
	"github.com/alfredjeanlab/devjournal/internal/mail"
	"github.com/alfredjeanlab/devjournal/internal/metrics"
	"github.com/alfredjeanlab/devjournal/internal/server"
	"github.com/alfredjeanlab/devjournal/internal/store"
	"github.com/alfredjeanlab/devjournal/internal/store/jsonfile"
	"github.com/alfredjeanlab/devjournal/internal/store/memory"
	"github.com/alfredjeanlab/devjournal/internal/store/postgres"
	journalsync "github.com/alfredjeanlab/devjournal/internal/sync"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthCheckInterval = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the journal HTTP server",
	GroupID: "system",
	Args:    cobra.NoArgs,
	// No client connection for the server itself.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeLogged(logger, "store", st.Close)
		logger.Info("store opened", "backend", cfg.Store)

		var publisher events.Publisher = &events.NoopPublisher{}
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			logger.Info("events disabled (JOURNAL_NATS_URL not set)")
		}
		defer closeLogged(logger, "publisher", publisher.Close)

		if cfg.Secret == "" {
			logger.Warn("JOURNAL_SECRET not set; csrf tokens will not survive a restart")
		}
		protector, err := csrf.New(cfg.Secret)
		if err != nil {
			return err
		}

		m := metrics.New()
		js := server.NewJournalServer(st, publisher, protector, newMailer(cfg, logger), server.Options{
			UploadsDir:  cfg.UploadsDir,
			CORSOrigins: cfg.CORSOrigins,
			SignupRate:  cfg.SignupRate,
			SignupBurst: cfg.SignupBurst,
			Metrics:     m,
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           js.NewHTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		httpErr := make(chan error, 1)
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErr <- err
			}
		}()

		stopGRPC, err := startGRPC(ctx, cfg, st, logger)
		if err != nil {
			httpServer.Close()
			return err
		}
		defer stopGRPC()

		if scheduler := newScheduler(ctx, cfg, st, logger); scheduler != nil {
			scheduler.Start()
			logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			defer scheduler.Stop()
		}

		select {
		case <-ctx.Done():
			logger.Info("received signal, shutting down")
		case err := <-httpErr:
			logger.Error("HTTP server error", "error", err)
			return err
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	},
}

// openStore builds the configured store backend.
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreFile:
		s, err := jsonfile.Open(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorePostgres:
		s, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func newMailer(cfg *config.Config, logger *slog.Logger) mail.Sender {
	if cfg.MailDriver == config.MailLog {
		return &mail.LogSender{Logger: logger}
	}
	if cfg.ResendAPIKey == "" || cfg.ResendFromEmail == "" {
		logger.Warn("RESEND_API_KEY or RESEND_FROM_EMAIL not set; signups will fail")
	}
	return mail.NewResendSender(cfg.ResendAPIKey, cfg.ResendFromEmail)
}

// startGRPC serves grpc.health.v1 on cfg.GRPCAddr, tracking store health.
// It is a no-op when the address is empty.
func startGRPC(ctx context.Context, cfg *config.Config, st store.Store, logger *slog.Logger) (func(), error) {
	if cfg.GRPCAddr == "" {
		return func() {}, nil
	}
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return nil, err
	}

	grpcServer, hs := server.NewGRPCServer()
	watchCtx, cancel := context.WithCancel(ctx)
	go server.WatchStoreHealth(watchCtx, st, hs, healthCheckInterval)
	go func() {
		logger.Info("gRPC health listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	return func() {
		cancel()
		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")
	}, nil
}

// newScheduler returns nil when sync is disabled or has no destinations.
func newScheduler(ctx context.Context, cfg *config.Config, st store.Store, logger *slog.Logger) *journalsync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}

	var dests []journalsync.Destination
	if cfg.SyncS3Bucket != "" {
		d, err := journalsync.NewS3Destination(ctx, journalsync.S3Options{
			Bucket:    cfg.SyncS3Bucket,
			Key:       cfg.SyncS3Key,
			Region:    cfg.SyncS3Region,
			Endpoint:  cfg.SyncS3Endpoint,
			AccessKey: cfg.SyncS3AccessKey,
			SecretKey: cfg.SyncS3SecretKey,
		})
		if err != nil {
			logger.Error("failed to create S3 sync destination", "error", err)
		} else {
			dests = append(dests, d)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, journalsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	if len(dests) == 0 {
		logger.Warn("JOURNAL_SYNC_INTERVAL set but no sync destination configured")
		return nil
	}
	return journalsync.NewScheduler(st, dests, cfg.SyncInterval, logger)
}

func closeLogged(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("close failed", "what", what, "error", err)
	}
}
