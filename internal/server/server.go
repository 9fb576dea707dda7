// Package server assembles the application from configuration and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/kartiksrathod/Eduu/internal/auth"
	"github.com/kartiksrathod/Eduu/internal/config"
	"github.com/kartiksrathod/Eduu/internal/db"
	"github.com/kartiksrathod/Eduu/internal/handlers"
	"github.com/kartiksrathod/Eduu/internal/health"
	"github.com/kartiksrathod/Eduu/internal/mail"
	"github.com/kartiksrathod/Eduu/internal/middleware"
	"github.com/kartiksrathod/Eduu/internal/observe"
	"github.com/kartiksrathod/Eduu/internal/repository"
	"github.com/kartiksrathod/Eduu/internal/repository/memstore"
	"github.com/kartiksrathod/Eduu/internal/repository/mongostore"
	"github.com/kartiksrathod/Eduu/internal/services"
	"github.com/kartiksrathod/Eduu/internal/storage"
	"github.com/kartiksrathod/Eduu/internal/utils"
)

const (
	shutdownTimeout = 10 * time.Second
	mailWorkers     = 4
)

// OpenStores connects the configured database driver.
func OpenStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (repository.Stores, error) {
	switch cfg.DatabaseDriver {
	case "memory":
		log.Warn("using in-memory database; data is lost on exit")
		return memstore.New(), nil
	case "mongo", "":
		client, err := db.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return repository.Stores{}, err
		}
		database := client.Database(cfg.DatabaseName)
		if err := db.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return repository.Stores{}, err
		}
		log.WithField("database", cfg.DatabaseName).Info("connected to MongoDB")
		return mongostore.New(client, database), nil
	default:
		return repository.Stores{}, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

// OpenStorage builds the configured object storage driver.
func OpenStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	s := storage.Settings{
		Driver: cfg.StorageDriver,
		Dir:    cfg.UploadDir,
		Bucket: cfg.Bucket,
	}
	switch cfg.StorageDriver {
	case "minio":
		s.Endpoint = cfg.MinIO.Endpoint
		s.AccessKey = cfg.MinIO.AccessKey
		s.SecretKey = cfg.MinIO.SecretKey
		s.UseSSL = cfg.MinIO.UseSSL
	case "s3":
		s.Endpoint = cfg.S3.Endpoint
		s.Region = cfg.S3.Region
		s.AccessKey = cfg.S3.AccessKey
		s.SecretKey = cfg.S3.SecretKey
	}
	return storage.Open(ctx, s)
}

func newMailer(cfg *config.Config, log logrus.FieldLogger) mail.Mailer {
	links := mail.Links{FrontendURL: cfg.FrontendURL, TTL: cfg.VerificationTTL()}
	if !cfg.MailEnabled() {
		log.Warn("SMTP credentials not set; verification links are logged instead of mailed")
		return mail.NewLogMailer(log, links)
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Server:    cfg.SMTP.Server,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromEmail: cfg.SMTP.FromEmail,
		FromName:  cfg.SMTP.FromName,
	}, links)
}

// Server is a wired application ready to listen.
type Server struct {
	cfg     *config.Config
	log     logrus.FieldLogger
	app     *fiber.App
	stores  repository.Stores
	metrics *observe.Provider
	pool    *utils.WorkerPool
}

// New connects every backend named in cfg and builds the HTTP application.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Server, error) {
	stores, err := OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := OpenStorage(ctx, cfg)
	if err != nil {
		_ = stores.Close(context.Background())
		return nil, fmt.Errorf("open storage: %w", err)
	}

	provider, err := observe.NewProvider()
	if err != nil {
		_ = stores.Close(context.Background())
		return nil, err
	}

	pool := utils.NewWorkerPool(mailWorkers)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTTL(), cfg.VerificationTTL())
	files := services.NewFileService(store, cfg.MaxFileSize, log)

	checks := health.NewAggregator(0)
	checks.Register(handlers.DatabaseCheck, health.CheckerFunc(stores.Pinger.Ping))
	checks.Register("storage", health.CheckerFunc(store.Ping))

	app := handlers.NewApp(handlers.Deps{
		Config:         cfg,
		Log:            log,
		Gate:           middleware.NewGate(tokens, stores.Users),
		Auth:           services.NewAuthService(stores.Users, tokens, newMailer(cfg, log), pool, log),
		Admin:          services.NewAdminService(stores.Users, log),
		Resources:      services.NewResourceService(stores.Resources, files, provider, log),
		Bookmarks:      services.NewBookmarkService(stores.Bookmarks, stores.Resources),
		Stats:          services.NewStatsService(stores.Users, stores.Resources, stores.Bookmarks),
		Photos:         services.NewPhotoService(stores.Users, store, log),
		Health:         checks,
		Metrics:        provider,
		MetricsHandler: provider.Handler(),
	})

	return &Server{
		cfg:     cfg,
		log:     log,
		app:     app,
		stores:  stores,
		metrics: provider,
		pool:    pool,
	}, nil
}

// App exposes the Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr()).Info("starting HTTP server")
		errCh <- s.app.Listen(s.cfg.Addr())
	}()

	var listenErr error
	select {
	case listenErr = <-errCh:
	case <-ctx.Done():
		s.log.Info("shutting down")
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			s.log.WithError(err).Warn("HTTP shutdown incomplete")
		}
	}

	return errors.Join(listenErr, s.Close())
}

// Close releases background workers, metrics and the database.
func (s *Server) Close() error {
	s.pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(s.metrics.Shutdown(ctx), s.stores.Close(ctx))
}
