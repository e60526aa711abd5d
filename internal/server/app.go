// Package server wires the notes server together: database and migrations,
// media storage, mail delivery, the read cache, services and the HTTP
// boundary. It also owns graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/privnotes/notes/internal/logging"
	"github.com/privnotes/notes/internal/server/cache"
	"github.com/privnotes/notes/internal/server/config"
	"github.com/privnotes/notes/internal/server/mail"
	"github.com/privnotes/notes/internal/server/repositories/repomanager"
	"github.com/privnotes/notes/internal/server/services"
	"github.com/privnotes/notes/internal/server/storage"
	"github.com/privnotes/notes/internal/server/web"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	notifier *mail.Notifier
	redis    *cache.RedisCache
	server   *web.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	if err := app.init(ctx); err != nil {
		app.close(ctx)
		return nil, err
	}

	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return err
	}

	media, err := storage.NewS3Store(ctx, storage.S3Config{
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		Region:       c.S3Region,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return fmt.Errorf("media storage init error: %w", err)
	}

	var sender mail.Sender = mail.NewLogSender(app.logger.With("module", "mail"))
	if c.MailQueueName != "" {
		sender, err = mail.NewSQSSender(ctx, c.SQSEndpoint, c.MailQueueName)
		if err != nil {
			return fmt.Errorf("mail queue init error: %w", err)
		}
	}
	app.notifier = mail.NewNotifier(sender, c.MailFrom, c.MailTimeout, app.logger.With("module", "notifier"))

	var rc cache.Cache = cache.Nop{}
	if c.RedisAddr != "" {
		app.redis, err = cache.NewRedisCache(ctx, c.RedisAddr)
		if err != nil {
			return fmt.Errorf("cache init error: %w", err)
		}
		rc = app.redis
	}

	svcLog := app.logger.With("module", "services")

	app.server = web.NewServer(c.HTTPAddr, app.logger, web.Services{
		Users:    services.NewUserService(app.db, rm, app.notifier, svcLog, c),
		Accounts: services.NewAccountService(app.db, rm, app.notifier, media, svcLog, c),
		Profiles: services.NewProfileService(app.db, rm, media, svcLog),
		Notes:    services.NewNoteService(app.db, rm, media, svcLog),
		Pages:    services.NewPageService(app.db, rm, media, rc, c.CacheTTL, svcLog),
		Sites:    services.NewSiteService(app.db, rm, media, rc, c.CacheTTL, svcLog),
		Media:    media,
	}, web.Options{
		SecretKey:          c.SecretKey,
		SessionTTL:         c.SessionTTL,
		SecureCookies:      c.SecureCookies,
		RateLimitPerMinute: c.RateLimitPerMinute,
	})

	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or ctx is cancelled, then
// drains pending mail and releases connections.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
}

func (app *App) close(ctx context.Context) {
	if app.notifier != nil {
		app.notifier.Wait()
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "error closing cache", "error", err.Error())
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "error closing db", "error", err.Error())
	}
}
