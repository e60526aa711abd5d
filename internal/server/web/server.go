// Package web is the HTTP boundary of the notes server. It turns form
// submissions into service calls and answers with JSON or redirects.
package web

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/privnotes/notes/internal/logging"
	"github.com/privnotes/notes/internal/server/storage"
)

// shutdownTimeout bounds how long in-flight requests may run once the
// server is asked to stop.
const shutdownTimeout = 10 * time.Second

// Services bundles the business operations the handlers call.
type Services struct {
	Users    Users
	Accounts Accounts
	Profiles Profiles
	Notes    Notes
	Pages    Pages
	Sites    Sites
	Media    storage.Store
}

// Options are the transport settings taken from config.
type Options struct {
	SecretKey          string
	SessionTTL         time.Duration
	SecureCookies      bool
	RateLimitPerMinute int
}

type Server struct {
	address   string
	app       *fiber.App
	svc       Services
	logger    logging.Logger
	jwtSecret []byte
	opts      Options
	limiter   *ipLimiter
}

func NewServer(address string, l logging.Logger, svc Services, opts Options) *Server {
	s := &Server{
		address:   address,
		svc:       svc,
		logger:    l.With("module", "web_server"),
		jwtSecret: []byte(opts.SecretKey),
		opts:      opts,
		limiter:   newIPLimiter(opts.RateLimitPerMinute),
	}

	s.app = fiber.New(fiber.Config{
		BodyLimit:    storage.MaxUploadSize + 64<<10,
		ErrorHandler: s.errorHandler,
	})
	s.routes()

	return s
}

// App exposes the fiber application, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) routes() {
	s.app.Use(s.requestLogger, s.session)

	s.app.Get("/healthz", s.health)

	s.app.Post("/join", s.rateLimit, s.join)
	s.app.Post("/login", s.rateLimit, s.login)
	s.app.Post("/logout", s.logout)
	s.app.Post("/forgot", s.rateLimit, s.forgot)
	s.app.Get("/reset/:token", s.rateLimit, s.checkReset)
	s.app.Post("/reset/:token", s.rateLimit, s.reset)

	s.app.Post("/verify", s.requireUser, s.resendVerification)
	s.app.Get("/verify/:token", s.requireUser, s.verify)
	s.app.Post("/verify/:token", s.requireUser, s.verify)
	s.app.Post("/undo-signup/:token", s.requireUser, s.undoSignup)

	s.app.Get("/p", s.listPublicPages)
	s.app.Get("/p/:slug", s.publicPage)
	s.app.Get("/site", s.publicSite)
	s.app.Get("/media/*", s.media)

	app := s.app.Group("/app", s.requireUser)

	app.Get("/me", s.me)
	app.Post("/profile", s.updateProfile)
	app.Get("/data", s.exportData)
	app.Post("/data", s.deleteData)

	app.Get("/notes", s.listNotes)
	app.Post("/notes", s.createNote)
	app.Get("/notes/:id", s.getNote)
	app.Post("/notes/:id", s.updateNote)
	app.Post("/notes/:id/delete", s.deleteNote)

	app.Get("/pages", s.listPages)
	app.Post("/pages", s.createPage)
	app.Get("/pages/:id", s.getPage)
	app.Post("/pages/:id", s.updatePage)
	app.Post("/pages/:id/delete", s.deletePage)

	app.Get("/site", s.getSite)
	app.Post("/site", s.saveSite)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- s.app.Listen(s.address, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return s.app.ShutdownWithContext(shutdownCtx)
}

func (s *Server) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
