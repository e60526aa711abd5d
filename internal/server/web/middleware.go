package web

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/server/auth"
	"github.com/privnotes/notes/internal/server/models"
	"golang.org/x/time/rate"
)

type ctxKey string

const userKey ctxKey = "user"

func (s *Server) requestLogger(c fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := s.errorHandler(c, err); herr != nil {
			return herr
		}
	}

	s.logger.Info(c.Context(), "request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency", time.Since(start).String(),
	)
	return nil
}

// session resolves the session cookie to a user. A missing, invalid or
// expired cookie, or a user that no longer exists, leaves the request
// anonymous.
func (s *Server) session(c fiber.Ctx) error {
	token := c.Cookies(common.SessionCookieName)
	if token == "" {
		return c.Next()
	}

	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return c.Next()
	}

	user, err := s.svc.Users.GetUser(c.Context(), userID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(c.Context(), "session lookup failed", "user_id", userID, "error", err.Error())
		}
		return c.Next()
	}

	c.Locals(userKey, user)
	return c.Next()
}

func (s *Server) requireUser(c fiber.Ctx) error {
	if currentUser(c) == nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	return c.Next()
}

func currentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

func (s *Server) setSession(c fiber.Ctx, userID string, remember bool) error {
	token, err := auth.GenerateToken(userID, s.jwtSecret, s.opts.SessionTTL)
	if err != nil {
		return err
	}

	cookie := &fiber.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if remember {
		cookie.MaxAge = int(s.opts.SessionTTL.Seconds())
	}

	c.Cookie(cookie)
	return nil
}

func (s *Server) clearSession(c fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
}

func (s *Server) rateLimit(c fiber.Ctx) error {
	if !s.limiter.allow(c.IP()) {
		s.logger.Warn(c.Context(), "rate limited", "ip", c.IP(), "path", c.Path())
		return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
	}
	return c.Next()
}

// limiterIdle is how long a client may go quiet before its bucket is
// dropped. Buckets refill completely within a minute, so a dropped bucket
// behaves exactly like the fresh one that replaces it.
const limiterIdle = 2 * time.Minute

// ipLimiter keeps one token bucket per client IP. A non-positive rate
// disables throttling.
type ipLimiter struct {
	mu        sync.Mutex
	clients   map[string]*ipClient
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type ipClient struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perMinute int) *ipLimiter {
	l := &ipLimiter{clients: make(map[string]*ipClient), burst: perMinute, now: time.Now}
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return l
}

func (l *ipLimiter) allow(ip string) bool {
	if l.burst <= 0 {
		return true
	}

	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= limiterIdle {
		l.sweep(now)
	}
	cl, ok := l.clients[ip]
	if !ok {
		cl = &ipClient{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = cl
	}
	cl.lastSeen = now
	l.mu.Unlock()

	return cl.lim.AllowN(now, 1)
}

// sweep drops clients idle for limiterIdle or longer. Callers hold mu.
func (l *ipLimiter) sweep(now time.Time) {
	for ip, cl := range l.clients {
		if now.Sub(cl.lastSeen) >= limiterIdle {
			delete(l.clients, ip)
		}
	}
	l.lastSweep = now
}

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
