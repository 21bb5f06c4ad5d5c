// Package fakesut is a small web application with a login form, a
// per-client lockout and a per-session rate limit. It stands in for the
// system under test so the scenarios can run end to end.
package fakesut

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"golang.org/x/time/rate"
)

// Config configures the server. Zero values take the defaults listed on
// each field.
type Config struct {
	// Users maps email to password.
	Users map[string]string

	MaxLoginAttempts int           // 3
	LockoutDuration  time.Duration // 15m

	PagePath       string        // /page
	WarmupRequests int           // 2
	ActionBurst    int           // 3
	ActionInterval time.Duration // 10s per token
	Cooldown       time.Duration // 5s

	SessionDuration  time.Duration // 1h
	CookieName       string        // e2e_session
	ClientCookieName string        // e2e_client
	CookieSecret     string        // random

	LoginTitle     string // Login
	MainTitle      string // Dashboard
	PageTitle      string // Test Page
	EmailLabel     string // Email
	PasswordLabel  string // Password
	LoginButton    string // Sign in
	PageLinkText   string // Open test page
	Test01Button   string // Test 01
	Test02Button   string // Test 02
	LockoutMessage string // Account locked
	InvalidMessage string // Invalid email or password
}

func (c Config) withDefaults() Config {
	setInt := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	setDur := func(v *time.Duration, d time.Duration) {
		if *v <= 0 {
			*v = d
		}
	}
	setStr := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	setInt(&c.MaxLoginAttempts, 3)
	setDur(&c.LockoutDuration, 15*time.Minute)
	setStr(&c.PagePath, "/page")
	setInt(&c.WarmupRequests, 2)
	setInt(&c.ActionBurst, 3)
	setDur(&c.ActionInterval, 10*time.Second)
	setDur(&c.Cooldown, 5*time.Second)
	setDur(&c.SessionDuration, time.Hour)
	setStr(&c.CookieName, "e2e_session")
	setStr(&c.ClientCookieName, "e2e_client")
	setStr(&c.LoginTitle, "Login")
	setStr(&c.MainTitle, "Dashboard")
	setStr(&c.PageTitle, "Test Page")
	setStr(&c.EmailLabel, "Email")
	setStr(&c.PasswordLabel, "Password")
	setStr(&c.LoginButton, "Sign in")
	setStr(&c.PageLinkText, "Open test page")
	setStr(&c.Test01Button, "Test 01")
	setStr(&c.Test02Button, "Test 02")
	setStr(&c.LockoutMessage, "Account locked")
	setStr(&c.InvalidMessage, "Invalid email or password")
	return c
}

// Option customises a Server.
type Option func(*Server)

// WithClock replaces time.Now, which drives sessions, lockouts and the
// rate limit.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// Server is the fake system under test.
type Server struct {
	cfg      Config
	users    map[string]*User
	sessions *Manager
	lockouts *lockoutTracker
	cookies  *securecookie.SecureCookie
	router   *mux.Router
	logger   logger.Logger
	now      func() time.Time

	httpSrv  *http.Server
	listener net.Listener
}

// New creates a Server.
func New(cfg Config, log logger.Logger, opts ...Option) (*Server, error) {
	cfg = cfg.withDefaults()
	if len(cfg.Users) == 0 {
		return nil, errors.New("at least one user is required")
	}

	secret := []byte(cfg.CookieSecret)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}

	s := &Server{
		cfg:      cfg,
		users:    make(map[string]*User, len(cfg.Users)),
		lockouts: newLockoutTracker(cfg.MaxLoginAttempts, cfg.LockoutDuration),
		cookies:  securecookie.New(secret, nil),
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for email, password := range cfg.Users {
		u, err := NewUser(email, password)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", email, err)
		}
		s.users[u.Email] = u
	}

	newLimiter := func() *rate.Limiter {
		return rate.NewLimiter(rate.Every(cfg.ActionInterval), cfg.ActionBurst)
	}
	s.sessions = NewManager(cfg.SessionDuration, newLimiter, s.now, log)
	s.router = s.routes()
	return s, nil
}

// Config returns the effective configuration.
func (s *Server) Config() Config {
	return s.cfg
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/login", s.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	r.HandleFunc("/about", s.static("About", "A stand-in application for browser tests.")).Methods(http.MethodGet)
	r.HandleFunc("/help", s.static("Help", "Sign in with a configured account.")).Methods(http.MethodGet)
	r.HandleFunc("/status", s.static("Status", "All systems operational.")).Methods(http.MethodGet)
	r.HandleFunc("/action/{name}", s.requireSession(s.action, false)).Methods(http.MethodPost)
	r.HandleFunc(s.cfg.PagePath, s.requireSession(s.page, true)).Methods(http.MethodGet)
	r.HandleFunc("/", s.requireSession(s.home, true)).Methods(http.MethodGet)
	r.Use(s.logRequests)
	return r
}

// Start listens on addr (":0" picks a free port) and serves in the
// background. It returns the base URL.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpSrv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.sessions.StartCleanup(time.Minute)

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(context.Background(), "server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	url := "http://" + ln.Addr().String()
	s.logger.Info(context.Background(), "fake system under test listening", map[string]interface{}{
		"url": url,
	})
	return url, nil
}

// Shutdown stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.StopCleanup()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
