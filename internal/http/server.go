package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"spendwise/internal/auth"
	"spendwise/internal/cache"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/middleware/security"
	"spendwise/internal/middleware/trace"
	"spendwise/internal/preferences"
	"spendwise/internal/services"
)

const shutdownTimeout = 10 * time.Second

// Pinger reports backend readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the API.
type Deps struct {
	Auth        *auth.Service
	Expenses    *services.ExpenseService
	Preferences *preferences.Service
	Exports     *services.ExportService
	Store       Pinger
}

// Options tune the server. Zero values pick defaults.
type Options struct {
	RateLimitPerMinute int
	DashboardCacheSize int
	DashboardCacheTTL  time.Duration
	SecureCookies      bool
	Logger             *log.Logger
	Now                func() time.Time
}

type Server struct {
	http.Server
	deps Deps

	logger     *log.Logger
	tracer     *trace.Middleware
	detector   *security.Detector
	limiter    *ratelimit.Limiter
	dashboards *cache.LRUCache[dashboardView]

	secureCookies bool
	now           func() time.Time
}

func NewServer(addr string, deps Deps, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DashboardCacheTTL <= 0 {
		opts.DashboardCacheTTL = 5 * time.Minute
	}

	s := &Server{
		deps:          deps,
		logger:        opts.Logger,
		tracer:        trace.NewMiddleware(),
		detector:      security.NewDetector(),
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		dashboards:    cache.NewLRUCache[dashboardView](opts.DashboardCacheSize, opts.DashboardCacheTTL),
		secureCookies: opts.SecureCookies,
		now:           opts.Now,
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /api/auth/login", s.handleSignIn)
	mux.HandleFunc("POST /api/auth/logout", s.handleSignOut)

	mux.Handle("GET /api/account", s.authed(s.handleGetAccount))
	mux.Handle("PATCH /api/account", s.authed(s.handleUpdateAccount))
	mux.Handle("DELETE /api/account", s.authed(s.handleDeleteAccount))

	mux.Handle("GET /api/categories", s.authed(s.handleCategories))
	mux.Handle("GET /api/expenses", s.authed(s.handleListExpenses))
	mux.Handle("POST /api/expenses", s.authed(s.handleCreateExpense))
	mux.Handle("PUT /api/expenses/{id}", s.authed(s.handleUpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", s.authed(s.handleDeleteExpense))

	mux.Handle("GET /api/dashboard", s.authed(s.handleDashboard))
	mux.Handle("GET /api/reports", s.authed(s.handleReport))
	mux.Handle("POST /api/export", s.authed(s.handleExport))

	mux.Handle("GET /api/preferences", s.authed(s.handleGetPreferences))
	mux.Handle("PUT /api/preferences", s.authed(s.handleSavePreferences))
	mux.Handle("DELETE /api/preferences", s.authed(s.handleResetPreferences))

	// Outermost first: trace, logging, security, rate limit.
	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.Middleware(s.logger, trace.FromRequest, s.detector.ExtractClientIP)(h)
	h = s.tracer.Middleware(h)
	return h
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ExtractClientIP(r))
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "HTTP server listening", "addr", ln.Addr().String())
		errCh <- s.Server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.InfoContext(shutdownCtx, "Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Janitor evicts expired dashboard entries and idle rate-limit clients
// every interval until ctx is cancelled.
func (s *Server) Janitor(ctx context.Context, interval time.Duration) error {
	m := cache.NewManager(s.dashboards, cache.CleanerFunc(s.limiter.Cleanup))
	return m.Run(ctx, interval)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

type userKey struct{}

// authedHandler receives the authenticated user.
type authedHandler func(w http.ResponseWriter, r *http.Request, u core.User)

// authed resolves the session token and rejects anonymous requests. A
// cookie session renewed by Authenticate gets a fresh cookie.
func (s *Server) authed(h authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, fromCookie := sessionToken(r)
		u, sess, err := s.deps.Auth.Authenticate(r.Context(), token)
		if err != nil {
			if fromCookie && errors.Is(err, core.ErrUnauthenticated) {
				s.clearSessionCookie(w)
			}
			writeServiceError(w, r, err)
			return
		}
		if fromCookie && sess.ExpiresAt.After(s.now().Add(s.deps.Auth.TTL()-time.Minute)) {
			s.setSessionCookie(w, sess)
		}

		logger := log.FromContext(r.Context()).WithUser(u.ID)
		ctx := log.NewContext(context.WithValue(r.Context(), userKey{}, u), logger)
		h(w, r.WithContext(ctx), u)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess core.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// viewerFor loads the user's display preferences. A preference failure
// degrades to the defaults rather than failing the request.
func (s *Server) viewerFor(r *http.Request, userID string) viewer {
	p, err := s.deps.Preferences.Get(r.Context(), userID)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Using default preferences", log.FieldError, err.Error())
	}
	return newViewer(p)
}
