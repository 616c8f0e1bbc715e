package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

const (
	// query parameter on GET / and the API, hidden field on form posts
	queryFilterKey = "date"
	formFilterKey  = "filter"

	summaryCacheSize = 64
	cacheSweepEvery  = time.Minute
	readyTimeout     = 5 * time.Second
)

// Options configures NewServer.
type Options struct {
	Addr               string
	Service            *services.TransactionService
	Ping               func(ctx context.Context) error
	Logger             *log.Logger
	SummaryCacheTTL    time.Duration
	RateLimitPerMinute int
}

// Server is the dashboard and API server.
type Server struct {
	http.Server
	templates *template.Template
	svc       *services.TransactionService
	ping      func(ctx context.Context) error
	logger    *log.Logger

	summaryCache *cache.LRUCache[core.Totals]
	cacheManager *cache.Manager
	rateLimiter  *ratelimit.Limiter
	tracer       *trace.Middleware
	clientIP     *security.ClientIPResolver

	started     time.Time
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	ping := opts.Ping
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}

	s := &Server{
		svc:          opts.Service,
		ping:         ping,
		logger:       logger,
		summaryCache: cache.NewLRUCache[core.Totals](summaryCacheSize, opts.SummaryCacheTTL),
		cacheManager: cache.NewManager(logger),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		clientIP:     security.NewClientIPResolver(),
		started:      time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.clientIP.ClientIP)

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(cacheSweepEvery)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldOperation, log.OpRender, log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.clientIP.ClientIP, s.onRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /transactions/{index}/delete", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/transactions", s.handleAPIList)
	mux.HandleFunc("POST /api/transactions", s.handleAPICreate)
	mux.HandleFunc("GET /api/transactions/{index}", s.handleAPIGet)
	mux.HandleFunc("DELETE /api/transactions/{index}", s.handleAPIDelete)
	mux.HandleFunc("GET /api/summary", s.handleAPISummary)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.clientIP.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

// summary returns the cached totals for filter at the current revision.
func (s *Server) summary(ctx context.Context, filter string) core.Totals {
	key := strconv.FormatUint(s.svc.Revision(), 10) + "|" + filter
	if totals, ok := s.summaryCache.Get(key); ok {
		s.cacheHits.Add(1)
		return totals
	}
	s.cacheMisses.Add(1)

	totals := s.svc.Summary(filter)
	s.summaryCache.Set(key, totals)
	log.FromContext(ctx).WithComponent(log.ComponentCache).DebugContext(ctx, "Summary cached",
		log.FieldFilterDate, filter, "cache_key", key)
	return totals
}

// invalidateSummaries drops totals computed for earlier revisions.
func (s *Server) invalidateSummaries() {
	s.summaryCache.Clear()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
