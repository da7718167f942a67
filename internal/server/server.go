// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/lendiq/riskcore/internal/config"
	"github.com/lendiq/riskcore/internal/credits"
	"github.com/lendiq/riskcore/internal/health"
	"github.com/lendiq/riskcore/internal/kv"
	"github.com/lendiq/riskcore/internal/logging"
	"github.com/lendiq/riskcore/internal/metrics"
	"github.com/lendiq/riskcore/internal/paywall"
	"github.com/lendiq/riskcore/internal/ratelimit"
	"github.com/lendiq/riskcore/internal/realtime"
	"github.com/lendiq/riskcore/internal/reports"
	"github.com/lendiq/riskcore/internal/riskdata"
	"github.com/lendiq/riskcore/internal/scoring"
	"github.com/lendiq/riskcore/internal/security"
	"github.com/lendiq/riskcore/internal/traces"
	"github.com/lendiq/riskcore/internal/validation"
	"github.com/lendiq/riskcore/internal/weights"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg          *config.Config
	ledger       *credits.Ledger
	topup        *credits.TopUpService
	entitlements *reports.Service
	riskCache    *riskdata.Cache
	paywallSvc   *paywall.Service
	weightsReg   *weights.Registry
	hub          *realtime.Hub
	rateLimiter  *ratelimit.Limiter
	healthReg    *health.Registry
	db           *sql.DB // nil if using KV storage
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	cancelRunCtx context.CancelFunc
	traceStop    func(context.Context) error

	ready atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRiskSource overrides the risk data source (for testing)
func WithRiskSource(src riskdata.Source) Option {
	return func(s *Server) {
		s.riskCache = riskdata.NewCache(src)
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	for _, opt := range opts {
		opt(s)
	}

	// Storage: Postgres when DATABASE_URL is set, otherwise the local KV
	// store (file-backed when DATA_FILE is set, in-memory otherwise).
	var (
		creditStore   credits.Store
		purchaseStore reports.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		s.db = db
		creditStore = credits.NewPostgresStore(db)
		purchaseStore = reports.NewPostgresStore(db)
		s.logger.Info("using PostgreSQL storage")
	} else {
		var backend kv.Store
		if cfg.DataFile != "" {
			file, err := kv.NewFile(cfg.DataFile)
			if err != nil {
				return nil, fmt.Errorf("open data file: %w", err)
			}
			backend = file
			s.logger.Info("using file-backed KV storage", "path", cfg.DataFile)
		} else {
			backend = kv.NewMemory()
			s.logger.Info("using in-memory storage (state is lost on restart)")
		}
		creditStore = credits.NewKVStore(backend)
		purchaseStore = reports.NewKVStore(backend)
	}

	s.ledger = credits.NewLedger(creditStore)
	s.entitlements = reports.NewService(purchaseStore)

	// Payments: paid top-ups only when Stripe is configured.
	if cfg.StripeAPIKey != "" {
		s.topup = credits.NewTopUpService(s.ledger, credits.NewStripeProvider(cfg.StripeAPIKey))
		s.logger.Info("paid credit top-ups enabled")
	}

	// Risk data: upstream when configured, sample source otherwise.
	if s.riskCache == nil {
		var src riskdata.Source
		if cfg.RiskAPIBaseURL != "" {
			src = riskdata.NewHTTPSource(cfg.RiskAPIBaseURL)
		} else {
			src = riskdata.NewSampleSource()
			s.logger.Info("using sample risk data source")
		}
		s.riskCache = riskdata.NewCache(src)
	}
	s.riskCache.WithTTL(cfg.RiskDataTTL)

	var reportAPI paywall.ReportAPI
	if cfg.ReportAPIBaseURL != "" {
		reportAPI = paywall.NewHTTPReportAPI(cfg.ReportAPIBaseURL)
	} else {
		reportAPI = paywall.NewSampleReportAPI()
		s.logger.Info("using sample report collaborator")
	}

	s.hub = realtime.NewHub(s.logger)
	s.paywallSvc = paywall.NewService(s.ledger, s.entitlements, s.riskCache, reportAPI).
		WithPublisher(s.hub)

	s.weightsReg = weights.NewRegistry()
	s.rateLimiter = ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitRPM,
		BurstSize:         cfg.RateLimitRPM / 6,
		CleanupInterval:   time.Minute,
	})

	s.healthReg = health.NewRegistry()
	s.healthReg.Register("storage", s.storageCheck)

	s.setupRouter()
	return s, nil
}

// storageCheck verifies the persistence layer is reachable.
func (s *Server) storageCheck(ctx context.Context) health.Status {
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			return health.Status{Name: "storage", Healthy: false, Detail: err.Error()}
		}
		return health.Status{Name: "storage", Healthy: true, Detail: "postgres"}
	}
	if _, err := s.ledger.Balance(ctx); err != nil {
		return health.Status{Name: "storage", Healthy: false, Detail: err.Error()}
	}
	return health.Status{Name: "storage", Healthy: true, Detail: "kv"}
}

func (s *Server) setupRouter() {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.Middleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(security.HeadersMiddleware())
	r.Use(security.CORSMiddleware(s.cfg.AllowedOrigins))
	r.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))
	r.Use(s.rateLimiter.Middleware())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/readyz", s.handleReadyz)
	r.GET("/metrics", metrics.Handler())
	r.GET("/ws", func(c *gin.Context) {
		s.hub.HandleWebSocket(c.Writer, c.Request)
	})

	v1 := r.Group("/v1")
	v1.Use(validation.TransactionParamMiddleware())
	credits.NewHandler(s.ledger, s.topup).RegisterRoutes(v1)
	reports.NewHandler(s.entitlements).RegisterRoutes(v1)
	paywall.NewHandler(s.paywallSvc).RegisterRoutes(v1)
	riskdata.NewHandler(s.riskCache).RegisterRoutes(v1)
	scoring.NewHandler().RegisterRoutes(v1)
	weights.NewHandler(s.weightsReg).RegisterRoutes(v1)

	s.router = r
}

// Router exposes the underlying router (for tests)
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealthz(c *gin.Context) {
	healthy, statuses := s.healthReg.CheckAll(c.Request.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": healthy, "subsystems": statuses})
}

func (s *Server) handleReadyz(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// Run starts the server and blocks until shutdown
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	stopTraces, err := traces.Init(runCtx, s.cfg.OTLPEndpoint, s.logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	s.traceStop = stopTraces

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.hub.Run(runCtx)

	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel background goroutines (hub, in-flight fetches)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}
	s.riskCache.Clear()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	s.rateLimiter.Stop()

	if s.traceStop != nil {
		if err := s.traceStop(ctx); err != nil {
			s.logger.Warn("trace shutdown error", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("database close error", "error", err)
		}
	}

	s.logger.Info("shutdown complete")
	return nil
}
