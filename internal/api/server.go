package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/mqtt-topics-translator/internal/audit"
	"github.com/nerrad567/mqtt-topics-translator/internal/connection"
	"github.com/nerrad567/mqtt-topics-translator/internal/infrastructure/config"
	"github.com/nerrad567/mqtt-topics-translator/internal/infrastructure/logging"
	"github.com/nerrad567/mqtt-topics-translator/internal/mapping"
	"github.com/nerrad567/mqtt-topics-translator/internal/router"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StatusSource reports the broker connection status.
// Satisfied by *connection.Manager.
type StatusSource interface {
	Status() connection.Status
}

// StatsSource reports routing counters. Satisfied by *router.Router.
type StatsSource interface {
	Stats() router.Stats
}

// AuditReader lists journal entries. Satisfied by *audit.SQLiteRepository.
type AuditReader interface {
	List(ctx context.Context, filter audit.Filter) (*audit.ListResult, error)
}

// HealthChecker is implemented by infrastructure clients (database,
// InfluxDB, MQTT).
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Logger     *logging.Logger
	Connection StatusSource
	Stats      StatsSource
	Table      *mapping.Table
	Audit      AuditReader              // optional; /audit returns 503 without it
	Checks     map[string]HealthChecker // optional; reported by /health
	Hub        *Hub                     // optional; the caller runs an injected hub
	Version    string
}

// Server is the HTTP API server.
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	logger      *logging.Logger
	conn        StatusSource
	stats       StatsSource
	table       *mapping.Table
	audit       AuditReader
	checks      map[string]HealthChecker
	version     string
	startTime   time.Time
	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc
}

// New creates a new API server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Connection == nil {
		return nil, fmt.Errorf("connection status source is required")
	}
	if deps.Stats == nil {
		return nil, fmt.Errorf("router stats source is required")
	}
	if deps.Table == nil {
		return nil, fmt.Errorf("mapping table is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		conn:      deps.Connection,
		stats:     deps.Stats,
		table:     deps.Table,
		audit:     deps.Audit,
		checks:    deps.Checks,
		version:   deps.Version,
		startTime: time.Now(),
	}

	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, deps.Logger)
	}

	return s, nil
}

// Hub returns the WebSocket hub used by the server.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start launches the HTTP listener in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
