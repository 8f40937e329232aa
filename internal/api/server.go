// Package api provides the HTTP REST API and WebSocket server for the
// Amarillo portal backend.
//
// It exposes admin authentication, geography lookups, portal user
// management, access point management, question management, and scoped
// dashboard aggregates. Every authenticated request carries a scope
// filter derived from the admin's role; handlers never widen it.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
	"github.com/JeanClaudeMorales/amarillo/internal/geo"
	"github.com/JeanClaudeMorales/amarillo/internal/infrastructure/config"
	"github.com/JeanClaudeMorales/amarillo/internal/infrastructure/logging"
	"github.com/JeanClaudeMorales/amarillo/internal/portal"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// sessionSweepInterval is how often expired sessions are purged from storage.
// Expiry is enforced on every Validate; the sweep is hygiene only.
const sessionSweepInterval = time.Hour

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	Logger       *logging.Logger
	Admins       auth.AdminRepository
	Sessions     *auth.SessionManager
	Geo          geo.Repository
	AccessPoints *portal.AccessPointRepository
	Users        *portal.PortalUserRepository
	Questions    *portal.QuestionRepository
	PortalConfig *portal.ConfigRepository
	Dashboard    *portal.DashboardRepository
	Version      string
}

// Server is the HTTP API server for the portal backend.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	logger       *logging.Logger
	admins       auth.AdminRepository
	sessions     *auth.SessionManager
	geo          geo.Repository
	accessPoints *portal.AccessPointRepository
	users        *portal.PortalUserRepository
	questions    *portal.QuestionRepository
	portalConfig *portal.ConfigRepository
	dashboard    *portal.DashboardRepository
	version      string
	server       *http.Server
	cancel       context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Admins == nil {
		return nil, fmt.Errorf("admin repository is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if deps.Geo == nil {
		return nil, fmt.Errorf("geography repository is required")
	}

	return &Server{
		cfg:          deps.Config,
		logger:       deps.Logger,
		admins:       deps.Admins,
		sessions:     deps.Sessions,
		geo:          deps.Geo,
		accessPoints: deps.AccessPoints,
		users:        deps.Users,
		questions:    deps.Questions,
		portalConfig: deps.PortalConfig,
		dashboard:    deps.Dashboard,
		version:      deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the session sweep goroutine, and
// launches the HTTP listener in a background goroutine. The server can
// be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.sweepSessionsLoop(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// sweepSessionsLoop purges expired sessions periodically until the
// context is cancelled.
func (s *Server) sweepSessionsLoop(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.sessions.DeleteExpired(ctx)
			if err != nil {
				s.logger.Error("session sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				s.logger.Debug("expired sessions purged", "count", deleted)
			}
		}
	}
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
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

// HealthCheck verifies the API server is running and responsive.
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
