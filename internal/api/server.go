package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/api/handlers"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/api/middleware"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/config"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services"
)

type Server struct {
	config    *config.Config
	container *services.ServiceContainer
	router    *gin.Engine
	server    *http.Server

	healthHandler   *handlers.HealthHandler
	zoneHandler     *handlers.ZoneHandler
	lightHandler    *handlers.LightHandler
	trackingHandler *handlers.TrackingHandler
	ptzHandler      *handlers.PTZHandler
}

func NewServer(cfg *config.Config) (*Server, error) {
	container, err := services.NewServiceContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	s := newServer(cfg, container)
	container.Start()
	return s, nil
}

func newServer(cfg *config.Config, container *services.ServiceContainer) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:        cfg,
		container:     container,
		router:        gin.New(),
		healthHandler: handlers.NewHealthHandler(cfg.WorkerID, cfg.Version, container.HealthProbes()),
		zoneHandler:   handlers.NewZoneHandler(container.Zones),
		lightHandler:  handlers.NewLightHandler(container.Lights),
	}
	if container.Pipeline != nil {
		s.trackingHandler = handlers.NewTrackingHandler(container.Pipeline, container.Pool)
	}
	if container.PTZ != nil {
		s.ptzHandler = handlers.NewPTZHandler(container.PTZ)
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting zone lighting API")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then tears down the services.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping zone lighting API")
	httpErr := s.server.Shutdown(ctx)
	return errors.Join(httpErr, s.container.Shutdown(ctx))
}

func (s *Server) Handler() http.Handler {
	return s.router
}
