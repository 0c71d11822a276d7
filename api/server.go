package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reelvault/asset-services/lifecycle"
	"github.com/reelvault/asset-services/models/common"
)

// Server exposes the asset lifecycle over HTTP.
//
// Everything except ping, metrics and share link redemption requires
// the bearer token in Config.APIToken.
type Server struct {
	Context  *common.Context
	Engine   *gin.Engine
	Manager  *lifecycle.Manager
	Metrics  *Metrics
	Registry *prometheus.Registry
	Shares   *lifecycle.ShareIssuer

	httpServer *http.Server
}

// NewServer builds the router. Metrics go to a fresh registry that
// also carries the Go and process collectors.
func NewServer(context *common.Context) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	manager := lifecycle.NewManager(context)
	return NewServerWith(context, manager, lifecycle.NewShareIssuer(manager), registry)
}

// NewServerWith builds the router around an existing manager and
// share issuer.
func NewServerWith(context *common.Context, manager *lifecycle.Manager, shares *lifecycle.ShareIssuer, registry *prometheus.Registry) *Server {
	if context.Config.LogLevel != logging.DEBUG {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &Server{
		Context:  context,
		Engine:   gin.New(),
		Manager:  manager,
		Metrics:  MustNewMetrics(registry),
		Registry: registry,
		Shares:   shares,
	}
	server.setupRoutes()
	server.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", context.Config.HTTPPort),
		Handler:           server.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server
}

func (s *Server) setupRoutes() {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	s.Engine.Use(RequestLogger(s.Context.Logger), gin.Recovery(), cors.New(corsConfig))

	s.Engine.GET("/ping", s.ping)
	s.Engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))
	s.Engine.GET("/video/share/:token", s.redeem)

	authorized := s.Engine.Group("/")
	authorized.Use(RequireToken(s.Context.Config.APIToken))
	{
		authorized.POST("/video", s.upload)
		authorized.GET("/video/:id", s.get)
		authorized.POST("/video/:id/trim", s.trim)
		authorized.POST("/video/:id/share", s.share)
		authorized.POST("/videos/merge", s.merge)
	}
}

// ServeHTTP lets the server stand in for its router in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// ListenAndServe serves on Config.HTTPPort until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.Context.Logger.Infof("Listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
