package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/vbanctl/internal/auth"
	"github.com/danmuck/vbanctl/internal/config"
	"github.com/danmuck/vbanctl/internal/control"
	"github.com/danmuck/vbanctl/internal/observability"
	"github.com/danmuck/vbanctl/internal/pipewire"
)

const (
	ServiceName = "vbanctl"
	Version     = "0.1.0"
)

// Server exposes the controller over HTTP. Passes that touch PipeWire or the
// drop-in directory run one at a time. Mutating routes need a bearer token
// when one is configured.
type Server struct {
	Addr     string
	Appeared time.Time
	Auth     auth.Validator

	ctrl   *control.Controller
	router *gin.Engine
	mu     sync.Mutex
}

func New(ctrl *control.Controller) *Server {
	observability.RegisterMetrics()
	settings := ctrl.Settings()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(ServiceName))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(settings.CorsOrigins),
		AllowMethods: []string{"GET", "POST", "PUT"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	srv := &Server{
		Addr:     settings.HTTPAddr,
		Appeared: time.Now(),
		ctrl:     ctrl,
		router:   r,
	}
	if settings.AuthToken != "" {
		srv.Auth = auth.StaticToken{Token: settings.AuthToken}
	}
	return srv
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) Serve() error {
	s.RegisterRoutes()
	log.Info().Str("addr", s.Addr).Msg("server listening")
	return s.router.Run(s.Addr)
}

func (s *Server) RegisterRoutes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": ServiceName,
			"version": Version,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/sources", func(c *gin.Context) {
		sources, err := s.ctrl.Sources()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sources": sources})
	})

	r.GET("/config", func(c *gin.Context) {
		cfg, err := s.ctrl.LoadConfig()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, cfg)
	})

	mutate := r.Group("/")
	if s.Auth != nil {
		mutate.Use(auth.Require(s.Auth))
	}

	mutate.PUT("/config", func(c *gin.Context) {
		cfg, present, err := readConfig(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !present {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body is required"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.ctrl.SaveConfig(cfg); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, cfg)
	})

	r.GET("/status", func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		report, err := s.ctrl.Status()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	})

	mutate.POST("/apply", s.handleApply)

	mutate.POST("/autolink", func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		summary, err := s.ctrl.Autolink()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	})

	mutate.POST("/restart", func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.ctrl.Restart(); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// handleApply applies the request body when one is sent, otherwise the saved
// model. Query flags: restart (default false) and link (default true).
func (s *Server) handleApply(c *gin.Context) {
	restart, err := queryBool(c, "restart", false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	link, err := queryBool(c, "link", true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, present, err := readConfig(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !present {
		if cfg, err = s.ctrl.LoadConfig(); err != nil {
			fail(c, err)
			return
		}
	}

	result, err := s.ctrl.Apply(cfg, control.ApplyOptions{Restart: restart, Link: link})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": result.Status(), "result": result})
}

// readConfig decodes a JSON model from the request body. present is false
// for an empty body, whatever the declared Content-Length.
func readConfig(c *gin.Context) (cfg config.AppConfig, present bool, err error) {
	raw, err := c.GetRawData()
	if err != nil {
		return cfg, false, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, false, nil
	}
	cfg, err = config.DecodeModel(raw, json.Unmarshal)
	if err != nil {
		return cfg, true, fmt.Errorf("decode config body: %w", err)
	}
	return cfg, true, nil
}

func queryBool(c *gin.Context, key string, fallback bool) (bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New("invalid " + key + " flag: " + raw)
	}
	return v, nil
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var sourcesErr *pipewire.SourcesError
	switch {
	case errors.Is(err, config.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, pipewire.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &sourcesErr),
		errors.Is(err, pipewire.ErrIntrospection),
		errors.Is(err, pipewire.ErrLink),
		errors.Is(err, pipewire.ErrRestart):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
