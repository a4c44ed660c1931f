// Package server provides the HTTP API for charityd.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/charityd/internal/indexer"
	"github.com/fyrsmithlabs/charityd/internal/rag"
	"github.com/fyrsmithlabs/charityd/internal/vectorstore"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// Server provides HTTP endpoints for charityd.
type Server struct {
	echo    *echo.Echo
	service *rag.Service
	indexer *indexer.Pipeline
	store   vectorstore.Store
	logger  *zap.Logger
	config  Config
}

// New creates a new HTTP server.
func New(cfg Config, service *rag.Service, pipeline *indexer.Pipeline, store vectorstore.Store, logger *zap.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("rag service is required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("indexer pipeline is required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}

	cfg.ApplyDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := NewMetrics(registry)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(metrics.Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		service: service,
		indexer: pipeline,
		store:   store,
		logger:  logger,
		config:  cfg,
	}

	s.registerRoutes(registry)

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes(registry *prometheus.Registry) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/chat", s.handleChat)
	v1.POST("/index", s.handleIndex)
	v1.GET("/collections", s.handleCollections)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// ChatRequest is the request body for POST /api/v1/chat.
type ChatRequest struct {
	Query       string `json:"query"`
	CharityName string `json:"charity_name,omitempty"`
	TopK        int    `json:"top_k,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

// ChatResponse is the response body for POST /api/v1/chat.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	rag.Response
}

// handleChat answers a question about an indexed charity.
func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	resp, err := s.service.Query(c.Request().Context(), rag.Request{
		Query:       req.Query,
		CharityName: req.CharityName,
		TopK:        req.TopK,
		SessionID:   sessionID,
	})
	if err != nil {
		s.logger.Error("chat query failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "answer generation failed")
	}

	return c.JSON(http.StatusOK, ChatResponse{SessionID: sessionID, Response: *resp})
}

// IndexRequest is the request body for POST /api/v1/index.
type IndexRequest struct {
	CharityName string         `json:"charity_name"`
	Text        string         `json:"text"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// handleIndex indexes a charity document, replacing any prior collection.
func (s *Server) handleIndex(c echo.Context) error {
	var req IndexRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid index request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.indexer.IndexDocument(c.Request().Context(), req.CharityName, req.Text, req.Metadata)
	if err != nil {
		switch {
		case isClientError(err):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("indexing failed", zap.String("charity", req.CharityName), zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "indexing failed")
		}
	}

	return c.JSON(http.StatusOK, result)
}

// CollectionsResponse is the response body for GET /api/v1/collections.
type CollectionsResponse struct {
	Collections []string `json:"collections"`
}

// handleCollections lists the indexed collections.
func (s *Server) handleCollections(c echo.Context) error {
	names, err := s.store.ListCollections(c.Request().Context())
	if err != nil {
		s.logger.Error("listing collections failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "listing collections failed")
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, CollectionsResponse{Collections: names})
}

// isClientError reports whether an indexing error was caused by bad input.
func isClientError(err error) bool {
	return errors.Is(err, indexer.ErrEmptyCharityName) ||
		errors.Is(err, indexer.ErrEmptyDocument) ||
		errors.Is(err, vectorstore.ErrInvalidCollectionName)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
