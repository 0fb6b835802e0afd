// Package server provides the HTTP API for docqd.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/generation"
	"github.com/fyrsmithlabs/docqd/internal/ingest"
	"github.com/fyrsmithlabs/docqd/internal/vectorstore"
)

// Ingestor runs the upload pipeline for one document.
type Ingestor interface {
	Ingest(ctx context.Context, data []byte, filename, domain string) (ingest.Result, error)
}

// Retriever returns the passages most similar to a question.
type Retriever interface {
	Retrieve(ctx context.Context, domain, question string, topK int) ([]vectorstore.Passage, error)
}

// ModelLoader warms embedding models ahead of traffic.
type ModelLoader interface {
	Preload(ctx context.Context, domain string) error
	ModelForDomain(domain string) string
}

// AnswerGenerator produces a grounded answer from retrieved passages.
type AnswerGenerator interface {
	Answer(ctx context.Context, domain, question string, passages []vectorstore.Passage) (generation.Answer, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server provides HTTP endpoints for docqd.
type Server struct {
	echo      *echo.Echo
	ingestor  Ingestor
	retriever Retriever
	loader    ModelLoader
	generator AnswerGenerator
	logger    *zap.Logger
	config    *Config
}

// NewServer creates a new HTTP server.
func NewServer(ingestor Ingestor, retriever Retriever, loader ModelLoader, generator AnswerGenerator, logger *zap.Logger, cfg *Config) (*Server, error) {
	if ingestor == nil || retriever == nil || loader == nil || generator == nil {
		return nil, fmt.Errorf("all service dependencies are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8000,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
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
		echo:      e,
		ingestor:  ingestor,
		retriever: retriever,
		loader:    loader,
		generator: generator,
		logger:    logger,
		config:    cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/load-model", s.handleLoadModel)
	s.echo.POST("/upload", s.handleUpload)
	s.echo.POST("/query", s.handleQuery)
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
