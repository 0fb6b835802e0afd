package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/embeddings"
	"github.com/fyrsmithlabs/docqd/internal/generation"
	"github.com/fyrsmithlabs/docqd/internal/vectorstore"
)

// maxUploadSize caps how much of an uploaded document is read.
const maxUploadSize = 32 << 20 // 32MB

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// LoadModelRequest is the request body for POST /load-model.
type LoadModelRequest struct {
	Domain string `json:"domain"`
}

// LoadModelResponse is the response body for POST /load-model.
type LoadModelResponse struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// UploadResponse is the response body for POST /upload.
type UploadResponse struct {
	DocID   string `json:"doc_id"`
	Message string `json:"message"`
}

// QueryRequest is the request body for POST /query.
type QueryRequest struct {
	Domain   string `json:"domain"`
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleLoadModel warms the embedding model for a domain so the first
// upload or query doesn't pay the load cost.
func (s *Server) handleLoadModel(c echo.Context) error {
	var req LoadModelRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid load-model request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	domain := req.Domain
	if domain == "" {
		domain = "general"
	}

	if err := s.loader.Preload(c.Request().Context(), domain); err != nil {
		s.logger.Error("model preload failed", zap.String("domain", domain), zap.Error(err))
		return echo.NewHTTPError(statusForError(err), err.Error())
	}

	return c.JSON(http.StatusOK, LoadModelResponse{
		Message: fmt.Sprintf("Model loaded for %s", domain),
		Model:   s.loader.ModelForDomain(domain),
	})
}

// handleUpload ingests a multipart document upload into the domain's
// collection.
func (s *Server) handleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}

	domain := c.FormValue("domain")
	if domain == "" {
		domain = "general"
	}

	f, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file")
	}
	if len(data) > maxUploadSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "uploaded file exceeds size limit")
	}

	result, err := s.ingestor.Ingest(c.Request().Context(), data, fileHeader.Filename, domain)
	if err != nil {
		s.logger.Error("ingestion failed",
			zap.String("filename", fileHeader.Filename),
			zap.String("domain", domain),
			zap.Error(err))
		return echo.NewHTTPError(statusForError(err), err.Error())
	}

	return c.JSON(http.StatusOK, UploadResponse{
		DocID:   result.DocID,
		Message: fmt.Sprintf("Upload successful for %s, chunks=%d", domain, result.ChunkCount),
	})
}

// handleQuery retrieves passages for the question and generates an answer.
// Generation failures degrade: the response still carries citations and the
// disclaimer with the error recorded in the payload.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid query request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question field is required")
	}

	domain := req.Domain
	if domain == "" {
		domain = "general"
	}

	passages, err := s.retriever.Retrieve(c.Request().Context(), domain, req.Question, req.TopK)
	if err != nil {
		s.logger.Error("retrieval failed", zap.String("domain", domain), zap.Error(err))
		return echo.NewHTTPError(statusForError(err), err.Error())
	}

	answer, err := s.generator.Answer(c.Request().Context(), domain, req.Question, passages)
	if err != nil && !errors.Is(err, generation.ErrUpstreamGeneration) {
		s.logger.Error("generation failed", zap.String("domain", domain), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, answer)
}

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, vectorstore.ErrInvalidDomain),
		errors.Is(err, vectorstore.ErrInvalidConfig),
		errors.Is(err, embeddings.ErrInvalidConfig),
		errors.Is(err, embeddings.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, embeddings.ErrModelLoad),
		errors.Is(err, embeddings.ErrModelCapability),
		errors.Is(err, vectorstore.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
