// internal/server/server.go
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/api/schemas"
	"github.com/dkoval87/gherkinforge/internal/service"
)

// Server is the HTTP surface over the generation service.
type Server struct {
	svc     *service.Service
	version string
	log     *zap.Logger
	http    *http.Server
}

// New builds the server with its routes registered.
func New(addr, version string, svc *service.Service, logger *zap.Logger) *Server {
	s := &Server{svc: svc, version: version, log: logger.Named("server")}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/", s.handleInfo)
	router.GET("/health", s.handleHealth)
	api := router.Group("/api")
	{
		api.POST("/generate/auto", s.handleGenerateAuto)
		api.POST("/generate/custom", s.handleGenerateCustom)
		api.POST("/generate/custom/file", s.handleGenerateCustomFile)
		api.GET("/files", s.handleListFiles)
		api.GET("/download/:filename", s.handleDownload)
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening.", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("Request handled.",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "gherkinforge API",
		"version": s.version,
		"status":  "running",
		"endpoints": gin.H{
			"health":           "/health",
			"auto_generate":    "/api/generate/auto",
			"custom_test":      "/api/generate/custom",
			"custom_test_file": "/api/generate/custom/file",
			"list_features":    "/api/files",
			"download_feature": "/api/download/{filename}",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
}

func (s *Server) handleGenerateAuto(c *gin.Context) {
	var req schemas.AutoGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.svc.GenerateAuto(c.Request.Context(), req)
	if err != nil {
		s.log.Error("Autonomous generation failed.", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGenerateCustom(c *gin.Context) {
	var req schemas.CustomTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.svc.GenerateCustom(c.Request.Context(), req)
	if err != nil {
		s.log.Error("Custom generation failed.", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleGenerateCustomFile accepts the test script as a multipart upload
// instead of a JSON body. Same pipeline as the JSON endpoint.
func (s *Server) handleGenerateCustomFile(c *gin.Context) {
	url := c.PostForm("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url form field is required"})
		return
	}
	upload, err := c.FormFile("test_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "test_file upload is required"})
		return
	}

	f, err := upload.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uploaded test script is empty"})
		return
	}

	req := schemas.CustomTestRequest{
		URL:       url,
		TestSteps: string(content),
		Model:     c.PostForm("model"),
		Execute:   c.PostForm("execute") == "true",
	}
	resp, err := s.svc.GenerateCustom(c.Request.Context(), req)
	if err != nil {
		s.log.Error("Custom file generation failed.", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp.Metadata["source_file"] = upload.Filename
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListFiles(c *gin.Context) {
	resp, err := s.svc.ListFeatures()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDownload(c *gin.Context) {
	path, err := s.svc.FeaturePath(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.FileAttachment(path, c.Param("filename"))
}
