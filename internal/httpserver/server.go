// Package httpserver exposes the tool dispatcher over HTTP for clients
// that do not speak MCP stdio: a tool listing, a call endpoint, and a
// chat endpoint, plus health and metrics.
package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
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
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HengJake/KAIATradeAssistantBackend/internal/config"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/logging"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/mcpserver"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/metrics"
	"github.com/HengJake/KAIATradeAssistantBackend/internal/validation"
)

// ChatHandler routes free-text messages. Implemented by chat.Router.
type ChatHandler interface {
	Handle(ctx context.Context, message, userAddress string) (string, error)
}

// Server wraps the HTTP server and dependencies.
type Server struct {
	cfg        *config.Config
	dispatcher *mcpserver.Dispatcher
	chat       ChatHandler
	router     *gin.Engine
	httpSrv    *http.Server
	logger     *slog.Logger

	healthy atomic.Bool
	ready   atomic.Bool
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a new server instance.
func New(cfg *config.Config, dispatcher *mcpserver.Dispatcher, chat ChatHandler, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		chat:       chat,
		logger:     logging.New(cfg.LogLevel, "json"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/v1")
	v1.GET("/tools", s.listToolsHandler)
	v1.POST("/tools/:name", s.callToolHandler)
	v1.POST("/chat", s.chatHandler)
}

// toolDescriptor is the listing shape returned by GET /v1/tools.
type toolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) listToolsHandler(c *gin.Context) {
	var out []toolDescriptor
	for _, tool := range s.dispatcher.ListTools() {
		out = append(out, toolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"tools": out,
		"count": len(out),
	})
}

// callToolHandler invokes a tool by name. The JSON body is the argument
// bag; an empty or absent body means no arguments. Tool failures come
// back as an error envelope, not an HTTP error status.
func (s *Server) callToolHandler(c *gin.Context) {
	name := c.Param("name")

	var args map[string]any
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&args); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "Request body must be a JSON object",
			})
			return
		}
	}

	result, err := s.dispatcher.Dispatch(c.Request.Context(), name, args)
	if err != nil {
		logging.L(c.Request.Context()).Error("tool call failed", "tool", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Tool invocation failed",
		})
		return
	}

	text := resultText(result)
	if result.IsError {
		c.JSON(http.StatusOK, gin.H{"error": text})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": text})
}

func (s *Server) chatHandler(c *gin.Context) {
	var req struct {
		Message     string `json:"message" binding:"required"`
		UserAddress string `json:"userAddress" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "message and userAddress are required",
		})
		return
	}

	reply, err := s.chat.Handle(c.Request.Context(), req.Message, req.UserAddress)
	if err != nil {
		logging.L(c.Request.Context()).Error("chat handling failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"error": fmt.Sprintf("Error handling chat: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func resultText(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// -----------------------------------------------------------------------------
// Health handlers
// -----------------------------------------------------------------------------

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

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

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
