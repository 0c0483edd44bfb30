package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaki95/studio-eighty7/config"
	"github.com/jaki95/studio-eighty7/internal/contact"
	"github.com/jaki95/studio-eighty7/internal/content"
	"github.com/jaki95/studio-eighty7/internal/domain"
	"github.com/jaki95/studio-eighty7/internal/generation"
	"github.com/jaki95/studio-eighty7/internal/ratelimit"
)

const serviceName = "studio-eighty7-backend"

// Generator produces creative text for a topic.
type Generator interface {
	Generate(ctx context.Context, topic string) (generation.Result, error)
}

// ContactSubmitter accepts contact-form messages.
type ContactSubmitter interface {
	Submit(ctx context.Context, name, email, message string) (contact.Result, error)
}

// ContentFetcher returns site content, falling back to bundled data.
type ContentFetcher interface {
	Fetch(ctx context.Context, r domain.Resource) (any, content.Origin, error)
}

// RateLimiter admits or denies a request from a client IP.
type RateLimiter interface {
	Allow(ctx context.Context, clientIP string) (ratelimit.Decision, error)
	Policy() ratelimit.Policy
}

// Deps are the collaborators the HTTP layer delegates to.
type Deps struct {
	Generator       Generator
	Contact         ContactSubmitter
	Content         ContentFetcher
	GenerateLimiter RateLimiter
	ContactLimiter  RateLimiter
	Logger          *slog.Logger
}

// Server handles HTTP requests for the studio site
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	logger *slog.Logger
	now    func() time.Time

	generator       Generator
	contact         ContactSubmitter
	content         ContentFetcher
	generateLimiter RateLimiter
	contactLimiter  RateLimiter
}

// New creates a new HTTP server instance
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Generator == nil || deps.Contact == nil || deps.Content == nil {
		return nil, errors.New("server requires a generator, contact submitter and content fetcher")
	}
	if deps.GenerateLimiter == nil || deps.ContactLimiter == nil {
		return nil, errors.New("server requires rate limiters for generate and contact")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	s := &Server{
		cfg:             cfg,
		router:          router,
		logger:          logger,
		now:             time.Now,
		generator:       deps.Generator,
		contact:         deps.Contact,
		content:         deps.Content,
		generateLimiter: deps.GenerateLimiter,
		contactLimiter:  deps.ContactLimiter,
	}

	s.setupRoutes(router)
	return s, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes(router *gin.Engine) {
	router.Use(
		s.recovery(),
		requestID(),
		s.requestLogger(),
		securityHeaders(),
		cors(s.cfg.Server.FrontendURL),
	)
	router.NoRoute(notFound)

	// Health check stays outside the rate limiters
	router.GET("/health", s.health)

	api := router.Group("/api")
	api.Use(bodyLimit(contact.MaxBodyBytes))
	{
		api.POST("/generate", s.rateLimit(s.generateLimiter, generateLimitedBody), s.generate)
		api.POST("/contact", s.rateLimit(s.contactLimiter, contactLimitedBody), s.submitContact)
		api.GET("/content/:type", s.getContent)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logStartup()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server", "timeout", s.cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}

func (s *Server) logStartup() {
	s.logger.Info("Studio Eighty7 backend running",
		"port", s.cfg.Server.Port,
		"environment", s.cfg.Env,
		"corsOrigin", s.cfg.Server.FrontendURL,
		"generateLimit", describePolicy(s.generateLimiter.Policy(), "requests"),
		"contactLimit", describePolicy(s.contactLimiter.Policy(), "messages"),
	)
}

// health handles health check requests
// @Summary Health check
// @Description Reports that the service is up. Never rate limited.
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: s.now().UTC().Format(isoMillis),
		Service:   serviceName,
	})
}
