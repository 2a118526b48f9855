package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	handlers "github.com/XAOSTECH/payments.xaostech.io/internal/adapter/handler/http"
	"github.com/XAOSTECH/payments.xaostech.io/internal/config"
	"github.com/XAOSTECH/payments.xaostech.io/internal/infrastructure/metrics"
	"github.com/XAOSTECH/payments.xaostech.io/internal/middleware/auth"
	apperrors "github.com/XAOSTECH/payments.xaostech.io/pkg/errors"
	"github.com/XAOSTECH/payments.xaostech.io/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP routes delegate to.
type Dependencies struct {
	Applier  handlers.WebhookApplier
	Resolver handlers.PlanResolver
	Family   handlers.FamilyPlanManager
	Metrics  *metrics.Metrics
	// Health reports whether backing stores are reachable. Optional.
	Health func(ctx context.Context) error
}

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	deps   Dependencies
}

func NewServer(cfg *config.Config, log *zap.Logger, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = apperrors.NewEchoErrorHandler(log)
	logger.WithEchoLogger(e, log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(deps.Metrics.EchoMiddleware())
	if len(cfg.Server.HTTP.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Server.HTTP.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}

	s := &Server{
		config: cfg,
		logger: log,
		echo:   e,
		deps:   deps,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown. A graceful shutdown returns nil.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.health)
	s.echo.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))

	webhookHandler := handlers.NewWebhookHandler(s.deps.Applier, s.config.Service.StripeWebhookSecret, s.logger.Named("webhook"))
	entitlementHandler := handlers.NewEntitlementHandler(s.deps.Resolver, s.logger.Named("entitlement"))
	familyHandler := handlers.NewFamilyHandler(s.deps.Family, s.logger.Named("family"))

	// Webhook route (outside API versioning)
	s.echo.POST("/webhook", webhookHandler.HandleWebhook)

	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
	}

	users := s.echo.Group("/api/v1/users/:userId", auth.JWTMiddleware(jwtConfig))
	users.GET("/entitlements", entitlementHandler.GetEntitlements)
	users.GET("/subscription", entitlementHandler.GetSubscription)

	family := users.Group("/family")
	family.POST("", familyHandler.CreateFamilyPlan)
	family.POST("/members", familyHandler.AddMember)
	family.GET("/members", familyHandler.ListMembers)
	family.DELETE("/members/:memberId", familyHandler.RemoveMember)
}

func (s *Server) health(c echo.Context) error {
	body := map[string]string{
		"status":  "healthy",
		"service": s.config.Service.Name,
	}

	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health(ctx); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			body["status"] = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
	}

	return c.JSON(http.StatusOK, body)
}
