package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/ranktrackhq/billing-service/internal/adapter/handler/http"
	"github.com/ranktrackhq/billing-service/internal/config"
	"github.com/ranktrackhq/billing-service/internal/middleware/auth"
	"github.com/ranktrackhq/billing-service/internal/usecase"
	apperrors "github.com/ranktrackhq/billing-service/pkg/errors"
	"github.com/ranktrackhq/billing-service/pkg/ratelimit"
	"go.uber.org/zap"
)

type Server struct {
	config        *config.Config
	logger        *zap.Logger
	echo          *echo.Echo
	payments      *usecase.PaymentService
	cancellations *usecase.CancellationService
	sweeper       *usecase.ExpirySweeper
	limiter       ratelimit.Limiter
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	payments *usecase.PaymentService,
	cancellations *usecase.CancellationService,
	sweeper *usecase.ExpirySweeper,
	limiter ratelimit.Limiter,
) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	return &Server{
		config:        cfg,
		logger:        logger,
		echo:          e,
		payments:      payments,
		cancellations: cancellations,
		sweeper:       sweeper,
		limiter:       limiter,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(s.payments, s.logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(s.cancellations, s.logger)
	webhookHandler := handlers.NewWebhookHandler(s.payments, s.config.Gateways.Midtrans.ServerKey, s.logger)
	sweepHandler := handlers.NewSweepHandler(s.sweeper, s.logger)

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/webhook",
		},
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Protected routes (require JWT authentication)
	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	// Payment routes
	protected.POST("/payments", paymentHandler.CreatePayment, s.rateLimitMiddleware())
	protected.GET("/payments", paymentHandler.GetUserPayments)
	protected.GET("/payments/recent", paymentHandler.GetUserRecentPayments)
	protected.GET("/payments/:id", paymentHandler.GetPayment)

	// Subscription routes
	subscriptions := protected.Group("/subscriptions")
	subscriptions.DELETE("/:id", subscriptionHandler.CancelSubscription)
	subscriptions.GET("/:id/refund-window", subscriptionHandler.GetRefundWindow)

	// Internal operator routes
	internal := protected.Group("/internal")
	internal.POST("/expire-sweep", sweepHandler.TriggerSweep)

	// Webhook route (outside API versioning, signature auth instead of JWT)
	s.echo.POST("/webhook/midtrans", webhookHandler.HandleMidtransNotification)
}

// rateLimitMiddleware throttles payment creation per user. A limiter
// failure never blocks the request.
func (s *Server) rateLimitMiddleware() echo.MiddlewareFunc {
	limitCfg := ratelimit.Config{
		MaxAttempts: s.config.RateLimit.MaxAttempts,
		Window:      s.config.RateLimit.Window,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.limiter == nil || limitCfg.MaxAttempts <= 0 {
				return next(c)
			}

			user, err := auth.GetUserFromContext(c)
			if err != nil {
				return next(c)
			}

			key := "payment:" + user.UserID.String()
			result, err := s.limiter.Check(c.Request().Context(), key, limitCfg)
			if err != nil {
				s.logger.Warn("Rate limit check failed", zap.Error(err))
				return next(c)
			}
			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "Too many payment attempts, try again later",
					"code":        apperrors.ErrRateLimited,
					"retry_after": int(result.RetryAfter.Seconds()),
				})
			}

			if err := s.limiter.Increment(c.Request().Context(), key, limitCfg); err != nil {
				s.logger.Warn("Rate limit increment failed", zap.Error(err))
			}

			return next(c)
		}
	}
}
