package api

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/birlik/portal-auth/internal/controller"
	"github.com/birlik/portal-auth/internal/models"
	"github.com/birlik/portal-auth/internal/ratelimit"
	"github.com/birlik/portal-auth/internal/service"
	"github.com/birlik/portal-auth/internal/util"
)

const shutdownTimeout = 5 * time.Second

// Limiters groups the two rate-limit buckets: General guards every
// route, Auth is the stricter bucket on the credential endpoints.
type Limiters struct {
	General ratelimit.Limiter
	Auth    ratelimit.Limiter
}

type API struct {
	server          *echo.Echo
	controller      *controller.Controller
	tokens          *service.TokenService
	limiters        Limiters
	metrics         *Metrics
	log             *zap.SugaredLogger
	gracefulTimeout time.Duration
}

func NewAPI(c *controller.Controller, tokens *service.TokenService, limiters Limiters, metrics *Metrics, sc *util.ServerConfig, l *zap.SugaredLogger) *API {
	e := echo.New()

	e.Server.Addr = sc.ServerAddr
	e.Server.WriteTimeout = sc.WriteTimeout
	e.Server.ReadTimeout = sc.ReadTimeout
	e.Server.IdleTimeout = sc.IdleTimeout
	e.HTTPErrorHandler = ErrorHandler(l, metrics)
	e.Validator = NewRequestValidator()

	return &API{
		server:          e,
		controller:      c,
		tokens:          tokens,
		limiters:        limiters,
		metrics:         metrics,
		log:             l,
		gracefulTimeout: sc.GracefulTimeout,
	}
}

func (a *API) Run(ctxBackground context.Context) {
	ctx, stop := signal.NotifyContext(ctxBackground, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.RegisterRoutes()

	a.ListenGracefulShutdown(ctx)
}

func (a *API) RegisterRoutes() {
	a.server.Use(echomiddleware.RequestLoggerWithConfig(GetLoggerMiddlewareConfig(a)))
	a.server.Use(RateLimit(a.limiters.General, a.metrics, a.log))

	a.server.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))

	g := a.server.Group("/api")
	g.GET("/ping", a.controller.Ping)
	g.GET("/contents/:slug", a.controller.GetContent)

	auth := g.Group("/auth")
	authLimit := RateLimit(a.limiters.Auth, a.metrics, a.log)
	auth.POST("/register", a.controller.Register, authLimit)
	auth.POST("/login", a.controller.Login, authLimit)
	auth.GET("/me", a.controller.Me, BearerAuth(a.tokens))

	admin := g.Group("/admin", BearerAuth(a.tokens), RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
	admin.POST("/contents", a.controller.CreateContent)
	admin.PUT("/contents/:id", a.controller.UpdateContent)
}

// Server exposes the underlying echo instance for tests.
func (a *API) Server() *echo.Echo {
	return a.server
}

func (a *API) ListenGracefulShutdown(ctx context.Context) {
	go func() {
		err := a.server.Start(a.server.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()
	a.log.Infof("Listening on: %s", a.server.Server.Addr)

	<-ctx.Done()
	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.log.Errorf("shutdown: %v", err)
	}

	longShutdown := make(chan struct{}, 1)

	go func() {
		time.Sleep(a.gracefulTimeout)
		longShutdown <- struct{}{}
	}()

	select {
	case <-shutdownCtx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			a.log.Info("server shutdown completed")
		} else {
			a.log.Errorf("server shutdown: %v", ctx.Err())
		}
	case <-longShutdown:
		a.log.Infof("finished")
	}
}
