package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/birlik/portal-auth/internal/models"
	"github.com/birlik/portal-auth/internal/ratelimit"
	"github.com/birlik/portal-auth/internal/service"
)

const bearerPrefix = "Bearer "

// BearerAuth verifies the Authorization header and stores the resulting
// principal in the echo context. Absent or malformed headers fail with
// 401 before any handler logic runs.
func BearerAuth(tokens *service.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				return service.ErrTokenInvalid
			}

			principal, err := tokens.Verify(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				return err
			}

			c.Set(models.MwPrincipalKey, principal)
			return next(c)
		}
	}
}

// RequireRole gates a route on the principal's role. Pure claim check,
// no database round-trip.
func RequireRole(allowed ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := PrincipalFromContext(c)
			if principal == nil {
				return service.ErrTokenInvalid
			}
			if !principal.HasRole(allowed...) {
				return service.ErrForbidden
			}
			return next(c)
		}
	}
}

func PrincipalFromContext(c echo.Context) *models.Principal {
	principal, _ := c.Get(models.MwPrincipalKey).(*models.Principal)
	return principal
}

// RateLimit keys on the raw peer address; there is deliberately no
// proxy-header parsing, so deployments behind a reverse proxy must
// terminate limits upstream or share a redis store.
func RateLimit(limiter ratelimit.Limiter, metrics *Metrics, log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := peerAddr(c.Request().RemoteAddr)

			allowed, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				// Fail open: the limiter is an abuse deterrent, not a
				// security boundary.
				log.Warnw("rate limiter unavailable", "error", err)
				return next(c)
			}
			if !allowed {
				metrics.RateLimited.Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

func peerAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func GetLoggerMiddlewareConfig(a *API) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", c.Request().Method,
				"uri", v.URI,
				"status", v.Status,
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				a.log.Errorw("Request", fields...)
			} else {
				a.log.Infow("Request", fields...)
			}
			return nil
		},
	}
}
