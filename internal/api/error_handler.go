package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/birlik/portal-auth/internal/service"
	"github.com/birlik/portal-auth/internal/storage"
	"github.com/birlik/portal-auth/internal/util"
)

type errorResponse struct {
	Reason string `json:"reason"`
}

// ErrorHandler maps the error taxonomy to HTTP statuses. Responses
// carry a short machine-safe reason; internals (claim contents, stack
// traces, hash errors) are never echoed back.
func ErrorHandler(log *zap.SugaredLogger, metrics *Metrics) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, reason := classify(err)

		switch status {
		case http.StatusUnauthorized, http.StatusForbidden:
			metrics.AuthFailures.Inc()
		case http.StatusBadRequest:
			var violation *service.SecurityViolationError
			if errors.As(err, &violation) {
				metrics.SecurityViolations.Inc()
			}
		case http.StatusInternalServerError:
			log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		}

		if err := c.JSON(status, errorResponse{Reason: reason}); err != nil {
			log.Errorw("failed to write json response", "error", err)
		}
	}
}

func classify(err error) (int, string) {
	var violation *service.SecurityViolationError
	var responseErr util.ResponseError
	var httpErr *echo.HTTPError

	switch {
	case errors.Is(err, service.ErrTokenInvalid):
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "insufficient role"
	case errors.As(err, &violation):
		return http.StatusBadRequest, violation.Error()
	case errors.Is(err, service.ErrRoleNotAllowed):
		return http.StatusBadRequest, "role not allowed for registration"
	case errors.Is(err, storage.ErrDuplicateUser):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, storage.ErrDuplicateContent):
		return http.StatusConflict, "content already exists"
	case errors.Is(err, storage.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, storage.ErrContentNotFound):
		return http.StatusNotFound, "content not found"
	case errors.As(err, &responseErr):
		return responseErr.Status, responseErr.Msg
	case errors.As(err, &httpErr):
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, msg
		}
		return httpErr.Code, http.StatusText(httpErr.Code)
	}

	return http.StatusInternalServerError, "internal server error"
}
