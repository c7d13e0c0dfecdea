package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/birlik/portal-auth/internal/models"
	"github.com/birlik/portal-auth/internal/service"
	"github.com/birlik/portal-auth/internal/storage"
)

type Controller struct {
	auth      *service.AuthService
	sanitizer *service.Sanitizer
	contents  storage.ContentRepository
	log       *zap.SugaredLogger
}

func NewController(auth *service.AuthService, sanitizer *service.Sanitizer, contents storage.ContentRepository, log *zap.SugaredLogger) *Controller {
	return &Controller{
		auth:      auth,
		sanitizer: sanitizer,
		contents:  contents,
		log:       log,
	}
}

// (GET /api/ping).
func (c *Controller) Ping(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, "ok")
}

// (POST /api/auth/register).
func (c *Controller) Register(ctx echo.Context) error {
	var req models.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	user, err := c.auth.Register(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, user)
}

// (POST /api/auth/login).
func (c *Controller) Login(ctx echo.Context) error {
	var req models.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	result, err := c.auth.Login(ctx.Request().Context(), req, ctx.RealIP())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   result.ExpiresIn,
	})
}

// (GET /api/auth/me).
func (c *Controller) Me(ctx echo.Context) error {
	principal, ok := ctx.Get(models.MwPrincipalKey).(*models.Principal)
	if !ok {
		return service.ErrTokenInvalid
	}

	user, err := c.auth.CurrentUser(ctx.Request().Context(), principal)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, user)
}

// (POST /api/admin/contents).
func (c *Controller) CreateContent(ctx echo.Context) error {
	principal, ok := ctx.Get(models.MwPrincipalKey).(*models.Principal)
	if !ok {
		return service.ErrTokenInvalid
	}

	req, err := c.bindContentRequest(ctx)
	if err != nil {
		return err
	}

	content := &models.Content{
		Slug:      req.Slug,
		Title:     req.Title,
		Fields:    req.Fields,
		CreatedBy: principal.UserID,
	}
	if err := c.contents.CreateContent(ctx.Request().Context(), content); err != nil {
		return err
	}

	c.log.Infow("content created", "slug", content.Slug, "by", principal.Username)
	return ctx.JSON(http.StatusCreated, content)
}

// (PUT /api/admin/contents/:id).
func (c *Controller) UpdateContent(ctx echo.Context) error {
	req, err := c.bindContentRequest(ctx)
	if err != nil {
		return err
	}

	content, err := c.contents.UpdateContent(ctx.Request().Context(), ctx.Param("id"), req.Title, req.Fields)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, content)
}

// (GET /api/contents/:slug).
func (c *Controller) GetContent(ctx echo.Context) error {
	content, err := c.contents.GetContentBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, content)
}

// bindContentRequest binds, validates and sanitizes a content payload.
// Every string in Fields goes through the key-routed sanitizer before
// it can reach the store.
func (c *Controller) bindContentRequest(ctx echo.Context) (*models.ContentRequest, error) {
	var req models.ContentRequest
	if err := ctx.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return nil, err
	}

	title, err := c.sanitizer.SanitizePlainText("title", req.Title, 256)
	if err != nil {
		return nil, err
	}
	req.Title = title

	if req.Fields != nil {
		fields, err := c.sanitizer.SanitizeMap(req.Fields)
		if err != nil {
			return nil, err
		}
		req.Fields = fields
	}

	return &req, nil
}
