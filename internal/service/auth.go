package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/birlik/portal-auth/internal/models"
	"github.com/birlik/portal-auth/internal/storage"
)

var (
	// ErrInvalidCredentials covers both unknown user and wrong password
	// so the response never reveals which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden means a valid identity with an insufficient role.
	ErrForbidden = errors.New("insufficient role")

	// ErrRoleNotAllowed rejects self-service registration with an
	// admin-class role.
	ErrRoleNotAllowed = errors.New("role not allowed for registration")
)

type LoginResult struct {
	AccessToken string
	ExpiresIn   int64
	User        *models.User
}

type AuthService struct {
	tokens   *TokenService
	users    storage.UserRepository
	webhooks *WebhookService
	log      *zap.SugaredLogger
}

func NewAuthService(tokens *TokenService, users storage.UserRepository, webhooks *WebhookService, log *zap.SugaredLogger) *AuthService {
	return &AuthService{
		tokens:   tokens,
		users:    users,
		webhooks: webhooks,
		log:      log,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	role := models.RoleUser
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrRoleNotAllowed, req.Role)
		}
		if parsed == models.RoleAdmin || parsed == models.RoleSuperAdmin {
			return nil, ErrRoleNotAllowed
		}
		role = parsed
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         role,
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infow("user registered", "username", user.Username, "role", user.Role)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, clientIP string) (*LoginResult, error) {
	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !CheckPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Principal(), time.Now())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.webhooks.NotifyLogin(ctx, map[string]interface{}{
		"event":     "login",
		"username":  user.Username,
		"role":      user.Role,
		"client_ip": clientIP,
		"time":      time.Now().UTC().Format(time.RFC3339),
	})

	return &LoginResult{
		AccessToken: token,
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
		User:        user,
	}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, p *models.Principal) (*models.User, error) {
	return s.users.GetUserByID(ctx, p.UserID)
}
