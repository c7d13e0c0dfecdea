package storage

import (
	"context"
	"errors"

	"github.com/birlik/portal-auth/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateUser    = errors.New("user already exists")
	ErrContentNotFound  = errors.New("content not found")
	ErrDuplicateContent = errors.New("content already exists")
)

type Storage interface {
	UserRepository
	ContentRepository
}

// UserRepository is the persistence boundary for the users collection.
// The auth service only consumes find-one/insert-one style operations;
// the schema itself belongs to the store.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type ContentRepository interface {
	CreateContent(ctx context.Context, content *models.Content) error
	UpdateContent(ctx context.Context, id string, title string, fields map[string]any) (*models.Content, error)
	GetContentBySlug(ctx context.Context, slug string) (*models.Content, error)
}
