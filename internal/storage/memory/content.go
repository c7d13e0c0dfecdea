package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/birlik/portal-auth/internal/models"
	"github.com/birlik/portal-auth/internal/storage"
)

func (m *Storage) CreateContent(ctx context.Context, content *models.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.contents {
		if c.Slug == content.Slug {
			return storage.ErrDuplicateContent
		}
	}

	if content.ID.IsZero() {
		content.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	content.CreatedAt = now
	content.UpdatedAt = now
	m.contents[content.ID.Hex()] = *content

	return nil
}

func (m *Storage) UpdateContent(ctx context.Context, id string, title string, fields map[string]any) (*models.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.contents[id]
	if !ok {
		return nil, storage.ErrContentNotFound
	}

	content.Title = title
	content.Fields = fields
	content.UpdatedAt = time.Now().UTC()
	m.contents[id] = content

	return &content, nil
}

func (m *Storage) GetContentBySlug(ctx context.Context, slug string) (*models.Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.contents {
		if c.Slug == slug {
			content := c
			return &content, nil
		}
	}
	return nil, storage.ErrContentNotFound
}
