package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/birlik/portal-auth/internal/models"
	"github.com/birlik/portal-auth/internal/storage"
)

func (s *Storage) CreateContent(ctx context.Context, content *models.Content) error {
	if content.ID.IsZero() {
		content.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	content.CreatedAt = now
	content.UpdatedAt = now

	if _, err := s.contents.InsertOne(ctx, content); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrDuplicateContent
		}
		return fmt.Errorf("insert content: %w", err)
	}

	return nil
}

func (s *Storage) UpdateContent(ctx context.Context, id string, title string, fields map[string]any) (*models.Content, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrContentNotFound
	}

	update := bson.M{"$set": bson.M{
		"title":      title,
		"fields":     fields,
		"updated_at": time.Now().UTC(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var content models.Content
	err = s.contents.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&content)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrContentNotFound
		}
		return nil, fmt.Errorf("update content: %w", err)
	}

	return &content, nil
}

func (s *Storage) GetContentBySlug(ctx context.Context, slug string) (*models.Content, error) {
	var content models.Content
	err := s.contents.FindOne(ctx, bson.M{"slug": slug}).Decode(&content)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrContentNotFound
		}
		return nil, fmt.Errorf("find content: %w", err)
	}
	return &content, nil
}
