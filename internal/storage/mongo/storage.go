package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	usersCollection    = "users"
	contentsCollection = "contents"

	indexTimeout = 10 * time.Second
)

type Storage struct {
	users    *mongo.Collection
	contents *mongo.Collection
	log      *zap.SugaredLogger
}

func NewStorage(db *mongo.Database, log *zap.SugaredLogger) *Storage {
	s := &Storage{
		users:    db.Collection(usersCollection),
		contents: db.Collection(contentsCollection),
		log:      log,
	}
	s.ensureIndexes()
	return s
}

func (s *Storage) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		s.log.Warnw("failed to create user indexes", "error", err)
	}

	contentIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.contents.Indexes().CreateOne(ctx, contentIndex); err != nil {
		s.log.Warnw("failed to create content index", "error", err)
	}
}
