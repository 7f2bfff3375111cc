// Package mongostore хранит шаблоны и наборы в MongoDB.
// Документы совместимы с коллекциями formtemplates/formbundles прежней версии сервиса
// (ObjectID в _id, forms - массив ObjectID).
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"formfill/internal/logs"
)

const (
	templatesCollection = "formtemplates"
	bundlesCollection   = "formbundles"
)

// Connect открывает пул соединений. Закрывается через client.Disconnect при остановке сервиса.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes создаёт уникальные индексы по filename и bundle_name.
// На старых данных с дублями индекс не создастся - пишем warning и работаем дальше.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	idx := map[string]string{
		templatesCollection: "filename",
		bundlesCollection:   "bundle_name",
	}
	for coll, field := range idx {
		_, err := db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			logs.Logger.WithError(err).Warnf("mongo: unique index %s.%s not created", coll, field)
		}
	}
}
