// Package mongo はMongoDBへの接続を提供します。
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"mindcare_backend/internal/platform/config"
)

const connectTimeout = 10 * time.Second

// Connect はMongoDBに接続し、設定されたデータベースを返します。
// URI が未設定の場合は (nil, nil, nil) を返します。
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if cfg.URI == "" {
		slog.Info("MongoDB is not configured, emotion analysis is disabled")
		return nil, nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("MongoDB connection successful", "database", cfg.Database)
	return client, client.Database(cfg.Database), nil
}
