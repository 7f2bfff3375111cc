package server

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"formfill/config"
	"formfill/internal/db"
	"formfill/internal/health"
	"formfill/internal/mongostore"
	"formfill/internal/repo"
)

// Stores - хранилища шаблонов и наборов поверх выбранного драйвера.
type Stores struct {
	Templates repo.Templates
	Bundles   repo.Bundles
	Ping      health.Pinger
	close     func(ctx context.Context) error
}

// Close освобождает пул соединений.
func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStores подключает хранилище по database.driver: mongo или gorm (postgres|mysql|sqlite).
// Подключение ограничено database.op_timeout.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	if t := cfg.Database.OpTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	if cfg.Database.Driver == "mongo" {
		return openMongo(ctx, cfg)
	}
	return openGorm(cfg)
}

func openMongo(ctx context.Context, cfg *config.Config) (*Stores, error) {
	client, err := mongostore.Connect(ctx, cfg.Database.DSN, cfg.Database.OpTimeout)
	if err != nil {
		return nil, err
	}
	database := client.Database(cfg.Database.Name)
	mongostore.EnsureIndexes(ctx, database)

	ts := mongostore.NewTemplateStore(database)
	return &Stores{
		Templates: ts,
		Bundles:   mongostore.NewBundleStore(database, ts),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}

func openGorm(cfg *config.Config) (*Stores, error) {
	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.Migrate(d); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return &Stores{
		Templates: repo.NewTemplateStore(d),
		Bundles:   repo.NewBundleStore(d),
		Ping:      health.GormPinger(d),
		close: func(context.Context) error {
			sqlDB, err := d.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}
