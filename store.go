package quizbank

import (
	"context"
	"fmt"
	"time"
)

// BankStore persists the whole bank. Save replaces the stored collection
// atomically; readers never observe a partially written bank.
type BankStore interface {
	Load(ctx context.Context) (Bank, error)
	Save(ctx context.Context, bank Bank) error
	Clear(ctx context.Context) error
}

// Store drivers accepted by OpenStore
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// StoreConfig selects and configures a BankStore
type StoreConfig struct {
	Driver          string `yaml:"driver"`
	Path            string `yaml:"path"`
	RedisAddr       string `yaml:"redis_addr"`
	RedisKey        string `yaml:"redis_key"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
	BankName        string `yaml:"bank_name"`
}

// OpenStore opens the store named by cfg.Driver. The returned func releases it.
func OpenStore(ctx context.Context, cfg StoreConfig) (BankStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case DriverFile, "":
		return NewFileStore(cfg.Path), noop, nil

	case DriverSQLite:
		store, err := OpenSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case DriverRedis:
		store, err := OpenRedisStore(ctx, cfg.RedisAddr, cfg.RedisKey)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := OpenMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, cfg.BankName)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return store.Close(context.Background()) }, nil

	case DriverMemory:
		return NewMemoryStore(nil), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
