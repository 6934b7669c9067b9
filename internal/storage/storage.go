// Package storage opens the configured backend.
package storage

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/saxenaaman628/badenya/config"
	"github.com/saxenaaman628/badenya/internal/groups"
	"github.com/saxenaaman628/badenya/internal/ledger"
	"github.com/saxenaaman628/badenya/internal/memstore"
	"github.com/saxenaaman628/badenya/internal/proposals"
	"github.com/saxenaaman628/badenya/internal/redis"
	redishandler "github.com/saxenaaman628/badenya/internal/redisHandler"
	"github.com/saxenaaman628/badenya/internal/sqlstore"
	"github.com/saxenaaman628/badenya/internal/users"
	"go.uber.org/zap"
)

// Backend is everything the service needs from a store.
type Backend interface {
	proposals.Store
	proposals.MembershipRegistry
	proposals.GroupReader
	groups.Repository
	ledger.Repository
	users.Repository
	Ping(ctx context.Context) error
	Close() error
}

type Storage struct {
	Backend
	// Redis is set when the backend runs on Redis; the notification stream shares it.
	Redis *goredis.Client
}

var (
	_ Backend = (*memstore.Store)(nil)
	_ Backend = (*redishandler.Store)(nil)
	_ Backend = (*sqlstore.Store)(nil)
)

func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Storage, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb, err := redis.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("redis connected", zap.String("addr", cfg.RedisURI), zap.Int("db", cfg.RedisDB))
		return &Storage{Backend: redishandler.New(rdb), Redis: rdb}, nil
	case config.BackendMySQL:
		s, err := sqlstore.OpenMySQL(cfg.MySQLDSN, log)
		if err != nil {
			return nil, err
		}
		log.Info("mysql connected")
		return &Storage{Backend: s}, nil
	case config.BackendMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return &Storage{Backend: memstore.New()}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
