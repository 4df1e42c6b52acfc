package redis

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// NewClient dials Redis and pings it once.
func NewClient(addr, password string, db int, logger log.Logger) (*redis.Client, func(), error) {
	l := log.NewHelper(log.With(logger, "module", "repository/redis"))
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	l.Infof("redis connected addr=%s db=%d", addr, db)
	cleanup := func() {
		if err := rdb.Close(); err != nil {
			l.Errorf("failed to close redis: %v", err)
		}
	}
	return rdb, cleanup, nil
}
