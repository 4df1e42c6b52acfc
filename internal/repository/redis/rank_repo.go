package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const RankKeyPrefix = "rank:movies:"

// RankRepository is one named order-by-metric projection over movies, kept
// in a sorted set. Callers store the negated metric so an ascending read is
// highest first. Members are zero padded ids, so equal scores come back in
// id order.
type RankRepository struct {
	RDB  *redis.Client
	name string
}

func NewRankRepository(rdb *redis.Client, name string) *RankRepository {
	return &RankRepository{RDB: rdb, name: name}
}

func (r *RankRepository) Name() string { return r.name }

func (r *RankRepository) key() string { return RankKeyPrefix + r.name }

func member(id uint64) string { return fmt.Sprintf("%020d", id) }

// Insert adds the movie unless it is already present. It reports whether
// anything was added.
func (r *RankRepository) Insert(ctx context.Context, movieID uint64, score float64) (bool, error) {
	n, err := r.RDB.ZAddNX(ctx, r.key(), redis.Z{Score: score, Member: member(movieID)}).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Replace moves the movie to score, inserting it when absent.
func (r *RankRepository) Replace(ctx context.Context, movieID uint64, score float64) error {
	return r.RDB.ZAdd(ctx, r.key(), redis.Z{Score: score, Member: member(movieID)}).Err()
}

func (r *RankRepository) Remove(ctx context.Context, movieID uint64) error {
	return r.RDB.ZRem(ctx, r.key(), member(movieID)).Err()
}

func (r *RankRepository) Count(ctx context.Context) (int64, error) {
	return r.RDB.ZCard(ctx, r.key()).Result()
}

// Range returns up to limit ids starting at the zero based rank offset.
func (r *RankRepository) Range(ctx context.Context, offset, limit int64) ([]uint64, error) {
	if limit <= 0 {
		return nil, nil
	}
	members, err := r.RDB.ZRange(ctx, r.key(), offset, offset+limit-1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("rank %s: bad member %q: %w", r.name, m, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *RankRepository) Clear(ctx context.Context) error {
	return r.RDB.Del(ctx, r.key()).Err()
}
