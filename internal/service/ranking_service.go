package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"Title_Vote/internal/model"
	"Title_Vote/internal/repository/mysql"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

type Metric string

const (
	MetricVotes  Metric = "votes"
	MetricViews  Metric = "views"
	MetricRecent Metric = "created"
)

var AllMetrics = []Metric{MetricVotes, MetricViews, MetricRecent}

// ParseMetric maps the public sort names onto metrics. Unknown names fall back to votes.
func ParseMetric(s string) Metric {
	switch s {
	case "views", "trending":
		return MetricViews
	case "recent", "created", "new":
		return MetricRecent
	}
	return MetricVotes
}

// RankIndex is one named order-statistic projection over movies. Lower
// scores come first; ties are ordered by movie id.
type RankIndex interface {
	Name() string
	// Insert is a no-op when the movie is already present.
	Insert(ctx context.Context, movieID uint64, score float64) (bool, error)
	// Replace upserts.
	Replace(ctx context.Context, movieID uint64, score float64) error
	Remove(ctx context.Context, movieID uint64) error
	Count(ctx context.Context) (int64, error)
	Range(ctx context.Context, offset, limit int64) ([]uint64, error)
	Clear(ctx context.Context) error
}

// Locker guards the rebuild against a second rebuild running concurrently.
type Locker interface {
	Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, token string) error
}

// RankIndexes bundles the three projections the service maintains.
type RankIndexes struct {
	Votes  RankIndex
	Views  RankIndex
	Recent RankIndex
}

var ErrRebuildInProgress = errors.Conflict("REBUILD_IN_PROGRESS", "a ranking rebuild is already running")

const (
	rebuildLockName = "rank:movies:rebuild"
	rebuildLockTTL  = 10 * time.Minute
	rebuildBatch    = 500
)

// RankingService keeps the projections in step with the movie table. Writes
// that fail after the database has committed are logged and leave the
// service dirty; Rebuild clears that state.
type RankingService struct {
	indexes map[Metric]RankIndex
	movies  *mysql.MovieRepository
	lock    Locker
	dirty   atomic.Bool
	log     *log.Helper
}

func NewRankingService(idx RankIndexes, movies *mysql.MovieRepository, lock Locker, logger log.Logger) *RankingService {
	return &RankingService{
		indexes: map[Metric]RankIndex{
			MetricVotes:  idx.Votes,
			MetricViews:  idx.Views,
			MetricRecent: idx.Recent,
		},
		movies: movies,
		lock:   lock,
		log:    log.NewHelper(log.With(logger, "module", "service/ranking")),
	}
}

// Score is the stored sort key: the negated metric.
func Score(metric Metric, m *model.Movie) float64 {
	switch metric {
	case MetricViews:
		return -float64(m.ViewCount)
	case MetricRecent:
		return -float64(m.CreatedAt.UnixMilli())
	}
	return -float64(m.TotalVotes)
}

func (s *RankingService) Dirty() bool { return s.dirty.Load() }

func (s *RankingService) markDirty(op string, metric Metric, movieID uint64, err error) {
	s.dirty.Store(true)
	s.log.Errorf("rank %s %s movie=%d failed, rebuild required: %v", op, metric, movieID, err)
}

// Insert adds the movie to every projection. Movies already present are
// left alone, so retried inserts are harmless.
func (s *RankingService) Insert(ctx context.Context, m *model.Movie) {
	for _, metric := range AllMetrics {
		if _, err := s.indexes[metric].Insert(ctx, m.ID, Score(metric, m)); err != nil {
			s.markDirty("insert", metric, m.ID, err)
		}
	}
}

// Update moves the movie to its current position in the given projections,
// or in all of them when none are named.
func (s *RankingService) Update(ctx context.Context, m *model.Movie, metrics ...Metric) {
	if len(metrics) == 0 {
		metrics = AllMetrics
	}
	for _, metric := range metrics {
		if err := s.indexes[metric].Replace(ctx, m.ID, Score(metric, m)); err != nil {
			s.markDirty("replace", metric, m.ID, err)
		}
	}
}

func (s *RankingService) Remove(ctx context.Context, movieID uint64) {
	for _, metric := range AllMetrics {
		if err := s.indexes[metric].Remove(ctx, movieID); err != nil {
			s.markDirty("remove", metric, movieID, err)
		}
	}
}

// PageAt returns the ids at ranks [offset, offset+limit) and the projection
// size. An offset past the end yields an empty page.
func (s *RankingService) PageAt(ctx context.Context, metric Metric, offset, limit int64) ([]uint64, int64, error) {
	idx, ok := s.indexes[metric]
	if !ok {
		return nil, 0, fmt.Errorf("unknown metric %q", metric)
	}
	total, err := idx.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= total || limit <= 0 {
		return []uint64{}, total, nil
	}
	ids, err := idx.Range(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return ids, total, nil
}

// Rebuild clears every projection and refills it from the movie table.
// It returns the number of movies scanned.
func (s *RankingService) Rebuild(ctx context.Context) (int, error) {
	token := uuid.NewString()
	if s.lock != nil {
		got, err := s.lock.Acquire(ctx, rebuildLockName, token, rebuildLockTTL)
		if err != nil {
			return 0, err
		}
		if !got {
			return 0, ErrRebuildInProgress
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), rebuildLockName, token); err != nil {
				s.log.Warnf("release rebuild lock: %v", err)
			}
		}()
	}

	s.dirty.Store(false)
	for _, metric := range AllMetrics {
		if err := s.indexes[metric].Clear(ctx); err != nil {
			s.dirty.Store(true)
			return 0, err
		}
	}
	n := 0
	err := s.movies.Scan(ctx, rebuildBatch, func(batch []model.Movie) error {
		for i := range batch {
			for _, metric := range AllMetrics {
				if _, err := s.indexes[metric].Insert(ctx, batch[i].ID, Score(metric, &batch[i])); err != nil {
					return err
				}
			}
			n++
		}
		return nil
	})
	if err != nil {
		s.dirty.Store(true)
		return n, err
	}
	s.log.Infof("rank projections rebuilt, movies=%d", n)
	return n, nil
}

// Warm rebuilds the projections when any of them disagrees with the movie
// table on size, which is the case after a cold Redis start.
func (s *RankingService) Warm(ctx context.Context) error {
	want, err := s.movies.Count(ctx)
	if err != nil {
		return err
	}
	for _, metric := range AllMetrics {
		n, err := s.indexes[metric].Count(ctx)
		if err != nil {
			return err
		}
		if n != want {
			s.log.Infof("rank %s holds %d of %d movies, rebuilding", metric, n, want)
			_, err = s.Rebuild(ctx)
			return err
		}
	}
	return nil
}
