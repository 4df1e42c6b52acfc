package service

import (
	"context"
	"time"

	"Title_Vote/internal/repository/mysql"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	DefaultReconcileBatch    = 500
	DefaultReconcileInterval = 5 * time.Minute
)

// ReconcileReport counts the corrections made by one pass.
type ReconcileReport struct {
	Movies      int `json:"movies"`
	Suggestions int `json:"suggestions"`
	FixedMovies int `json:"fixed_movies"`
	FixedCounts int `json:"fixed_suggestions"`
}

// Reconciler recomputes vote counters from the vote rows and rebuilds the
// rank projections when anything drifted.
type Reconciler struct {
	repo      *mysql.ReconcileRepository
	rank      *RankingService
	batchSize int
	interval  time.Duration
	log       *log.Helper
}

func NewReconciler(repo *mysql.ReconcileRepository, rank *RankingService, batchSize int, interval time.Duration, logger log.Logger) *Reconciler {
	if batchSize <= 0 {
		batchSize = DefaultReconcileBatch
	}
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &Reconciler{
		repo:      repo,
		rank:      rank,
		batchSize: batchSize,
		interval:  interval,
		log:       log.NewHelper(log.With(logger, "module", "service/reconciler")),
	}
}

func (r *Reconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.log.Errorf("reconcile: %v", err)
			}
		}
	}
}

// RunOnce walks every movie. A movie's total is the sum of its live vote
// rows, and so is each suggestion's count.
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	var rep ReconcileReport
	var cursor uint64
	for {
		movies, next, err := r.repo.MovieBatch(ctx, r.batchSize, cursor)
		if err != nil {
			return rep, err
		}
		if len(movies) == 0 {
			break
		}
		cursor = next
		for _, id := range movies {
			rep.Movies++
			fix, err := r.repo.Reconcile(ctx, id)
			if err != nil {
				r.log.Warnf("reconcile movie %d: %v", id, err)
				continue
			}
			rep.Suggestions += fix.Suggestions
			rep.FixedCounts += fix.FixedSuggestions
			if fix.FixedTotal {
				rep.FixedMovies++
			}
		}
	}

	if rep.FixedMovies > 0 || rep.FixedCounts > 0 || r.rank.Dirty() {
		if _, err := r.rank.Rebuild(ctx); err != nil {
			return rep, err
		}
	}
	if rep.FixedMovies > 0 || rep.FixedCounts > 0 {
		r.log.Infof("reconcile fixed movies=%d suggestions=%d", rep.FixedMovies, rep.FixedCounts)
	}
	return rep, nil
}
