package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"Title_Vote/internal/model"
	"Title_Vote/internal/pkg"
	"Title_Vote/internal/repository/mysql"

	"github.com/glebarez/sqlite"
	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memRank is an in-memory RankIndex with the same ordering as the Redis one.
type memRank struct {
	mu          sync.Mutex
	name        string
	scores      map[uint64]float64
	failReplace bool
}

func newMemRank(name string) *memRank {
	return &memRank{name: name, scores: map[uint64]float64{}}
}

func (r *memRank) Name() string { return r.name }

func (r *memRank) Insert(_ context.Context, id uint64, score float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scores[id]; ok {
		return false, nil
	}
	r.scores[id] = score
	return true, nil
}

func (r *memRank) Replace(_ context.Context, id uint64, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReplace {
		return errors.New("projection unavailable")
	}
	r.scores[id] = score
	return nil
}

func (r *memRank) Remove(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scores, id)
	return nil
}

func (r *memRank) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.scores)), nil
}

func (r *memRank) Range(_ context.Context, offset, limit int64) ([]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint64, 0, len(r.scores))
	for id := range r.scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		si, sj := r.scores[ids[i]], r.scores[ids[j]]
		if si != sj {
			return si < sj
		}
		return ids[i] < ids[j]
	})
	if offset >= int64(len(ids)) {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(ids)) {
		end = int64(len(ids))
	}
	return ids[offset:end], nil
}

func (r *memRank) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = map[uint64]float64{}
	return nil
}

type memLock struct {
	mu   sync.Mutex
	held map[string]string
}

func (l *memLock) Acquire(_ context.Context, name, token string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[name]; ok {
		return false, nil
	}
	l.held[name] = token
	return true, nil
}

func (l *memLock) Release(_ context.Context, name, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] == token {
		delete(l.held, name)
	}
	return nil
}

type fakeRegistry struct {
	infos     map[string]*pkg.KobisMovieInfo
	results   []pkg.KobisMovieSummary
	err       error
	infoCalls int
	lastField string
}

func (f *fakeRegistry) SearchByTitle(_ context.Context, _ string, _, _ int) (*pkg.KobisSearchResult, error) {
	f.lastField = "title"
	if f.err != nil {
		return nil, f.err
	}
	return &pkg.KobisSearchResult{TotCnt: len(f.results), MovieList: f.results}, nil
}

func (f *fakeRegistry) SearchByDirector(_ context.Context, _ string, _, _ int) (*pkg.KobisSearchResult, error) {
	f.lastField = "director"
	if f.err != nil {
		return nil, f.err
	}
	return &pkg.KobisSearchResult{TotCnt: len(f.results), MovieList: f.results}, nil
}

func (f *fakeRegistry) MovieInfo(_ context.Context, movieCd string) (*pkg.KobisMovieInfo, error) {
	f.infoCalls++
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.infos[movieCd]
	if !ok {
		return nil, &pkg.KobisFault{Message: "no such movie", ErrorCode: "320011"}
	}
	return info, nil
}

type sentMail struct {
	to, subject, body string
}

type fixture struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB
	now time.Time

	idx      RankIndexes
	registry *fakeRegistry
	mails    []sentMail

	users       *UserService
	rank        *RankingService
	votes       *VoteService
	suggestions *SuggestionService
	reports     *ReportService
	moderation  *ModerationService
	movies      *MovieService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	if err = db.AutoMigrate(mysql.Models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:   t,
		ctx: context.Background(),
		db:  setupTestDB(t),
		now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		idx: RankIndexes{
			Votes:  newMemRank("votes"),
			Views:  newMemRank("views"),
			Recent: newMemRank("created"),
		},
		registry: &fakeRegistry{infos: map[string]*pkg.KobisMovieInfo{}},
	}
	logger := log.NewStdLogger(io.Discard)
	clock := Clock(func() time.Time { return f.now })

	userRepo := &mysql.UserRepository{DB: f.db}
	banRepo := &mysql.BanRepository{DB: f.db}
	movieRepo := &mysql.MovieRepository{DB: f.db}
	suggestionRepo := &mysql.SuggestionRepository{DB: f.db}
	commentRepo := &mysql.CommentRepository{DB: f.db}
	voteRepo := &mysql.VoteRepository{DB: f.db}
	reportRepo := &mysql.ReportRepository{DB: f.db}

	f.users = NewUserService(userRepo, banRepo, clock, logger)
	f.rank = NewRankingService(f.idx, movieRepo, &memLock{held: map[string]string{}}, logger)
	f.votes = NewVoteService(f.users, suggestionRepo, voteRepo, f.rank, logger)
	f.suggestions = NewSuggestionService(f.users, movieRepo, suggestionRepo, commentRepo, voteRepo, f.rank, logger)
	f.reports = NewReportService(f.users, reportRepo, suggestionRepo, movieRepo, userRepo, clock, logger)
	mailer := Mailer(func(to, subject, body string) error {
		f.mails = append(f.mails, sentMail{to, subject, body})
		return nil
	})
	f.moderation = NewModerationService(f.users, reportRepo, banRepo, f.rank, mailer, clock, logger)
	f.movies = NewMovieService(f.users, movieRepo, suggestionRepo, f.rank, f.registry, nil, logger)
	return f
}

func identity(sub string) *pkg.Identity {
	return &pkg.Identity{Subject: sub, Email: sub + "@example.com", Name: sub}
}

// user resolves sub and returns the local user.
func (f *fixture) user(sub string) *model.User {
	f.t.Helper()
	u, err := f.users.Resolve(f.ctx, identity(sub))
	if err != nil {
		f.t.Fatalf("resolve %s: %v", sub, err)
	}
	return u
}

func (f *fixture) admin(sub string) *pkg.Identity {
	f.t.Helper()
	u := f.user(sub)
	if err := f.db.Model(&model.User{}).Where("id = ?", u.ID).Update("is_admin", true).Error; err != nil {
		f.t.Fatalf("promote %s: %v", sub, err)
	}
	return identity(sub)
}

func (f *fixture) movie(title string) *model.Movie {
	f.t.Helper()
	m, err := f.movies.Create(f.ctx, identity("curator"), MovieInput{OriginalTitle: title})
	if err != nil {
		f.t.Fatalf("create movie %q: %v", title, err)
	}
	return m
}

func (f *fixture) suggest(sub string, movieID uint64, title string) *model.TitleSuggestion {
	f.t.Helper()
	sg, err := f.suggestions.Add(f.ctx, identity(sub), movieID, title, "")
	if err != nil {
		f.t.Fatalf("suggest %q: %v", title, err)
	}
	return sg
}

func (f *fixture) vote(sub string, suggestionID uint64) *model.Movie {
	f.t.Helper()
	m, err := f.votes.Vote(f.ctx, identity(sub), suggestionID)
	if err != nil {
		f.t.Fatalf("%s vote on %d: %v", sub, suggestionID, err)
	}
	return m
}

func (f *fixture) reload(movieID uint64) *model.Movie {
	f.t.Helper()
	var m model.Movie
	if err := f.db.First(&m, movieID).Error; err != nil {
		f.t.Fatalf("reload movie %d: %v", movieID, err)
	}
	return &m
}

// checkTotals asserts that the movie total, the suggestion counters and the
// vote rows all agree.
func (f *fixture) checkTotals(movieID uint64) {
	f.t.Helper()
	var sum int64
	if err := f.db.Model(&model.TitleSuggestion{}).Where("movie_id = ?", movieID).
		Select("COALESCE(SUM(votes_count), 0)").Scan(&sum).Error; err != nil {
		f.t.Fatalf("sum counters: %v", err)
	}
	var rows int64
	if err := f.db.Model(&model.Vote{}).Where("movie_id = ?", movieID).Count(&rows).Error; err != nil {
		f.t.Fatalf("count votes: %v", err)
	}
	m := f.reload(movieID)
	if m.TotalVotes != sum || sum != rows {
		f.t.Fatalf("movie %d: total_votes=%d sum(votes_count)=%d vote rows=%d", movieID, m.TotalVotes, sum, rows)
	}
}

func (f *fixture) rankScore(metric Metric, movieID uint64) (float64, bool) {
	var r *memRank
	switch metric {
	case MetricViews:
		r = f.idx.Views.(*memRank)
	case MetricRecent:
		r = f.idx.Recent.(*memRank)
	default:
		r = f.idx.Votes.(*memRank)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scores[movieID]
	return s, ok
}

func wantErr(t *testing.T, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Fatalf("error = %v, want %v", got, want)
	}
}

func mustNoErr(t *testing.T, err error, what string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}

func subject(i int) string { return fmt.Sprintf("user-%02d", i) }
