package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"Title_Vote/internal/model"
	"Title_Vote/internal/pkg"
	"Title_Vote/internal/repository/mysql"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	DefaultPageSize    = 10
	MaxPageSize        = 50
	registryPageSize   = 20
	shortIDAttempts    = 5
	localSearchBatch   = 500
	searchTypeTitle    = "title"
	searchTypeDirector = "director"
)

// Registry is the slice of the film registry API the service consumes.
type Registry interface {
	SearchByTitle(ctx context.Context, title string, page, perPage int) (*pkg.KobisSearchResult, error)
	SearchByDirector(ctx context.Context, director string, page, perPage int) (*pkg.KobisSearchResult, error)
	MovieInfo(ctx context.Context, movieCd string) (*pkg.KobisMovieInfo, error)
}

// ResponseCache stores raw registry answers. It is optional.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

type MovieService struct {
	users       *UserService
	movies      *mysql.MovieRepository
	suggestions *mysql.SuggestionRepository
	rank        *RankingService
	registry    Registry
	cache       ResponseCache
	newShortID  func() (string, error)
	log         *log.Helper
}

func NewMovieService(
	users *UserService,
	movies *mysql.MovieRepository,
	suggestions *mysql.SuggestionRepository,
	rank *RankingService,
	registry Registry,
	cache ResponseCache,
	logger log.Logger,
) *MovieService {
	return &MovieService{
		users:       users,
		movies:      movies,
		suggestions: suggestions,
		rank:        rank,
		registry:    registry,
		cache:       cache,
		newShortID:  pkg.NewShortID,
		log:         log.NewHelper(log.With(logger, "module", "service/movie")),
	}
}

// MovieInput is a manually entered movie.
type MovieInput struct {
	OriginalTitle  string `json:"original_title" binding:"required"`
	EnglishTitle   string `json:"english_title"`
	KoreanTitle    string `json:"korean_title"`
	ReleaseDate    string `json:"release_date"`
	Year           int    `json:"year"`
	Directors      string `json:"directors"`
	AdditionalInfo string `json:"additional_info"`
	KobisMovieCode string `json:"kobis_movie_code"`
}

func (s *MovieService) Create(ctx context.Context, id *pkg.Identity, in MovieInput) (*model.Movie, error) {
	u, err := s.users.RequireActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.OriginalTitle) == "" {
		return nil, ErrInvalidMovie
	}
	m := &model.Movie{
		OriginalTitle:  strings.TrimSpace(in.OriginalTitle),
		EnglishTitle:   strings.TrimSpace(in.EnglishTitle),
		KoreanTitle:    strings.TrimSpace(in.KoreanTitle),
		ReleaseDate:    strings.TrimSpace(in.ReleaseDate),
		Year:           in.Year,
		Directors:      strings.TrimSpace(in.Directors),
		AdditionalInfo: strings.TrimSpace(in.AdditionalInfo),
		CreatedBy:      &u.ID,
	}
	if code := strings.TrimSpace(in.KobisMovieCode); code != "" {
		m.KobisMovieCode = &code
	}
	if err = s.insert(ctx, m, nil); err != nil {
		return nil, err
	}
	return m, nil
}

// Import creates a movie from the registry's detail record and seeds the
// registry title as the official suggestion. A code that was already
// imported fails with ErrAlreadyExists.
func (s *MovieService) Import(ctx context.Context, id *pkg.Identity, movieCd string) (*model.Movie, error) {
	u, err := s.users.RequireActive(ctx, id)
	if err != nil {
		return nil, err
	}
	movieCd = strings.TrimSpace(movieCd)
	if movieCd == "" {
		return nil, ErrInvalidMovieCode
	}
	if exists, err := s.codeExists(ctx, movieCd); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrAlreadyExists
	}
	info, err := s.registry.MovieInfo(ctx, movieCd)
	if err != nil {
		return nil, upstream(err)
	}

	m := MovieFromRegistry(info)
	m.KobisMovieCode = &movieCd
	m.CreatedBy = &u.ID
	var official *model.TitleSuggestion
	if title := strings.TrimSpace(info.MovieNm); title != "" {
		official = &model.TitleSuggestion{Title: title}
	}
	if err = s.insert(ctx, m, official); err != nil {
		return nil, err
	}
	s.log.Infof("movie %s imported from registry code %s", m.ShortID, movieCd)
	return m, nil
}

// MovieFromRegistry maps a registry detail record onto a movie.
func MovieFromRegistry(info *pkg.KobisMovieInfo) *model.Movie {
	original := info.MovieNmOg
	if original == "" {
		original = info.MovieNmEn
	}
	if original == "" {
		original = info.MovieNm
	}
	nations := make([]string, 0, len(info.Nations))
	for _, n := range info.Nations {
		nations = append(nations, n.NationNm)
	}
	genres := make([]string, 0, len(info.Genres))
	for _, g := range info.Genres {
		genres = append(genres, g.GenreNm)
	}
	var extra []string
	if v := strings.Join(nations, ", "); v != "" {
		extra = append(extra, v)
	}
	if v := strings.Join(genres, ", "); v != "" {
		extra = append(extra, v)
	}
	year, _ := strconv.Atoi(info.PrdtYear)
	return &model.Movie{
		OriginalTitle:  original,
		EnglishTitle:   info.MovieNmEn,
		KoreanTitle:    info.MovieNm,
		ReleaseDate:    info.OpenDt,
		Year:           year,
		Directors:      pkg.DirectorNames(info.Directors),
		AdditionalInfo: strings.Join(extra, " • "),
	}
}

func (s *MovieService) codeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.movies.FindByCode(ctx, code)
	if errors.Is(err, mysql.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// insert assigns a free short id, stores the movie and enters it in every
// projection.
func (s *MovieService) insert(ctx context.Context, m *model.Movie, official *model.TitleSuggestion) error {
	if code := m.Code(); code != "" {
		if exists, err := s.codeExists(ctx, code); err != nil {
			return err
		} else if exists {
			return ErrAlreadyExists
		}
	}
	for attempt := 0; ; attempt++ {
		shortID, err := s.freeShortID(ctx)
		if err != nil {
			return err
		}
		m.ShortID = shortID
		err = s.movies.Create(ctx, m, official)
		if err == nil {
			break
		}
		if !errors.Is(err, mysql.ErrDuplicate) {
			return err
		}
		// either the registry code or the short id was taken concurrently
		if code := m.Code(); code != "" {
			if exists, cerr := s.codeExists(ctx, code); cerr == nil && exists {
				return ErrAlreadyExists
			}
		}
		if attempt+1 >= shortIDAttempts {
			return err
		}
		m.ID = 0
		if official != nil {
			official.ID = 0
		}
	}
	s.rank.Insert(ctx, m)
	return nil
}

func (s *MovieService) freeShortID(ctx context.Context) (string, error) {
	for i := 0; i < shortIDAttempts; i++ {
		id, err := s.newShortID()
		if err != nil {
			return "", err
		}
		taken, err := s.movies.ShortIDTaken(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free short id after %d attempts", shortIDAttempts)
}

// MovieDetail is a movie with all of its suggestions, most voted first.
type MovieDetail struct {
	*model.Movie
	TitleSuggestions []model.TitleSuggestion `json:"title_suggestions"`
}

func (s *MovieService) GetByShortID(ctx context.Context, shortID string) (*MovieDetail, error) {
	m, err := s.movies.FindByShortID(ctx, shortID)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	list, err := s.suggestions.ListByMovie(ctx, m.ID, 0)
	if err != nil {
		return nil, err
	}
	return &MovieDetail{Movie: m, TitleSuggestions: list}, nil
}

func (s *MovieService) Get(ctx context.Context, movieID uint64) (*model.Movie, error) {
	m, err := s.movies.FindByID(ctx, movieID)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrMovieNotFound
	}
	return m, err
}

func (s *MovieService) IncrementView(ctx context.Context, movieID uint64) (*model.Movie, error) {
	m, err := s.movies.IncrementView(ctx, movieID)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	s.rank.Update(ctx, m, MetricViews)
	return m, nil
}

type MoviePage struct {
	Movies     []model.Movie `json:"movies"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	TotalPages int64         `json:"total_pages"`
}

// List pages through the projection for metric. Page is 1-based.
func (s *MovieService) List(ctx context.Context, metric Metric, page, limit int) (*MoviePage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	// pages past what an int64 offset can address are simply past the end
	offset := int64(math.MaxInt64)
	if int64(page-1) <= math.MaxInt64/int64(limit) {
		offset = int64(page-1) * int64(limit)
	}
	ids, total, err := s.rank.PageAt(ctx, metric, offset, int64(limit))
	if err != nil {
		return nil, err
	}
	rows, err := s.movies.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.Movie, len(rows))
	for _, m := range rows {
		byID[m.ID] = m
	}
	movies := make([]model.Movie, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			s.rank.markDirty("read", metric, id, errors.New("projection entry has no movie"))
			continue
		}
		movies = append(movies, m)
	}
	return &MoviePage{
		Movies:     movies,
		TotalCount: total,
		Page:       page,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}, nil
}

// SearchResult is one row of a merged search: a local movie or a registry
// entry that has not been imported yet.
type SearchResult struct {
	Source         string `json:"source"`
	InDB           bool   `json:"in_db"`
	ShortID        string `json:"short_id,omitempty"`
	MovieCd        string `json:"movie_cd,omitempty"`
	KoreanTitle    string `json:"korean_title,omitempty"`
	EnglishTitle   string `json:"english_title,omitempty"`
	OriginalTitle  string `json:"original_title"`
	Year           string `json:"year,omitempty"`
	Directors      string `json:"directors,omitempty"`
	AdditionalInfo string `json:"additional_info,omitempty"`
}

type SearchResponse struct {
	Results       []SearchResult `json:"results"`
	RegistryError string         `json:"registry_error,omitempty"`
}

// Search matches local movies and queries the registry, then merges the two.
// A registry failure degrades to local results only.
func (s *MovieService) Search(ctx context.Context, query, searchType string) (*SearchResponse, error) {
	if searchType != searchTypeDirector {
		searchType = searchTypeTitle
	}
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return &SearchResponse{Results: []SearchResult{}}, nil
	}
	local, err := s.searchLocal(ctx, term, searchType)
	if err != nil {
		return nil, err
	}
	resp := &SearchResponse{}
	remote, err := s.searchRegistry(ctx, strings.TrimSpace(query), searchType)
	if err != nil {
		s.log.Warnf("registry search %q failed: %v", query, err)
		resp.RegistryError = err.Error()
	}
	resp.Results = MergeResults(local, remote)
	return resp, nil
}

// MatchesQuery is the local search predicate. term must already be lower
// case and trimmed.
func MatchesQuery(m *model.Movie, term, searchType string) bool {
	if searchType == searchTypeDirector {
		return strings.Contains(strings.ToLower(m.Directors), term)
	}
	return strings.Contains(strings.ToLower(m.KoreanTitle), term) ||
		strings.Contains(strings.ToLower(m.OriginalTitle), term)
}

func (s *MovieService) searchLocal(ctx context.Context, term, searchType string) ([]model.Movie, error) {
	var out []model.Movie
	err := s.movies.Scan(ctx, localSearchBatch, func(batch []model.Movie) error {
		for i := range batch {
			if MatchesQuery(&batch[i], term, searchType) {
				out = append(out, batch[i])
			}
		}
		return nil
	})
	return out, err
}

func (s *MovieService) searchRegistry(ctx context.Context, query, searchType string) ([]pkg.KobisMovieSummary, error) {
	key := searchType + ":" + strings.ToLower(query)
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var cached []pkg.KobisMovieSummary
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}
	var (
		res *pkg.KobisSearchResult
		err error
	)
	if searchType == searchTypeDirector {
		res, err = s.registry.SearchByDirector(ctx, query, 1, registryPageSize)
	} else {
		res, err = s.registry.SearchByTitle(ctx, query, 1, registryPageSize)
	}
	if err != nil {
		return nil, upstream(err)
	}
	if s.cache != nil {
		if raw, err := json.Marshal(res.MovieList); err == nil {
			if err = s.cache.Set(ctx, key, raw); err != nil {
				s.log.Warnf("cache registry search: %v", err)
			}
		}
	}
	return res.MovieList, nil
}

// MergeResults lists local movies first, then registry entries whose code
// is not already among the local movies.
func MergeResults(local []model.Movie, remote []pkg.KobisMovieSummary) []SearchResult {
	out := make([]SearchResult, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(local))
	for _, m := range local {
		r := SearchResult{
			Source:         "db",
			InDB:           true,
			ShortID:        m.ShortID,
			KoreanTitle:    m.KoreanTitle,
			EnglishTitle:   m.EnglishTitle,
			OriginalTitle:  m.OriginalTitle,
			Directors:      m.Directors,
			AdditionalInfo: m.AdditionalInfo,
		}
		if m.Year > 0 {
			r.Year = strconv.Itoa(m.Year)
		}
		if code := m.Code(); code != "" {
			r.MovieCd = code
			seen[code] = struct{}{}
		}
		out = append(out, r)
	}
	for _, k := range remote {
		if _, dup := seen[k.MovieCd]; dup {
			continue
		}
		seen[k.MovieCd] = struct{}{}
		var extra []string
		for _, v := range []string{k.NationAlt, k.GenreAlt} {
			if v != "" {
				extra = append(extra, v)
			}
		}
		out = append(out, SearchResult{
			Source:         "kobis",
			MovieCd:        k.MovieCd,
			KoreanTitle:    k.MovieNm,
			EnglishTitle:   k.MovieNmEn,
			Year:           k.PrdtYear,
			Directors:      pkg.DirectorNames(k.Directors),
			AdditionalInfo: strings.Join(extra, " • "),
		})
	}
	return out
}
