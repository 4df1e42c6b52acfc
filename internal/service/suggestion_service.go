package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"Title_Vote/internal/model"
	"Title_Vote/internal/pkg"
	"Title_Vote/internal/repository/mysql"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	DefaultTopSuggestions = 3
	MaxCommentLength      = 1000
)

type SuggestionService struct {
	users       *UserService
	movies      *mysql.MovieRepository
	suggestions *mysql.SuggestionRepository
	comments    *mysql.CommentRepository
	votes       *mysql.VoteRepository
	rank        *RankingService
	log         *log.Helper
}

func NewSuggestionService(
	users *UserService,
	movies *mysql.MovieRepository,
	suggestions *mysql.SuggestionRepository,
	comments *mysql.CommentRepository,
	votes *mysql.VoteRepository,
	rank *RankingService,
	logger log.Logger,
) *SuggestionService {
	return &SuggestionService{
		users:       users,
		movies:      movies,
		suggestions: suggestions,
		comments:    comments,
		votes:       votes,
		rank:        rank,
		log:         log.NewHelper(log.With(logger, "module", "service/suggestion")),
	}
}

// Add creates a user suggestion. A title equal to an existing one after
// trimming (case-sensitive) is rejected.
func (s *SuggestionService) Add(ctx context.Context, id *pkg.Identity, movieID uint64, title, description string) (*model.TitleSuggestion, error) {
	u, err := s.users.RequireActive(ctx, id)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidTitle
	}
	sg := &model.TitleSuggestion{
		MovieID:     movieID,
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedBy:   &u.ID,
	}
	if err = s.create(ctx, sg); err != nil {
		return nil, err
	}
	return sg, nil
}

// AddOfficial seeds the registry's own title. A duplicate is not an error:
// it returns nil, nil so imports stay retryable.
func (s *SuggestionService) AddOfficial(ctx context.Context, movieID uint64, title, description string) (*model.TitleSuggestion, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	sg := &model.TitleSuggestion{
		MovieID:     movieID,
		Title:       title,
		Description: strings.TrimSpace(description),
		IsOfficial:  true,
	}
	err := s.create(ctx, sg)
	if errors.Is(err, ErrDuplicateTitle) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sg, nil
}

func (s *SuggestionService) create(ctx context.Context, sg *model.TitleSuggestion) error {
	if _, err := s.movies.FindByID(ctx, sg.MovieID); err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			return ErrMovieNotFound
		}
		return err
	}
	taken, err := s.suggestions.TitleTaken(ctx, sg.MovieID, sg.Title)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateTitle
	}
	err = s.suggestions.Create(ctx, sg)
	switch {
	case errors.Is(err, mysql.ErrDuplicate):
		return ErrDuplicateTitle
	case errors.Is(err, mysql.ErrNotFound):
		return ErrMovieNotFound
	}
	return err
}

// Delete lets the author remove a non-official suggestion along with its
// votes and comments.
func (s *SuggestionService) Delete(ctx context.Context, id *pkg.Identity, suggestionID uint64) error {
	u, err := s.users.Resolve(ctx, id)
	if err != nil {
		return err
	}
	sg, err := s.suggestions.FindByID(ctx, suggestionID)
	if errors.Is(err, mysql.ErrNotFound) {
		return ErrSuggestionNotFound
	}
	if err != nil {
		return err
	}
	if sg.IsOfficial {
		return ErrCannotDeleteOfficial
	}
	if sg.CreatedBy == nil || *sg.CreatedBy != u.ID {
		return ErrForbidden
	}
	m, err := s.suggestions.Delete(ctx, sg.ID)
	if errors.Is(err, mysql.ErrNotFound) {
		return ErrSuggestionNotFound
	}
	if err != nil {
		return err
	}
	s.rank.Update(ctx, m, MetricVotes)
	return nil
}

// Top returns the movie's leading suggestions, most votes first and newest
// first among equals.
func (s *SuggestionService) Top(ctx context.Context, movieID uint64, limit int) ([]model.TitleSuggestion, error) {
	if limit <= 0 {
		limit = DefaultTopSuggestions
	}
	return s.suggestions.ListByMovie(ctx, movieID, limit)
}

func (s *SuggestionService) ListByMovie(ctx context.Context, movieID uint64) ([]model.TitleSuggestion, error) {
	return s.suggestions.ListByMovie(ctx, movieID, 0)
}

func (s *SuggestionService) AddComment(ctx context.Context, id *pkg.Identity, suggestionID uint64, content string) (*model.Comment, error) {
	u, err := s.users.RequireActive(ctx, id)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > MaxCommentLength {
		return nil, ErrInvalidComment
	}
	if _, err = s.suggestions.FindByID(ctx, suggestionID); err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			return nil, ErrSuggestionNotFound
		}
		return nil, err
	}
	c := &model.Comment{SuggestionID: suggestionID, UserID: u.ID, Content: content}
	if err = s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SuggestionService) Comments(ctx context.Context, suggestionID uint64) ([]model.Comment, error) {
	return s.comments.ListBySuggestion(ctx, suggestionID)
}

// SuggestionWithMovie is a profile row: a suggestion and the movie it belongs to.
type SuggestionWithMovie struct {
	model.TitleSuggestion
	Movie *model.Movie `json:"movie,omitempty"`
}

// VoteWithSuggestion is a profile row for one of the caller's votes.
type VoteWithSuggestion struct {
	model.Vote
	Suggestion *model.TitleSuggestion `json:"suggestion,omitempty"`
	Movie      *model.Movie           `json:"movie,omitempty"`
}

func (s *SuggestionService) Mine(ctx context.Context, id *pkg.Identity) ([]SuggestionWithMovie, error) {
	u, err := s.users.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.suggestions.ListByCreator(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	movieIDs := make([]uint64, 0, len(rows))
	for _, r := range rows {
		movieIDs = append(movieIDs, r.MovieID)
	}
	movies, err := s.movieMap(ctx, movieIDs)
	if err != nil {
		return nil, err
	}
	out := make([]SuggestionWithMovie, 0, len(rows))
	for _, r := range rows {
		out = append(out, SuggestionWithMovie{TitleSuggestion: r, Movie: movies[r.MovieID]})
	}
	return out, nil
}

func (s *SuggestionService) MyVotes(ctx context.Context, id *pkg.Identity) ([]VoteWithSuggestion, error) {
	u, err := s.users.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	votes, err := s.votes.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	sIDs := make([]uint64, 0, len(votes))
	mIDs := make([]uint64, 0, len(votes))
	for _, v := range votes {
		sIDs = append(sIDs, v.SuggestionID)
		mIDs = append(mIDs, v.MovieID)
	}
	suggestions, err := s.suggestions.MapByIDs(ctx, sIDs)
	if err != nil {
		return nil, err
	}
	movies, err := s.movieMap(ctx, mIDs)
	if err != nil {
		return nil, err
	}
	out := make([]VoteWithSuggestion, 0, len(votes))
	for _, v := range votes {
		row := VoteWithSuggestion{Vote: v, Movie: movies[v.MovieID]}
		if sg, ok := suggestions[v.SuggestionID]; ok {
			row.Suggestion = &sg
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *SuggestionService) movieMap(ctx context.Context, ids []uint64) (map[uint64]*model.Movie, error) {
	rows, err := s.movies.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]*model.Movie, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}
