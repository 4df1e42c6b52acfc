package service

import (
	"context"
	"errors"

	"Title_Vote/internal/model"
	"Title_Vote/internal/pkg"
	"Title_Vote/internal/repository/mysql"

	"github.com/go-kratos/kratos/v2/log"
)

// VoteService is the vote ledger: one live vote per user per movie, with
// suggestion and movie counters moved in the same transaction as the vote row.
type VoteService struct {
	users       *UserService
	suggestions *mysql.SuggestionRepository
	votes       *mysql.VoteRepository
	rank        *RankingService
	log         *log.Helper
}

func NewVoteService(users *UserService, suggestions *mysql.SuggestionRepository, votes *mysql.VoteRepository, rank *RankingService, logger log.Logger) *VoteService {
	return &VoteService{
		users:       users,
		suggestions: suggestions,
		votes:       votes,
		rank:        rank,
		log:         log.NewHelper(log.With(logger, "module", "service/vote")),
	}
}

func (s *VoteService) Vote(ctx context.Context, id *pkg.Identity, suggestionID uint64) (*model.Movie, error) {
	u, err := s.users.RequireActive(ctx, id)
	if err != nil {
		return nil, err
	}
	sg, err := s.suggestions.FindByID(ctx, suggestionID)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrSuggestionNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err = s.votes.FindOnMovie(ctx, u.ID, sg.MovieID); err == nil {
		return nil, ErrAlreadyVoted
	} else if !errors.Is(err, mysql.ErrNotFound) {
		return nil, err
	}

	m, err := s.votes.Cast(ctx, u.ID, sg.ID)
	switch {
	case errors.Is(err, mysql.ErrDuplicate):
		return nil, ErrAlreadyVoted
	case errors.Is(err, mysql.ErrNotFound):
		return nil, ErrSuggestionNotFound
	case err != nil:
		return nil, err
	}
	s.rank.Update(ctx, m, MetricVotes)
	return m, nil
}

func (s *VoteService) Cancel(ctx context.Context, id *pkg.Identity, suggestionID uint64) (*model.Movie, error) {
	u, err := s.users.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := s.votes.Cancel(ctx, u.ID, suggestionID)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrVoteNotFound
	}
	if err != nil {
		return nil, err
	}
	s.rank.Update(ctx, m, MetricVotes)
	return m, nil
}

// MyVote returns the caller's vote on the movie, or nil.
func (s *VoteService) MyVote(ctx context.Context, id *pkg.Identity, movieID uint64) (*model.Vote, error) {
	u, err := s.users.Lookup(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	v, err := s.votes.FindOnMovie(ctx, u.ID, movieID)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, nil
	}
	return v, err
}
