package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"Title_Vote/internal/model"
	"Title_Vote/internal/pkg"
	"Title_Vote/internal/repository/mysql"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	MinReasonLength = 10
	MaxReasonLength = 500
)

type ReportService struct {
	users       *UserService
	reports     *mysql.ReportRepository
	suggestions *mysql.SuggestionRepository
	movies      *mysql.MovieRepository
	userRepo    *mysql.UserRepository
	now         func() time.Time
	log         *log.Helper
}

func NewReportService(
	users *UserService,
	reports *mysql.ReportRepository,
	suggestions *mysql.SuggestionRepository,
	movies *mysql.MovieRepository,
	userRepo *mysql.UserRepository,
	clock Clock,
	logger log.Logger,
) *ReportService {
	return &ReportService{
		users:       users,
		reports:     reports,
		suggestions: suggestions,
		movies:      movies,
		userRepo:    userRepo,
		now:         clock,
		log:         log.NewHelper(log.With(logger, "module", "service/report")),
	}
}

// Report files a report against a suggestion. Each user may report a given
// suggestion once, whatever became of the earlier report.
func (s *ReportService) Report(ctx context.Context, id *pkg.Identity, suggestionID uint64, reason string) (*model.Report, error) {
	u, err := s.users.RequireActive(ctx, id)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if n := utf8.RuneCountInString(reason); n < MinReasonLength || n > MaxReasonLength {
		return nil, ErrInvalidReason
	}
	if _, err = s.suggestions.FindByID(ctx, suggestionID); err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			return nil, ErrSuggestionNotFound
		}
		return nil, err
	}
	exists, err := s.reports.Exists(ctx, suggestionID, u.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReport
	}
	rp := &model.Report{
		SuggestionID: suggestionID,
		ReportedBy:   u.ID,
		Reason:       reason,
		Status:       model.ReportPending,
		ReportedAt:   s.now(),
	}
	if err = s.reports.Create(ctx, rp); err != nil {
		if errors.Is(err, mysql.ErrDuplicate) {
			return nil, ErrDuplicateReport
		}
		return nil, err
	}
	return rp, nil
}

func (s *ReportService) Counts(ctx context.Context, suggestionID uint64) (mysql.ReportCounts, error) {
	return s.reports.CountBySuggestion(ctx, suggestionID)
}

// HasReported is false for anonymous callers and users never seen before.
func (s *ReportService) HasReported(ctx context.Context, id *pkg.Identity, suggestionID uint64) (bool, error) {
	u, err := s.users.Lookup(ctx, id)
	if err != nil || u == nil {
		return false, err
	}
	return s.reports.Exists(ctx, suggestionID, u.ID)
}

// PendingReport is a pending report with what an admin needs to judge it.
type PendingReport struct {
	model.Report
	Suggestion *model.TitleSuggestion `json:"suggestion,omitempty"`
	Reporter   *model.User            `json:"reporter,omitempty"`
	Movie      *model.Movie           `json:"movie,omitempty"`
}

func (s *ReportService) Pending(ctx context.Context, id *pkg.Identity) ([]PendingReport, error) {
	if _, err := s.users.RequireAdmin(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.reports.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	sIDs := make([]uint64, 0, len(rows))
	uIDs := make([]uint64, 0, len(rows))
	for _, r := range rows {
		sIDs = append(sIDs, r.SuggestionID)
		uIDs = append(uIDs, r.ReportedBy)
	}
	suggestions, err := s.suggestions.MapByIDs(ctx, sIDs)
	if err != nil {
		return nil, err
	}
	reporters, err := s.userRepo.MapByIDs(ctx, uIDs)
	if err != nil {
		return nil, err
	}
	mIDs := make([]uint64, 0, len(suggestions))
	for _, sg := range suggestions {
		mIDs = append(mIDs, sg.MovieID)
	}
	movieRows, err := s.movies.ListByIDs(ctx, mIDs)
	if err != nil {
		return nil, err
	}
	movies := make(map[uint64]*model.Movie, len(movieRows))
	for i := range movieRows {
		movies[movieRows[i].ID] = &movieRows[i]
	}

	out := make([]PendingReport, 0, len(rows))
	for _, r := range rows {
		pr := PendingReport{Report: r}
		if sg, ok := suggestions[r.SuggestionID]; ok {
			pr.Suggestion = &sg
			pr.Movie = movies[sg.MovieID]
		}
		if u, ok := reporters[r.ReportedBy]; ok {
			pr.Reporter = &u
		}
		out = append(out, pr)
	}
	return out, nil
}
