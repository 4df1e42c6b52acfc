package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"Title_Vote/internal/model"
	"Title_Vote/internal/pkg"
	"Title_Vote/internal/repository/mysql"

	"github.com/go-kratos/kratos/v2/log"
)

// Mailer delivers a rendered HTML mail. A nil Mailer disables ban notices.
type Mailer func(to, subject, htmlBody string) error

type ModerationService struct {
	users   *UserService
	reports *mysql.ReportRepository
	bans    *mysql.BanRepository
	rank    *RankingService
	mail    Mailer
	now     func() time.Time
	log     *log.Helper
}

func NewModerationService(
	users *UserService,
	reports *mysql.ReportRepository,
	bans *mysql.BanRepository,
	rank *RankingService,
	mail Mailer,
	clock Clock,
	logger log.Logger,
) *ModerationService {
	return &ModerationService{
		users:   users,
		reports: reports,
		bans:    bans,
		rank:    rank,
		mail:    mail,
		now:     clock,
		log:     log.NewHelper(log.With(logger, "module", "service/moderation")),
	}
}

// pendingReport loads the report and insists it is still pending.
func (s *ModerationService) pendingReport(ctx context.Context, reportID uint64) (*model.Report, error) {
	rp, err := s.reports.FindByID(ctx, reportID)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	if rp.Status != model.ReportPending {
		return nil, ErrAlreadyProcessed
	}
	return rp, nil
}

// Approve archives the reported suggestion, deletes it with its votes and
// comments, closes the report and moves the movie in the votes projection.
func (s *ModerationService) Approve(ctx context.Context, id *pkg.Identity, reportID uint64, note string) (*model.RemovedSuggestion, error) {
	admin, err := s.users.RequireAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err = s.pendingReport(ctx, reportID); err != nil {
		return nil, err
	}
	archived, m, err := s.reports.Approve(ctx, reportID, admin.ID, strings.TrimSpace(note), s.now())
	switch {
	case errors.Is(err, mysql.ErrStateChanged):
		return nil, ErrAlreadyProcessed
	case errors.Is(err, mysql.ErrNotFound):
		return nil, ErrSuggestionNotFound
	case err != nil:
		return nil, err
	}
	s.rank.Update(ctx, m, MetricVotes)
	s.log.Infof("report %d approved by %d, suggestion %d removed", reportID, admin.ID, archived.OriginalSuggestionID)
	return archived, nil
}

func (s *ModerationService) Reject(ctx context.Context, id *pkg.Identity, reportID uint64, note string) error {
	admin, err := s.users.RequireAdmin(ctx, id)
	if err != nil {
		return err
	}
	if _, err = s.pendingReport(ctx, reportID); err != nil {
		return err
	}
	err = s.reports.Reject(ctx, reportID, admin.ID, strings.TrimSpace(note), s.now())
	if errors.Is(err, mysql.ErrStateChanged) {
		return ErrAlreadyProcessed
	}
	return err
}

// MaxBanDays bounds a timed ban; longer bans should be permanent.
const MaxBanDays = 36500

// BanInput describes a ban. A nil DurationDays makes it permanent.
type BanInput struct {
	UserID       uint64
	Reason       string
	DurationDays *int
	AdminNote    string
}

// Ban replaces any active ban of the user with a new one.
func (s *ModerationService) Ban(ctx context.Context, id *pkg.Identity, in BanInput) (*model.UserBan, error) {
	admin, err := s.users.RequireAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || (in.DurationDays != nil && (*in.DurationDays <= 0 || *in.DurationDays > MaxBanDays)) {
		return nil, ErrInvalidBan
	}
	target, err := s.users.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	b := &model.UserBan{
		UserID:    target.ID,
		BannedBy:  admin.ID,
		BannedAt:  now,
		Reason:    reason,
		AdminNote: strings.TrimSpace(in.AdminNote),
	}
	if in.DurationDays != nil {
		exp := now.AddDate(0, 0, *in.DurationDays)
		b.ExpiresAt = &exp
	}
	if err = s.bans.Ban(ctx, b); err != nil {
		return nil, err
	}
	s.log.Infof("user %d banned by %d until %v", target.ID, admin.ID, b.ExpiresAt)
	s.notify(target, b)
	return b, nil
}

func (s *ModerationService) notify(u *model.User, b *model.UserBan) {
	if s.mail == nil || u.Email == "" {
		return
	}
	body := pkg.BanNoticeHTML(u.Name, b.Reason, b.ExpiresAt)
	if err := s.mail(u.Email, "Your account has been suspended", body); err != nil {
		s.log.Warnf("ban notice to user %d failed: %v", u.ID, err)
	}
}

// Unban deactivates every active ban of the user.
func (s *ModerationService) Unban(ctx context.Context, id *pkg.Identity, userID uint64) (int64, error) {
	admin, err := s.users.RequireAdmin(ctx, id)
	if err != nil {
		return 0, err
	}
	if _, err = s.users.Get(ctx, userID); err != nil {
		return 0, err
	}
	return s.bans.Unban(ctx, userID, admin.ID)
}

type BanStatus struct {
	IsBanned  bool       `json:"is_banned"`
	Reason    string     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// BanStatus is computed at read time: an active ban past its expiry reads
// as not banned.
func (s *ModerationService) BanStatus(ctx context.Context, userID uint64) (BanStatus, error) {
	b, err := s.bans.ActiveBan(ctx, userID)
	if errors.Is(err, mysql.ErrNotFound) {
		return BanStatus{}, nil
	}
	if err != nil {
		return BanStatus{}, err
	}
	if !b.Enforced(s.now()) {
		return BanStatus{}, nil
	}
	return BanStatus{IsBanned: true, Reason: b.Reason, ExpiresAt: b.ExpiresAt}, nil
}

type UserStats struct {
	RemovedCount         int64      `json:"removed_count"`
	PendingReportsCount  int64      `json:"pending_reports_count"`
	ApprovedReportsCount int64      `json:"approved_reports_count"`
	TotalReportsCount    int64      `json:"total_reports_count"`
	IsBanned             bool       `json:"is_banned"`
	BanExpiresAt         *time.Time `json:"ban_expires_at,omitempty"`
}

func (s *ModerationService) UserStats(ctx context.Context, id *pkg.Identity, userID uint64) (*UserStats, error) {
	if _, err := s.users.RequireAdmin(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	removed, err := s.bans.CountRemoved(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.reports.CountByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	st, err := s.BanStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		RemovedCount:         removed,
		PendingReportsCount:  counts.Pending,
		ApprovedReportsCount: counts.Approved,
		TotalReportsCount:    counts.Total,
		IsBanned:             st.IsBanned,
		BanExpiresAt:         st.ExpiresAt,
	}, nil
}
